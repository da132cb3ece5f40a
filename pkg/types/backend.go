package types

// BackendType selects which provider implementation serves a named backend
type BackendType string

const (
	// BackendTypeOpenAI covers every OpenAI-compatible chat completions API (xAI, DeepSeek, Qwen, Ollama)
	BackendTypeOpenAI    BackendType = "openai"
	BackendTypeAnthropic BackendType = "anthropic"
	BackendTypeGemini    BackendType = "gemini"
	BackendTypeBedrock   BackendType = "bedrock"
)

// Valid reports whether t names a supported provider implementation
func (t BackendType) Valid() bool {
	switch t {
	case BackendTypeOpenAI, BackendTypeAnthropic, BackendTypeGemini, BackendTypeBedrock:
		return true
	}
	return false
}

// BackendInfo describes a registered backend without exposing credentials
type BackendInfo struct {
	Name  string      `json:"name"`
	Type  BackendType `json:"type"`
	Model string      `json:"model"`
}
