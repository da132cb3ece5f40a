package backendtypes

import "encoding/json"

// MessageField is the only member every dispatch route requires
const MessageField = "message"

// MessageRequest is the decoded inbound body. Members are kept raw so the echo and
// preprocess routes can hand them back without reinterpreting their values.
type MessageRequest map[string]json.RawMessage

// Message returns the raw message value and whether the member was present
func (r MessageRequest) Message() (json.RawMessage, bool) {
	if r == nil {
		return nil, false
	}
	raw, ok := r[MessageField]
	return raw, ok
}

// MessageText returns the message as a string; ok is false when absent or not a JSON string
func (r MessageRequest) MessageText() (string, bool) {
	raw, ok := r.Message()
	if !ok {
		return "", false
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", false
	}
	return text, true
}

// ImageRequest describes a text-to-image generation
type ImageRequest struct {
	Prompt string `json:"prompt"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Steps  int    `json:"steps"`
}
