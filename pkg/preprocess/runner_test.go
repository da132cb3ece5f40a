package preprocess

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aii-robotic-labs/http-privacy/pkg/backendtypes"
)

// TestHelperProcess is not a real test. It is the child executable used by the tests below.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	input, _ := io.ReadAll(bufio.NewReader(os.Stdin))
	switch os.Getenv("HELPER_MODE") {
	case "upper":
		fmt.Print(strings.ToUpper(string(input)))
	case "empty":
	case "fail":
		fmt.Fprint(os.Stderr, strings.Repeat("x", 2*maxStderr))
		os.Exit(3)
	case "sleep":
		time.Sleep(time.Minute)
	}
}

func helperRunner(mode string, timeout time.Duration) *Runner {
	return New(backendtypes.PreprocessConfig{
		Command: os.Args[0],
		Args:    []string{"-test.run=TestHelperProcess", "--"},
		Env:     []string{"GO_WANT_HELPER_PROCESS=1", "HELPER_MODE=" + mode},
		Timeout: timeout,
	})
}

func TestRunner_Process(t *testing.T) {
	out, err := helperRunner("upper", 10*time.Second).Process(context.Background(), []byte(`{"message":"hi"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"MESSAGE":"HI"}`, string(out))
}

func TestRunner_EmptyOutput(t *testing.T) {
	out, err := helperRunner("empty", 10*time.Second).Process(context.Background(), []byte(`{"message":"hi"}`))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRunner_NonZeroExit(t *testing.T) {
	_, err := helperRunner("fail", 10*time.Second).Process(context.Background(), []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 3")
	assert.Less(t, len(err.Error()), maxStderr+1024)
}

func TestRunner_Timeout(t *testing.T) {
	start := time.Now()
	_, err := helperRunner("sleep", 200*time.Millisecond).Process(context.Background(), []byte(`{}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Less(t, time.Since(start), 20*time.Second)
}

func TestRunner_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	_, err := helperRunner("sleep", 0).Process(ctx, []byte(`{}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRunner_NotFound(t *testing.T) {
	r := New(backendtypes.PreprocessConfig{Command: "definitely-not-a-real-wasm-module"})
	assert.Equal(t, "definitely-not-a-real-wasm-module", r.Command())

	_, err := r.Process(context.Background(), []byte(`{}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLimitedBuffer(t *testing.T) {
	b := &limitedBuffer{limit: 4}
	n, err := b.Write([]byte("abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	_, _ = b.Write([]byte("gh"))
	assert.Equal(t, "abcd", b.String())
}
