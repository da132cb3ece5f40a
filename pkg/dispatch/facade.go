// Package dispatch implements the message dispatch facade: it validates inbound bodies, runs the
// preprocess-and-forward pipeline and sends messages to named AI backends. Every operation
// returns a Result which the HTTP layer turns into a status code and JSON body.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aii-robotic-labs/http-privacy/pkg/backendtypes"
	"github.com/aii-robotic-labs/http-privacy/pkg/types"
)

// Preprocessor transforms the serialized request before it is forwarded
type Preprocessor interface {
	Process(ctx context.Context, input []byte) ([]byte, error)
}

// Forwarder posts a preprocessed payload to the remote AI endpoint
type Forwarder interface {
	Forward(ctx context.Context, payload []byte) (status int, body []byte, err error)
}

// Backend is a named chat completion provider
type Backend interface {
	Info() types.BackendInfo
	// Label names the backend in client-facing errors
	Label() string
	Complete(ctx context.Context, message string) (string, error)
}

// Outcome labels used with Recorder
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeEmpty   = "empty"
)

// Recorder receives per-call observations; pkg/metrics provides the Prometheus implementation
type Recorder interface {
	ObserveBackendCall(backend, outcome string, duration time.Duration)
	ObservePreprocess(outcome string, duration time.Duration)
	ObserveForward(status int, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveBackendCall(string, string, time.Duration) {}
func (nopRecorder) ObservePreprocess(string, time.Duration)         {}
func (nopRecorder) ObserveForward(int, time.Duration)               {}

// Options configures a Facade
type Options struct {
	Preprocessor Preprocessor
	Forwarder    Forwarder
	Backends     []Backend
	Logger       logrus.FieldLogger
	Recorder     Recorder
}

// Facade dispatches inbound messages. It holds no per-request state and is safe for concurrent use.
type Facade struct {
	preprocessor Preprocessor
	forwarder    Forwarder
	backends     map[string]Backend
	logger       logrus.FieldLogger
	recorder     Recorder
}

// New builds a Facade from its collaborators. Duplicate backend names are rejected.
func New(opts Options) (*Facade, error) {
	f := &Facade{
		preprocessor: opts.Preprocessor,
		forwarder:    opts.Forwarder,
		backends:     make(map[string]Backend, len(opts.Backends)),
		logger:       opts.Logger,
		recorder:     opts.Recorder,
	}
	if f.logger == nil {
		f.logger = logrus.StandardLogger()
	}
	if f.recorder == nil {
		f.recorder = nopRecorder{}
	}

	for _, b := range opts.Backends {
		name := b.Info().Name
		if name == "" {
			return nil, errors.New("backend with empty name")
		}
		if _, exists := f.backends[name]; exists {
			return nil, fmt.Errorf("duplicate backend %q", name)
		}
		f.backends[name] = b
	}
	return f, nil
}

// Echo returns the message member unchanged
func (f *Facade) Echo(body []byte) Result {
	req, ok := parseRequest(body)
	if !ok {
		return Fail(InvalidInput(MsgInvalidInput))
	}
	message, ok := req.Message()
	if !ok {
		return Fail(InvalidInput(MsgInvalidInput))
	}
	return OK(backendtypes.EchoResponse{Message: message})
}

// PreprocessAndForward serializes the whole request, runs it through the preprocessor and relays
// the forward endpoint's JSON answer.
func (f *Facade) PreprocessAndForward(ctx context.Context, body []byte) Result {
	req, ok := parseRequest(body)
	if !ok {
		return Fail(InvalidInput(MsgMissingMessage))
	}
	if _, ok := req.Message(); !ok {
		return Fail(InvalidInput(MsgMissingMessage))
	}
	if f.preprocessor == nil || f.forwarder == nil {
		return Fail(Internal(errors.New("preprocess pipeline not configured")))
	}

	var input bytes.Buffer
	if err := json.Compact(&input, body); err != nil {
		return Fail(Internal(fmt.Errorf("serialize request: %w", err)))
	}

	start := time.Now()
	output, err := f.preprocessor.Process(ctx, input.Bytes())
	output = bytes.TrimSpace(output)
	switch {
	case err != nil:
		f.recorder.ObservePreprocess(OutcomeError, time.Since(start))
		f.logger.WithError(err).Warn("preprocessing failed")
		return Fail(PreprocessingFailed(err))
	case len(output) == 0:
		f.recorder.ObservePreprocess(OutcomeEmpty, time.Since(start))
		f.logger.Warn("preprocessing produced no output")
		return Fail(PreprocessingFailed(errors.New("empty output")))
	}
	f.recorder.ObservePreprocess(OutcomeSuccess, time.Since(start))

	start = time.Now()
	status, respBody, err := f.forwarder.Forward(ctx, output)
	if err != nil {
		f.logger.WithError(err).Error("forward request failed")
		return Fail(Internal(err))
	}
	f.recorder.ObserveForward(status, time.Since(start))

	if status != http.StatusOK {
		f.logger.WithField("status", status).Warn("forward endpoint returned an error status")
		return Fail(UpstreamError(status))
	}
	if !json.Valid(respBody) {
		f.logger.Error("forward endpoint returned a non-JSON body")
		return Fail(Internal(errors.New("upstream body is not JSON")))
	}
	return OK(json.RawMessage(respBody))
}

// Chat sends the message to the backend registered under name
func (f *Facade) Chat(ctx context.Context, name string, body []byte) Result {
	backend, ok := f.backends[name]
	if !ok {
		return Fail(UnknownBackend(name))
	}

	req, ok := parseRequest(body)
	if !ok {
		return Fail(InvalidInput(MsgMissingMessage))
	}
	message, ok := req.MessageText()
	if !ok {
		return Fail(InvalidInput(MsgMissingMessage))
	}

	info := backend.Info()
	log := f.logger.WithFields(logrus.Fields{"backend": info.Name, "model": info.Model})

	start := time.Now()
	reply, err := backend.Complete(ctx, message)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = types.NewEmptyResponseError(info.Name)
	}
	if err != nil {
		f.recorder.ObserveBackendCall(info.Name, OutcomeError, time.Since(start))
		log.WithError(err).Error("backend call failed")
		return Fail(BackendError(backend.Label(), err))
	}
	f.recorder.ObserveBackendCall(info.Name, OutcomeSuccess, time.Since(start))
	log.WithField("duration", time.Since(start)).Debug("backend call completed")

	return OK(backendtypes.BackendResponse{Message: reply, Model: info.Model})
}

// Backends lists the registered backends sorted by name
func (f *Facade) Backends() []types.BackendInfo {
	infos := make([]types.BackendInfo, 0, len(f.backends))
	for _, b := range f.backends {
		infos = append(infos, b.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// HasBackend reports whether name is a registered backend
func (f *Facade) HasBackend(name string) bool {
	_, ok := f.backends[name]
	return ok
}

// parseRequest decodes body as a JSON object; anything else is invalid input
func parseRequest(body []byte) (backendtypes.MessageRequest, bool) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, false
	}
	var req backendtypes.MessageRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, false
	}
	return req, req != nil
}
