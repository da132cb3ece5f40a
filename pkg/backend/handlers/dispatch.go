package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/aii-robotic-labs/http-privacy/pkg/dispatch"
)

// BackendParam is the chi URL parameter naming the backend
const BackendParam = "backend"

// DispatchHandler serves the echo, preprocess-and-forward and named-backend routes
type DispatchHandler struct {
	facade *dispatch.Facade
	logger logrus.FieldLogger
}

func NewDispatchHandler(facade *dispatch.Facade, logger logrus.FieldLogger) *DispatchHandler {
	return &DispatchHandler{facade: facade, logger: logger}
}

// Echo handles POST / and POST /boto3
func (h *DispatchHandler) Echo(w http.ResponseWriter, r *http.Request) {
	body, err := ReadBody(w, r)
	if err != nil {
		WriteResult(w, r, h.logger, dispatch.Fail(dispatch.InvalidInput(dispatch.MsgInvalidInput)))
		return
	}
	WriteResult(w, r, h.logger, h.facade.Echo(body))
}

// PreprocessAndForward handles POST /api/ai
func (h *DispatchHandler) PreprocessAndForward(w http.ResponseWriter, r *http.Request) {
	body, err := ReadBody(w, r)
	if err != nil {
		WriteResult(w, r, h.logger, dispatch.Fail(dispatch.InvalidInput(dispatch.MsgMissingMessage)))
		return
	}
	WriteResult(w, r, h.logger, h.facade.PreprocessAndForward(r.Context(), body))
}

// Chat handles POST /{backend}
func (h *DispatchHandler) Chat(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, BackendParam)
	if !h.facade.HasBackend(name) {
		WriteResult(w, r, h.logger, dispatch.Fail(dispatch.UnknownBackend(name)))
		return
	}

	body, err := ReadBody(w, r)
	if err != nil {
		WriteResult(w, r, h.logger, dispatch.Fail(dispatch.InvalidInput(dispatch.MsgMissingMessage)))
		return
	}
	WriteResult(w, r, h.logger, h.facade.Chat(r.Context(), name, body))
}
