package api

import (
	"encoding/json"
	"net/http"

	"github.com/nappernick/mcp-wrapper/pkg/jsonrpc"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the dispatcher over HTTP, the networked deployment mode.
// The envelope carries all failure detail, so responses are always 200.
type Handler struct {
	dispatcher *jsonrpc.Dispatcher
}

func New(dispatcher *jsonrpc.Dispatcher) (*Handler, error) {
	h := &Handler{
		dispatcher: dispatcher,
	}

	return h, nil
}

func (h *Handler) Attach(r chi.Router) {
	r.Post("/rpc", h.handleRPC)
}

func (h *Handler) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req jsonrpc.Request

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJson(w, jsonrpc.NewErrorResponse(nil, jsonrpc.CodeParseError, "parse error"))
		return
	}

	writeJson(w, h.dispatcher.Dispatch(r.Context(), req))
}

func writeJson(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	enc.Encode(v)
}
