// internal/lifecycle/handler.go
package lifecycle

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kshehadeh/atlassian-addon-helper/internal/descriptor"
	"github.com/kshehadeh/atlassian-addon-helper/internal/metrics"
)

const (
	InstalledPath   = "/meta/installed"
	UninstalledPath = "/meta/uninstalled"
)

// Handler owns the two lifecycle endpoints. These are deliberately outside
// the signed-token middleware: at install time no shared secret exists yet.
type Handler struct {
	svc        *Service
	log        *zap.SugaredLogger
	registered atomic.Bool
}

func NewHandler(svc *Service, log *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts the lifecycle endpoints. Calling it twice on the
// same Handler is a caller mistake, not a fault: the second call warns and
// does nothing.
func (h *Handler) RegisterRoutes(r chi.Router) {
	if !h.registered.CompareAndSwap(false, true) {
		h.log.Warnw("lifecycle routes already registered, ignoring")
		return
	}
	r.Post(InstalledPath, h.installed)
	r.Post(UninstalledPath, h.uninstalled)
}

// Fragment contributes the lifecycle paths to the descriptor.
func (h *Handler) Fragment() descriptor.Fragment {
	return descriptor.Fragment{
		Lifecycle: &descriptor.Lifecycle{Installed: InstalledPath, Uninstalled: UninstalledPath},
	}
}

func (h *Handler) installed(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodePayload(w, r)
	if !ok {
		metrics.LifecycleEventsTotal.WithLabelValues("installed", "malformed").Inc()
		return
	}
	if err := h.svc.Install(r.Context(), payload); err != nil {
		h.writeError(w, "installed", err)
		return
	}
	metrics.LifecycleEventsTotal.WithLabelValues("installed", "ok").Inc()
	writeStatus(w, http.StatusOK, "installed")
}

func (h *Handler) uninstalled(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodePayload(w, r)
	if !ok {
		metrics.LifecycleEventsTotal.WithLabelValues("uninstalled", "malformed").Inc()
		return
	}
	if err := h.svc.Uninstall(r.Context(), payload); err != nil {
		h.writeError(w, "uninstalled", err)
		return
	}
	metrics.LifecycleEventsTotal.WithLabelValues("uninstalled", "ok").Inc()
	writeStatus(w, http.StatusOK, "uninstalled")
}

func decodePayload(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeStatus(w, http.StatusBadRequest, "invalid JSON body")
		return nil, false
	}
	return payload, true
}

func (h *Handler) writeError(w http.ResponseWriter, event string, err error) {
	if errors.Is(err, ErrMalformedPayload) {
		// The original family of add-ons answered 500 here; a missing
		// field is a client error, so we answer 400.
		metrics.LifecycleEventsTotal.WithLabelValues(event, "malformed").Inc()
		writeStatus(w, http.StatusBadRequest, err.Error())
		return
	}
	h.log.Errorw("lifecycle store failure", "event", event, "err", err)
	metrics.LifecycleEventsTotal.WithLabelValues(event, "error").Inc()
	writeStatus(w, http.StatusInternalServerError, "tenant store unavailable")
}

func writeStatus(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "msg": msg})
}
