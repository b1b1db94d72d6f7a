// internal/webhook/handler.go
package webhook

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kshehadeh/atlassian-addon-helper/internal/metrics"
	"github.com/kshehadeh/atlassian-addon-helper/pkg/middleware"
)

// RegisterRoutes mounts one POST route per registered event under
// /webhook/{eventName}. authmw must be the signed-token middleware:
// authentication is a precondition of dispatch, enforced here by
// composition.
func RegisterRoutes(r chi.Router, log *zap.SugaredLogger, d *Dispatcher, authmw func(http.Handler) http.Handler) {
	r.Route("/webhook", func(r chi.Router) {
		r.Use(authmw)
		for _, reg := range d.Registrations() {
			r.Post("/"+reg.Event, serveEvent(log, d, reg.Event))
		}
		// Events the host delivers but nobody registered. Not a fault.
		r.Post("/{eventName}", serveEvent(log, d, ""))
	})
}

func serveEvent(log *zap.SugaredLogger, d *Dispatcher, routeEvent string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFrom(r.Context())
		payload, err := io.ReadAll(r.Body)
		if err != nil {
			writeStatus(w, http.StatusInternalServerError, "unreadable body")
			return
		}

		event := routeEvent
		if event == "" {
			event = chi.URLParam(r, "eventName")
		}
		if fromPayload := d.EventName(payload); fromPayload != "" && fromPayload != event {
			log.Debugw("payload event disagrees with route", "route", event, "payload", fromPayload)
		}

		outcome := d.Dispatch(r.Context(), claims, event, payload)
		metrics.WebhookDispatchesTotal.WithLabelValues(event, outcome.String()).Inc()
		switch outcome {
		case OutcomeOK:
			writeStatus(w, http.StatusOK, "delivered")
		case OutcomeNotFound:
			writeStatus(w, http.StatusNotFound, "no handler registered for "+event)
		default:
			writeStatus(w, http.StatusInternalServerError, "handler failed")
		}
	}
}

func writeStatus(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "msg": msg})
}
