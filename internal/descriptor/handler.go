// internal/descriptor/handler.go
package descriptor

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterRoutes serves the assembled descriptor. No auth: the host
// product fetches it before any trust relationship exists.
func RegisterRoutes(r chi.Router, log *zap.SugaredLogger, d Descriptor) {
	r.Get("/atlassian-connect.json", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(d); err != nil {
			log.Warnw("descriptor encode", "err", err)
		}
	})
}
