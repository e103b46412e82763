package router

import (
	"net/http"
	"strings"

	"github.com/authgate/authgate/internal/pkg/config"
)

// middlewareMaintenance returns 503 for any route pattern listed in the
// app.maintenance.endpoints config array. The set is read once at startup.
func middlewareMaintenance(cfg config.Config) Middleware {
	blocked := maintenanceSet(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, down := blocked[matchedRoutePath(r)]; down {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func maintenanceSet(cfg config.Config) map[string]struct{} {
	set := make(map[string]struct{})
	if cfg == nil {
		return set
	}
	for _, endpoint := range cfg.GetArray("app.maintenance.endpoints") {
		if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
			set[endpoint] = struct{}{}
		}
	}
	return set
}
