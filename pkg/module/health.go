package module

import (
	"encoding/json"
	"net/http"

	"github.com/JaimeStill/noteforge/pkg/lifecycle"
)

// HandleHealth registers GET /healthz, which always reports ok, and
// GET /readyz, which reports 503 until checker is ready.
func (r *Router) HandleHealth(checker lifecycle.ReadinessChecker) {
	r.HandleNative("GET /healthz", func(w http.ResponseWriter, req *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})

	r.HandleNative("GET /readyz", func(w http.ResponseWriter, req *http.Request) {
		if !checker.Ready() {
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
