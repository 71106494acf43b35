package handlers

import (
	"context"
	"net/http"
	"time"

	pkghttp "github.com/paddygate/paddygate/pkg/http"
)

// Pinger is satisfied by the database and the Redis cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db    Pinger
	cache Pinger
}

// NewHealthHandler builds the /health handler. cache may be nil when Redis is not configured.
func NewHealthHandler(db, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache,omitempty"`
	Time     string `json:"time"`
}

// Check reports 503 when the database is unreachable. A Redis failure only
// degrades the report since the cache is optional.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ok", Database: "ok", Time: time.Now().UTC().Format(time.RFC3339)}
	status := http.StatusOK

	if err := h.db.Ping(ctx); err != nil {
		resp.Status = "unavailable"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}
	if h.cache != nil {
		resp.Cache = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			resp.Cache = "unreachable"
			if status == http.StatusOK {
				resp.Status = "degraded"
			}
		}
	}

	pkghttp.WriteJSON(w, status, resp)
}
