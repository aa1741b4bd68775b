package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/smartmark/smartmark/internal/httpserver/deps"
)

type componentStatus struct {
	OK     bool   `json:"ok"`
	Mode   string `json:"mode,omitempty"`
	Impact string `json:"impact,omitempty"`
	Error  string `json:"error,omitempty"`
}

type infraResponse struct {
	SyncMode   string                     `json:"sync_mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of the pieces behind live sync: the database,
// and the Redis bridge when cross-instance fan-out is enabled.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		components := map[string]componentStatus{
			"database": checkDatabase(d),
			"events":   {OK: true, Mode: "in-process"},
		}
		if d.RedisClient != nil {
			components["events"] = componentStatus{OK: true, Mode: "redis-bridge"}
			components["redis"] = checkRedis(d)
		}

		response := infraResponse{
			SyncMode:   determineSyncMode(components),
			Components: components,
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

func determineSyncMode(components map[string]componentStatus) string {
	if db, exists := components["database"]; exists && !db.OK {
		return "critical" // no persistence = nothing works
	}
	if redis, exists := components["redis"]; exists && !redis.OK {
		return "degraded" // single-instance sync only
	}
	return "live"
}

func checkDatabase(d deps.Deps) componentStatus {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := d.DBPing(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Impact: "reads-and-writes-failing",
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true, Mode: "optimal"}
}

func checkRedis(d deps.Deps) componentStatus {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "cross-instance-sync-disabled",
			Error:  "timeout",
		}
	}
	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "cross-instance-sync-enabled",
	}
}
