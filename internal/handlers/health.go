package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/AnshRaj112/mindsoothe-backend/internal/logging"
	"github.com/AnshRaj112/mindsoothe-backend/internal/models"
)

const (
	serviceName    = "MindSoothe Journal API"
	serviceVersion = "1.0.0"

	healthPingTimeout = 2 * time.Second
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthResponse struct {
	Status    string `json:"status"`
	DB        string `json:"db"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
	Version   string `json:"version"`
}

// Health answers GET /api/health. It always returns 200; a failed store
// ping is reported in the db field.
func Health(store Pinger, logger *zap.Logger) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		dbStatus := "connected"
		if store == nil {
			dbStatus = "disconnected"
		} else {
			ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
			defer cancel()
			if err := store.Ping(ctx); err != nil {
				logging.FromContext(r.Context(), logger).Error("database connection error", zap.Error(err))
				dbStatus = "error"
			}
		}

		writeJSON(w, http.StatusOK, HealthResponse{
			Status:    "ok",
			DB:        dbStatus,
			Timestamp: time.Now().UTC().Format(models.TimestampLayout),
			Service:   serviceName,
			Version:   serviceVersion,
		})
	}
}
