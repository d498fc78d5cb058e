package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stwalsh4118/bluesky/api/internal/database"
	"github.com/stwalsh4118/bluesky/api/internal/middleware"
)

const (
	// APIVersion is reported by /api/v2/info.
	APIVersion = "2.0.0"
	// HealthCheckTimeout bounds each readiness probe against the database.
	HealthCheckTimeout = 2 * time.Second
)

// Readiness status values.
const (
	statusReady    = "ready"
	statusNotReady = "not_ready"
	schemaMigrated = "migrated"
	schemaPending  = "pending"
	schemaUnknown  = "unknown"
)

// DatabaseProbe is the part of the database the readiness check inspects.
type DatabaseProbe interface {
	Ping(ctx context.Context) error
	MissingTables(ctx context.Context) ([]string, error)
	PoolStats() database.PoolStats
}

// HealthHandler serves liveness, readiness and API info.
type HealthHandler struct {
	db        DatabaseProbe
	startTime time.Time
	env       string
}

func NewHealthHandler(db DatabaseProbe, env string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		startTime: time.Now(),
		env:       env,
	}
}

type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse reports connectivity, schema state and pool usage.
// The API is ready only when the database answers and every inventory table exists.
type ReadyResponse struct {
	Status        string             `json:"status"`
	Database      string             `json:"database"`
	Schema        string             `json:"schema"`
	MissingTables []string           `json:"missing_tables,omitempty"`
	Pool          database.PoolStats `json:"pool"`
}

type InfoResponse struct {
	StartedAt   time.Time `json:"started_at"`
	Version     string    `json:"version"`
	Environment string    `json:"environment"`
	Uptime      string    `json:"uptime"`
}

// Health handles GET /health. It never touches dependencies.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy"})
}

// Ready handles GET /health/ready.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	log := middleware.GetLogger(c)
	resp := ReadyResponse{
		Status:   statusReady,
		Database: "connected",
		Schema:   schemaMigrated,
		Pool:     h.db.PoolStats(),
	}

	if err := h.db.Ping(ctx); err != nil {
		if log != nil {
			log.Error("Database ping failed", err, map[string]interface{}{
				"timeout": HealthCheckTimeout.String(),
			})
		}
		resp.Status = statusNotReady
		resp.Database = "disconnected"
		resp.Schema = schemaUnknown
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	missing, err := h.db.MissingTables(ctx)
	switch {
	case err != nil:
		if log != nil {
			log.Error("Schema check failed", err, nil)
		}
		resp.Status = statusNotReady
		resp.Schema = schemaUnknown
	case len(missing) > 0:
		if log != nil {
			log.Warn("Schema not migrated", map[string]interface{}{
				"missing_tables": missing,
			})
		}
		resp.Status = statusNotReady
		resp.Schema = schemaPending
		resp.MissingTables = missing
	}

	code := http.StatusOK
	if resp.Status != statusReady {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

// Info handles GET /api/v2/info.
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		StartedAt:   h.startTime.UTC(),
		Version:     APIVersion,
		Environment: h.env,
		Uptime:      formatUptime(time.Since(h.startTime)),
	})
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
