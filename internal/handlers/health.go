package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker is implemented by database.Database and database.RedisClient
type HealthChecker interface {
	Health(ctx context.Context) error
}

type HealthHandler struct {
	version string
	names   []string
	checks  map[string]HealthChecker
}

func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{
		version: version,
		checks:  make(map[string]HealthChecker),
	}
}

// AddCheck registers a dependency reported by Health.
func (h *HealthHandler) AddCheck(name string, checker HealthChecker) *HealthHandler {
	if _, exists := h.checks[name]; !exists {
		h.names = append(h.names, name)
		sort.Strings(h.names)
	}
	h.checks[name] = checker
	return h
}

type HealthResponse struct {
	Status    string                 `json:"status"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]HealthCheck `json:"checks"`
}

type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Service:   "ngo-library",
		Version:   h.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make(map[string]HealthCheck, len(h.checks)),
	}

	for _, name := range h.names {
		if err := h.checks[name].Health(ctx); err != nil {
			response.Checks[name] = HealthCheck{
				Status:  "unhealthy",
				Message: err.Error(),
			}
			response.Status = "unhealthy"
			continue
		}
		response.Checks[name] = HealthCheck{Status: "healthy"}
	}

	statusCode := http.StatusOK
	if response.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}

func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "pong",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
