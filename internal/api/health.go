package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

const checkTimeout = 2 * time.Second

// HealthHandler provides liveness and readiness endpoints for the service.
//
// Responsibilities:
//   - /healthz: liveness, always 200 while the process serves requests.
//   - /readyz: readiness, 200 only when every registered check passes.
type HealthHandler struct {
	checks map[string]Check
}

// NewHealthHandler builds a handler over named dependency checks. Nil
// checks are ignored, so a service running without a database passes
// readiness.
func NewHealthHandler(checks map[string]Check) *HealthHandler {
	kept := make(map[string]Check, len(checks))
	for name, c := range checks {
		if c != nil {
			kept[name] = c
		}
	}
	return &HealthHandler{checks: kept}
}

// Register mounts /healthz and /readyz on r.
func (h *HealthHandler) Register(r *gin.Engine) {
	// @Summary      Liveness probe
	// @Tags         health
	// @Produce      json
	// @Success      200  {object}  map[string]string
	// @Router       /healthz [get]
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// @Summary      Readiness probe
	// @Description  Reports each dependency; 503 when any of them fails
	// @Tags         health
	// @Produce      json
	// @Success      200  {object}  map[string]interface{}
	// @Failure      503  {object}  map[string]interface{}
	// @Router       /readyz [get]
	r.GET("/readyz", func(c *gin.Context) {
		status, results := h.run(c.Request.Context())
		code := http.StatusOK
		if status != "ready" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "checks": results})
	})
}

func (h *HealthHandler) run(ctx context.Context) (string, map[string]string) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ready"
	results := make(map[string]string, len(names))
	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := h.checks[name](cctx)
		cancel()
		if err != nil {
			status = "degraded"
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}
	return status, results
}
