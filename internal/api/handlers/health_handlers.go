package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ledgerflow/txncore/pkg/health"
	"github.com/ledgerflow/txncore/pkg/version"
)

// HealthHandlers exposes /health for both services (SPEC_FULL supplemented
// feature 1 — spec.md §1 calls the core's own exposition out of scope,
// but both binaries still carry it the way the teacher's does).
type HealthHandlers struct {
	checker   *health.HealthChecker
	serviceID string
}

func NewHealthHandlers(checker *health.HealthChecker, serviceID string) *HealthHandlers {
	return &HealthHandlers{checker: checker, serviceID: serviceID}
}

func (h *HealthHandlers) Health(c *gin.Context) {
	status, checks := h.checker.Check(c.Request.Context())

	httpStatus := http.StatusOK
	if status == health.StatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, health.HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Version:   h.serviceID + "@" + version.Get().Version,
		Checks:    checks,
	})
}

func (h *HealthHandlers) Ready(c *gin.Context) {
	if !h.checker.IsHealthy(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
