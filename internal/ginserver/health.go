package ginserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health statuses reported by /health.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResponse is the /health response body.
type HealthResponse struct {
	Status  HealthStatus           `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Uptime  string                 `json:"uptime,omitempty"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of one named health check.
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
	Latency string       `json:"latency,omitempty"`
}

// HealthChecker performs one health check.
type HealthChecker func() CheckResult

// registerHealthRoutes mounts GET and HEAD /health.
func registerHealthRoutes(router *gin.Engine, serviceName, version string, checks map[string]HealthChecker) {
	startTime := time.Now()

	router.GET("/health", func(c *gin.Context) {
		resp := HealthResponse{
			Status:  HealthStatusHealthy,
			Service: serviceName,
			Version: version,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
		}

		if len(checks) > 0 {
			resp.Checks = make(map[string]CheckResult, len(checks))
			for name, check := range checks {
				result := check()
				resp.Checks[name] = result

				switch result.Status {
				case HealthStatusUnhealthy:
					resp.Status = HealthStatusUnhealthy
				case HealthStatusDegraded:
					if resp.Status == HealthStatusHealthy {
						resp.Status = HealthStatusDegraded
					}
				}
			}
		}

		code := http.StatusOK
		if resp.Status == HealthStatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, resp)
	})

	router.HEAD("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
}

// PingHealthChecker adapts a ping function into a health check. critical
// decides whether a failure makes the whole service unhealthy or only
// degraded.
func PingHealthChecker(pingFunc func() error, critical bool) HealthChecker {
	return func() CheckResult {
		start := time.Now()
		err := pingFunc()
		latency := time.Since(start).String()

		if err != nil {
			status := HealthStatusDegraded
			if critical {
				status = HealthStatusUnhealthy
			}
			return CheckResult{Status: status, Message: err.Error(), Latency: latency}
		}
		return CheckResult{Status: HealthStatusHealthy, Latency: latency}
	}
}
