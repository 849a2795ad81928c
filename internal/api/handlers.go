// Package api exposes the audit engine's HTTP surface: public submission and
// status endpoints plus a JWT-protected admin group.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jonesrussell/audit-engine/internal/domain"
	"github.com/jonesrussell/audit-engine/internal/logging"
	"github.com/jonesrussell/audit-engine/internal/processor"
	"github.com/jonesrussell/audit-engine/internal/render"
	"github.com/jonesrussell/audit-engine/internal/storage"
)

// genericErrorMessage is what end users see for any internal failure.
// Diagnostic detail goes to the log, never to the response.
const genericErrorMessage = "something went wrong processing your request"

// JobQueue accepts audit jobs for background processing.
type JobQueue interface {
	Submit(job processor.Job) error
}

// JobReader fetches job state and results.
type JobReader interface {
	CreateJob(ctx context.Context, job storage.Job) error
	GetJob(ctx context.Context, jobID string) (*storage.Job, error)
	GetResult(ctx context.Context, jobID string) (*storage.JobResult, error)
}

// AssetReader lists persisted capture assets.
type AssetReader interface {
	ListAssets(ctx context.Context, auditID string) (map[string]storage.Asset, error)
	AssetURLs(ctx context.Context, auditID string) (map[string]string, error)
}

// Dispatcher re-issues a capture plan.
type Dispatcher interface {
	Dispatch(ctx context.Context, auditID string, plan domain.CapturePlan) int
}

// Handler holds the API dependencies.
type Handler struct {
	queue      JobQueue
	jobs       JobReader
	assets     AssetReader
	dispatcher Dispatcher
	renderer   *render.Renderer
	log        logging.Logger
}

// NewHandler creates the API handler. dispatcher may be nil, which disables
// the admin re-dispatch endpoint.
func NewHandler(queue JobQueue, jobs JobReader, assets AssetReader, dispatcher Dispatcher, renderer *render.Renderer, log logging.Logger) *Handler {
	return &Handler{
		queue:      queue,
		jobs:       jobs,
		assets:     assets,
		dispatcher: dispatcher,
		renderer:   renderer,
		log:        log,
	}
}

// submitRequest is the audit submission payload.
type submitRequest struct {
	WebsiteURL   string            `json:"website_url"`
	ContactName  string            `json:"contact_name"`
	ContactEmail string            `json:"contact_email"`
	SocialLinks  map[string]string `json:"social_links"`
}

// SubmitAudit handles POST /api/v1/audits: validate, persist a pending job,
// queue it, respond 202 with the job id.
func (h *Handler) SubmitAudit(c *gin.Context) {
	var body submitRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	req, err := domain.NewAuditRequest(body.WebsiteURL, body.ContactName, body.ContactEmail, body.SocialLinks)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobID := uuid.NewString()
	if err := h.jobs.CreateJob(c.Request.Context(), storage.Job{
		ID:           jobID,
		WebsiteURL:   req.WebsiteURL,
		ContactEmail: req.ContactEmail,
	}); err != nil {
		h.log.Error("failed to create job", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericErrorMessage})
		return
	}

	if err := h.queue.Submit(processor.Job{ID: jobID, Request: req}); err != nil {
		if errors.Is(err, processor.ErrQueueFull) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit queue is full, try again later"})
			return
		}
		h.log.Error("failed to queue job", "job_id", jobID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericErrorMessage})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": jobID,
		"status": storage.JobStatusPending,
	})
}

// GetAudit handles GET /api/v1/audits/:id: job status without operator
// detail.
func (h *Handler) GetAudit(c *gin.Context) {
	job, err := h.jobs.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "audit not found"})
			return
		}
		h.log.Error("failed to fetch job", "job_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericErrorMessage})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id":     job.ID,
		"status":     job.Status,
		"audit_id":   job.AuditID,
		"created_at": job.CreatedAt,
		"updated_at": job.UpdatedAt,
	})
}

// GetReport handles GET /api/v1/audits/:id/report/:doc, serving the rendered
// HTML for one of the two documents.
func (h *Handler) GetReport(c *gin.Context) {
	jobID := c.Param("id")

	result, err := h.jobs.GetResult(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not ready"})
			return
		}
		h.log.Error("failed to fetch result", "job_id", jobID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericErrorMessage})
		return
	}

	job, err := h.jobs.GetJob(c.Request.Context(), jobID)
	if err != nil {
		h.log.Error("failed to fetch job for report", "job_id", jobID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericErrorMessage})
		return
	}

	var title, prose string
	switch c.Param("doc") {
	case "visitor":
		title, prose = "Website Audit Report", result.Documents.VisitorDocument
	case "owner":
		title, prose = "Website Improvement Playbook", result.Documents.OwnerDocument
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown document, use visitor or owner"})
		return
	}

	var assetURLs map[string]string
	if h.assets != nil {
		if urls, err := h.assets.AssetURLs(c.Request.Context(), result.AuditID); err == nil {
			assetURLs = urls
		}
	}

	html, err := h.renderer.Render(title, result.AuditID, job.WebsiteURL, prose, assetURLs)
	if err != nil {
		h.log.Error("failed to render report", "job_id", jobID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericErrorMessage})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// ListAssets handles GET /api/v1/admin/audits/:id/assets, where :id is the
// public audit id.
func (h *Handler) ListAssets(c *gin.Context) {
	auditID := c.Param("id")

	assets, err := h.assets.ListAssets(c.Request.Context(), auditID)
	if err != nil {
		h.log.Error("failed to list assets", "audit_id", auditID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericErrorMessage})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audit_id": auditID,
		"assets":   assets,
	})
}

// RetryDispatch handles POST /api/v1/admin/jobs/:id/dispatch, re-running
// capture dispatch for a completed job. Already-resolved shots are skipped by
// the dispatcher's idempotency.
func (h *Handler) RetryDispatch(c *gin.Context) {
	if h.dispatcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "capture worker not configured"})
		return
	}

	jobID := c.Param("id")
	result, err := h.jobs.GetResult(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, storage.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "audit not found"})
			return
		}
		h.log.Error("failed to fetch result for dispatch", "job_id", jobID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": genericErrorMessage})
		return
	}

	resolved := h.dispatcher.Dispatch(c.Request.Context(), result.AuditID, result.Plan)
	c.JSON(http.StatusOK, gin.H{
		"audit_id":  result.AuditID,
		"requested": len(result.Plan),
		"resolved":  resolved,
	})
}
