// Package processor runs audits off the request hot path: a bounded job
// queue, a small worker pool, and a rate limit in front of the model
// endpoints.
package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jonesrussell/audit-engine/internal/config"
	"github.com/jonesrussell/audit-engine/internal/domain"
	"github.com/jonesrussell/audit-engine/internal/logging"
	"github.com/jonesrussell/audit-engine/internal/metrics"
	"github.com/jonesrussell/audit-engine/internal/storage"
)

// ErrQueueFull is returned when the job queue cannot accept another audit.
var ErrQueueFull = errors.New("audit queue is full")

// Job is one queued audit.
type Job struct {
	ID      string
	Request *domain.AuditRequest
}

// Orchestrator runs one complete audit.
type Orchestrator interface {
	Run(ctx context.Context, req *domain.AuditRequest, primaryKey, synthesisKey string) (*domain.AuditResult, error)
}

// JobStore persists job status and results.
type JobStore interface {
	UpdateStatus(ctx context.Context, jobID, status, auditID, errDetail string) error
	SaveResult(ctx context.Context, jobID string, result storage.JobResult) error
}

// Deliverer turns a finished audit into rendered, delivered reports.
// Delivery failure degrades the job, it never fails it.
type Deliverer interface {
	Deliver(ctx context.Context, req *domain.AuditRequest, result *domain.AuditResult) error
}

// Processor consumes queued audits with bounded concurrency.
type Processor struct {
	orchestrator Orchestrator
	jobs         JobStore
	deliverer    Deliverer
	metrics      *metrics.Metrics
	log          logging.Logger

	researchKey  string
	synthesisKey string

	queue   chan Job
	limiter *rate.Limiter
	wg      sync.WaitGroup

	concurrency int
}

// New creates a processor. deliverer may be nil, which skips delivery.
func New(cfg config.Service, models config.Models, orch Orchestrator, jobs JobStore, deliverer Deliverer, m *metrics.Metrics, log logging.Logger) *Processor {
	perMinute := cfg.AuditsPerMinute
	if perMinute <= 0 {
		perMinute = 6
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 2
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 32
	}

	return &Processor{
		orchestrator: orch,
		jobs:         jobs,
		deliverer:    deliverer,
		metrics:      m,
		log:          log,
		researchKey:  models.Research.APIKey,
		synthesisKey: models.Synthesis.APIKey,
		queue:        make(chan Job, queueSize),
		limiter:      rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
		concurrency:  concurrency,
	}
}

// Submit enqueues one audit without blocking.
func (p *Processor) Submit(job Job) error {
	select {
	case p.queue <- job:
		if p.metrics != nil {
			p.metrics.JobsQueued.Inc()
		}
		p.log.Info("audit queued", "job_id", job.ID, "website", job.Request.WebsiteURL)
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled; Wait
// blocks until they have drained.
func (p *Processor) Start(ctx context.Context) {
	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	p.log.Info("processor started",
		"workers", p.concurrency, "queue_size", cap(p.queue))
}

// Wait blocks until all workers have stopped.
func (p *Processor) Wait() {
	p.wg.Wait()
}

func (p *Processor) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.queue:
			if p.metrics != nil {
				p.metrics.JobsQueued.Dec()
			}
			p.runJob(ctx, id, job)
		}
	}
}

// runJob drives one audit end to end: rate limit, orchestrate, persist,
// deliver, and record the terminal status.
func (p *Processor) runJob(ctx context.Context, workerID int, job Job) {
	log := p.log.With("job_id", job.ID, "worker", workerID)

	if err := p.limiter.Wait(ctx); err != nil {
		// Shutdown mid-wait; leave the job pending.
		return
	}

	if err := p.jobs.UpdateStatus(ctx, job.ID, storage.JobStatusRunning, "", ""); err != nil {
		log.Warn("failed to mark job running", "error", err)
	}

	start := time.Now()
	result, err := p.orchestrator.Run(ctx, job.Request, p.researchKey, p.synthesisKey)
	if err != nil {
		log.Error("audit run failed", "error", err)
		p.countAudit("failed")
		if err := p.jobs.UpdateStatus(ctx, job.ID, storage.JobStatusFailed, "", err.Error()); err != nil {
			log.Error("failed to mark job failed", "error", err)
		}
		return
	}
	if p.metrics != nil {
		p.metrics.AuditDuration.Observe(time.Since(start).Seconds())
	}
	for _, group := range result.SucceededGroups {
		p.metrics.CountResearchPass(group, metrics.PassSuccess)
	}
	for group := range result.FailedGroups {
		p.metrics.CountResearchPass(group, metrics.PassFailure)
	}

	if err := p.jobs.SaveResult(ctx, job.ID, storage.JobResult{
		AuditID:   result.AuditID,
		Documents: result.Documents,
		Plan:      result.Plan,
		Fallback:  result.Fallback,
	}); err != nil {
		log.Error("failed to persist audit result", "error", err)
		p.countAudit("failed")
		if err := p.jobs.UpdateStatus(ctx, job.ID, storage.JobStatusFailed, result.AuditID, err.Error()); err != nil {
			log.Error("failed to mark job failed", "error", err)
		}
		return
	}

	// Delivery problems degrade the job, never fail it: the documents exist
	// and remain fetchable through the API.
	degraded := ""
	if p.deliverer != nil {
		if err := p.deliverer.Deliver(ctx, job.Request, result); err != nil {
			log.Warn("report delivery failed", "audit_id", result.AuditID, "error", err)
			degraded = fmt.Sprintf("delivery failed: %v", err)
		}
	}

	outcome := "completed"
	if result.Fallback {
		outcome = "fallback"
	}
	p.countAudit(outcome)

	if err := p.jobs.UpdateStatus(ctx, job.ID, storage.JobStatusCompleted, result.AuditID, degraded); err != nil {
		log.Error("failed to mark job completed", "error", err)
		return
	}

	log.Info("audit job finished",
		"audit_id", result.AuditID,
		"fallback", result.Fallback,
		"duration_s", int(time.Since(start).Seconds()))
}

func (p *Processor) countAudit(outcome string) {
	if p.metrics != nil {
		p.metrics.AuditsTotal.WithLabelValues(outcome).Inc()
	}
}
