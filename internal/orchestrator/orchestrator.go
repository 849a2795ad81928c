// Package orchestrator sequences the audit pipeline: three research passes,
// capture-plan aggregation, the synthesis call, the document split, audit-id
// allocation and best-effort capture dispatch.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonesrussell/audit-engine/internal/domain"
	"github.com/jonesrussell/audit-engine/internal/logging"
	"github.com/jonesrussell/audit-engine/internal/planextract"
	"github.com/jonesrussell/audit-engine/internal/prompts"
)

// ErrSynthesisFailed is returned when the synthesis model produces no usable
// output. It is the only fatal failure mode of a run.
var ErrSynthesisFailed = errors.New("synthesis produced no usable output")

// noKeyReason is recorded when the research phase is skipped outright.
const noKeyReason = "no research API key configured"

// ModelCaller is one remote inference endpoint.
type ModelCaller interface {
	Call(ctx context.Context, apiKey, systemPrompt, userContent string) (string, error)
}

// IDAllocator issues the next persisted audit id.
type IDAllocator interface {
	NextAuditID(ctx context.Context) (string, error)
}

// CaptureDispatcher sends a capture plan to the capture worker. Dispatch is
// best-effort and reports only how many assets it resolved.
type CaptureDispatcher interface {
	Dispatch(ctx context.Context, auditID string, plan domain.CapturePlan) int
}

// Orchestrator runs complete audits. One instance serves concurrent runs; all
// per-run state lives on the stack.
type Orchestrator struct {
	research   ModelCaller
	synthesis  ModelCaller
	ids        IDAllocator
	dispatcher CaptureDispatcher
	log        logging.Logger
}

// New creates an orchestrator. dispatcher may be nil, which disables capture
// dispatch for all runs.
func New(research, synthesis ModelCaller, ids IDAllocator, dispatcher CaptureDispatcher, log logging.Logger) *Orchestrator {
	return &Orchestrator{
		research:   research,
		synthesis:  synthesis,
		ids:        ids,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Run executes one full audit. An empty primaryKey skips the research phase
// and sends the run down the fallback path; synthesis failure is the only
// error a caller ever sees.
func (o *Orchestrator) Run(ctx context.Context, req *domain.AuditRequest, primaryKey, synthesisKey string) (*domain.AuditResult, error) {
	o.log.Info("audit run starting", "website", req.WebsiteURL)

	research := o.runResearchPhase(ctx, req, primaryKey)

	combined, err := o.runSynthesis(ctx, req, synthesisKey, research)
	if err != nil {
		return nil, err
	}

	docs := splitDocuments(combined)

	auditID, err := o.ids.NextAuditID(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate audit id: %w", err)
	}

	// Dispatch never fails the run. The documents are already generated.
	if o.dispatcher != nil && len(research.plan) > 0 {
		resolved := o.dispatcher.Dispatch(ctx, auditID, research.plan)
		o.log.Info("capture dispatch done",
			"audit_id", auditID, "requested", len(research.plan), "resolved", resolved)
	}

	o.log.Info("audit run completed",
		"audit_id", auditID, "website", req.WebsiteURL,
		"succeeded_groups", len(research.succeeded),
		"failed_groups", len(research.failed),
		"fallback", research.fallback())

	return &domain.AuditResult{
		AuditID:         auditID,
		Documents:       docs,
		Plan:            research.plan,
		SucceededGroups: research.succeeded,
		FailedGroups:    research.failed,
		Fallback:        research.fallback(),
	}, nil
}

// researchOutcome carries everything the research phase produced.
type researchOutcome struct {
	aggregate  string
	plan       domain.CapturePlan
	succeeded  []string
	failed     map[string]string
	skipReason string
}

// fallback reports whether the run has no research material at all.
func (r *researchOutcome) fallback() bool {
	return strings.TrimSpace(r.aggregate) == ""
}

// fallbackReason names why the research phase produced nothing.
func (r *researchOutcome) fallbackReason() string {
	if r.skipReason != "" {
		return r.skipReason
	}
	return fmt.Sprintf("all %d research passes failed", len(r.failed))
}

// runResearchPhase executes the three research passes in fixed order. A pass
// failure never aborts the remaining passes.
func (o *Orchestrator) runResearchPhase(ctx context.Context, req *domain.AuditRequest, primaryKey string) *researchOutcome {
	outcome := &researchOutcome{failed: make(map[string]string)}

	if primaryKey == "" {
		outcome.skipReason = noKeyReason
		o.log.Warn("skipping research phase", "reason", noKeyReason)
		return outcome
	}

	systemPrompt := prompts.ResearchSystem(req)
	var aggregate strings.Builder

	for _, group := range domain.ResearchGroups() {
		text, err := o.research.Call(ctx, primaryKey, systemPrompt, prompts.PassUser(req, group))
		if err != nil {
			outcome.failed[group.ID] = err.Error()
			o.log.Warn("research pass failed",
				"group", group.ID, "error", err)
			continue
		}

		// A pass is successful even when its text is uninformative.
		outcome.succeeded = append(outcome.succeeded, group.ID)

		clean, records := planextract.Extract(text, group.ID)
		outcome.plan = outcome.plan.Merge(records)

		fmt.Fprintf(&aggregate, "%s\n%s\n%s\n\n",
			prompts.PassStart(group.ID), clean, prompts.PassEnd(group.ID))

		o.log.Info("research pass completed",
			"group", group.ID, "chars", len(clean), "captures", len(records))
	}

	outcome.aggregate = aggregate.String()
	return outcome
}

// runSynthesis issues the single synthesis call, choosing the normal or
// fallback prompt based on what research produced.
func (o *Orchestrator) runSynthesis(ctx context.Context, req *domain.AuditRequest, synthesisKey string, research *researchOutcome) (string, error) {
	var userPrompt string
	if research.fallback() {
		reason := research.fallbackReason()
		o.log.Warn("entering fallback path", "reason", reason)
		userPrompt = prompts.FallbackUser(req, reason)
	} else {
		userPrompt = prompts.SynthesisUser(req, research.aggregate, research.succeeded, research.failed)
	}

	combined, err := o.synthesis.Call(ctx, synthesisKey, prompts.SynthesisSystem(), userPrompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSynthesisFailed, err)
	}
	if strings.TrimSpace(combined) == "" {
		return "", fmt.Errorf("%w: empty response", ErrSynthesisFailed)
	}
	return combined, nil
}
