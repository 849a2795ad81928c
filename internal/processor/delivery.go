package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonesrussell/audit-engine/internal/domain"
	"github.com/jonesrussell/audit-engine/internal/logging"
	"github.com/jonesrussell/audit-engine/internal/mailer"
	"github.com/jonesrussell/audit-engine/internal/pdfclient"
	"github.com/jonesrussell/audit-engine/internal/render"
)

// Report titles used for rendering and email.
const (
	visitorTitle = "Website Audit Report"
	ownerTitle   = "Website Improvement Playbook"
)

// AssetResolver looks up capture asset URLs for placeholder resolution.
type AssetResolver interface {
	AssetURLs(ctx context.Context, auditID string) (map[string]string, error)
}

// ReportDeliverer renders both documents, converts them to PDF when the
// converter is configured, and emails them to the requester.
type ReportDeliverer struct {
	renderer *render.Renderer
	pdf      *pdfclient.Client
	mail     mailer.Mailer
	assets   AssetResolver
	log      logging.Logger
}

// NewReportDeliverer wires the delivery chain. mail may be nil when no SMTP
// relay is configured; rendering still runs so the API can serve the HTML.
func NewReportDeliverer(renderer *render.Renderer, pdf *pdfclient.Client, mail mailer.Mailer, assets AssetResolver, log logging.Logger) *ReportDeliverer {
	return &ReportDeliverer{renderer: renderer, pdf: pdf, mail: mail, assets: assets, log: log}
}

// Deliver emails both reports as PDF attachments, degrading to HTML
// attachments when the converter is unavailable.
func (d *ReportDeliverer) Deliver(ctx context.Context, req *domain.AuditRequest, result *domain.AuditResult) error {
	if d.mail == nil {
		d.log.Info("no mailer configured, skipping delivery", "audit_id", result.AuditID)
		return nil
	}

	assetURLs := d.resolveAssets(ctx, result.AuditID)

	attachments := make([]mailer.Attachment, 0, 2)
	docs := []struct {
		title string
		slug  string
		prose string
	}{
		{visitorTitle, "visitor", result.Documents.VisitorDocument},
		{ownerTitle, "owner", result.Documents.OwnerDocument},
	}

	for _, doc := range docs {
		html, err := d.renderer.Render(doc.title, result.AuditID, req.WebsiteURL, doc.prose, assetURLs)
		if err != nil {
			return fmt.Errorf("render %s document: %w", doc.slug, err)
		}

		attachment, err := d.toAttachment(ctx, result.AuditID, doc.slug, html)
		if err != nil {
			return err
		}
		attachments = append(attachments, attachment)
	}

	msg := mailer.Message{
		To:          req.ContactEmail,
		Subject:     fmt.Sprintf("Your website audit %s is ready", result.AuditID),
		Body:        deliveryBody(req, result),
		Attachments: attachments,
	}
	if err := d.mail.Send(ctx, msg); err != nil {
		return fmt.Errorf("deliver audit %s: %w", result.AuditID, err)
	}
	return nil
}

// resolveAssets fetches the capture asset map; a lookup failure only costs
// the inline images.
func (d *ReportDeliverer) resolveAssets(ctx context.Context, auditID string) map[string]string {
	if d.assets == nil {
		return nil
	}
	urls, err := d.assets.AssetURLs(ctx, auditID)
	if err != nil {
		d.log.Warn("asset lookup failed, rendering without captures",
			"audit_id", auditID, "error", err)
		return nil
	}
	return urls
}

// toAttachment converts one rendered document to its attachment form,
// preferring PDF and falling back to HTML.
func (d *ReportDeliverer) toAttachment(ctx context.Context, auditID, slug, html string) (mailer.Attachment, error) {
	filename := fmt.Sprintf("%s-%s.pdf", auditID, slug)

	if d.pdf != nil && d.pdf.Configured() {
		pdf, err := d.pdf.Convert(ctx, html, filename)
		if err == nil {
			return mailer.Attachment{
				Filename:    filename,
				ContentType: "application/pdf",
				Data:        pdf,
			}, nil
		}
		if !errors.Is(err, pdfclient.ErrNotConfigured) {
			d.log.Warn("pdf conversion failed, attaching html",
				"audit_id", auditID, "document", slug, "error", err)
		}
	}

	return mailer.Attachment{
		Filename:    fmt.Sprintf("%s-%s.html", auditID, slug),
		ContentType: "text/html; charset=utf-8",
		Data:        []byte(html),
	}, nil
}

func deliveryBody(req *domain.AuditRequest, result *domain.AuditResult) string {
	name := req.ContactName
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(
		"Hi %s,\n\nYour website audit for %s is complete. Audit reference: %s.\n\n"+
			"Two documents are attached:\n"+
			"- %s: what we found, in plain language.\n"+
			"- %s: step-by-step fixes, in priority order.\n",
		name, req.WebsiteURL, result.AuditID, visitorTitle, ownerTitle)
}
