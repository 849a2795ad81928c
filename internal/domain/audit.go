// Package domain defines the core types for the audit engine.
package domain

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
)

// Validation errors returned by NewAuditRequest.
var (
	ErrMissingWebsiteURL = errors.New("website URL is required")
	ErrInvalidWebsiteURL = errors.New("website URL is not a valid http(s) URL")
	ErrMissingEmail      = errors.New("contact email is required")
	ErrInvalidEmail      = errors.New("contact email is not valid")
)

// AuditRequest is one validated audit submission. Immutable once constructed.
type AuditRequest struct {
	WebsiteURL   string
	ContactName  string
	ContactEmail string
	// SocialLinks maps platform name (e.g. "facebook") to profile URL.
	// Entries that are empty after trimming are dropped at construction.
	SocialLinks map[string]string
}

// NewAuditRequest normalizes and validates a submission.
// The website URL is trimmed and loses any trailing slash.
func NewAuditRequest(websiteURL, contactName, contactEmail string, socialLinks map[string]string) (*AuditRequest, error) {
	websiteURL = strings.TrimRight(strings.TrimSpace(websiteURL), "/")
	if websiteURL == "" {
		return nil, ErrMissingWebsiteURL
	}
	parsed, err := url.Parse(websiteURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidWebsiteURL, websiteURL)
	}

	contactEmail = strings.TrimSpace(contactEmail)
	if contactEmail == "" {
		return nil, ErrMissingEmail
	}
	if _, err := mail.ParseAddress(contactEmail); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEmail, contactEmail)
	}

	links := make(map[string]string, len(socialLinks))
	for platform, link := range socialLinks {
		link = strings.TrimSpace(link)
		if link == "" {
			continue
		}
		links[platform] = link
	}

	return &AuditRequest{
		WebsiteURL:   websiteURL,
		ContactName:  strings.TrimSpace(contactName),
		ContactEmail: contactEmail,
		SocialLinks:  links,
	}, nil
}

// ContactPageURL derives the likely contact page for the audited site.
func (r *AuditRequest) ContactPageURL() string {
	return r.WebsiteURL + "/contact"
}

// Viewport is the capture viewport in CSS pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CaptureRequest asks the capture worker to produce one visual asset.
// Notes are internal-only and never surfaced in rendered output.
type CaptureRequest struct {
	ID       string   `json:"id"`
	URL      string   `json:"url"`
	Caption  string   `json:"caption"`
	Notes    string   `json:"notes,omitempty"`
	Device   string   `json:"device"`
	Viewport Viewport `json:"viewport"`
	Group    string   `json:"group,omitempty"`
}

// Capture device classes.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
)

// CapturePlan is the run-wide aggregation of capture requests. Duplicate ids
// across passes are kept as-is; the dispatcher resolves by id, so the last
// writer wins downstream.
type CapturePlan []CaptureRequest

// Merge appends the records of one pass to the plan.
func (p CapturePlan) Merge(records []CaptureRequest) CapturePlan {
	return append(p, records...)
}

// DocumentPair holds the two parallel reports produced by one synthesis call.
// Both fields are always non-empty after a successful run.
type DocumentPair struct {
	VisitorDocument string `json:"visitor_document"`
	OwnerDocument   string `json:"owner_document"`
}

// AuditResult is the outcome of a completed audit run.
type AuditResult struct {
	AuditID   string
	Documents DocumentPair
	// Plan is the raw aggregated capture plan, returned so callers can
	// inspect or re-dispatch it.
	Plan CapturePlan
	// SucceededGroups and FailedGroups summarize the research phase.
	SucceededGroups []string
	FailedGroups    map[string]string
	// Fallback is true when synthesis ran without any research material.
	Fallback bool
}

// AuditIDFloor is the lowest audit number ever issued. The persisted counter
// starts here and only moves forward.
const AuditIDFloor = 120

// FormatAuditID renders a counter value as a public audit id, e.g. "AR-0120".
func FormatAuditID(n int64) string {
	return fmt.Sprintf("AR-%04d", n)
}
