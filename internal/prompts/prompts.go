// Package prompts builds the exact prompt text for every model call in the
// audit pipeline. Everything here is pure: same inputs, same strings.
package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jonesrussell/audit-engine/internal/domain"
)

// Markers the synthesis model is instructed to emit, used later to split the
// combined response into the two documents.
const (
	VisitorMarker = "=== VISITOR REPORT ==="
	OwnerMarker   = "=== OWNER PLAYBOOK ==="
)

// PassStart returns the boundary marker opening one pass's cleaned prose in
// the aggregated research text.
func PassStart(groupID string) string {
	return fmt.Sprintf("===== RESEARCH PASS: %s =====", groupID)
}

// PassEnd returns the boundary marker closing one pass's cleaned prose.
func PassEnd(groupID string) string {
	return fmt.Sprintf("===== END PASS: %s =====", groupID)
}

// ResearchSystem builds the system prompt shared by all research passes.
// It carries the content rules: no invented competitors, no unsourced
// statistics, and platform rules for capture targets.
func ResearchSystem(req *domain.AuditRequest) string {
	var b strings.Builder

	b.WriteString("You are a senior website auditor researching a business website and its real competitive landscape.\n\n")
	fmt.Fprintf(&b, "Subject website: %s\n", req.WebsiteURL)
	fmt.Fprintf(&b, "Likely contact page: %s\n", req.ContactPageURL())
	writeSocialLinks(&b, req.SocialLinks)

	b.WriteString(`
CONTENT RULES (non-negotiable):
- Never invent competitor businesses or competitor domains. Only name competitors you actually found, with their real URLs.
- Prioritize competitor discovery in this order: local competitors first, then regional, then national.
- Never fabricate statistics. Every statistic you cite must carry the name of its source and a source URL. If you cannot find a credible source, state the observation qualitatively instead.
- When proposing page captures: never target pages behind a login wall, and never target pages that only show a cookie/consent interstitial. Public profile pages are acceptable; private or login-gated social views are not.
- Cite what you observed, not what you assume. Mark inferences clearly as inferences.
`)

	return b.String()
}

// PassUser builds the user prompt for one research pass. Analysis is scoped
// strictly to the group's categories, and the response must end with exactly
// one delimited capture-plan block.
func PassUser(req *domain.AuditRequest, group domain.ResearchGroup) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Research pass: %s (%s)\n\n", group.Label, group.ID)
	fmt.Fprintf(&b, "Analyze %s strictly within these categories and no others:\n", req.WebsiteURL)
	for _, c := range group.Categories {
		fmt.Fprintf(&b, "- %s: %s\n", c, c.Label())
	}

	fmt.Fprintf(&b, `
Respond in this exact order:

1. Free-form analysis as a structured markdown document: one "## " heading per category above, in the order listed, with your findings, competitor observations, and sourced statistics underneath.

2. Exactly one capture-plan block, after all analysis, in this form:

<<<CAPTURE_PLAN>>>
{"captures": [
  {"id": "<stable-token>", "url": "<page url>", "caption": "<short reader-facing caption>",
   "notes": "<internal reviewer notes>", "device": %q or %q,
   "viewport": {"width": <int>, "height": <int>}, "group": %q}
]}
<<<END_CAPTURE_PLAN>>>

Capture-plan rules: zero or more entries; each id unique within this pass and stable (lowercase, hyphenated); use only the fields shown above and no others (in particular no "selector", "delay" or "fullpage" fields); desktop viewports 1440x900, mobile 390x844, unless the finding requires otherwise.
`, domain.DeviceDesktop, domain.DeviceMobile, group.ID)

	return b.String()
}

// SynthesisSystem builds the system prompt for the synthesis model. It
// mandates the two-section response shape and the per-category structure for
// all 13 categories.
func SynthesisSystem() string {
	var b strings.Builder

	b.WriteString("You are an expert report writer turning website research into two parallel audit reports in a single response.\n\n")
	b.WriteString("Your response must contain exactly two sections, in this order, each opened by its marker on its own line:\n\n")
	fmt.Fprintf(&b, "%s\nA persuasive report addressed to the site visitor who requested the audit. Plain language, benefit-led, honest about problems.\n\n", VisitorMarker)
	fmt.Fprintf(&b, "%s\nA detailed implementation playbook addressed to the site owner. Specific, technical where needed, prioritized.\n\n", OwnerMarker)

	b.WriteString("Both sections cover ALL of the following categories, in this exact order:\n")
	for i, c := range domain.AllCategories() {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, c.Label(), c)
	}

	b.WriteString(`
Every category, in both sections, follows this structure:
- A "## " heading with the category name.
- A one-paragraph intro.
- At least one capture reference in the form [[capture:<id>]], using ids from the capture plans in the research material. If no capture fits, use [[capture:none]].
- "Findings:" — bullet list of concrete observations.
- "Competitor comparison:" — how real, named competitors from the research handle this. Never invent competitors.
- "Statistics:" — only statistics with a named source and URL. Omit this sub-block entirely if no credible source exists; never fabricate numbers.
- "Score: N/10 — IMPACT" where N is an integer 0-10 and IMPACT is HIGH, MED or LOW. The score and impact for a category must be identical in both sections.
- A closing sentence tying the category to a business outcome.
- Owner section only: "Steps:" — a numbered remediation list of 3 to 7 actionable, ordered items.
`)

	return b.String()
}

// SynthesisUser builds the normal-path user prompt: the aggregated research
// material plus a summary of which passes succeeded or failed.
func SynthesisUser(req *domain.AuditRequest, aggregated string, succeeded []string, failed map[string]string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Produce both audit reports for %s", req.WebsiteURL)
	if req.ContactName != "" {
		fmt.Fprintf(&b, ", requested by %s", req.ContactName)
	}
	b.WriteString(".\n\n")

	b.WriteString("Research pass summary:\n")
	if len(succeeded) > 0 {
		fmt.Fprintf(&b, "- Succeeded: %s\n", strings.Join(succeeded, ", "))
	}
	if len(failed) > 0 {
		ids := make([]string, 0, len(failed))
		for id := range failed {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(&b, "- Failed: %s (%s)\n", id, failed[id])
		}
	}

	b.WriteString(`
Cover all 13 categories in both sections even where the research below is thin or a pass failed: reasonable inference and industry best practice are acceptable fillers, fabricated analytics and invented competitors are not.

Research material follows, one delimited pass per research group:

`)
	b.WriteString(aggregated)

	return b.String()
}

// FallbackUser builds the fallback-path user prompt used when no research
// material exists at all. The synthesis model performs the entire audit
// unaided.
func FallbackUser(req *domain.AuditRequest, reason string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "The research phase for %s produced no material (%s).\n\n", req.WebsiteURL, reason)
	b.WriteString("Perform the full audit yourself, end to end: assess the website and its likely competitive landscape from your own knowledge, then produce both reports exactly as instructed. ")
	b.WriteString("Apply the same honesty rules: no invented competitor domains, no fabricated statistics — omit the statistics sub-block where you have no credible source.\n")
	writeSocialLinks(&b, req.SocialLinks)

	return b.String()
}

// writeSocialLinks appends the declared social profiles, sorted by platform
// for determinism. Entries are already trimmed and non-empty by construction,
// but guard anyway since prompt text is the last line of defense.
func writeSocialLinks(b *strings.Builder, links map[string]string) {
	platforms := make([]string, 0, len(links))
	for platform, link := range links {
		if strings.TrimSpace(link) == "" {
			continue
		}
		platforms = append(platforms, platform)
	}
	if len(platforms) == 0 {
		return
	}
	sort.Strings(platforms)

	b.WriteString("Declared social profiles:\n")
	for _, p := range platforms {
		fmt.Fprintf(b, "- %s: %s\n", p, links[p])
	}
}
