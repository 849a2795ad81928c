package orchestrator

import (
	"strings"

	"github.com/jonesrussell/audit-engine/internal/domain"
	"github.com/jonesrussell/audit-engine/internal/prompts"
)

// degradedNotice opens both documents when the synthesis response could not
// be split into its two sections.
const degradedNotice = "NOTE: the report below could not be separated into its " +
	"visitor and owner sections; the full combined text follows.\n\n"

// splitDocuments divides the combined synthesis response into the visitor and
// owner documents using the section markers the synthesis prompt mandates.
//
// The owner marker is the primary cut point. When it is missing entirely the
// split is ambiguous and both documents degrade to a notice plus the full raw
// text, so neither is ever empty.
func splitDocuments(combined string) domain.DocumentPair {
	ownerIdx := strings.Index(combined, prompts.OwnerMarker)
	if ownerIdx < 0 {
		degraded := degradedNotice + strings.TrimSpace(combined)
		return domain.DocumentPair{
			VisitorDocument: degraded,
			OwnerDocument:   degraded,
		}
	}

	visitorCandidate := combined[:ownerIdx]
	owner := strings.TrimSpace(combined[ownerIdx+len(prompts.OwnerMarker):])

	// Drop any preamble the model wrote before the visitor marker; keep the
	// whole candidate when the marker is absent.
	if visitorIdx := strings.Index(visitorCandidate, prompts.VisitorMarker); visitorIdx >= 0 {
		visitorCandidate = visitorCandidate[visitorIdx+len(prompts.VisitorMarker):]
	}
	visitor := strings.TrimSpace(visitorCandidate)

	if visitor == "" {
		visitor = degradedNotice + strings.TrimSpace(combined)
	}
	if owner == "" {
		owner = degradedNotice + strings.TrimSpace(combined)
	}

	return domain.DocumentPair{
		VisitorDocument: visitor,
		OwnerDocument:   owner,
	}
}
