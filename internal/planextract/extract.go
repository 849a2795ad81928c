// Package planextract pulls embedded capture-plan blocks out of research
// pass responses.
//
// Research passes are asked to emit free-form analysis followed by one
// delimited JSON block carrying capture requests. Models do not always
// comply: blocks may be missing, duplicated, or malformed. Extract therefore
// never fails; anything that does not parse degrades to "no records found".
package planextract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/jonesrussell/audit-engine/internal/domain"
)

// Block delimiters the pass prompt instructs the model to use.
const (
	StartMarker = "<<<CAPTURE_PLAN>>>"
	EndMarker   = "<<<END_CAPTURE_PLAN>>>"
)

// blockPattern matches a whole delimited block, non-greedy so that multiple
// blocks in one response are matched separately.
var blockPattern = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(StartMarker) + `(.*?)` + regexp.QuoteMeta(EndMarker))

// payload is the expected JSON shape inside a block.
type payload struct {
	Captures []domain.CaptureRequest `json:"captures"`
}

// Extract scans text for capture-plan blocks, parses them, and returns the
// text with all matched blocks removed (trimmed) plus the parsed records.
// Records lacking a group are stamped with groupID. Malformed blocks and
// blocks without the "captures" key are skipped silently.
func Extract(text, groupID string) (string, []domain.CaptureRequest) {
	var records []domain.CaptureRequest

	for _, match := range blockPattern.FindAllStringSubmatch(text, -1) {
		parsed, ok := parseBlock(match[1])
		if !ok {
			continue
		}
		for i := range parsed {
			if parsed[i].Group == "" {
				parsed[i].Group = groupID
			}
		}
		records = append(records, parsed...)
	}

	clean := blockPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(clean), records
}

// parseBlock decodes one block body. Models sometimes wrap the JSON in a
// fenced code block; strip that before decoding.
func parseBlock(body string) ([]domain.CaptureRequest, bool) {
	body = strings.TrimSpace(body)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")
	body = strings.TrimSpace(body)

	var p payload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, false
	}
	if p.Captures == nil {
		return nil, false
	}
	return p.Captures, true
}
