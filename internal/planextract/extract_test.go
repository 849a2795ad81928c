package planextract

import (
	"testing"

	"github.com/jonesrussell/audit-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBlock = `<<<CAPTURE_PLAN>>>
{"captures": [
  {"id": "home-desktop", "url": "https://example.com", "caption": "Homepage",
   "device": "desktop", "viewport": {"width": 1440, "height": 900}}
]}
<<<END_CAPTURE_PLAN>>>`

func TestExtract_SingleBlock(t *testing.T) {
	text := "Analysis of the homepage.\n\n" + validBlock + "\n\nClosing remarks."

	clean, records := Extract(text, "visibility")

	require.Len(t, records, 1)
	assert.Equal(t, "home-desktop", records[0].ID)
	assert.Equal(t, "https://example.com", records[0].URL)
	assert.Equal(t, domain.Viewport{Width: 1440, Height: 900}, records[0].Viewport)
	assert.Equal(t, "visibility", records[0].Group, "missing group is stamped")

	assert.NotContains(t, clean, StartMarker)
	assert.NotContains(t, clean, EndMarker)
	assert.Contains(t, clean, "Analysis of the homepage.")
	assert.Contains(t, clean, "Closing remarks.")
}

func TestExtract_KeepsExplicitGroup(t *testing.T) {
	text := `<<<CAPTURE_PLAN>>>
{"captures": [{"id": "a", "url": "https://example.com", "group": "conversion"}]}
<<<END_CAPTURE_PLAN>>>`

	_, records := Extract(text, "visibility")

	require.Len(t, records, 1)
	assert.Equal(t, "conversion", records[0].Group)
}

func TestExtract_NoBlock(t *testing.T) {
	clean, records := Extract("  just prose, no side channel  ", "experience")

	assert.Empty(t, records)
	assert.Equal(t, "just prose, no side channel", clean, "input returned unchanged modulo trim")
}

func TestExtract_MalformedBlockSkippedSilently(t *testing.T) {
	text := "before\n<<<CAPTURE_PLAN>>>{not json at all<<<END_CAPTURE_PLAN>>>\nafter"

	clean, records := Extract(text, "visibility")

	assert.Empty(t, records)
	assert.Contains(t, clean, "before")
	assert.Contains(t, clean, "after")
	assert.NotContains(t, clean, StartMarker)
}

func TestExtract_MissingCapturesKeySkipped(t *testing.T) {
	text := `<<<CAPTURE_PLAN>>>{"screenshots": [{"id": "x"}]}<<<END_CAPTURE_PLAN>>>`

	_, records := Extract(text, "visibility")

	assert.Empty(t, records)
}

func TestExtract_MultipleBlocks(t *testing.T) {
	text := validBlock + "\nmiddle prose\n" + `<<<CAPTURE_PLAN>>>
{"captures": [{"id": "contact", "url": "https://example.com/contact"}]}
<<<END_CAPTURE_PLAN>>>`

	clean, records := Extract(text, "conversion")

	require.Len(t, records, 2)
	assert.Equal(t, "home-desktop", records[0].ID)
	assert.Equal(t, "contact", records[1].ID)
	assert.Equal(t, "middle prose", clean)
}

func TestExtract_FencedJSONAccepted(t *testing.T) {
	text := "<<<CAPTURE_PLAN>>>\n```json\n{\"captures\": [{\"id\": \"p\", \"url\": \"https://example.com/p\"}]}\n```\n<<<END_CAPTURE_PLAN>>>"

	_, records := Extract(text, "experience")

	require.Len(t, records, 1)
	assert.Equal(t, "p", records[0].ID)
}

func TestExtract_UnterminatedBlockLeftInPlace(t *testing.T) {
	text := "prose\n<<<CAPTURE_PLAN>>>{\"captures\": []}"

	clean, records := Extract(text, "visibility")

	assert.Empty(t, records)
	assert.Contains(t, clean, "prose")
}
