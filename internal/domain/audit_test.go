package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuditRequest_NormalizesURL(t *testing.T) {
	req, err := NewAuditRequest("  https://example.com/  ", "Pat", "pat@example.com", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com", req.WebsiteURL)
	assert.Equal(t, "https://example.com/contact", req.ContactPageURL())
}

func TestNewAuditRequest_DropsEmptySocialLinks(t *testing.T) {
	req, err := NewAuditRequest("https://example.com", "Pat", "pat@example.com", map[string]string{
		"facebook":  "https://facebook.com/example",
		"instagram": "   ",
		"tiktok":    "",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"facebook": "https://facebook.com/example"}, req.SocialLinks)
}

func TestNewAuditRequest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		email   string
		wantErr error
	}{
		{"empty url", "", "pat@example.com", ErrMissingWebsiteURL},
		{"bare slash url", "/", "pat@example.com", ErrMissingWebsiteURL},
		{"no scheme", "example.com", "pat@example.com", ErrInvalidWebsiteURL},
		{"ftp scheme", "ftp://example.com", "pat@example.com", ErrInvalidWebsiteURL},
		{"empty email", "https://example.com", "", ErrMissingEmail},
		{"bad email", "https://example.com", "not-an-email", ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAuditRequest(tt.url, "Pat", tt.email, nil)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestResearchGroups_CoverAllCategoriesExactlyOnce(t *testing.T) {
	groups := ResearchGroups()
	require.Len(t, groups, 3)

	seen := map[Category]string{}
	for _, g := range groups {
		for _, c := range g.Categories {
			prev, dup := seen[c]
			require.False(t, dup, "category %s appears in both %s and %s", c, prev, g.ID)
			seen[c] = g.ID
		}
	}
	assert.Len(t, seen, 13, "the three groups cover 13 categories with no gaps")
	assert.Len(t, AllCategories(), 13)
}

func TestResearchGroups_FixedOrder(t *testing.T) {
	groups := ResearchGroups()
	assert.Equal(t, GroupVisibility, groups[0].ID)
	assert.Equal(t, GroupExperience, groups[1].ID)
	assert.Equal(t, GroupConversion, groups[2].ID)
}

func TestCategoryLabels(t *testing.T) {
	for _, c := range AllCategories() {
		assert.NotEmpty(t, c.Label(), "category %s has a heading", c)
	}
}

func TestFormatAuditID(t *testing.T) {
	assert.Equal(t, "AR-0120", FormatAuditID(120))
	assert.Equal(t, "AR-0999", FormatAuditID(999))
	assert.Equal(t, "AR-12345", FormatAuditID(12345))
}

func TestCapturePlan_MergeKeepsDuplicates(t *testing.T) {
	plan := CapturePlan{}
	plan = plan.Merge([]CaptureRequest{{ID: "home", URL: "https://example.com"}})
	plan = plan.Merge([]CaptureRequest{{ID: "home", URL: "https://example.com/v2"}})

	require.Len(t, plan, 2, "duplicate ids are not deduplicated during aggregation")
	assert.Equal(t, "https://example.com/v2", plan[1].URL)
}
