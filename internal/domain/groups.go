package domain

// Category identifies one of the 13 report categories. Every audit report
// covers all of them, in this order, in both documents.
type Category string

// Report categories, in mandated report order.
const (
	CategorySEOFoundations   Category = "seo_foundations"
	CategoryLocalSearch      Category = "local_search"
	CategoryContentStrategy  Category = "content_strategy"
	CategoryKeywordTargeting Category = "keyword_targeting"
	CategoryBacklinkProfile  Category = "backlink_profile"
	CategoryDesignQuality    Category = "design_quality"
	CategoryMobileExperience Category = "mobile_experience"
	CategorySitePerformance  Category = "site_performance"
	CategoryAccessibility    Category = "accessibility"
	CategoryMessagingClarity Category = "messaging_clarity"
	CategoryTrustSignals     Category = "trust_signals"
	CategoryConversionPaths  Category = "conversion_paths"
	CategorySocialProof      Category = "social_proof"
)

// categoryLabels maps category tokens to human-facing headings.
var categoryLabels = map[Category]string{
	CategorySEOFoundations:   "SEO Foundations",
	CategoryLocalSearch:      "Local Search Visibility",
	CategoryContentStrategy:  "Content Strategy",
	CategoryKeywordTargeting: "Keyword Targeting",
	CategoryBacklinkProfile:  "Backlink Profile",
	CategoryDesignQuality:    "Design & Visual Quality",
	CategoryMobileExperience: "Mobile Experience",
	CategorySitePerformance:  "Site Performance",
	CategoryAccessibility:    "Accessibility",
	CategoryMessagingClarity: "Messaging Clarity",
	CategoryTrustSignals:     "Trust Signals",
	CategoryConversionPaths:  "Conversion Paths",
	CategorySocialProof:      "Social Proof & Profiles",
}

// Label returns the human-facing heading for a category.
func (c Category) Label() string {
	return categoryLabels[c]
}

// ResearchGroup is a named thematic research pass covering a fixed subset of
// categories. The three groups partition the 13 categories with no overlap.
type ResearchGroup struct {
	ID         string
	Label      string
	Categories []Category
}

// Research group ids, in fixed pass order.
const (
	GroupVisibility = "visibility"
	GroupExperience = "experience"
	GroupConversion = "conversion"
)

// researchGroups is the static pass configuration. Order matters: passes run
// top to bottom and the aggregated summary is ordered by group id, not by
// completion order.
var researchGroups = []ResearchGroup{
	{
		ID:    GroupVisibility,
		Label: "Search Visibility",
		Categories: []Category{
			CategorySEOFoundations,
			CategoryLocalSearch,
			CategoryContentStrategy,
			CategoryKeywordTargeting,
			CategoryBacklinkProfile,
		},
	},
	{
		ID:    GroupExperience,
		Label: "User Experience",
		Categories: []Category{
			CategoryDesignQuality,
			CategoryMobileExperience,
			CategorySitePerformance,
			CategoryAccessibility,
		},
	},
	{
		ID:    GroupConversion,
		Label: "Conversion & Trust",
		Categories: []Category{
			CategoryMessagingClarity,
			CategoryTrustSignals,
			CategoryConversionPaths,
			CategorySocialProof,
		},
	},
}

// ResearchGroups returns the research passes in execution order.
func ResearchGroups() []ResearchGroup {
	out := make([]ResearchGroup, len(researchGroups))
	copy(out, researchGroups)
	return out
}

// AllCategories returns the 13 categories in mandated report order.
func AllCategories() []Category {
	out := make([]Category, 0, 13)
	for _, g := range researchGroups {
		out = append(out, g.Categories...)
	}
	return out
}
