// Package patterns holds the compiled matchers used to recognize clause
// headings, captions, normative keywords and cross-references in the
// text of standards documents. Everything here is stateless.
package patterns

import (
	"regexp"
	"strings"
)

var (
	clauseWithTitleRE = regexp.MustCompile(`^((?:[A-Z]|\d+)(?:\.\d+)*)\s+(.+)$`)
	clauseNumOnlyRE   = regexp.MustCompile(`^((?:[A-Z]|\d+)(?:\.\d+)*)\s*$`)

	requirementRE = regexp.MustCompile(`(?i)\b(shall not|shall|should|may)\b`)

	tableNumberRE  = regexp.MustCompile(`(?i)\btable\s+((?:[A-Z]\.?)?\d+(?:\.\d+)*)`)
	figureNumberRE = regexp.MustCompile(`(?i)\b(?:figure|fig\.?)\s+((?:[A-Z]\.?)?\d+(?:\.\d+)*)`)
	clauseRefRE    = regexp.MustCompile(`(?i)\b(?:clause|section|paragraph)\s+([A-Z]?\d+(?:\.\d+)*)`)

	keywordRefRE    = regexp.MustCompile(`(?i)\b(Clause|Subclause|Section|Annex)\s+([A-Z]|\d+(?:\.\d+)*)\b`)
	numericRefRE    = regexp.MustCompile(`\b\d+(?:\.\d+){0,4}\b`)
	tableMentionRE  = regexp.MustCompile(`(?i)\bTable\s+\d+[A-Z]?\b`)
	figureMentionRE = regexp.MustCompile(`(?i)\bFigure\s+\d+[A-Z]?\b`)

	standardRE = regexp.MustCompile(
		`\b(?:BS\s+EN|ISO\s*/\s*IEC|ISO|IEC|IEEE|CISPR|EN|HD|IS|AIS|BIS|ITU[- ]T)` +
			`\s+[A-Z]?\d+[A-Z0-9.\-]*` +
			`(?:\s*\([^)]+\))?` +
			`(?:\s*:\s*\d{4})?\b`)
)

// Requirement kinds keyed by the modal keyword that produces them.
const (
	Prohibition    = "prohibition"
	Mandatory      = "mandatory"
	Recommendation = "recommendation"
	Permission     = "permission"
)

var modalTypes = map[string]string{
	"shall not": Prohibition,
	"shall":     Mandatory,
	"should":    Recommendation,
	"may":       Permission,
}

// Modal is the first normative keyword found in a block of text.
type Modal struct {
	Type    string
	Keyword string
}

// ParseClauseHeading splits a cleaned heading into its leading clause
// identifier and the remaining title. A heading made only of an
// identifier returns an empty title with ok set.
func ParseClauseHeading(text string) (id, title string, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", "", false
	}
	if m := clauseWithTitleRE.FindStringSubmatch(text); m != nil {
		return m[1], strings.TrimSpace(m[2]), true
	}
	if m := clauseNumOnlyRE.FindStringSubmatch(text); m != nil {
		return m[1], "", true
	}
	return "", "", false
}

// TableNumber returns the number following "Table" in a caption. Annex
// numbers such as "A.3" are kept whole.
func TableNumber(caption string) string {
	if m := tableNumberRE.FindStringSubmatch(caption); m != nil {
		return m[1]
	}
	return ""
}

// FigureNumber returns the number following "Figure" or "Fig." in a caption.
func FigureNumber(caption string) string {
	if m := figureNumberRE.FindStringSubmatch(caption); m != nil {
		return m[1]
	}
	return ""
}

// IsNumberedCaption reports whether text names a table or figure by number.
func IsNumberedCaption(text string) bool {
	return TableNumber(text) != "" || FigureNumber(text) != ""
}

// FirstRequirement finds the earliest modal keyword in text.
func FirstRequirement(text string) (Modal, bool) {
	m := requirementRE.FindStringSubmatch(text)
	if m == nil {
		return Modal{}, false
	}
	kw := strings.ToLower(strings.Join(strings.Fields(m[1]), " "))
	typ, ok := modalTypes[kw]
	if !ok {
		return Modal{}, false
	}
	return Modal{Type: typ, Keyword: kw}, true
}

// ClauseReferences returns the clause, table and figure mentions used
// while building clauses. Clause mentions are bare identifiers; tables
// and figures carry a "table:" or "figure:" prefix. Duplicates are
// removed, first occurrence wins.
func ClauseReferences(text string) []string {
	var refs []string
	seen := make(map[string]bool)
	add := func(ref string) {
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	for _, m := range clauseRefRE.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range tableNumberRE.FindAllStringSubmatch(text, -1) {
		add("table:" + m[1])
	}
	for _, m := range figureNumberRE.FindAllStringSubmatch(text, -1) {
		add("figure:" + m[1])
	}
	return refs
}

// RawReferences returns every candidate internal reference in text:
// keyword-prefixed ids ("Clause 6.1"), bare dotted numbers, and literal
// Table/Figure mentions. Results may contain duplicates.
func RawReferences(text string) []string {
	var refs []string
	for _, m := range keywordRefRE.FindAllStringSubmatch(text, -1) {
		refs = append(refs, m[1]+" "+m[2])
	}
	refs = append(refs, numericRefRE.FindAllString(text, -1)...)
	refs = append(refs, tableMentionRE.FindAllString(text, -1)...)
	refs = append(refs, figureMentionRE.FindAllString(text, -1)...)
	return refs
}

// Standards returns external standard citations such as
// "ISO/IEC 27001:2013" or "BS EN 50174-3", verbatim.
func Standards(text string) []string {
	matches := standardRE.FindAllString(text, -1)
	out := matches[:0]
	for _, m := range matches {
		if s := strings.TrimSpace(m); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// TrailingIdentifier returns the last whitespace-separated token of a
// reference, so "Clause 6.1" yields "6.1".
func TrailingIdentifier(ref string) string {
	fields := strings.Fields(ref)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}
