// Package scope pulls the identity, title, scope statement and test
// clauses out of an extractor block tree. It works on the raw blocks, not
// on the clause schema, because the scope heuristics depend on the
// extractor's own section hierarchy.
package scope

import (
	"cmp"
	"maps"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/clausegest/internal/block"
	"github.com/dgallion1/clausegest/internal/patterns"
)

var (
	scopeHeaderRE = regexp.MustCompile(`>\s*(\d+\.?\s*)?(Scope|SCOPE)\s*<`)
	clauseOneRE   = regexp.MustCompile(`>\s*1(\.|\s|<)`)

	docIDPattern = `\bIEC\s+\d+(?:[-/]\d+)*(?:\s*:\s*\d{4})?` +
		`|\bISO(?:/IEC)?\s+\d+(?:[-/]\d+)*(?:\s*:\s*\d{4})?` +
		`|\bIS\s+\d+(?:\s+Part\s+\d+)?(?:\s+Sec(?:tion)?\s+\d+)?(?:\s*:\s*\d{4})?` +
		`|\bBS\s+EN\s+\d+(?:[-/]\d+)*(?:\s*:\s*\d{4})?` +
		`|\bEN\s+\d+(?:[-/]\d+)*(?:\s*:\s*\d{4})?` +
		`|\bIEEE\s+\d+(?:\.\d+)?(?:[-/]\d+)*(?:\s*:\s*\d{4})?`
	docIDRE     = regexp.MustCompile(`(?i)` + docIDPattern)
	docIDFullRE = regexp.MustCompile(`(?i)^(?:` + docIDPattern + `)$`)

	testSectionRE   = regexp.MustCompile(`(?i)^\s*(\d+\.)*\d+\s+.*\btest(s|ing)?\b`)
	sectionNumberRE = regexp.MustCompile(`^\d+(\.\d+)*\s+`)
	webRE           = regexp.MustCompile(`(?i)www\.|https?://|\.com\b|\.org\b|\.ch\b|\.net\b|webstore|search.*form`)
)

var boilerplate = []string{
	"foreword", "preface", "introduction",
	"copyright", "contents", "table of contents",
	"bibliography", "index", "references",
	"annex", "amendment", "corrigendum",
	"about the", "publication", "acknowledgement",
}

var scopePhrases = []string{
	"this document",
	"this standard",
	"this part",
	"this specification",
	"this section",
	"this international standard",
}

const (
	maxTitleHeader = 20
	minTitleWords  = 4
	englishRatio   = 0.80
)

// Result is the scope summary of one document.
type Result struct {
	DocumentID    string   `json:"document_id"`
	DocumentName  string   `json:"document_name"`
	DocumentTitle string   `json:"document_title"`
	Scope         []string `json:"scope"`
	Tests         []string `json:"tests"`
}

// Empty reports whether neither a scope nor any test clause was found.
func (r Result) Empty() bool {
	return len(r.Scope) == 0 && len(r.Tests) == 0
}

// Text joins the scope paragraphs.
func (r Result) Text() string {
	return strings.Join(r.Scope, "\n")
}

// Extract analyzes a decoded block tree. Missing names fall back to
// docID, missing titles to the name.
func Extract(doc *block.Document, docID string) Result {
	blocks := doc.PageBlocks()
	r := Result{
		DocumentID:    docID,
		DocumentName:  DocumentName(blocks),
		DocumentTitle: Title(blocks),
		Scope:         Statement(blocks),
		Tests:         TestSections(blocks),
	}
	if r.DocumentName == "" {
		r.DocumentName = docID
	}
	if r.DocumentTitle == "" {
		r.DocumentTitle = r.DocumentName
	}
	return r
}

// DocumentName returns the longest standard number mentioned in any
// block. Only the first match of each block is considered.
func DocumentName(blocks []*block.Block) string {
	var best string
	for _, b := range blocks {
		text := patterns.CleanHTML(b.HTML)
		if text == "" {
			continue
		}
		if m := strings.TrimSpace(docIDRE.FindString(text)); len(m) > len(best) {
			best = m
		}
	}
	return best
}

type titleCandidate struct {
	score int
	index int
	text  string
}

// Title picks the best scoring section header among the first few.
func Title(blocks []*block.Block) string {
	var candidates []titleCandidate
	index := 0
	for _, b := range blocks {
		if b.Kind != block.SectionHeader {
			continue
		}
		text := patterns.CleanHTML(b.HTML)
		if text == "" {
			continue
		}
		if score, ok := scoreTitle(text, index); ok {
			candidates = append(candidates, titleCandidate{score: score, index: index, text: text})
		}
		index++
	}
	if len(candidates) == 0 {
		return ""
	}
	slices.SortFunc(candidates, func(a, b titleCandidate) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.index, b.index)
	})
	return candidates[0].text
}

func scoreTitle(text string, index int) (int, bool) {
	if !isEnglish(text) || isBoilerplate(text) || webRE.MatchString(text) {
		return 0, false
	}
	if docIDFullRE.MatchString(text) || sectionNumberRE.MatchString(text) {
		return 0, false
	}
	if index > maxTitleHeader {
		return 0, false
	}
	words := len(strings.Fields(text))
	if words < minTitleWords {
		return 0, false
	}
	score := words*10 + max(0, 200-index*10)
	if words >= 10 {
		score += 50
	}
	return score, true
}

func isEnglish(text string) bool {
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return false
	}
	ascii := 0
	for _, r := range text {
		if r < utf8.RuneSelf {
			ascii++
		}
	}
	return float64(ascii)/float64(total) > englishRatio
}

func isBoilerplate(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range boilerplate {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

type collectState int

const (
	idle collectState = iota
	explicit
	clauseOne
)

// Statement returns the paragraphs of the Scope section. Without an
// explicit Scope heading the text of clause 1 is used, but only when it
// opens with a phrase such as "This document".
func Statement(blocks []*block.Block) []string {
	var (
		scope, fallback []string
		state           = idle
		found           bool
		scopeHierarchy  map[string]string
	)
	for _, b := range blocks {
		if (b.Kind == block.SectionHeader || b.Kind == block.Text) && scopeHeaderRE.MatchString(b.HTML) {
			state = explicit
			found = true
			scopeHierarchy = b.SectionHierarchy
			continue
		}

		if state == explicit && b.Kind == block.SectionHeader &&
			len(b.SectionHierarchy) > 0 && !maps.Equal(b.SectionHierarchy, scopeHierarchy) {
			state = idle
		}
		if state == explicit && b.Kind == block.Text {
			if text := patterns.CleanHTML(b.HTML); text != "" {
				scope = append(scope, text)
			}
		}

		if !found && b.Kind == block.SectionHeader && clauseOneRE.MatchString(b.HTML) {
			state = clauseOne
			continue
		}
		if state == clauseOne {
			switch b.Kind {
			case block.Text:
				if text := patterns.CleanHTML(b.HTML); text != "" {
					fallback = append(fallback, text)
				}
			case block.SectionHeader:
				state = idle
			}
		}
	}

	if len(scope) > 0 {
		return scope
	}
	if len(fallback) > 0 && opensWithScopePhrase(fallback[0]) {
		return fallback
	}
	return []string{}
}

func opensWithScopePhrase(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range scopePhrases {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// TestSections lists numbered section headers that mention testing, in
// document order and without duplicates.
func TestSections(blocks []*block.Block) []string {
	tests := []string{}
	seen := make(map[string]bool)
	for _, b := range blocks {
		if b.Kind != block.SectionHeader {
			continue
		}
		text := patterns.CleanHTML(b.HTML)
		if !testSectionRE.MatchString(text) || seen[text] {
			continue
		}
		seen[text] = true
		tests = append(tests, text)
	}
	return tests
}
