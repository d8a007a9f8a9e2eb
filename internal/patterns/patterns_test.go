package patterns

import (
	"slices"
	"testing"
)

func TestParseClauseHeading(t *testing.T) {
	tests := []struct {
		text      string
		wantID    string
		wantTitle string
		wantOK    bool
	}{
		{"6.1 Test Methods", "6.1", "Test Methods", true},
		{"1  Scope", "1", "Scope", true},
		{"A.2", "A.2", "", true},
		{"10", "10", "", true},
		{"B Environmental conditions", "B", "Environmental conditions", true},
		{"Environmental Tests", "", "", false},
		{"a.2 lower case annex", "", "", false},
		{"6.1. Trailing dot", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			id, title, ok := ParseClauseHeading(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if id != tt.wantID {
				t.Errorf("expected id %q, got %q", tt.wantID, id)
			}
			if title != tt.wantTitle {
				t.Errorf("expected title %q, got %q", tt.wantTitle, title)
			}
		})
	}
}

func TestCaptionNumbers(t *testing.T) {
	if got := TableNumber("Table A.3 - Test limits"); got != "A.3" {
		t.Errorf("expected table number %q, got %q", "A.3", got)
	}
	if got := FigureNumber("Fig. 12 Wiring"); got != "12" {
		t.Errorf("expected figure number %q, got %q", "12", got)
	}
	if got := FigureNumber("figure 4.2"); got != "4.2" {
		t.Errorf("expected figure number %q, got %q", "4.2", got)
	}
	if got := FigureNumber("Figure B.2 Test setup"); got != "B.2" {
		t.Errorf("expected figure number %q, got %q", "B.2", got)
	}
	if got := TableNumber("Table 3A limits"); got != "3" {
		t.Errorf("expected table number %q, got %q", "3", got)
	}
	if TableNumber("no caption here") != "" {
		t.Error("expected empty table number")
	}
	if !IsNumberedCaption("Table 1 Overview") {
		t.Error("expected numbered caption")
	}
	if IsNumberedCaption("Key to symbols") {
		t.Error("expected unnumbered caption")
	}
}

func TestFirstRequirement(t *testing.T) {
	tests := []struct {
		text     string
		wantType string
		wantKW   string
		wantOK   bool
	}{
		{"This clause shall specify test conditions.", Mandatory, "shall", true},
		{"The enclosure shall not exceed 40 C.", Prohibition, "shall not", true},
		{"The user may, and should, check this.", Permission, "may", true},
		{"Testing SHOULD be repeated; it shall pass.", Recommendation, "should", true},
		{"The mayor visited.", "", "", false},
		{"No modal verbs here.", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			m, ok := FirstRequirement(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if m.Type != tt.wantType {
				t.Errorf("expected type %q, got %q", tt.wantType, m.Type)
			}
			if m.Keyword != tt.wantKW {
				t.Errorf("expected keyword %q, got %q", tt.wantKW, m.Keyword)
			}
		})
	}
}

func TestClauseReferences(t *testing.T) {
	got := ClauseReferences("See clause 4.2, Table 3 and Fig. 5; see also Clause 4.2.")
	want := []string{"4.2", "table:3", "figure:5"}
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRawReferences(t *testing.T) {
	got := RawReferences("See Clause 6.1 and Table 3 of ISO/IEC 27001:2013")
	want := []string{"Clause 6.1", "6.1", "3", "27001", "2013", "Table 3"}
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRawReferencesAnnexLetterNeedsBoundary(t *testing.T) {
	got := RawReferences("as given in annex and in Annex B")
	want := []string{"Annex B"}
	if !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestStandards(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"See Clause 6.1 and Table 3 of ISO/IEC 27001:2013", []string{"ISO/IEC 27001:2013"}},
		{"Complies with BS EN 50174-3:2013 and IEEE 802.3", []string{"BS EN 50174-3:2013", "IEEE 802.3"}},
		{"Measured per IEC 61000-4-2 (all parts)", []string{"IEC 61000-4-2"}},
		{"this is 5 mm wide", nil},
		{"conforms to iso 9001:2015", nil},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := Standards(tt.text)
			if !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestTrailingIdentifier(t *testing.T) {
	if got := TrailingIdentifier("Clause 6.1"); got != "6.1" {
		t.Errorf("expected %q, got %q", "6.1", got)
	}
	if got := TrailingIdentifier("7"); got != "7" {
		t.Errorf("expected %q, got %q", "7", got)
	}
	if got := TrailingIdentifier("   "); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
