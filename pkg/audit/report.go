package audit

import (
	"encoding/json"
	"io"
)

// Report is the JSON form of an audit run.
type Report struct {
	TotalFindings int                    `json:"total_findings"`
	Categories    map[string]CategorySum `json:"categories"`
	Findings      []Finding              `json:"findings"`
}

// CategorySum summarizes findings for a single category.
type CategorySum struct {
	Total   int    `json:"total"`
	Errors  int    `json:"errors"`
	Fixable int    `json:"fixable"`
	Fixed   int    `json:"fixed"`
	Label   string `json:"label"`
}

var categoryLabels = map[Category]string{
	CatPlaceholder: "Default Placeholders",
	CatReference:   "Unresolved References",
	CatInvariant:   "Broken Invariants",
	CatFormat:      "Formatting",
	CatDuplicate:   "Duplicates",
	CatMissing:     "Missing Content",
	CatDevelopment: "In Development",
}

// GenerateReport builds a Report from the auditor's current findings.
func GenerateReport(a *Auditor) *Report {
	r := &Report{
		TotalFindings: len(a.findings),
		Categories:    make(map[string]CategorySum),
		Findings:      a.findings,
	}
	for _, f := range a.findings {
		cs := r.Categories[f.Category.String()]
		cs.Label = categoryLabels[f.Category]
		cs.Total++
		if f.Severity == SevError {
			cs.Errors++
		}
		if f.Fixable {
			cs.Fixable++
		}
		if f.Fixed {
			cs.Fixed++
		}
		r.Categories[f.Category.String()] = cs
	}
	return r
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
