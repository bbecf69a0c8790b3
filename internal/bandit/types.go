package bandit

import (
	"encoding/json"
	"strings"
)

// Result holds the fields of a Bandit result that are summarized.
// They are kept raw so that unexpected shapes can be skipped instead of
// failing the whole report.
type Result struct {
	IssueConfidence json.RawMessage `json:"issue_confidence"`
	IssueSeverity   json.RawMessage `json:"issue_severity"`
	IssueCWE        json.RawMessage `json:"issue_cwe"`
}

type Report struct {
	Results []Result `json:"results"`
}

type Level string

const (
	High   Level = "HIGH"
	Medium Level = "MEDIUM"
	Low    Level = "LOW"
)

// CWE is a weakness identifier as it appears in the report.
// Numeric ids keep their JSON number text, string ids are single-quoted,
// so 79 and "79" remain distinct.
type CWE string

type Summary struct {
	HighConf        int
	MedConf         int
	LowConf         int
	HighSev         int
	MedSev          int
	LowSev          int
	UniqueCWEs      []CWE
	TotalUniqueCWEs int
	Repo            string
	Commit          string
}

// FormatCWEs renders the identifiers as a bracketed list, e.g. "[79, 89]".
func FormatCWEs(cwes []CWE) string {
	parts := make([]string, 0, len(cwes))
	for _, c := range cwes {
		parts = append(parts, string(c))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
