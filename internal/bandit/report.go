package bandit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ParseReportFile reads and summarizes the Bandit report at the given path.
func ParseReportFile(path string) (*Summary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	return ParseReport(raw)
}

// ParseReport summarizes a raw Bandit JSON report: it counts the results per
// confidence and per severity level and collects the unique CWE ids.
//
// example of a result:
//
//	{
//	  "issue_confidence": "HIGH",
//	  "issue_severity": "LOW",
//	  "issue_cwe": {
//	    "id": 703,
//	    "link": "https://cwe.mitre.org/data/definitions/703.html"
//	  },
//	  ...
//	}
func ParseReport(raw []byte) (*Summary, error) {
	var report Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("error decoding JSON: %w", err)
	}

	summary := &Summary{}
	unique := make(map[CWE]struct{})
	for _, r := range report.Results {
		switch parseLevel(r.IssueConfidence) {
		case High:
			summary.HighConf++
		case Medium:
			summary.MedConf++
		case Low:
			summary.LowConf++
		}
		switch parseLevel(r.IssueSeverity) {
		case High:
			summary.HighSev++
		case Medium:
			summary.MedSev++
		case Low:
			summary.LowSev++
		}
		if cwe, ok := parseCWE(r.IssueCWE); ok {
			unique[cwe] = struct{}{}
		}
	}

	summary.UniqueCWEs = make([]CWE, 0, len(unique))
	for cwe := range unique {
		summary.UniqueCWEs = append(summary.UniqueCWEs, cwe)
	}
	sortCWEs(summary.UniqueCWEs)
	summary.TotalUniqueCWEs = len(summary.UniqueCWEs)
	return summary, nil
}

// parseLevel returns the upper-cased level, or an empty Level if the value
// is missing, not a string or not one of HIGH, MEDIUM and LOW.
func parseLevel(raw json.RawMessage) Level {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	switch l := Level(strings.ToUpper(s)); l {
	case High, Medium, Low:
		return l
	default:
		return ""
	}
}

// parseCWE extracts `issue_cwe.id`. Only an object with a non-zero numeric id
// or a non-empty string id yields a CWE.
func parseCWE(raw json.RawMessage) (CWE, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return "", false
	}
	rawID, ok := fields["id"]
	if !ok {
		return "", false
	}
	decoder := json.NewDecoder(bytes.NewReader(rawID))
	decoder.UseNumber()
	var id interface{}
	if err := decoder.Decode(&id); err != nil {
		return "", false
	}
	switch v := id.(type) {
	case json.Number:
		if f, _ := strconv.ParseFloat(v.String(), 64); f == 0 {
			return "", false
		}
		return CWE(v.String()), true
	case string:
		if v == "" {
			return "", false
		}
		return CWE("'" + v + "'"), true
	default:
		return "", false
	}
}

// sortCWEs orders numeric ids by value first, then string ids lexically.
func sortCWEs(cwes []CWE) {
	sort.Slice(cwes, func(i, j int) bool {
		ni, iNum := numericValue(cwes[i])
		nj, jNum := numericValue(cwes[j])
		switch {
		case iNum && jNum:
			if ni == nj {
				return cwes[i] < cwes[j]
			}
			return ni < nj
		case iNum != jNum:
			return iNum
		default:
			return cwes[i] < cwes[j]
		}
	})
}

func numericValue(c CWE) (float64, bool) {
	if strings.HasPrefix(string(c), "'") {
		return 0, false
	}
	// json numbers always parse, out of range values come back as ±Inf
	f, _ := strconv.ParseFloat(string(c), 64)
	return f, true
}
