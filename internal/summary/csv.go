package summary

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/codeready-toolchain/toolchain-cicd/bandit-summary/internal/bandit"
)

// Header lists the CSV columns, in order
var Header = []string{
	"high_conf",
	"med_conf",
	"low_conf",
	"high_sev",
	"med_sev",
	"low_sev",
	"unique_cwes",
	"total_unique_cwes",
	"repo",
	"commit",
}

// WriteCSV writes the header row then one row per summary, in the given order
func WriteCSV(path string, summaries []*bandit.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return err
	}
	for _, s := range summaries {
		if err := w.Write(record(s)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func record(s *bandit.Summary) []string {
	return []string{
		strconv.Itoa(s.HighConf),
		strconv.Itoa(s.MedConf),
		strconv.Itoa(s.LowConf),
		strconv.Itoa(s.HighSev),
		strconv.Itoa(s.MedSev),
		strconv.Itoa(s.LowSev),
		bandit.FormatCWEs(s.UniqueCWEs),
		strconv.Itoa(s.TotalUniqueCWEs),
		s.Repo,
		s.Commit,
	}
}
