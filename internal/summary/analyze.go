package summary

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codeready-toolchain/toolchain-cicd/bandit-summary/internal/bandit"
	"github.com/codeready-toolchain/toolchain-cicd/bandit-summary/internal/configuration"
	"go.uber.org/zap"
)

const reportSuffix = ".json"

// OrderFunc orders the commits of a repository, given as the stems of its
// report filenames in filename order.
type OrderFunc func(repoDir string, commits []string) ([]string, error)

// ByName keeps the filename order, which assumes that report filenames sort
// chronologically.
var ByName OrderFunc = func(_ string, commits []string) ([]string, error) {
	return commits, nil
}

// OutputPath returns the path of the summary CSV of the given repository
func OutputPath(config configuration.Configuration, repository string) string {
	return filepath.Join(config.OutputFolder, repository+"_bandit_summary.csv")
}

// Analyze summarizes every report of the given repository into a CSV file and
// returns its path. An empty path with no error means that there was nothing
// to summarize: either the repository has no reports directory or the
// directory is empty.
func Analyze(ctx context.Context, logger *zap.Logger, config configuration.Configuration, order OrderFunc, repository string) (string, error) {
	logger = logger.With(zap.String("repository", repository))
	logger.Info("processing repository")

	repoDir := filepath.Join(config.Root, repository)
	reportsPath := filepath.Join(repoDir, config.ReportsDir)
	if _, err := os.Stat(reportsPath); errors.Is(err, fs.ErrNotExist) {
		logger.Info("no bandit reports found, skipping", zap.String("path", reportsPath))
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("failed to check reports of %s: %w", repository, err)
	}

	entries, err := os.ReadDir(reportsPath)
	if err != nil {
		return "", fmt.Errorf("failed to list reports of %s: %w", repository, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	commits := make([]string, 0, len(names))
	filenames := make(map[string][]string, len(names))
	for _, name := range names {
		commit := strings.TrimSuffix(name, reportSuffix)
		commits = append(commits, commit)
		filenames[commit] = append(filenames[commit], name)
	}
	if len(commits) > 0 {
		if commits, err = order(repoDir, commits); err != nil {
			return "", fmt.Errorf("failed to order reports of %s: %w", repository, err)
		}
	}

	summaries := make([]*bandit.Summary, 0, len(commits))
	for _, commit := range commits {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if len(filenames[commit]) == 0 {
			return "", fmt.Errorf("no report left for commit '%s' of %s", commit, repository)
		}
		name := filenames[commit][0]
		filenames[commit] = filenames[commit][1:]

		path := filepath.Join(reportsPath, name)
		s, err := bandit.ParseReportFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to parse report %s: %w", path, err)
		}
		s.Repo = repository
		s.Commit = commit
		logger.Debug("report parsed", zap.String("commit", commit), zap.Int("unique-cwes", s.TotalUniqueCWEs))
		summaries = append(summaries, s)
	}

	if len(summaries) == 0 {
		logger.Info("no valid bandit reports processed")
		return "", nil
	}

	output := OutputPath(config, repository)
	if err := WriteCSV(output, summaries); err != nil {
		return "", fmt.Errorf("failed to write summary %s: %w", output, err)
	}
	logger.Info("analysis complete", zap.String("output", output), zap.Int("commits", len(summaries)))
	return output, nil
}
