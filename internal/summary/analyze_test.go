package summary_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codeready-toolchain/toolchain-cicd/bandit-summary/internal/configuration"
	"github.com/codeready-toolchain/toolchain-cicd/bandit-summary/internal/history"
	"github.com/codeready-toolchain/toolchain-cicd/bandit-summary/internal/summary"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const xssReport = `{"results": [{"issue_confidence": "HIGH", "issue_severity": "LOW", "issue_cwe": {"id": 79}}]}`

func TestAnalyze(t *testing.T) {

	t.Run("one row per report in filename order", func(t *testing.T) {
		// given
		config := newConfiguration(t)
		writeReports(t, config, "pwntools", map[string]string{
			"bbb222.json": xssReport,
			"aaa111.json": xssReport,
		})
		logger, logs := newLogger()
		// when
		output, err := summary.Analyze(context.Background(), logger, config, summary.ByName, "pwntools")
		// then
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(config.OutputFolder, "pwntools_bandit_summary.csv"), output)
		assert.Equal(t, `high_conf,med_conf,low_conf,high_sev,med_sev,low_sev,unique_cwes,total_unique_cwes,repo,commit
1,0,0,0,0,1,[79],1,pwntools,aaa111
1,0,0,0,0,1,[79],1,pwntools,bbb222
`, readFile(t, output))
		assert.Equal(t, 1, logs.FilterMessage("processing repository").Len())
		assert.Equal(t, 1, logs.FilterMessage("analysis complete").FilterField(zap.String("output", output)).Len())
	})

	t.Run("several cwes", func(t *testing.T) {
		// given
		config := newConfiguration(t)
		writeReports(t, config, "hosts", map[string]string{
			"c0ffee.json": `{"results": [
				{"issue_confidence": "MEDIUM", "issue_severity": "MEDIUM", "issue_cwe": {"id": 89}},
				{"issue_confidence": "high", "issue_severity": "high", "issue_cwe": {"id": 78}},
				{"issue_confidence": "LOW", "issue_severity": "LOW"}
			]}`,
		})
		logger, _ := newLogger()
		// when
		output, err := summary.Analyze(context.Background(), logger, config, summary.ByName, "hosts")
		// then
		require.NoError(t, err)
		assert.Equal(t, `high_conf,med_conf,low_conf,high_sev,med_sev,low_sev,unique_cwes,total_unique_cwes,repo,commit
1,1,1,1,1,1,"[78, 89]",2,hosts,c0ffee
`, readFile(t, output))
	})

	t.Run("report without results", func(t *testing.T) {
		// given
		config := newConfiguration(t)
		writeReports(t, config, "hosts", map[string]string{
			"a1b2c3.json": `{"errors": [], "results": []}`,
		})
		logger, _ := newLogger()
		// when
		output, err := summary.Analyze(context.Background(), logger, config, summary.ByName, "hosts")
		// then
		require.NoError(t, err)
		assert.Equal(t, `high_conf,med_conf,low_conf,high_sev,med_sev,low_sev,unique_cwes,total_unique_cwes,repo,commit
0,0,0,0,0,0,[],0,hosts,a1b2c3
`, readFile(t, output))
	})

	t.Run("missing reports directory", func(t *testing.T) {
		// given
		config := newConfiguration(t)
		logger, logs := newLogger()
		// when
		output, err := summary.Analyze(context.Background(), logger, config, summary.ByName, "ArchieveBox")
		// then
		require.NoError(t, err)
		assert.Empty(t, output)
		assert.NoFileExists(t, summary.OutputPath(config, "ArchieveBox"))
		assert.Equal(t, 1, logs.FilterMessage("no bandit reports found, skipping").Len())
	})

	t.Run("empty reports directory", func(t *testing.T) {
		// given
		config := newConfiguration(t)
		writeReports(t, config, "ArchieveBox", nil)
		logger, logs := newLogger()
		ordered := false
		order := func(_ string, commits []string) ([]string, error) {
			ordered = true
			return commits, nil
		}
		// when
		output, err := summary.Analyze(context.Background(), logger, config, order, "ArchieveBox")
		// then
		require.NoError(t, err)
		assert.Empty(t, output)
		assert.False(t, ordered)
		assert.NoFileExists(t, summary.OutputPath(config, "ArchieveBox"))
		assert.Equal(t, 1, logs.FilterMessage("no valid bandit reports processed").Len())
	})

	t.Run("malformed report", func(t *testing.T) {
		// given
		config := newConfiguration(t)
		writeReports(t, config, "pwntools", map[string]string{
			"aaa111.json": xssReport,
			"bbb222.json": `{"results": [`,
		})
		logger, _ := newLogger()
		// when
		_, err := summary.Analyze(context.Background(), logger, config, summary.ByName, "pwntools")
		// then
		path := filepath.Join(config.Root, "pwntools", "bandit_reports", "bbb222.json")
		require.EqualError(t, err, fmt.Sprintf("failed to parse report %s: error decoding JSON: unexpected end of JSON input", path))
		assert.NoFileExists(t, summary.OutputPath(config, "pwntools"))
	})

	t.Run("custom order", func(t *testing.T) {
		// given
		config := newConfiguration(t)
		writeReports(t, config, "pwntools", map[string]string{
			"aaa111.json": xssReport,
			"bbb222.json": `{"results": []}`,
		})
		logger, _ := newLogger()
		var repoDir string
		reverse := func(dir string, commits []string) ([]string, error) {
			repoDir = dir
			return []string{commits[1], commits[0]}, nil
		}
		// when
		output, err := summary.Analyze(context.Background(), logger, config, reverse, "pwntools")
		// then
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(config.Root, "pwntools"), repoDir)
		assert.Equal(t, `high_conf,med_conf,low_conf,high_sev,med_sev,low_sev,unique_cwes,total_unique_cwes,repo,commit
0,0,0,0,0,0,[],0,pwntools,bbb222
1,0,0,0,0,1,[79],1,pwntools,aaa111
`, readFile(t, output))
	})

	t.Run("order failure", func(t *testing.T) {
		// given
		config := newConfiguration(t)
		writeReports(t, config, "pwntools", map[string]string{"aaa111.json": xssReport})
		logger, _ := newLogger()
		order := func(string, []string) ([]string, error) {
			return nil, fmt.Errorf("mock error")
		}
		// when
		_, err := summary.Analyze(context.Background(), logger, config, order, "pwntools")
		// then
		require.EqualError(t, err, "failed to order reports of pwntools: mock error")
	})

	t.Run("git order", func(t *testing.T) {
		// given
		config := newConfiguration(t)
		repoDir := filepath.Join(config.Root, "pwntools")
		hashes := commitTwice(t, repoDir)
		writeReports(t, config, "pwntools", map[string]string{
			// sorts first by filename but matches no commit
			"0-unknown.json":        `{"results": []}`,
			hashes[0] + ".json":     xssReport,
			hashes[1][:7] + ".json": `{"results": []}`,
		})
		logger, _ := newLogger()
		// when
		output, err := summary.Analyze(context.Background(), logger, config, history.ByHistory, "pwntools")
		// then
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf(`high_conf,med_conf,low_conf,high_sev,med_sev,low_sev,unique_cwes,total_unique_cwes,repo,commit
1,0,0,0,0,1,[79],1,pwntools,%s
0,0,0,0,0,0,[],0,pwntools,%s
0,0,0,0,0,0,[],0,pwntools,0-unknown
`, hashes[0], hashes[1][:7]), readFile(t, output))
	})

	t.Run("cancelled", func(t *testing.T) {
		// given
		config := newConfiguration(t)
		writeReports(t, config, "pwntools", map[string]string{"aaa111.json": xssReport})
		logger, _ := newLogger()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		// when
		_, err := summary.Analyze(ctx, logger, config, summary.ByName, "pwntools")
		// then
		require.ErrorIs(t, err, context.Canceled)
	})
}

func newConfiguration(t *testing.T) configuration.Configuration {
	t.Helper()
	dir := t.TempDir()
	config := configuration.Default()
	config.Root = filepath.Join(dir, "repositories")
	config.OutputFolder = filepath.Join(dir, "individual_repository_level_analysis")
	require.NoError(t, os.MkdirAll(config.Root, 0o755))
	require.NoError(t, os.MkdirAll(config.OutputFolder, 0o755))
	return config
}

func writeReports(t *testing.T, config configuration.Configuration, repository string, reports map[string]string) {
	t.Helper()
	dir := filepath.Join(config.Root, repository, config.ReportsDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, content := range reports {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

func newLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(contents)
}

// commitTwice initializes a git repository with two commits and returns their
// hashes, oldest first
func commitTwice(t *testing.T, dir string) []string {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	hashes := []string{}
	for i, content := range []string{"import os\n", "import subprocess\n"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte(content), 0o644))
		_, err := wt.Add("main.py")
		require.NoError(t, err)
		hash, err := wt.Commit("update main.py", &git.CommitOptions{
			Author: &object.Signature{Name: "dev", Email: "dev@example.com", When: start.Add(time.Duration(i) * time.Hour)},
		})
		require.NoError(t, err)
		hashes = append(hashes, hash.String())
	}
	return hashes
}
