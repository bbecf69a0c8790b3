package history

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// minPrefixLen is the shortest abbreviated hash a report may be named after
const minPrefixLen = 7

// ByHistory orders the given commits (report filename stems) from the oldest
// to the newest commit reachable from HEAD in the git repository at repoDir.
// A stem matches a commit when it is the full hash or an abbreviation of at
// least 7 characters. Stems without a matching commit keep their relative
// order and come after all matched ones.
func ByHistory(repoDir string, commits []string) ([]string, error) {
	hashes, err := log(repoDir)
	if err != nil {
		return nil, err
	}

	position := make(map[string]int, len(commits))
	for _, c := range commits {
		if i, ok := find(hashes, c); ok {
			position[c] = i
		}
	}

	ordered := make([]string, len(commits))
	copy(ordered, commits)
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, iFound := position[ordered[i]]
		pj, jFound := position[ordered[j]]
		switch {
		case iFound && jFound:
			return pi < pj
		default:
			return iFound && !jFound
		}
	})
	return ordered, nil
}

// log returns the hashes of the commits reachable from HEAD, oldest first
func log(repoDir string) ([]string, error) {
	repo, err := git.PlainOpen(repoDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository %s: %w", repoDir, err)
	}
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD of %s: %w", repoDir, err)
	}
	iter, err := repo.Log(&git.LogOptions{
		From:  head.Hash(),
		Order: git.LogOrderCommitterTime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read the history of %s: %w", repoDir, err)
	}
	defer iter.Close()

	var hashes []string
	if err := iter.ForEach(func(c *object.Commit) error {
		hashes = append(hashes, c.Hash.String())
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to read the history of %s: %w", repoDir, err)
	}
	// the log is newest first
	for i, j := 0, len(hashes)-1; i < j; i, j = i+1, j-1 {
		hashes[i], hashes[j] = hashes[j], hashes[i]
	}
	return hashes, nil
}

func find(hashes []string, commit string) (int, bool) {
	commit = strings.ToLower(commit)
	if len(commit) < minPrefixLen {
		return 0, false
	}
	for i, h := range hashes {
		if strings.HasPrefix(h, commit) {
			return i, true
		}
	}
	return 0, false
}
