// Package churn computes per-file code-churn metrics from a project's
// version-control history, per spec.md §4.6. Rather than shelling out to
// `git log` and parsing a pipe-delimited format, it walks history through
// pkg/gitlib's libgit2 bindings directly: the same "machine-readable
// commit stream" contract spec.md §4.6/§6 describes, just sourced from
// git2go instead of a subprocess.
package churn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	git2go "github.com/libgit2/git2go/v34"

	"github.com/latticeforge/deepscan/pkg/alg/stats"
	"github.com/latticeforge/deepscan/pkg/errs"
	"github.com/latticeforge/deepscan/pkg/gitlib"
	"github.com/latticeforge/deepscan/pkg/identity"
)

// commitWeight and changeWeight are the churn_score mixing coefficients
// from spec.md §3: `0.6*normalized_commits + 0.4*normalized_changes`.
const (
	commitWeight = 0.6
	changeWeight = 0.4
)

// FileChurn is one file's aggregated churn result, per spec.md §3.
type FileChurn struct {
	Path          string
	RelativePath  string
	CommitCount   int
	UniqueAuthors []string
	Additions     int
	Deletions     int
	ChurnScore    float64
	FirstSeen     time.Time
	LastModified  time.Time
}

// Summary rolls up the project-wide churn totals spec.md §4.6's
// `CodeChurnAnalysis.summary` field names.
type Summary struct {
	TotalCommits    int
	TotalFiles      int
	TotalAdditions  int
	TotalDeletions  int
	UniqueAuthors   int
	MostChangedFile string
}

// Analysis is the churn analyzer's top-level result, matching spec.md
// §4.6's `CodeChurnAnalysis` shape.
type Analysis struct {
	GeneratedAt     time.Time
	PeriodDays      int
	RepositoryRoot  string
	Files           []FileChurn
	Summary         Summary
}

// fileAgg is the mutable accumulator for one file across the whole walk,
// converted to a FileChurn (with churn_score filled in) once every commit
// has been visited and the project-wide maxima are known.
type fileAgg struct {
	commitCount int
	authors     map[string]bool
	additions   int
	deletions   int
	firstSeen   time.Time
	lastSeen    time.Time
}

// Analyze walks root's commit history over the last periodDays and
// aggregates per-file churn metrics. Per spec.md §4.6, an empty
// repository (zero commits, including a freshly `git init`-ed one with
// no HEAD yet) yields an empty file list rather than an error; any other
// VCS failure is returned as errs.ErrVCSUnavailable.
func Analyze(ctx context.Context, root string, periodDays int) (*Analysis, error) {
	result := &Analysis{
		GeneratedAt:    time.Now(),
		PeriodDays:     periodDays,
		RepositoryRoot: root,
		Files:          []FileChurn{},
	}

	repo, err := gitlib.OpenRepository(root)
	if err != nil {
		return nil, fmt.Errorf("%w: open repository: %w", errs.ErrVCSUnavailable, err)
	}
	defer repo.Free()

	since := time.Now().AddDate(0, 0, -periodDays)

	iter, err := repo.Log(&gitlib.LogOptions{Since: &since})
	if err != nil {
		if isUnbornBranch(err) {
			return result, nil
		}

		return nil, fmt.Errorf("%w: list commits: %w", errs.ErrVCSUnavailable, err)
	}
	defer iter.Close()

	agg := make(map[string]*fileAgg)

	totalCommits, err := walkCommits(ctx, repo, iter, agg)
	if err != nil {
		return nil, fmt.Errorf("%w: walk history: %w", errs.ErrVCSUnavailable, err)
	}

	result.Files = buildFileChurns(agg)
	result.Summary = buildSummary(totalCommits, result.Files)

	return result, nil
}

// walkCommits iterates commits oldest-first is not required here (churn
// aggregation is order-independent); it diffs each commit against its
// first parent (or the empty tree for a root commit) and folds per-file
// line deltas into agg.
func walkCommits(ctx context.Context, repo *gitlib.Repository, iter *gitlib.CommitIter, agg map[string]*fileAgg) (int, error) {
	count := 0

	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}

		commit, err := iter.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return count, nil
			}

			return count, err
		}

		count++

		if diffErr := accumulateCommit(repo, commit, agg); diffErr != nil {
			commit.Free()

			return count, diffErr
		}

		commit.Free()
	}
}

func accumulateCommit(repo *gitlib.Repository, commit *gitlib.Commit, agg map[string]*fileAgg) error {
	newTree, err := commit.Tree()
	if err != nil {
		return fmt.Errorf("commit tree: %w", err)
	}
	defer newTree.Free()

	var oldTree *gitlib.Tree

	if commit.NumParents() > 0 {
		parent, parentErr := commit.Parent(0)
		if parentErr != nil {
			return fmt.Errorf("parent commit: %w", parentErr)
		}
		defer parent.Free()

		oldTree, err = parent.Tree()
		if err != nil {
			return fmt.Errorf("parent tree: %w", err)
		}
		defer oldTree.Free()
	}

	diff, err := repo.DiffTreeToTree(oldTree, newTree)
	if err != nil {
		return fmt.Errorf("diff trees: %w", err)
	}
	defer diff.Free()

	when := commit.Author().When
	author := commit.Author().Email

	if author == "" {
		author = commit.Author().Name
	}

	if author == "" {
		author = identity.Unknown
	}

	perFile, err := perFileLineDeltas(diff)
	if err != nil {
		return err
	}

	for path, delta := range perFile {
		a, ok := agg[path]
		if !ok {
			a = &fileAgg{authors: make(map[string]bool), firstSeen: when, lastSeen: when}
			agg[path] = a
		}

		a.commitCount++
		a.authors[author] = true
		a.additions += delta.additions
		a.deletions += delta.deletions

		if when.Before(a.firstSeen) {
			a.firstSeen = when
		}

		if when.After(a.lastSeen) {
			a.lastSeen = when
		}
	}

	return nil
}

type lineDelta struct {
	additions int
	deletions int
}

// perFileLineDeltas walks diff at line granularity, tallying additions
// and deletions per new-side file path (falling back to the old-side
// path for pure deletions), mirroring gitlib.DiffBlobs' line-callback
// coalescing but folded across every delta in the tree-to-tree diff
// rather than a single blob pair.
func perFileLineDeltas(diff *gitlib.Diff) (map[string]lineDelta, error) {
	result := make(map[string]lineDelta)

	var currentPath string

	fileCallback := func(delta gitlib.DiffDelta, _ float64) (git2go.DiffForEachHunkCallback, error) {
		currentPath = delta.NewFile.Path
		if currentPath == "" {
			currentPath = delta.OldFile.Path
		}

		if _, ok := result[currentPath]; !ok {
			result[currentPath] = lineDelta{}
		}

		lineCallback := func(line git2go.DiffLine) error {
			d := result[currentPath]

			switch line.Origin {
			case git2go.DiffLineAddition:
				d.additions++
			case git2go.DiffLineDeletion:
				d.deletions++
			default:
			}

			result[currentPath] = d

			return nil
		}

		hunkCallback := func(_ git2go.DiffHunk) (git2go.DiffForEachLineCallback, error) {
			return lineCallback, nil
		}

		return hunkCallback, nil
	}

	if err := diff.ForEach(fileCallback, git2go.DiffDetailLines); err != nil {
		return nil, fmt.Errorf("walk diff lines: %w", err)
	}

	return result, nil
}

func buildFileChurns(agg map[string]*fileAgg) []FileChurn {
	if len(agg) == 0 {
		return []FileChurn{}
	}

	maxCommits := 0
	maxChanges := 0

	for _, a := range agg {
		if a.commitCount > maxCommits {
			maxCommits = a.commitCount
		}

		changes := a.additions + a.deletions
		if changes > maxChanges {
			maxChanges = changes
		}
	}

	files := make([]FileChurn, 0, len(agg))

	for path, a := range agg {
		authors := make([]string, 0, len(a.authors))
		for author := range a.authors {
			authors = append(authors, author)
		}

		sort.Strings(authors)

		normCommits := safeDiv(float64(a.commitCount), float64(maxCommits))
		normChanges := safeDiv(float64(a.additions+a.deletions), float64(maxChanges))
		score := stats.Clamp(commitWeight*normCommits+changeWeight*normChanges, 0.0, 1.0)

		files = append(files, FileChurn{
			Path:          path,
			RelativePath:  filepath.ToSlash(path),
			CommitCount:   a.commitCount,
			UniqueAuthors: authors,
			Additions:     a.additions,
			Deletions:     a.deletions,
			ChurnScore:    score,
			FirstSeen:     a.firstSeen,
			LastModified:  a.lastSeen,
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	return files
}

func safeDiv(num, denom float64) float64 {
	if denom == 0 {
		return 0
	}

	return num / denom
}

func buildSummary(totalCommits int, files []FileChurn) Summary {
	summary := Summary{TotalCommits: totalCommits, TotalFiles: len(files)}

	authors := make(map[string]bool)

	mostChanges := -1

	for _, f := range files {
		summary.TotalAdditions += f.Additions
		summary.TotalDeletions += f.Deletions

		for _, a := range f.UniqueAuthors {
			authors[a] = true
		}

		changes := f.Additions + f.Deletions
		if changes > mostChanges {
			mostChanges = changes
			summary.MostChangedFile = f.Path
		}
	}

	summary.UniqueAuthors = len(authors)

	return summary
}

// isUnbornBranch reports whether err is libgit2's "HEAD has no commits
// yet" condition (a fresh `git init` with nothing committed), the one
// VCS failure spec.md §4.6 says must produce an empty result rather than
// an error.
func isUnbornBranch(err error) bool {
	return git2go.IsErrorCode(err, git2go.ErrorCodeUnbornBranch)
}
