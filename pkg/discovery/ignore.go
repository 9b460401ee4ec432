package discovery

import (
	"bufio"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
)

// ignoreFileNames are read in order; later files' negations can re-include
// a path an earlier file excluded, matching git's own precedence.
var ignoreFileNames = []string{".gitignore", ".paimlignore"}

// ignoreRule is one parsed line from a `.gitignore`-style file.
type ignoreRule struct {
	pattern  string
	negate   bool
	dirOnly  bool
	anchored bool
}

// IgnoreSet holds every ignore rule collected from every `.gitignore`/
// `.paimlignore` file found while walking the tree, each scoped to the
// directory it was found in.
type IgnoreSet struct {
	rules []scopedRule
}

type scopedRule struct {
	dir string
	ignoreRule
}

// loadIgnoreSets walks fsys up front looking for ignore files, so Walk's
// main pass can consult a single assembled IgnoreSet rather than re-reading
// ignore files on every directory entry.
func loadIgnoreSets(fsys fs.FS) *IgnoreSet {
	set := &IgnoreSet{}

	_ = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil //nolint:nilerr // a missing/unreadable ignore file just means no extra rules.
		}

		name := filepath.Base(path)

		for _, ignoreName := range ignoreFileNames {
			if name == ignoreName {
				dir := filepath.Dir(path)
				if dir == "." {
					dir = ""
				}

				f, openErr := fsys.Open(path)
				if openErr != nil {
					return nil
				}

				set.rules = append(set.rules, parseIgnoreFile(dir, f)...)

				_ = f.Close()

				break
			}
		}

		return nil
	})

	return set
}

// parseIgnoreFile parses `#`-commented, `!`-negated, line-based glob
// patterns per spec.md §6.
func parseIgnoreFile(dir string, r io.Reader) []scopedRule {
	var rules []scopedRule

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rule := ignoreRule{pattern: line}

		if strings.HasPrefix(rule.pattern, "!") {
			rule.negate = true
			rule.pattern = rule.pattern[1:]
		}

		if strings.HasSuffix(rule.pattern, "/") {
			rule.dirOnly = true
			rule.pattern = strings.TrimSuffix(rule.pattern, "/")
		}

		if strings.HasPrefix(rule.pattern, "/") {
			rule.anchored = true
			rule.pattern = strings.TrimPrefix(rule.pattern, "/")
		}

		if rule.pattern == "" {
			continue
		}

		rules = append(rules, scopedRule{dir: dir, ignoreRule: rule})
	}

	return rules
}

// Match reports whether path should be ignored. Rules are evaluated in
// file order; the last matching rule (negated or not) wins, matching
// gitignore's "last match wins" semantics.
func (s *IgnoreSet) Match(path string) bool {
	ignored := false

	for _, r := range s.rules {
		if r.dirOnly {
			continue
		}

		if ruleMatches(r, path) {
			ignored = !r.negate
		}
	}

	return ignored
}

// MatchDir is Match restricted to directory-only rules (trailing `/`) plus
// plain rules, used by Walk to decide whether to prune a whole subtree.
func (s *IgnoreSet) MatchDir(path string) bool {
	ignored := false

	for _, r := range s.rules {
		if ruleMatches(r, path) {
			ignored = !r.negate
		}
	}

	return ignored
}

func ruleMatches(r scopedRule, path string) bool {
	rel := path
	if r.dir != "" {
		if !strings.HasPrefix(path, r.dir+"/") {
			return false
		}

		rel = strings.TrimPrefix(path, r.dir+"/")
	}

	if r.anchored {
		ok, _ := filepath.Match(r.pattern, rel)

		return ok
	}

	if ok, _ := filepath.Match(r.pattern, rel); ok {
		return true
	}

	if ok, _ := filepath.Match(r.pattern, filepath.Base(rel)); ok {
		return true
	}

	// Allow a bare directory-name pattern to match anywhere in the path,
	// e.g. "build" ignoring "sub/build/out.js".
	for _, segment := range strings.Split(rel, "/") {
		if ok, _ := filepath.Match(r.pattern, segment); ok {
			return true
		}
	}

	return false
}
