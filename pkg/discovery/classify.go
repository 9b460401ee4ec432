package discovery

import (
	"bufio"
	"bytes"
	"errors"
	"strings"

	"github.com/src-d/enry/v2"

	"github.com/latticeforge/deepscan/pkg/langparse"
)

// Decision is the outcome of classifying one discovered path.
type Decision int

const (
	// DecisionParse means the pipeline should hand this path to the
	// parser registry.
	DecisionParse Decision = iota
	// DecisionSkip means the pipeline should not parse this path; Reason
	// explains why.
	DecisionSkip
)

// SkipReason explains a DecisionSkip, per spec.md §4.1.
type SkipReason int

const (
	// SkipReasonNone is the zero value, paired with DecisionParse.
	SkipReasonNone SkipReason = iota
	SkipReasonLargeFile
	SkipReasonMinifiedContent
	SkipReasonVendorDirectory
	SkipReasonLineTooLong
	SkipReasonUnknownExtension
)

// String renders the SkipReason for report warnings.
func (r SkipReason) String() string {
	switch r {
	case SkipReasonLargeFile:
		return "LargeFile"
	case SkipReasonMinifiedContent:
		return "MinifiedContent"
	case SkipReasonVendorDirectory:
		return "VendorDirectory"
	case SkipReasonLineTooLong:
		return "LineTooLong"
	case SkipReasonUnknownExtension:
		return "UnknownExtension"
	default:
		return "None"
	}
}

// classify applies the size ceiling and the unknown-extension / vendor /
// minified-name heuristics that don't require reading file content. The
// content-aware checks (binary, generated, LineTooLong) live in
// ClassifyContent for a caller that already holds the bytes; Walk never
// opens a file and does not call it, and neither does the analysis
// pipeline.
func classify(path string, size int64, opts Options) Finding {
	if size > opts.MaxFileSize {
		return Finding{Path: path, Decision: DecisionSkip, Reason: SkipReasonLargeFile, Size: size}
	}

	if isVendorPath(path) {
		return Finding{Path: path, Decision: DecisionSkip, Reason: SkipReasonVendorDirectory, Size: size}
	}

	if looksMinifiedByName(path) {
		return Finding{Path: path, Decision: DecisionSkip, Reason: SkipReasonMinifiedContent, Size: size}
	}

	if langparse.LanguageForPath(path) == langparse.LangUnknown {
		return Finding{Path: path, Decision: DecisionSkip, Reason: SkipReasonUnknownExtension, Size: size}
	}

	return Finding{Path: path, Decision: DecisionParse, Size: size}
}

// ClassifyContent re-checks a Finding once its bytes are available,
// catching LineTooLong and content-based minification that a name/size-only
// pass cannot. It never downgrades a Skip into a Parse.
func ClassifyContent(f Finding, content []byte) Finding {
	if f.Decision == DecisionSkip {
		return f
	}

	if enry.IsBinary(content) {
		return Finding{Path: f.Path, Decision: DecisionSkip, Reason: SkipReasonUnknownExtension, Size: f.Size}
	}

	if enry.IsVendor(f.Path) || enry.IsGenerated(f.Path, content) {
		return Finding{Path: f.Path, Decision: DecisionSkip, Reason: SkipReasonVendorDirectory, Size: f.Size}
	}

	if longestLine(content) > DefaultMaxLineLength {
		return Finding{Path: f.Path, Decision: DecisionSkip, Reason: SkipReasonLineTooLong, Size: f.Size}
	}

	return f
}

func longestLine(content []byte) int {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), DefaultMaxLineLength*4)

	longest := 0

	for scanner.Scan() {
		if n := len(scanner.Bytes()); n > longest {
			longest = n
		}
	}

	// A line past the scanner's buffer cap ends the scan with ErrTooLong;
	// report it as longer than that cap rather than dropping it.
	if errors.Is(scanner.Err(), bufio.ErrTooLong) {
		return DefaultMaxLineLength*4 + 1
	}

	return longest
}

func isVendorPath(path string) bool {
	parts := strings.Split(path, "/")
	for _, p := range parts[:len(parts)-1] {
		if isArtifactDir(p) {
			return true
		}
	}

	return enry.IsVendor(path)
}

// looksMinifiedByName flags the two filename conventions spec.md §4.1 names
// explicitly (*.min.js, *.min.css) without opening the file.
func looksMinifiedByName(path string) bool {
	base := path
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		base = path[idx+1:]
	}

	return strings.HasSuffix(base, ".min.js") || strings.HasSuffix(base, ".min.css")
}

// DetectLanguage tags a file with its enry-detected language name, used for
// report metadata and cross_language_refs rather than parser dispatch
// (pkg/langparse.LanguageForPath owns that decision for the six first-class
// languages this module actually parses).
func DetectLanguage(path string, content []byte) string {
	return enry.GetLanguage(baseName(path), content)
}

func baseName(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}

	return path
}
