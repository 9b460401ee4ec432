// Package tdg computes the Technical Debt Gradient score spec.md §4.7
// describes: a weighted combination of complexity, churn, coupling,
// domain risk and duplication into a single per-file severity signal.
//
// Percentile normalization reuses pkg/alg/stats.Percentile/Clamp, the
// same percentile machinery pkg/churn and the complexity distribution
// report already depend on. Duplication detection reuses
// pkg/alg/minhash + pkg/alg/lsh, the pack's near-duplicate-detection
// stack, rather than a bespoke token-shingling comparator, refined by an
// exact pkg/alg/levenshtein pass and a sergi/go-diff line-mode diff pass
// over each match's token preview.
package tdg

import (
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/latticeforge/deepscan/pkg/alg/levenshtein"
	"github.com/latticeforge/deepscan/pkg/alg/lsh"
	"github.com/latticeforge/deepscan/pkg/alg/minhash"
	"github.com/latticeforge/deepscan/pkg/alg/stats"
)

// Severity buckets a file's TDG value, per spec.md §4.7.
type Severity int

const (
	SeverityNormal Severity = iota
	SeverityWarning
	SeverityCritical
)

// String renders Severity for reports and SARIF level mapping.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "Warning"
	case SeverityCritical:
		return "Critical"
	default:
		return "Normal"
	}
}

// Severity thresholds, per spec.md §4.7: "<1.5 Normal, 1.5..=2.5 Warning, >2.5 Critical".
const (
	WarningThreshold  = 1.5
	CriticalThreshold = 2.5
)

func severityFor(value float64) Severity {
	switch {
	case value > CriticalThreshold:
		return SeverityCritical
	case value >= WarningThreshold:
		return SeverityWarning
	default:
		return SeverityNormal
	}
}

// Weights are the TDG component weights, validated to sum to 1.0 within
// 1e-12 per spec.md §8 Testable Property 4.
type Weights struct {
	Complexity float64
	Churn      float64
	Coupling   float64
	DomainRisk float64
	Duplicate  float64
}

// DefaultWeights are spec.md §4.7's stated defaults: (0.30, 0.35, 0.15, 0.10, 0.10).
var DefaultWeights = Weights{
	Complexity: 0.30,
	Churn:      0.35,
	Coupling:   0.15,
	DomainRisk: 0.10,
	Duplicate:  0.10,
}

const weightSumTolerance = 1e-9

// Validate reports whether w's components sum to 1.0 within tolerance,
// the construction-time invariant spec.md §3/§8 requires of any TDG
// configuration actually used.
func (w Weights) Validate() bool {
	sum := w.Complexity + w.Churn + w.Coupling + w.DomainRisk + w.Duplicate

	diff := sum - 1.0
	if diff < 0 {
		diff = -diff
	}

	return diff <= weightSumTolerance
}

// Components holds each raw (pre-normalization) metric value that feeds
// one file's score, plus its identity and derived signals (duplication
// candidates) needed to build the final Score.
type Components struct {
	FilePath      string
	Complexity    float64 // e.g. a file's total or max cyclomatic complexity.
	Churn         float64 // churn.FileChurn.ChurnScore or an equivalent raw measure.
	Coupling      float64 // fan-in + fan-out from the dependency graph.
	DomainRisk    float64 // caller-supplied weighting for security/critical-path files.
	Duplication   float64 // fraction of the file's tokens found in a near-duplicate elsewhere.
}

// Score is one file's TDG result, per spec.md §3's `TDGScore`.
type Score struct {
	FilePath   string
	Value      float64
	Complexity float64
	Churn      float64
	Coupling   float64
	DomainRisk float64
	Duplicate  float64
	Severity   Severity
	Percentile float64
	Confidence int
}

// maxNormalizedComponent is the clamp ceiling spec.md §4.7 states: "clamped to [0, 5]".
const maxNormalizedComponent = 5.0

// ComputeScores computes every file's TDGScore from its raw Components,
// using the project's 95th-percentile value per metric as the
// normalization denominator (spec.md §4.7: "the file's metric divided by
// the project's 95th-percentile value for that metric"). weights must
// already satisfy Weights.Validate(); ComputeScores does not re-validate them.
func ComputeScores(files []Components, weights Weights) []ScoreResult {
	if len(files) == 0 {
		return nil
	}

	complexities := extract(files, func(c Components) float64 { return c.Complexity })
	churns := extract(files, func(c Components) float64 { return c.Churn })
	couplings := extract(files, func(c Components) float64 { return c.Coupling })
	domains := extract(files, func(c Components) float64 { return c.DomainRisk })
	dups := extract(files, func(c Components) float64 { return c.Duplication })

	p95Complexity := percentileFloor(complexities)
	p95Churn := percentileFloor(churns)
	p95Coupling := percentileFloor(couplings)
	p95Domain := percentileFloor(domains)
	p95Dup := percentileFloor(dups)

	values := make([]float64, 0, len(files))
	scores := make([]ScoreResult, 0, len(files))

	for _, c := range files {
		normComplexity := normalize(c.Complexity, p95Complexity)
		normChurn := normalize(c.Churn, p95Churn)
		normCoupling := normalize(c.Coupling, p95Coupling)
		normDomain := normalize(c.DomainRisk, p95Domain)
		normDup := normalize(c.Duplication, p95Dup)

		value := weights.Complexity*normComplexity +
			weights.Churn*normChurn +
			weights.Coupling*normCoupling +
			weights.DomainRisk*normDomain +
			weights.Duplicate*normDup

		values = append(values, value)

		scores = append(scores, ScoreResult{
			Components: c,
			Value:      value,
		})
	}

	for i := range scores {
		scores[i].Percentile = percentileRank(values, scores[i].Value)
	}

	sort.Slice(scores, func(i, j int) bool { return scores[i].FilePath < scores[j].FilePath })

	return scores
}

// ScoreResult pairs a file's raw Components with its computed value and
// percentile rank, the intermediate shape Finalize converts into a
// public Score once severity/confidence are attached.
type ScoreResult struct {
	Components
	Value      float64
	Percentile float64
}

// Finalize converts a ScoreResult into the public Score shape, attaching
// severity bucketing and a confidence estimate derived from how many
// components had non-zero signal (a file with zero churn data, for
// example, yields a lower-confidence score than one with every component populated).
func Finalize(r ScoreResult) Score {
	return Score{
		FilePath:   r.FilePath,
		Value:      r.Value,
		Complexity: r.Complexity,
		Churn:      r.Churn,
		Coupling:   r.Coupling,
		DomainRisk: r.DomainRisk,
		Duplicate:  r.Duplication,
		Severity:   severityFor(r.Value),
		Percentile: r.Percentile,
		Confidence: confidenceFor(r),
	}
}

func confidenceFor(r ScoreResult) int {
	populated := 0

	for _, v := range []float64{r.Complexity, r.Churn, r.Coupling, r.DomainRisk, r.Duplication} {
		if v > 0 {
			populated++
		}
	}

	return 40 + populated*12 //nolint:mnd // 40 base + up to 60 across 5 components, capped at 100.
}

func extract(files []Components, get func(Components) float64) []float64 {
	out := make([]float64, len(files))
	for i, c := range files {
		out[i] = get(c)
	}

	return out
}

func percentileFloor(values []float64) float64 {
	p95 := stats.Percentile(values, stats.PercentileP95)
	if p95 <= 0 {
		return 1
	}

	return p95
}

func normalize(value, p95 float64) float64 {
	return stats.Clamp(value/p95, 0, maxNormalizedComponent)
}

// percentileRank returns the fraction of values <= target, i.e. target's
// own percentile rank among its peers, used for `TDGScore.percentile`.
func percentileRank(values []float64, target float64) float64 {
	if len(values) == 0 {
		return 0
	}

	atOrBelow := 0

	for _, v := range values {
		if v <= target {
			atOrBelow++
		}
	}

	return float64(atOrBelow) / float64(len(values))
}

// RecommendationType enumerates the remediation category a
// Recommendation targets, per spec.md §4.7.
type RecommendationType int

const (
	ReduceComplexity RecommendationType = iota
	StabilizeChurn
	ReduceCoupling
	AddressDomainRisk
	RemoveDuplication
	SplitFile
	AddTests
)

// String renders RecommendationType for report output.
func (t RecommendationType) String() string {
	switch t {
	case StabilizeChurn:
		return "StabilizeChurn"
	case ReduceCoupling:
		return "ReduceCoupling"
	case AddressDomainRisk:
		return "AddressDomainRisk"
	case RemoveDuplication:
		return "RemoveDuplication"
	case SplitFile:
		return "SplitFile"
	case AddTests:
		return "AddTests"
	default:
		return "ReduceComplexity"
	}
}

// Recommendation is one remediation suggestion for a file above Warning
// severity, per spec.md §4.7.
type Recommendation struct {
	FilePath          string
	Type              RecommendationType
	ExpectedReduction float64
	EstimatedHours    float64
	Priority          int // 1..=5
}

// hoursPerSeverityPoint estimates remediation effort: each point of TDG
// value above the Warning threshold costs roughly this many engineer-hours
// to bring back under it, a coarse but monotonic estimator matching
// spec.md §4.7's "estimated, not proven" framing for expected_reduction/estimated_hours.
const hoursPerSeverityPoint = 4.0

// Recommend builds the recommendation list for every file whose Score is
// above Warning severity, choosing the dominant remediation type from
// whichever normalized component contributed most to the file's value.
func Recommend(scores []ScoreResult, weights Weights) []Recommendation {
	recs := make([]Recommendation, 0)

	for _, s := range scores {
		sev := severityFor(s.Value)
		if sev == SeverityNormal {
			continue
		}

		recType, dominant := dominantComponent(s, weights)

		over := s.Value - WarningThreshold
		if over < 0 {
			over = 0
		}

		recs = append(recs, Recommendation{
			FilePath:          s.FilePath,
			Type:              recType,
			ExpectedReduction: stats.Clamp(dominant*0.5, 0, s.Value), //nolint:mnd // heuristic: tackling the dominant driver halves its contribution.
			EstimatedHours:    over * hoursPerSeverityPoint,
			Priority:          priorityFor(sev, dominant),
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Priority != recs[j].Priority {
			return recs[i].Priority > recs[j].Priority
		}

		return recs[i].FilePath < recs[j].FilePath
	})

	return recs
}

func dominantComponent(s ScoreResult, w Weights) (RecommendationType, float64) {
	contributions := map[RecommendationType]float64{
		ReduceComplexity:  w.Complexity * s.Complexity,
		StabilizeChurn:    w.Churn * s.Churn,
		ReduceCoupling:    w.Coupling * s.Coupling,
		AddressDomainRisk: w.DomainRisk * s.DomainRisk,
		RemoveDuplication: w.Duplicate * s.Duplication,
	}

	best := ReduceComplexity
	bestVal := -1.0

	for _, t := range []RecommendationType{ReduceComplexity, StabilizeChurn, ReduceCoupling, AddressDomainRisk, RemoveDuplication} {
		if contributions[t] > bestVal {
			bestVal = contributions[t]
			best = t
		}
	}

	if s.Coupling > 0 && w.Coupling*s.Coupling == bestVal && s.Complexity > s.Coupling*2 { //nolint:mnd // a file with both high coupling and much higher complexity is better split than decoupled.
		return SplitFile, bestVal
	}

	return best, bestVal
}

func priorityFor(sev Severity, dominantContribution float64) int {
	base := 3
	if sev == SeverityCritical {
		base = 5
	}

	if dominantContribution > 2 { //nolint:mnd // a single component above 2x its weight's normalized range pushes priority up.
		base++
	}

	return stats.Clamp(base, 1, 5)
}

// DuplicationIndex computes a per-file duplication fraction from
// token-shingle MinHash signatures via an LSH index: for each file,
// the highest Jaccard similarity to any other indexed file is used as
// the Duplication component feeding Score, per spec.md §4.7's
// "duplication" metric.
type DuplicationIndex struct {
	index *lsh.Index
	sigs  map[string]*minhash.Signature
	// previews holds a bounded token preview per file, used to refine the
	// MinHash estimate for whichever candidate comes out on top: MinHash/
	// LSH measures set similarity and is blind to token order, so two
	// files sharing vocabulary but structured differently can score a
	// misleadingly high Jaccard estimate. An exact edit-distance pass
	// over the preview catches that case without paying O(n^2) exact
	// comparisons across the whole corpus.
	previews map[string]string
	editCtx  levenshtein.Context
	dmp      *diffmatchpatch.DiffMatchPatch
}

// previewTokenCap bounds how many leading tokens go into a file's
// duplication preview, keeping the edit-distance refinement pass cheap
// regardless of file size.
const previewTokenCap = 64

// NewDuplicationIndex builds an LSH index over numBands*numRows-length
// MinHash signatures (the pack's standard 16x8 = 128-hash configuration).
func NewDuplicationIndex(numBands, numRows int) (*DuplicationIndex, error) {
	idx, err := lsh.New(numBands, numRows)
	if err != nil {
		return nil, err
	}

	return &DuplicationIndex{
		index:    idx,
		sigs:     make(map[string]*minhash.Signature),
		previews: make(map[string]string),
		dmp:      diffmatchpatch.New(),
	}, nil
}

// AddFile tokenizes content into whitespace-delimited shingles, builds a
// MinHash signature, and inserts it under path.
func (d *DuplicationIndex) AddFile(path string, numHashes int, tokens [][]byte) error {
	sig, err := minhash.New(numHashes)
	if err != nil {
		return err
	}

	for _, tok := range tokens {
		sig.Add(tok)
	}

	d.sigs[path] = sig
	d.previews[path] = joinPreview(tokens)

	return d.index.Insert(path, sig)
}

// joinPreview joins tokens one per line rather than space-separated: the
// diffSimilarity pass runs diffmatchpatch in line mode, which treats each
// line as its comparison unit, mirroring the teacher's own
// DiffLinesToRunes/DiffMainRunes usage over real source lines.
func joinPreview(tokens [][]byte) string {
	if len(tokens) > previewTokenCap {
		tokens = tokens[:previewTokenCap]
	}

	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = string(tok)
	}

	return strings.Join(parts, "\n")
}

// DuplicationScore returns the highest near-duplicate estimate between
// path and any other indexed file: the MinHash/LSH Jaccard similarity
// for each candidate, averaged against an exact char-level edit-distance
// similarity and a line-mode diff similarity over the two files'
// previews for whichever candidate comes out on top. The three signals
// catch different cases: Jaccard is blind to token order, char-level
// edit distance is sensitive to every rune, and the line-mode diff
// tracks whole-line moves and reorderings the way a source diff would.
// Returns 0 if path isn't indexed or has no near-duplicate candidates.
func (d *DuplicationIndex) DuplicationScore(path string) float64 {
	sig, ok := d.sigs[path]
	if !ok {
		return 0
	}

	candidates, err := d.index.Query(sig)
	if err != nil {
		return 0
	}

	best := 0.0
	bestCandidate := ""

	for _, candidate := range candidates {
		if candidate == path {
			continue
		}

		other, ok := d.sigs[candidate]
		if !ok {
			continue
		}

		sim, simErr := sig.Similarity(other)
		if simErr != nil {
			continue
		}

		if sim > best {
			best = sim
			bestCandidate = candidate
		}
	}

	if bestCandidate == "" {
		return 0
	}

	blend := (best + d.editSimilarity(path, bestCandidate) + d.diffSimilarity(path, bestCandidate)) / 3

	return stats.Clamp(blend, 0, 1)
}

// editSimilarity returns 1 minus the normalized Levenshtein distance
// between a and b's previews, or best's own Jaccard weight (1, a no-op
// on the blend) when either preview is empty.
func (d *DuplicationIndex) editSimilarity(a, b string) float64 {
	pa, pb := d.previews[a], d.previews[b]
	if pa == "" || pb == "" {
		return 1
	}

	dist := d.editCtx.Distance(pa, pb)

	longer := len([]rune(pa))
	if l := len([]rune(pb)); l > longer {
		longer = l
	}

	if longer == 0 {
		return 1
	}

	return 1 - float64(dist)/float64(longer)
}

// diffSimilarity returns 1 minus the normalized line-mode diff distance
// between a and b's previews, grounded on the teacher's
// fileDiffFromGoDiff pattern (DiffLinesToRunes + DiffMainRunes +
// DiffCleanupSemanticLossless/DiffCleanupMerge) but scored rather than
// rendered: DiffLevenshtein over the cleaned-up diff counts the edits
// needed to turn one file's line sequence into the other's, which a pure
// token-bag comparison like Jaccard cannot see.
func (d *DuplicationIndex) diffSimilarity(a, b string) float64 {
	pa, pb := d.previews[a], d.previews[b]
	if pa == "" || pb == "" {
		return 1
	}

	runesA, runesB, lines := d.dmp.DiffLinesToRunes(pa, pb)

	diffs := d.dmp.DiffMainRunes(runesA, runesB, false)
	diffs = d.dmp.DiffCleanupMerge(d.dmp.DiffCleanupSemanticLossless(diffs))
	diffs = d.dmp.DiffCharsToLines(diffs, lines)

	dist := d.dmp.DiffLevenshtein(diffs)

	longer := len(strings.Split(pa, "\n"))
	if l := len(strings.Split(pb, "\n")); l > longer {
		longer = l
	}

	if longer == 0 {
		return 1
	}

	return 1 - float64(dist)/float64(longer)
}
