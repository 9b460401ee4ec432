package pipeline

import (
	"context"

	"github.com/latticeforge/deepscan/pkg/ast"
	"github.com/latticeforge/deepscan/pkg/cache"
	"github.com/latticeforge/deepscan/pkg/tdg"
)

// duplicationNumBands, duplicationNumRows and duplicationNumHashes match
// pkg/tdg's own doc comment: "the pack's standard 16x8 = 128-hash
// configuration".
const (
	duplicationNumBands  = 16
	duplicationNumRows   = 8
	duplicationNumHashes = duplicationNumBands * duplicationNumRows
)

const cacheKindShingle cache.Kind = "tdg_shingle"

// buildDuplicationIndex tokenizes every file's declaration names into a
// MinHash/LSH duplication index. There is no raw source text left by the
// time files reach the analyze stage (pkg/ast.FileContext carries parsed
// AstItems, not bytes), so the duplication signal is built from each
// file's structural shingle: one kind:name pair per item, in item order,
// which still separates a near-identical file (same declarations, same
// order) from an unrelated one, the same granularity spec.md §4.7's
// "near-duplicate elsewhere" component is defined at (file-level, not
// line-level). tdgCache, when non-nil, keys the shingle list by the
// file's own content hash so an unchanged file skips re-tokenization on
// the next run.
func buildDuplicationIndex(ctx context.Context, files []*ast.FileContext, contentByPath map[string][]byte, tdgCache *cache.Layered[[][]byte]) *tdg.DuplicationIndex {
	idx, err := tdg.NewDuplicationIndex(duplicationNumBands, duplicationNumRows)
	if err != nil {
		return nil
	}

	for _, fc := range files {
		tokens := shingleCached(ctx, fc, contentByPath[fc.Path], tdgCache)
		if len(tokens) == 0 {
			continue
		}

		_ = idx.AddFile(fc.Path, duplicationNumHashes, tokens) //nolint:errcheck // a single bad signature just leaves that file unscored, not a run failure.
	}

	return idx
}

func shingleCached(ctx context.Context, fc *ast.FileContext, content []byte, tdgCache *cache.Layered[[][]byte]) [][]byte {
	if tdgCache == nil || content == nil {
		return shingle(fc)
	}

	key := cache.NewKey(fc.Path, content, cacheKindShingle)

	tokens, err := tdgCache.GetOrCompute(ctx, key, int64(len(content)), func(context.Context) ([][]byte, error) {
		return shingle(fc), nil
	})
	if err != nil {
		return shingle(fc)
	}

	return tokens
}

// duplicationScore is a nil-safe wrapper around (*tdg.DuplicationIndex).
// DuplicationScore: buildDuplicationIndex returns nil when the LSH index
// itself failed to construct (an invalid band/row configuration), and a
// method call on that nil pointer would otherwise panic on its first map
// read.
func duplicationScore(idx *tdg.DuplicationIndex, path string) float64 {
	if idx == nil {
		return 0
	}

	return idx.DuplicationScore(path)
}

// shingle renders fc's AstItems into one "Kind:Name" token per
// declaration, so two structurally similar files (same declaration kinds,
// same names) hash to a similar MinHash signature even when
// line numbers and exact formatting differ.
func shingle(fc *ast.FileContext) [][]byte {
	tokens := make([][]byte, 0, len(fc.Items))

	for _, item := range fc.Items {
		tokens = append(tokens, []byte(item.Kind.String()+":"+item.Name))
	}

	return tokens
}
