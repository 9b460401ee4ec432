package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/latticeforge/deepscan/pkg/ast"
	"github.com/latticeforge/deepscan/pkg/cache"
	"github.com/latticeforge/deepscan/pkg/errs"
)

// cacheKindFileContext tags a cached *ast.FileContext entry, keeping it
// distinct from any other Kind that might someday share the same
// (path, content) key.
const cacheKindFileContext cache.Kind = "file_context"

// osFS roots fs.FS operations at root, the same os.DirFS(root) convention
// discovery.Walk's own doc comment describes.
func osFS(root string) fs.FS {
	return os.DirFS(root)
}

// parseOne reads, caches and parses a single file, recovering from any
// panic a tree-sitter grammar raises on malformed input — grounded on the
// teacher's `defer func() { recover() }()` idiom around per-grammar
// lookups in pkg/uast/parser_dsl.go, generalized here to the whole parse
// call rather than just language resolution, since a worker pool can't
// afford one bad file to kill every other file's progress. A per-file
// context.WithTimeout bounds runaway grammars.
func (p *Pipeline) parseOne(ctx context.Context, root, path string) parseResult {
	fileCtx, cancel := context.WithTimeout(ctx, p.config.FileTimeout)
	defer cancel()

	content, err := os.ReadFile(filepath.Join(root, path)) //nolint:gosec // path comes from discovery.Walk, already rooted and validated.
	if err != nil {
		return parseResult{path: path, err: errs.NewFileError(path, fmt.Errorf("%w: %s", errs.ErrFileUnreadable, err))}
	}

	if p.config.Cache == nil {
		return p.parseContent(fileCtx, path, content)
	}

	return p.parseWithCache(fileCtx, path, content)
}

func (p *Pipeline) parseWithCache(ctx context.Context, path string, content []byte) parseResult {
	key := cache.NewKey(path, content, cacheKindFileContext)

	fc, err := p.config.Cache.GetOrCompute(ctx, key, int64(len(content)), func(computeCtx context.Context) (*ast.FileContext, error) {
		r := p.parseContent(computeCtx, path, content)
		if r.err != nil {
			return nil, r.err
		}

		return r.ctx, nil
	})
	if err != nil {
		return parseResult{path: path, content: content, err: asFileError(path, err)}
	}

	return parseResult{path: path, content: content, ctx: fc}
}

// parseContent dispatches to the registry with panic recovery; a grammar
// panic or a context deadline both degrade to a single FileError instead
// of aborting the run.
func (p *Pipeline) parseContent(ctx context.Context, path string, content []byte) (result parseResult) {
	defer func() {
		if r := recover(); r != nil {
			result = parseResult{
				path: path, content: content,
				err: errs.NewFileError(path, fmt.Errorf("%w: panic: %v", errs.ErrParseFailed, r)),
			}
		}
	}()

	if err := ctx.Err(); err != nil {
		return parseResult{path: path, content: content, err: errs.NewFileError(path, fmt.Errorf("%w: %s", errs.ErrTimeout, err))}
	}

	fc, err := p.registry.ParseFile(ctx, path, content)
	if err != nil {
		return parseResult{path: path, content: content, err: asFileError(path, err)}
	}

	return parseResult{path: path, content: content, ctx: fc}
}

func asFileError(path string, err error) *errs.FileError {
	var fe *errs.FileError
	if ok := asFileErrorInto(err, &fe); ok {
		return fe
	}

	return errs.NewFileError(path, err)
}

func asFileErrorInto(err error, target **errs.FileError) bool {
	fe, ok := err.(*errs.FileError) //nolint:errorlint // exact-type check; FileError is never wrapped further here.

	if ok {
		*target = fe
	}

	return ok
}
