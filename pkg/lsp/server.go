// Package lsp exposes deepscan's per-file analyzers (SATD marker
// detection and cyclomatic/Big-O complexity) as a Language Server
// Protocol server, so an editor can see a function's complexity
// class or a TODO/FIXME marker as a live diagnostic instead of
// waiting on a full `deepscan run`.
package lsp

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/latticeforge/deepscan/pkg/ast"
	"github.com/latticeforge/deepscan/pkg/complexity"
	"github.com/latticeforge/deepscan/pkg/langparse"
	"github.com/latticeforge/deepscan/pkg/metrics"
	"github.com/latticeforge/deepscan/pkg/satd"
)

// serverName identifies this server in the LSP handshake and in the
// diagnostics Source field, so an editor can group or filter deepscan's
// output alongside a language's own diagnostics.
const serverName = "deepscan"

const serverVersion = "0.1.0"

// DocumentStore is a thread-safe store of open document contents keyed
// by URI, the same shape the mapping DSL server in this module's
// lineage uses for its own in-memory buffer cache.
type DocumentStore struct {
	documents map[string]string
	mu        sync.RWMutex
}

// NewDocumentStore creates an empty DocumentStore.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{documents: make(map[string]string)}
}

// Set stores content for uri, overwriting any previous version.
func (ds *DocumentStore) Set(uri, content string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.documents[uri] = content
}

// Get retrieves the stored content for uri.
func (ds *DocumentStore) Get(uri string) (string, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	content, ok := ds.documents[uri]

	return content, ok
}

// Delete forgets uri, called on textDocument/didClose.
func (ds *DocumentStore) Delete(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	delete(ds.documents, uri)
}

// Server is a stdio LSP server that republishes diagnostics for a
// buffer every time it is opened, edited, or saved. Unlike a linter
// that reparses a whole project, it only ever analyzes the one
// in-memory document an editor asks about, using the same
// pkg/langparse registry and single-file analyzers as a batch run.
type Server struct {
	store    *DocumentStore
	registry *langparse.Registry
	handler  protocol.Handler
}

// NewServer builds a deepscan LSP server with its default handler set.
func NewServer() *Server {
	srv := &Server{store: NewDocumentStore(), registry: langparse.NewRegistry()}

	srv.handler = protocol.Handler{
		Initialize:            srv.initialize,
		Initialized:           srv.initialized,
		Shutdown:              srv.shutdown,
		SetTrace:              srv.setTrace,
		TextDocumentDidOpen:   srv.didOpen,
		TextDocumentDidChange: srv.didChange,
		TextDocumentDidSave:   srv.didSave,
		TextDocumentDidClose:  srv.didClose,
	}

	return srv
}

// Run starts the server on stdio, blocking until the client disconnects.
func (srv *Server) Run() {
	lspServer := server.NewServer(&srv.handler, serverName, false)

	if err := lspServer.RunStdio(); err != nil {
		log.Printf("lsp server error: %v", err)
	}
}

func (srv *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	capabilities := srv.handler.CreateServerCapabilities()
	version := serverVersion

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &version,
		},
	}, nil
}

func (srv *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (srv *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	return nil
}

func (srv *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

func (srv *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	srv.store.Set(uri, params.TextDocument.Text)
	srv.publishDiagnostics(ctx, uri)

	return nil
}

// didChange assumes full-document sync: CreateServerCapabilities
// advertises TextDocumentSyncKindFull for any handler that registers
// TextDocumentDidChange without a TextDocumentSyncOptions override, so
// ContentChanges[0] always decodes to a map carrying the complete new
// buffer under "text" rather than an incremental Range+Text edit.
func (srv *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	if len(params.ContentChanges) == 0 {
		return nil
	}

	change, ok := params.ContentChanges[0].(map[string]any)
	if !ok {
		return nil
	}

	text, ok := change["text"].(string)
	if !ok {
		return nil
	}

	srv.store.Set(uri, text)
	srv.publishDiagnostics(ctx, uri)

	return nil
}

func (srv *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI

	if _, ok := srv.store.Get(uri); ok {
		srv.publishDiagnostics(ctx, uri)
	}

	return nil
}

func (srv *Server) didClose(_ *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	srv.store.Delete(params.TextDocument.URI)

	return nil
}

// publishDiagnostics parses uri's current buffer with the language
// inferred from its path and republishes the full set of SATD and
// complexity diagnostics. An unsupported extension or a parse failure
// yields a single informational diagnostic rather than silence, so the
// editor surface still reports why nothing was analyzed.
func (srv *Server) publishDiagnostics(ctx *glsp.Context, uri string) {
	content, ok := srv.store.Get(uri)
	if !ok {
		return
	}

	ctx.Notify("textDocument/publishDiagnostics", &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: srv.analyze(uri, content),
	})
}

func (srv *Server) analyze(uri, content string) []protocol.Diagnostic {
	path := pathFromURI(uri)

	fc, err := srv.registry.ParseFile(context.Background(), path, []byte(content))
	if err != nil {
		return []protocol.Diagnostic{infoDiagnostic(fmt.Sprintf("deepscan: %v", err))}
	}

	diags := make([]protocol.Diagnostic, 0, len(fc.Items))
	diags = append(diags, satdDiagnostics(fc)...)
	diags = append(diags, complexityDiagnostics(fc)...)

	return diags
}

func satdDiagnostics(fc *ast.FileContext) []protocol.Diagnostic {
	markers := satd.Scan(fc)
	diags := make([]protocol.Diagnostic, 0, len(markers))

	for _, m := range markers {
		diags = append(diags, protocol.Diagnostic{
			Range:    lineRange(m.Line),
			Severity: severityPtr(riskToSeverity(m.Severity)),
			Source:   sourcePtr("deepscan-satd"),
			Message:  fmt.Sprintf("[%s] %s", m.Keyword, m.Text),
		})
	}

	return diags
}

func complexityDiagnostics(fc *ast.FileContext) []protocol.Diagnostic {
	fileMetrics := complexity.AnalyzeFile(fc)
	diags := make([]protocol.Diagnostic, 0, len(fileMetrics.Functions))

	for _, fn := range fileMetrics.Functions {
		if !fn.TimeComplexity.Class.IsHighComplexity() && fn.Cyclomatic < highCyclomaticThreshold {
			continue
		}

		diags = append(diags, protocol.Diagnostic{
			Range:    lineRange(uint(fn.LineNumber)), //nolint:gosec // LineNumber is always non-negative, sourced from a tree-sitter row.
			Severity: severityPtr(protocol.DiagnosticSeverityWarning),
			Source:   sourcePtr("deepscan-complexity"),
			Message: fmt.Sprintf("%s: cyclomatic complexity %d, time complexity %s",
				fn.FunctionName, fn.Cyclomatic, fn.TimeComplexity.Class),
		})
	}

	return diags
}

// highCyclomaticThreshold flags a function even when its Big-O
// classification doesn't land in the "high complexity" bucket (a deeply
// branched but non-looping function, say).
const highCyclomaticThreshold = 10

func riskToSeverity(r metrics.RiskLevel) protocol.DiagnosticSeverity {
	switch r {
	case metrics.RiskCritical, metrics.RiskHigh:
		return protocol.DiagnosticSeverityWarning
	case metrics.RiskMedium:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityHint
	}
}

// lineRange builds a single-line LSP range covering line's full width:
// line is 1-indexed (the convention every pkg/langparse parser emits,
// per treesitter.go's StartLine/Line fields), while LSP positions are
// 0-indexed, so the conversion subtracts one.
func lineRange(line uint) protocol.Range {
	var zeroIndexed uint32
	if line > 0 {
		zeroIndexed = uint32(line) - 1 //nolint:gosec // bounded by source file line counts.
	}

	return protocol.Range{
		Start: protocol.Position{Line: zeroIndexed, Character: 0},
		End:   protocol.Position{Line: zeroIndexed, Character: maxLineWidth},
	}
}

// maxLineWidth is large enough that editors clamp it to the line's
// actual length rather than this diagnostic needing to know it.
const maxLineWidth = 1 << 16

func infoDiagnostic(message string) protocol.Diagnostic {
	return protocol.Diagnostic{
		Range:    lineRange(1),
		Severity: severityPtr(protocol.DiagnosticSeverityInformation),
		Source:   sourcePtr(serverName),
		Message:  message,
	}
}

func severityPtr(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity { return &s }

func sourcePtr(s string) *string { return &s }

// pathFromURI strips the file:// scheme LSP clients send, the same
// trim the mapping DSL server in this module's lineage relies on for
// its own document URIs.
func pathFromURI(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}
