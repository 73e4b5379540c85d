// Package server exposes the permissive parser to editors over the
// Language Server Protocol.
package server

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/serpent/compiler"
	"github.com/chazu/serpent/config"

	_ "github.com/tliron/commonlog/simple"
)

var lspLog = commonlog.GetLogger("serpent.lsp")

// LspServer publishes parse diagnostics and outlines for open documents.
type LspServer struct {
	cfg  *config.Config
	name string

	mu   sync.Mutex
	docs map[protocol.DocumentUri]*document

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// document is an open buffer and the result of its last parse.
type document struct {
	text    string
	tree    *compiler.Tree
	errors  []*compiler.ParseError
	outline []*compiler.OutlineEntry
}

// NewLSP creates a new LSP server. cfg supplies parser settings and the
// server name; nil means defaults.
func NewLSP(cfg *config.Config) *LspServer {
	if cfg == nil {
		cfg = config.Default(".")
	}
	s := &LspServer{
		cfg:     cfg,
		name:    cfg.LSP.Name,
		docs:    make(map[protocol.DocumentUri]*document),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion:     s.textDocumentCompletion,
		TextDocumentHover:          s.textDocumentHover,
		TextDocumentDefinition:     s.textDocumentDefinition,
		TextDocumentDocumentSymbol: s.textDocumentDocumentSymbol,
	}

	s.server = glspserver.NewServer(&s.handler, s.name, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	commonlog.NewInfoMessage(0, "serpent LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{}
	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true
	capabilities.DocumentSymbolProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    s.name,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	doc := s.update(params.TextDocument.URI, params.TextDocument.Text)
	s.publishDiagnostics(ctx, params.TextDocument.URI, doc)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			doc := s.update(uri, whole.Text)
			s.publishDiagnostics(ctx, uri, doc)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// update parses text and stores it as the current state of uri.
func (s *LspServer) update(uri protocol.DocumentUri, text string) *document {
	doc := s.analyze(string(uri), text)
	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()
	return doc
}

func (s *LspServer) lookup(uri protocol.DocumentUri) *document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[uri]
}

// analyze parses text in recording mode, so that a broken buffer still has
// an outline.
func (s *LspServer) analyze(name, text string) *document {
	rec := compiler.NewRecordingHandler()
	opts := append(s.cfg.ParserOptions(), compiler.WithFilename(name), compiler.WithErrorHandler(rec))
	tree, err := compiler.ParseString(text, compiler.ModeModule, opts...)

	doc := &document{text: text, tree: tree, errors: rec.Errors()}
	var pe *compiler.ParseError
	if err != nil && errors.As(err, &pe) && !containsError(doc.errors, pe) {
		doc.errors = append(doc.errors, pe)
	}
	doc.outline = compiler.Outline(tree)
	lspLog.Debugf("parsed %s: %d nodes, %d errors", name, tree.Len(), len(doc.errors))
	return doc
}

func containsError(errs []*compiler.ParseError, pe *compiler.ParseError) bool {
	for _, e := range errs {
		if e == pe {
			return true
		}
	}
	return false
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc := s.lookup(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	prefix := extractPrefix(doc.text, params.Position)
	if prefix == "" {
		return nil, nil
	}
	return complete(doc, prefix), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc := s.lookup(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	word := extractWord(doc.text, params.Position)
	if word == "" {
		return nil, nil
	}
	return hover(doc, word), nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := params.TextDocument.URI
	doc := s.lookup(uri)
	if doc == nil {
		return nil, nil
	}
	word := extractWord(doc.text, params.Position)
	if word == "" {
		return nil, nil
	}
	locations := definition(doc, uri, word)
	if len(locations) == 0 {
		return nil, nil
	}
	return locations, nil
}

func (s *LspServer) textDocumentDocumentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	doc := s.lookup(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	return documentSymbols(doc.text, doc.outline), nil
}

// complete offers outline names and keywords starting with prefix.
func complete(doc *document, prefix string) []protocol.CompletionItem {
	seen := make(map[string]bool)
	var items []protocol.CompletionItem
	add := func(label, detail string, kind protocol.CompletionItemKind) {
		if seen[label] || !strings.HasPrefix(label, prefix) {
			return
		}
		seen[label] = true
		items = append(items, protocol.CompletionItem{
			Label:  label,
			Kind:   &kind,
			Detail: &detail,
		})
	}

	for _, e := range compiler.Flatten(doc.outline) {
		add(e.Name, e.Qualified, completionKind(e.Kind))
	}
	for _, kw := range compiler.Keywords() {
		add(kw, "keyword", protocol.CompletionItemKindKeyword)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })

	// Limit results
	const maxItems = 100
	if len(items) > maxItems {
		items = items[:maxItems]
	}
	return items
}

func hover(doc *document, word string) *protocol.Hover {
	var matches []*compiler.OutlineEntry
	for _, e := range compiler.Flatten(doc.outline) {
		if e.Name == word {
			matches = append(matches, e)
		}
	}
	if len(matches) == 0 {
		return nil
	}

	var b strings.Builder
	for i, e := range matches {
		if i > 0 {
			b.WriteString("\n\n---\n\n")
		}
		fmt.Fprintf(&b, "**%s** `%s`\n\nline %d", e.Kind, e.Qualified, e.Line)
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
	}
}

func definition(doc *document, uri protocol.DocumentUri, word string) []protocol.Location {
	var locations []protocol.Location
	for _, e := range compiler.Flatten(doc.outline) {
		if e.Name != word {
			continue
		}
		locations = append(locations, protocol.Location{
			URI:   uri,
			Range: nameRange(doc.text, e),
		})
	}
	return locations
}

func documentSymbols(text string, entries []*compiler.OutlineEntry) []protocol.DocumentSymbol {
	symbols := make([]protocol.DocumentSymbol, 0, len(entries))
	for _, e := range entries {
		detail := e.Qualified
		symbols = append(symbols, protocol.DocumentSymbol{
			Name:   e.Name,
			Detail: &detail,
			Kind:   symbolKind(e.Kind),
			Range: protocol.Range{
				Start: positionAt(text, e.Start),
				End:   positionAt(text, e.Stop),
			},
			SelectionRange: nameRange(text, e),
			Children:       documentSymbols(text, e.Children),
		})
	}
	return symbols
}

// nameRange covers the name of a definition: the identifier after the
// def or class keyword, or the variable itself.
func nameRange(text string, e *compiler.OutlineEntry) protocol.Range {
	start := e.Start
	if e.Kind != compiler.OutlineVariable && e.Stop <= len(text) {
		if i := strings.Index(text[e.Start:e.Stop], e.Name); i >= 0 {
			start += i
		}
	}
	return protocol.Range{
		Start: positionAt(text, start),
		End:   positionAt(text, start+len(e.Name)),
	}
}

func symbolKind(k compiler.OutlineKind) protocol.SymbolKind {
	switch k {
	case compiler.OutlineClass:
		return protocol.SymbolKindClass
	case compiler.OutlineMethod:
		return protocol.SymbolKindMethod
	case compiler.OutlineFunction:
		return protocol.SymbolKindFunction
	}
	return protocol.SymbolKindVariable
}

func completionKind(k compiler.OutlineKind) protocol.CompletionItemKind {
	switch k {
	case compiler.OutlineClass:
		return protocol.CompletionItemKindClass
	case compiler.OutlineMethod:
		return protocol.CompletionItemKindMethod
	case compiler.OutlineFunction:
		return protocol.CompletionItemKindFunction
	}
	return protocol.CompletionItemKindVariable
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, doc *document) {
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics(s.name, doc),
	})
}

func diagnostics(source string, doc *document) []protocol.Diagnostic {
	out := []protocol.Diagnostic{}
	for _, pe := range doc.errors {
		severity := protocol.DiagnosticSeverityError
		src := source
		code := protocol.IntegerOrString{Value: pe.Kind.String()}
		start := errorPosition(doc.text, pe)
		end := start
		end.Character++
		out = append(out, protocol.Diagnostic{
			Range:    protocol.Range{Start: start, End: end},
			Severity: &severity,
			Code:     &code,
			Source:   &src,
			Message:  pe.Msg,
		})
	}
	return out
}

// errorPosition converts the 1-based line and column of pe.
func errorPosition(text string, pe *compiler.ParseError) protocol.Position {
	line := pe.Line - 1
	if line < 0 {
		line = 0
	}
	col := pe.Column - 1
	if col < 0 {
		col = 0
	}
	lines := strings.Split(text, "\n")
	if line < len(lines) {
		col = utf16Len(lines[line], col)
	}
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(col)}
}

// --- Text helpers ---

// positionAt converts a byte offset into an LSP position, counting
// characters in UTF-16 code units.
func positionAt(text string, offset int) protocol.Position {
	if offset > len(text) {
		offset = len(text)
	}
	if offset < 0 {
		offset = 0
	}
	line := strings.Count(text[:offset], "\n")
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	return protocol.Position{
		Line:      protocol.UInteger(line),
		Character: protocol.UInteger(utf16Len(text[lineStart:offset], -1)),
	}
}

// utf16Len counts the UTF-16 units in the first n runes of s, or in all
// of s when n is negative.
func utf16Len(s string, n int) int {
	units, i := 0, 0
	for ; len(s) > 0 && (n < 0 || i < n); i++ {
		r, size := utf8.DecodeRuneInString(s)
		units += utf16.RuneLen(r)
		s = s[size:]
	}
	if n > i {
		units += n - i
	}
	return units
}

// extractPrefix returns the identifier fragment before the cursor for completion.
func extractPrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Walk backwards from cursor to find the start of the identifier
	start := col
	for start > 0 && isIdentByte(line[start-1]) {
		start--
	}

	if start == col {
		return ""
	}

	return line[start:col]
}

// extractWord returns the full identifier under the cursor.
func extractWord(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	start := col
	for start > 0 && isIdentByte(line[start-1]) {
		start--
	}
	end := col
	for end < len(line) && isIdentByte(line[end]) {
		end++
	}

	if start == end {
		return ""
	}

	return line[start:end]
}

func isIdentByte(b byte) bool {
	ch := rune(b)
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

func boolPtr(b bool) *bool {
	return &b
}
