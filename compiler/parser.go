package compiler

import (
	"fmt"
	"io"
	"strings"
)

// ---------------------------------------------------------------------------
// Parser: recursive descent over the synthesized token stream
// ---------------------------------------------------------------------------

// Mode selects the entry grammar.
type Mode int

const (
	// ModeModule parses a sequence of statements (file input).
	ModeModule Mode = iota
	// ModeSingle parses one interactive statement.
	ModeSingle
	// ModeEval parses a bare expression list.
	ModeEval
)

func (m Mode) String() string {
	switch m {
	case ModeModule:
		return "module"
	case ModeSingle:
		return "single"
	case ModeEval:
		return "eval"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts the mode names used by compile(): exec/module, single,
// eval.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "module", "exec", "file":
		return ModeModule, nil
	case "single", "interactive":
		return ModeSingle, nil
	case "eval", "expression":
		return ModeEval, nil
	}
	return 0, fmt.Errorf("unknown parse mode %q", s)
}

func (m Mode) rootKind() Kind {
	switch m {
	case ModeSingle:
		return KindInteractive
	case ModeEval:
		return KindExpression
	}
	return KindModule
}

// Option configures a parse.
type Option func(*options)

type options struct {
	filename   string
	encoding   string
	handler    ErrorHandler
	tabSize    int
	maxIndents int
}

// WithFilename sets the source name used in errors and tracebacks.
func WithFilename(name string) Option {
	return func(o *options) { o.filename = name }
}

// WithEncoding declares the source encoding. Empty means detect.
func WithEncoding(name string) Option {
	return func(o *options) { o.encoding = name }
}

// WithErrorHandler replaces the default FailFastHandler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) {
		if h != nil {
			o.handler = h
		}
	}
}

// WithTabSize sets the tab stop used to measure indentation.
func WithTabSize(n int) Option {
	return func(o *options) { o.tabSize = n }
}

// WithMaxIndents bounds the indentation depth.
func WithMaxIndents(n int) Option {
	return func(o *options) { o.maxIndents = n }
}

func buildOptions(opts []Option) options {
	o := options{
		handler:    FailFastHandler{},
		tabSize:    DefaultTabSize,
		maxIndents: MaxIndents,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ParseModule parses r as a module.
func ParseModule(r io.Reader, opts ...Option) (*Tree, error) {
	return Parse(r, ModeModule, opts...)
}

// ParseInteractive parses r as a single interactive statement.
func ParseInteractive(r io.Reader, opts ...Option) (*Tree, error) {
	return Parse(r, ModeSingle, opts...)
}

// ParseExpression parses r as an expression.
func ParseExpression(r io.Reader, opts ...Option) (*Tree, error) {
	return Parse(r, ModeEval, opts...)
}

// Parse decodes r and parses it with the given entry grammar.
//
// When the parse aborts the returned tree is rooted at an ErrorMod node
// holding whatever statements completed before the failure.
func Parse(r io.Reader, mode Mode, opts ...Option) (*Tree, error) {
	o := buildOptions(opts)
	text, err := DecodeSource(r, o.encoding)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Filename = o.filename
			o.handler.ReportError(pe)
		}
		return errorTree(o.filename), err
	}
	return parseText(text, mode, o)
}

// ParseString parses already decoded source.
func ParseString(src string, mode Mode, opts ...Option) (*Tree, error) {
	return parseText(src, mode, buildOptions(opts))
}

func errorTree(filename string) *Tree {
	t := NewTree(filename)
	t.SetRoot(t.New(KindErrorMod, "", Span{StartToken: -1, StopToken: -1, Line: 1}))
	return t
}

func parseText(src string, mode Mode, o options) (*Tree, error) {
	lx := NewLexer(src)
	lx.SetTabSize(o.tabSize)
	tokens, err := lx.Tokenize()
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Filename = o.filename
			o.handler.ReportError(pe)
		}
		return errorTree(o.filename), err
	}

	p := &Parser{
		src:      NewTokenSource(tokens, o.filename, mode == ModeSingle, o.maxIndents),
		tree:     NewTree(o.filename),
		handler:  o.handler,
		filename: o.filename,
		mode:     mode,
	}
	return p.run()
}

// Errors unwind the recursive descent with panics carrying one of the two
// types below. Only run recovers a bailout and only guard recovers a
// syntaxPanic; both re-panic any other value, so a panic from an
// ErrorHandler or a bug still escapes Parse.

// bailout aborts the whole parse.
type bailout struct{ err error }

// syntaxPanic unwinds to the nearest statement after a recorded error.
type syntaxPanic struct{ err *ParseError }

// Parser holds the state of one parse. It is not safe for concurrent use.
type Parser struct {
	src      *TokenSource
	tree     *Tree
	handler  ErrorHandler
	filename string
	mode     Mode

	cur   Token
	last  Token // last consumed token carrying source text
	ahead []Token
}

func (p *Parser) run() (tree *Tree, err error) {
	root := p.tree.New(p.mode.rootKind(), "", Span{StartToken: -1, StopToken: -1, Line: 1})
	p.tree.SetRoot(root)

	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			p.tree.Node(root).Kind = KindErrorMod
			tree, err = p.tree, b.err
		}
	}()

	p.next()
	switch p.mode {
	case ModeModule:
		p.fileInput(root)
	case ModeSingle:
		p.singleInput(root)
	case ModeEval:
		p.evalInput(root)
	}
	p.close(root)
	return p.tree, nil
}

// ---------------------------------------------------------------------------
// Token plumbing
// ---------------------------------------------------------------------------

func (p *Parser) read() Token {
	for {
		t, err := p.src.NextToken()
		if err != nil {
			p.fatal(err)
		}
		if t.Hidden {
			if t.Type == TokenComment {
				p.tree.addComment(t)
			}
			continue
		}
		return t
	}
}

// next advances to the next visible token.
func (p *Parser) next() {
	if p.cur.Index >= 0 && p.cur.Literal != "" && p.cur.Type != TokenNewline && p.cur.Type != TokenEOF {
		p.last = p.cur
	}
	if len(p.ahead) > 0 {
		p.cur = p.ahead[0]
		p.ahead = p.ahead[1:]
		return
	}
	p.cur = p.read()
}

// peek returns the token after cur.
func (p *Parser) peek() Token {
	if len(p.ahead) == 0 {
		if p.cur.Type == TokenEOF {
			return p.cur
		}
		p.ahead = append(p.ahead, p.read())
	}
	return p.ahead[0]
}

func (p *Parser) isOp(lit string) bool {
	return p.cur.Type == TokenOp && p.cur.Literal == lit
}

func (p *Parser) isKeyword(lit string) bool {
	return p.cur.Type == TokenKeyword && p.cur.Literal == lit
}

func (p *Parser) acceptOp(lit string) bool {
	if p.isOp(lit) {
		p.next()
		return true
	}
	return false
}

func (p *Parser) expectOp(lit string) {
	if !p.acceptOp(lit) {
		p.unexpected("expected '%s'", lit)
	}
}

func (p *Parser) expectKeyword(lit string) {
	if !p.isKeyword(lit) {
		p.unexpected("expected '%s'", lit)
	}
	p.next()
}

func (p *Parser) expectName() Token {
	if p.cur.Type != TokenName {
		p.unexpected("expected name")
	}
	t := p.cur
	p.next()
	return t
}

// atStmtEnd reports whether cur terminates a simple statement.
func (p *Parser) atStmtEnd() bool {
	return p.cur.Type == TokenNewline || p.cur.Type == TokenEOF || p.isOp(";")
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

func (p *Parser) fatal(err error) {
	if pe, ok := err.(*ParseError); ok {
		pe.Filename = p.filename
		p.handler.ReportError(pe)
	}
	panic(bailout{err})
}

// report hands err to the handler and aborts if the handler says so.
func (p *Parser) report(err *ParseError) {
	err.Filename = p.filename
	if herr := p.handler.ReportError(err); herr != nil {
		panic(bailout{herr})
	}
	parserLog.Debugf("recovering from %s", err)
}

// fail reports err and unwinds to the enclosing statement.
func (p *Parser) fail(err *ParseError) {
	p.report(err)
	panic(syntaxPanic{err})
}

// unexpected fails at the current token.
func (p *Parser) unexpected(format string, args ...interface{}) {
	switch p.cur.Type {
	case TokenEOF:
		p.fail(errorAt(ErrSyntax, p.cur, "unexpected EOF while parsing"))
	case TokenIndent:
		p.fail(errorAt(ErrIndentation, p.cur, "unexpected indent"))
	case TokenDedent:
		p.fail(errorAt(ErrIndentation, p.cur, "unexpected unindent"))
	}
	msg := fmt.Sprintf(format, args...)
	if p.cur.Type == TokenNewline {
		p.fail(errorAt(ErrSyntax, p.cur, "invalid syntax: %s, got end of line", msg))
	}
	p.fail(errorAt(ErrSyntax, p.cur, "invalid syntax: %s, got '%s'", msg, p.cur.Literal))
}

func (p *Parser) failAt(id NodeID, format string, args ...interface{}) {
	sp := p.tree.Span(id)
	tok := Token{Pos: Position{Offset: sp.Start, Line: sp.Line, Column: sp.Column}}
	p.fail(errorAt(ErrSyntax, tok, format, args...))
}

// guard runs fn and, on a recovered grammar error, attaches an error node
// of the given kind to parent and skips to the next statement boundary.
func (p *Parser) guard(parent NodeID, kind Kind, fn func()) {
	start := p.cur
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if _, ok := r.(syntaxPanic); !ok {
			panic(r)
		}
		id := p.open(kind, "", start)
		p.sync()
		p.close(id)
		p.tree.AddChild(parent, id)
	}()
	fn()
}

// sync skips to just past the next NEWLINE at the current block level, or
// up to a DEDENT closing it.
func (p *Parser) sync() {
	depth := 0
	for {
		switch p.cur.Type {
		case TokenEOF:
			return
		case TokenNewline:
			p.next()
			if depth == 0 {
				return
			}
		case TokenIndent:
			depth++
			p.next()
		case TokenDedent:
			if depth == 0 {
				return
			}
			depth--
			p.next()
		default:
			p.next()
		}
	}
}

// ---------------------------------------------------------------------------
// Node helpers
// ---------------------------------------------------------------------------

func spanAt(t Token) Span {
	return Span{
		StartToken: t.Index,
		StopToken:  t.Index,
		Start:      t.Pos.Offset,
		Stop:       t.End,
		Line:       t.Pos.Line,
		Column:     t.Pos.Column,
	}
}

func (p *Parser) open(kind Kind, text string, start Token) NodeID {
	return p.tree.New(kind, text, spanAt(start))
}

// openAt starts a node whose span begins where from begins.
func (p *Parser) openAt(kind Kind, text string, from NodeID) NodeID {
	return p.tree.New(kind, text, p.tree.Span(from))
}

// close ends the span of id at the last consumed token.
func (p *Parser) close(id NodeID) NodeID {
	n := p.tree.Node(id)
	if p.last.Index >= 0 && p.last.End >= n.Span.Start {
		n.Span.StopToken = p.last.Index
		n.Span.Stop = p.last.End
	}
	return id
}

func (p *Parser) leaf(kind Kind) NodeID {
	id := p.open(kind, p.cur.Literal, p.cur)
	p.next()
	return id
}

func (p *Parser) with(id NodeID, children ...NodeID) NodeID {
	for _, c := range children {
		p.tree.AddChild(id, c)
	}
	return id
}

// ---------------------------------------------------------------------------
// Entry grammars
// ---------------------------------------------------------------------------

func (p *Parser) fileInput(root NodeID) {
	for p.cur.Type != TokenEOF {
		switch p.cur.Type {
		case TokenNewline:
			p.next()
		case TokenDedent:
			// only reachable after recovery from a bad block
			p.next()
		default:
			p.statement(root)
		}
	}
}

func (p *Parser) singleInput(root NodeID) {
	if p.cur.Type == TokenNewline {
		p.next()
	} else if p.cur.Type != TokenEOF {
		p.statement(root)
	}
	for p.cur.Type == TokenNewline {
		p.next()
	}
	if p.cur.Type != TokenEOF {
		p.guard(root, KindErrorStmt, func() {
			p.unexpected("expected end of input")
		})
	}
}

func (p *Parser) evalInput(root NodeID) {
	for p.cur.Type == TokenNewline {
		p.next()
	}
	p.guard(root, KindErrorExpr, func() {
		p.tree.AddChild(root, p.testlist())
		for p.cur.Type == TokenNewline {
			p.next()
		}
		if p.cur.Type != TokenEOF {
			p.unexpected("expected end of input")
		}
	})
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// statement parses one statement (or an unexpectedly indented block) into
// parent, substituting an ErrorStmt when the handler lets parsing go on.
func (p *Parser) statement(parent NodeID) {
	if p.cur.Type == TokenIndent {
		start := p.cur
		p.report(errorAt(ErrIndentation, p.cur, "unexpected indent"))
		id := p.open(KindErrorStmt, "", start)
		p.next()
		p.block(id)
		if p.cur.Type == TokenDedent {
			p.next()
		}
		p.tree.AddChild(parent, p.close(id))
		return
	}
	p.guard(parent, KindErrorStmt, func() {
		for _, id := range p.stmt() {
			p.tree.AddChild(parent, id)
		}
	})
}

// block parses statements up to the DEDENT (or EOF) closing an indented
// suite.
func (p *Parser) block(parent NodeID) {
	for p.cur.Type != TokenDedent && p.cur.Type != TokenEOF {
		if p.cur.Type == TokenNewline {
			p.next()
			continue
		}
		p.statement(parent)
	}
}

func (p *Parser) stmt() []NodeID {
	if p.cur.Type == TokenKeyword {
		switch p.cur.Literal {
		case "if":
			return []NodeID{p.ifStmt()}
		case "while":
			return []NodeID{p.whileStmt()}
		case "for":
			return []NodeID{p.forStmt()}
		case "try":
			return []NodeID{p.tryStmt()}
		case "with":
			return []NodeID{p.withStmt()}
		case "def":
			return []NodeID{p.funcDef()}
		case "class":
			return []NodeID{p.classDef()}
		}
	}
	return p.simpleStmt()
}

func (p *Parser) simpleStmt() []NodeID {
	var out []NodeID
	for {
		out = append(out, p.smallStmt())
		if !p.acceptOp(";") || p.cur.Type == TokenNewline || p.cur.Type == TokenEOF {
			break
		}
	}
	switch p.cur.Type {
	case TokenNewline:
		p.next()
	case TokenEOF:
	default:
		p.unexpected("expected end of statement")
	}
	return out
}

func (p *Parser) smallStmt() NodeID {
	if p.cur.Type == TokenKeyword {
		start := p.cur
		switch p.cur.Literal {
		case "pass":
			return p.close(p.leaf(KindPass))
		case "break":
			return p.close(p.leaf(KindBreak))
		case "continue":
			return p.close(p.leaf(KindContinue))

		case "return":
			id := p.open(KindReturn, "", start)
			p.next()
			if !p.atStmtEnd() {
				p.tree.AddChild(id, p.testlist())
			}
			return p.close(id)

		case "raise":
			id := p.open(KindRaise, "", start)
			p.next()
			if !p.atStmtEnd() {
				p.tree.AddChild(id, p.test())
				for i := 0; i < 2 && p.acceptOp(","); i++ {
					p.tree.AddChild(id, p.test())
				}
			}
			return p.close(id)

		case "del":
			id := p.open(KindDelete, "", start)
			p.next()
			for _, t := range p.exprItems() {
				p.checkTarget(t, "delete")
				p.tree.AddChild(id, t)
			}
			return p.close(id)

		case "global":
			id := p.open(KindGlobal, "", start)
			p.next()
			for {
				name := p.expectName()
				p.tree.AddChild(id, p.tree.New(KindName, name.Literal, spanAt(name)))
				if !p.acceptOp(",") {
					break
				}
			}
			return p.close(id)

		case "assert":
			id := p.open(KindAssert, "", start)
			p.next()
			p.tree.AddChild(id, p.test())
			if p.acceptOp(",") {
				p.tree.AddChild(id, p.test())
			}
			return p.close(id)

		case "import":
			return p.importName()
		case "from":
			return p.importFrom()
		}
	}
	return p.exprStmt()
}

func isAugAssign(op string) bool {
	switch op {
	case "+=", "-=", "*=", "/=", "//=", "%=", "&=", "|=", "^=", "<<=", ">>=", "**=":
		return true
	}
	return false
}

func (p *Parser) exprStmt() NodeID {
	first := p.testlist()

	if p.cur.Type == TokenOp && isAugAssign(p.cur.Literal) {
		op := strings.TrimSuffix(p.cur.Literal, "=")
		p.next()
		p.checkTarget(first, "assign")
		if k := p.tree.Kind(first); k == KindTuple || k == KindList {
			p.failAt(first, "illegal expression for augmented assignment")
		}
		id := p.openAt(KindAugAssign, op, first)
		return p.close(p.with(id, first, p.testlist()))
	}

	if p.isOp("=") {
		id := p.openAt(KindAssign, "", first)
		parts := []NodeID{first}
		for p.acceptOp("=") {
			parts = append(parts, p.testlist())
		}
		for _, target := range parts[:len(parts)-1] {
			p.checkTarget(target, "assign")
		}
		return p.close(p.with(id, parts...))
	}

	id := p.openAt(KindExprStmt, "", first)
	return p.close(p.with(id, first))
}

// checkTarget rejects expressions that cannot be bound.
func (p *Parser) checkTarget(id NodeID, verb string) {
	switch k := p.tree.Kind(id); k {
	case KindName, KindAttribute, KindSubscript:
	case KindTuple, KindList:
		for _, c := range p.tree.Children(id) {
			p.checkTarget(c, verb)
		}
	case KindStarred:
		p.failAt(id, "can't %s to starred expression", verb)
	case KindCall:
		p.failAt(id, "can't %s to function call", verb)
	case KindNum, KindStr:
		p.failAt(id, "can't %s to literal", verb)
	default:
		p.failAt(id, "can't %s to %s", verb, strings.ToLower(k.String()))
	}
}

func (p *Parser) dottedName() (string, Token) {
	first := p.expectName()
	parts := []string{first.Literal}
	for p.isOp(".") {
		p.next()
		parts = append(parts, p.expectName().Literal)
	}
	return strings.Join(parts, "."), first
}

// alias parses "name [as asname]" into an Alias node.
func (p *Parser) alias(dotted bool) NodeID {
	var name string
	var start Token
	if dotted {
		name, start = p.dottedName()
	} else {
		start = p.expectName()
		name = start.Literal
	}
	id := p.open(KindAlias, name, start)
	if p.isKeyword("as") {
		p.next()
		as := p.expectName()
		p.tree.AddChild(id, p.tree.New(KindName, as.Literal, spanAt(as)))
	}
	return p.close(id)
}

func (p *Parser) importName() NodeID {
	id := p.open(KindImport, "", p.cur)
	p.next()
	for {
		p.tree.AddChild(id, p.alias(true))
		if !p.acceptOp(",") {
			break
		}
	}
	return p.close(id)
}

func (p *Parser) importFrom() NodeID {
	start := p.cur
	p.next()

	var module strings.Builder
	for p.isOp(".") {
		module.WriteByte('.')
		p.next()
	}
	if p.cur.Type == TokenName {
		name, _ := p.dottedName()
		module.WriteString(name)
	}
	if module.Len() == 0 {
		p.unexpected("expected module name")
	}
	p.expectKeyword("import")

	id := p.open(KindImportFrom, module.String(), start)
	if p.isOp("*") {
		p.tree.AddChild(id, p.open(KindAlias, "*", p.cur))
		p.next()
		return p.close(id)
	}
	paren := p.acceptOp("(")
	for {
		p.tree.AddChild(id, p.alias(false))
		if !p.acceptOp(",") {
			break
		}
		if paren && p.isOp(")") {
			break
		}
	}
	if paren {
		p.expectOp(")")
	}
	return p.close(id)
}

// suite parses the body of a compound statement after its colon.
func (p *Parser) suite(kind Kind) NodeID {
	if p.cur.Type != TokenNewline {
		id := p.open(kind, "", p.cur)
		for _, s := range p.simpleStmt() {
			p.tree.AddChild(id, s)
		}
		return p.close(id)
	}
	p.next()
	if p.cur.Type != TokenIndent {
		p.fail(errorAt(ErrIndentation, p.cur, "expected an indented block"))
	}
	p.next()
	id := p.open(kind, "", p.cur)
	p.block(id)
	p.close(id)
	if p.cur.Type == TokenDedent {
		p.next()
	}
	return id
}

// elseClause parses an optional "else: suite".
func (p *Parser) elseClause(parent NodeID) {
	if p.isKeyword("else") {
		p.next()
		p.expectOp(":")
		p.tree.AddChild(parent, p.suite(KindOrElse))
	}
}

// ifStmt handles both "if" and "elif".
func (p *Parser) ifStmt() NodeID {
	id := p.open(KindIf, "", p.cur)
	p.next()
	p.tree.AddChild(id, p.test())
	p.expectOp(":")
	p.tree.AddChild(id, p.suite(KindBody))

	if p.isKeyword("elif") {
		orelse := p.open(KindOrElse, "", p.cur)
		p.tree.AddChild(orelse, p.ifStmt())
		p.tree.AddChild(id, p.close(orelse))
	} else {
		p.elseClause(id)
	}
	return p.close(id)
}

func (p *Parser) whileStmt() NodeID {
	id := p.open(KindWhile, "", p.cur)
	p.next()
	p.tree.AddChild(id, p.test())
	p.expectOp(":")
	p.tree.AddChild(id, p.suite(KindBody))
	p.elseClause(id)
	return p.close(id)
}

func (p *Parser) forStmt() NodeID {
	id := p.open(KindFor, "", p.cur)
	p.next()
	target := p.exprlist()
	p.checkTarget(target, "assign")
	p.tree.AddChild(id, target)
	p.expectKeyword("in")
	p.tree.AddChild(id, p.testlist())
	p.expectOp(":")
	p.tree.AddChild(id, p.suite(KindBody))
	p.elseClause(id)
	return p.close(id)
}

func (p *Parser) tryStmt() NodeID {
	id := p.open(KindTry, "", p.cur)
	p.next()
	p.expectOp(":")
	p.tree.AddChild(id, p.suite(KindBody))

	handlers := 0
	for p.isKeyword("except") {
		h := p.open(KindExceptHandler, "", p.cur)
		p.next()
		if !p.isOp(":") {
			p.tree.AddChild(h, p.test())
			if p.acceptOp(",") || p.isKeyword("as") {
				if p.isKeyword("as") {
					p.next()
				}
				name := p.test()
				p.checkTarget(name, "assign")
				p.tree.AddChild(h, name)
			}
		}
		p.expectOp(":")
		p.tree.AddChild(h, p.suite(KindBody))
		p.tree.AddChild(id, p.close(h))
		handlers++
	}
	if handlers > 0 {
		p.elseClause(id)
	}
	if p.isKeyword("finally") {
		p.next()
		p.expectOp(":")
		p.tree.AddChild(id, p.suite(KindFinalBody))
	} else if handlers == 0 {
		p.unexpected("expected 'except' or 'finally'")
	}
	return p.close(id)
}

func (p *Parser) withStmt() NodeID {
	id := p.open(KindWith, "", p.cur)
	p.next()
	p.tree.AddChild(id, p.test())
	if p.isKeyword("as") {
		p.next()
		target := p.expr()
		p.checkTarget(target, "assign")
		p.tree.AddChild(id, target)
	}
	p.expectOp(":")
	p.tree.AddChild(id, p.suite(KindBody))
	return p.close(id)
}

func (p *Parser) funcDef() NodeID {
	start := p.cur
	p.next()
	name := p.expectName()
	id := p.open(KindFunctionDef, name.Literal, start)
	p.expectOp("(")
	p.tree.AddChild(id, p.arguments(")"))
	p.expectOp(")")
	p.expectOp(":")
	p.tree.AddChild(id, p.suite(KindBody))
	return p.close(id)
}

func (p *Parser) classDef() NodeID {
	start := p.cur
	p.next()
	name := p.expectName()
	id := p.open(KindClassDef, name.Literal, start)
	if p.acceptOp("(") {
		for !p.isOp(")") {
			p.tree.AddChild(id, p.test())
			if !p.acceptOp(",") {
				break
			}
		}
		p.expectOp(")")
	}
	p.expectOp(":")
	p.tree.AddChild(id, p.suite(KindBody))
	return p.close(id)
}

// arguments parses a parameter list up to closer, which is left unconsumed.
func (p *Parser) arguments(closer string) NodeID {
	id := p.open(KindArguments, "", p.cur)
	for !p.isOp(closer) {
		start := p.cur
		prefix := ""
		if p.acceptOp("**") {
			prefix = "**"
		} else if p.acceptOp("*") {
			prefix = "*"
		}
		name := p.expectName()
		arg := p.open(KindArg, prefix+name.Literal, start)
		if prefix == "" && p.acceptOp("=") {
			p.tree.AddChild(arg, p.test())
		}
		p.tree.AddChild(id, p.close(arg))
		if !p.acceptOp(",") {
			break
		}
	}
	return p.close(id)
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// canStartTest reports whether cur can begin an expression.
func (p *Parser) canStartTest() bool {
	switch p.cur.Type {
	case TokenName, TokenNumber, TokenString:
		return true
	case TokenKeyword:
		return p.cur.Literal == "not" || p.cur.Literal == "lambda"
	case TokenOp:
		switch p.cur.Literal {
		case "(", "[", "{", "`", "-", "+", "~":
			return true
		}
	}
	return false
}

// testlist parses "test (',' test)* [',']"; a comma makes a Tuple.
func (p *Parser) testlist() NodeID {
	return p.sequence(p.test)
}

// exprlist is testlist without comparisons, for targets followed by "in".
func (p *Parser) exprlist() NodeID {
	return p.sequence(p.expr)
}

// exprItems parses an exprlist and returns its items unwrapped.
func (p *Parser) exprItems() []NodeID {
	id := p.exprlist()
	if p.tree.Kind(id) == KindTuple {
		items := p.tree.Children(id)
		for range items {
			p.tree.DeleteChild(id, 0)
		}
		return items
	}
	return []NodeID{id}
}

func (p *Parser) sequence(item func() NodeID) NodeID {
	first := item()
	if !p.isOp(",") {
		return first
	}
	id := p.openAt(KindTuple, "", first)
	p.tree.AddChild(id, first)
	for p.acceptOp(",") {
		if !p.canStartTest() {
			break
		}
		p.tree.AddChild(id, item())
	}
	return p.close(id)
}

func (p *Parser) test() NodeID {
	if p.isKeyword("lambda") {
		return p.lambda()
	}
	body := p.orTest()
	if !p.isKeyword("if") {
		return body
	}
	p.next()
	cond := p.orTest()
	p.expectKeyword("else")
	orelse := p.test()
	id := p.openAt(KindIfExp, "", body)
	return p.close(p.with(id, cond, body, orelse))
}

func (p *Parser) lambda() NodeID {
	id := p.open(KindLambda, "", p.cur)
	p.next()
	p.tree.AddChild(id, p.arguments(":"))
	p.expectOp(":")
	p.tree.AddChild(id, p.test())
	return p.close(id)
}

func (p *Parser) boolOp(op string, operand func() NodeID) NodeID {
	first := operand()
	if !p.isKeyword(op) {
		return first
	}
	id := p.openAt(KindBoolOp, op, first)
	p.tree.AddChild(id, first)
	for p.isKeyword(op) {
		p.next()
		p.tree.AddChild(id, operand())
	}
	return p.close(id)
}

func (p *Parser) orTest() NodeID {
	return p.boolOp("or", p.andTest)
}

func (p *Parser) andTest() NodeID {
	return p.boolOp("and", p.notTest)
}

func (p *Parser) notTest() NodeID {
	if p.isKeyword("not") {
		id := p.open(KindUnaryOp, "not", p.cur)
		p.next()
		p.tree.AddChild(id, p.notTest())
		return p.close(id)
	}
	return p.comparison()
}

// compOp consumes a comparison operator and returns it, or "".
func (p *Parser) compOp() string {
	switch p.cur.Type {
	case TokenOp:
		switch op := p.cur.Literal; op {
		case "<", ">", "==", ">=", "<=", "<>", "!=":
			p.next()
			return op
		}
	case TokenKeyword:
		switch p.cur.Literal {
		case "in":
			p.next()
			return "in"
		case "is":
			p.next()
			if p.isKeyword("not") {
				p.next()
				return "is not"
			}
			return "is"
		case "not":
			if next := p.peek(); next.Type == TokenKeyword && next.Literal == "in" {
				p.next()
				p.next()
				return "not in"
			}
		}
	}
	return ""
}

func (p *Parser) comparison() NodeID {
	left := p.expr()
	op := p.compOp()
	if op == "" {
		return left
	}
	id := p.openAt(KindCompare, "", left)
	p.tree.AddChild(id, left)
	var ops []string
	for op != "" {
		ops = append(ops, op)
		p.tree.AddChild(id, p.expr())
		op = p.compOp()
	}
	p.tree.Node(id).Text = strings.Join(ops, ",")
	return p.close(id)
}

// Binary operator levels, loosest first.
var binaryLevels = [][]string{
	{"|"},
	{"^"},
	{"&"},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "%", "//"},
}

func (p *Parser) expr() NodeID {
	return p.binary(0)
}

func (p *Parser) atBinaryOp(level int) bool {
	if p.cur.Type != TokenOp {
		return false
	}
	for _, op := range binaryLevels[level] {
		if p.cur.Literal == op {
			return true
		}
	}
	return false
}

func (p *Parser) binary(level int) NodeID {
	if level == len(binaryLevels) {
		return p.factor()
	}
	left := p.binary(level + 1)
	for p.atBinaryOp(level) {
		op := p.cur.Literal
		p.next()
		right := p.binary(level + 1)
		id := p.openAt(KindBinOp, op, left)
		left = p.close(p.with(id, left, right))
	}
	return left
}

func (p *Parser) factor() NodeID {
	if p.cur.Type == TokenOp {
		switch p.cur.Literal {
		case "+", "-", "~":
			id := p.open(KindUnaryOp, p.cur.Literal, p.cur)
			p.next()
			p.tree.AddChild(id, p.factor())
			return p.close(id)
		}
	}
	return p.power()
}

func (p *Parser) power() NodeID {
	base := p.trailers(p.atom())
	if !p.isOp("**") {
		return base
	}
	p.next()
	id := p.openAt(KindBinOp, "**", base)
	return p.close(p.with(id, base, p.factor()))
}

func (p *Parser) atom() NodeID {
	start := p.cur
	switch p.cur.Type {
	case TokenName:
		return p.close(p.leaf(KindName))
	case TokenNumber:
		return p.close(p.leaf(KindNum))
	case TokenString:
		id := p.open(KindStr, "", start)
		var parts []string
		multiline := false
		for p.cur.Type == TokenString {
			parts = append(parts, p.cur.Literal)
			multiline = multiline || p.cur.Multiline
			p.next()
		}
		n := p.tree.Node(id)
		n.Text = strings.Join(parts, " ")
		n.Multiline = multiline
		return p.close(id)
	case TokenOp:
		switch p.cur.Literal {
		case "(":
			p.next()
			if p.isOp(")") {
				id := p.open(KindTuple, "", start)
				p.next()
				return p.close(id)
			}
			inner := p.testlist()
			p.expectOp(")")
			if p.tree.Kind(inner) == KindTuple {
				n := p.tree.Node(inner)
				n.Span.Start, n.Span.StartToken = start.Pos.Offset, start.Index
				n.Span.Line, n.Span.Column = start.Pos.Line, start.Pos.Column
				p.close(inner)
			}
			return inner
		case "[":
			id := p.open(KindList, "", start)
			p.next()
			for !p.isOp("]") {
				p.tree.AddChild(id, p.test())
				if !p.acceptOp(",") {
					break
				}
			}
			p.expectOp("]")
			return p.close(id)
		case "{":
			return p.dictOrSet()
		case "`":
			id := p.open(KindUnaryOp, "`", start)
			p.next()
			p.tree.AddChild(id, p.testlist())
			p.expectOp("`")
			return p.close(id)
		}
	}
	p.unexpected("expected expression")
	return NoNode
}

func (p *Parser) dictOrSet() NodeID {
	start := p.cur
	p.next()
	if p.isOp("}") {
		id := p.open(KindDict, "", start)
		p.next()
		return p.close(id)
	}
	first := p.test()
	if p.acceptOp(":") {
		id := p.open(KindDict, "", start)
		p.with(id, first, p.test())
		for p.acceptOp(",") {
			if p.isOp("}") {
				break
			}
			key := p.test()
			p.expectOp(":")
			p.with(id, key, p.test())
		}
		p.expectOp("}")
		return p.close(id)
	}
	id := p.open(KindSet, "", start)
	p.tree.AddChild(id, first)
	for p.acceptOp(",") {
		if p.isOp("}") {
			break
		}
		p.tree.AddChild(id, p.test())
	}
	p.expectOp("}")
	return p.close(id)
}

func (p *Parser) trailers(value NodeID) NodeID {
	for {
		switch {
		case p.isOp("("):
			p.next()
			id := p.openAt(KindCall, "", value)
			p.tree.AddChild(id, value)
			for !p.isOp(")") {
				p.tree.AddChild(id, p.argument())
				if !p.acceptOp(",") {
					break
				}
			}
			p.expectOp(")")
			value = p.close(id)

		case p.isOp("["):
			p.next()
			id := p.openAt(KindSubscript, "", value)
			p.with(id, value, p.subscriptList())
			p.expectOp("]")
			value = p.close(id)

		case p.isOp("."):
			p.next()
			name := p.expectName()
			id := p.openAt(KindAttribute, name.Literal, value)
			value = p.close(p.with(id, value))

		default:
			return value
		}
	}
}

func (p *Parser) argument() NodeID {
	start := p.cur
	if p.isOp("*") || p.isOp("**") {
		id := p.open(KindStarred, p.cur.Literal, start)
		p.next()
		p.tree.AddChild(id, p.test())
		return p.close(id)
	}
	if p.cur.Type == TokenName {
		if next := p.peek(); next.Type == TokenOp && next.Literal == "=" {
			id := p.open(KindKeyword, p.cur.Literal, start)
			p.next()
			p.next()
			p.tree.AddChild(id, p.test())
			return p.close(id)
		}
	}
	return p.test()
}

func (p *Parser) subscriptList() NodeID {
	first := p.subscript()
	if !p.isOp(",") {
		return first
	}
	id := p.openAt(KindTuple, "", first)
	p.tree.AddChild(id, first)
	for p.acceptOp(",") {
		if p.isOp("]") {
			break
		}
		p.tree.AddChild(id, p.subscript())
	}
	return p.close(id)
}

func (p *Parser) subscript() NodeID {
	start := p.cur
	if p.isOp(".") && p.peek().Is(TokenOp, ".") {
		p.next()
		p.next()
		p.expectOp(".")
		return p.close(p.open(KindEllipsis, "...", start))
	}

	lower := NoNode
	if !p.isOp(":") {
		lower = p.test()
		if !p.isOp(":") {
			return lower
		}
	}
	id := p.open(KindSlice, "", start)
	p.next()
	if lower == NoNode {
		lower = p.open(KindEmpty, "", start)
	}
	upper := p.sliceBound()
	step := p.open(KindEmpty, "", p.cur)
	if p.acceptOp(":") {
		step = p.sliceBound()
	}
	return p.close(p.with(id, lower, upper, step))
}

func (p *Parser) sliceBound() NodeID {
	if p.isOp("]") || p.isOp(",") || p.isOp(":") {
		return p.open(KindEmpty, "", p.cur)
	}
	return p.test()
}
