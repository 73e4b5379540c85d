package compiler

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Parse tree: arena-owned nodes addressed by NodeID
// ---------------------------------------------------------------------------

// NodeID addresses a node inside its Tree.
type NodeID int32

// NoNode is the parent of a root and the result of failed lookups.
const NoNode NodeID = -1

// Kind tags a node with the production that built it.
type Kind uint8

const (
	// Roots
	KindModule Kind = iota
	KindInteractive
	KindExpression
	KindErrorMod

	// Statements
	KindExprStmt
	KindAssign
	KindAugAssign
	KindPass
	KindBreak
	KindContinue
	KindReturn
	KindRaise
	KindDelete
	KindGlobal
	KindAssert
	KindImport
	KindImportFrom
	KindAlias
	KindIf
	KindWhile
	KindFor
	KindTry
	KindExceptHandler
	KindWith
	KindFunctionDef
	KindClassDef
	KindArguments
	KindArg
	KindBody
	KindOrElse
	KindFinalBody
	KindErrorStmt

	// Expressions
	KindBoolOp
	KindBinOp
	KindUnaryOp
	KindCompare
	KindIfExp
	KindLambda
	KindCall
	KindKeyword
	KindStarred
	KindAttribute
	KindSubscript
	KindSlice
	KindEllipsis
	KindEmpty
	KindName
	KindNum
	KindStr
	KindTuple
	KindList
	KindDict
	KindSet
	KindErrorExpr
)

var kindNames = [...]string{
	KindModule:        "Module",
	KindInteractive:   "Interactive",
	KindExpression:    "Expression",
	KindErrorMod:      "ErrorMod",
	KindExprStmt:      "ExprStmt",
	KindAssign:        "Assign",
	KindAugAssign:     "AugAssign",
	KindPass:          "Pass",
	KindBreak:         "Break",
	KindContinue:      "Continue",
	KindReturn:        "Return",
	KindRaise:         "Raise",
	KindDelete:        "Delete",
	KindGlobal:        "Global",
	KindAssert:        "Assert",
	KindImport:        "Import",
	KindImportFrom:    "ImportFrom",
	KindAlias:         "Alias",
	KindIf:            "If",
	KindWhile:         "While",
	KindFor:           "For",
	KindTry:           "Try",
	KindExceptHandler: "ExceptHandler",
	KindWith:          "With",
	KindFunctionDef:   "FunctionDef",
	KindClassDef:      "ClassDef",
	KindArguments:     "Arguments",
	KindArg:           "Arg",
	KindBody:          "Body",
	KindOrElse:        "OrElse",
	KindFinalBody:     "FinalBody",
	KindErrorStmt:     "ErrorStmt",
	KindBoolOp:        "BoolOp",
	KindBinOp:         "BinOp",
	KindUnaryOp:       "UnaryOp",
	KindCompare:       "Compare",
	KindIfExp:         "IfExp",
	KindLambda:        "Lambda",
	KindCall:          "Call",
	KindKeyword:       "Keyword",
	KindStarred:       "Starred",
	KindAttribute:     "Attribute",
	KindSubscript:     "Subscript",
	KindSlice:         "Slice",
	KindEllipsis:      "Ellipsis",
	KindEmpty:         "Empty",
	KindName:          "Name",
	KindNum:           "Num",
	KindStr:           "Str",
	KindTuple:         "Tuple",
	KindList:          "List",
	KindDict:          "Dict",
	KindSet:           "Set",
	KindErrorExpr:     "ErrorExpr",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsError reports whether k is one of the placeholder kinds produced by
// error recovery.
func (k Kind) IsError() bool {
	return k == KindErrorMod || k == KindErrorStmt || k == KindErrorExpr
}

// Span locates a node in the token stream and in the source.
type Span struct {
	StartToken int // raw index of the first token, -1 if synthetic
	StopToken  int // raw index of the last token, -1 if synthetic
	Start      int // byte offset of the first character
	Stop       int // byte offset just past the last character
	Line       int // 1-based line of the first token
	Column     int // 0-based column of the first token
}

// Node is a single parse tree node. Fields other than Kind, Text and Span
// are maintained by the Tree.
type Node struct {
	Kind Kind
	Text string
	Span Span

	// Multiline is set on string nodes spanning more than one line.
	Multiline bool

	parent   NodeID
	index    int
	children []NodeID
}

// Tree owns every node of a parse. Parents refer to children by ID and
// children keep a non-owning parent ID plus their index in the parent.
type Tree struct {
	nodes    []Node
	root     NodeID
	comments []Token
	filename string
}

// NewTree returns an empty tree.
func NewTree(filename string) *Tree {
	return &Tree{root: NoNode, filename: filename}
}

// Filename is the source name the tree was parsed from.
func (t *Tree) Filename() string { return t.filename }

// New allocates a detached node.
func (t *Tree) New(kind Kind, text string, span Span) NodeID {
	t.nodes = append(t.nodes, Node{Kind: kind, Text: text, Span: span, parent: NoNode, index: -1})
	return NodeID(len(t.nodes) - 1)
}

// Len returns the number of allocated nodes, attached or not.
func (t *Tree) Len() int { return len(t.nodes) }

// Root returns the root node, or NoNode for an empty tree.
func (t *Tree) Root() NodeID { return t.root }

// SetRoot makes id the root.
func (t *Tree) SetRoot(id NodeID) {
	t.root = id
	t.nodes[id].parent = NoNode
	t.nodes[id].index = -1
}

// Node returns the node for id. The pointer is invalidated by New.
func (t *Tree) Node(id NodeID) *Node { return &t.nodes[id] }

// Kind returns the kind of id.
func (t *Tree) Kind(id NodeID) Kind { return t.nodes[id].Kind }

// Text returns the text of id.
func (t *Tree) Text(id NodeID) string { return t.nodes[id].Text }

// Span returns the span of id.
func (t *Tree) Span(id NodeID) Span { return t.nodes[id].Span }

// Parent returns the parent of id, NoNode for roots and detached nodes.
func (t *Tree) Parent(id NodeID) NodeID { return t.nodes[id].parent }

// ChildIndex returns the position of id in its parent, -1 if detached.
func (t *Tree) ChildIndex(id NodeID) int { return t.nodes[id].index }

// Children returns a copy of the children of id.
func (t *Tree) Children(id NodeID) []NodeID {
	out := make([]NodeID, len(t.nodes[id].children))
	copy(out, t.nodes[id].children)
	return out
}

// NumChildren returns the number of children of id.
func (t *Tree) NumChildren(id NodeID) int { return len(t.nodes[id].children) }

// Child returns the i'th child of id, or NoNode when out of range.
func (t *Tree) Child(id NodeID, i int) NodeID {
	ch := t.nodes[id].children
	if i < 0 || i >= len(ch) {
		return NoNode
	}
	return ch[i]
}

// ChildOfKind returns the first child of id with the given kind.
func (t *Tree) ChildOfKind(id NodeID, kind Kind) NodeID {
	for _, c := range t.nodes[id].children {
		if t.nodes[c].Kind == kind {
			return c
		}
	}
	return NoNode
}

// ---------------------------------------------------------------------------
// Structural edits
// ---------------------------------------------------------------------------

// detach removes id from its current parent, if any.
func (t *Tree) detach(id NodeID) {
	p := t.nodes[id].parent
	if p == NoNode {
		return
	}
	i := t.nodes[id].index
	ch := t.nodes[p].children
	if i >= 0 && i < len(ch) && ch[i] == id {
		t.nodes[p].children = append(ch[:i], ch[i+1:]...)
		t.freshen(p, i)
	}
	t.nodes[id].parent = NoNode
	t.nodes[id].index = -1
}

// freshen rewrites parent links and child indexes from position from on.
func (t *Tree) freshen(parent NodeID, from int) {
	for i := from; i < len(t.nodes[parent].children); i++ {
		c := t.nodes[parent].children[i]
		t.nodes[c].parent = parent
		t.nodes[c].index = i
	}
}

// AddChild appends child to parent. A child attached elsewhere is moved.
func (t *Tree) AddChild(parent, child NodeID) {
	if child == NoNode {
		return
	}
	t.detach(child)
	t.nodes[parent].children = append(t.nodes[parent].children, child)
	t.freshen(parent, len(t.nodes[parent].children)-1)
}

// InsertChild places child at position i of parent, shifting later
// children right.
func (t *Tree) InsertChild(parent NodeID, i int, child NodeID) {
	t.detach(child)
	ch := t.nodes[parent].children
	if i < 0 {
		i = 0
	}
	if i > len(ch) {
		i = len(ch)
	}
	ch = append(ch, NoNode)
	copy(ch[i+1:], ch[i:])
	ch[i] = child
	t.nodes[parent].children = ch
	t.freshen(parent, i)
}

// SetChild replaces the i'th child of parent. The old child is detached.
func (t *Tree) SetChild(parent NodeID, i int, child NodeID) {
	ch := t.nodes[parent].children
	if i < 0 || i >= len(ch) {
		return
	}
	t.detach(child)
	old := t.nodes[parent].children[i]
	t.nodes[old].parent = NoNode
	t.nodes[old].index = -1
	t.nodes[parent].children[i] = child
	t.freshen(parent, i)
}

// DeleteChild removes and returns the i'th child of parent.
func (t *Tree) DeleteChild(parent NodeID, i int) NodeID {
	c := t.Child(parent, i)
	if c != NoNode {
		t.detach(c)
	}
	return c
}

// ReplaceChildren replaces the children of parent from start to stop
// inclusive with ids. The replacement may be shorter, longer, or empty.
func (t *Tree) ReplaceChildren(parent NodeID, start, stop int, ids ...NodeID) error {
	ch := t.nodes[parent].children
	if start < 0 || stop >= len(ch) || start > stop {
		return fmt.Errorf("replace children %d..%d of %s: out of range (%d children)",
			start, stop, t.nodes[parent].Kind, len(ch))
	}
	moving := make(map[NodeID]bool, len(ids))
	for _, id := range ids {
		moving[id] = true
		if t.nodes[id].parent != parent {
			t.detach(id)
		}
	}
	for _, old := range ch[start : stop+1] {
		if !moving[old] {
			t.nodes[old].parent = NoNode
			t.nodes[old].index = -1
		}
	}
	out := make([]NodeID, 0, len(ch)-(stop-start+1)+len(ids))
	for _, c := range ch[:start] {
		if !moving[c] {
			out = append(out, c)
		}
	}
	out = append(out, ids...)
	for _, c := range ch[stop+1:] {
		if !moving[c] {
			out = append(out, c)
		}
	}
	t.nodes[parent].children = out
	t.freshen(parent, 0)
	return nil
}

// ---------------------------------------------------------------------------
// Traversal and rendering
// ---------------------------------------------------------------------------

// Walk visits id and its descendants depth first. Returning false from fn
// skips the children of that node.
func (t *Tree) Walk(id NodeID, fn func(id NodeID, depth int) bool) {
	t.walk(id, 0, fn)
}

func (t *Tree) walk(id NodeID, depth int, fn func(NodeID, int) bool) {
	if id == NoNode || !fn(id, depth) {
		return
	}
	for _, c := range t.nodes[id].children {
		t.walk(c, depth+1, fn)
	}
}

// StringTree renders the subtree at id as an s-expression, e.g.
// (Module (Assign (Name x) (Num 1))).
func (t *Tree) StringTree(id NodeID) string {
	var sb strings.Builder
	t.writeTree(&sb, id)
	return sb.String()
}

func (t *Tree) writeTree(sb *strings.Builder, id NodeID) {
	if id == NoNode {
		sb.WriteString("nil")
		return
	}
	n := &t.nodes[id]
	sb.WriteByte('(')
	sb.WriteString(n.Kind.String())
	if n.Text != "" {
		sb.WriteByte(' ')
		sb.WriteString(n.Text)
	}
	for _, c := range n.children {
		sb.WriteByte(' ')
		t.writeTree(sb, c)
	}
	sb.WriteByte(')')
}

// String renders the whole tree.
func (t *Tree) String() string {
	if t.root == NoNode {
		return "nil"
	}
	return t.StringTree(t.root)
}

// Comments returns the hidden comment tokens seen during the parse, in
// source order.
func (t *Tree) Comments() []Token { return t.comments }

func (t *Tree) addComment(tok Token) {
	t.comments = append(t.comments, tok)
}

// ColOffset returns the column of id. Multi-line string literals report -1
// so that column accounting never treats their start as an indentation.
func (t *Tree) ColOffset(id NodeID) int {
	n := &t.nodes[id]
	if n.Kind == KindStr && n.Multiline {
		return -1
	}
	return n.Span.Column
}
