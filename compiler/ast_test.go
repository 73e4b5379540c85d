package compiler

import "testing"

// buildList returns a tree (List a b c d) and the ids of its items.
func buildList(names ...string) (*Tree, NodeID, []NodeID) {
	t := NewTree("")
	root := t.New(KindList, "", Span{})
	t.SetRoot(root)
	var ids []NodeID
	for _, n := range names {
		id := t.New(KindName, n, Span{})
		t.AddChild(root, id)
		ids = append(ids, id)
	}
	return t, root, ids
}

// checkLinks verifies that every child of id points back at id with its
// own position.
func checkLinks(t *testing.T, tree *Tree, id NodeID) {
	t.Helper()
	for i, c := range tree.Children(id) {
		if tree.Parent(c) != id || tree.ChildIndex(c) != i {
			t.Errorf("child %d (%s) has parent %d index %d, want %d and %d",
				i, tree.Text(c), tree.Parent(c), tree.ChildIndex(c), id, i)
		}
		checkLinks(t, tree, c)
	}
}

func TestTreeAddAndDelete(t *testing.T) {
	tree, root, ids := buildList("a", "b", "c")
	if got := tree.String(); got != "(List (Name a) (Name b) (Name c))" {
		t.Fatalf("tree = %s", got)
	}
	if c := tree.DeleteChild(root, 1); c != ids[1] {
		t.Errorf("DeleteChild returned %d, want %d", c, ids[1])
	}
	if tree.Parent(ids[1]) != NoNode || tree.ChildIndex(ids[1]) != -1 {
		t.Error("deleted child still linked")
	}
	if got := tree.String(); got != "(List (Name a) (Name c))" {
		t.Errorf("after delete = %s", got)
	}
	checkLinks(t, tree, root)

	if c := tree.DeleteChild(root, 7); c != NoNode {
		t.Errorf("DeleteChild out of range = %d", c)
	}
}

func TestTreeInsertAndSet(t *testing.T) {
	tree, root, _ := buildList("a", "c")
	b := tree.New(KindName, "b", Span{})
	tree.InsertChild(root, 1, b)
	z := tree.New(KindName, "z", Span{})
	tree.InsertChild(root, 99, z)
	if got := tree.String(); got != "(List (Name a) (Name b) (Name c) (Name z))" {
		t.Errorf("after insert = %s", got)
	}
	checkLinks(t, tree, root)

	old := tree.Child(root, 3)
	y := tree.New(KindName, "y", Span{})
	tree.SetChild(root, 3, y)
	if tree.Parent(old) != NoNode {
		t.Error("replaced child still has a parent")
	}
	if got := tree.String(); got != "(List (Name a) (Name b) (Name c) (Name y))" {
		t.Errorf("after set = %s", got)
	}
	checkLinks(t, tree, root)
}

func TestTreeAddChildMoves(t *testing.T) {
	tree, root, ids := buildList("a", "b")
	other := tree.New(KindTuple, "", Span{})
	tree.AddChild(root, other)
	tree.AddChild(other, ids[0])
	if got := tree.String(); got != "(List (Name b) (Tuple (Name a)))" {
		t.Errorf("tree = %s", got)
	}
	checkLinks(t, tree, root)
}

func TestTreeReplaceChildren(t *testing.T) {
	tests := []struct {
		name        string
		start, stop int
		with        []string
		want        string
	}{
		{"same length", 1, 2, []string{"x", "y"}, "(List (Name a) (Name x) (Name y) (Name d))"},
		{"shorter", 0, 2, []string{"x"}, "(List (Name x) (Name d))"},
		{"longer", 3, 3, []string{"x", "y", "z"}, "(List (Name a) (Name b) (Name c) (Name x) (Name y) (Name z))"},
		{"empty", 1, 3, nil, "(List (Name a))"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tree, root, _ := buildList("a", "b", "c", "d")
			var ids []NodeID
			for _, n := range tc.with {
				ids = append(ids, tree.New(KindName, n, Span{}))
			}
			if err := tree.ReplaceChildren(root, tc.start, tc.stop, ids...); err != nil {
				t.Fatal(err)
			}
			if got := tree.String(); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
			checkLinks(t, tree, root)
		})
	}
}

func TestTreeReplaceChildrenWithSiblings(t *testing.T) {
	tree, root, ids := buildList("a", "b", "c", "d")
	// swap b and c by replacing them with themselves in reverse order
	if err := tree.ReplaceChildren(root, 1, 2, ids[2], ids[1]); err != nil {
		t.Fatal(err)
	}
	if got := tree.String(); got != "(List (Name a) (Name c) (Name b) (Name d))" {
		t.Errorf("swap = %s", got)
	}
	checkLinks(t, tree, root)

	// pull d into the front
	if err := tree.ReplaceChildren(root, 0, 0, ids[3]); err != nil {
		t.Fatal(err)
	}
	if got := tree.String(); got != "(List (Name d) (Name c) (Name b))" {
		t.Errorf("pull = %s", got)
	}
	checkLinks(t, tree, root)
	if tree.Parent(ids[0]) != NoNode {
		t.Error("replaced node a still attached")
	}
}

func TestTreeReplaceChildrenRange(t *testing.T) {
	tree, root, _ := buildList("a", "b")
	for _, r := range [][2]int{{-1, 0}, {0, 2}, {1, 0}} {
		if err := tree.ReplaceChildren(root, r[0], r[1]); err == nil {
			t.Errorf("ReplaceChildren(%d, %d) should fail", r[0], r[1])
		}
	}
}

func TestTreeWalk(t *testing.T) {
	tree := parseTree(t, "if a:\n    b = 1\n", ModeModule)
	var kinds []Kind
	maxDepth := 0
	tree.Walk(tree.Root(), func(id NodeID, depth int) bool {
		kinds = append(kinds, tree.Kind(id))
		if depth > maxDepth {
			maxDepth = depth
		}
		return true
	})
	want := []Kind{KindModule, KindIf, KindName, KindBody, KindAssign, KindName, KindNum}
	if len(kinds) != len(want) {
		t.Fatalf("walk visited %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("visit %d = %s, want %s", i, kinds[i], want[i])
		}
	}
	if maxDepth != 4 {
		t.Errorf("max depth = %d, want 4", maxDepth)
	}

	count := 0
	tree.Walk(tree.Root(), func(id NodeID, depth int) bool {
		count++
		return tree.Kind(id) != KindIf
	})
	if count != 2 {
		t.Errorf("pruned walk visited %d nodes, want 2", count)
	}
}

func TestTreeParseLinks(t *testing.T) {
	tree := parseTree(t, "class C(B):\n    def m(self, x=[1, 2]):\n        return x[0]\n", ModeModule)
	checkLinks(t, tree, tree.Root())
}

func TestKindHelpers(t *testing.T) {
	for _, k := range []Kind{KindErrorMod, KindErrorStmt, KindErrorExpr} {
		if !k.IsError() {
			t.Errorf("%s.IsError() = false", k)
		}
	}
	if KindModule.IsError() {
		t.Error("Module reported as error")
	}
	if KindFunctionDef.String() != "FunctionDef" {
		t.Errorf("String = %q", KindFunctionDef.String())
	}
}
