package compiler

// OutlineKind classifies an outline entry.
type OutlineKind string

const (
	OutlineClass    OutlineKind = "class"
	OutlineFunction OutlineKind = "function"
	OutlineMethod   OutlineKind = "method"
	OutlineVariable OutlineKind = "variable"
)

// OutlineEntry is one named definition in a module.
type OutlineEntry struct {
	Name      string // simple name
	Qualified string // dotted path from the module, e.g. Outer.inner
	Kind      OutlineKind
	Line      int // 1-based
	Column    int // 0-based
	Start     int // byte offsets of the whole definition
	Stop      int
	Node      NodeID
	Children  []*OutlineEntry
}

// Outline lists the classes, functions and module-level variables of t.
// Definitions nested in if/try/while/for/with blocks belong to the
// enclosing scope.
func Outline(t *Tree) []*OutlineEntry {
	if t.Root() == NoNode {
		return nil
	}
	o := &outliner{tree: t, seen: make(map[string]bool)}
	return o.scope(t.Root(), "", false, true)
}

type outliner struct {
	tree *Tree
	seen map[string]bool // module-level variables already listed
}

func (o *outliner) entry(id NodeID, name, prefix string, kind OutlineKind) *OutlineEntry {
	sp := o.tree.Span(id)
	qualified := name
	if prefix != "" {
		qualified = prefix + "." + name
	}
	return &OutlineEntry{
		Name:      name,
		Qualified: qualified,
		Kind:      kind,
		Line:      sp.Line,
		Column:    sp.Column,
		Start:     sp.Start,
		Stop:      sp.Stop,
		Node:      id,
	}
}

// scope collects the entries among the statements under parent.
func (o *outliner) scope(parent NodeID, prefix string, inClass, module bool) []*OutlineEntry {
	var out []*OutlineEntry
	for _, id := range o.tree.Children(parent) {
		switch o.tree.Kind(id) {
		case KindClassDef:
			e := o.entry(id, o.tree.Text(id), prefix, OutlineClass)
			if body := o.tree.ChildOfKind(id, KindBody); body != NoNode {
				e.Children = o.scope(body, e.Qualified, true, false)
			}
			out = append(out, e)

		case KindFunctionDef:
			kind := OutlineFunction
			if inClass {
				kind = OutlineMethod
			}
			e := o.entry(id, o.tree.Text(id), prefix, kind)
			if body := o.tree.ChildOfKind(id, KindBody); body != NoNode {
				e.Children = o.scope(body, e.Qualified, false, false)
			}
			out = append(out, e)

		case KindAssign:
			if !module {
				continue
			}
			n := o.tree.NumChildren(id)
			for i := 0; i < n-1; i++ {
				out = append(out, o.targets(o.tree.Child(id, i), prefix)...)
			}

		case KindIf, KindWhile, KindFor, KindTry, KindWith,
			KindBody, KindOrElse, KindFinalBody, KindExceptHandler:
			out = append(out, o.scope(id, prefix, inClass, module)...)
		}
	}
	return out
}

// targets lists the plain names bound by an assignment target.
func (o *outliner) targets(id NodeID, prefix string) []*OutlineEntry {
	switch o.tree.Kind(id) {
	case KindName:
		name := o.tree.Text(id)
		if o.seen[name] {
			return nil
		}
		o.seen[name] = true
		return []*OutlineEntry{o.entry(id, name, prefix, OutlineVariable)}
	case KindTuple, KindList:
		var out []*OutlineEntry
		for _, c := range o.tree.Children(id) {
			out = append(out, o.targets(c, prefix)...)
		}
		return out
	}
	return nil
}

// Flatten returns entries and all their descendants in pre-order.
func Flatten(entries []*OutlineEntry) []*OutlineEntry {
	var out []*OutlineEntry
	for _, e := range entries {
		out = append(out, e)
		out = append(out, Flatten(e.Children)...)
	}
	return out
}
