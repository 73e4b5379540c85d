package object

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// Type: the class of a value
// ---------------------------------------------------------------------------

// Type describes a class: its bases, its method resolution order and its
// attribute dictionary. A type is itself a value whose type is its
// metatype.
//
// The dictionary is guarded by a lock so that types may be shared across
// goroutines. Lookups through the MRO are memoized per type; the memo is
// stamped with the type's version, which is bumped whenever the dictionary
// of the type or of any of its ancestors is written.
type Type struct {
	Name string

	meta  *Type
	bases []*Type
	mro   []*Type

	mu   sync.RWMutex
	dict map[string]Value

	version atomic.Uint64
	cache   sync.Map // string -> lookupEntry

	subclasses []*Type // guarded by hierarchyMu

	hasDict bool
	final   bool
	newFn   func(t *Type, args []Value) (Value, error)
}

type lookupEntry struct {
	version uint64
	value   Value
	found   bool
}

// hierarchyMu guards the subclass lists of every type.
var hierarchyMu sync.Mutex

// TypeOption configures NewType.
type TypeOption func(*Type)

// WithMetatype sets the metatype explicitly. It must derive from type.
func WithMetatype(meta *Type) TypeOption {
	return func(t *Type) { t.meta = meta }
}

// WithoutDict makes instances of the type carry no attribute dictionary;
// only descriptors can store state on them.
func WithoutDict() TypeOption {
	return func(t *Type) { t.hasDict = false }
}

// NewType creates a class. With no bases the class derives from object.
// The metatype is the most derived metatype among the bases unless given.
// A hierarchy with no consistent C3 linearization is a TypeError.
func NewType(name string, bases []*Type, dict map[string]Value, opts ...TypeOption) (*Type, error) {
	if len(bases) == 0 {
		bases = []*Type{ObjectType}
	}
	t := &Type{
		Name:    name,
		bases:   append([]*Type(nil), bases...),
		dict:    make(map[string]Value, len(dict)),
		hasDict: true,
	}
	for _, opt := range opts {
		opt(t)
	}

	seen := make(map[*Type]bool, len(bases))
	for _, b := range bases {
		if b == nil {
			return nil, Errorf(TypeErrorType, "bases of %s must be types", name)
		}
		if b.final {
			return nil, Errorf(TypeErrorType, "type '%s' is not an acceptable base type", b.Name)
		}
		if seen[b] {
			return nil, Errorf(TypeErrorType, "duplicate base class %s", b.Name)
		}
		seen[b] = true
	}

	meta, err := resolveMetatype(t.meta, bases)
	if err != nil {
		return nil, err
	}
	t.meta = meta

	mro, err := linearize(t, bases)
	if err != nil {
		return nil, err
	}
	t.mro = mro

	for k, v := range dict {
		t.dict[k] = v
	}

	hierarchyMu.Lock()
	for _, b := range bases {
		b.subclasses = append(b.subclasses, t)
	}
	hierarchyMu.Unlock()
	return t, nil
}

// resolveMetatype picks the metatype that is a subclass of every base's
// metatype.
func resolveMetatype(explicit *Type, bases []*Type) (*Type, error) {
	meta := explicit
	if meta == nil {
		meta = TypeType
	} else if !meta.IsSubclassOf(TypeType) {
		return nil, Errorf(TypeErrorType, "metatype '%s' does not derive from type", meta.Name)
	}
	for _, b := range bases {
		bm := b.meta
		switch {
		case meta.IsSubclassOf(bm):
		case bm.IsSubclassOf(meta):
			meta = bm
		default:
			return nil, Errorf(TypeErrorType,
				"metaclass conflict: the metaclass of a derived class must be a (non-strict) subclass of the metaclasses of all its bases")
		}
	}
	return meta, nil
}

// linearize computes the C3 method resolution order of t.
func linearize(t *Type, bases []*Type) ([]*Type, error) {
	seqs := make([][]*Type, 0, len(bases)+1)
	for _, b := range bases {
		seqs = append(seqs, append([]*Type(nil), b.mro...))
	}
	seqs = append(seqs, append([]*Type(nil), bases...))

	out := []*Type{t}
	for {
		live := seqs[:0]
		for _, s := range seqs {
			if len(s) > 0 {
				live = append(live, s)
			}
		}
		seqs = live
		if len(seqs) == 0 {
			return out, nil
		}

		var head *Type
		for _, s := range seqs {
			if !inTail(s[0], seqs) {
				head = s[0]
				break
			}
		}
		if head == nil {
			names := make([]string, len(bases))
			for i, b := range bases {
				names[i] = b.Name
			}
			return nil, Errorf(TypeErrorType,
				"Cannot create a consistent method resolution order (MRO) for bases %s",
				strings.Join(names, ", "))
		}

		out = append(out, head)
		for i, s := range seqs {
			if s[0] == head {
				seqs[i] = s[1:]
			}
		}
	}
}

func inTail(t *Type, seqs [][]*Type) bool {
	for _, s := range seqs {
		for _, x := range s[1:] {
			if x == t {
				return true
			}
		}
	}
	return false
}

// newBuiltinType creates one of the types the runtime itself depends on.
func newBuiltinType(name string, meta *Type, bases ...*Type) *Type {
	t := &Type{Name: name, meta: meta, bases: bases, dict: make(map[string]Value), hasDict: true}
	mro, err := linearize(t, bases)
	if err != nil {
		panic("object: bad builtin hierarchy for " + name)
	}
	t.mro = mro
	for _, b := range bases {
		b.subclasses = append(b.subclasses, t)
	}
	return t
}

// Type returns the metatype.
func (t *Type) Type() *Type { return t.meta }

// Bases returns the direct bases.
func (t *Type) Bases() []*Type {
	return append([]*Type(nil), t.bases...)
}

// MRO returns the method resolution order, starting with t itself.
func (t *Type) MRO() []*Type {
	return append([]*Type(nil), t.mro...)
}

// IsSubclassOf reports whether other appears in the MRO of t.
func (t *Type) IsSubclassOf(other *Type) bool {
	for _, m := range t.mro {
		if m == other {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Dictionary and lookup
// ---------------------------------------------------------------------------

// DictItem reads name from the type's own dictionary.
func (t *Type) DictItem(name string) (Value, bool) {
	t.mu.RLock()
	v, ok := t.dict[name]
	t.mu.RUnlock()
	return v, ok
}

// SetDictItem writes name in the type's own dictionary and invalidates the
// lookup caches of t and its subclasses.
func (t *Type) SetDictItem(name string, v Value) {
	t.mu.Lock()
	t.dict[name] = v
	t.mu.Unlock()
	t.invalidate()
}

// DelDictItem removes name from the type's own dictionary.
func (t *Type) DelDictItem(name string) bool {
	t.mu.Lock()
	_, ok := t.dict[name]
	delete(t.dict, name)
	t.mu.Unlock()
	if ok {
		t.invalidate()
	}
	return ok
}

// DictKeys returns the names defined directly on t, sorted.
func (t *Type) DictKeys() []string {
	t.mu.RLock()
	keys := make([]string, 0, len(t.dict))
	for k := range t.dict {
		keys = append(keys, k)
	}
	t.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

func (t *Type) invalidate() {
	t.version.Add(1)
	hierarchyMu.Lock()
	subs := append([]*Type(nil), t.subclasses...)
	hierarchyMu.Unlock()
	for _, s := range subs {
		s.invalidate()
	}
}

// Lookup finds name along the MRO and returns the raw class attribute,
// without invoking descriptors.
func (t *Type) Lookup(name string) (Value, bool) {
	ver := t.version.Load()
	if e, ok := t.cache.Load(name); ok {
		if entry := e.(lookupEntry); entry.version == ver {
			return entry.value, entry.found
		}
	}
	v, found := t.lookupUncached(name)
	t.cache.Store(name, lookupEntry{version: ver, value: v, found: found})
	return v, found
}

func (t *Type) lookupUncached(name string) (Value, bool) {
	for _, m := range t.mro {
		if v, ok := m.DictItem(name); ok {
			return v, true
		}
	}
	return nil, false
}

// allocator returns the constructor of the nearest builtin ancestor that
// has one.
func (t *Type) allocator() func(*Type, []Value) (Value, error) {
	for _, m := range t.mro {
		if m.newFn != nil {
			return m.newFn
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Subclass checks
// ---------------------------------------------------------------------------

// IsSubclass implements issubclass(derived, cls). cls may be a type or a
// tuple of types. A metatype defining __subclasscheck__ decides for its
// instances; errors raised by that hook are returned.
func IsSubclass(derived *Type, cls Value) (bool, error) {
	switch c := cls.(type) {
	case *Tuple:
		for _, item := range c.Items {
			ok, err := IsSubclass(derived, item)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil

	case *Type:
		if meta := c.Type(); meta != TypeType {
			if hook, ok := meta.Lookup("__subclasscheck__"); ok {
				bound, err := bindDescriptor(hook, c, meta)
				if err != nil {
					return false, err
				}
				r, err := Call(bound, derived)
				if err != nil {
					return false, err
				}
				return Truthy(r), nil
			}
		}
		return derived.IsSubclassOf(c), nil
	}
	return false, Errorf(TypeErrorType, "issubclass() arg 2 must be a class or tuple of classes")
}
