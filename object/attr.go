package object

import (
	"errors"
	"sync"
)

// ---------------------------------------------------------------------------
// Attribute resolution
// ---------------------------------------------------------------------------

// genericGetattr remembers, per type, whether its effective
// __getattribute__ is one of the builtin implementations. Entries carry
// the type version they were computed at; a write to __getattribute__
// anywhere in the MRO bumps the version and retires the entry. Concurrent
// first use may compute the same entry twice; the value is the same.
var genericGetattr sync.Map // *Type -> genericEntry

type genericEntry struct {
	version uint64
	generic bool
}

func usesGenericGetattribute(t *Type) bool {
	ver := t.version.Load()
	if e, ok := genericGetattr.Load(t); ok {
		if entry := e.(genericEntry); entry.version == ver {
			return entry.generic
		}
	}
	hook, _ := t.Lookup("__getattribute__")
	generic := hook == Value(objectGetattribute) || hook == Value(typeGetattribute)
	genericGetattr.Store(t, genericEntry{version: ver, generic: generic})
	return generic
}

// GetAttr reads obj.name.
//
// Types with the builtin __getattribute__ take the fast path: a data
// descriptor on the type wins over the instance dictionary, which wins over
// other class attributes. Otherwise the custom __getattribute__ is called.
// If either path comes up empty, __getattr__ is tried. A failure is the
// AttributeError raised along the way, or a fresh one.
func GetAttr(obj Value, name string) (Value, error) {
	v, found, missing, err := getattr(obj, name)
	switch {
	case err != nil:
		return nil, err
	case found:
		return v, nil
	case missing != nil:
		return nil, missing
	}
	return nil, attributeError(obj, name)
}

// FindAttr is GetAttr for callers that treat a missing attribute as an
// ordinary outcome: it reports (nil, false, nil) instead of raising.
func FindAttr(obj Value, name string) (Value, bool, error) {
	v, found, _, err := getattr(obj, name)
	if err != nil {
		return nil, false, err
	}
	return v, found, nil
}

// getattr returns the value, or found=false with the AttributeError that
// a hook raised, if any. err carries every other failure.
func getattr(obj Value, name string) (v Value, found bool, missing *SignaledException, err error) {
	t := obj.Type()

	if usesGenericGetattribute(t) {
		v, found, err = genericGetAttr(obj, name)
	} else {
		hook, _ := t.Lookup("__getattribute__")
		var bound Value
		if bound, err = bindDescriptor(hook, obj, t); err == nil {
			v, err = Call(bound, Str(name))
			found = err == nil
		}
	}
	if err != nil {
		if se := asAttributeError(err); se != nil {
			missing, err = se, nil
		} else {
			return nil, false, nil, err
		}
	}
	if found {
		return v, true, nil, nil
	}

	if hook, ok := t.Lookup("__getattr__"); ok {
		bound, err := bindDescriptor(hook, obj, t)
		if err != nil {
			return nil, false, nil, err
		}
		v, err := Call(bound, Str(name))
		if err != nil {
			return nil, false, nil, err
		}
		return v, true, nil, nil
	}
	return nil, false, missing, nil
}

func asAttributeError(err error) *SignaledException {
	var se *SignaledException
	if errors.As(err, &se) && se.Matches(AttributeErrorType) {
		return se
	}
	return nil
}

// genericGetAttr is the builtin __getattribute__. A miss is reported as
// found=false.
func genericGetAttr(obj Value, name string) (Value, bool, error) {
	if tp, ok := obj.(*Type); ok {
		return typeGetAttr(tp, name)
	}
	t := obj.Type()
	descr, ok := t.Lookup(name)
	if ok && IsDataDescriptor(descr) {
		v, err := bindDescriptor(descr, obj, t)
		return v, err == nil, err
	}
	if d := dictOf(obj); d != nil {
		if v, ok := d[name]; ok {
			return v, true, nil
		}
	}
	if ok {
		v, err := bindDescriptor(descr, obj, t)
		return v, err == nil, err
	}
	return nil, false, nil
}

// typeGetAttr resolves an attribute of a class: data descriptors on the
// metatype first, then the class's own MRO, then the rest of the metatype.
func typeGetAttr(tp *Type, name string) (Value, bool, error) {
	meta := tp.Type()
	metaAttr, metaOK := meta.Lookup(name)
	if metaOK && IsDataDescriptor(metaAttr) {
		v, err := bindDescriptor(metaAttr, tp, meta)
		return v, err == nil, err
	}
	if v, ok := tp.Lookup(name); ok {
		if g, ok := asGetter(v); ok {
			v, err := g.DescrGet(nil, tp)
			return v, err == nil, err
		}
		return v, true, nil
	}
	if metaOK {
		v, err := bindDescriptor(metaAttr, tp, meta)
		return v, err == nil, err
	}
	return nil, false, nil
}

func attributeError(obj Value, name string) *SignaledException {
	if tp, ok := obj.(*Type); ok {
		return Errorf(AttributeErrorType, "type object '%s' has no attribute '%s'", tp.Name, name)
	}
	return Errorf(AttributeErrorType, "'%s' object has no attribute '%s'", TypeName(obj), name)
}

// SetAttr assigns obj.name = value. A custom __setattr__ is honoured;
// otherwise a data descriptor on the type handles the write, or it lands
// in the instance dictionary. Writing an attribute of a class updates the
// class dictionary and invalidates cached lookups.
func SetAttr(obj Value, name string, value Value) error {
	t := obj.Type()
	if hook, ok := t.Lookup("__setattr__"); ok && hook != Value(objectSetattr) {
		bound, err := bindDescriptor(hook, obj, t)
		if err != nil {
			return err
		}
		_, err = Call(bound, Str(name), value)
		return err
	}
	return genericSetAttr(obj, name, value)
}

func genericSetAttr(obj Value, name string, value Value) error {
	t := obj.Type()
	descr, ok := t.Lookup(name)
	if ok {
		if s, isSetter := asSetter(descr); isSetter {
			return s.DescrSet(obj, value)
		}
	}
	if tp, isType := obj.(*Type); isType {
		tp.SetDictItem(name, value)
		return nil
	}
	d := dictOf(obj)
	if d == nil {
		if ok {
			return Errorf(AttributeErrorType, "'%s' object attribute '%s' is read-only", t.Name, name)
		}
		return attributeError(obj, name)
	}
	d[name] = value
	return nil
}

// DelAttr deletes obj.name, through a data descriptor when there is one.
func DelAttr(obj Value, name string) error {
	t := obj.Type()
	if hook, ok := t.Lookup("__delattr__"); ok && hook != Value(objectDelattr) {
		bound, err := bindDescriptor(hook, obj, t)
		if err != nil {
			return err
		}
		_, err = Call(bound, Str(name))
		return err
	}
	return genericDelAttr(obj, name)
}

func genericDelAttr(obj Value, name string) error {
	t := obj.Type()
	descr, ok := t.Lookup(name)
	if ok {
		if d, isDeleter := asDeleter(descr); isDeleter {
			return d.DescrDelete(obj)
		}
	}
	if tp, isType := obj.(*Type); isType {
		if !tp.DelDictItem(name) {
			return attributeError(obj, name)
		}
		return nil
	}
	d := dictOf(obj)
	if d == nil {
		if ok {
			return Errorf(AttributeErrorType, "'%s' object attribute '%s' is read-only", t.Name, name)
		}
		return attributeError(obj, name)
	}
	if _, present := d[name]; !present {
		return attributeError(obj, name)
	}
	delete(d, name)
	return nil
}
