package object

import (
	"errors"
	"sync"

	"github.com/tliron/commonlog"
)

var unraisableLog = commonlog.GetLogger("serpent.unraisable")

// UnraisableHook receives errors that occur where nothing can propagate
// them, such as inside exception matching. obj is the object involved.
type UnraisableHook func(err error, obj Value)

var (
	unraisableMu   sync.RWMutex
	unraisableHook UnraisableHook = logUnraisable
)

// SetUnraisableHook installs fn and returns a function that restores the
// previous hook.
func SetUnraisableHook(fn UnraisableHook) (restore func()) {
	unraisableMu.Lock()
	prev := unraisableHook
	unraisableHook = fn
	unraisableMu.Unlock()
	return func() {
		unraisableMu.Lock()
		unraisableHook = prev
		unraisableMu.Unlock()
	}
}

// WriteUnraisable reports err to the current hook.
func WriteUnraisable(err error, obj Value) {
	unraisableMu.RLock()
	hook := unraisableHook
	unraisableMu.RUnlock()
	if hook != nil {
		hook(err, obj)
	}
}

func logUnraisable(err error, obj Value) {
	var se *SignaledException
	if errors.As(err, &se) {
		unraisableLog.Errorf("exception ignored in %s: %s [%s]", Repr(obj), se.Error(), se.ID)
		return
	}
	unraisableLog.Errorf("exception ignored in %s: %s", Repr(obj), err)
}
