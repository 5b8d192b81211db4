package symtab

import (
	"github.com/ifabos/go-idlmap/errors"
)

// SymbolTable tracks the scopes of one IDL specification and the scope
// currently open while walking it
type SymbolTable struct {
	top     *Scope
	current *Scope
	// scopes to return to on close, innermost last
	open []*Scope
}

// New returns a table with only the unnamed top scope open
func New() *SymbolTable {
	top := newScope("", nil, false, false)
	return &SymbolTable{top: top, current: top}
}

// Top returns the file scope
func (t *SymbolTable) Top() *Scope {
	return t.top
}

// Current returns the open scope
func (t *SymbolTable) Current() *Scope {
	return t.current
}

func (t *SymbolTable) enter(sc *Scope) *Scope {
	t.open = append(t.open, t.current)
	t.current = sc
	return sc
}

// OpenScope opens the child scope with the given name, creating it when it
// does not exist yet. Modules may be reopened.
func (t *SymbolTable) OpenScope(name string, typeScope bool) *Scope {
	if child, ok := t.current.ChildScope(name); ok {
		return t.enter(child)
	}
	return t.enter(newScope(name, t.current, typeScope, false))
}

// CloseScope returns to the scope that was open before the current one
func (t *SymbolTable) CloseScope() error {
	if len(t.open) == 0 {
		return errors.Invariantf("top scope can't be closed")
	}
	t.current = t.open[len(t.open)-1]
	t.open = t.open[:len(t.open)-1]
	return nil
}

// OpenPragmaScope opens the scope for a #pragma prefix. An empty prefix
// leaves the current scope open.
func (t *SymbolTable) OpenPragmaScope(prefix string) *Scope {
	if prefix == "" {
		return t.current
	}
	if child, ok := t.current.children[prefix]; ok && child.pragma {
		return t.enter(child)
	}
	return t.enter(newScope(prefix, t.current, false, true))
}

// OpenPragmaScopeInUse returns the innermost open pragma scope
func (t *SymbolTable) OpenPragmaScopeInUse() (*Scope, bool) {
	if t.current.pragma {
		return t.current, true
	}
	for i := len(t.open) - 1; i >= 0; i-- {
		if t.open[i].pragma {
			return t.open[i], true
		}
	}
	return nil, false
}

// ClosePragmaScope closes the innermost open pragma scope together with the
// scopes opened inside it
func (t *SymbolTable) ClosePragmaScope() {
	if _, ok := t.OpenPragmaScopeInUse(); !ok {
		return
	}
	for len(t.open) > 0 {
		closed := t.current
		t.current = t.open[len(t.open)-1]
		t.open = t.open[:len(t.open)-1]
		if closed.pragma {
			return
		}
	}
}

// CheckAllForwardsComplete fails when a forward declared type has no definition
func (t *SymbolTable) CheckAllForwardsComplete() error {
	return t.top.CheckAllForwardsComplete()
}

func (t *SymbolTable) String() string {
	return "symbol table contents\n" + t.top.String()
}
