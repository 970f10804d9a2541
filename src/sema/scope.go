// Package sema implements the resolver, type inferer and null-safety
// checker that make up the semantic analysis pass of the lency middle-end.
package sema

import (
	"sync"

	"github.com/Microindole/lency-sub000/src/ast"
)

// ScopeKind tags what a Scope was opened for.
type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota
	ScopeFunction
	ScopeClass
	ScopeBlock
)

// ScopeId and SymbolId are arena indices, not pointers: the parent-scope
// link and every symbol backreference is an int, so the stack has no
// internal cycles and can be copied/walked freely. The stack is guarded
// with a mutex so a read-only downstream pass can walk scopes from
// multiple worker goroutines.
type ScopeId int
type SymbolId int

// Scope is one entry in the ScopeStack's arena.
type Scope struct {
	Id      ScopeId
	Parent  *ScopeId // nil for the global scope.
	Kind    ScopeKind
	entries map[string]SymbolId
	// refinements narrows a variable's static type within this scope only.
	// Refinements are never looked up across a scope boundary; they shadow
	// the symbol table entry while the scope is live.
	refinements map[string]*ast.Type
}

func newScope(id ScopeId, parent *ScopeId, kind ScopeKind) *Scope {
	return &Scope{
		Id:          id,
		Parent:      parent,
		Kind:        kind,
		entries:     make(map[string]SymbolId),
		refinements: make(map[string]*ast.Type),
	}
}

func (s *Scope) lookupLocal(name string) (SymbolId, bool) {
	id, ok := s.entries[name]
	return id, ok
}

// ScopeStack owns every Scope and Symbol for one compilation unit: a flat
// vector of scopes plus a flat vector of symbols indexed by SymbolId,
// parent links as ids.
type ScopeStack struct {
	mu      sync.RWMutex
	scopes  []*Scope
	symbols []Symbol
	current ScopeId
}

// NewScopeStack returns a stack initialised with a single global scope.
func NewScopeStack() *ScopeStack {
	ss := &ScopeStack{}
	ss.scopes = append(ss.scopes, newScope(0, nil, ScopeGlobal))
	ss.current = 0
	return ss
}

// Enter opens a new child scope of the current scope and makes it current.
func (ss *ScopeStack) Enter(kind ScopeKind) ScopeId {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	id := ScopeId(len(ss.scopes))
	parent := ss.current
	ss.scopes = append(ss.scopes, newScope(id, &parent, kind))
	ss.current = id
	return id
}

// Exit pops back to the current scope's parent. Exiting the global scope is
// a no-op.
func (ss *ScopeStack) Exit() {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if p := ss.scopes[ss.current].Parent; p != nil {
		ss.current = *p
	}
}

// Current returns the currently active scope id.
func (ss *ScopeStack) Current() ScopeId {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.current
}

// SetCurrent jumps the stack to an already-created scope, used by later
// passes re-entering scopes the resolver created, in the same order.
func (ss *ScopeStack) SetCurrent(id ScopeId) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if int(id) < len(ss.scopes) {
		ss.current = id
	}
}

// Define registers symbol in the current scope. It fails only on a
// same-name collision within that scope; shadowing across scope
// boundaries is always allowed.
func (ss *ScopeStack) Define(sym Symbol) (SymbolId, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	name := sym.SymbolName()
	scope := ss.scopes[ss.current]
	if existingID, ok := scope.lookupLocal(name); ok {
		existing := ss.symbols[existingID]
		return 0, &DuplicateDefinition{
			NameField: name,
			SpanField: sym.SymbolSpan(),
			Previous:  existing.SymbolSpan(),
		}
	}
	id := SymbolId(len(ss.symbols))
	ss.symbols = append(ss.symbols, sym)
	scope.entries[name] = id
	return id, nil
}

// Lookup walks from the current scope up through parents.
func (ss *ScopeStack) Lookup(name string) (Symbol, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.lookupFrom(name, ss.current)
}

// LookupFrom walks from an explicit starting scope up through parents.
func (ss *ScopeStack) LookupFrom(name string, start ScopeId) (Symbol, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.lookupFrom(name, start)
}

func (ss *ScopeStack) lookupFrom(name string, start ScopeId) (Symbol, bool) {
	id := &start
	for id != nil {
		scope := ss.scopes[*id]
		if sid, ok := scope.lookupLocal(name); ok {
			return ss.symbols[sid], true
		}
		id = scope.Parent
	}
	return nil, false
}

// LookupGlobal only looks in the global (scope 0) table.
func (ss *ScopeStack) LookupGlobal(name string) (Symbol, bool) {
	return ss.LookupFrom(name, 0)
}

// LookupLocal only looks in the current scope, no parent walk.
func (ss *ScopeStack) LookupLocal(name string) (Symbol, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	scope := ss.scopes[ss.current]
	if id, ok := scope.lookupLocal(name); ok {
		return ss.symbols[id], true
	}
	return nil, false
}

// LookupId behaves like Lookup but returns the SymbolId.
func (ss *ScopeStack) LookupId(name string) (SymbolId, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	id := &ss.current
	for id != nil {
		scope := ss.scopes[*id]
		if sid, ok := scope.lookupLocal(name); ok {
			return sid, true
		}
		id = scope.Parent
	}
	return 0, false
}

// Get returns the symbol addressed by id.
func (ss *ScopeStack) Get(id SymbolId) (Symbol, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	if int(id) < len(ss.symbols) {
		return ss.symbols[id], true
	}
	return nil, false
}

// GetMut applies fn to the symbol addressed by id under the write lock,
// standing in for Rust's `get_symbol_mut` since Go has no mutable borrow
// checker to enforce the equivalent discipline manually.
func (ss *ScopeStack) GetMut(id SymbolId, fn func(Symbol) Symbol) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if int(id) >= len(ss.symbols) {
		return false
	}
	ss.symbols[id] = fn(ss.symbols[id])
	return true
}

// ChildScopes returns every scope whose parent is parentID, in the order
// they were created. Later passes rely on this order to re-enter scopes
// exactly as the resolver did.
func (ss *ScopeStack) ChildScopes(parentID ScopeId) []ScopeId {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	var out []ScopeId
	for _, s := range ss.scopes {
		if s.Parent != nil && *s.Parent == parentID {
			out = append(out, s.Id)
		}
	}
	return out
}

// ScopeCount returns the number of scopes ever created.
func (ss *ScopeStack) ScopeCount() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.scopes)
}

// AddRefinement narrows name's static type to ty within the current scope
// only. It does not propagate to parent or sibling scopes and is discarded
// when the scope is exited.
func (ss *ScopeStack) AddRefinement(name string, ty *ast.Type) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.scopes[ss.current].refinements[name] = ty
}

// InvalidateRefinement removes a narrowing, used when the resolver sees a
// re-assignment of the refined variable: refinements must be pessimistically
// invalidated rather than re-derived.
func (ss *ScopeStack) InvalidateRefinement(name string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.scopes[ss.current].refinements, name)
}

// LookupRefinement looks only at the current scope's refinement set; it
// does not walk parents.
func (ss *ScopeStack) LookupRefinement(name string) (*ast.Type, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	ty, ok := ss.scopes[ss.current].refinements[name]
	return ty, ok
}

// IsInFunction reports whether the current scope is nested inside a
// function scope.
func (ss *ScopeStack) IsInFunction() bool {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	id := &ss.current
	for id != nil {
		scope := ss.scopes[*id]
		if scope.Kind == ScopeFunction {
			return true
		}
		id = scope.Parent
	}
	return false
}
