package ast

// Ref is a stable index into an Arena. NilRef (-1) never refers to a real
// node; the zero value 0 is the first node allocated. Refs are only
// meaningful relative to the Arena
// that produced them, so a Ref must never be dereferenced against a
// different arena.
type Ref int32

// NilRef is the Ref equivalent of a nil pointer.
const NilRef Ref = -1

// Arena owns a flat slice of AstNode values. Building a tree by appending
// to one slice instead of allocating a struct per node keeps an entire
// parsed revision in one contiguous allocation, and lets child/parent
// links be plain integers instead of pointers, so nothing can outlive the
// arena that allocated it (the Ast that owns the Arena is the only thing
// allowed to hand Refs to callers).
type Arena struct {
	nodes []AstNode
}

// NewArena returns an empty arena with capacity reserved for hint nodes.
func NewArena(hint int) *Arena {
	if hint < 0 {
		hint = 0
	}
	return &Arena{nodes: make([]AstNode, 0, hint)}
}

// Alloc appends n to the arena and returns its Ref.
func (a *Arena) Alloc(n AstNode) Ref {
	a.nodes = append(a.nodes, n)
	return Ref(len(a.nodes) - 1)
}

// Get dereferences ref. It panics on NilRef or an out-of-range ref, since
// both indicate a bug in the caller rather than a recoverable condition.
func (a *Arena) Get(ref Ref) *AstNode {
	if ref == NilRef || int(ref) >= len(a.nodes) {
		panic("ast: invalid arena reference")
	}
	return &a.nodes[ref]
}

// Len reports how many nodes the arena currently holds.
func (a *Arena) Len() int { return len(a.nodes) }
