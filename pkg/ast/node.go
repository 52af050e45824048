// Package ast builds an immutable, arena-allocated tree over the
// tree-sitter CST, carrying original source slices so the
// renderer (pkg/render) can reuse byte ranges verbatim instead of
// re-serializing structure.
package ast

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/zeebo/blake3"

	"github.com/mergiraf/mergiraf/pkg/lang"
	"github.com/mergiraf/mergiraf/pkg/mergeerr"
)

// AstNode is a single node in a parsed revision: kind tag, byte range,
// structural hash, optional signature, ordered children, and weak parent
// back-pointer. The source text it slices into is held by the owning Ast,
// not by the node.
type AstNode struct {
	Kind string

	StartByte, EndByte uint32

	// Hash is the 64-bit structural hash: kind + ordered child hashes for
	// interior nodes, kind + byte content for leaves.
	Hash uint64

	// Signature is the language-defined key identifying "the same" node
	// across revisions, e.g. a function's name. Empty
	// when the node's kind has none registered in the language profile.
	Signature    string
	HasSignature bool

	// FieldName is the name of the grammar field this node occupies in its
	// parent, if any (e.g. "name", "body"). Empty for unnamed/anonymous
	// children and for the root.
	FieldName string

	Children []Ref
	Parent   Ref // NilRef for the root.
}

// Text returns the node's original source slice.
func (n *AstNode) Text(src *Source) string {
	return src.Text[n.StartByte:n.EndByte]
}

// IsLeaf reports whether n has no children (whatever the language profile
// says, a node with no children can never be descended into further).
func (n *AstNode) IsLeaf() bool { return len(n.Children) == 0 }

// Source is the text a parse ran over, kept alive for the lifetime of the
// owning Ast so nodes can slice into it without copying.
type Source struct {
	Text string
	Path string
}

// Ast is one parsed revision: an arena of nodes plus the root reference and
// the source it was parsed from. Its lifetime is meant to enclose the
// entire merge invocation it participates in.
type Ast struct {
	Arena   *Arena
	Source  *Source
	Root    Ref
	Profile *lang.Profile
}

// Get is a convenience accessor equivalent to a.Arena.Get(ref).
func (a *Ast) Get(ref Ref) *AstNode { return a.Arena.Get(ref) }

// New parses text under the given language profile into a fresh arena,
// building AstNode values in post-order so every child's hash is already
// computed by the time its parent is built. It fails with
// mergeerr's ParseError if the tree-sitter grammar produced any ERROR node.
func New(ctx context.Context, path, text string, profile *lang.Profile, arena *Arena) (*Ast, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(profile.Grammar())

	tree, err := parser.ParseCtx(ctx, nil, []byte(text))
	if err != nil {
		return nil, mergeerr.ParseError(path, err)
	}
	root := tree.RootNode()
	if root == nil {
		return nil, mergeerr.ParseError(path, nil)
	}
	if errNode, ok := findErrorNode(root); ok {
		return nil, mergeerr.ParseErrorNode(path, errNode.Type(), int(errNode.StartByte()))
	}

	src := &Source{Text: text, Path: path}
	b := &builder{src: src, arena: arena, profile: profile}
	rootRef := b.build(root, "")

	return &Ast{Arena: arena, Source: src, Root: rootRef, Profile: profile}, nil
}

// findErrorNode does a pre-order search for a tree-sitter ERROR (or missing)
// node so New can report a precise ParseError location instead of a generic
// "tree has an error somewhere".
func findErrorNode(n *sitter.Node) (*sitter.Node, bool) {
	if !n.HasError() {
		return nil, false
	}
	if n.Type() == "ERROR" || n.IsMissing() {
		return n, true
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found, ok := findErrorNode(n.Child(i)); ok {
			return found, true
		}
	}
	return nil, false
}

type builder struct {
	src     *Source
	arena   *Arena
	profile *lang.Profile
}

// build constructs an AstNode for n, recursing into children first so
// hashing is bottom-up, then returns its Ref and patches
// each child's Parent back-pointer once the parent's slot is known.
func (b *builder) build(n *sitter.Node, fieldName string) Ref {
	childCount := int(n.ChildCount())
	childRefs := make([]Ref, 0, childCount)
	for i := 0; i < childCount; i++ {
		childRefs = append(childRefs, b.build(n.Child(i), n.FieldNameForChild(i)))
	}

	node := AstNode{
		Kind:      n.Type(),
		StartByte: n.StartByte(),
		EndByte:   n.EndByte(),
		FieldName: fieldName,
		Children:  childRefs,
		Parent:    NilRef,
	}
	node.Hash = b.structuralHash(&node, childRefs)
	if field, ok := b.profile.SignatureField(node.Kind); ok {
		if sig, ok := b.findSignature(childRefs, field); ok {
			node.Signature = sig
			node.HasSignature = true
		}
	}

	ref := b.arena.Alloc(node)
	for _, c := range childRefs {
		b.arena.Get(c).Parent = ref
	}
	return ref
}

// findSignature looks among direct children for one whose FieldName matches
// field, returning its source text as the signature.
func (b *builder) findSignature(children []Ref, field string) (string, bool) {
	for _, c := range children {
		n := b.arena.Get(c)
		if n.FieldName == field {
			return n.Text(b.src), true
		}
	}
	return "", false
}

// structuralHash computes the node's 64-bit hash: blake3
// (truncated to its first 8 bytes) over the kind id followed by each
// child's hash in order, or over the kind id plus byte content for leaves.
func (b *builder) structuralHash(n *AstNode, children []Ref) uint64 {
	h := blake3.New()
	h.Write([]byte(n.Kind))
	h.Write([]byte{0}) // separator so "foo"+"" never collides with "fo"+"o"
	if len(children) == 0 {
		h.Write([]byte(n.Text(b.src)))
		return sum64(h.Sum(nil))
	}
	var buf [8]byte
	for _, c := range children {
		putUint64(buf[:], b.arena.Get(c).Hash)
		h.Write(buf[:])
	}
	return sum64(h.Sum(nil))
}

func sum64(sum []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(sum[i])
	}
	return v
}

func putUint64(buf []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
}
