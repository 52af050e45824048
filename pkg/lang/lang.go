// Package lang implements the language profile registry. A
// Profile bundles a tree-sitter grammar handle with the per-language
// policies (commutative node kinds, signature keys, leaf kinds, comment
// kinds) that drive matching and merge behavior in pkg/treematch and
// pkg/treemerge. Profiles are built once at init and are immutable
// thereafter.
package lang

import (
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/css"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/html"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	tsjson "github.com/smacker/go-tree-sitter/json"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/smacker/go-tree-sitter/yaml"

	"github.com/mergiraf/mergiraf/pkg/mergeerr"
)

// Profile is the immutable per-language descriptor that drives matching
// and merge policy.
type Profile struct {
	Name string

	// Grammar returns the tree-sitter language handle. It's a func rather
	// than a stored value so every profile construction is cheap even
	// though grammar tables themselves are process-wide singletons.
	Grammar func() *sitter.Language

	// Extensions are the canonical, lowercase file extensions (without the
	// leading dot) this profile claims.
	Extensions []string
	// SpecialFilenames maps an exact, case-sensitive basename (no
	// extension lookup involved) to this profile, e.g. "Dockerfile".
	SpecialFilenames []string

	// CommutativeKinds are node kinds whose children are unordered: the
	// merger may reorder them freely when composing edits.
	CommutativeKinds map[string]bool
	// SignatureKinds maps a node kind to the child-field name whose text
	// identifies "the same" node across revisions (e.g. a function
	// definition's name field). A kind absent from this map has no
	// signature and is matched purely structurally.
	SignatureKinds map[string]string
	// LeafKinds are node kinds treated as atomic; the merger never
	// descends into their subtree, so edits on both sides conflict as a
	// whole. The matcher does not consult this table.
	LeafKinds map[string]bool
	// CommentKinds are node kinds the merger treats as comments: when both
	// sides edit one and one side's text contains the other's, the longer
	// edit is taken instead of conflicting. Comments are not attached to a
	// neighbouring sibling; they stay ordinary children of their parent.
	CommentKinds map[string]bool
}

// IsCommutative reports whether kind's children are unordered under this
// profile.
func (p *Profile) IsCommutative(kind string) bool { return p.CommutativeKinds[kind] }

// IsLeaf reports whether kind is treated as an atomic leaf.
func (p *Profile) IsLeaf(kind string) bool { return p.LeafKinds[kind] }

// IsComment reports whether kind is a comment node.
func (p *Profile) IsComment(kind string) bool { return p.CommentKinds[kind] }

// SignatureField returns the child-field name identifying nodes of kind,
// and whether one is registered.
func (p *Profile) SignatureField(kind string) (string, bool) {
	f, ok := p.SignatureKinds[kind]
	return f, ok
}

var registry = map[string]*Profile{}
var extensionIndex = map[string]*Profile{}
var filenameIndex = map[string]*Profile{}

func register(p *Profile, aliases ...string) {
	registry[p.Name] = p
	for _, ext := range p.Extensions {
		extensionIndex[ext] = p
	}
	for _, alias := range aliases {
		extensionIndex[alias] = p
	}
	for _, name := range p.SpecialFilenames {
		filenameIndex[name] = p
	}
}

func init() {
	register(goProfile())
	register(javascriptProfile(), "mjs", "cjs", "jsx")
	register(typescriptProfile(), "tsx")
	register(pythonProfile(), "pyi")
	register(rustProfile())
	register(javaProfile())
	register(cProfile(), "h")
	register(cppProfile(), "hpp", "cc", "cxx", "hxx")
	register(rubyProfile())
	register(jsonProfile())
	register(yamlProfile(), "yml")
	register(htmlProfile(), "htm")
	register(cssProfile())
	register(bashProfile(), "bash", "zsh")
}

// DetectFromFilename chooses a profile from name's extension
// (case-insensitive), falling back to a table of special, extension-less
// filenames. It reports mergeerr's UnsupportedLanguage when
// nothing matches.
func DetectFromFilename(name string) (*Profile, error) {
	base := filepath.Base(name)
	if p, ok := filenameIndex[base]; ok {
		return p, nil
	}

	ext := strings.TrimPrefix(filepath.Ext(base), ".")
	ext = strings.ToLower(ext)
	if p, ok := extensionIndex[ext]; ok {
		return p, nil
	}

	return nil, mergeerr.UnsupportedLanguage(name)
}

// ByName looks up a profile by its canonical name, mainly for tests and
// config-file language overrides (pkg/settings).
func ByName(name string) (*Profile, bool) {
	p, ok := registry[name]
	return p, ok
}

// All returns every registered profile, sorted by name, for listing in the
// CLI's languages command.
func All() []*Profile {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Profile, len(names))
	for i, name := range names {
		out[i] = registry[name]
	}
	return out
}

func goProfile() *Profile {
	return &Profile{
		Name:       "go",
		Grammar:    golang.GetLanguage,
		Extensions: []string{"go"},
		SpecialFilenames: []string{
			"go.mod", "go.sum",
		},
		CommutativeKinds: map[string]bool{
			"import_spec_list": true,
			"const_spec_list":  true,
			"var_spec_list":    true,
		},
		SignatureKinds: map[string]string{
			"function_declaration": "name",
			"method_declaration":   "name",
			"type_declaration":     "name",
			"import_spec":          "path",
			"field_declaration":    "name",
		},
		LeafKinds: map[string]bool{
			"identifier":                 true,
			"interpreted_string_literal": true,
			"raw_string_literal":         true,
			"int_literal":                true,
			"float_literal":              true,
		},
		CommentKinds: map[string]bool{
			"comment": true,
		},
	}
}

func javascriptProfile() *Profile {
	return &Profile{
		Name:       "javascript",
		Grammar:    javascript.GetLanguage,
		Extensions: []string{"js"},
		CommutativeKinds: map[string]bool{
			"named_imports": true,
		},
		SignatureKinds: map[string]string{
			"function_declaration": "name",
			"class_declaration":    "name",
			"method_definition":    "name",
			"import_specifier":     "name",
		},
		LeafKinds: map[string]bool{
			"identifier":          true,
			"string":              true,
			"number":              true,
			"property_identifier": true,
		},
		CommentKinds: map[string]bool{
			"comment": true,
		},
	}
}

func typescriptProfile() *Profile {
	return &Profile{
		Name:       "typescript",
		Grammar:    typescript.GetLanguage,
		Extensions: []string{"ts"},
		CommutativeKinds: map[string]bool{
			"named_imports": true,
		},
		SignatureKinds: map[string]string{
			"function_declaration":  "name",
			"class_declaration":     "name",
			"method_definition":     "name",
			"interface_declaration": "name",
			"import_specifier":      "name",
		},
		LeafKinds: map[string]bool{
			"identifier":          true,
			"string":              true,
			"number":              true,
			"property_identifier": true,
		},
		CommentKinds: map[string]bool{
			"comment": true,
		},
	}
}

func pythonProfile() *Profile {
	return &Profile{
		Name:       "python",
		Grammar:    python.GetLanguage,
		Extensions: []string{"py"},
		SignatureKinds: map[string]string{
			"function_definition": "name",
			"class_definition":    "name",
		},
		LeafKinds: map[string]bool{
			"identifier": true,
			"string":     true,
			"integer":    true,
			"float":      true,
		},
		CommentKinds: map[string]bool{
			"comment": true,
		},
	}
}

func rustProfile() *Profile {
	return &Profile{
		Name:       "rust",
		Grammar:    rust.GetLanguage,
		Extensions: []string{"rs"},
		CommutativeKinds: map[string]bool{
			"use_list": true,
		},
		SignatureKinds: map[string]string{
			"function_item": "name",
			"struct_item":   "name",
			"enum_item":     "name",
			"impl_item":     "type",
			"use_as_clause": "path",
		},
		LeafKinds: map[string]bool{
			"identifier":      true,
			"string_literal":  true,
			"integer_literal": true,
		},
		CommentKinds: map[string]bool{
			"line_comment":  true,
			"block_comment": true,
		},
	}
}

func javaProfile() *Profile {
	return &Profile{
		Name:       "java",
		Grammar:    java.GetLanguage,
		Extensions: []string{"java"},
		CommutativeKinds: map[string]bool{
			"import_declaration": true,
		},
		SignatureKinds: map[string]string{
			"method_declaration": "name",
			"class_declaration":  "name",
			"field_declaration":  "declarator",
		},
		LeafKinds: map[string]bool{
			"identifier":     true,
			"string_literal": true,
		},
		CommentKinds: map[string]bool{
			"line_comment":  true,
			"block_comment": true,
		},
	}
}

func cProfile() *Profile {
	return &Profile{
		Name:       "c",
		Grammar:    c.GetLanguage,
		Extensions: []string{"c"},
		SignatureKinds: map[string]string{
			"function_definition": "declarator",
			"struct_specifier":    "name",
		},
		LeafKinds: map[string]bool{
			"identifier":     true,
			"string_literal": true,
			"number_literal": true,
		},
		CommentKinds: map[string]bool{
			"comment": true,
		},
	}
}

func cppProfile() *Profile {
	return &Profile{
		Name:       "cpp",
		Grammar:    cpp.GetLanguage,
		Extensions: []string{"cpp"},
		SignatureKinds: map[string]string{
			"function_definition": "declarator",
			"class_specifier":     "name",
			"struct_specifier":    "name",
		},
		LeafKinds: map[string]bool{
			"identifier":     true,
			"string_literal": true,
			"number_literal": true,
		},
		CommentKinds: map[string]bool{
			"comment": true,
		},
	}
}

func rubyProfile() *Profile {
	return &Profile{
		Name:       "ruby",
		Grammar:    ruby.GetLanguage,
		Extensions: []string{"rb"},
		SignatureKinds: map[string]string{
			"method":           "name",
			"class":            "name",
			"module":           "name",
			"singleton_method": "name",
		},
		LeafKinds: map[string]bool{
			"identifier": true,
			"string":     true,
			"integer":    true,
		},
		CommentKinds: map[string]bool{
			"comment": true,
		},
	}
}

func jsonProfile() *Profile {
	return &Profile{
		Name:       "json",
		Grammar:    tsjson.GetLanguage,
		Extensions: []string{"json"},
		CommutativeKinds: map[string]bool{
			"object": true,
		},
		SignatureKinds: map[string]string{
			"pair": "key",
		},
		LeafKinds: map[string]bool{
			"string": true,
			"number": true,
		},
		CommentKinds: map[string]bool{},
	}
}

func yamlProfile() *Profile {
	return &Profile{
		Name:       "yaml",
		Grammar:    yaml.GetLanguage,
		Extensions: []string{"yaml"},
		SignatureKinds: map[string]string{
			"block_mapping_pair": "key",
		},
		LeafKinds: map[string]bool{
			"flow_node": true,
		},
		CommentKinds: map[string]bool{
			"comment": true,
		},
	}
}

func htmlProfile() *Profile {
	return &Profile{
		Name:       "html",
		Grammar:    html.GetLanguage,
		Extensions: []string{"html"},
		SignatureKinds: map[string]string{
			"element": "tag_name",
		},
		LeafKinds: map[string]bool{
			"text":            true,
			"attribute_value": true,
		},
		CommentKinds: map[string]bool{
			"comment": true,
		},
	}
}

func cssProfile() *Profile {
	return &Profile{
		Name:       "css",
		Grammar:    css.GetLanguage,
		Extensions: []string{"css"},
		CommutativeKinds: map[string]bool{
			"block": true,
		},
		SignatureKinds: map[string]string{
			"declaration": "property",
		},
		LeafKinds: map[string]bool{
			"property_name": true,
			"integer_value": true,
			"string_value":  true,
		},
		CommentKinds: map[string]bool{
			"comment": true,
		},
	}
}

func bashProfile() *Profile {
	return &Profile{
		Name:       "bash",
		Grammar:    bash.GetLanguage,
		Extensions: []string{"sh"},
		SignatureKinds: map[string]string{
			"function_definition": "name",
		},
		LeafKinds: map[string]bool{
			"variable_name": true,
			"word":          true,
			"string":        true,
		},
		CommentKinds: map[string]bool{
			"comment": true,
		},
	}
}
