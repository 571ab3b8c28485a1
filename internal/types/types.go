// Package types implements the type registry: a catalogue of type
// descriptors (primitive, object, templated) and the method tables they
// carry for dispatch at MCALL time.
package types

import (
	"fmt"
	"strings"

	"github.com/funvibe/clever/internal/cstring"
	"github.com/funvibe/clever/internal/value"
)

// Category classifies a Type.
type Category uint8

const (
	Primitive Category = iota
	Object
	Templated
)

// NativeMethod is a method table entry's executable body. It receives the
// receiver and argument Values directly — unlike the type registry itself,
// method bodies are allowed to know about value.Value because dispatch only
// ever happens from the vm/module layer, which already imports both
// packages.
type NativeMethod func(receiver *value.Value, args []*value.Value) (*value.Value, error)

// Method is one entry of a Type's method table.
type Method struct {
	Name  *cstring.CString
	Arity int // -1 means variadic
	Fn    NativeMethod
}

// Factory produces a specialised Type for a templated type given its
// template arguments. Registered once per templated Type at Register time.
type Factory func(reg *Registry, args []*Type) *Type

// Type is a type descriptor: a name, a category, a method table, and, for
// Templated types, the template-argument list and the factory that builds a
// fresh specialisation.
type Type struct {
	Name     *cstring.CString
	Category Category
	Methods  map[cstring.ID]*Method

	// Templated-only fields.
	TemplateArity int // number of template parameters Outer<...> expects, -1 if variable
	TemplateArgs  []*Type
	factory       Factory
}

// TypeName satisfies value.TypeDescriptor so a USER Value can carry a *Type
// without value importing this package.
func (t *Type) TypeName() string { return t.Name.Bytes }

func (t *Type) AddMethod(m *Method) {
	if t.Methods == nil {
		t.Methods = make(map[cstring.ID]*Method)
	}
	t.Methods[m.Name.ID] = m
}

func (t *Type) Method(name *cstring.CString) (*Method, bool) {
	m, ok := t.Methods[name.ID]
	return m, ok
}

// Registry is the process-wide catalogue of Type descriptors, keyed by
// canonical name. Mutated only during compilation (spec.md §5).
type Registry struct {
	pool  *cstring.Pool
	byID  map[cstring.ID]*Type
}

func New(pool *cstring.Pool) *Registry {
	return &Registry{pool: pool, byID: make(map[cstring.ID]*Type)}
}

// Register publishes t under its canonical name. Re-registering the same
// name overwrites the previous descriptor — the registry does not consider
// this an error; it is how the bootstrap sequence installs built-ins before
// user code runs.
func (r *Registry) Register(t *Type) {
	r.byID[t.Name.ID] = t
}

// Lookup returns the Type registered under name, or ok=false.
func (r *Registry) Lookup(name *cstring.CString) (*Type, bool) {
	t, ok := r.byID[name.ID]
	return t, ok
}

// LookupByString interns name and looks it up — a convenience for call
// sites that only have a Go string (e.g. parsing a declared type name).
func (r *Registry) LookupByString(name string) (*Type, bool) {
	return r.Lookup(r.pool.Intern(name))
}

// CheckTemplateArgs validates arg count against a templated type's declared
// arity before Specialise proceeds. Returns a human-readable error per
// spec.md §4.2; codegen turns this into a fatal compile error.
func CheckTemplateArgs(templated *Type, args []*Type) error {
	if templated.Category != Templated {
		return fmt.Errorf("%s is not a templated type", templated.Name.Bytes)
	}
	if templated.TemplateArity >= 0 && len(args) != templated.TemplateArity {
		return fmt.Errorf("%s expects %d template argument(s), got %d",
			templated.Name.Bytes, templated.TemplateArity, len(args))
	}
	return nil
}

// Specialise composes the specialised name "Outer<Arg1,Arg2,...>", consults
// the registry, and inserts a fresh descriptor built by the templated type's
// factory only if one is not already present. Repeated requests for the
// same (templated, args) pair return the identical *Type — the singleton
// invariant of spec.md §3.3.
func (r *Registry) Specialise(templated *Type, args []*Type) (*Type, error) {
	if err := CheckTemplateArgs(templated, args); err != nil {
		return nil, err
	}
	name := specialisedName(templated, args)
	key := r.pool.Intern(name)
	if existing, ok := r.byID[key.ID]; ok {
		return existing, nil
	}
	specialised := templated.factory(r, args)
	specialised.Name = key
	specialised.Category = Object
	specialised.TemplateArgs = args
	r.byID[key.ID] = specialised
	return specialised, nil
}

func specialisedName(templated *Type, args []*Type) string {
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = a.Name.Bytes
	}
	return templated.Name.Bytes + "<" + strings.Join(names, ",") + ">"
}

// NewPrimitive registers and returns a primitive Type.
func (r *Registry) NewPrimitive(name string) *Type {
	t := &Type{Name: r.pool.Intern(name), Category: Primitive}
	r.Register(t)
	return t
}

// NewTemplated registers and returns a templated Type with the given arity
// (-1 for variable arity) and specialisation factory.
func (r *Registry) NewTemplated(name string, arity int, f Factory) *Type {
	t := &Type{Name: r.pool.Intern(name), Category: Templated, TemplateArity: arity, factory: f}
	r.Register(t)
	return t
}
