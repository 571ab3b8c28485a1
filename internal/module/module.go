// Package module implements the module/package registry: the external
// collaborator spec.md §6 describes as publishing functions, constants, and
// classes to the code generator. Loading mechanics (resolving a package
// name to source files on disk) are explicitly out of scope (spec.md §1);
// this package only defines the registry shape and the import/visibility
// contract codegen relies on.
package module

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/funvibe/clever/internal/cstring"
	"github.com/funvibe/clever/internal/types"
	"github.com/funvibe/clever/internal/value"
)

// Callable is implemented by every function a module publishes. FFI
// modules (out of scope per spec.md §1) would implement the same
// interface; this repo ships none.
type Callable interface {
	Name() string
	Call(args []*value.Value) (*value.Value, error)
}

// NativeFunc adapts a plain Go function to Callable.
type NativeFunc struct {
	FnName string
	Fn     func(args []*value.Value) (*value.Value, error)
}

func (f *NativeFunc) Name() string { return f.FnName }
func (f *NativeFunc) Call(args []*value.Value) (*value.Value, error) { return f.Fn(args) }

// Module declares a name, an init routine taking a flag word, and the three
// maps spec.md §6 names: functions, classes, constants.
type Module struct {
	Name      string
	Functions map[string]Callable
	Classes   map[string]*types.Type
	Constants map[string]*value.Value
	Init      func(flags uint32) error
}

func NewModule(name string) *Module {
	return &Module{
		Name:      name,
		Functions: make(map[string]Callable),
		Classes:   make(map[string]*types.Type),
		Constants: make(map[string]*value.Value),
	}
}

// State is a package's load state (spec.md §6).
type State int

const (
	Unloaded State = iota
	Loaded
	FullyLoaded
)

// Package wraps multiple Modules under one import path.
type Package struct {
	Name    string
	Modules map[string]*Module
	state   State
	loaded  mapset.Set[string] // names of individually-loaded modules
}

func NewPackage(name string) *Package {
	return &Package{Name: name, Modules: make(map[string]*Module), loaded: mapset.NewSet[string]()}
}

func (p *Package) State() State { return p.state }

func (p *Package) recomputeState() {
	if p.loaded.Cardinality() == 0 {
		p.state = Unloaded
		return
	}
	if p.loaded.Cardinality() == len(p.Modules) {
		p.state = FullyLoaded
		return
	}
	p.state = Loaded
}

type methodKey struct {
	typeName, method string
}

// Registry is the process-wide collaborator the code generator consults
// for FCALL/MCALL/import resolution. A process has exactly one Registry,
// created before user code runs (spec.md §5).
type Registry struct {
	packages map[string]*Package

	// Visible symbols: populated only by Import, never by RegisterPackage,
	// so an un-imported package's functions/classes/constants stay
	// invisible to the generator (spec.md §4.4).
	funcs     map[string]Callable
	classes   map[string]*types.Type
	constants map[string]*value.Value

	methodCache *lru.Cache[methodKey, *types.Method]
}

func NewRegistry() *Registry {
	cache, err := lru.New[methodKey, *types.Method](512)
	if err != nil {
		// Only returns an error for a non-positive size, which 512 never is.
		panic(err)
	}
	return &Registry{
		packages:    make(map[string]*Package),
		funcs:       make(map[string]Callable),
		classes:     make(map[string]*types.Type),
		constants:   make(map[string]*value.Value),
		methodCache: cache,
	}
}

// RegisterPackage makes pkg known to the registry without making any of its
// symbols visible — visibility is granted only by Import, mirroring the
// real loader's two-phase "discover, then import" shape even though
// discovery itself (reading files) is out of scope here.
func (r *Registry) RegisterPackage(pkg *Package) {
	r.packages[pkg.Name] = pkg
}

// Import loads pkgName, or just module moduleName within it if moduleName
// is non-empty, and publishes the loaded module(s)' symbols. Re-importing
// an already-loaded module is a no-op (spec.md §4.4, §8).
func (r *Registry) Import(pkgName, moduleName string) error {
	pkg, ok := r.packages[pkgName]
	if !ok {
		return fmt.Errorf("unresolved package %q", pkgName)
	}
	if moduleName != "" {
		mod, ok := pkg.Modules[moduleName]
		if !ok {
			return fmt.Errorf("package %q has no module %q", pkgName, moduleName)
		}
		return r.importModule(pkg, mod)
	}
	for _, mod := range pkg.Modules {
		if err := r.importModule(pkg, mod); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) importModule(pkg *Package, mod *Module) error {
	if pkg.loaded.Contains(mod.Name) {
		return nil // idempotent re-import
	}
	if mod.Init != nil {
		if err := mod.Init(0); err != nil {
			return fmt.Errorf("module %q init: %w", mod.Name, err)
		}
	}
	for name, fn := range mod.Functions {
		r.funcs[name] = fn
	}
	for name, cls := range mod.Classes {
		r.classes[name] = cls
	}
	for name, v := range mod.Constants {
		r.constants[name] = v
	}
	pkg.loaded.Add(mod.Name)
	pkg.recomputeState()
	return nil
}

func (r *Registry) LookupFunction(name string) (Callable, bool) {
	f, ok := r.funcs[name]
	return f, ok
}

func (r *Registry) LookupClass(name string) (*types.Type, bool) {
	c, ok := r.classes[name]
	return c, ok
}

func (r *Registry) LookupConstant(name string) (*value.Value, bool) {
	c, ok := r.constants[name]
	return c, ok
}

// ResolveMethod looks up name in t's method table, consulting (and
// populating) the registry's dispatch cache first. The cache is a pure
// speed-up: a miss always falls through to t.Method, so an evicted entry
// can never turn a resolvable method into an "unresolved method" error —
// only t's own table is authoritative (spec.md §4.4: "an unresolved ...
// method is a fatal compile error").
func (r *Registry) ResolveMethod(t *types.Type, name *cstring.CString) (*types.Method, bool) {
	key := methodKey{typeName: t.Name.Bytes, method: name.Bytes}
	if m, ok := r.methodCache.Get(key); ok {
		return m, true
	}
	m, ok := t.Method(name)
	if !ok {
		return nil, false
	}
	r.methodCache.Add(key, m)
	return m, true
}
