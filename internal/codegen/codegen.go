// Package codegen implements the opcode generator: a single-pass AST walk
// that emits an opcode.Stream, performing constant folding, type-
// compatibility checking, and jump-address patching along the way
// (spec.md §4.4).
//
// The walk dispatches on the concrete Go type of each ast.Statement /
// ast.Expression with a type switch — the teacher's own
// compiler_statements.go / compiler_expressions.go dispatch the same way for
// the same reason: one function per node kind reads more like a table than a
// chain of single-method visitor types once the node set is this small.
package codegen

import (
	"github.com/funvibe/clever/internal/ast"
	"github.com/funvibe/clever/internal/cstring"
	"github.com/funvibe/clever/internal/diag"
	"github.com/funvibe/clever/internal/module"
	"github.com/funvibe/clever/internal/opcode"
	"github.com/funvibe/clever/internal/scope"
	"github.com/funvibe/clever/internal/types"
	"github.com/funvibe/clever/internal/value"
)

// boundMethod is the payload an MCALL's op1 carries: the resolved method and
// the receiver captured at emit time (spec.md §4.4: "Emit FCALL or MCALL
// with op1=callable ... receiver captured at emit time").
type boundMethod struct {
	method *types.Method
	recv   *value.Value
}

func (b *boundMethod) Name() string { return b.method.Name.Bytes }
func (b *boundMethod) Call(args []*value.Value) (*value.Value, error) {
	return b.method.Fn(b.recv, args)
}

// Release satisfies value.Releasable: when the USER Value wrapping this
// boundMethod reaches zero references, its captured receiver must too,
// since genMethodCallExpr transferred that reference here rather than
// releasing it separately.
func (b *boundMethod) Release() { b.recv.Release() }

// Generator walks a syntax tree and emits an opcode.Stream against a shared
// string pool, type registry, and module registry. One Generator compiles
// one program; its scope tree and SSA tracker are private to that run
// (spec.md §5: the global scope is a process-wide singleton created before
// user code runs, but nothing stops a host embedding multiple Generators
// against the same pool/registries for separate scripts).
type Generator struct {
	stream  *opcode.Stream
	pool    *cstring.Pool
	types   *types.Registry
	modules *module.Registry

	global *scope.Scope
	cur    *scope.Scope
	tracker *scope.Tracker

	// funcType tags every FCALL/MCALL op1 wrapper so a USER Value can be
	// told apart from a genuine class instance by UserType() alone.
	funcType *types.Type

	jmps [][]*opcode.Opcode
	brks [][]*opcode.Opcode
}

// New creates a Generator over an existing global scope and registries. The
// caller owns the lifetime of pool/treg/mreg/global — typically a single
// engine record created once per process (spec.md §5).
func New(pool *cstring.Pool, treg *types.Registry, mreg *module.Registry, global *scope.Scope) *Generator {
	funcType, ok := treg.LookupByString("Function")
	if !ok {
		funcType = treg.NewPrimitive("Function")
	}
	return &Generator{
		stream:  opcode.NewStream(),
		pool:    pool,
		types:   treg,
		modules: mreg,
		global:  global,
		cur:     global,
		tracker: scope.NewTracker(),
		funcType: funcType,
	}
}

// Stream returns the opcode stream built so far. Valid to call after
// Generate returns nil; the generator does not reset between calls, so
// compiling a second program with the same Generator would append to the
// first's stream — callers wanting independent programs create a new
// Generator per program.
func (g *Generator) Stream() *opcode.Stream { return g.stream }

// Global exposes the top-level scope so a host (or a test driving the VM
// end to end) can inspect a NAMED variable's post-execution state.
func (g *Generator) Global() *scope.Scope { return g.global }

// Pool exposes the string pool backing this Generator's scope, for a host
// (or test) that needs to look a declared name back up by interning it the
// same way genVarDecl/resolveIdent do.
func (g *Generator) Pool() *cstring.Pool { return g.pool }

// Generate compiles the top-level statement list into g's stream.
func (g *Generator) Generate(program *ast.Block) error {
	g.tracker.NewBlock()
	defer g.tracker.EndBlock()
	for _, s := range program.Stmts {
		if err := g.genStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) genBlock(b *ast.Block) error {
	g.tracker.NewBlock()
	prevScope := g.cur
	g.cur = g.cur.NewChild()
	defer func() {
		g.cur = prevScope
		g.tracker.EndBlock()
	}()
	for _, s := range b.Stmts {
		if err := g.genStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) genStmt(s ast.Statement) error {
	switch n := s.(type) {
	case *ast.VarDecl:
		return g.genVarDecl(n)
	case *ast.IfStmt:
		return g.genIfStmt(n)
	case *ast.WhileStmt:
		return g.genWhileStmt(n)
	case *ast.BreakStmt:
		return g.genBreakStmt(n)
	case *ast.EchoStmt:
		return g.genEchoStmt(n)
	case *ast.ExprStmt:
		v, err := g.genExpr(n.Expr)
		if err != nil {
			return err
		}
		v.Release()
		return nil
	case *ast.ImportStmt:
		return g.genImportStmt(n)
	case *ast.Block:
		return g.genBlock(n)
	default:
		return diag.NewCompileError("unsupported statement node %T", s)
	}
}

// genVarDecl resolves the declared Type via the registry, builds the zero
// Value for it, registers it in both the scope tree and the SSA tracker,
// and emits VAR_DECL (spec.md §4.4).
func (g *Generator) genVarDecl(n *ast.VarDecl) error {
	declType, ok := g.types.LookupByString(n.TypeName)
	if !ok {
		return diag.NewCompileError("unresolved type %q", n.TypeName)
	}
	name := g.pool.Intern(n.Name)
	variable := g.zeroValue(declType)

	g.cur.Declare(name, &scope.Symbol{Name: name, Val: variable})
	g.tracker.PushVar(name, variable)

	if n.Init != nil {
		initVal, err := g.genExpr(n.Init)
		if err != nil {
			return err
		}
		if !compatible(variable, initVal) {
			initVal.Release()
			return diag.NewCompileError("cannot initialise %q of type %s with incompatible value", n.Name, n.TypeName)
		}
		op := opcode.New(opcode.VAR_DECL, variable, initVal, nil)
		g.stream.Append(op)
		initVal.Release()
	} else {
		op := opcode.New(opcode.VAR_DECL, variable, nil, nil)
		g.stream.Append(op)
	}
	return nil
}

// zeroValue builds the initial NAMED Value for a freshly declared variable
// of Type t. Primitive types map directly to the matching ValueType;
// templated specialisations (only Array<T> in this registry, identifiable
// by a non-nil TemplateArgs — see types.Registry.Specialise) are backed by
// an empty VECTOR, matching how internal/types/array.go's method table
// operates directly on a Value's vec field; any other Object type is an
// opaque USER instance.
func (g *Generator) zeroValue(t *types.Type) *value.Value {
	switch t.Name.Bytes {
	case "Int":
		return value.NewInt(value.NAMED, 0)
	case "Double":
		return value.NewDouble(value.NAMED, 0)
	case "String":
		return value.NewString(value.NAMED, g.pool.Empty())
	case "Bool":
		return value.NewBool(value.NAMED, false)
	}
	if t.TemplateArgs != nil {
		v := value.NewVector(value.NAMED, nil)
		v.SetUserType(t)
		return v
	}
	v := value.NewUser(value.NAMED, t, nil)
	return v
}

func (g *Generator) resolveIdent(name string) (*value.Value, error) {
	cs := g.pool.Intern(name)
	if v := g.tracker.FetchVar(cs); v != nil {
		return v, nil
	}
	if sym, ok := g.cur.GetSym(cs); ok && sym.Val != nil {
		return sym.Val, nil
	}
	return nil, diag.NewCompileError("unresolved name %q", name)
}
