package codegen

import (
	"github.com/funvibe/clever/internal/ast"
	"github.com/funvibe/clever/internal/diag"
	"github.com/funvibe/clever/internal/opcode"
	"github.com/funvibe/clever/internal/types"
	"github.com/funvibe/clever/internal/value"
)

// genExpr evaluates n and returns its Value. Every returned Value carries
// exactly one reference pending on the caller: fold it into the next
// opcode and Release it (opcode.New takes its own reference via AddRef), or
// Release it directly if nothing further consumes it (e.g. an ExprStmt
// discarding a call's result). Ident reads are the one source of a
// "borrowed" pointer (owned for the long term by scope/tracker); genExpr
// evens this out with an explicit AddRef so every call site follows the
// same fold-then-Release discipline regardless of node kind.
func (g *Generator) genExpr(n ast.Expression) (*value.Value, error) {
	switch t := n.(type) {
	case *ast.IntLiteral:
		return t.GetValue().AddRef(), nil
	case *ast.DoubleLiteral:
		return t.GetValue().AddRef(), nil
	case *ast.BoolLiteral:
		return t.GetValue().AddRef(), nil
	case *ast.StringLiteral:
		v := t.GetValue()
		if v == nil {
			v = value.NewString(value.CONST, g.pool.Intern(t.Val))
			t.SetOptimised(v)
		}
		return v.AddRef(), nil
	case *ast.Ident:
		v, err := g.resolveIdent(t.Name)
		if err != nil {
			return nil, err
		}
		return v.AddRef(), nil
	case *ast.BinaryExpr:
		return g.genBinaryExpr(t)
	case *ast.UnaryExpr:
		return g.genUnaryExpr(t)
	case *ast.AssignExpr:
		return g.genAssignExpr(t)
	case *ast.CallExpr:
		return g.genCallExpr(t)
	case *ast.MethodCallExpr:
		return g.genMethodCallExpr(t)
	default:
		return nil, diag.NewCompileError("unsupported expression node %T", n)
	}
}

func (g *Generator) genBinaryExpr(n *ast.BinaryExpr) (*value.Value, error) {
	if n.IsOptimised() {
		return n.GetValue().AddRef(), nil
	}
	lhs, err := g.genExpr(n.LHS)
	if err != nil {
		return nil, err
	}
	rhs, err := g.genExpr(n.RHS)
	if err != nil {
		lhs.Release()
		return nil, err
	}

	if !compatible(lhs, rhs) {
		lhs.Release()
		rhs.Release()
		return nil, diag.NewCompileError("incompatible operand types for %q", opName(n.Op))
	}

	tag := opTag(n.Op)

	if n.IsAssign {
		if lhs.Kind != value.NAMED {
			lhs.Release()
			rhs.Release()
			return nil, diag.NewCompileError("assignment target is not a variable")
		}
		op := opcode.New(tag, lhs, rhs, lhs)
		g.stream.Append(op)
		lhs.MarkModified()
		rhs.Release()
		return lhs, nil
	}

	if lhs.Kind == value.CONST && rhs.Kind == value.CONST {
		folded, ok, err := fold(n.Op, lhs, rhs)
		if err != nil {
			lhs.Release()
			rhs.Release()
			return nil, err
		}
		if ok {
			lhs.Release()
			rhs.Release()
			// n keeps its own reference (mirrors StringLiteral's literal
			// cache); the caller gets a separate one via AddRef so a later
			// IsOptimised hit can return its own reference too instead of
			// handing out the cache's only one.
			n.SetOptimised(folded)
			return folded.AddRef(), nil
		}
	}

	result := value.NewTemp()
	op := opcode.New(tag, lhs, rhs, result)
	g.stream.Append(op)
	lhs.Release()
	rhs.Release()
	return result, nil
}

func (g *Generator) genUnaryExpr(n *ast.UnaryExpr) (*value.Value, error) {
	target, err := g.genExpr(n.Expr)
	if err != nil {
		return nil, err
	}
	if target.Kind != value.NAMED {
		target.Release()
		return nil, diag.NewCompileError("increment/decrement target is not a variable")
	}
	result := value.NewTemp()
	op := opcode.New(opTag(n.Op), target, nil, result)
	g.stream.Append(op)
	target.MarkModified()
	target.Release()
	return result, nil
}

func (g *Generator) genAssignExpr(n *ast.AssignExpr) (*value.Value, error) {
	lhs, err := g.resolveIdent(n.LHS.Name)
	if err != nil {
		return nil, err
	}
	lhs.AddRef()
	rhs, err := g.genExpr(n.RHS)
	if err != nil {
		lhs.Release()
		return nil, err
	}
	if !compatible(lhs, rhs) {
		lhs.Release()
		rhs.Release()
		return nil, diag.NewCompileError("cannot assign to %q: incompatible type", n.LHS.Name)
	}
	op := opcode.New(opcode.ASSIGN, lhs, rhs, lhs)
	g.stream.Append(op)
	lhs.MarkModified()
	rhs.Release()
	return lhs, nil
}

func (g *Generator) genCallExpr(n *ast.CallExpr) (*value.Value, error) {
	callable, ok := g.modules.LookupFunction(n.Callee)
	if !ok {
		return nil, diag.NewCompileError("unresolved function %q", n.Callee)
	}
	args, err := g.genArgs(n.Args)
	if err != nil {
		return nil, err
	}
	argsVec := value.NewVector(value.TEMP, args)
	releaseAll(args)

	callableVal := value.NewUser(value.CONST, g.funcType, callable)
	result := value.NewTemp()
	op := opcode.New(opcode.FCALL, callableVal, argsVec, result)
	g.stream.Append(op)
	callableVal.Release()
	argsVec.Release()
	return result, nil
}

func (g *Generator) genMethodCallExpr(n *ast.MethodCallExpr) (*value.Value, error) {
	recv, err := g.genExpr(n.Receiver)
	if err != nil {
		return nil, err
	}
	td := recv.UserType()
	if td == nil {
		recv.Release()
		return nil, diag.NewCompileError("cannot resolve method %q: receiver has no known type", n.Method)
	}
	concrete, ok := td.(*types.Type)
	if !ok {
		recv.Release()
		return nil, diag.NewCompileError("cannot resolve method %q: receiver type descriptor is foreign", n.Method)
	}
	methodName := g.pool.Intern(n.Method)
	m, ok := g.modules.ResolveMethod(concrete, methodName)
	if !ok {
		recv.Release()
		return nil, diag.NewCompileError("unresolved method %q on %s", n.Method, concrete.Name.Bytes)
	}
	args, err := g.genArgs(n.Args)
	if err != nil {
		recv.Release()
		return nil, err
	}
	argsVec := value.NewVector(value.TEMP, args)
	releaseAll(args)

	// recv's pending reference (from genExpr above) is transferred into the
	// bound-method capture, not released separately — "receiver captured at
	// emit time" (spec.md §4.4).
	callableVal := value.NewUser(value.CONST, g.funcType, &boundMethod{method: m, recv: recv})
	result := value.NewTemp()
	op := opcode.New(opcode.MCALL, callableVal, argsVec, result)
	g.stream.Append(op)
	callableVal.Release()
	argsVec.Release()
	return result, nil
}

func (g *Generator) genArgs(exprs []ast.Expression) ([]*value.Value, error) {
	args := make([]*value.Value, 0, len(exprs))
	for _, a := range exprs {
		v, err := g.genExpr(a)
		if err != nil {
			releaseAll(args)
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

func releaseAll(vs []*value.Value) {
	for _, v := range vs {
		v.Release()
	}
}

func opTag(op ast.Op) opcode.Tag {
	switch op {
	case ast.OpAdd:
		return opcode.PLUS
	case ast.OpSub:
		return opcode.MINUS
	case ast.OpMul:
		return opcode.MULT
	case ast.OpDiv:
		return opcode.DIV
	case ast.OpMod:
		return opcode.MOD
	case ast.OpBwOr:
		return opcode.BW_OR
	case ast.OpBwXor:
		return opcode.BW_XOR
	case ast.OpBwAnd:
		return opcode.BW_AND
	case ast.OpGreater:
		return opcode.GREATER
	case ast.OpLess:
		return opcode.LESS
	case ast.OpGreaterEqual:
		return opcode.GREATER_EQUAL
	case ast.OpLessEqual:
		return opcode.LESS_EQUAL
	case ast.OpEqual:
		return opcode.EQUAL
	case ast.OpNotEqual:
		return opcode.NOT_EQUAL
	case ast.OpPreInc:
		return opcode.PRE_INC
	case ast.OpPosInc:
		return opcode.POS_INC
	case ast.OpPreDec:
		return opcode.PRE_DEC
	case ast.OpPosDec:
		return opcode.POS_DEC
	default:
		return opcode.ECHO // unreachable for well-formed trees; ECHO is a harmless default tag
	}
}

var opNames = map[ast.Op]string{
	ast.OpAdd: "+", ast.OpSub: "-", ast.OpMul: "*", ast.OpDiv: "/", ast.OpMod: "%",
	ast.OpBwOr: "|", ast.OpBwXor: "^", ast.OpBwAnd: "&",
	ast.OpGreater: ">", ast.OpLess: "<", ast.OpGreaterEqual: ">=", ast.OpLessEqual: "<=",
	ast.OpEqual: "==", ast.OpNotEqual: "!=",
	ast.OpPreInc: "++x", ast.OpPosInc: "x++", ast.OpPreDec: "--x", ast.OpPosDec: "x--",
}

func opName(op ast.Op) string {
	if n, ok := opNames[op]; ok {
		return n
	}
	return "?"
}
