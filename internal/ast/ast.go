// Package ast defines the minimal syntax-tree surface the code generator
// consumes. The lexer and parser that produce these nodes are out of scope
// (spec.md §1); this package specifies only the producer contract from
// spec.md §6 and a small set of constructors tests use to build trees by
// hand in place of a real parser.
package ast

import "github.com/funvibe/clever/internal/value"

// Node is the base of every syntax-tree node the generator walks.
type Node interface {
	node()
}

// Expression is a Node that yields a value when evaluated. GetValue
// returns the node's associated compiler Value (its operand slot once
// resolved); IsOptimised/SetOptimised record constant-folding results so the
// generator can skip emitting an opcode for a folded subtree.
type Expression interface {
	Node
	expressionNode()
	GetValue() *value.Value
	SetOptimised(folded *value.Value)
	IsOptimised() bool
}

// Statement is a Node with no value of its own.
type Statement interface {
	Node
	statementNode()
}

// exprBase carries the bookkeeping every Expression needs: the resolved
// compiler Value slot (get_value()) and the optimised/folded marker.
type exprBase struct {
	val       *value.Value
	optimised bool
}

func (e *exprBase) node()                  {}
func (e *exprBase) expressionNode()        {}
func (e *exprBase) GetValue() *value.Value { return e.val }
func (e *exprBase) SetOptimised(folded *value.Value) {
	e.val = folded
	e.optimised = true
}
func (e *exprBase) IsOptimised() bool { return e.optimised }

// --- literals ---

type IntLiteral struct {
	exprBase
	Val int64
}

func NewIntLiteral(v int64) *IntLiteral {
	n := &IntLiteral{Val: v}
	n.val = value.NewInt(value.CONST, v)
	return n
}

type DoubleLiteral struct {
	exprBase
	Val float64
}

func NewDoubleLiteral(v float64) *DoubleLiteral {
	n := &DoubleLiteral{Val: v}
	n.val = value.NewDouble(value.CONST, v)
	return n
}

type StringLiteral struct {
	exprBase
	Val string
}

func NewStringLiteral(s string) *StringLiteral {
	return &StringLiteral{Val: s}
}

type BoolLiteral struct {
	exprBase
	Val bool
}

func NewBoolLiteral(b bool) *BoolLiteral {
	n := &BoolLiteral{Val: b}
	n.val = value.NewBool(value.CONST, b)
	return n
}

// Ident is a NAMED reference: a variable read. Declarations carry their
// type name and variable name as plain strings on VarDecl instead.
type Ident struct {
	exprBase
	Name string
}

func NewIdent(name string) *Ident { return &Ident{Name: name} }

// --- operators ---

// Op identifies a binary or unary operator. The generator maps Op to the
// opcode.Tag it emits; kept distinct from opcode.Tag so the AST layer does
// not need to import the opcode package for anything but this enum's
// semantic neighbours.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpBwOr
	OpBwXor
	OpBwAnd
	OpGreater
	OpLess
	OpGreaterEqual
	OpLessEqual
	OpEqual
	OpNotEqual
	OpPreInc
	OpPosInc
	OpPreDec
	OpPosDec
)

type BinaryExpr struct {
	exprBase
	Op       Op
	LHS, RHS Expression
	IsAssign bool // true for "lhs op= rhs" style assignment forms
}

func NewBinaryExpr(op Op, lhs, rhs Expression) *BinaryExpr {
	return &BinaryExpr{Op: op, LHS: lhs, RHS: rhs}
}
func (n *BinaryExpr) GetOp() Op          { return n.Op }
func (n *BinaryExpr) GetLHS() Expression { return n.LHS }
func (n *BinaryExpr) GetRHS() Expression { return n.RHS }

// UnaryExpr covers pre/post increment and decrement (spec.md §4.4).
type UnaryExpr struct {
	exprBase
	Op   Op
	Expr Expression
}

func NewUnaryExpr(op Op, expr Expression) *UnaryExpr {
	return &UnaryExpr{Op: op, Expr: expr}
}
func (n *UnaryExpr) GetOp() Op           { return n.Op }
func (n *UnaryExpr) GetExpr() Expression { return n.Expr }

// AssignExpr is "lhs = rhs"; LHS must resolve to a NAMED value.
type AssignExpr struct {
	exprBase
	LHS *Ident
	RHS Expression
}

func NewAssignExpr(lhs *Ident, rhs Expression) *AssignExpr {
	return &AssignExpr{LHS: lhs, RHS: rhs}
}

// --- calls ---

type CallExpr struct {
	exprBase
	Callee string
	Args   []Expression
}

func NewCallExpr(callee string, args ...Expression) *CallExpr {
	return &CallExpr{Callee: callee, Args: args}
}
func (n *CallExpr) GetArgs() []Expression { return n.Args }

type MethodCallExpr struct {
	exprBase
	Receiver Expression
	Method   string
	Args     []Expression
}

func NewMethodCallExpr(recv Expression, method string, args ...Expression) *MethodCallExpr {
	return &MethodCallExpr{Receiver: recv, Method: method, Args: args}
}
func (n *MethodCallExpr) GetArgs() []Expression { return n.Args }

// --- statements ---

type stmtBase struct{}

func (s *stmtBase) node()          {}
func (s *stmtBase) statementNode() {}

// VarDecl declares Name of declared type TypeName, with an optional
// initialiser.
type VarDecl struct {
	stmtBase
	TypeName string
	Name     string
	Init     Expression // nil if absent
}

func NewVarDecl(typeName, name string, init Expression) *VarDecl {
	return &VarDecl{TypeName: typeName, Name: name, Init: init}
}

// Block is an ordinary sequence of statements forming a lexical block.
type Block struct {
	stmtBase
	Stmts []Statement
}

func NewBlock(stmts ...Statement) *Block { return &Block{Stmts: stmts} }

// IfBranch is one "if" or "else if" arm.
type IfBranch struct {
	Cond Expression
	Body *Block
}

// IfStmt models the full if / else-if* / else? chain as one node, matching
// how the generator processes it as a single jmp-frame (spec.md §4.4).
type IfStmt struct {
	stmtBase
	Branches []IfBranch
	Else     *Block // nil if no else
}

func NewIfStmt(branches []IfBranch, elseBlock *Block) *IfStmt {
	return &IfStmt{Branches: branches, Else: elseBlock}
}

type WhileStmt struct {
	stmtBase
	Cond Expression
	Body *Block
}

func NewWhileStmt(cond Expression, body *Block) *WhileStmt {
	return &WhileStmt{Cond: cond, Body: body}
}

type BreakStmt struct{ stmtBase }

func NewBreakStmt() *BreakStmt { return &BreakStmt{} }

// EchoStmt is the statement form of the ECHO opcode (spec.md §4.5 / §8).
type EchoStmt struct {
	stmtBase
	Expr Expression
}

func NewEchoStmt(expr Expression) *EchoStmt { return &EchoStmt{Expr: expr} }

// ExprStmt wraps a bare expression used for its side effect (a call, an
// assignment, an increment) at statement position.
type ExprStmt struct {
	stmtBase
	Expr Expression
}

func NewExprStmt(expr Expression) *ExprStmt { return &ExprStmt{Expr: expr} }

// ImportStmt names a package and, optionally, one specific module within
// it (spec.md §4.4 / §6).
type ImportStmt struct {
	stmtBase
	Package string
	Module  string // empty means "whole package"
}

func NewImportStmt(pkg, module string) *ImportStmt {
	return &ImportStmt{Package: pkg, Module: module}
}
