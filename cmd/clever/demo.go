package main

import "github.com/funvibe/clever/internal/ast"

// constOnlyProgram has no NAMED variables at all — every operand folds to
// or starts life as a CONST literal, so it is the one shape of program a
// persisted .cvmb file can replay without a recompile.
func constOnlyProgram() *ast.Block {
	return ast.NewBlock(
		ast.NewEchoStmt(ast.NewBinaryExpr(ast.OpAdd, ast.NewIntLiteral(1), ast.NewIntLiteral(2))),
	)
}

// demoProgram stands in for what a lexer/parser would hand the code
// generator (spec.md §6 treats that producer as an external collaborator,
// out of scope here) — a fixed syntax tree exercising declaration,
// arithmetic, a conditional, and a counted loop, the same shapes
// internal/codegen's own scenario tests build by hand.
func demoProgram() *ast.Block {
	return ast.NewBlock(
		ast.NewVarDecl("Int", "total", ast.NewIntLiteral(0)),
		ast.NewVarDecl("Int", "i", ast.NewIntLiteral(0)),
		ast.NewWhileStmt(
			ast.NewBinaryExpr(ast.OpLess, ast.NewIdent("i"), ast.NewIntLiteral(5)),
			ast.NewBlock(
				ast.NewExprStmt(func() ast.Expression {
					e := ast.NewBinaryExpr(ast.OpAdd, ast.NewIdent("total"), ast.NewIdent("i"))
					e.IsAssign = true
					return e
				}()),
				ast.NewExprStmt(ast.NewUnaryExpr(ast.OpPreInc, ast.NewIdent("i"))),
			),
		),
		ast.NewEchoStmt(ast.NewIdent("total")),
	)
}
