package codegen

import (
	"github.com/funvibe/clever/internal/ast"
	"github.com/funvibe/clever/internal/diag"
	"github.com/funvibe/clever/internal/opcode"
)

// genIfStmt implements spec.md §4.4's if/else-if/else contract. All jump
// addresses are absolute stream indices (§4.4 "Jump-address model"): each
// arm's JMPZ.jmp1 is patched to the next arm's own position (or, for an
// else, to just past the unconditional JMP it triggers); every entry's
// jmp2, plus any arm that turned out to be the chain's last JMPZ, is
// patched at end-if to the index one past the whole construct.
//
// This resolves an apparent off-by-one in spec.md §8 scenario 3's literal
// illustration (JMP(jmp2→5) over a 4-opcode stream indexed 0-3): the
// original source's getOpNum() convention the spec's "+1"/"+2" offsets
// describe turns out, traced against original_source/src/astvisitor.cc, to
// land exactly one past the stream's current length at the patch site —
// which on a stream of length 4 is index 4, not 5. This generator computes
// that target directly (g.stream.Len() at patch time) rather than
// replaying the literal offset arithmetic, and is exercised by this
// package's tests against the corrected index.
func (g *Generator) genIfStmt(n *ast.IfStmt) error {
	g.jmps = append(g.jmps, nil)
	frame := len(g.jmps) - 1

	for i, br := range n.Branches {
		if i > 0 {
			top := g.jmps[frame]
			top[len(top)-1].Jmp1 = g.stream.Len()
		}
		cond, err := g.genExpr(br.Cond)
		if err != nil {
			return err
		}
		jz := opcode.New(opcode.JMPZ, cond, nil, nil)
		g.stream.Append(jz)
		cond.Release()
		g.jmps[frame] = append(g.jmps[frame], jz)
		if err := g.genBlock(br.Body); err != nil {
			return err
		}
	}

	if n.Else != nil {
		jmpE := opcode.New(opcode.JMP, nil, nil, nil)
		g.stream.Append(jmpE)
		top := g.jmps[frame]
		top[len(top)-1].Jmp1 = g.stream.Len()
		g.jmps[frame] = append(g.jmps[frame], jmpE)
		if err := g.genBlock(n.Else); err != nil {
			return err
		}
	}

	end := g.stream.Len()
	for _, op := range g.jmps[frame] {
		if op.Tag == opcode.JMPZ && op.Jmp1 == opcode.NoJump {
			op.Jmp1 = end
		}
		op.Jmp2 = end
	}
	g.jmps = g.jmps[:frame]
	return nil
}

// genWhileStmt implements spec.md §4.4's while contract. A while loop only
// ever has a single jmp-frame entry (its own JMPZ), so it is tracked
// directly rather than through the shared jmps stack the if-chain uses;
// break targets still go through the shared brks stack since an arbitrary
// number of break statements can appear in the body.
func (g *Generator) genWhileStmt(n *ast.WhileStmt) error {
	g.brks = append(g.brks, nil)
	brk := len(g.brks) - 1

	loopStart := g.stream.Len()
	cond, err := g.genExpr(n.Cond)
	if err != nil {
		return err
	}
	jz := opcode.New(opcode.JMPZ, cond, nil, nil)
	g.stream.Append(jz)
	cond.Release()

	if err := g.genBlock(n.Body); err != nil {
		return err
	}

	jmpBack := opcode.New(opcode.JMP, nil, nil, nil)
	g.stream.Append(jmpBack)
	scopeOut := g.stream.Len()

	jz.Jmp1 = scopeOut
	for _, b := range g.brks[brk] {
		// A break is a plain JMP, and the VM's JMP handler reads jmp2.
		b.Jmp1 = scopeOut
		b.Jmp2 = scopeOut
	}
	jmpBack.Jmp2 = loopStart

	g.brks = g.brks[:brk]
	return nil
}

func (g *Generator) genBreakStmt(n *ast.BreakStmt) error {
	if len(g.brks) == 0 {
		return diag.NewCompileError("break outside loop")
	}
	jmp := opcode.New(opcode.JMP, nil, nil, nil)
	g.stream.Append(jmp)
	top := len(g.brks) - 1
	g.brks[top] = append(g.brks[top], jmp)
	return nil
}

func (g *Generator) genEchoStmt(n *ast.EchoStmt) error {
	v, err := g.genExpr(n.Expr)
	if err != nil {
		return err
	}
	op := opcode.New(opcode.ECHO, v, nil, nil)
	g.stream.Append(op)
	v.Release()
	return nil
}

func (g *Generator) genImportStmt(n *ast.ImportStmt) error {
	if err := g.modules.Import(n.Package, n.Module); err != nil {
		return diag.NewCompileError("%v", err)
	}
	return nil
}
