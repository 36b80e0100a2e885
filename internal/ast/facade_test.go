package ast

import "testing"

func pos() Pos { return Pos{Line: 1, Col: 1, Module: "t.dmd"} }

func TestIsExpressionLiteralsAndIdentifiers(t *testing.T) {
	if !IsExpression(NewIntLiteral(pos(), 1)) {
		t.Error("int literal should be an expression")
	}
	if !IsExpression(NewIdentifier(pos(), "x")) {
		t.Error("identifier should be an expression")
	}
	if !IsExpression(NewCall(pos(), "f", nil)) {
		t.Error("call should be an expression")
	}
	if IsExpression(NewAssignment(pos(), "x", NewIntLiteral(pos(), 1))) {
		t.Error("assignment should not be an expression")
	}
	if IsExpression(NewReturn(pos(), nil)) {
		t.Error("return should not be an expression")
	}
}

func TestIsExpressionBlockTrailing(t *testing.T) {
	// A block whose last statement is an expression used as a statement
	// (ExprStatement) does not itself qualify as an expression -- only a
	// block whose last statement IS an Expr in tail position does.
	trailing := NewBlock(pos(), []Node{NewIntLiteral(pos(), 1)})
	if !IsExpression(trailing) {
		t.Error("block with trailing expression in tail position should be an expression")
	}

	empty := NewBlock(pos(), nil)
	if IsExpression(empty) {
		t.Error("empty block should not be an expression")
	}

	stmtTail := NewBlock(pos(), []Node{
		&ExprStatement{Value: NewIntLiteral(pos(), 1)},
	})
	if IsExpression(stmtTail) {
		t.Error("block whose tail is an ExprStatement should not qualify under IsExpression")
	}
}

func TestCouldBeExpressionPermitsExprStatementTail(t *testing.T) {
	stmtTail := NewBlock(pos(), []Node{
		&ExprStatement{Value: NewIntLiteral(pos(), 1)},
	})
	if !CouldBeExpression(stmtTail) {
		t.Error("block whose tail is an ExprStatement wrapping an expression should qualify under CouldBeExpression")
	}

	empty := NewBlock(pos(), nil)
	if CouldBeExpression(empty) {
		t.Error("empty block should not qualify under CouldBeExpression")
	}

	nonExprTail := NewBlock(pos(), []Node{
		NewAssignment(pos(), "x", NewIntLiteral(pos(), 1)),
	})
	if CouldBeExpression(nonExprTail) {
		t.Error("block whose tail is a bare non-expression statement should not qualify")
	}
}

func TestIsExpressionIfRequiresElseAndBothBranches(t *testing.T) {
	cond := NewIdentifier(pos(), "cond")
	thenBlk := NewBlock(pos(), []Node{NewIntLiteral(pos(), 1)})
	elseBlk := NewBlock(pos(), []Node{NewIntLiteral(pos(), 2)})

	withElse := NewIf(pos(), cond, thenBlk, elseBlk)
	if !IsExpression(withElse) {
		t.Error("if/else with two expression-valued branches should be an expression")
	}

	noElse := NewIf(pos(), cond, thenBlk, nil)
	if IsExpression(noElse) {
		t.Error("if without else should never be an expression")
	}

	nonExprBranch := NewBlock(pos(), []Node{
		NewAssignment(pos(), "x", NewIntLiteral(pos(), 1)),
	})
	mismatched := NewIf(pos(), cond, thenBlk, nonExprBranch)
	if IsExpression(mismatched) {
		t.Error("if/else should not be an expression when a branch does not reduce to a value")
	}
}
