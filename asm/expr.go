package asm

import "github.com/r2k-toolchain/mips/ast"

// evalExpr evaluates e against the constants known so far, failing with
// ErrUnknownConstant if it names a constant not yet defined.
func (b *Builder) evalExpr(e ast.Expr) (int64, error) {
	switch v := e.(type) {
	case ast.Number:
		return v.Value, nil
	case ast.Name:
		val, ok := b.constants[v.Value]
		if !ok {
			return 0, diag(ErrUnknownConstant, v.Pos.Start, v.Pos.End)
		}
		return val, nil
	case ast.Unary:
		operand, err := b.evalExpr(v.Operand)
		if err != nil {
			return 0, err
		}
		switch v.Op {
		case ast.OpNeg:
			return -operand, nil
		case ast.OpNot:
			return ^operand, nil
		}
	case ast.Binary:
		left, err := b.evalExpr(v.Left)
		if err != nil {
			return 0, err
		}
		right, err := b.evalExpr(v.Right)
		if err != nil {
			return 0, err
		}
		switch v.Op {
		case ast.OpAdd:
			return left + right, nil
		case ast.OpSub:
			return left - right, nil
		case ast.OpMul:
			return left * right, nil
		case ast.OpDiv:
			if right == 0 {
				return 0, diag(ErrUnknownConstant, v.Pos.Start, v.Pos.End)
			}
			return left / right, nil
		case ast.OpShl:
			return left << uint(right), nil
		case ast.OpShr:
			return left >> uint(right), nil
		case ast.OpAnd:
			return left & right, nil
		case ast.OpXor:
			return left ^ right, nil
		case ast.OpOr:
			return left | right, nil
		}
	}
	return 0, diag(ErrUnknownConstant, 0, 0)
}
