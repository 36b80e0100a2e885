package analyzer

import "github.com/diamond-lang/diamondc/internal/ast"

// walkCalls visits every ast.Call reachable from n, in source order. It
// mirrors the small bespoke traversal shape internal/unify.walk and
// internal/usage.Marker.walk already use for this node set, rather than
// introducing a generic visitor — each pass's walker only needs to reach
// the nodes relevant to it.
func walkCalls(n ast.Node, visit func(*ast.Call)) {
	switch v := n.(type) {
	case *ast.Call:
		visit(v)
		for _, a := range v.Args {
			walkCalls(a.Value, visit)
		}
	case *ast.Declaration:
		walkCalls(v.Value, visit)
	case *ast.Assignment:
		walkCalls(v.Value, visit)
	case *ast.Return:
		if v.Value != nil {
			walkCalls(v.Value, visit)
		}
	case *ast.ExprStatement:
		walkCalls(v.Value, visit)
	case *ast.Block:
		for _, s := range v.Stmts {
			walkCalls(s, visit)
		}
	case *ast.If:
		walkCalls(v.Cond, visit)
		walkCalls(v.Then, visit)
		if v.Else != nil {
			walkCalls(v.Else, visit)
		}
	case *ast.ArrayLiteral:
		for _, e := range v.Elements {
			walkCalls(e, visit)
		}
	case *ast.StructLiteral:
		for _, f := range v.Fields {
			walkCalls(f.Value, visit)
		}
	case *ast.FieldAccess:
		walkCalls(v.Object, visit)
	case *ast.AddressOf:
		walkCalls(v.Operand, visit)
	case *ast.Dereference:
		walkCalls(v.Operand, visit)
	case *ast.NewExpr:
		walkCalls(v.Operand, visit)
	}
}
