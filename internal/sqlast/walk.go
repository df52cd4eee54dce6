package sqlast

import (
	"fmt"
	"io"
	"strings"
)

// Visitor is called for each node by Walk. If Visit returns nil the node's
// children are skipped; otherwise Walk continues with the returned visitor.
type Visitor interface {
	Visit(n Node) Visitor
}

// Walk traverses n depth-first in rendering order.
func Walk(v Visitor, n Node) {
	if v = v.Visit(n); v == nil {
		return
	}

	switch node := n.(type) {
	case *Union:
		for _, c := range node.Clauses {
			Walk(v, c)
		}
	case Union:
		for _, c := range node.Clauses {
			Walk(v, c)
		}
	case Where:
		Walk(v, node.Expr)
	case InnerJoin:
		Walk(v, node.Expr)
	case Disjunction:
		for _, c := range node.Conjunctions {
			Walk(v, c)
		}
	case Conjunction:
		for _, rel := range node.Relations {
			Walk(v, rel)
		}
	case Relation:
		Walk(v, node.Op)
		Walk(v, node.LHS)
		Walk(v, node.RHS)
	case Call:
		for _, o := range node.Operands {
			Walk(v, o)
		}
	case RelationOp, Column, Constant:
		// leaves
	default:
		panic(fmt.Sprintf("sqlast.Walk: unexpected node type %T", n))
	}
}

type inspector func(Node) bool

func (f inspector) Visit(n Node) Visitor {
	if f(n) {
		return f
	}
	return nil
}

// Inspect traverses n calling f for each node; returning false skips the
// node's children.
func Inspect(n Node, f func(Node) bool) {
	Walk(inspector(f), n)
}

// Tables returns the distinct table names referenced by columns and joins
// under n, in first-seen order.
func Tables(n Node) []string {
	seen := map[string]bool{}
	var out []string
	add := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	Inspect(n, func(n Node) bool {
		switch node := n.(type) {
		case InnerJoin:
			for _, t := range node.Tables {
				add(t)
			}
		case Column:
			add(node.Table)
		}
		return true
	})
	return out
}

type printer struct {
	w      io.Writer
	indent int
}

func (p printer) Visit(n Node) Visitor {
	fmt.Fprintf(p.w, "%s%s\n", strings.Repeat(" ", p.indent), nodeLabel(n))
	return printer{w: p.w, indent: p.indent + 2}
}

// PrettyPrint writes an indented outline of the tree to w.
func PrettyPrint(w io.Writer, n Node) {
	Walk(printer{w: w}, n)
}

func nodeLabel(n Node) string {
	switch node := n.(type) {
	case *Union, Union:
		return "Union"
	case Where:
		return "Where"
	case InnerJoin:
		return "InnerJoin " + strings.Join(node.Tables, ",")
	case Disjunction:
		return "Disjunction"
	case Conjunction:
		return "Conjunction"
	case Relation:
		return "Relation"
	case RelationOp:
		return "RelationOp " + string(node)
	case Column:
		return "Column " + Render(node, RenderOptions{})
	case Constant:
		return "Constant " + node.Literal
	case Call:
		return "Call " + node.Name
	default:
		return fmt.Sprintf("%T", n)
	}
}
