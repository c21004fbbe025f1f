package lang

import (
	"log/slog"
	"strings"

	"github.com/expr-lang/expr/ast"

	"github.com/ardnew/panc/log"
)

// callPatcher normalizes call sites in a parsed expression before it is
// translated.
//
// The expression grammar parses a dotted call such as "mung.prefix(x)" as a
// method call on a member node, and names a handful of functions as its own
// builtins ("len", "upper", ...). This visitor rewrites both forms into plain
// calls by name so that translation only ever sees [ast.CallNode] with an
// identifier callee.
type callPatcher struct {
	logger log.Logger
}

// Visit implements ast.Visitor for callPatcher.
func (p *callPatcher) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.CallNode:
		member, ok := n.Callee.(*ast.MemberNode)
		if !ok {
			return
		}

		name, ok := dottedName(member)
		if !ok {
			return
		}

		ast.Patch(node, &ast.CallNode{
			Callee:    &ast.IdentifierNode{Value: name},
			Arguments: n.Arguments,
		})

		p.logger.Trace("patch call",
			slog.String("name", name),
			slog.String("patch_type", "dotted"))

	case *ast.BuiltinNode:
		name := n.Name
		if alias, ok := builtinAliases[name]; ok {
			name = alias
		}

		ast.Patch(node, &ast.CallNode{
			Callee:    &ast.IdentifierNode{Value: name},
			Arguments: n.Arguments,
		})

		p.logger.Trace("patch call",
			slog.String("name", name),
			slog.String("grammar_name", n.Name),
			slog.String("patch_type", "builtin"))
	}
}

// dottedName flattens a chain of member accesses on identifiers, such as
// a.b.c, into its dotted name.
func dottedName(n ast.Node) (string, bool) {
	var parts []string

	for {
		switch v := n.(type) {
		case *ast.IdentifierNode:
			parts = append(parts, v.Value)

			for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
				parts[i], parts[j] = parts[j], parts[i]
			}

			return strings.Join(parts, "."), true

		case *ast.MemberNode:
			prop, ok := v.Property.(*ast.StringNode)
			if !ok || v.Optional {
				return "", false
			}

			parts = append(parts, prop.Value)
			n = v.Node

		default:
			return "", false
		}
	}
}
