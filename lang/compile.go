package lang

import (
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

// Compile parses expression text and translates it into an [Operation].
//
// Sub-expressions built only from constants and pure operators are
// evaluated once, here, and replaced by their value. A failure while doing
// so is reported as [ErrInvalidExpression] wrapping the evaluation error.
//
// Only the logger option is consulted.
func Compile(src string, opts ...Option) (Operation, error) {
	o := makeOptions(opts...)

	tree, err := parser.Parse(src)
	if err != nil {
		return nil, ErrInvalidExpression.Wrap(err)
	}

	ast.Walk(&tree.Node, &callPatcher{logger: o.logger})

	op, err := translate(tree.Node)
	if err != nil {
		return nil, err
	}

	o.logger.Trace("compile expression",
		attrSource(src),
		attrConstant(op))

	return op, nil
}

// MustCompile is like [Compile] but panics on error.
func MustCompile(src string) Operation {
	op, err := Compile(src)
	if err != nil {
		panic(err)
	}

	return op
}

var (
	arithmeticOps = []string{"+", "-", "*", "/", "%"}
	comparisonOps = []string{"==", "!=", "<", "<=", ">", ">="}
	stringOps     = []string{"matches", "in", "contains", "startsWith", "endsWith", ".."}
)

func translate(n ast.Node) (Operation, error) {
	switch v := n.(type) {
	case *ast.NilNode:
		return NewLiteral(Null), nil
	case *ast.BoolNode:
		return NewLiteral(Boolean(v.Value)), nil
	case *ast.IntegerNode:
		return NewLiteral(Long(v.Value)), nil
	case *ast.FloatNode:
		return NewLiteral(Double(v.Value)), nil
	case *ast.StringNode:
		return NewLiteral(String(v.Value)), nil

	case *ast.IdentifierNode:
		switch v.Value {
		case "undef":
			return NewLiteral(Undef), nil
		case "null":
			return NewLiteral(Null), nil
		}

		return &variableRef{name: v.Value}, nil

	case *ast.UnaryNode:
		return translateUnary(v)
	case *ast.BinaryNode:
		return translateBinary(v)

	case *ast.ConditionalNode:
		ops, err := translateAll(v.Cond, v.Exp1, v.Exp2)
		if err != nil {
			return nil, err
		}

		return fold(&conditionalOp{cond: ops[0], then: ops[1], els: ops[2]}, ops...)

	case *ast.ChainNode:
		return translate(v.Node)

	case *ast.MemberNode:
		ops, err := translateAll(v.Node, v.Property)
		if err != nil {
			return nil, err
		}

		return fold(&indexOp{base: ops[0], sub: ops[1], optional: v.Optional}, ops...)

	case *ast.SliceNode:
		ops, err := translateAll(v.Node, v.From, v.To)
		if err != nil {
			return nil, err
		}

		op := &sliceOp{base: ops[0]}
		if v.From != nil {
			op.from = ops[1]
		}

		if v.To != nil {
			op.to = ops[2]
		}

		return fold(op, ops...)

	case *ast.ArrayNode:
		ops, err := translateAll(v.Nodes...)
		if err != nil {
			return nil, err
		}

		return fold(&listOp{items: ops}, ops...)

	case *ast.MapNode:
		return translateMap(v)

	case *ast.SequenceNode:
		ops, err := translateAll(v.Nodes...)
		if err != nil {
			return nil, err
		}

		return fold(&sequenceOp{ops: ops}, ops...)

	case *ast.VariableDeclaratorNode:
		if IsReserved(v.Name) {
			return nil, ErrInvalidExpression.Wrapf("cannot declare reserved variable %s", v.Name)
		}

		ops, err := translateAll(v.Value, v.Expr)
		if err != nil {
			return nil, err
		}

		return &letOp{name: v.Name, value: ops[0], body: ops[1]}, nil

	case *ast.CallNode:
		return translateCall(v)
	}

	return nil, ErrInvalidExpression.Wrapf("unsupported expression %s", n)
}

// translateAll translates each node. Nil nodes translate to an undefined
// literal.
func translateAll(nodes ...ast.Node) ([]Operation, error) {
	ops := make([]Operation, len(nodes))

	for i, n := range nodes {
		if n == nil {
			ops[i] = NewLiteral(Undef)

			continue
		}

		op, err := translate(n)
		if err != nil {
			return nil, err
		}

		ops[i] = op
	}

	return ops, nil
}

func translateUnary(v *ast.UnaryNode) (Operation, error) {
	switch v.Operator {
	case "-", "+", "!", "not":
	default:
		return nil, ErrInvalidExpression.Wrapf("unsupported operator %s", v.Operator)
	}

	x, err := translate(v.Node)
	if err != nil {
		return nil, err
	}

	return fold(&unaryOp{op: v.Operator, x: x}, x)
}

func translateBinary(v *ast.BinaryNode) (Operation, error) {
	ops, err := translateAll(v.Left, v.Right)
	if err != nil {
		return nil, err
	}

	l, r := ops[0], ops[1]

	var op Operation

	switch {
	case v.Operator == "&&" || v.Operator == "and":
		op = &logicalOp{l: l, r: r, and: true}
	case v.Operator == "||" || v.Operator == "or":
		op = &logicalOp{l: l, r: r}
	case v.Operator == "??":
		op = &coalesceOp{l: l, r: r}
	case oneOf(v.Operator, arithmeticOps, comparisonOps, stringOps):
		op = &binaryOp{l: l, r: r, op: v.Operator}
	default:
		return nil, ErrInvalidExpression.Wrapf("unsupported operator %s", v.Operator)
	}

	return fold(op, l, r)
}

func oneOf(s string, sets ...[]string) bool {
	for _, set := range sets {
		for _, t := range set {
			if s == t {
				return true
			}
		}
	}

	return false
}

func translateMap(v *ast.MapNode) (Operation, error) {
	op := &dictOp{}

	for _, p := range v.Pairs {
		pair, ok := p.(*ast.PairNode)
		if !ok {
			return nil, ErrInvalidExpression.Wrapf("unsupported map entry %s", p)
		}

		kv, err := translateAll(pair.Key, pair.Value)
		if err != nil {
			return nil, err
		}

		op.keys = append(op.keys, kv[0])
		op.values = append(op.values, kv[1])
	}

	return fold(op, append(op.keys, op.values...)...)
}

func translateCall(v *ast.CallNode) (Operation, error) {
	ident, ok := v.Callee.(*ast.IdentifierNode)
	if !ok {
		return nil, ErrInvalidExpression.Wrapf("cannot call %s", v.Callee)
	}

	name := ident.Value

	switch name {
	case "set":
		return translateSet(v.Arguments)
	case "for":
		ops, err := special(name, 4, v.Arguments)
		if err != nil {
			return nil, err
		}

		return &forOp{init: ops[0], cond: ops[1], step: ops[2], body: ops[3]}, nil
	case "while":
		ops, err := special(name, 2, v.Arguments)
		if err != nil {
			return nil, err
		}

		return &whileOp{cond: ops[0], body: ops[1]}, nil
	case "foreach":
		return translateForeach(v.Arguments)
	}

	args, err := translateAll(v.Arguments...)
	if err != nil {
		return nil, err
	}

	if b, ok := builtins()[name]; ok {
		if len(args) < b.min || (b.max >= 0 && len(args) > b.max) {
			return nil, ErrInvalidExpression.Wrapf(
				"%s: wrong number of arguments (%d)", name, len(args))
		}

		call := &builtinCall{fn: b.fn, name: name, args: args}
		if !b.pure {
			return call, nil
		}

		return fold(call, args...)
	}

	if strings.Contains(name, ".") {
		return nil, ErrUndefinedFunction.Wrapf("%s%s", name, DidYouMean(name, BuiltinNames()))
	}

	return &functionCall{name: name, args: args}, nil
}

func special(name string, n int, args []ast.Node) ([]Operation, error) {
	if len(args) != n {
		return nil, ErrInvalidExpression.Wrapf(
			"%s requires %d arguments, found %d", name, n, len(args))
	}

	return translateAll(args...)
}

// translateSet compiles set(target, value). The target is a variable,
// optionally followed by member or index accesses.
func translateSet(args []ast.Node) (Operation, error) {
	if len(args) != 2 {
		return nil, ErrInvalidExpression.Wrapf("set requires 2 arguments, found %d", len(args))
	}

	root, subs, err := setTarget(args[0])
	if err != nil {
		return nil, err
	}

	value, err := translate(args[1])
	if err != nil {
		return nil, err
	}

	return &setOp{root: root, subs: subs, value: value}, nil
}

func setTarget(n ast.Node) (string, []Operation, error) {
	switch v := n.(type) {
	case *ast.IdentifierNode:
		if v.Value != "SELF" && IsReserved(v.Value) {
			return "", nil, ErrReservedVariable.Wrapf("%s", v.Value)
		}

		return v.Value, nil, nil

	case *ast.MemberNode:
		root, subs, err := setTarget(v.Node)
		if err != nil {
			return "", nil, err
		}

		sub, err := translate(v.Property)
		if err != nil {
			return "", nil, err
		}

		return root, append(subs, sub), nil
	}

	return "", nil, ErrInvalidExpression.Wrapf("cannot set %s", n)
}

// translateForeach compiles foreach(k, v, resource, body).
func translateForeach(args []ast.Node) (Operation, error) {
	if len(args) != 4 {
		return nil, ErrInvalidExpression.Wrapf("foreach requires 4 arguments, found %d", len(args))
	}

	var names [2]string

	for i := range names {
		ident, ok := args[i].(*ast.IdentifierNode)
		if !ok {
			return nil, ErrInvalidExpression.Wrapf("foreach variable must be a name, found %s", args[i])
		}

		if IsReserved(ident.Value) {
			return nil, ErrReservedVariable.Wrapf("%s", ident.Value)
		}

		names[i] = ident.Value
	}

	ops, err := translateAll(args[2], args[3])
	if err != nil {
		return nil, err
	}

	op := &foreachOp{key: names[0], value: names[1], res: ops[0], body: ops[1]}

	if ref, ok := ops[0].(*variableRef); ok && !IsReserved(ref.name) {
		op.variable = ref.name
	}

	return op, nil
}

// fold evaluates op once if every operand is constant.
func fold(op Operation, operands ...Operation) (Operation, error) {
	for _, x := range operands {
		if _, ok := Constant(x); !ok {
			return op, nil
		}
	}

	v, err := op.Execute(compileTime{})
	if err != nil {
		return nil, ErrInvalidExpression.Wrap(err)
	}

	return NewLiteral(v), nil
}

// compileTime is the context constant expressions are folded in. It holds
// no state and refuses every operation that would need some.
type compileTime struct{}

func (compileTime) GlobalVariable(string) Element       { return nil }
func (compileTime) LocalVariable(string) Element        { return nil }
func (compileTime) IsFinal(Path) bool                   { return false }
func (compileTime) SetFinal(Path)                       {}
func (compileTime) FinalReason(Path) string             { return "" }
func (compileTime) PopFrame()                           {}
func (compileTime) PopTemplate()                        {}
func (compileTime) CurrentTemplate() *Template          { return nil }
func (compileTime) FirstInclusion(string) bool          { return false }
func (compileTime) IterationLimit() int                 { return DefaultIterationLimit }
func (compileTime) CallLimit() int                      { return DefaultCallLimit }
func (compileTime) Self() Element                       { return Undef }
func (compileTime) SetSelf(Element) Element             { return Undef }
func (compileTime) RestoreSelf(Element)                 {}
func (compileTime) RelativeRoot() Container             { return nil }
func (compileTime) SetRelativeRoot(Container) Container { return nil }
func (compileTime) IsCompileTime() bool                 { return true }

func (compileTime) SetGlobalVariable(string, Element, bool) error { return ErrNotCompileTime }
func (compileTime) SetLocalVariable(string, Element) error        { return ErrNotCompileTime }
func (compileTime) Element(Path) (Element, error)                 { return nil, ErrNotCompileTime }
func (compileTime) PutElement(Path, Element) error                { return ErrNotCompileTime }
func (compileTime) FullType(string) (*FullType, error)            { return nil, ErrNotCompileTime }
func (compileTime) SetFullType(string, *FullType) error           { return ErrNotCompileTime }
func (compileTime) SetBinding(Path, *FullType) error              { return ErrNotCompileTime }
func (compileTime) Function(string) (*Function, error)            { return nil, ErrNotCompileTime }
func (compileTime) SetFunction(*Function) error                   { return ErrNotCompileTime }
func (compileTime) PushFrame(*Function, []Element) error          { return ErrNotCompileTime }
func (compileTime) PushTemplate(*Template) error                  { return ErrNotCompileTime }
func (compileTime) LocalLoad(string) (*Template, error)           { return nil, ErrNotCompileTime }
func (compileTime) GlobalLoad(string) (*Template, error)          { return nil, ErrNotCompileTime }
