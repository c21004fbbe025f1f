// Package lang implements the semantic core of a configuration language
// compiler: it executes templates against a configuration tree and checks the
// result against declared types.
//
// # Elements
//
// Every value is an [Element]. Properties ([Boolean], [Long], [Double] and
// [String]) are immutable scalars. Resources ([List] and [Dict]) hold
// children addressed by [Term]s: non-negative indexes for lists and escaped
// keys for dicts. A resource is either owned, and then a [Container] that may
// be modified in place, or protected: a read-only handle that is copied on
// the first write. [Undef] marks a location that was never assigned and
// [Null] requests deletion.
//
// # Paths
//
// A [Path] addresses an element. Absolute paths ("/a/b/0") are resolved
// against the root dict of the tree, relative paths ("a/b") against the dict
// built by a structure template, and external paths ("//obj/a" or "obj:/a")
// name another object.
//
// # Templates and statements
//
// A [Template] is an immutable, named list of [Statement]s of one of five
// kinds:
//
//	object       the entry point of a build
//	ordinary     absolute assignments, included any number of times
//	unique       like ordinary, but executed only once per build
//	declaration  functions, types, variables and bindings only
//	structure    relative assignments, instantiated with create()
//
// Statements assign to paths ("/a = expr", "/a ?= expr", final variants),
// set global variables, declare functions and types, bind types to paths
// and include other templates. A final path cannot be changed afterwards,
// nor can anything below it.
//
// # Expressions
//
// Expression text is parsed with the expr-lang grammar and translated by
// [Compile] into an [Operation] tree with this package's own semantics.
// Constant sub-expressions are folded at compile time. Builtins cover tree
// access (value, exists), type tests, conversions, list and dict helpers,
// string helpers, error and create; see [BuiltinNames].
//
// # Types
//
// A [FullType] pairs a [BaseType] (primitive, list, dict, link, record,
// alias or choice) with an optional default and an optional validation
// expression. After every statement of the object template has run,
// [BuildContext.Finish] applies defaults to each bound path and then
// validates it, in path order. Failures are reported as [*ValidationError]
// values carrying the element path, the offending value and the stack of
// types being checked.
//
// # Building
//
// [Build] loads an object template through a [Loader], executes it in a
// fresh [BuildContext] and returns the finished [Profile], which can be
// written as JSON, YAML or flat text with [Profile.Encode].
package lang

//go:generate go tool stringer --linecomment --type ErrorKind,Format,Kind,PathKind,TemplateKind --output kind_string.go
