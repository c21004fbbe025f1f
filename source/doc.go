// Package source loads templates from YAML documents on disk.
//
// A template named "site/base" is found at <dir>/site/base.yaml (or .yml)
// in the first directory of the load path that has it. Each document
// declares its kind, its name and an ordered list of statements:
//
//	kind: object
//	name: node01
//	statements:
//	  - include: site/base
//	  - variable: PORTS
//	    value: [22, 443]
//	  - assign: /system/hostname
//	    value: node01
//	  - assign: /system/ports
//	    expr: merge(SELF ?? [], PORTS)
//	  - bind: /system/ports
//	    spec: port[]
//
// Statement selectors are assign, variable, bind, function, type and
// include. Literal values are YAML scalars, sequences and mappings; computed
// values are given as expression text under expr. Type specifications are
// either short strings such as "long(1..10)", "port[]", "string{}" or
// "host*", or mappings describing records, choices and defaults.
//
// Parsed templates are cached by content hash and shared by every build
// that loads them.
package source
