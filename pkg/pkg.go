// Package pkg holds the identity of the panc module and the error chain and
// directory helpers shared by its commands.
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version of the module, without a leading "v".
func Version() string { return strings.TrimSpace(version) }

const (
	// Name is the command name, also used for the configuration and cache
	// directories.
	Name = "panc"
	// Description is the one-line summary shown in help output.
	Description = "Compile machine profiles from configuration templates"
)

// AuthorInfo names one author.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the authors of the module.
//
//nolint:gochecknoglobals
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
