package cmd

import (
	"context"
	"fmt"

	"github.com/ardnew/panc/pkg"
)

// Version prints the module version.
type Version struct{}

func (Version) Run(ctx context.Context) error {
	_, err := fmt.Fprintf(outputFrom(ctx), "%s %s\n", pkg.Name, pkg.Version())

	return err
}
