// Package cmd implements the panc subcommands.
//
// The commands share their compiler settings through the context built by
// the cli package: see [WithSettings] and [WithContext].
//
//   - compile builds object templates into profiles
//   - watch rebuilds them whenever a template they depend on changes
//   - init writes the current flags to the configuration file
//   - version prints the module version
package cmd

const (
	// ConfigIdentifier is the kong variable holding the configuration file
	// path.
	ConfigIdentifier = "config"

	// CacheIdentifier is the kong variable holding the cache directory.
	CacheIdentifier = "cache"

	// FormatsIdentifier is the kong variable listing the output formats.
	FormatsIdentifier = "formats"
)
