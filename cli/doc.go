// Package cli is the command line interface of panc.
//
// # Usage
//
//	panc [flags] compile <object>...
//	panc [flags] watch <object>...
//	panc init [--force | --print]
//	panc version
//
// compile is the default command, so "panc node01" compiles node01.
// Templates are read from the directories given with --templates (the
// working directory by default). Profiles go to standard output unless
// --output names a directory.
//
// # Configuration
//
// Flags may also be set in $XDG_CONFIG_HOME/panc/config.yaml (or the
// platform's equivalent), which "panc init" writes from the current flags.
// Keys are flag names; nested mappings join their keys with a dash:
//
//	templates: [/srv/panc/site, /srv/panc/types]
//	log:
//	  level: debug
//	  pretty: false
//	format: yaml
//
// Environment variables named PANC_<FLAG> override the file, and the
// command line overrides both.
//
// # Logging options
//
//   - --log-level: trace, debug, info, warn or error
//   - --log-format: text or json
//   - --log-time-layout: a time package constant name, a layout, or none
//   - --[no-]log-caller, --[no-]log-pretty
//
// Logging flags take effect before any other flag is parsed.
//
// # Profiling options
//
// Builds with the pprof tag add --pprof-mode and --pprof-dir; see package
// profile.
package cli
