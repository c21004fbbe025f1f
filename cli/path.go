package cli

import (
	"os"
	"path/filepath"

	"github.com/ardnew/panc/pkg"
)

// configFile is the base name of the configuration file in
// [pkg.ConfigDir].
const configFile = "config.yaml"

// dirMode is the permission mode of created directories.
const dirMode os.FileMode = 0o700

// configPath returns the path of the configuration file.
func configPath() string {
	return filepath.Join(pkg.ConfigDir(), configFile)
}

// mkdirAll creates the configuration and cache directories.
func mkdirAll() error {
	for _, dir := range []string{pkg.ConfigDir(), pkg.CacheDir()} {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return err
		}
	}

	return nil
}
