package cli

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/ardnew/cel/pkg"
)

const (
	// baseConfig is the base name of the configuration file.
	baseConfig = "config"

	// configExt is the extension of the expression-language configuration
	// file. A JSON file with the same base name is also consulted.
	configExt = ".cel"
)

var defaultDirMode os.FileMode = 0o700

// basePrefix returns the name of the per-user configuration and cache
// directories: the base name of the executable, with the default output of
// the dlv debugger mapped to the package name and leading dots removed.
var basePrefix = sync.OnceValue(
	func() string {
		id := os.Args[0]
		if exe, err := os.Executable(); err == nil {
			id = exe
		}

		id = filepath.Base(id)
		id = strings.TrimSuffix(id, filepath.Ext(id))

		if regexp.MustCompile(`^__debug_bin\d*$`).MatchString(id) {
			return pkg.Name
		}

		if id = strings.TrimLeft(id, "."); id == "" {
			return pkg.Name
		}

		return id
	},
)

// userDir joins the per-user directory reported by dir with basePrefix. If
// dir fails it uses fallback under the home directory, then the working
// directory.
func userDir(dir func() (string, error), fallback string) string {
	root, err := dir()
	if err != nil {
		if root, err = os.UserHomeDir(); err == nil {
			root = filepath.Join(root, fallback)
		} else if root, err = os.Getwd(); err != nil {
			root = "."
		}
	}

	return filepath.Join(root, basePrefix())
}

// configDir returns the configuration directory path.
var configDir = sync.OnceValue(func() string {
	return userDir(os.UserConfigDir, ".config")
})

// cacheDir returns the cache directory path used for the shell history and
// profiles.
var cacheDir = sync.OnceValue(func() string {
	return userDir(os.UserCacheDir, ".cache")
})

// configPath joins the configuration directory with the given elements.
func configPath(elem ...string) string {
	return filepath.Join(append([]string{configDir()}, elem...)...)
}

// mkdirAllRequired creates the configuration and cache directories.
func mkdirAllRequired() error {
	for _, dir := range []string{configDir(), cacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}
