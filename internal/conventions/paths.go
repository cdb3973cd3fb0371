package conventions

import (
	"os"
	"path/filepath"

	"k8s.io/client-go/util/homedir"
)

const (
	// AppName is the directory name used under the XDG base directories.
	AppName = "fmsched"

	// ConfigFileYAML is the default configuration filename.
	ConfigFileYAML = "config.yaml"
	// ConfigFileTOML is the alternative TOML configuration filename.
	ConfigFileTOML = "config.toml"
	// PluginsDir is the subdirectory of the config dir holding plugin executables.
	PluginsDir = "plugins"

	// Trash layout.

	// TrashFilesDir holds the trashed entries.
	TrashFilesDir = "files"
	// TrashInfoDir holds one `.trashinfo` file per trashed entry.
	TrashInfoDir = "info"
	// TrashInfoExt is the extension of the trash info files.
	TrashInfoExt = ".trashinfo"

	// Worker defaults.

	DefaultMicroWorkers = 10
	DefaultMacroWorkers = 25
	DefaultBizarreRetry = 3

	// Minimums accepted by the scheduler.

	MinMicroWorkers = 3
	MinMacroWorkers = 5
	MinBizarreRetry = 3

	// ExitCodeTransient is the plugin exit code that marks a retryable failure (EX_TEMPFAIL).
	ExitCodeTransient = 75
	// ExitCodeInterrupted is the exit code of a process interrupted by the user with Ctrl-C.
	ExitCodeInterrupted = 130
)

// ConfigDir returns the configuration directory ($XDG_CONFIG_HOME/fmsched).
func ConfigDir() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), AppName)
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), ConfigFileYAML)
}

// DefaultPluginsDir returns the default directory for plugin executables.
func DefaultPluginsDir() string {
	return filepath.Join(ConfigDir(), PluginsDir)
}

// DefaultTrashDir returns the home trash directory ($XDG_DATA_HOME/Trash).
func DefaultTrashDir() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share")), "Trash")
}

// TrashFilePath returns where a trashed entry is stored.
func TrashFilePath(trashDir, name string) string {
	return filepath.Join(trashDir, TrashFilesDir, name)
}

// TrashInfoPath returns the info file path of a trashed entry.
func TrashInfoPath(trashDir, name string) string {
	return filepath.Join(trashDir, TrashInfoDir, name+TrashInfoExt)
}

func xdgDir(env, homeRel string) string {
	if d := os.Getenv(env); filepath.IsAbs(d) {
		return d
	}
	return filepath.Join(homedir.HomeDir(), homeRel)
}
