// Package storage resolves the per-user directories flowprompt reads
// configuration from and writes logs to, honouring XDG overrides.
package storage

import (
	"os"
	"path/filepath"
)

const appName = "flowprompt"

// ProjectConfigName is the project-local config file, looked up in the
// working directory.
const ProjectConfigName = ".flowprompt.yaml"

type Dirs struct {
	Config string // user configuration
	State  string // logs
}

// ResolveDirs returns the platform directories, preferring
// XDG_CONFIG_HOME and XDG_STATE_HOME when set.
func ResolveDirs() *Dirs {
	return &Dirs{
		Config: resolveDir("XDG_CONFIG_HOME", platformConfigDefault()),
		State:  resolveDir("XDG_STATE_HOME", platformStateDefault()),
	}
}

func resolveDir(envVar, fallback string) string {
	if dir := os.Getenv(envVar); dir != "" {
		return filepath.Join(dir, appName)
	}
	return fallback
}

// ProjectConfig returns the project config path under root.
func ProjectConfig(root string) string {
	return filepath.Join(root, ProjectConfigName)
}

func (d *Dirs) ConfigFile() string {
	return d.ConfigDir("config.yaml")
}

func (d *Dirs) ConfigDir(subpath ...string) string {
	return filepath.Join(append([]string{d.Config}, subpath...)...)
}

func (d *Dirs) StateDir(subpath ...string) string {
	return filepath.Join(append([]string{d.State}, subpath...)...)
}

func (d *Dirs) LogDir() string {
	return d.StateDir("logs")
}

// LogPath resolves a configured log file name. Relative names land in
// LogDir.
func (d *Dirs) LogPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(d.LogDir(), name)
}

// EnsureDir creates path and its parents. A zero perm means 0700.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = 0700
	}
	return os.MkdirAll(path, perm)
}
