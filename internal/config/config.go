// Package config implements spfs's configuration options
// (storage.root and remote.<name>.address) plus a color preference,
// loaded from a merge-layered JSON file: a global config overridden
// by a repository-local one. Config is an explicit value a caller
// loads once and passes around rather than a process-wide singleton.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spkenv/spfs/internal/remote"
	"github.com/spkenv/spfs/internal/repository"
)

// Config is spfs's configuration.
type Config struct {
	Storage StorageConfig        `json:"storage"`
	Remotes map[string]RemoteRef `json:"remote,omitempty"`
	Color   ColorConfig          `json:"color"`
}

// StorageConfig holds the one required option: storage.root.
type StorageConfig struct {
	Root string `json:"root"`
}

// RemoteRef is one remote.<name>.address entry: a URI naming another
// repository. internal/remote resolves file:// addresses; any other
// scheme is rejected.
type RemoteRef struct {
	Address string `json:"address"`
}

// ColorConfig holds the one color toggle the CLI branches on: whether
// to colorize log output. UI is a pointer so an overlay config that
// omits "color" entirely leaves the base's setting untouched, rather
// than merge's unconditional overwrite treating a missing object the
// same as an explicit false.
type ColorConfig struct {
	UI *bool `json:"ui,omitempty"`
}

// Default returns a config with sensible defaults. storage.root is
// intentionally left unset: callers must supply it via a config file
// or explicit override before opening a repository.
func Default() *Config {
	on := true
	return &Config{
		Remotes: map[string]RemoteRef{},
		Color:   ColorConfig{UI: &on},
	}
}

// ColorEnabled reports whether log output should be colorized.
func (c *Config) ColorEnabled() bool {
	return c.Color.UI == nil || *c.Color.UI
}

// ResolveRemote opens the Repository named by remote.<name>.address.
func (c *Config) ResolveRemote(name string) (*repository.Repository, error) {
	ref, ok := c.Remotes[name]
	if !ok {
		return nil, fmt.Errorf("remote %q is not configured", name)
	}
	return remote.Open(ref.Address)
}

func globalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".spfsconfig"), nil
}

const repoConfigRelPath = ".spfs/config"

// Load reads the global config, then the repo-local config under
// workDir (".spfs/config"), each overriding fields the previous one
// set. Missing files are not errors; unset fields keep their default.
func Load(workDir string) (*Config, error) {
	cfg := Default()

	if globalPath, err := globalConfigPath(); err == nil {
		if data, readErr := os.ReadFile(globalPath); readErr == nil {
			var overlay Config
			if err := json.Unmarshal(data, &overlay); err != nil {
				return nil, fmt.Errorf("parse %s: %w", globalPath, err)
			}
			merge(cfg, &overlay)
		}
	}

	repoPath := filepath.Join(workDir, repoConfigRelPath)
	if data, err := os.ReadFile(repoPath); err == nil {
		var overlay Config
		if err := json.Unmarshal(data, &overlay); err != nil {
			return nil, fmt.Errorf("parse %s: %w", repoPath, err)
		}
		merge(cfg, &overlay)
	}

	return cfg, nil
}

// merge copies every field overlay sets onto base. A blank
// storage.root in overlay leaves base unchanged; remotes are merged
// key-by-key so a repo-local config can add a remote without
// discarding ones the global config already named.
func merge(base, overlay *Config) {
	if overlay.Storage.Root != "" {
		base.Storage.Root = overlay.Storage.Root
	}
	for name, ref := range overlay.Remotes {
		if base.Remotes == nil {
			base.Remotes = map[string]RemoteRef{}
		}
		base.Remotes[name] = ref
	}
	if overlay.Color.UI != nil {
		base.Color.UI = overlay.Color.UI
	}
}

// SaveRepo writes cfg to workDir's repo-local config file.
func SaveRepo(workDir string, cfg *Config) error {
	path := filepath.Join(workDir, repoConfigRelPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// SaveGlobal writes cfg to the user's global config file.
func SaveGlobal(cfg *Config) error {
	path, err := globalConfigPath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
