// Package config centralises the engine's environment-derived settings —
// the same role the teacher's internal/config package plays (a handful of
// package vars every other package reads), generalised into a loaded
// clever.yaml document instead of build-time constants, since this engine
// has an actual on-disk configuration file to read.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// SourceFileExt is the recognised script extension.
const SourceFileExt = ".clv"

// BytecodeExt is the recognised persisted-bytecode extension
// (internal/bytecode's .cvmb container).
const BytecodeExt = ".cvmb"

// Config is the optional clever.yaml document. Every field has a usable
// zero value, so a missing file is equivalent to Default().
type Config struct {
	// ModulePath lists module search directories. It is parsed and kept
	// here only; no package in this repo reads it, and module.Registry's
	// Import resolves names solely against registered packages.
	ModulePath []string `yaml:"module_path"`

	// BytecodeCacheDir is where the CLI's demo command writes its compiled
	// .cvmb when CacheBytecode is set. The file is only written, never read
	// back in place of running the code generator. Empty disables writing.
	BytecodeCacheDir string `yaml:"bytecode_cache_dir"`

	// CacheBytecode gates whether the CLI persists a compiled stream to
	// BytecodeCacheDir at all.
	CacheBytecode bool `yaml:"cache_bytecode"`
}

// Default returns the configuration an installation gets with no
// clever.yaml present: no module search path, no bytecode caching.
func Default() *Config {
	return &Config{}
}

// Load reads and parses a clever.yaml at path. A missing file is not an
// error — it returns Default() — since the file is optional; a malformed
// one is.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// TrimSourceExt removes a recognised source extension from name, for
// deriving a bytecode cache filename from a script path.
func TrimSourceExt(name string) string {
	if len(name) >= len(SourceFileExt) && name[len(name)-len(SourceFileExt):] == SourceFileExt {
		return name[:len(name)-len(SourceFileExt)]
	}
	return name
}
