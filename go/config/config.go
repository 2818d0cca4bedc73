// Package config decodes the archive's .taf/config.toml, the one
// TOML-formatted file in the core's external interface (spec §6).
package config

import (
	"github.com/BurntSushi/toml"

	"github.com/openlawlibrary/stelae-sub000/stelae/go/apperr"
)

// Root names the root Stele an archive's config.toml points at.
type Root struct {
	Name string `toml:"name"`
	Org  string `toml:"org"`
	Hash string `toml:"hash"`
}

// Headers carries the optional multihost guard header name (spec §4.4).
type Headers struct {
	CurrentDocumentsGuard string `toml:"current_documents_guard"`
}

// Config is the decoded shape of .taf/config.toml.
type Config struct {
	Root    Root    `toml:"root"`
	Shallow bool    `toml:"shallow"`
	Headers Headers `toml:"headers"`
}

// Load decodes the TOML file at path. A malformed file is a ConfigError
// (spec §7), fatal to archive startup.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, apperr.Config(err)
	}
	return &cfg, nil
}

// Guarded reports whether this archive uses the guarded-multihost routing
// variant from spec §4.4.
func (c *Config) Guarded() bool {
	return c.Headers.CurrentDocumentsGuard != ""
}
