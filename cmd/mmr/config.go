package main

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/paritytech/arber/mmr"
	"github.com/paritytech/arber/sqlitestore"
)

// Config selects the backing store and hash primitive. All fields have
// working defaults; a config file is only needed to override them.
type Config struct {
	// Store is one of "memory", "file" or "sqlite". Memory is only useful
	// for piping a one-shot command sequence; it forgets everything on exit.
	Store string `toml:"store"`
	// Path is the store file location, ignored for the memory store.
	Path string `toml:"path"`
	// Hash is "blake2b" or "sha256".
	Hash string `toml:"hash"`
	// KeyFile is a PEM encoded ECDSA P-256 private key, required by the
	// checkpoint command.
	KeyFile string `toml:"key_file"`
}

func defaultConfig() Config {
	return Config{
		Store: "file",
		Path:  "mmr.log",
		Hash:  "blake2b",
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (cfg Config) hasher() (mmr.Hasher, error) {
	switch cfg.Hash {
	case "blake2b", "":
		return mmr.NewBlake2b(), nil
	case "sha256":
		return mmr.NewSHA256(), nil
	default:
		return nil, fmt.Errorf("unknown hash %q", cfg.Hash)
	}
}

// openStore returns the configured NodeStore and a close function.
func (cfg Config) openStore(digestSize int) (mmr.NodeStore, func() error, error) {
	switch cfg.Store {
	case "memory":
		return mmr.NewMemoryStore(), func() error { return nil }, nil
	case "file", "":
		store, err := mmr.OpenFileStore(cfg.Path, digestSize)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "sqlite":
		store, err := sqlitestore.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
