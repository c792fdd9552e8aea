package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"

	"github.com/ghv/print/internal/manifest"
)

// rootEnvVar names the site root when --root is not given.
const rootEnvVar = "PRINTROOT"

type config struct {
	Root        string            `toml:"root"`
	Region      string            `toml:"region"`
	Profile     string            `toml:"profile"`
	Concurrency int               `toml:"concurrency"`
	LogLevel    string            `toml:"log-level"`
	LogFormat   string            `toml:"log-format"`
	Variables   map[string]string `toml:"variables"`
}

// loadConfig reads the config file at path. A missing file is not an error.
func loadConfig(path string) (config, error) {
	var cfg config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return cfg, nil
}

// mergeVariables returns the config file variables overlaid with the ones
// given on the command line.
func mergeVariables(fromFile, fromFlags map[string]string) map[string]string {
	out := make(map[string]string, len(fromFile)+len(fromFlags))
	for k, v := range fromFile {
		out[k] = v
	}
	for k, v := range fromFlags {
		out[k] = v
	}
	return out
}

// resolveRoot picks the site root from the flag, the PRINTROOT environment
// variable, the config file, or the working directory, in that order, and
// checks that it holds a manifest.
func resolveRoot(flagRoot, cfgRoot string) (string, error) {
	root, source := flagRoot, "--root"
	if root == "" {
		root, source = os.Getenv(rootEnvVar), rootEnvVar
	}
	if root == "" {
		root, source = cfgRoot, "config file"
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		root, source = wd, "current folder"
	}

	root, err := homedir.Expand(root)
	if err != nil {
		return "", fmt.Errorf("expanding %s: %w", root, err)
	}
	if _, err := os.Stat(filepath.Join(root, manifest.FileName)); err != nil {
		return "", fmt.Errorf("could not find %s in %s (from %s)", manifest.FileName, root, source)
	}
	return root, nil
}

func setupLogger(level, format string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q (text, json)", format)
	}
	return logger, nil
}
