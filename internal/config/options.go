package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultConfigFile is looked up relative to the repository directory.
const DefaultConfigFile = "release-config.yaml"

// Options are the run settings shared by the CLI commands, resolved with
// flag > environment > default precedence. Environment variables use the
// RELEASE prefix (RELEASE_CONFIG, RELEASE_REF, RELEASE_DIR).
type Options struct {
	ConfigFile string
	Ref        string
	Dir        string
}

// ResolveOptions resolves run settings from the given flag set and the
// environment.
func ResolveOptions(flags *pflag.FlagSet) (*Options, error) {
	v := viper.New()
	v.SetEnvPrefix("RELEASE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("config", DefaultConfigFile)
	v.SetDefault("dir", ".")
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}

	return &Options{
		ConfigFile: v.GetString("config"),
		Ref:        v.GetString("ref"),
		Dir:        v.GetString("dir"),
	}, nil
}
