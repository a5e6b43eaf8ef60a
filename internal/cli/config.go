package cli

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/xsheet/pkg/errors"
	"github.com/matzehuels/xsheet/pkg/pipeline"
)

// Environment variables read on top of the config file.
const (
	envExportDir     = "XSHEET_EXPORT_DIR"
	envWorkers       = "XSHEET_WORKERS"
	envRenderCommand = "XSHEET_RENDER_COMMAND"
)

// FileConfig is the TOML config file. Pointer fields distinguish an absent
// key from an explicit zero or false.
type FileConfig struct {
	FlattenGroups    *bool  `toml:"flatten_groups"`
	IncludeInvisible *bool  `toml:"include_invisible"`
	IncludeReference *bool  `toml:"include_reference"`
	IncludeStatic    *bool  `toml:"include_static"`
	FullRange        *bool  `toml:"full_range"`
	ExportDir        string `toml:"export_dir"`
	Name             string `toml:"name"`
	Format           string `toml:"format"`
	FileFormat       string `toml:"file_format"`
	Prefix           string `toml:"prefix"`
	Suffix           string `toml:"suffix"`
	Separator        string `toml:"separator"`
	Cut              string `toml:"cut"`
	Scene            string `toml:"scene"`
	Compression      *int   `toml:"compression"`
	Quality          int    `toml:"quality"`
	Workers          int    `toml:"workers"`
	Renderer         string `toml:"renderer"`
	RenderCommand    string `toml:"render_command"`
}

// LoadFileConfig reads and parses a TOML config file. Keys the file sets
// that FileConfig does not know are returned so the caller can warn.
func LoadFileConfig(path string) (FileConfig, []string, error) {
	var fc FileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		if os.IsNotExist(err) {
			return fc, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return fc, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	var unknown []string
	for _, k := range md.Undecoded() {
		unknown = append(unknown, k.String())
	}
	return fc, unknown, nil
}

// ApplyFileConfig copies file values into opts, skipping options whose flag
// was set on the command line.
func ApplyFileConfig(opts *pipeline.Options, fc FileConfig, changed map[string]bool) {
	s := newConfigSetter(changed)

	s.setBool(flagFlattenGroups, fc.FlattenGroups, &opts.FlattenGroups)
	s.setBool(flagIncludeInvisible, fc.IncludeInvisible, &opts.IncludeInvisible)
	s.setBool(flagIncludeReference, fc.IncludeReference, &opts.IncludeReference)
	s.setBool(flagIncludeStatic, fc.IncludeStatic, &opts.IncludeStatic)
	s.setBool(flagFullRange, fc.FullRange, &opts.UseFullClipRange)

	s.setString(flagExportDir, fc.ExportDir, &opts.ExportDir)
	s.setString(flagName, fc.Name, &opts.ExportName)
	s.setString(flagFormat, fc.Format, &opts.Format)
	s.setString(flagFileFormat, fc.FileFormat, &opts.FileFormat)
	s.setString(flagPrefix, fc.Prefix, &opts.Prefix)
	s.setString(flagSuffix, fc.Suffix, &opts.Suffix)
	s.setString(flagSeparator, fc.Separator, &opts.Separator)
	s.setString(flagCut, fc.Cut, &opts.Cut)
	s.setString(flagScene, fc.Scene, &opts.Scene)
	s.setString(flagRenderer, fc.Renderer, &opts.Renderer)
	s.setString(flagRenderCommand, fc.RenderCommand, &opts.RenderCommand)

	s.setIntPtr(flagCompression, fc.Compression, &opts.Compression)
	s.setInt(flagQuality, fc.Quality, &opts.Quality)
	s.setInt(flagWorkers, fc.Workers, &opts.Workers)
}

// ApplyEnvConfig copies XSHEET_* variables into opts. Environment values
// override the config file; flags override both.
func ApplyEnvConfig(opts *pipeline.Options, changed map[string]bool) error {
	s := newConfigSetter(changed)
	s.setString(flagExportDir, os.Getenv(envExportDir), &opts.ExportDir)
	s.setString(flagRenderCommand, os.Getenv(envRenderCommand), &opts.RenderCommand)
	return s.setIntFromString(flagWorkers, os.Getenv(envWorkers), &opts.Workers)
}

// loadOptions layers config file, environment and flags into opts. A
// missing default config file is not an error; a missing --config file is.
func (c *CLI) loadOptions(cmd *cobra.Command, opts *pipeline.Options) error {
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if path := c.configPath(); path != "" {
		_, statErr := os.Stat(path)
		if statErr == nil || c.ConfigPath != "" {
			fc, unknown, err := LoadFileConfig(path)
			if err != nil {
				return err
			}
			for _, k := range unknown {
				c.Logger.Warn("unknown config key", "key", k, "file", path)
			}
			ApplyFileConfig(opts, fc, changed)
			c.Logger.Debug("loaded config", "file", path)
		}
	}

	if err := ApplyEnvConfig(opts, changed); err != nil {
		return err
	}
	opts.Logger = c.Logger
	return nil
}

// configSetter applies values to option fields unless their flag changed.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntPtr sets an int value, zero included, if present and flag not changed.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses an environment value and sets the destination.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	value = strings.TrimSpace(value)
	if value == "" || s.changed[flag] {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse %s", flag)
	}
	s.setInt(flag, n, dst)
	return nil
}
