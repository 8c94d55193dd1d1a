package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/concave-dev/ceph-sentinel/internal/logging"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// LoadFile merges the YAML file at path into c. Flags the user changed on
// the command line keep their values; everything else the file names is
// overwritten. Unknown keys are rejected.
func (c *Config) LoadFile(path string, flags *pflag.FlagSet) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	type savedFlag struct {
		value   string
		slice   []string
		isSlice bool
	}
	explicit := make(map[string]savedFlag)
	if flags != nil {
		flags.Visit(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				explicit[f.Name] = savedFlag{slice: sv.GetSlice(), isSlice: true}
				return
			}
			explicit[f.Name] = savedFlag{value: f.Value.String()}
		})
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	var keys map[string]any
	if err := yaml.Unmarshal(data, &keys); err == nil {
		if _, ok := keys["notify_provider"]; ok {
			c.notifyProviderExplicitlySet = true
		}
		if _, ok := keys["log_file"]; ok {
			c.logFileExplicitlySet = true
		}
		if _, ok := keys["api"]; ok {
			c.apiAddrExplicitlySet = true
		}
	}

	for name, saved := range explicit {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if saved.isSlice {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				if err := sv.Replace(saved.slice); err != nil {
					return fmt.Errorf("failed to restore flag --%s: %w", name, err)
				}
			}
			continue
		}
		if err := f.Value.Set(saved.value); err != nil {
			return fmt.Errorf("failed to restore flag --%s: %w", name, err)
		}
	}

	logging.Debug("Loaded config file %s (%d command line overrides)", path, len(explicit))
	return nil
}
