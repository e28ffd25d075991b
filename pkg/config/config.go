// Circle uses flags and a single config file for configuration.
// A config file is stored in .txtpb format and contains the values that can be set via flags.

package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/types/dynamicpb"
)

var configFilePath = flag.String("config_file", "config.txtpb", "Path to the configuration file.")

// InitFlags parses the command line flags, then applies the config file specified by the -config_file flag.
// It should be called after defining all flags and before using them. Config file errors are logged and the
// flags keep their command line / default values.
func InitFlags() {
	flag.Parse()

	if *configFilePath == "" {
		slog.Info("Config file not specified. Skipping config initialization.")
		return
	}
	if err := applyConfigFile(*configFilePath, configFields); errors.Is(err, os.ErrNotExist) {
		slog.Warn("Config file does not exist.", "path", *configFilePath, "error", err)
	} else if err != nil {
		slog.Error("Failed to apply config file.", "path", *configFilePath, "error", err)
	}
}

// applyConfigFile reads the .txtpb file at `path` against the schema of `fields` and sets every flag it mentions.
func applyConfigFile(path string, fields []configField) error {
	configBytes, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	md, err := buildConfigDescriptor(fields)
	if err != nil {
		return err
	}
	conf := dynamicpb.NewMessage(md)
	if err := prototext.Unmarshal(configBytes, conf); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	flags, err := collectFlags(conf)
	if err != nil {
		return fmt.Errorf("failed to collect flags: %w", err)
	}
	for flagName, flagValue := range flags {
		if setErr := flag.Set(flagName, flagValue); setErr != nil {
			return fmt.Errorf("failed to set flag %s: %w", flagName, setErr)
		}
	}
	return nil
}

// CollectUnregisteredFlags collects all flags that haven't been registered in the config schema.
// An error exists in the results corresponding to each unregistered flag.
func CollectUnregisteredFlags() []error {
	md, err := buildConfigDescriptor(configFields)
	if err != nil {
		return []error{err}
	}
	definedFlags := getDefinedFlags(md)
	errs := make([]error, 0)
	flag.VisitAll(func(f *flag.Flag) {
		if strings.HasPrefix(f.Name, "test.") { // Skip test flags.
			return
		}
		if slices.Contains(skippedProtobufFlags, f.Name) {
			return
		}
		if _, flagHasConfigEntry := definedFlags[f.Name]; !flagHasConfigEntry {
			errs = append(errs, fmt.Errorf("flag '%s' has not been defined in protobuf config", f.Name))
		}
	})
	return errs
}
