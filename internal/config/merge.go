package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML config key names used for shallow merge.
const (
	keyLogging    = "logging"
	keyGeneration = "generation"
	keyBatch      = "batch"
)

// ShallowMergeYAML loads a YAML file and merges its top-level keys onto
// the target Config. Keys present in the overlay replace entire sections
// in the target; fields the overlay section omits take their defaults. Keys
// absent in the overlay are left unchanged, and unknown keys are ignored.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var overlay map[string]yaml.Node
	if err = yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}

	// An empty or comment-only file yields no keys.
	for key, node := range overlay {
		if err = decodeSection(target, key, &node); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}

	return nil
}

// decodeSection decodes a section on top of that section's defaults, so the
// overlay replaces the whole section instead of merging with the target.
func decodeSection(target *Config, key string, node *yaml.Node) error {
	switch key {
	case keyLogging:
		v := New().Logging
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Logging = v
	case keyGeneration:
		v := New().Generation
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Generation = v
	case keyBatch:
		v := New().Batch
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Batch = v
	}
	return nil
}
