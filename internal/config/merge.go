package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrNilConfig is returned when merging onto a nil *Config.
var ErrNilConfig = errors.New("nil target config")

// sectionDecoders maps each top-level YAML key to the function that replaces
// the matching Config section. Other keys in an overlay are ignored.
//
//nolint:gochecknoglobals // Immutable lookup table.
var sectionDecoders = map[string]func(*Config, *yaml.Node) error{
	"output":  func(c *Config, n *yaml.Node) error { return replaceSection(&c.Output, n) },
	"logging": func(c *Config, n *yaml.Node) error { return replaceSection(&c.Logging, n) },
	"store":   func(c *Config, n *yaml.Node) error { return replaceSection(&c.Store, n) },
	"batch":   func(c *Config, n *yaml.Node) error { return replaceSection(&c.Batch, n) },
}

// replaceSection decodes n into a zero value and assigns it to dst, so fields
// absent from the overlay section do not survive from the target.
func replaceSection[T any](dst *T, n *yaml.Node) error {
	var v T
	if err := n.Decode(&v); err != nil {
		return err
	}
	*dst = v
	return nil
}

// ShallowMergeYAML merges the YAML file at overlayPath onto target by
// top-level key: a section present in the overlay replaces the whole
// section in target, absent sections are left as they are.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return ErrNilConfig
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var doc yaml.Node
	if err = yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}
	// Empty or comment-only file.
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null" {
		return nil
	}
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("parsing overlay YAML from %s: top level is not a mapping", overlayPath)
	}

	// Mapping content alternates key and value nodes.
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		decode, ok := sectionDecoders[key]
		if !ok {
			continue
		}
		if err = decode(target, root.Content[i+1]); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}
	return nil
}
