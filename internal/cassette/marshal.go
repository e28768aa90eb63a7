package cassette

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a cassette file. Parsing is strict: unknown
// fields are rejected so a hand-edited cassette with a typo fails at
// open time rather than replaying incorrectly.
//
// Returns *MalformedError when the stored format cannot be parsed.
func Load(path string) (*Cassette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cassette file: %w", err)
	}

	var c Cassette
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&c); err != nil {
		return nil, &MalformedError{Path: path, Err: err}
	}

	if err := validate(&c); err != nil {
		return nil, &MalformedError{Path: path, Err: err}
	}

	c.path = path
	return &c, nil
}

// Save serializes the cassette to its backing path, creating parent
// directories as needed. Output uses two-space indentation for stable,
// human-reviewable diffs.
func (c *Cassette) Save() error {
	if c.path == "" {
		return fmt.Errorf("cassette %q has no backing path", c.Name)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cassette directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("write cassette file: %w", err)
	}
	return nil
}

// Marshal serializes the cassette to YAML bytes without touching disk.
// Split out from Save so golden-file tests and the CLI can render a
// cassette directly.
func (c *Cassette) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("marshal cassette: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("flush cassette encoder: %w", err)
	}
	return buf.Bytes(), nil
}

// validate checks structural invariants after a successful parse.
func validate(c *Cassette) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.Version <= 0 {
		return fmt.Errorf("version is required")
	}
	for i, interaction := range c.Interactions {
		if interaction == nil {
			return fmt.Errorf("interactions[%d]: empty entry", i)
		}
		if interaction.Request.Method == "" {
			return fmt.Errorf("interactions[%d]: request method is required", i)
		}
		if interaction.Request.URL == "" {
			return fmt.Errorf("interactions[%d]: request url is required", i)
		}
		if interaction.Response.Status == 0 {
			return fmt.Errorf("interactions[%d]: response status is required", i)
		}
		if interaction.Request.Body != "" && interaction.Request.BodyBase64 != "" {
			return fmt.Errorf("interactions[%d]: request has both text and base64 bodies", i)
		}
		if interaction.Response.Body != "" && interaction.Response.BodyBase64 != "" {
			return fmt.Errorf("interactions[%d]: response has both text and base64 bodies", i)
		}
	}
	return nil
}
