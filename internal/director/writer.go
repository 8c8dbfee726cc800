package director

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// WriteScript writes a scene script to a YAML file
func WriteScript(script *Script, path string) error {
	data, err := yaml.Marshal(script)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadScript reads a scene script from a YAML file. Unknown keys are errors.
func ReadScript(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var script Script
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&script); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", path, err, ErrInvalidScript)
	}

	return &script, nil
}
