// Package yaml reads YAML documents through their JSON form, so that types
// only need json tags and json.Unmarshaler implementations (decimal amounts,
// timestamps) behave the same in both formats.
package yaml

import (
	"encoding/json"
	"fmt"
	"os"

	yamlv3 "gopkg.in/yaml.v3"
)

// ToJSON converts a single YAML document to JSON.
func ToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yamlv3.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to convert yaml to json: %w", err)
	}
	return out, nil
}

// Unmarshal decodes YAML data into out using out's json tags.
func Unmarshal(data []byte, out any) error {
	asJSON, err := ToJSON(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(asJSON, out)
}

// LoadFile decodes a YAML file into out.
func LoadFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
