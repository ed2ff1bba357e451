package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedEndpoint is one entry of a seed file.
type SeedEndpoint struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type seedFile struct {
	Endpoints []SeedEndpoint `yaml:"endpoints"`
}

// LoadSeed reads a YAML file of the form:
//
//	endpoints:
//	  - name: Example
//	    url: example.com
func LoadSeed(path string) ([]SeedEndpoint, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", path, err)
	}
	return f.Endpoints, nil
}
