// Package parser turns raw manifest and device documents into entities.
// Both JSON and YAML encodings are accepted; YAML is the superset the
// default parser reads.
package parser

import (
	"gopkg.in/yaml.v3"

	"github.com/riverrun-dev/riverrun/domain/entities"
)

// YAMLParser parses YAML (and, by extension, JSON) documents.
type YAMLParser struct{}

// NewYAMLParser creates a YAMLParser.
func NewYAMLParser() *YAMLParser {
	return &YAMLParser{}
}

// ParseManifest unmarshals and validates an extension manifest.
func (p *YAMLParser) ParseManifest(data []byte) (*entities.Manifest, error) {
	var manifest entities.Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}
	if err := validateStruct(&manifest); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// ParseDevice unmarshals and validates a device configuration document.
func (p *YAMLParser) ParseDevice(data []byte) (*entities.DeviceManifest, error) {
	var device entities.DeviceManifest
	if err := yaml.Unmarshal(data, &device); err != nil {
		return nil, err
	}
	if err := validateStruct(&device); err != nil {
		return nil, err
	}
	return &device, nil
}
