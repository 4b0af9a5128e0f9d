package parser

import (
	"encoding/json"

	"github.com/riverrun-dev/riverrun/domain/entities"
)

// JSONParser parses strictly JSON documents, for deployments whose
// manifests come from JSON-emitting provisioning systems.
type JSONParser struct{}

// NewJSONParser creates a JSONParser.
func NewJSONParser() *JSONParser {
	return &JSONParser{}
}

// ParseManifest unmarshals and validates an extension manifest.
func (p *JSONParser) ParseManifest(data []byte) (*entities.Manifest, error) {
	var manifest entities.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}
	if err := validateStruct(&manifest); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// ParseDevice unmarshals and validates a device configuration document.
func (p *JSONParser) ParseDevice(data []byte) (*entities.DeviceManifest, error) {
	var device entities.DeviceManifest
	if err := json.Unmarshal(data, &device); err != nil {
		return nil, err
	}
	if err := validateStruct(&device); err != nil {
		return nil, err
	}
	return &device, nil
}
