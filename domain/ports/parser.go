package ports

import "github.com/riverrun-dev/riverrun/domain/entities"

// ManifestParser parses raw bytes into an extension Manifest.
type ManifestParser interface {
	ParseManifest(data []byte) (*entities.Manifest, error)
}

// DeviceParser parses raw bytes into a DeviceManifest.
type DeviceParser interface {
	ParseDevice(data []byte) (*entities.DeviceManifest, error)
}
