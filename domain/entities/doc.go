// Package entities defines the immutable documents and value types the
// gateway engines operate on: the extension manifest, the device
// configuration document, capabilities, grant policies, and grants.
//
// Everything here is plain data. Behavior lives in domain/graph,
// domain/policy, and the host packages.
package entities
