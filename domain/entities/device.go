package entities

// DeviceManifest is the device/app configuration document. Like the
// extension manifest it is loaded once at startup and immutable thereafter.
type DeviceManifest struct {
	Configuration DeviceConfiguration       `json:"configuration" yaml:"configuration"`
	Capabilities  CapabilityConfiguration   `json:"capabilities" yaml:"capabilities"`
	Lifecycle     LifecyclePolicy           `json:"lifecycle" yaml:"lifecycle"`
	Applications  ApplicationsConfiguration `json:"applications" yaml:"applications"`
}

// DeviceConfiguration carries gateway-level settings. Most of it is opaque
// to the resolution and grant engines and is passed through to the transport
// and launcher collaborators.
type DeviceConfiguration struct {
	WSConfiguration         EndpointConfiguration `json:"ws_configuration" yaml:"ws_configuration"`
	InternalWSConfiguration EndpointConfiguration `json:"internal_ws_configuration" yaml:"internal_ws_configuration"`
	PlatformParameters      map[string]any        `json:"platform_parameters,omitempty" yaml:"platform_parameters,omitempty"`
	DistributionTenant      string                `json:"distribution_tenant,omitempty" yaml:"distribution_tenant,omitempty"`
	FormFactor              string                `json:"form_factor,omitempty" yaml:"form_factor,omitempty"`
	DefaultValues           map[string]any        `json:"default_values,omitempty" yaml:"default_values,omitempty"`
	Exclusory               *ExclusoryConfig      `json:"exclusory,omitempty" yaml:"exclusory,omitempty"`
}

// EndpointConfiguration describes one listener surface.
type EndpointConfiguration struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
	Port    uint16 `json:"port,omitempty" yaml:"port,omitempty"`
}

// ExclusoryConfig declares which RPC methods are suppressed or force-resolved
// per application.
type ExclusoryConfig struct {
	// ResolveOnly methods always resolve, exempt from every ignore rule.
	ResolveOnly []string `json:"resolve_only,omitempty" yaml:"resolve_only,omitempty"`

	AppAuthorizationRules AppAuthorizationRules `json:"app_authorization_rules" yaml:"app_authorization_rules"`

	// MethodIgnoreRules suppresses methods globally, for every app.
	MethodIgnoreRules []string `json:"method_ignore_rules,omitempty" yaml:"method_ignore_rules,omitempty"`
}

// AppAuthorizationRules holds per-app method suppression. The pattern "*"
// suppresses every method for that app.
type AppAuthorizationRules struct {
	AppIgnoreRules map[string][]string `json:"app_ignore_rules" yaml:"app_ignore_rules"`
}

// CapabilityConfiguration declares the closed capability universe and the
// grant policies arbitrating access to it.
type CapabilityConfiguration struct {
	// Supported is the closed universe: referencing a capability outside it
	// anywhere in the grant policies is a load-time configuration error.
	Supported []Capability `json:"supported" yaml:"supported"`

	// GrantPolicies maps capability -> role -> policy.
	GrantPolicies map[Capability]map[Role]GrantPolicy `json:"grantPolicies,omitempty" yaml:"grantPolicies,omitempty"`
}

// LifecyclePolicy bounds application lifecycle transitions. The engines do
// not interpret it; the launcher collaborator does.
type LifecyclePolicy struct {
	AppReadyTimeoutMs    uint64   `json:"appReadyTimeoutMs" yaml:"appReadyTimeoutMs"`
	AppFinishedTimeoutMs uint64   `json:"appFinishedTimeoutMs" yaml:"appFinishedTimeoutMs"`
	MaxLoadedApps        uint64   `json:"maxLoadedApps" yaml:"maxLoadedApps"`
	MinAvailableMemoryKb uint64   `json:"minAvailableMemoryKb" yaml:"minAvailableMemoryKb"`
	Prioritized          []string `json:"prioritized,omitempty" yaml:"prioritized,omitempty"`
}

// ApplicationsConfiguration carries app catalog defaults.
type ApplicationsConfiguration struct {
	Distribution DistributionConfiguration `json:"distribution" yaml:"distribution"`
	Defaults     map[string]any            `json:"defaults,omitempty" yaml:"defaults,omitempty"`
}

// DistributionConfiguration points at the app catalog library.
type DistributionConfiguration struct {
	Library string `json:"library,omitempty" yaml:"library,omitempty"`
}
