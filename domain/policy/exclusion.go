package policy

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/riverrun-dev/riverrun/domain/entities"
)

// Exclusions applies the exclusory block of the device manifest: ignore
// rules suppress RPC method resolution, resolve-only entries force it.
// Built once at startup, read-only afterwards.
type Exclusions struct {
	resolveOnly  []string
	methodIgnore []string
	appIgnore    map[string][]string
}

// NewExclusions builds the filter from the device manifest's exclusory
// configuration. A nil config yields a filter that excludes nothing.
func NewExclusions(cfg *entities.ExclusoryConfig) *Exclusions {
	x := &Exclusions{appIgnore: map[string][]string{}}
	if cfg == nil {
		return x
	}
	x.resolveOnly = append(x.resolveOnly, cfg.ResolveOnly...)
	x.methodIgnore = append(x.methodIgnore, cfg.MethodIgnoreRules...)
	for appID, rules := range cfg.AppAuthorizationRules.AppIgnoreRules {
		x.appIgnore[appID] = append([]string(nil), rules...)
	}
	return x
}

// ResolveOnly reports whether the method is exempted from every ignore rule.
// Resolve-only methods must still answer, for compliance probing.
func (x *Exclusions) ResolveOnly(method string) bool {
	return matchAny(x.resolveOnly, method)
}

// IsExcluded reports whether the method is suppressed for the app: true if
// the method is globally ignored or matched by the app's ignore rules
// (including the "*" wildcard), unless it is resolve-only, which always
// overrides ignore rules.
func (x *Exclusions) IsExcluded(appID, method string) bool {
	if x.ResolveOnly(method) {
		return false
	}
	if matchAny(x.methodIgnore, method) {
		return true
	}
	for _, rule := range x.appIgnore[appID] {
		if rule == "*" {
			return true
		}
		if match(rule, method) {
			return true
		}
	}
	return false
}

func matchAny(patterns []string, method string) bool {
	for _, pattern := range patterns {
		if match(pattern, method) {
			return true
		}
	}
	return false
}

func match(pattern, method string) bool {
	matched, err := doublestar.Match(pattern, method)
	return err == nil && matched
}
