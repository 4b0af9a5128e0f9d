package policy

import (
	"log/slog"

	"github.com/riverrun-dev/riverrun/domain/entities"
)

// SlogDenialHandler logs denials through slog. The zero value logs to the
// default logger.
type SlogDenialHandler struct {
	Logger *slog.Logger
}

// OnDenial implements ports.DenialHandler.
func (h *SlogDenialHandler) OnDenial(key entities.GrantKey, reason string) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("capability access denied",
		"app", key.AppID,
		"capability", key.Capability,
		"role", key.Role,
		"reason", reason)
}

// NopDenialHandler ignores denials.
type NopDenialHandler struct{}

// OnDenial implements ports.DenialHandler.
func (NopDenialHandler) OnDenial(entities.GrantKey, string) {}
