package gen3d

import (
	"strings"

	"go.uber.org/zap"
)

// SelectProvider picks the adapter that will handle a job.
//
// The effective requested name is the job-level override, else the
// environment default. A known and configured requested adapter is a hard
// preference and returned immediately. An unknown or unconfigured requested
// name only logs a warning and falls through to auto-selection: the first
// adapter in registration order whose IsConfigured() is true. Returns nil
// when nothing is configured, which signals the placeholder path.
func SelectProvider(adapters []Adapter, requested, envDefault string, logger *zap.Logger) Adapter {
	name := strings.ToLower(requested)
	if name == "" {
		name = strings.ToLower(envDefault)
	}

	if name != "" {
		var selected Adapter
		for _, a := range adapters {
			if strings.ToLower(a.Name()) == name {
				selected = a
				break
			}
		}
		switch {
		case selected == nil:
			logger.Warn("unknown provider requested, falling back to auto selection",
				zap.String("provider", name))
		case !selected.IsConfigured():
			logger.Warn("requested provider is not configured, falling back to auto selection",
				zap.String("provider", name))
		default:
			return selected
		}
	}

	for _, a := range adapters {
		if a.IsConfigured() {
			return a
		}
	}
	return nil
}
