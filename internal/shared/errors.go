package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig   = fmt.Errorf("configuration not found")
	ErrInvalidConfig   = fmt.Errorf("invalid configuration")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")

	// Provider faults. These never cross the aggregation boundary as
	// errors; the engine logs them and emits an empty batch instead.
	ErrProviderUnavailable = fmt.Errorf("provider unavailable")

	// Resolution faults. The only faults surfaced to callers, because
	// each requires different user-facing messaging: a paywalled song
	// must not be presented as a transient failure.
	ErrPaywallRequired  = fmt.Errorf("paywall required")
	ErrResolutionFailed = fmt.Errorf("resolution failed")

	// Relay and plugin faults
	ErrRelayUpstream = fmt.Errorf("relay upstream error")
	ErrPluginFault   = fmt.Errorf("plugin fault")
)
