package commands

import storefront "github.com/goliatone/go-storefront/components/storefront"

// Telemetry receives a structured event after each command succeeds.
type Telemetry = storefront.Telemetry

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return storefront.NopTelemetry()
	}
	return t
}
