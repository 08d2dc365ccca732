package ir

// Version constants for the descriptor schema and the gateway binary.
const (
	// IRVersion is the descriptor schema version. It is part of every
	// fingerprint domain, so bumping it invalidates recorded fingerprints.
	IRVersion = "1"

	// GatewayVersion is the reqlgate release version.
	GatewayVersion = "0.1.0"
)
