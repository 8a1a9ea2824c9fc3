package health

import "context"

// StorePinger reaches the vector store. Its failure makes the service unhealthy.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// VenueIndex reports whether the venue index has been created.
type VenueIndex interface {
	IndexReady(ctx context.Context) (bool, error)
}

// ProviderProbe checks that the embedding provider answers.
type ProviderProbe interface {
	HealthCheck(ctx context.Context) error
}
