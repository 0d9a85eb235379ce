package legal

import "context"

// Provider returns the configuration in force at evaluation time. It returns
// ErrNoEffective (optionally wrapped) when none is published.
type Provider interface {
	GetEffective(ctx context.Context) (Configuration, error)
}

type StoreAPI interface {
	Provider
	GetByYear(ctx context.Context, year int) (Configuration, error)
	List(ctx context.Context) ([]Configuration, error)
	Publish(ctx context.Context, cfg Configuration) error
}
