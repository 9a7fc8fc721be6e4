package collectors

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/manifest-network/powchain/internal/chain"
)

// Source is the chain view collectors read from on every scrape.
type Source interface {
	Inspect() chain.Inspection
}

// CollectorFactory is a function type that creates a collector over a chain source
type CollectorFactory func(src Source) (prometheus.Collector, error)

type Registry struct {
	factories []CollectorFactory
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make([]CollectorFactory, 0),
	}
}

func (r *Registry) Register(factory CollectorFactory) {
	r.factories = append(r.factories, factory)
}

// CreateCollectors instantiates all collectors for the provided source
func (r *Registry) CreateCollectors(src Source) ([]prometheus.Collector, error) {
	if src == nil {
		return nil, errors.New("chain source is nil")
	}

	collectors := make([]prometheus.Collector, 0, len(r.factories))
	for _, factory := range r.factories {
		collector, err := factory(src)
		if err != nil {
			return nil, err
		}
		collectors = append(collectors, collector)
	}
	return collectors, nil
}

var DefaultRegistry = NewRegistry()

func RegisterCollectorFactory(factory CollectorFactory) {
	DefaultRegistry.Register(factory)
}
