package collectors

import (
	"github.com/prometheus/client_golang/prometheus"
)

type ChainLengthCollector struct {
	src         Source
	chainLength *prometheus.Desc
	difficulty  *prometheus.Desc
}

func NewChainLengthCollector(src Source) *ChainLengthCollector {
	return &ChainLengthCollector{
		src: src,
		chainLength: prometheus.NewDesc(
			prometheus.BuildFQName("powchain", "chain", "length"),
			"Number of blocks in the chain, genesis included",
			nil,
			nil,
		),
		difficulty: prometheus.NewDesc(
			prometheus.BuildFQName("powchain", "chain", "difficulty"),
			"Leading zero hex characters required of the next mined block",
			nil,
			nil,
		),
	}
}

func (c *ChainLengthCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.chainLength
	ch <- c.difficulty
}

func (c *ChainLengthCollector) Collect(ch chan<- prometheus.Metric) {
	in := c.src.Inspect()
	ch <- prometheus.MustNewConstMetric(c.chainLength, prometheus.GaugeValue, float64(len(in.Blocks)))
	ch <- prometheus.MustNewConstMetric(c.difficulty, prometheus.GaugeValue, float64(in.Difficulty))
}

func init() {
	RegisterCollectorFactory(func(src Source) (prometheus.Collector, error) {
		return NewChainLengthCollector(src), nil
	})
}
