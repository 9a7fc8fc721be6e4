package collectors

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/manifest-network/powchain/internal/models"
)

var blockStatuses = []models.BlockStatus{
	models.StatusValid,
	models.StatusTampered,
	models.StatusDownstreamInvalid,
}

// ChainValidityCollector exposes overall validity, a per-status block count
// and the number of tamper edits still present in the chain.
type ChainValidityCollector struct {
	src         Source
	valid       *prometheus.Desc
	blocks      *prometheus.Desc
	tamperEdits *prometheus.Desc
}

func NewChainValidityCollector(src Source) *ChainValidityCollector {
	return &ChainValidityCollector{
		src: src,
		valid: prometheus.NewDesc(
			prometheus.BuildFQName("powchain", "chain", "valid"),
			"Whether every block passes its hash and link checks (1) or not (0)",
			nil,
			nil,
		),
		blocks: prometheus.NewDesc(
			prometheus.BuildFQName("powchain", "chain", "blocks"),
			"Number of blocks per verification status",
			[]string{"status"},
			nil,
		),
		tamperEdits: prometheus.NewDesc(
			prometheus.BuildFQName("powchain", "chain", "tamper_edits"),
			"Total tamper edits applied to blocks currently in the chain",
			nil,
			nil,
		),
	}
}

func (c *ChainValidityCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.valid
	ch <- c.blocks
	ch <- c.tamperEdits
}

func (c *ChainValidityCollector) Collect(ch chan<- prometheus.Metric) {
	in := c.src.Inspect()

	valid := 0.0
	if in.Valid {
		valid = 1
	}
	ch <- prometheus.MustNewConstMetric(c.valid, prometheus.GaugeValue, valid)

	counts := make(map[models.BlockStatus]int, len(blockStatuses))
	var edits uint
	for _, r := range in.Reports {
		counts[r.Status]++
		edits += r.Edits
	}
	for _, status := range blockStatuses {
		ch <- prometheus.MustNewConstMetric(c.blocks, prometheus.GaugeValue, float64(counts[status]), string(status))
	}
	ch <- prometheus.MustNewConstMetric(c.tamperEdits, prometheus.GaugeValue, float64(edits))
}

func init() {
	RegisterCollectorFactory(func(src Source) (prometheus.Collector, error) {
		return NewChainValidityCollector(src), nil
	})
}
