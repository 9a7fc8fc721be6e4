package collectors

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/manifest-network/powchain/internal/models"
)

// MiningCollector records proof-of-work activity reported by a session.
type MiningCollector struct {
	inProgress prometheus.Gauge
	blocks     *prometheus.CounterVec
	attempts   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func NewMiningCollector() *MiningCollector {
	return &MiningCollector{
		inProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "powchain",
			Subsystem: "mining",
			Name:      "in_progress",
			Help:      "Whether a block is being mined right now",
		}),
		blocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "powchain",
			Subsystem: "mining",
			Name:      "blocks_total",
			Help:      "Blocks mined, by difficulty",
		}, []string{"difficulty"}),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "powchain",
			Subsystem: "mining",
			Name:      "hash_attempts_total",
			Help:      "Hashes evaluated while mining, by difficulty",
		}, []string{"difficulty"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "powchain",
			Subsystem: "mining",
			Name:      "duration_seconds",
			Help:      "Wall time spent mining one block, by difficulty",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"difficulty"}),
	}
}

func (c *MiningCollector) MiningStarted(uint64, int) {
	c.inProgress.Set(1)
}

// MiningFinished accounts nonce+1 attempts since the search starts at zero.
func (c *MiningCollector) MiningFinished(block models.Block, difficulty int, elapsed time.Duration) {
	label := strconv.Itoa(difficulty)
	c.inProgress.Set(0)
	c.blocks.WithLabelValues(label).Inc()
	c.attempts.WithLabelValues(label).Add(float64(block.Nonce + 1))
	c.duration.WithLabelValues(label).Observe(elapsed.Seconds())
}

func (c *MiningCollector) Describe(ch chan<- *prometheus.Desc) {
	c.inProgress.Describe(ch)
	c.blocks.Describe(ch)
	c.attempts.Describe(ch)
	c.duration.Describe(ch)
}

func (c *MiningCollector) Collect(ch chan<- prometheus.Metric) {
	c.inProgress.Collect(ch)
	c.blocks.Collect(ch)
	c.attempts.Collect(ch)
	c.duration.Collect(ch)
}
