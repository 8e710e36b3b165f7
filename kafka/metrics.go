package kafka

import (
	// External Packages
	"github.com/twmb/franz-go/plugin/kprom"
)

const MetricsNamespace = "ewallet"

// NewMetrics returns the hooks of a single kgo client. kprom registers its collectors on
// reg when the client is created, so every client in a process needs its own subsystem.
func NewMetrics(reg kprom.RegistererGatherer, subsystem string) *kprom.Metrics {
	return kprom.NewMetrics(MetricsNamespace, kprom.Registry(reg), kprom.Subsystem(subsystem))
}
