package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/scoutbase/internal/observability/metrics"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		provideRegisterer,
		metrics.New,
	),
)

func provideRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}
