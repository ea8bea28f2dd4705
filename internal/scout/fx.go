package scout

import (
	"github.com/smallbiznis/scoutbase/internal/scout/service"
	"go.uber.org/fx"
)

var Module = fx.Module("scout.service",
	fx.Provide(service.New),
)
