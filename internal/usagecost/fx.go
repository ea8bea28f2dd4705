package usagecost

import (
	"github.com/smallbiznis/scoutbase/internal/usagecost/repository"
	"github.com/smallbiznis/scoutbase/internal/usagecost/service"
	"go.uber.org/fx"
)

var Module = fx.Module("usagecost.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
