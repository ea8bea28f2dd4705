package similarity

import (
	"github.com/smallbiznis/scoutbase/internal/similarity/repository"
	"github.com/smallbiznis/scoutbase/internal/similarity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("similarity.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
