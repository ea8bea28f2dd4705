package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/scoutbase/internal/clock"
	"github.com/smallbiznis/scoutbase/internal/config"
	"github.com/smallbiznis/scoutbase/internal/embedding"
	"github.com/smallbiznis/scoutbase/internal/generation"
	"github.com/smallbiznis/scoutbase/internal/ledger"
	"github.com/smallbiznis/scoutbase/internal/migration"
	"github.com/smallbiznis/scoutbase/internal/observability"
	"github.com/smallbiznis/scoutbase/internal/ratelimit"
	"github.com/smallbiznis/scoutbase/internal/report"
	"github.com/smallbiznis/scoutbase/internal/scheduler"
	"github.com/smallbiznis/scoutbase/internal/scout"
	"github.com/smallbiznis/scoutbase/internal/server"
	"github.com/smallbiznis/scoutbase/internal/similarity"
	"github.com/smallbiznis/scoutbase/internal/usagecost"
	"github.com/smallbiznis/scoutbase/pkg/db"
	"github.com/smallbiznis/scoutbase/pkg/log"
	"github.com/smallbiznis/scoutbase/pkg/telemetry"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		clock.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		observability.Module,
		telemetry.Module,

		// Functional domains
		embedding.Module,
		generation.Module,
		ledger.Module,
		report.Module,
		similarity.Module,
		usagecost.Module,
		scout.Module,
		scheduler.Module,

		// HTTP surface
		ratelimit.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
