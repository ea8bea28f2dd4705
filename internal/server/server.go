package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/scoutbase/internal/config"
	ledgerdomain "github.com/smallbiznis/scoutbase/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/scoutbase/internal/observability/metrics"
	obstracing "github.com/smallbiznis/scoutbase/internal/observability/tracing"
	"github.com/smallbiznis/scoutbase/internal/ratelimit"
	scoutdomain "github.com/smallbiznis/scoutbase/internal/scout/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, obsMetrics *obsmetrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogMiddleware(log))
	r.Use(obstracing.GinMiddleware())
	r.Use(MetricsMiddleware(obsMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	scoutSvc     scoutdomain.Service
	ledgerSvc    ledgerdomain.Service
	scoutLimiter *ratelimit.ScoutRequestLimiter
	log          *zap.Logger
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	ScoutSvc     scoutdomain.Service
	LedgerSvc    ledgerdomain.Service
	ScoutLimiter *ratelimit.ScoutRequestLimiter `optional:"true"`
	Log          *zap.Logger
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		scoutSvc:     p.ScoutSvc,
		ledgerSvc:    p.LedgerSvc,
		scoutLimiter: p.ScoutLimiter,
		log:          p.Log.Named("http.server"),
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(UserAuthMiddleware())

	api.POST("/scout", s.rateLimitScout(), s.requestReport)
	api.GET("/credits", s.getBalance)
	api.POST("/credits/grant", s.grantCredits)
	api.GET("/reports", s.listReports)
	api.GET("/reports/:id", s.getReport)
	api.POST("/suggestions/accept", s.acceptSuggestion)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
