package server

import (
	"context"
	"net/http"
	"time"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/addresssearch"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/cache"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/clock"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/config"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/entrance"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/observability"
	obslogger "github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/observability/logger"
	obsmetrics "github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/observability/metrics"
	obstracing "github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/observability/tracing"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/providers"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/providers/pdf"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/providers/xlsx"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	clock.Module,
	cache.Module,
	ratelimit.Module,
	addresssearch.Module,
	entrance.Module,
	buildingdata.Module,
	providers.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CORS())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
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

type Server struct {
	engine        *gin.Engine
	querySvc      domain.QueryService
	mappingSvc    domain.MappingService
	statsSvc      domain.StatsService
	pdf           pdf.Provider
	xlsx          xlsx.Exporter
	searchLimiter *ratelimit.SearchLimiter
	tuning        *config.TuningHolder
	obsMetrics    *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	QuerySvc      domain.QueryService
	MappingSvc    domain.MappingService
	StatsSvc      domain.StatsService
	PDF           pdf.Provider
	XLSX          xlsx.Exporter
	SearchLimiter *ratelimit.SearchLimiter `optional:"true"`
	Tuning        *config.TuningHolder     `optional:"true"`
	ObsMetrics    *obsmetrics.Metrics      `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		querySvc:      p.QuerySvc,
		mappingSvc:    p.MappingSvc,
		statsSvc:      p.StatsSvc,
		pdf:           p.PDF,
		xlsx:          p.XLSX,
		searchLimiter: p.SearchLimiter,
		tuning:        p.Tuning,
		obsMetrics:    p.ObsMetrics,
	}

	svc.registerBuildingRoutes()
	svc.registerAddressRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerBuildingRoutes() {
	buildings := s.engine.Group("/buildings")

	buildings.GET("", s.ListBuildings)
	buildings.GET("/stats", s.GetBuildingStats)
	buildings.GET("/export.xlsx", s.ExportBuildings)
	buildings.GET("/address", s.SearchRateLimit(), s.SearchBuildings)

	buildings.GET("/egid/:egid", s.GetBuildingByEGID)
	buildings.GET("/egid/:egid/factsheet.pdf", s.GetBuildingFactsheet)
	buildings.GET("/egid/:egid/primary-entrance", s.GetPrimaryEntrance)
	buildings.PUT("/egid/:egid/primary-entrance", s.SetPrimaryEntrance)
	buildings.POST("/egid/:egid/mappings", s.CreateMapping)
	buildings.GET("/egrid/:egrid", s.GetBuildingByEGRID)
}

func (s *Server) registerAddressRoutes() {
	s.engine.GET("/addresses/:id/building", s.GetAddressBuilding)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
