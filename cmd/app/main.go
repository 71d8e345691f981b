package main

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"travelplan/cmd/fx/config_fx"
	"travelplan/cmd/fx/controllers_fx"
	"travelplan/cmd/fx/db_fx"
	"travelplan/cmd/fx/memcache_fx"
	"travelplan/cmd/fx/places_fx"
	"travelplan/cmd/fx/plan_fx"
	"travelplan/internal/api/controllers"
	"travelplan/internal/config"
	"travelplan/pkg/metrics"
	"travelplan/pkg/middleware"
)

func main() {
	app := fx.New(
		config_fx.Module,
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		db_fx.Module,
		memcache_fx.Module,
		places_fx.Module,
		plan_fx.Module,
		controllers_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine, logger *zap.Logger) {
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Info("starting HTTP server", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("HTTP server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping HTTP server")
			return srv.Shutdown(ctx)
		},
	})
}

func ProvideRouter(
	cfg *config.Config,
	logger *zap.Logger,
	planController *controllers.PlanController,
	placesController *controllers.PlacesController) *gin.Engine {

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	r := gin.New()
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowOrigins))

	RegisterRoutes(r, planController, placesController)

	return r
}

func RegisterRoutes(r *gin.Engine,
	planController *controllers.PlanController,
	placesController *controllers.PlacesController) {

	metrics.Get()
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	plansGroup := r.Group("/plans")
	plansGroup.POST("/:tripId/retrieve", planController.RetrievePlan)
	plansGroup.GET("/:tripId", planController.GetPlanState)
	plansGroup.GET("/:tripId/snapshot", planController.GetPlanSnapshot)

	apiGroup := r.Group("/api")
	apiGroup.POST("/google-places", placesController.RelayPlaces)
	apiGroup.GET("/places/photo", placesController.GetPlacePhoto)
}
