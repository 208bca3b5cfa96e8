package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"soundbite/handlers"
	"soundbite/middleware"
	"soundbite/server"
	"soundbite/services"
	"soundbite/websocket"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
)

// ServerOptions collects the resolved server configuration.
type ServerOptions struct {
	BindAddress string
	Port        int
	AudioDir    string
	AdminPort   int // 0 disables the admin surface
	LegacyPlain bool
}

// StartServer builds the catalog over the audio directory and serves the
// TCP command protocol until an interrupt arrives. With AdminPort set it
// also runs the HTTP admin surface.
func StartServer(opts ServerOptions) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := services.NewFFmpegEngine()

	catalog, err := services.BuildCatalog(ctx, opts.AudioDir, engine)
	if err != nil {
		log.Fatalf("Failed to build catalog: %v", err)
	}

	var hub websocket.Hub
	if opts.AdminPort > 0 {
		hub = websocket.NewHub()
		go hub.Run()
	}

	srv := server.New(server.Options{
		Addr:        opts.BindAddress + ":" + strconv.Itoa(opts.Port),
		LegacyPlain: opts.LegacyPlain,
	}, catalog, engine, hub)

	if opts.AdminPort > 0 {
		if mode := os.Getenv("GIN_MODE"); mode != "" {
			gin.SetMode(mode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}
		router := NewAdminRouter(catalog, srv.Stats(), hub)
		go func() {
			addr := ":" + strconv.Itoa(opts.AdminPort)
			log.Printf("Admin surface on %s", addr)
			if err := router.Run(addr); err != nil {
				log.Printf("Admin server stopped: %v", err)
			}
		}()
	}

	if err := srv.Serve(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// NewAdminRouter configures the admin HTTP routes.
func NewAdminRouter(catalog services.CatalogService, stats *server.Stats, hub websocket.Hub) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logging())

	healthHandler := handlers.NewHealthHandler()
	catalogHandler := handlers.NewCatalogHandler(catalog, stats)

	router.GET("/health", healthHandler.HealthCheck)

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/status", catalogHandler.Status)
		apiGroup.GET("/catalog", catalogHandler.ListCatalog)

		if hub != nil {
			activityHandler := handlers.NewActivityHandler(hub)
			apiGroup.GET("/ws/activity", activityHandler.HandleWebSocket)
		}
	}

	return router
}
