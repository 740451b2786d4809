package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/judgegodwins/goban-server/coordinator"
	"github.com/judgegodwins/goban-server/util"
	"github.com/judgegodwins/goban-server/ws"
)

type Server struct {
	config     *util.Config
	wsManager  *ws.Manager
	router     *gin.Engine
	httpServer *http.Server
}

func NewServer(config *util.Config, opts ...coordinator.Option) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger)

	server := &Server{
		config:    config,
		wsManager: ws.NewManager(config, opts...),
		router:    router,
	}

	router.Any("/ws", server.wsManager.ServeWS)
	router.GET("/health", server.Health)
	router.GET("/rooms", server.ListRooms)
	router.GET("/rooms/:name", server.GetRoom)
	router.NoRoute(gin.WrapH(http.FileServer(http.Dir(config.StaticDir))))

	corsOpts := cors.Options{
		AllowedOrigins: config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
	}

	server.httpServer = &http.Server{
		Addr:              config.Addr(),
		Handler:           cors.New(corsOpts).Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server
}

// Handler is the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Coordinator() *coordinator.Coordinator {
	return s.wsManager.Coordinator()
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	slog.Info("server listening", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown stops accepting requests, closes every websocket connection and
// waits for their disconnects to reach the coordinator. Websocket handlers are
// hijacked and not waited on by http.Server, so they are closed explicitly.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)

	s.wsManager.CloseAll()

	if werr := s.wsManager.Wait(ctx); werr != nil && err == nil {
		err = werr
	}

	return err
}

// RequestLogger logs one line per request.
func RequestLogger(c *gin.Context) {
	start := time.Now()

	c.Next()

	slog.Info("request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"duration", time.Since(start),
		"remote", c.ClientIP(),
	)
}
