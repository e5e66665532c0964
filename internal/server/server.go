// Package server exposes the relay's HTTP API: initiating actions,
// protocol callback ingestion and poll retrieval. Faults are logged once
// here, at the boundary that renders them into responses.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"marketrelay/config"
	"marketrelay/internal/auth"
	"marketrelay/internal/dispatch"
	"marketrelay/internal/ingest"
	"marketrelay/internal/metrics"
	"marketrelay/internal/model"
	"marketrelay/internal/poll"
	"marketrelay/logger"
)

// Services collects the per-action collaborators the HTTP layer drives.
type Services struct {
	Dispatcher *dispatch.Dispatcher

	SearchIngest *ingest.Service[model.SearchRecord]
	SelectIngest *ingest.Service[model.SelectRecord]
	StatusIngest *ingest.Service[model.OrderStatusRecord]

	SearchPoll *poll.Service[model.SearchRecord, model.Catalog]
	SelectPoll *poll.Service[model.SelectRecord, model.Quotation]
	StatusPoll *poll.Service[model.OrderStatusRecord, model.Order]

	Resolver *auth.Resolver
}

// Server hosts the Gin-powered relay API.
type Server struct {
	cfg        config.ServerConfig
	log        *logger.Log
	services   Services
	httpServer *http.Server
}

// NewServer constructs the API server.
func NewServer(cfg config.ServerConfig, services Services, log *logger.Log) *Server {
	cfg.Address = normalizeAddress(cfg.Address)
	if log == nil {
		log = logger.GetLogger()
	}

	return &Server{
		cfg:      cfg,
		log:      log,
		services: services,
	}
}

// Run starts the HTTP server and blocks until the provided context is
// cancelled or the underlying HTTP server exits with an error.
func (s *Server) Run(ctx context.Context) error {
	router, err := s.buildRouter()
	if err != nil {
		return err
	}

	s.httpServer = &http.Server{
		Addr:    s.cfg.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.log.WithComponent("server").WithFields(logger.Fields{"address": s.cfg.Address}).Info("relay API listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err == nil {
			return nil
		}
		return err
	}
}

// Address reports the network address the server listens on.
func (s *Server) Address() string {
	if s == nil {
		return ""
	}
	return s.cfg.Address
}

func (s *Server) buildRouter() (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	client := router.Group("/client/v1")
	client.POST("/search", s.handleSearch)
	client.POST("/select", s.handleSelect)
	client.POST("/order_status", s.handleOrderStatus)
	client.GET("/on_search", s.handleOnSearchPoll)
	client.GET("/on_select", s.handleOnSelectPoll)
	client.GET("/on_order_status", s.handleOnOrderStatusPoll)

	router.GET("/client/v2/on_order_status", s.handleOnOrderStatusBatchPoll)

	protocol := router.Group("/protocol/v1")
	protocol.POST("/on_search", s.handleOnSearchCallback)
	protocol.POST("/on_select", s.handleOnSelectCallback)
	protocol.POST("/on_order_status", s.handleOnOrderStatusCallback)

	router.GET("/metrics", gin.WrapH(metrics.HTTPHandler()))

	return router, nil
}

func normalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)

	if addr == "" {
		return "0.0.0.0:8080"
	}

	if strings.Contains(addr, "://") {
		if parsed, err := url.Parse(addr); err == nil {
			if host := parsed.Host; host != "" {
				addr = host
			} else if parsed.Opaque != "" {
				addr = parsed.Opaque
			}
		}
	}

	if strings.HasPrefix(addr, ":") {
		if len(addr) > 1 && addr[1] >= '0' && addr[1] <= '9' {
			return "0.0.0.0" + addr
		}
	}

	host, port, err := net.SplitHostPort(addr)
	if err == nil {
		if host == "" || host == "*" {
			host = "0.0.0.0"
		}
		if port == "" {
			port = "8080"
		}
		return net.JoinHostPort(host, port)
	}

	if ip := net.ParseIP(addr); ip != nil {
		return net.JoinHostPort(addr, "8080")
	}

	if !strings.Contains(addr, ":") {
		return net.JoinHostPort(addr, "8080")
	}

	return addr
}
