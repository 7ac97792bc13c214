package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Brownie44l1/corehttp/internal/request"
	"github.com/Brownie44l1/corehttp/internal/response"
	"github.com/Brownie44l1/corehttp/internal/router"
	"github.com/Brownie44l1/corehttp/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	addr := flag.String("addr", "", "listen address, overrides the config file")
	staticDir := flag.String("static", "public", "directory served under /static/")
	flag.Parse()

	cfg := server.DefaultConfig()
	if *configPath != "" {
		loaded, err := server.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	logger, err := server.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	r := router.New()
	srv := server.New(cfg, r, logger)
	registerRoutes(r, srv, os.DirFS(*staticDir))

	srv.Use(
		server.LoggingMiddleware(logger),
		server.MetricsMiddleware(srv.Metrics()),
		server.RecoveryMiddleware(logger),
	)

	if cfg.RateLimit.Requests > 0 {
		limiter := server.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		defer limiter.Stop()
		srv.Use(server.RateLimitMiddleware(limiter))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if !errors.Is(err, server.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
		return
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}

	logStats(logger, srv.Stats())
}

// registerRoutes installs the demo routes. More specific routes go first
// since the first match wins.
func registerRoutes(r *router.Router, srv *server.Server, static fs.FS) {
	r.GET("/", handleHome)
	r.GET("/health", handleHealth)
	r.GET("/metrics", handleMetrics(srv))
	r.GET("/login", handleLoginPage)
	r.POST("/login", handleLogin)
	r.GET("/logout", handleLogout)
	r.GET("/profile", handleProfile)
	r.POST("/echo", handleEcho)
	r.GET("^"+staticPrefix+".*", staticHandler(static))
}

func logStats(logger zerolog.Logger, stats server.MetricsSnapshot) {
	logger.Info().
		Int64("requests", stats.RequestsTotal).
		Int64("errors", stats.ErrorsTotal).
		Int64("not_found", stats.NotFound).
		Int64("dropped", stats.Dropped).
		Dur("avg_latency", stats.AverageLatency).
		Msg("server stopped")
}

func handleHome(req *request.Request, res *response.Response) {
	_ = res.SendString(`<!DOCTYPE html>
<html>
<head><title>corehttp</title></head>
<body>
	<h1>corehttp</h1>
	<ul>
		<li><a href="/health">Health</a></li>
		<li><a href="/metrics">Metrics</a></li>
		<li><a href="/profile">Profile</a></li>
		<li><a href="/static/site.css">Static file</a></li>
	</ul>
</body>
</html>`)
}

func handleHealth(req *request.Request, res *response.Response) {
	_ = res.JSON(map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func handleMetrics(srv *server.Server) router.HandlerFunc {
	return func(req *request.Request, res *response.Response) {
		_ = res.JSON(srv.Stats())
	}
}

func handleLoginPage(req *request.Request, res *response.Response) {
	_ = res.SendString(`<form method="post" action="/login">
	<input name="user">
	<button>Log in</button>
</form>`)
}

// handleLogin accepts the form or a JSON body and sets a session cookie
func handleLogin(req *request.Request, res *response.Response) {
	user := req.Data.Str("user")
	if user == "" {
		_ = res.Status(response.StatusBadRequest)
		_ = res.SendString("missing user")
		return
	}

	if err := res.SetCookieWith(response.Cookie{Name: "user", Value: user, Path: "/", MaxAge: 3600}); err != nil {
		_ = res.Status(response.StatusBadRequest)
		_ = res.SendString("invalid user")
		return
	}
	_ = res.Redirect("/profile")
}

func handleLogout(req *request.Request, res *response.Response) {
	_ = res.SetCookieWith(response.Cookie{Name: "user", Path: "/", MaxAge: -1})
	_ = res.Redirect("/login")
}

func handleProfile(req *request.Request, res *response.Response) {
	user, ok := req.Cookie("user")
	if !ok {
		_ = res.Redirect("/login")
		return
	}

	_ = res.Type("text/plain")
	_ = res.SendString("Hello, " + user.String())
}

// handleEcho answers with everything the parser extracted
func handleEcho(req *request.Request, res *response.Response) {
	_ = res.JSON(map[string]any{
		"method":  req.Method,
		"path":    req.Path,
		"query":   req.Query,
		"data":    req.Data,
		"cookies": req.Cookies,
		"length":  len(req.Body),
	})
}
