package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Brownie44l1/corehttp/internal/request"
	"github.com/Brownie44l1/corehttp/internal/response"
	"github.com/Brownie44l1/corehttp/internal/server"
)

// dump is what the inspector saw in one request
type dump struct {
	Method        string              `json:"method"`
	URL           string              `json:"url"`
	Path          string              `json:"path"`
	Query         string              `json:"query"`
	Version       string              `json:"version"`
	ContentType   string              `json:"content_type,omitempty"`
	ContentLength int64               `json:"content_length"`
	Headers       map[string][]string `json:"headers"`
	Cookies       map[string]any      `json:"cookies"`
	Data          map[string]any      `json:"data"`
	Body          string              `json:"body"`
}

func main() {
	addr := flag.String("addr", ":42069", "listen address")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger, err := server.NewLogger(server.LogConfig{Level: *level})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	listener, err := net.Listen("tcp", *addr)
	if err != nil {
		logger.Fatal().Err(err).Msg("listen")
	}
	defer listener.Close()
	logger.Info().Str("addr", listener.Addr().String()).Msg("inspecting requests")

	for {
		conn, err := listener.Accept()
		if err != nil {
			logger.Error().Err(err).Msg("accept")
			continue
		}

		go handleConnection(conn, logger)
	}
}

func handleConnection(conn net.Conn, logger zerolog.Logger) {
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))

	req, err := request.RequestFromReader(bufio.NewReader(conn))
	if err != nil {
		logger.Warn().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("failed to read request")
		return
	}

	printRequest(req)

	d := dump{
		Method:        req.Method,
		URL:           req.URL,
		Path:          req.Path,
		Query:         req.Query,
		Version:       req.Version,
		ContentType:   req.ContentType,
		ContentLength: req.ContentLength,
		Headers:       req.Headers.GetAllHeaders(),
		Cookies:       req.Cookies.Map(),
		Data:          req.Data.Map(),
		Body:          string(req.Body),
	}

	res := response.New(conn)
	if err := res.JSON(d); err != nil {
		logger.Error().Err(err).Msg("write response")
	}
}

func printRequest(req *request.Request) {
	var b strings.Builder
	b.WriteString("Request line:\n")
	fmt.Fprintf(&b, "- Method: %s\n- Target: %s\n- Version: %s\n", req.Method, req.URL, req.Version)

	b.WriteString("Headers:\n")
	if req.ContentType != "" {
		fmt.Fprintf(&b, "- Content-Type: %s\n", req.ContentType)
	}
	if req.ContentLength >= 0 {
		fmt.Fprintf(&b, "- Content-Length: %d\n", req.ContentLength)
	}
	for _, name := range req.Headers.Names() {
		for _, value := range req.Headers.GetAll(name) {
			fmt.Fprintf(&b, "- %s: %s\n", name, value)
		}
	}

	b.WriteString("Body:\n")
	b.Write(req.Body)
	b.WriteByte('\n')

	fmt.Print(b.String())
}
