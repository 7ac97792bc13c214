package server

import (
	"net"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/Brownie44l1/corehttp/internal/request"
	"github.com/Brownie44l1/corehttp/internal/response"
)

// ServeConn handles the single request carried by conn and closes it.
//
// The head is read up to the blank line, then exactly Content-Length body
// bytes. A stream that ends early, times out, exceeds the limits or does
// not carry a method, target and version is closed without a response.
// Valid requests are dispatched; unmatched ones get a 404 and a panicking
// handler a 500 when nothing was sent yet.
func (s *Server) ServeConn(conn net.Conn) {
	defer conn.Close()

	s.metrics.ActiveConnections.Add(1)
	defer s.metrics.ActiveConnections.Add(-1)

	remote := remoteAddr(conn)
	logger := s.logger.With().Str("remote", remote).Logger()

	if s.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	}

	raw, err := request.ReadFrom(conn, s.cfg.Limits())
	if err != nil {
		s.metrics.RecordDropped()
		logger.Debug().Err(err).Msg("closing connection without response")
		return
	}

	req := request.Parse(raw)
	req.RemoteAddr = remote
	if !req.IsValid() {
		s.metrics.RecordDropped()
		logger.Debug().Str("request_line", sanitize(firstLine(raw))).Msg("invalid request")
		return
	}

	if s.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}

	res := response.New(conn)
	s.serve(logger, req, res)
}

// serve runs the handler chain. A panic that escapes it is logged and,
// when the response is still unsent, answered with a 500.
func (s *Server) serve(logger zerolog.Logger, req *request.Request, res *response.Response) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error().
				Interface("panic", p).
				Str("stack", string(debug.Stack())).
				Str("method", sanitize(req.Method)).
				Str("path", sanitize(req.Path)).
				Msg("handler panic")
			sendError(res, response.StatusInternalServerError)
		}
	}()

	s.handler().ServeHTTP(req, res)
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

func firstLine(raw []byte) string {
	for i, b := range raw {
		if b == '\r' || b == '\n' {
			return string(raw[:i])
		}
	}
	return string(raw)
}
