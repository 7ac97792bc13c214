package request

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Size limits (DoS protection)
const (
	defaultMaxHeaderBytes = 1 << 20  // 1MB head
	defaultMaxBodyBytes   = 10 << 20 // 10MB body
)

var (
	ErrHeaderTooLarge       = errors.New("headers too large")
	ErrIncompleteHead       = errors.New("stream ended before end of headers")
	ErrInvalidContentLength = errors.New("invalid content-length")
	ErrBodyTooLarge         = errors.New("body exceeds maximum size")
)

// Limits bounds how much a single request may buffer
type Limits struct {
	MaxHeaderBytes int
	MaxBodyBytes   int64
}

func DefaultLimits() Limits {
	return Limits{
		MaxHeaderBytes: defaultMaxHeaderBytes,
		MaxBodyBytes:   defaultMaxBodyBytes,
	}
}

// parserState represents the current state of the request reader
type parserState int

const (
	stateHead parserState = iota
	stateBody
	stateDone
)

// parser accumulates one request off a stream
type parser struct {
	state   parserState
	buffer  []byte // Accumulates data between reads
	scanned int    // head bytes already searched for the terminator
	headEnd int    // offset just past the blank line
	bodyLen int64
	limits  Limits
}

func newParser(limits Limits) *parser {
	if limits.MaxHeaderBytes <= 0 {
		limits.MaxHeaderBytes = defaultMaxHeaderBytes
	}
	if limits.MaxBodyBytes <= 0 {
		limits.MaxBodyBytes = defaultMaxBodyBytes
	}

	return &parser{
		state:  stateHead,
		buffer: make([]byte, 0, readChunkSize),
		limits: limits,
	}
}

// ReadFrom reads a request head and, when Content-Length asks for one,
// exactly that many body bytes. It returns the head (blank line included)
// followed by the body. Bytes past the body are ignored.
func ReadFrom(reader io.Reader, limits Limits) ([]byte, error) {
	return newParser(limits).readFrom(reader)
}

func (p *parser) readFrom(reader io.Reader) ([]byte, error) {
	readBuf := getBuffer()
	defer putBuffer(readBuf)

	eof := false
	for {
		if err := p.advance(); err != nil {
			return nil, err
		}

		if p.state == stateDone {
			return p.buffer[:p.headEnd+int(p.bodyLen)], nil
		}

		if eof {
			if p.state == stateHead {
				return nil, ErrIncompleteHead
			}
			return nil, io.ErrUnexpectedEOF
		}

		n, err := reader.Read(readBuf)
		if n > 0 {
			p.buffer = append(p.buffer, readBuf[:n]...)
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				eof = true
				continue
			}
			return nil, fmt.Errorf("read error: %w", err)
		}
	}
}

// advance moves the state machine as far as the buffered bytes allow
func (p *parser) advance() error {
	switch p.state {
	case stateHead:
		from := max(p.scanned-len(headTerminator)+1, 0)
		idx := bytes.Index(p.buffer[from:], headTerminator)
		if idx == -1 {
			p.scanned = len(p.buffer)
			if len(p.buffer) > p.limits.MaxHeaderBytes {
				return ErrHeaderTooLarge
			}
			return nil
		}

		p.headEnd = from + idx + len(headTerminator)
		if p.headEnd > p.limits.MaxHeaderBytes {
			return ErrHeaderTooLarge
		}

		cl, err := contentLength(p.buffer[:p.headEnd])
		if err != nil {
			return err
		}
		if cl > p.limits.MaxBodyBytes {
			return ErrBodyTooLarge
		}

		p.bodyLen = cl
		if cl == 0 {
			p.state = stateDone
			return nil
		}

		// The body may already be sitting in the buffer
		p.state = stateBody
		return p.advance()

	case stateBody:
		if int64(len(p.buffer)-p.headEnd) >= p.bodyLen {
			p.state = stateDone
		}
		return nil

	default:
		return nil
	}
}

// contentLength reads the Content-Length header of a head; absent means 0
func contentLength(raw []byte) (int64, error) {
	value, ok := splitHead(raw).value("Content-Length")
	if !ok {
		return 0, nil
	}

	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidContentLength, value)
	}
	return n, nil
}
