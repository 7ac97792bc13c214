package request

import (
	"bytes"
	"strings"
)

var headTerminator = []byte("\r\n\r\n")

// head is a read-only view over a request head. The request line and the
// header lines are sliced out of the original buffer once; explicitly
// extracted lines are marked taken so generic parsing skips them.
type head struct {
	requestLine []byte
	lines       [][]byte
	taken       []bool
}

// splitHead indexes the lines of raw up to the first blank line
func splitHead(raw []byte) head {
	if idx := bytes.Index(raw, headTerminator); idx != -1 {
		raw = raw[:idx+2]
	}

	var h head
	pos := 0
	first := true
	for pos < len(raw) {
		end := bytes.IndexByte(raw[pos:], '\n')
		var line []byte
		if end == -1 {
			line = raw[pos:]
			pos = len(raw)
		} else {
			line = raw[pos : pos+end]
			pos += end + 1
		}
		line = bytes.TrimSuffix(line, []byte("\r"))

		if first {
			h.requestLine = line
			first = false
			continue
		}
		if len(line) == 0 {
			break
		}
		h.lines = append(h.lines, line)
	}

	h.taken = make([]bool, len(h.lines))
	return h
}

// requestTokens splits "METHOD TARGET VERSION" into its tokens.
// Tokens end at the first space; a missing token comes back empty.
func (h head) requestTokens() (method, target, version string) {
	rest := h.requestLine
	var tok []byte

	tok, rest = cutToken(rest)
	method = string(tok)
	tok, rest = cutToken(rest)
	target = string(tok)
	tok, _ = cutToken(rest)
	version = string(tok)

	return method, target, version
}

func cutToken(b []byte) ([]byte, []byte) {
	if idx := bytes.IndexAny(b, " \r\n"); idx != -1 {
		return b[:idx], b[idx+1:]
	}
	return b, nil
}

// value finds the first untaken line starting with "<name>: " (name
// matched case-insensitively), marks it taken and returns its value.
func (h head) value(name string) (string, bool) {
	prefixLen := len(name) + 2
	for i, line := range h.lines {
		if h.taken[i] || len(line) < prefixLen {
			continue
		}
		if line[len(name)] != ':' || line[len(name)+1] != ' ' {
			continue
		}
		if !strings.EqualFold(string(line[:len(name)]), name) {
			continue
		}
		h.taken[i] = true
		return string(line[prefixLen:]), true
	}
	return "", false
}

// remaining yields the header lines nobody has taken yet
func (h head) remaining() [][]byte {
	rest := make([][]byte, 0, len(h.lines))
	for i, line := range h.lines {
		if !h.taken[i] {
			rest = append(rest, line)
		}
	}
	return rest
}

// splitTarget separates the path from the query; the query keeps its '?'
func splitTarget(target string) (path, query string) {
	if idx := strings.IndexByte(target, '?'); idx != -1 {
		return target[:idx], target[idx:]
	}
	return target, ""
}
