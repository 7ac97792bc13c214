package response

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

var (
	ErrStatusWritten     = errors.New("status line already written")
	ErrStatusNotWritten  = errors.New("must write status line before headers")
	ErrHeadersNotWritten = errors.New("must write headers before body")
	ErrBodyWritten       = errors.New("body already written")
)

// writerState tracks what's been written so far
type writerState int

const (
	stateStart writerState = iota
	stateStatusWritten
	stateHeadersWritten
	stateBodyWritten
)

// Writer emits the parts of an HTTP response in wire order, refusing
// any out-of-order call.
type Writer struct {
	w          io.Writer
	state      writerState
	statusCode StatusCode
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:     w,
		state: stateStart,
	}
}

// WriteStatusLine writes "<version> <code> <reason>\r\n"
func (w *Writer) WriteStatusLine(version string, code StatusCode) error {
	if w.state != stateStart {
		return ErrStatusWritten
	}

	line := version + " " + strconv.Itoa(int(code)) + " " + StatusText(code) + "\r\n"
	if _, err := io.WriteString(w.w, line); err != nil {
		return err
	}

	w.statusCode = code
	w.state = stateStatusWritten
	return nil
}

// WriteHeader writes one header line. Lines appear in call order.
func (w *Writer) WriteHeader(name, value string) error {
	if w.state != stateStatusWritten {
		return ErrStatusNotWritten
	}

	_, err := fmt.Fprintf(w.w, "%s: %s\r\n", name, value)
	return err
}

// EndHeaders writes the blank line closing the head
func (w *Writer) EndHeaders() error {
	if w.state != stateStatusWritten {
		return ErrStatusNotWritten
	}

	if _, err := io.WriteString(w.w, "\r\n"); err != nil {
		return err
	}

	w.state = stateHeadersWritten
	return nil
}

// WriteBody writes the complete response body
func (w *Writer) WriteBody(data []byte) error {
	switch w.state {
	case stateHeadersWritten:
	case stateBodyWritten:
		return ErrBodyWritten
	default:
		return ErrHeadersNotWritten
	}

	if len(data) > 0 {
		if _, err := w.w.Write(data); err != nil {
			return err
		}
	}

	w.state = stateBodyWritten
	return nil
}

func (w *Writer) StatusCode() StatusCode {
	return w.statusCode
}
