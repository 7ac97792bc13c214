package response

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterStatusLine(t *testing.T) {
	tests := []struct {
		code StatusCode
		want string
	}{
		{StatusOK, "HTTP/1.1 200 OK\r\n"},
		{StatusBadRequest, "HTTP/1.1 400 Bad Request\r\n"},
		{StatusNotFound, "HTTP/1.1 404 Not Found\r\n"},
		{StatusInternalServerError, "HTTP/1.1 500 Internal Server Error\r\n"},
		{StatusCode(299), "HTTP/1.1 299 Unknown Status\r\n"},
	}

	for _, tt := range tests {
		buf := &bytes.Buffer{}
		w := NewWriter(buf)
		require.NoError(t, w.WriteStatusLine("HTTP/1.1", tt.code))
		assert.Equal(t, tt.want, buf.String())
		assert.Equal(t, tt.code, w.StatusCode())
	}
}

func TestWriterOrdering(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf)

	require.NoError(t, w.WriteStatusLine("HTTP/1.1", StatusOK))
	require.NoError(t, w.WriteHeader("B-Header", "2"))
	require.NoError(t, w.WriteHeader("A-Header", "1"))
	require.NoError(t, w.EndHeaders())
	require.NoError(t, w.WriteBody([]byte("Hello, World!")))

	assert.Equal(t, "HTTP/1.1 200 OK\r\nB-Header: 2\r\nA-Header: 1\r\n\r\nHello, World!", buf.String())
}

func TestWriterStateValidation(t *testing.T) {
	// Test: Cannot write headers before status
	w := NewWriter(&bytes.Buffer{})
	assert.ErrorIs(t, w.WriteHeader("Content-Type", "text/plain"), ErrStatusNotWritten)
	assert.ErrorIs(t, w.EndHeaders(), ErrStatusNotWritten)

	// Test: Cannot write body before headers
	w = NewWriter(&bytes.Buffer{})
	require.NoError(t, w.WriteStatusLine("HTTP/1.1", StatusOK))
	assert.ErrorIs(t, w.WriteBody([]byte("test")), ErrHeadersNotWritten)

	// Test: Status line only once
	assert.ErrorIs(t, w.WriteStatusLine("HTTP/1.1", StatusOK), ErrStatusWritten)

	// Test: Body only once
	require.NoError(t, w.EndHeaders())
	require.NoError(t, w.WriteBody(nil))
	assert.ErrorIs(t, w.WriteBody([]byte("again")), ErrBodyWritten)
}

func TestDefaultResponse(t *testing.T) {
	buf := &bytes.Buffer{}
	res := New(buf)

	require.NoError(t, res.SendString("<h1>hi</h1>"))

	want := "HTTP/1.1 200 OK\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"Content-Length: 11\r\n" +
		"\r\n" +
		"<h1>hi</h1>"
	assert.Equal(t, want, buf.String())
	assert.True(t, res.IsSent())
}

func TestContentLengthCountsBytes(t *testing.T) {
	buf := &bytes.Buffer{}
	res := New(buf)

	require.NoError(t, res.SendString("héllo"))
	assert.Contains(t, buf.String(), "Content-Length: 6\r\n")
}

func TestStatusAndType(t *testing.T) {
	buf := &bytes.Buffer{}
	res := New(buf)

	require.NoError(t, res.Status(StatusCreated))
	require.NoError(t, res.Type("text/plain"))
	require.NoError(t, res.Charset(""))
	require.NoError(t, res.SendString("ok"))

	want := "HTTP/1.1 201 Created\r\n" +
		"Content-Type: text/plain\r\n" +
		"Content-Length: 2\r\n" +
		"\r\n" +
		"ok"
	assert.Equal(t, want, buf.String())
	assert.Equal(t, StatusCreated, res.StatusCode())
}

func TestUnknownStatusStillSerializes(t *testing.T) {
	buf := &bytes.Buffer{}
	res := New(buf)

	require.NoError(t, res.Status(299))
	require.NoError(t, res.Send())
	assert.True(t, strings.HasPrefix(buf.String(), "HTTP/1.1 299 Unknown Status\r\n"))

	res = New(&bytes.Buffer{})
	assert.ErrorIs(t, res.Status(42), ErrInvalidStatusCode)
	assert.ErrorIs(t, res.Status(1000), ErrInvalidStatusCode)
}

func TestDoubleSendFails(t *testing.T) {
	buf := &bytes.Buffer{}
	res := New(buf)

	require.NoError(t, res.SendString("first"))
	first := buf.String()

	assert.ErrorIs(t, res.Send(), ErrAlreadySent)
	assert.ErrorIs(t, res.SendString("second"), ErrAlreadySent)
	assert.ErrorIs(t, res.SendJSON(`{}`), ErrAlreadySent)
	assert.ErrorIs(t, res.JSON(map[string]int{}), ErrAlreadySent)
	assert.ErrorIs(t, res.Redirect("/x"), ErrAlreadySent)

	// The wire only carries the first send
	assert.Equal(t, first, buf.String())
}

func TestMutationAfterSendFails(t *testing.T) {
	res := New(&bytes.Buffer{})
	require.NoError(t, res.Send())

	assert.ErrorIs(t, res.Status(StatusNotFound), ErrAlreadySent)
	assert.ErrorIs(t, res.Type("text/plain"), ErrAlreadySent)
	assert.ErrorIs(t, res.Charset("latin1"), ErrAlreadySent)
	assert.ErrorIs(t, res.SetCookie("a", "b"), ErrAlreadySent)
	_, err := res.Write([]byte("late"))
	assert.ErrorIs(t, err, ErrAlreadySent)

	assert.Equal(t, StatusOK, res.StatusCode())
}

func TestRedirectFraming(t *testing.T) {
	buf := &bytes.Buffer{}
	res := New(buf)

	require.NoError(t, res.Redirect("/login"))

	got := buf.String()
	assert.Equal(t, "HTTP/1.1 302 Found\r\nLocation: /login\r\n\r\n", got)
	assert.NotContains(t, got, "Content-Type")
	assert.NotContains(t, got, "Content-Length")
	assert.True(t, res.IsRedirect())
	assert.True(t, res.IsSent())
}

func TestRedirectKeepsCookies(t *testing.T) {
	buf := &bytes.Buffer{}
	res := New(buf)

	require.NoError(t, res.SetCookie("session", "abc"))
	require.NoError(t, res.Redirect("/home"))

	want := "HTTP/1.1 302 Found\r\n" +
		"Location: /home\r\n" +
		"Set-Cookie: session=abc; Secure; HttpOnly\r\n" +
		"\r\n"
	assert.Equal(t, want, buf.String())
}

func TestRedirectRejectsLineBreaks(t *testing.T) {
	res := New(&bytes.Buffer{})
	assert.ErrorIs(t, res.Redirect("/a\r\nX-Evil: 1"), ErrInvalidHeaderValue)
	assert.False(t, res.IsSent())
}

func TestRedirectStatusBodyRejectsLineBreaks(t *testing.T) {
	buf := &bytes.Buffer{}
	res := New(buf)

	require.NoError(t, res.Status(StatusMovedPermanently))
	assert.ErrorIs(t, res.SendString("/x\r\nSet-Cookie: admin=1"), ErrInvalidHeaderValue)
	assert.ErrorIs(t, res.SendString("/x\nSet-Cookie: admin=1"), ErrInvalidHeaderValue)
	assert.False(t, res.IsSent())
	assert.Empty(t, buf.String())

	// The response can still be sent once the body is fixed
	require.NoError(t, res.SendString("/x"))
	assert.Equal(t, "HTTP/1.1 301 Moved Permanently\r\nLocation: /x\r\n\r\n", buf.String())
}

func TestNonRedirectBodyMayContainLineBreaks(t *testing.T) {
	buf := &bytes.Buffer{}
	res := New(buf)

	require.NoError(t, res.SendString("a\r\nb"))
	assert.True(t, strings.HasSuffix(buf.String(), "\r\n\r\na\r\nb"))
}

func TestCookies(t *testing.T) {
	buf := &bytes.Buffer{}
	res := New(buf)

	require.NoError(t, res.SetCookie("theme", "dark"))
	require.NoError(t, res.SetCookieWith(Cookie{Name: "session", Value: "abc", Path: "/", MaxAge: 3600}))
	require.NoError(t, res.SetCookieWith(Cookie{Name: "old", Value: "", MaxAge: -1}))
	// Last write per name wins, position is kept
	require.NoError(t, res.SetCookie("theme", "light"))
	require.NoError(t, res.SendString("ok"))

	want := "HTTP/1.1 200 OK\r\n" +
		"Set-Cookie: theme=light; Secure; HttpOnly\r\n" +
		"Set-Cookie: session=abc; Max-Age=3600; Path=/; Secure; HttpOnly\r\n" +
		"Set-Cookie: old=; Max-Age=0; Secure; HttpOnly\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"Content-Length: 2\r\n" +
		"\r\n" +
		"ok"
	assert.Equal(t, want, buf.String())
}

func TestInvalidCookies(t *testing.T) {
	res := New(&bytes.Buffer{})

	assert.ErrorIs(t, res.SetCookie("", "v"), ErrInvalidCookie)
	assert.ErrorIs(t, res.SetCookie("bad name", "v"), ErrInvalidCookie)
	assert.ErrorIs(t, res.SetCookie("n", "a;b"), ErrInvalidCookie)
	assert.ErrorIs(t, res.SetCookieWith(Cookie{Name: "n", Path: "/\r\n"}), ErrInvalidCookie)
}

func TestSendJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	res := New(buf)

	require.NoError(t, res.SendJSON(`{"ok":true}`))

	want := "HTTP/1.1 200 OK\r\n" +
		"Content-Type: application/json; charset=utf-8\r\n" +
		"Content-Length: 11\r\n" +
		"\r\n" +
		`{"ok":true}`
	assert.Equal(t, want, buf.String())
}

func TestJSONMarshals(t *testing.T) {
	buf := &bytes.Buffer{}
	res := New(buf)

	require.NoError(t, res.JSON(map[string]any{"name": "alice"}))
	assert.True(t, strings.HasSuffix(buf.String(), "\r\n\r\n"+`{"name":"alice"}`))

	res = New(&bytes.Buffer{})
	err := res.JSON(make(chan int))
	require.Error(t, err)
	assert.False(t, res.IsSent())
}

func TestWriteAppendsBody(t *testing.T) {
	buf := &bytes.Buffer{}
	res := New(buf)

	_, err := res.Write([]byte("Hello, "))
	require.NoError(t, err)
	_, err = res.Write([]byte("World!"))
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", string(res.Body()))

	require.NoError(t, res.Send())
	assert.True(t, strings.HasSuffix(buf.String(), "Content-Length: 13\r\n\r\nHello, World!"))
}

func TestBytesMatchesWire(t *testing.T) {
	buf := &bytes.Buffer{}
	res := New(buf)
	_, _ = res.Write([]byte("body"))

	preview := res.Bytes()
	require.NoError(t, res.Send())
	assert.Equal(t, string(preview), buf.String())
}

func TestWriteFailureStillMarksSent(t *testing.T) {
	boom := errors.New("broken pipe")
	res := New(&failingWriter{err: boom})

	err := res.SendString("x")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, res.IsSent())
	assert.ErrorIs(t, res.Send(), ErrAlreadySent)
}

func TestStatusClasses(t *testing.T) {
	assert.True(t, StatusContinue.IsInformational())
	assert.True(t, StatusNoContent.IsSuccess())
	assert.True(t, StatusFound.IsRedirect())
	assert.False(t, StatusCode(400).IsRedirect())
	assert.True(t, StatusNotFound.IsClientError())
	assert.True(t, StatusBadGateway.IsServerError())
	assert.True(t, StatusTooManyRequests.IsError())
	assert.Equal(t, "I'm a teapot", StatusText(StatusTeapot))
}

type failingWriter struct {
	err error
}

func (w *failingWriter) Write(p []byte) (int, error) {
	return 0, w.err
}
