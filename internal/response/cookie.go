package response

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Brownie44l1/corehttp/internal/headers"
)

var ErrInvalidCookie = errors.New("invalid cookie")

// Cookie is an outgoing cookie. Every cookie is sent Secure and HttpOnly.
type Cookie struct {
	Name  string
	Value string
	Path  string

	// MaxAge > 0 sets Max-Age in seconds, MaxAge < 0 expires the cookie
	// immediately (Max-Age=0) and 0 leaves the attribute out.
	MaxAge int
}

// String formats the Set-Cookie header value
func (c Cookie) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('=')
	b.WriteString(c.Value)

	switch {
	case c.MaxAge > 0:
		b.WriteString("; Max-Age=")
		b.WriteString(strconv.Itoa(c.MaxAge))
	case c.MaxAge < 0:
		b.WriteString("; Max-Age=0")
	}

	if c.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(c.Path)
	}

	b.WriteString("; Secure; HttpOnly")
	return b.String()
}

func (c Cookie) validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidCookie)
	}
	for i := 0; i < len(c.Name); i++ {
		if !headers.IsTokenChar(c.Name[i]) {
			return fmt.Errorf("%w: bad character in name", ErrInvalidCookie)
		}
	}
	if strings.ContainsAny(c.Value, ";\r\n") || strings.ContainsAny(c.Path, ";\r\n") {
		return fmt.Errorf("%w: bad character in value or path", ErrInvalidCookie)
	}
	return nil
}
