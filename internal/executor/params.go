package executor

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/roach88/reqlgate/internal/failure"
)

// DefaultPort is the RethinkDB client driver port.
const DefaultPort = 28015

// Secret holds a credential. Every rendering except Reveal prints the mask.
type Secret string

// Reveal returns the secret value.
func (s Secret) Reveal() string { return string(s) }

func (s Secret) String() string   { return failure.Mask }
func (s Secret) GoString() string { return failure.Mask }

// LogValue implements slog.LogValuer.
func (s Secret) LogValue() slog.Value { return slog.StringValue(failure.Mask) }

// MarshalJSON renders the mask, never the value.
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(failure.Mask)), nil
}

// ConnectionParams identifies the server and credentials for one call.
type ConnectionParams struct {
	Host     string
	Port     int
	User     string
	Password Secret
}

// Address returns host:port, using DefaultPort when Port is zero.
func (p ConnectionParams) Address() string {
	port := p.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(p.Host, strconv.Itoa(port))
}

// Validate checks the fields the driver cannot do without.
// Errors are KindConnectionFailed: no connection can be attempted.
func (p ConnectionParams) Validate() error {
	if strings.TrimSpace(p.Host) == "" {
		return failure.New(failure.KindConnectionFailed, "host is required")
	}
	if p.Port < 0 || p.Port > 65535 {
		return failure.New(failure.KindConnectionFailed, "port must be between 1 and 65535, got %d", p.Port)
	}
	if strings.TrimSpace(p.User) == "" {
		return failure.New(failure.KindConnectionFailed, "user is required")
	}
	return nil
}

// LogValue implements slog.LogValuer. The password is always masked.
func (p ConnectionParams) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("address", p.Address()),
		slog.String("user", p.User),
		slog.String("password", failure.Mask),
	)
}

func (p ConnectionParams) String() string {
	return fmt.Sprintf("%s@%s (password %s)", p.User, p.Address(), failure.Mask)
}
