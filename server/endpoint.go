package server

import (
	"fmt"
	"net"
	"regexp"

	"github.com/maxwell-lv/mootdx/models"
)

// Endpoint is one resolved (address, port) pair. Immutable once handed to a
// session.
type Endpoint struct {
	Addr string
	Port int
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Addr, e.Port)
}

// IsZero reports whether the endpoint is unset.
func (e Endpoint) IsZero() bool {
	return e.Addr == "" && e.Port == 0
}

var hostnameRe = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?)*$`)

// NewEndpoint validates addr as an IP address or hostname and port as a
// positive TCP port.
func NewEndpoint(addr string, port int) (Endpoint, error) {
	if addr == "" {
		return Endpoint{}, models.Validationf("server address must not be empty")
	}
	if net.ParseIP(addr) == nil && !hostnameRe.MatchString(addr) {
		return Endpoint{}, models.Validationf("invalid server address %q, expected ip or hostname", addr)
	}
	if port <= 0 || port > 65535 {
		return Endpoint{}, models.Validationf("invalid server port %d", port)
	}
	return Endpoint{Addr: addr, Port: port}, nil
}
