package prop

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultStreamPort is used when an address carries no port.
const DefaultStreamPort = 30000

var errInvalidAddress = errors.New("address must be a.b.c.d or a.b.c.d:port")

// ParseStreamAddress splits an IPv4 stream address. The port is optional.
func ParseStreamAddress(s string) (host string, port int, err error) {
	host = s
	port = DefaultStreamPort

	if i := strings.IndexByte(s, ':'); i >= 0 {
		host = s[:i]
		p := s[i+1:]
		if !isDigits(p) {
			return "", 0, errInvalidAddress
		}
		port, err = strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return "", 0, fmt.Errorf("invalid port %q: %w", p, errInvalidAddress)
		}
	}

	parts := strings.Split(host, ".")
	if len(parts) != 4 {
		return "", 0, errInvalidAddress
	}
	for _, part := range parts {
		if !isDigits(part) {
			return "", 0, errInvalidAddress
		}
		if v, _ := strconv.Atoi(part); v > 255 {
			return "", 0, errInvalidAddress
		}
	}
	return host, port, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
