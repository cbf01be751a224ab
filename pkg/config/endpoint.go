package config

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// Endpoint is a resolved server address. Immutable once parsed; one Endpoint
// feeds one connection attempt.
type Endpoint struct {
	Host string
	Port uint16
}

// Addr renders the endpoint for a Dialer.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(int(e.Port)))
}

func (e Endpoint) String() string { return e.Addr() }

// ParseEndpoint parses "host:port" into an Endpoint.
func ParseEndpoint(s string) (Endpoint, error) {
	host, portStr, err := net.SplitHostPort(strings.TrimSpace(s))
	if err != nil {
		return Endpoint{}, fmt.Errorf("parse endpoint %q: %w", s, err)
	}
	if host == "" {
		return Endpoint{}, fmt.Errorf("parse endpoint %q: empty host", s)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Endpoint{}, fmt.Errorf("parse endpoint %q: bad port: %w", s, err)
	}
	return Endpoint{Host: host, Port: uint16(port)}, nil
}

// ReadServerInfo reads a single "host:port" line, the server.info layout.
func ReadServerInfo(path string) (Endpoint, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Endpoint{}, fmt.Errorf("read server info: %w", err)
	}
	return ParseEndpoint(strings.TrimSpace(string(b)))
}

// ReadBackupList reads the newline-delimited list of paths to back up.
// Blank lines are skipped; order is preserved.
func ReadBackupList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read backup list: %w", err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read backup list: %w", err)
	}
	return out, nil
}

// ResolveEndpoint picks the endpoint from the explicit server setting or,
// failing that, from the server info file.
func (c *Config) ResolveEndpoint() (Endpoint, error) {
	if strings.TrimSpace(c.Server) != "" {
		return ParseEndpoint(c.Server)
	}
	if strings.TrimSpace(c.ServerInfoFile) != "" {
		return ReadServerInfo(c.ServerInfoFile)
	}
	return Endpoint{}, fmt.Errorf("no server endpoint configured")
}
