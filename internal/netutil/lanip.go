// Package netutil detects the primary LAN address used to build scannable
// claim URLs.
package netutil

import (
	"fmt"
	"net"
	"strings"

	"github.com/nasmini/backend/internal/config"
)

// LanIP returns the primary LAN IPv4 of this host. The UDP dial never sends
// a packet; it only forces the kernel to pick a source address.
func LanIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "127.0.0.1"
	}
	return addr.IP.String()
}

// BaseURL returns the externally reachable base URL for this server.
func BaseURL(cfg *config.Config) string {
	if cfg.BaseURL != "" {
		return strings.TrimRight(cfg.BaseURL, "/")
	}
	return fmt.Sprintf("http://%s:%d", LanIP(), cfg.APIPort)
}
