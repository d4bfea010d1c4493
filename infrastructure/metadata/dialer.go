package metadata

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"
)

// ErrNonPublicAddress is returned when a fetch would connect to a loopback,
// private, link-local or otherwise non-routable address.
var ErrNonPublicAddress = errors.New("refusing to fetch from non-public address")

// isPublicIP reports whether ip is a globally routable unicast address
func isPublicIP(ip net.IP) bool {
	switch {
	case ip == nil,
		ip.IsUnspecified(),
		ip.IsLoopback(),
		ip.IsPrivate(),
		ip.IsLinkLocalUnicast(),
		ip.IsLinkLocalMulticast(),
		ip.IsInterfaceLocalMulticast(),
		ip.IsMulticast():
		return false
	}
	// carrier-grade NAT, 100.64.0.0/10
	if v4 := ip.To4(); v4 != nil && v4[0] == 100 && v4[1]&0xc0 == 64 {
		return false
	}
	return true
}

// publicOnlyControl runs after DNS resolution, so hostnames that resolve to
// internal addresses are refused as well.
func publicOnlyControl(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNonPublicAddress, address)
	}
	if !isPublicIP(net.ParseIP(host)) {
		return fmt.Errorf("%w: %s", ErrNonPublicAddress, host)
	}
	return nil
}

// newClient builds the outbound client. With blockPrivate set every dial is
// checked and proxies from the environment are ignored.
func newClient(timeout time.Duration, blockPrivate bool) *http.Client {
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeout,
		ExpectContinueTimeout: time.Second,
	}
	if blockPrivate {
		dialer.Control = publicOnlyControl
		transport.Proxy = nil
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}
