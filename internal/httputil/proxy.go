// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/pdiddy/sci-dl/pkg/types"
)

// Proxy is an outbound proxy. It is an immutable value; build one per run.
type Proxy struct {
	Protocol string
	User     string
	Password string
	Host     string
	Port     int
}

// DefaultProxy returns a socks5 proxy on 127.0.0.1:1080 without credentials.
func DefaultProxy() Proxy {
	return Proxy{
		Protocol: types.DefaultProxyProtocol,
		Host:     types.DefaultProxyHost,
		Port:     types.DefaultProxyPort,
	}
}

// ProxyFromConfig converts configured proxy settings into a Proxy.
func ProxyFromConfig(cfg types.ProxyConfig) Proxy {
	return Proxy{
		Protocol: cfg.Protocol,
		User:     cfg.User,
		Password: cfg.Password,
		Host:     cfg.Host,
		Port:     cfg.Port,
	}
}

// URL returns the proxy connection URL. Credentials are included only when
// both user and password are set. The password is percent-encoded with
// every reserved character escaped except '/'; the user is written as-is.
func (p Proxy) URL() string {
	hostPort := net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
	if p.User != "" && p.Password != "" {
		return fmt.Sprintf("%s://%s:%s@%s", p.Protocol, p.User, quotePassword(p.Password), hostPort)
	}
	return fmt.Sprintf("%s://%s", p.Protocol, hostPort)
}

// quotePassword escapes s like QueryEscape, but spaces become %20 and '/'
// stays literal.
func quotePassword(s string) string {
	q := url.QueryEscape(s)
	q = strings.ReplaceAll(q, "+", "%20")
	return strings.ReplaceAll(q, "%2F", "/")
}

// Mapping returns the proxy URL keyed by target scheme. Both schemes route
// through the same proxy regardless of the proxy's own protocol.
func (p Proxy) Mapping() map[string]string {
	u := p.URL()
	return map[string]string{
		"http":  u,
		"https": u,
	}
}

func (p Proxy) String() string {
	return p.URL()
}

// Transport returns an http.Transport that sends every request through the
// proxy. timeout bounds dialing, the TLS handshake, and waiting for response
// headers; zero disables those limits.
func (p Proxy) Transport(timeout time.Duration) (*http.Transport, error) {
	t := newTransport(timeout)

	switch p.Protocol {
	case types.ProxySOCKS5:
		var auth *proxy.Auth
		if p.User != "" && p.Password != "" {
			auth = &proxy.Auth{User: p.User, Password: p.Password}
		}
		forward := &net.Dialer{Timeout: timeout}
		dialer, err := proxy.SOCKS5("tcp", net.JoinHostPort(p.Host, strconv.Itoa(p.Port)), auth, forward)
		if err != nil {
			return nil, fmt.Errorf("creating socks5 dialer: %w", err)
		}
		cd, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("socks5 dialer for %s does not support contexts", p)
		}
		t.Proxy = nil
		t.DialContext = cd.DialContext
	case types.ProxyHTTP, types.ProxyHTTPS:
		// Built directly rather than parsed from URL(): a literal '/' in the
		// password would end the authority.
		u := &url.URL{Scheme: p.Protocol, Host: net.JoinHostPort(p.Host, strconv.Itoa(p.Port))}
		if p.User != "" && p.Password != "" {
			u.User = url.UserPassword(p.User, p.Password)
		}
		mapping := p.Mapping()
		t.Proxy = func(req *http.Request) (*url.URL, error) {
			if _, ok := mapping[req.URL.Scheme]; !ok {
				return nil, nil
			}
			return u, nil
		}
	default:
		return nil, fmt.Errorf("unsupported proxy protocol %q", p.Protocol)
	}
	return t, nil
}

// newTransport clones the default transport and applies timeout to the
// connection phases only. Environment proxy settings stay in effect until a
// Proxy replaces them.
func newTransport(timeout time.Duration) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	t.DialContext = dialer.DialContext
	t.TLSHandshakeTimeout = timeout
	t.ResponseHeaderTimeout = timeout
	return t
}
