package helpers

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

type clientIPKey struct{}

// ProxyTrust decide cuándo se puede creer X-Forwarded-For. Solo un peer dentro
// de los prefijos configurados puede reportar el IP del cliente.
type ProxyTrust struct {
	prefixes []netip.Prefix
}

// ParseTrustedProxies acepta IPs sueltas o CIDRs. Lista vacía => nil, y nil no
// confía en nadie.
func ParseTrustedProxies(list []string) (*ProxyTrust, error) {
	var prefixes []netip.Prefix
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if strings.Contains(s, "/") {
			p, err := netip.ParsePrefix(s)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", s, err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", s, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	if len(prefixes) == 0 {
		return nil, nil
	}
	return &ProxyTrust{prefixes: prefixes}, nil
}

func (t *ProxyTrust) trusted(ip string) bool {
	if t == nil {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range t.prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// Resolve devuelve el IP del cliente. X-Forwarded-For se lee de derecha a
// izquierda solo mientras cada salto sea un proxy confiable; el primer salto
// no confiable es el cliente. Sin peer confiable se usa RemoteAddr.
func (t *ProxyTrust) Resolve(r *http.Request) string {
	peer := remoteHost(r)
	if !t.trusted(peer) {
		return peer
	}

	var hops []string
	for _, v := range r.Header.Values("X-Forwarded-For") {
		for _, h := range strings.Split(v, ",") {
			if h = strings.TrimSpace(h); h != "" {
				hops = append(hops, h)
			}
		}
	}

	client := peer
	for i := len(hops) - 1; i >= 0; i-- {
		if _, err := netip.ParseAddr(hops[i]); err != nil {
			// basura en la cadena: no se sigue más a la izquierda
			return client
		}
		client = hops[i]
		if !t.trusted(hops[i]) {
			return client
		}
	}
	return client
}

// WithClientIP guarda en ctx el IP ya resuelto.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP: el IP resuelto por el middleware de client IP, o el host de
// RemoteAddr. Nunca lee headers.
func ClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey{}).(string); ok && ip != "" {
		return ip
	}
	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
