package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(remote string, xff ...string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	r.RemoteAddr = remote
	for _, v := range xff {
		r.Header.Add("X-Forwarded-For", v)
	}
	return r
}

func TestProxyTrust_Resolve(t *testing.T) {
	trust, err := ParseTrustedProxies([]string{"10.0.0.0/8", "192.0.2.10"})
	require.NoError(t, err)

	cases := []struct {
		name string
		req  *http.Request
		want string
	}{
		{"untrusted peer ignores header", request("203.0.113.9:5000", "1.2.3.4"), "203.0.113.9"},
		{"trusted peer without header", request("10.1.2.3:5000"), "10.1.2.3"},
		{"right-most untrusted hop wins", request("10.1.2.3:5000", "6.6.6.6, 198.51.100.7"), "198.51.100.7"},
		{"skips chained trusted proxies", request("10.1.2.3:5000", "198.51.100.7, 192.0.2.10", "10.9.9.9"), "198.51.100.7"},
		{"all hops trusted", request("10.1.2.3:5000", "10.0.0.5"), "10.0.0.5"},
		{"garbage hop stops the walk", request("10.1.2.3:5000", "198.51.100.7, nope"), "10.1.2.3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, trust.Resolve(tc.req))
		})
	}
}

func TestProxyTrust_NilTrustsNobody(t *testing.T) {
	var trust *ProxyTrust
	assert.Equal(t, "203.0.113.9", trust.Resolve(request("203.0.113.9:5000", "1.2.3.4")))

	empty, err := ParseTrustedProxies([]string{" ", ""})
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestParseTrustedProxies_Invalid(t *testing.T) {
	_, err := ParseTrustedProxies([]string{"10.0.0.0/99"})
	assert.Error(t, err)
	_, err = ParseTrustedProxies([]string{"proxy.local"})
	assert.Error(t, err)
}

func TestClientIP_IgnoresHeaderWithoutResolution(t *testing.T) {
	r := request("203.0.113.9:5000", "1.2.3.4")
	assert.Equal(t, "203.0.113.9", ClientIP(r))

	r = r.WithContext(WithClientIP(r.Context(), "198.51.100.7"))
	assert.Equal(t, "198.51.100.7", ClientIP(r))
}
