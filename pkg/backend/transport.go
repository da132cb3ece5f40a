package backend

import (
	"net"
	"net/http"
	"time"
)

// NewOutboundTransport returns the connection-pooling transport shared by the forward client and
// every provider. Proxy settings come from the environment.
func NewOutboundTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}

// NewOutboundClient wraps transport in a client without a global timeout; calls are bounded by
// their context and the per-backend timeout instead.
func NewOutboundClient(transport http.RoundTripper) *http.Client {
	return &http.Client{Transport: transport}
}
