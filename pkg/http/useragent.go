package http

import (
	"net/http"

	"github.com/brianvoe/gofakeit/v7"
)

// DefaultUserAgent identifies this server on calls that do not mask their client identity
const DefaultUserAgent = "http-privacy/1.0"

// SyntheticUserAgent replaces the User-Agent of every outgoing request with a freshly
// generated browser identity so the upstream cannot correlate requests by client header.
type SyntheticUserAgent struct {
	// Generate produces the header value; nil uses gofakeit
	Generate func() string
}

// Intercept implements RequestInterceptor
func (s SyntheticUserAgent) Intercept(req *http.Request) error {
	generate := s.Generate
	if generate == nil {
		generate = gofakeit.UserAgent
	}
	req.Header.Set("User-Agent", generate())
	return nil
}
