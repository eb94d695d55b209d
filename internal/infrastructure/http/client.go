package http

import (
	"net/http"
	"time"
)

// ClientConfig holds configuration for HTTP clients.
type ClientConfig struct {
	Timeout       time.Duration
	Transport     http.RoundTripper
	CheckRedirect func(req *http.Request, via []*http.Request) error
}

// NewClient creates an HTTP client. A nil config means a 30s timeout and
// the default transport.
func NewClient(config *ClientConfig) *http.Client {
	if config == nil {
		config = &ClientConfig{Timeout: 30 * time.Second}
	}

	client := &http.Client{Timeout: config.Timeout}
	if config.Transport != nil {
		client.Transport = config.Transport
	}
	if config.CheckRedirect != nil {
		client.CheckRedirect = config.CheckRedirect
	}
	return client
}

// NewTransport returns a pooled transport sized for a single upstream host.
// The certificate status fan-out keeps up to maxConnsPerHost requests open
// at once; zero means 16.
func NewTransport(maxConnsPerHost int, responseHeaderTimeout time.Duration) *http.Transport {
	if maxConnsPerHost <= 0 {
		maxConnsPerHost = 16
	}
	if responseHeaderTimeout <= 0 {
		responseHeaderTimeout = 30 * time.Second
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          maxConnsPerHost * 2,
		MaxIdleConnsPerHost:   maxConnsPerHost,
		MaxConnsPerHost:       maxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: responseHeaderTimeout,
		ExpectContinueTimeout: time.Second,
	}
}
