package telemetry

import (
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPClient returns the pooled client shared by the DeepL and Slack
// clients. A zero timeout leaves the invocation deadline in charge.
func HTTPClient(timeout time.Duration, traced bool) *http.Client {
	var transport http.RoundTripper = &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if traced {
		transport = otelhttp.NewTransport(transport)
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
