package httpclient

import "context"

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts outbound GETs so provider adapters can be driven by fakes in tests.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}
