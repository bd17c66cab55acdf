package httpclient

import "context"

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// JSONClient is a Client that can also send JSON bodies.
//
// Implementations report every failure, non-2xx statuses included, as
// *TransportError so callers can tell a server rejection from a request that
// never got an answer.
type JSONClient interface {
	Client
	PostJSON(ctx context.Context, url string, body any, headers map[string]string) (Response, error)
}
