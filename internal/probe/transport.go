package probe

import (
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"
)

// Request is the minimal description of one probe. Port is read by
// transports that dial a bare host; HTTPTransport ignores it and uses the
// URL's authority, so https URLs keep their default port.
type Request struct {
	URL     string
	Port    int
	Timeout time.Duration
}

// Transport sends a GET-like request and returns the status code.
// It must give up once req.Timeout has elapsed.
type Transport interface {
	Send(ctx context.Context, req Request) (int, error)
}

// Dialer opens and closes a TCP connection to address within timeout.
type Dialer interface {
	Dial(ctx context.Context, address string, timeout time.Duration) error
}

// HTTPTransport owns one long-lived client that all probes share.
type HTTPTransport struct {
	Client *http.Client
}

// NewHTTPTransport returns a transport whose client follows redirects, so
// the status compared is the one of the final response. A portal that
// redirects to its login page still answers with something other than 204.
func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{
		Client: &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
	}
}

func (t *HTTPTransport) Send(ctx context.Context, r Request) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return 0, err
	}
	resp, err := t.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	// drain a little so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	return resp.StatusCode, nil
}

// Close drops idle pooled connections.
func (t *HTTPTransport) Close() {
	t.Client.CloseIdleConnections()
}

// TCPDialer is the Dialer used by the socket strategy.
type TCPDialer struct{}

func (TCPDialer) Dial(ctx context.Context, address string, timeout time.Duration) error {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return err
	}
	_ = conn.Close()
	return nil
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
