package http

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"
)

// Client issues prepared requests and records per-request timing.
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
	keepBody   bool
}

// ClientOption is a function that configures a Client
type ClientOption func(*Client)

// NewClient creates a new HTTP client with the given options
func NewClient(options ...ClientOption) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: newTransport(100),
		},
		headers:  make(map[string]string),
		keepBody: true,
	}

	// Apply options
	for _, option := range options {
		option(client)
	}

	return client
}

func newTransport(maxConns int) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        maxConns,
		MaxIdleConnsPerHost: maxConns,
		MaxConnsPerHost:     maxConns,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

// WithBaseURL sets the base URL for the client
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the timeout for the client
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHeader adds a header to the client
func WithHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithHeaders adds default headers to the client
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for key, value := range headers {
			c.headers[key] = value
		}
	}
}

// WithMaxConnections sizes the connection pool to one connection per
// virtual user.
func WithMaxConnections(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.httpClient.Transport = newTransport(n)
		}
	}
}

// WithDiscardBody makes the client drain response bodies without keeping
// them. Load generation only needs the byte count.
func WithDiscardBody() ClientOption {
	return func(c *Client) {
		c.keepBody = false
	}
}

// Prepare resolves req against the client's base URL and default headers.
func (c *Client) Prepare(req *Request) (*Prepared, error) {
	return req.Prepare(c.baseURL, c.headers)
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// Do executes a prepared request and returns the response with detailed
// timing information. Transport failures (refused connections, timeouts,
// cancellation) are returned as errors; any HTTP status is a response.
func (c *Client) Do(ctx context.Context, p *Prepared) (*Response, error) {
	httpReq, err := p.Build(ctx)
	if err != nil {
		return nil, err
	}

	timing := TimingInfo{
		StartTime: time.Now(),
	}

	var dnsStart, connectStart, tlsHandshakeStart time.Time
	lastPhaseEnd := timing.StartTime

	trace := &httptrace.ClientTrace{
		DNSStart: func(info httptrace.DNSStartInfo) {
			dnsStart = time.Now()
		},
		DNSDone: func(info httptrace.DNSDoneInfo) {
			now := time.Now()
			timing.DNSLookupTime = now.Sub(dnsStart)
			lastPhaseEnd = now
		},
		ConnectStart: func(network, addr string) {
			connectStart = time.Now()
		},
		ConnectDone: func(network, addr string, err error) {
			if err == nil {
				now := time.Now()
				timing.TCPConnectTime = now.Sub(connectStart)
				lastPhaseEnd = now
			}
		},
		TLSHandshakeStart: func() {
			tlsHandshakeStart = time.Now()
		},
		TLSHandshakeDone: func(state tls.ConnectionState, err error) {
			if err == nil {
				now := time.Now()
				timing.TLSHandshakeTime = now.Sub(tlsHandshakeStart)
				lastPhaseEnd = now
			}
		},
		GotConn: func(info httptrace.GotConnInfo) {
			timing.ConnectionReused = info.Reused
		},
		GotFirstResponseByte: func() {
			timing.TimeToFirstByte = time.Since(lastPhaseEnd)
		},
	}

	httpReq = httpReq.WithContext(httptrace.WithClientTrace(ctx, trace))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	contentTransferStart := time.Now()
	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    httpResp.Header,
	}

	if c.keepBody {
		resp.body, err = io.ReadAll(httpResp.Body)
		resp.BytesRead = int64(len(resp.body))
	} else {
		resp.BytesRead, err = io.Copy(io.Discard, httpResp.Body)
	}
	if err != nil {
		return nil, err
	}

	timing.ContentTransferTime = time.Since(contentTransferStart)
	timing.TotalTime = time.Since(timing.StartTime)
	resp.Timing = timing

	return resp, nil
}
