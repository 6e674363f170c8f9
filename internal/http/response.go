package http

import (
	"encoding/json"
	"net/http"
	"time"
)

// TimingInfo breaks a request's latency into phases.
type TimingInfo struct {
	StartTime           time.Time
	DNSLookupTime       time.Duration
	TCPConnectTime      time.Duration
	TLSHandshakeTime    time.Duration
	TimeToFirstByte     time.Duration
	ContentTransferTime time.Duration
	TotalTime           time.Duration
	ConnectionReused    bool
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	BytesRead  int64
	Timing     TimingInfo
	body       []byte
}

// Body returns the response body. It is nil when the client discards bodies.
func (r *Response) Body() []byte {
	return r.body
}

// BodyAsJSON unmarshals the response body into the provided interface
func (r *Response) BodyAsJSON(v interface{}) error {
	return json.Unmarshal(r.body, v)
}

// IsSuccess returns true if the response status code is in the 2xx range
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError returns true for 4xx and 5xx responses.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}
