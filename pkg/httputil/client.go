// Package httputil provides the shared outbound HTTP plumbing for Solace:
// pooled transports, tiered timeouts, and bounded response reads for the
// oracle and embedding backends.
package httputil

import (
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// MaxResponseSize is the default cap on response body reads. Remote
// backends are not trusted to be well behaved.
const MaxResponseSize = 10 * 1024 * 1024 // 10MB

// One transport for the whole process. Oracle calls, embedding lookups
// and webhook deliveries all reuse the same connection pool.
var sharedTransport = &http.Transport{
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
	ExpectContinueTimeout: 1 * time.Second,
}

// TimeoutTier groups outbound calls by how long they are allowed to take.
type TimeoutTier int

const (
	// TierFast for embedding lookups and health probes (5s)
	TierFast TimeoutTier = iota
	// TierMedium for oracle completions on the conversational path (30s)
	TierMedium
	// TierSlow for long-form generation such as journal insights (60s)
	TierSlow
)

var timeoutDurations = map[TimeoutTier]time.Duration{
	TierFast:   5 * time.Second,
	TierMedium: 30 * time.Second,
	TierSlow:   60 * time.Second,
}

var (
	clientFast   *http.Client
	clientMedium *http.Client
	clientSlow   *http.Client
	clientOnce   sync.Once
)

func initClients() {
	clientFast = &http.Client{Timeout: timeoutDurations[TierFast], Transport: sharedTransport}
	clientMedium = &http.Client{Timeout: timeoutDurations[TierMedium], Transport: sharedTransport}
	clientSlow = &http.Client{Timeout: timeoutDurations[TierSlow], Transport: sharedTransport}
}

// Client returns the shared HTTP client for a timeout tier. Callers must
// not mutate the returned client; it is shared across the process.
func Client(tier TimeoutTier) *http.Client {
	clientOnce.Do(initClients)
	switch tier {
	case TierFast:
		return clientFast
	case TierSlow:
		return clientSlow
	default:
		return clientMedium
	}
}

// ReadResponseBody reads a response body up to maxSize bytes. A maxSize
// of zero or less falls back to MaxResponseSize.
func ReadResponseBody(r io.Reader, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		maxSize = MaxResponseSize
	}
	return io.ReadAll(io.LimitReader(r, maxSize))
}

// DrainAndClose drains and closes a response body so the underlying
// connection can return to the pool.
func DrainAndClose(body io.ReadCloser) {
	if body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, MaxResponseSize))
		_ = body.Close()
	}
}
