package telegram

import (
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/viewsbot/core/telegram/netutil"
)

const (
	apiDialTimeout  = 5 * time.Second
	apiTLSTimeout   = 5 * time.Second
	apiIdleTimeout  = 30 * time.Second
	apiKeepAlive    = 30 * time.Second
	apiRetries      = 3
	apiRetryBackoff = 2 * time.Second

	// apiHeaderSlack is the time the Bot API gets to answer beyond a held long poll.
	apiHeaderSlack = 5 * time.Second
	// apiBodySlack bounds reading the body once headers arrived.
	apiBodySlack = 20 * time.Second
)

// BuildHTTPClient returns the client used for every Bot API call. getUpdates
// is held open by Telegram for up to pollTimeout, so both the header and the
// overall deadlines are measured from it.
func BuildHTTPClient(pollTimeout time.Duration) *http.Client {
	if pollTimeout < 0 {
		pollTimeout = 0
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: apiDialTimeout, KeepAlive: apiKeepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       apiIdleTimeout,
		TLSHandshakeTimeout:   apiTLSTimeout,
		ResponseHeaderTimeout: pollTimeout + apiHeaderSlack,
		ExpectContinueTimeout: time.Second,
	}

	return &http.Client{
		Timeout: pollTimeout + apiHeaderSlack + apiBodySlack,
		Transport: &apiRetry{
			next:    transport,
			retries: apiRetries,
			backoff: apiRetryBackoff,
		},
	}
}

// apiRetry repeats a round trip when the failure is transient per netutil.
// Requests whose body cannot be rewound are sent once.
type apiRetry struct {
	next    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *apiRetry) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}

	var err error
	for attempt := 0; attempt <= t.retries; attempt++ {
		if attempt > 0 {
			if req.Body != nil && req.GetBody == nil {
				return nil, err
			}
			wait := t.backoff * time.Duration(attempt)
			if wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-req.Context().Done():
					timer.Stop()
					return nil, req.Context().Err()
				case <-timer.C:
				}
			}
		}

		out := req
		if attempt > 0 {
			out = req.Clone(req.Context())
			if req.GetBody != nil {
				body, bodyErr := req.GetBody()
				if bodyErr != nil {
					return nil, bodyErr
				}
				out.Body = body
			}
		}

		var resp *http.Response
		resp, err = next.RoundTrip(out)
		if err == nil {
			return resp, nil
		}
		if !netutil.ShouldRetry(err) {
			return nil, err
		}
	}
	return nil, err
}
