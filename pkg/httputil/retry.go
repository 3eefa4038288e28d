package httputil

import (
	"errors"
	"math/rand"
	"net"
	"net/http"
	"time"

	"topicast/pkg/retry"
)

// RetryClient retries requests that fail with transient network errors,
// 429 or 5xx responses. Other responses are returned as-is.
type RetryClient struct {
	client *http.Client
	policy retry.Policy
}

func DefaultPolicy() retry.Policy {
	return retry.Policy{
		Attempts:     2,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
	}
}

func NewRetryClient(client *http.Client, policy retry.Policy) *RetryClient {
	if client == nil {
		client = http.DefaultClient
	}

	defaults := DefaultPolicy()
	if policy.Attempts == 0 {
		policy.Attempts = defaults.Attempts
	}
	if policy.InitialDelay == 0 {
		policy.InitialDelay = defaults.InitialDelay
	}
	if policy.MaxDelay == 0 {
		policy.MaxDelay = defaults.MaxDelay
	}
	if policy.Multiplier == 0 {
		policy.Multiplier = defaults.Multiplier
	}

	return &RetryClient{
		client: client,
		policy: policy,
	}
}

func (c *RetryClient) Do(req *http.Request) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 1; attempt <= c.policy.Attempts; attempt++ {
		if attempt > 1 {
			if req.GetBody != nil {
				body, bodyErr := req.GetBody()
				if bodyErr != nil {
					return nil, bodyErr
				}
				req.Body = body
			}

			if sleepErr := retry.Sleep(req.Context(), applyJitter(c.policy.Delay(attempt-1))); sleepErr != nil {
				if err == nil {
					err = sleepErr
				}
				return nil, err
			}
		}

		resp, err = c.client.Do(req)
		if !shouldRetry(resp, err) || attempt == c.policy.Attempts {
			return resp, err
		}

		if resp != nil {
			_ = resp.Body.Close()
		}
	}

	return resp, err
}

func shouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return true
		}
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			return true
		}
		var dnsErr *net.DNSError
		return errors.As(err, &dnsErr)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}

	return resp.StatusCode >= 500 && resp.StatusCode < 600
}

func applyJitter(delay time.Duration) time.Duration {
	jitterFactor := 0.9 + rand.Float64()*0.2
	return time.Duration(float64(delay) * jitterFactor)
}
