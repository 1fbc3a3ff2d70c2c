// Package fetch performs the single HTTP GET of a source page and the bounded retry
// around it.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultUserAgent      = "civicwatch-collector/1.0 (+https://civicwatch.ca/bot)"
	DefaultTimeout        = 30 * time.Second
	defaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	defaultAcceptLanguage = "en-CA,en;q=0.9,fr-CA;q=0.5"
)

// ErrorKind classifies a failed fetch.
type ErrorKind string

const (
	KindHTTPStatus ErrorKind = "http_status"
	KindTimeout    ErrorKind = "timeout"
	KindNetwork    ErrorKind = "network"
)

// FetchError is returned for every transient fetch failure. Only this type is retried.
type FetchError struct {
	Kind       ErrorKind
	StatusCode int
	URL        string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher issues GET requests with a fixed timeout and header set. It does not retry.
type Fetcher struct {
	client *resty.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New builds a Fetcher. Empty userAgent and zero timeout select the defaults.
func New(userAgent string, timeout time.Duration) *Fetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("User-Agent", userAgent)
	client.SetHeader("Accept", defaultAccept)
	client.SetHeader("Accept-Language", defaultAcceptLanguage)

	f := &Fetcher{
		client:   client,
		limiters: make(map[string]*rate.Limiter),
	}
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		lim := f.limiter(hostOf(req.URL))
		if lim == nil {
			return nil
		}
		return lim.Wait(req.Context())
	})
	return f
}

// Limit caps requests to a host at perMinute. Zero or negative removes the limit.
func (f *Fetcher) Limit(host string, perMinute int) {
	host = strings.ToLower(host)
	f.mu.Lock()
	defer f.mu.Unlock()
	if perMinute <= 0 {
		delete(f.limiters, host)
		return
	}
	if _, ok := f.limiters[host]; ok {
		f.limiters[host].SetLimit(rate.Every(time.Minute / time.Duration(perMinute)))
		return
	}
	f.limiters[host] = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

func (f *Fetcher) limiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.limiters[host]
}

// Fetch returns the body of a 2xx response. Timeouts, connection failures and
// non-2xx statuses come back as *FetchError; a cancelled ctx is returned as is.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(rawURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &FetchError{Kind: classify(err), URL: rawURL, Err: err}
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &FetchError{Kind: KindHTTPStatus, StatusCode: resp.StatusCode(), URL: rawURL}
	}
	return resp.Body(), nil
}

func classify(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	return KindNetwork
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
