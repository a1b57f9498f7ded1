package release

import (
	"net/http"
	"time"

	"github.com/ZebulonRouseFrantzich/binstall/internal/logging"
)

const (
	// DefaultRetries is how often a rate-limited request is retried.
	DefaultRetries = 3
	// DefaultMaxWait caps a single rate-limit wait.
	DefaultMaxWait = 2 * time.Minute
)

type options struct {
	baseURL    string
	httpClient *http.Client
	retries    int
	maxWait    time.Duration
	logger     logging.Logger
}

// Option configures a GitHubProvider.
type Option func(*options)

// WithBaseURL points the provider at a GitHub Enterprise or test API root.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithHTTPClient sets the transport used for API calls. The token, if
// any, is layered on top of it.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithRetries sets the number of retries after a rate-limit response.
func WithRetries(n int) Option {
	return func(o *options) { o.retries = n }
}

// WithMaxWait caps how long a single rate-limit wait may last.
func WithMaxWait(d time.Duration) Option {
	return func(o *options) { o.maxWait = d }
}

// WithLogger sets the logger for retry warnings.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}
