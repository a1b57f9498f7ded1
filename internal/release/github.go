package release

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v32/github"
	"golang.org/x/oauth2"

	"github.com/ZebulonRouseFrantzich/binstall/internal/logging"
)

// GitHubProvider resolves releases through the GitHub REST API.
type GitHubProvider struct {
	client  *github.Client
	retries int
	maxWait time.Duration
	logger  logging.Logger
	sleep   func(context.Context, time.Duration) error
}

// NewGitHubProvider creates a provider. An empty token makes anonymous
// requests.
func NewGitHubProvider(ctx context.Context, token string, opts ...Option) (*GitHubProvider, error) {
	o := options{
		retries: DefaultRetries,
		maxWait: DefaultMaxWait,
	}
	for _, opt := range opts {
		opt(&o)
	}

	httpClient := o.httpClient
	if token != "" {
		if httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		}
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}

	client := github.NewClient(httpClient)
	if o.baseURL != "" {
		base := o.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse base URL: %w", err)
		}
		client.BaseURL = u
	}

	return &GitHubProvider{
		client:  client,
		retries: o.retries,
		maxWait: o.maxWait,
		logger:  logging.OrNop(o.logger),
		sleep:   sleepContext,
	}, nil
}

// Resolve fetches the release for tag, waiting out rate limits.
func (p *GitHubProvider) Resolve(ctx context.Context, owner, repo, tag string) (*Release, error) {
	for attempt := 0; ; attempt++ {
		rel, resp, err := p.fetch(ctx, owner, repo, tag)
		if err == nil {
			return convert(owner, repo, rel), nil
		}

		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s/%s@%s", ErrReleaseNotFound, owner, repo, displayTag(tag))
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		wait, limited := retryDelay(err, p.maxWait)
		if !limited || attempt >= p.retries {
			return nil, fmt.Errorf("fetch release %s/%s@%s: %w", owner, repo, displayTag(tag), err)
		}

		p.logger.Warn("rate limited by GitHub, retrying",
			"repo", owner+"/"+repo,
			"attempt", attempt+1,
			"wait", wait)
		if err := p.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func (p *GitHubProvider) fetch(ctx context.Context, owner, repo, tag string) (*github.RepositoryRelease, *github.Response, error) {
	if IsLatest(tag) {
		return p.client.Repositories.GetLatestRelease(ctx, owner, repo)
	}
	return p.client.Repositories.GetReleaseByTag(ctx, owner, repo, tag)
}

// retryDelay reports whether err is a rate-limit response and how long to
// wait before retrying, capped at maxWait.
func retryDelay(err error, maxWait time.Duration) (time.Duration, bool) {
	var wait time.Duration

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	switch {
	case errors.As(err, &rateErr):
		wait = time.Until(rateErr.Rate.Reset.Time)
	case errors.As(err, &abuseErr):
		if abuseErr.RetryAfter != nil {
			wait = *abuseErr.RetryAfter
		} else {
			wait = time.Minute
		}
	default:
		return 0, false
	}

	if wait < 0 {
		wait = 0
	}
	if maxWait > 0 && wait > maxWait {
		wait = maxWait
	}
	return wait, true
}

func convert(owner, repo string, rel *github.RepositoryRelease) *Release {
	out := &Release{
		Owner:  owner,
		Repo:   repo,
		Tag:    rel.GetTagName(),
		Assets: make([]Asset, 0, len(rel.Assets)),
	}
	for _, a := range rel.Assets {
		out.Assets = append(out.Assets, Asset{
			ID:          a.GetID(),
			Name:        a.GetName(),
			URL:         a.GetBrowserDownloadURL(),
			Size:        int64(a.GetSize()),
			ContentType: a.GetContentType(),
		})
	}
	return out
}

func displayTag(tag string) string {
	if IsLatest(tag) {
		return LatestTag
	}
	return tag
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
