// Package imdb scrapes imdb.com with an authenticated cookie session:
// the user data export lifecycle (queue, poll, download) plus the
// watchlist and ratings pages the freshness checks rely on.
package imdb

import (
	"fmt"
	"strings"
	"time"

	"imdb-data/lib/cookiejar"
	"imdb-data/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("scrapers/imdb")

// ErrNotAuthenticated is returned when imdb.com rejects the session,
// usually by redirecting to the sign-in page.
var ErrNotAuthenticated = fmt.Errorf("imdb.com rejected the session, cookies may be expired")

// ErrExportTimeout is returned when a queued export stays in the
// processing state past the configured deadline.
var ErrExportTimeout = fmt.Errorf("export is still processing, timed out waiting for it")

const (
	defaultBaseURL    = "https://www.imdb.com"
	defaultGraphqlURL = "https://api.graphql.imdb.com/"

	exportsPath   = "/exports/"
	watchlistPath = "/list/watchlist"
	ratingsPath   = "/list/ratings"

	// only trusted as an export download source
	defaultBucketPrefix = "https://userdataexport-dataexportsbucket-prod.s3.amazonaws.com"

	pageUserAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Safari/605.1.15"
	graphqlUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:127.0) Gecko/20100101 Firefox/127.0"
)

// Target identifies which export to fetch: the predefined watchlist, the
// ratings export, or a specific list by id.
type Target string

const (
	TargetWatchlist Target = "watchlist"
	TargetRatings   Target = "ratings"
)

// ParseTarget validates a target string: "watchlist", "ratings", or an
// "ls"-prefixed list id.
func ParseTarget(value string) (Target, error) {
	switch {
	case value == string(TargetWatchlist), value == string(TargetRatings):
		return Target(value), nil
	case strings.HasPrefix(value, "ls"):
		return Target(value), nil
	}
	return "", fmt.Errorf("invalid export target: %q", value)
}

// IsList reports whether the target is a named list id.
func (t Target) IsList() bool {
	return strings.HasPrefix(string(t), "ls")
}

type Client struct {
	// session-cookie'd client for imdb.com and its graphql api
	http *resty.Client
	// plain client for the export bucket, no cookies cross over
	download *resty.Client
	jar      *cookiejar.Jar

	baseURL       string
	graphqlURL    string
	bucketPrefix  string
	exportTimeout time.Duration
}

type ClientOptions struct {
	Jar *cookiejar.Jar
	// how long to wait for a queued export to become ready,
	// defaults to 5 minutes
	ExportTimeout time.Duration
	// overridable for tests
	BaseURL    string
	GraphqlURL string
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.Jar == nil {
		return nil, fmt.Errorf("a cookie jar is required")
	}
	if opts.ExportTimeout == 0 {
		opts.ExportTimeout = time.Minute * 5
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.GraphqlURL == "" {
		opts.GraphqlURL = defaultGraphqlURL
	}

	client := resty.New()
	client.SetHeader("user-agent", pageUserAgent)
	client.SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetHeader("accept-language", "en-US,en;q=0.9")
	client.SetTimeout(time.Second * 30)
	client.SetCookies(opts.Jar.HTTPCookies())
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		opts.Jar.MergeResponse(res.Cookies())
		return nil
	})
	telemetry.InstrumentResty(client, "scrapers/imdb/http")

	download := resty.New()
	download.SetHeader("user-agent", pageUserAgent)
	download.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(download, "scrapers/imdb/download")

	return &Client{
		http:          client,
		download:      download,
		jar:           opts.Jar,
		baseURL:       opts.BaseURL,
		graphqlURL:    opts.GraphqlURL,
		bucketPrefix:  defaultBucketPrefix,
		exportTimeout: opts.ExportTimeout,
	}, nil
}

// graphqlRequest applies the headers the imdb graphql frontend sends,
// including the amazon session id when the jar has one.
func (c *Client) graphqlRequest() *resty.Request {
	req := c.http.R().
		SetHeader("user-agent", graphqlUserAgent).
		SetHeader("accept", "application/graphql+json, application/json").
		SetHeader("accept-language", "en-US,en;q=0.5").
		SetHeader("x-imdb-client-name", "imdb-web-next-localized").
		SetHeader("x-imdb-user-country", "US").
		SetHeader("x-imdb-user-language", "en-US")

	if session, ok := c.jar.Get("session-id"); ok {
		req.SetHeader("x-amzn-sessionid", session.Value)
	}
	return req
}
