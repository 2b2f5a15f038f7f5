package imdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"imdb-data/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// imdb pages are rendered by next.js; the interesting page state lives in
// a JSON blob inside <script id="__NEXT_DATA__">.
type nextData struct {
	Props struct {
		PageProps json.RawMessage `json:"pageProps"`
	} `json:"props"`
}

func parseNextData(body []byte) (json.RawMessage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	for _, script := range doc.Find(`script[id="__NEXT_DATA__"]`).Nodes {
		text := htmlutil.GetText(script)
		var data nextData
		err := json.Unmarshal([]byte(text), &data)
		if err != nil {
			return nil, fmt.Errorf("unmarshal __NEXT_DATA__: %w", err)
		}
		return data.Props.PageProps, nil
	}

	return nil, fmt.Errorf("could not find __NEXT_DATA__")
}

// fetchPageProps gets an imdb page and extracts its next.js page state.
func (c *Client) fetchPageProps(ctx context.Context, path string) (json.RawMessage, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	if isSigninRedirect(res.RawResponse.Request.URL.String()) {
		return nil, ErrNotAuthenticated
	}
	if res.IsError() {
		return nil, fmt.Errorf("fetch %s: status %d", path, res.StatusCode())
	}

	props, err := parseNextData(res.Body())
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return props, nil
}

func isSigninRedirect(finalURL string) bool {
	return strings.Contains(finalURL, "/registration/signin") ||
		strings.Contains(finalURL, "/ap/signin")
}
