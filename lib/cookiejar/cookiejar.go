// Package cookiejar persists an authenticated imdb.com session as a
// file-backed cookie jar, so scheduled runs can make authorized requests
// without an interactive login.
package cookiejar

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"
)

// ErrNoJar is returned when the jar file does not exist and no raw cookie
// override was provided.
var ErrNoJar = fmt.Errorf("cookie jar file does not exist")

type Cookie struct {
	Value   string    `json:"value"`
	Domain  string    `json:"domain,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}

// Jar holds the session cookies for a single run. It is not safe for
// concurrent use; runs are single-threaded.
type Jar struct {
	cookies map[string]Cookie
	changed bool
}

func New() *Jar {
	return &Jar{cookies: map[string]Cookie{}}
}

// Load reads a persisted jar file. A missing file yields ErrNoJar so
// callers can distinguish "never logged in" from a corrupt jar.
func Load(path string) (*Jar, error) {
	contents, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", path, ErrNoJar)
	}
	if err != nil {
		return nil, err
	}

	var cookies map[string]Cookie
	err = json.Unmarshal(contents, &cookies)
	if err != nil {
		return nil, fmt.Errorf("corrupt cookie jar %s: %w", path, err)
	}
	if cookies == nil {
		cookies = map[string]Cookie{}
	}
	return &Jar{cookies: cookies}, nil
}

// Save serializes the jar to disk. Output is byte-identical across runs
// for an unchanged jar (sorted keys, fixed indentation, trailing newline)
// so committing the jar file produces no spurious diffs.
func (j *Jar) Save(path string) error {
	contents, err := json.MarshalIndent(j.cookies, "", "  ")
	if err != nil {
		return err
	}
	contents = append(contents, '\n')
	err = os.WriteFile(path, contents, 0600)
	if err != nil {
		return err
	}
	j.changed = false
	return nil
}

// Changed reports whether the jar differs from its loaded state, e.g.
// because the server rotated a cookie mid-run.
func (j *Jar) Changed() bool {
	return j.changed
}

// ImportHeader parses a raw `Cookie:` header value, as copied from a
// browser, into the jar. Existing entries with the same name are
// overwritten.
func (j *Jar) ImportHeader(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("empty cookie header")
	}
	for _, pair := range strings.Split(raw, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, found := strings.Cut(pair, "=")
		if !found {
			return fmt.Errorf("malformed cookie pair %q: missing '='", pair)
		}
		if name == "" || value == "" {
			return fmt.Errorf("malformed cookie pair %q: empty name or value", pair)
		}
		j.Set(name, Cookie{Value: value, Domain: ".imdb.com"})
	}
	return nil
}

func (j *Jar) Set(name string, c Cookie) {
	old, ok := j.cookies[name]
	if !ok || old.Value != c.Value {
		j.changed = true
	}
	j.cookies[name] = c
}

func (j *Jar) Get(name string) (Cookie, bool) {
	c, ok := j.cookies[name]
	return c, ok
}

func (j *Jar) Len() int {
	return len(j.cookies)
}

func (j *Jar) names() []string {
	names := make([]string, 0, len(j.cookies))
	for name := range j.cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HTTPCookies renders the jar as request cookies in a stable order.
func (j *Jar) HTTPCookies() []*http.Cookie {
	cookies := make([]*http.Cookie, 0, len(j.cookies))
	for _, name := range j.names() {
		c := j.cookies[name]
		cookies = append(cookies, &http.Cookie{
			Name:    name,
			Value:   c.Value,
			Domain:  c.Domain,
			Expires: c.Expires,
		})
	}
	return cookies
}

// MergeResponse folds Set-Cookie values from a response back into the
// jar, marking it changed only when a value actually differs.
func (j *Jar) MergeResponse(cookies []*http.Cookie) {
	for _, c := range cookies {
		if c.Name == "" || c.Value == "" {
			continue
		}
		j.Set(c.Name, Cookie{
			Value:   c.Value,
			Domain:  c.Domain,
			Expires: c.Expires,
		})
	}
}

// Header renders the jar as a `name=value; ...` cookie header string.
func (j *Jar) Header() string {
	pairs := make([]string, 0, len(j.cookies))
	for _, name := range j.names() {
		pairs = append(pairs, fmt.Sprintf("%s=%s", name, j.cookies[name].Value))
	}
	return strings.Join(pairs, "; ")
}
