// Package session holds the cookies and default headers that identify the user
// to the forum for the lifetime of one run.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
)

const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

var ErrNoCookies = errors.New("session: no cookies found")

// Session is owned by a single run, it is mutated only while cookies are loaded
// and never shared between goroutines.
type Session struct {
	BaseUrl *url.URL
	Jar     *cookiejar.Jar
	Headers http.Header
}

func New(baseUrl string) (*Session, error) {
	parsed, err := url.Parse(baseUrl)
	if err != nil {
		return nil, fmt.Errorf("session: parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("session: base url %q has no host", baseUrl)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("User-Agent", UserAgent)
	headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	headers.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	headers.Set("Upgrade-Insecure-Requests", "1")

	return &Session{
		BaseUrl: parsed,
		Jar:     jar,
		Headers: headers,
	}, nil
}

// ParseCookies parses a browser cookie string (the result of `document.cookie`),
// pairs are separated by "; " and split at their first "=". Pieces without an "="
// are skipped, later duplicates win.
func ParseCookies(raw string) []*http.Cookie {
	index := map[string]int{}
	var cookies []*http.Cookie
	for _, piece := range strings.Split(strings.TrimSpace(raw), "; ") {
		name, value, ok := strings.Cut(piece, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if i, seen := index[name]; seen {
			cookies[i].Value = value
			continue
		}
		index[name] = len(cookies)
		cookies = append(cookies, &http.Cookie{Name: name, Value: value})
	}
	return cookies
}

// LoadString loads the cookies in raw into the session's jar, scoped to the
// base url's host, it returns the amount of cookies loaded.
func (s *Session) LoadString(raw string) (int, error) {
	cookies := ParseCookies(raw)
	if len(cookies) == 0 {
		return 0, ErrNoCookies
	}
	s.Jar.SetCookies(s.BaseUrl, cookies)
	return len(cookies), nil
}

// LoadFile is LoadString with the contents of the file at path.
func (s *Session) LoadFile(path string) (int, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("session: read cookie file: %w", err)
	}
	n, err := s.LoadString(string(contents))
	if err != nil {
		return 0, fmt.Errorf("session: %s: %w", path, err)
	}
	return n, nil
}

// Cookies returns the cookies that would be sent to the base url.
func (s *Session) Cookies() []*http.Cookie {
	return s.Jar.Cookies(s.BaseUrl)
}
