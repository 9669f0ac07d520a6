// Package session keeps the storefront session cookies on disk between runs.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	cookiejar "github.com/juju/persistent-cookiejar"
	"github.com/phuslu/log"
	"golang.org/x/net/publicsuffix"
)

// ErrCookieLoadFailed means neither a saved jar nor an importable cookies.txt
// was found. The user has to log in first.
var ErrCookieLoadFailed = errors.New("failed to load cookies, did you login first?")

// endOfTime is the expiry the jar reports for session cookies.
var endOfTime = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// Store is a cookie jar that can be written back to disk.
type Store struct {
	jar  *cookiejar.Jar
	path string
}

// Open opens (or creates) the jar persisted at path. A missing file yields an
// empty store.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create cookie directory: %w", err)
	}
	jar, err := cookiejar.New(&cookiejar.Options{
		Filename:         path,
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		return nil, fmt.Errorf("open cookie jar %s: %w", path, err)
	}
	return &Store{jar: jar, path: path}, nil
}

// NewEphemeral returns a store that never touches disk. The login flow uses
// one as its throwaway session.
func NewEphemeral() *Store {
	jar, err := cookiejar.New(&cookiejar.Options{
		NoPersist:        true,
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		// Only file loading can fail and there is no file.
		panic(err)
	}
	return &Store{jar: jar}
}

// Load opens the persisted jar. When it does not exist yet, the browser export
// at importPath is folded in once (lines for domain only) and saved. With
// neither available it fails with ErrCookieLoadFailed.
func Load(path, importPath, domain string, logger *log.Logger) (*Store, error) {
	if _, err := os.Stat(path); err == nil {
		s, err := Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCookieLoadFailed, err)
		}
		return s, nil
	}

	if importPath != "" {
		if _, err := os.Stat(importPath); err == nil {
			s, err := Open(path)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrCookieLoadFailed, err)
			}
			n, err := s.Import(importPath, domain)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrCookieLoadFailed, err)
			}
			if err := s.Save(); err != nil {
				return nil, err
			}
			logger.Info().Str("file", importPath).Int("cookies", n).Msg("imported browser cookies")
			return s, nil
		}
	}

	return nil, ErrCookieLoadFailed
}

// Import folds the domain's cookies from a Netscape cookies.txt into the
// store and returns how many were read. It does not save.
func (s *Store) Import(importPath, domain string) (int, error) {
	f, err := os.Open(importPath)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", importPath, err)
	}
	defer f.Close()

	cookies, err := ParseNetscape(f, domain)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", importPath, err)
	}
	s.SetCookies(cookies)
	return len(cookies), nil
}

// Path is the backing file, empty for ephemeral stores.
func (s *Store) Path() string {
	return s.path
}

// Jar is the store as an http.CookieJar for a session.
func (s *Store) Jar() http.CookieJar {
	return s.jar
}

// Cookies returns every unexpired cookie in the store. Session cookies come
// back with a zero Expires.
func (s *Store) Cookies() []*http.Cookie {
	cookies := s.jar.AllCookies()
	for i, c := range cookies {
		cookies[i] = asSession(c)
	}
	return cookies
}

// SetCookies adds cookies, each scoped by its own Domain and Path. A cookie
// with the same name, domain and path replaces the existing one. Session
// cookies stay session cookies, even when they come from another jar.
func (s *Store) SetCookies(cookies []*http.Cookie) {
	for _, c := range cookies {
		u := cookieURL(c)
		if u == nil {
			continue
		}
		s.jar.SetCookies(u, []*http.Cookie{asSession(c)})
	}
}

func asSession(c *http.Cookie) *http.Cookie {
	if !c.Expires.Equal(endOfTime) {
		return c
	}
	cc := *c
	cc.Expires = time.Time{}
	return &cc
}

// Clear drops every cookie and, for a persisted store, the file behind it, so
// the next Save cannot resurrect anything.
func (s *Store) Clear() error {
	s.jar.RemoveAll()
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", s.path, err)
	}
	return nil
}

// Save writes the store to disk. Session cookies are not written; they last
// for the current process only.
func (s *Store) Save() error {
	if s.path == "" {
		return nil
	}
	if err := s.jar.Save(); err != nil {
		return fmt.Errorf("save cookies to %s: %w", s.path, err)
	}
	return nil
}

func cookieURL(c *http.Cookie) *url.URL {
	host := strings.TrimPrefix(c.Domain, ".")
	if host == "" {
		return nil
	}
	scheme := "http"
	if c.Secure {
		scheme = "https"
	}
	path := c.Path
	if path == "" {
		path = "/"
	}
	return &url.URL{Scheme: scheme, Host: host, Path: path}
}
