package session

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const httpOnlyPrefix = "#HttpOnly_"

// ParseNetscape reads a browser-exported cookies.txt and returns the cookies
// on lines mentioning domain. Comment lines are skipped; the "#HttpOnly_"
// marker some browsers prepend is stripped and kept as the HttpOnly flag.
//
// Each remaining line holds seven tab-separated fields: domain, include
// subdomains, path, secure, expiry (unix seconds, 0 for a session cookie),
// name and value.
func ParseNetscape(r io.Reader, domain string) ([]*http.Cookie, error) {
	var cookies []*http.Cookie

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()

		httpOnly := strings.HasPrefix(line, httpOnlyPrefix)
		line = strings.Replace(line, httpOnlyPrefix, "", 1)
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.Contains(line, domain) {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) == 6 {
			// trailing empty value eaten by TrimSpace
			fields = append(fields, "")
		}
		if len(fields) != 7 {
			return nil, fmt.Errorf("line %d: expected 7 tab-separated fields, got %d", lineNo, len(fields))
		}

		expiry, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad expiry %q: %w", lineNo, fields[4], err)
		}

		c := &http.Cookie{
			Domain:   fields[0],
			Path:     fields[2],
			Secure:   strings.EqualFold(fields[3], "TRUE"),
			Name:     fields[5],
			Value:    fields[6],
			HttpOnly: httpOnly,
		}
		if expiry > 0 {
			c.Expires = time.Unix(expiry, 0)
		}
		cookies = append(cookies, c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return cookies, nil
}
