package session

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quietLogger = &log.Logger{Writer: &log.IOWriter{Writer: io.Discard}}

func cookiesTxt(expiry int64) string {
	return strings.Join([]string{
		"# Netscape HTTP Cookie File",
		"# This is a generated file! Do not edit.",
		"",
		fmt.Sprintf(".gog.com\tTRUE\t/\tTRUE\t%d\tgog-al\tabc", expiry),
		fmt.Sprintf("#HttpOnly_.gog.com\tTRUE\t/\tTRUE\t%d\tgog_us\txyz", expiry),
		fmt.Sprintf(".example.com\tTRUE\t/\tFALSE\t%d\tother\tnope", expiry),
		"",
	}, "\n")
}

func names(cookies []*http.Cookie) []string {
	out := make([]string, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, c.Name)
	}
	sort.Strings(out)
	return out
}

func TestParseNetscape_FiltersAndStripsMarkers(t *testing.T) {
	exp := time.Now().Add(24 * time.Hour).Unix()
	cookies, err := ParseNetscape(strings.NewReader(cookiesTxt(exp)), "gog.com")
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	assert.Equal(t, "gog-al", cookies[0].Name)
	assert.Equal(t, "abc", cookies[0].Value)
	assert.Equal(t, ".gog.com", cookies[0].Domain)
	assert.True(t, cookies[0].Secure)
	assert.False(t, cookies[0].HttpOnly)
	assert.Equal(t, exp, cookies[0].Expires.Unix())

	assert.Equal(t, "gog_us", cookies[1].Name)
	assert.True(t, cookies[1].HttpOnly)
}

func TestParseNetscape_EmptyValueAndSessionCookie(t *testing.T) {
	cookies, err := ParseNetscape(strings.NewReader(".gog.com\tTRUE\t/\tFALSE\t0\tempty\t\n"), "gog.com")
	require.NoError(t, err)
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.True(t, cookies[0].Expires.IsZero())
}

func TestParseNetscape_MalformedLine(t *testing.T) {
	_, err := ParseNetscape(strings.NewReader("gog.com\tTRUE\t/\n"), "gog.com")
	assert.ErrorContains(t, err, "line 1")

	_, err = ParseNetscape(strings.NewReader(".gog.com\tTRUE\t/\tTRUE\tsoon\tn\tv\n"), "gog.com")
	assert.ErrorContains(t, err, "bad expiry")
}

func TestLoad_FailsWithoutJarOrImport(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "cookies.json"), filepath.Join(dir, "cookies.txt"), "gog.com", quietLogger)
	assert.ErrorIs(t, err, ErrCookieLoadFailed)
}

func TestLoad_ImportsBrowserExportOnce(t *testing.T) {
	dir := t.TempDir()
	jarPath := filepath.Join(dir, "state", "cookies.json")
	txtPath := filepath.Join(dir, "cookies.txt")
	exp := time.Now().Add(24 * time.Hour).Unix()
	require.NoError(t, os.WriteFile(txtPath, []byte(cookiesTxt(exp)), 0o600))

	s, err := Load(jarPath, txtPath, "gog.com", quietLogger)
	require.NoError(t, err)
	assert.Equal(t, []string{"gog-al", "gog_us"}, names(s.Cookies()))
	assert.FileExists(t, jarPath)

	// The saved jar wins over the import file from now on.
	require.NoError(t, os.Remove(txtPath))
	s2, err := Load(jarPath, txtPath, "gog.com", quietLogger)
	require.NoError(t, err)
	assert.Equal(t, []string{"gog-al", "gog_us"}, names(s2.Cookies()))
}

func TestStore_SetCookiesDeduplicatesByNameDomainPath(t *testing.T) {
	s := NewEphemeral()
	exp := time.Now().Add(time.Hour)
	s.SetCookies([]*http.Cookie{
		{Name: "a", Value: "1", Domain: ".gog.com", Path: "/", Expires: exp},
		{Name: "a", Value: "2", Domain: ".gog.com", Path: "/", Expires: exp},
		{Name: "a", Value: "3", Domain: ".gog.com", Path: "/account", Expires: exp},
		{Name: "b", Value: "4", Domain: "login.gog.com", Path: "/", Expires: exp},
	})

	got := s.Cookies()
	require.Len(t, got, 3)
	for _, c := range got {
		if c.Name == "a" && c.Path == "/" {
			assert.Equal(t, "2", c.Value)
		}
	}
}

func TestStore_ClearRemovesPersistedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	s, err := Open(path)
	require.NoError(t, err)

	s.SetCookies([]*http.Cookie{{Name: "a", Value: "1", Domain: ".gog.com", Path: "/", Expires: time.Now().Add(time.Hour)}})
	require.NoError(t, s.Save())
	assert.FileExists(t, path)

	require.NoError(t, s.Clear())
	assert.NoFileExists(t, path)
	assert.Empty(t, s.Cookies())

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Empty(t, reopened.Cookies())
}

func TestStore_SessionCookiesSurviveCopyButNotDisk(t *testing.T) {
	login := NewEphemeral()
	login.SetCookies([]*http.Cookie{
		{Name: "gog_lc", Value: "US_USD_en-US", Domain: ".gog.com", Path: "/"},
		{Name: "gog-al", Value: "token", Domain: ".gog.com", Path: "/", Expires: time.Now().Add(time.Hour)},
	})

	path := filepath.Join(t.TempDir(), "cookies.json")
	s, err := Open(path)
	require.NoError(t, err)
	s.SetCookies(login.jar.AllCookies())
	require.NoError(t, s.Save())

	assert.Equal(t, []string{"gog-al", "gog_lc"}, names(s.Cookies()))
	for _, c := range s.Cookies() {
		if c.Name == "gog_lc" {
			assert.True(t, c.Expires.IsZero(), "session cookie must keep a zero expiry")
		} else {
			assert.False(t, c.Expires.IsZero())
		}
	}

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"gog-al"}, names(reopened.Cookies()))
}
