// Package auth logs into the storefront through its web login pages and
// hands the resulting session cookies to a persistent store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/phuslu/log"

	"github.com/scienceol/gogvault/internal/httpclient"
	"github.com/scienceol/gogvault/internal/session"
)

const (
	DefaultHomeURL  = "https://www.gog.com"
	DefaultLoginURL = "https://login.gog.com/login_check"

	twoStepMarker = "two_step"
	successMarker = "on_login_success"
)

var (
	ErrAuthURLNotFound    = errors.New("cannot find auth url, please report to the maintainer")
	ErrCaptchaRequired    = errors.New("gog is asking for a reCAPTCHA, try again in a few minutes")
	ErrLoginTokenMissing  = errors.New("login token not found on the login page, please report to the maintainer")
	ErrLoginFailed        = errors.New("login failed, verify your username/password and try again")
	ErrInvalidTwoStepCode = errors.New("invalid two-step security code")
)

// Credentials for one login attempt. Empty fields are prompted for.
type Credentials struct {
	Username string
	Password string
}

// Prompter asks the user for whatever the login flow is missing.
type Prompter interface {
	Username() (string, error)
	Password() (string, error)
	TwoStepCode() (string, error)
}

// CookieStore receives the session cookies after a successful login.
type CookieStore interface {
	Clear() error
	SetCookies(cookies []*http.Cookie)
	Save() error
}

// ClientFactory builds a fresh session around jar.
type ClientFactory func(jar http.CookieJar) *httpclient.Client

type Options struct {
	HomeURL   string
	LoginURL  string
	Store     CookieStore
	Prompter  Prompter
	NewClient ClientFactory
	Logger    *log.Logger
}

// Authenticator runs the login flow. Each Login call is a single attempt;
// only individual requests are retried.
type Authenticator struct {
	homeURL   string
	loginURL  string
	store     CookieStore
	prompter  Prompter
	newClient ClientFactory
	logger    *log.Logger
}

func New(opts Options) *Authenticator {
	a := &Authenticator{
		homeURL:   opts.HomeURL,
		loginURL:  opts.LoginURL,
		store:     opts.Store,
		prompter:  opts.Prompter,
		newClient: opts.NewClient,
		logger:    opts.Logger,
	}
	if a.homeURL == "" {
		a.homeURL = DefaultHomeURL
	}
	if a.loginURL == "" {
		a.loginURL = DefaultLoginURL
	}
	if a.logger == nil {
		a.logger = &log.DefaultLogger
	}
	return a
}

type loginState struct {
	authURL      string
	loginToken   string
	twoStepURL   string
	twoStepToken string
	twoStepCode  string
	success      bool
}

// Login clears the stored session, signs in and saves the new session
// cookies. The old session stays cleared even when the login fails.
func (a *Authenticator) Login(ctx context.Context, creds Credentials) error {
	if err := a.store.Clear(); err != nil {
		return fmt.Errorf("reset cookies: %w", err)
	}

	var err error
	if creds.Username == "" {
		if creds.Username, err = a.prompter.Username(); err != nil {
			return fmt.Errorf("read username: %w", err)
		}
	}
	if creds.Password == "" {
		if creds.Password, err = a.prompter.Password(); err != nil {
			return fmt.Errorf("read password: %w", err)
		}
	}

	a.logger.Info().Str("user", creds.Username).Msg("attempting gog login")

	jar := session.NewEphemeral()
	client := a.newClient(jar.Jar())
	st := &loginState{}

	if err := a.discoverAuthURL(ctx, client, st); err != nil {
		return err
	}
	if err := a.fetchLoginToken(ctx, client, st); err != nil {
		return err
	}
	if err := a.submitCredentials(ctx, client, st, creds); err != nil {
		return err
	}
	if st.twoStepURL != "" {
		if err := a.submitTwoStep(ctx, client, st); err != nil {
			return err
		}
	}

	if !st.success {
		return ErrLoginFailed
	}

	cookies := jar.Cookies()
	a.store.SetCookies(cookies)
	if err := a.store.Save(); err != nil {
		return err
	}
	a.logger.Info().Int("cookies", len(cookies)).Msg("login successful")
	return nil
}

func (a *Authenticator) discoverAuthURL(ctx context.Context, client *httpclient.Client, st *loginState) error {
	resp, err := client.Get(ctx, a.homeURL)
	if err != nil {
		return fmt.Errorf("fetch home page: %w", err)
	}
	st.authURL, err = FindAuthURL(httpclient.ReadText(resp))
	if err != nil {
		return err
	}
	a.logger.Debug().Str("auth_url", st.authURL).Msg("found auth url")
	return nil
}

func (a *Authenticator) fetchLoginToken(ctx context.Context, client *httpclient.Client, st *loginState) error {
	resp, err := client.Get(ctx, st.authURL)
	if err != nil {
		return fmt.Errorf("fetch login page: %w", err)
	}
	page := httpclient.ReadText(resp)

	captcha, err := HasCaptcha(page)
	if err != nil {
		return err
	}
	if captcha {
		return ErrCaptchaRequired
	}

	st.loginToken, err = InputValue(page, loginTokenID)
	if err != nil {
		return err
	}
	if st.loginToken == "" {
		return ErrLoginTokenMissing
	}
	return nil
}

func (a *Authenticator) submitCredentials(ctx context.Context, client *httpclient.Client, st *loginState, creds Credentials) error {
	resp, err := client.PostForm(ctx, a.loginURL, url.Values{
		"login[username]": {creds.Username},
		"login[password]": {creds.Password},
		"login[login]":    {""},
		"login[_token]":   {st.loginToken},
	})
	if err != nil {
		return fmt.Errorf("submit credentials: %w", err)
	}

	landed := httpclient.FinalURL(resp)
	switch {
	case strings.Contains(landed, twoStepMarker):
		st.twoStepURL = landed
		st.twoStepToken, err = InputValue(httpclient.ReadText(resp), twoStepTokenID)
		if err != nil {
			return err
		}
		if st.twoStepToken == "" {
			return fmt.Errorf("two-step page: %w", ErrLoginTokenMissing)
		}
		a.logger.Debug().Msg("two-step authentication requested")
	case strings.Contains(landed, successMarker):
		st.success = true
	}
	return nil
}

func (a *Authenticator) submitTwoStep(ctx context.Context, client *httpclient.Client, st *loginState) error {
	code, err := a.prompter.TwoStepCode()
	if err != nil {
		return fmt.Errorf("read two-step code: %w", err)
	}
	letters, err := SplitTwoStepCode(code)
	if err != nil {
		return err
	}
	st.twoStepCode = code

	resp, err := client.PostForm(ctx, st.twoStepURL, url.Values{
		"second_step_authentication[token][letter_1]": {letters[0]},
		"second_step_authentication[token][letter_2]": {letters[1]},
		"second_step_authentication[token][letter_3]": {letters[2]},
		"second_step_authentication[token][letter_4]": {letters[3]},
		"second_step_authentication[send]":            {""},
		"second_step_authentication[_token]":          {st.twoStepToken},
	})
	if err != nil {
		return fmt.Errorf("submit two-step code: %w", err)
	}
	st.success = strings.Contains(httpclient.FinalURL(resp), successMarker)
	return nil
}
