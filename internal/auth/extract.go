package auth

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	authScriptMarker = "GalaxyAccounts"
	captchaSelector  = ".g-recaptcha"

	loginTokenID   = "login__token"
	twoStepTokenID = "second_step_authentication__token"
)

func parse(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// FindAuthURL returns the first single-quoted https URL mentioning "auth"
// inside the script that boots the account widget.
func FindAuthURL(html string) (string, error) {
	doc, err := parse(html)
	if err != nil {
		return "", err
	}

	var found string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, authScriptMarker) {
			return true
		}
		for _, candidate := range strings.Split(text, "'") {
			if !strings.Contains(candidate, "auth") {
				continue
			}
			u, err := url.Parse(candidate)
			if err == nil && u.Scheme == "https" {
				found = candidate
				return false
			}
		}
		return true
	})

	if found == "" {
		return "", ErrAuthURLNotFound
	}
	return found, nil
}

// HasCaptcha reports whether the page asks for a reCAPTCHA.
func HasCaptcha(html string) (bool, error) {
	doc, err := parse(html)
	if err != nil {
		return false, err
	}
	return doc.Find(captchaSelector).Length() > 0, nil
}

// InputValue returns the value of the <input> with the given id, or "" when
// there is no such element.
func InputValue(html, id string) (string, error) {
	doc, err := parse(html)
	if err != nil {
		return "", err
	}
	v, _ := doc.Find(fmt.Sprintf("input[id=%q]", id)).First().Attr("value")
	return v, nil
}

// SplitTwoStepCode turns a four character security code into the four form
// fields the two-step page expects, one character each.
func SplitTwoStepCode(code string) ([4]string, error) {
	var letters [4]string
	runes := []rune(strings.TrimSpace(code))
	if len(runes) != len(letters) {
		return letters, fmt.Errorf("%w: got %d characters, want %d", ErrInvalidTwoStepCode, len(runes), len(letters))
	}
	for i, r := range runes {
		letters[i] = string(r)
	}
	return letters, nil
}
