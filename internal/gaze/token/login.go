package token

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// maxBody bounds every login page read.
const maxBody = 2 << 20

var bearerPattern = regexp.MustCompile(`eyJ[^\s"'<>]*`)

// Credentials are the Gaze account used for the login flow.
type Credentials struct {
	LoginURL string
	Username string
	Password string
}

// FormLogin performs the browser-style login against the Gaze identity
// provider:
//
//  1. GET the login URL; its body is the accounts page URL.
//  2. GET the accounts page and read the login form action.
//  3. POST the credentials to the form action, following redirects.
//  4. Take the first bearer token found in the final page.
type FormLogin struct {
	creds  Credentials
	client *http.Client
}

// NewFormLogin creates a login flow. Each login uses a fresh cookie jar so
// identity-provider sessions never leak between logins.
func NewFormLogin(creds Credentials, base *http.Client) *FormLogin {
	if base == nil {
		base = http.DefaultClient
	}
	return &FormLogin{creds: creds, client: base}
}

// Login runs the flow and returns the bearer token.
func (l *FormLogin) Login(ctx context.Context) (string, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return "", fmt.Errorf("cookie jar: %w", err)
	}
	client := *l.client
	client.Jar = jar

	body, _, err := l.get(ctx, &client, l.creds.LoginURL)
	if err != nil {
		return "", fmt.Errorf("login url: %w", err)
	}
	accountsURL := strings.TrimSpace(string(body))
	if accountsURL == "" {
		return "", fmt.Errorf("login url returned no accounts url")
	}

	page, pageURL, err := l.get(ctx, &client, accountsURL)
	if err != nil {
		return "", fmt.Errorf("accounts page: %w", err)
	}
	action, err := FormAction(page, pageURL)
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("username", l.creds.Username)
	form.Set("password", l.creds.Password)
	form.Set("credentialId", "")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, action, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create authenticate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("authenticate: %w", err)
	}
	defer resp.Body.Close()

	authPage, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("read authenticate response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("authenticate: status %d", resp.StatusCode)
	}

	token := bearerPattern.Find(authPage)
	if token == nil {
		return "", fmt.Errorf("no bearer token in authenticate response")
	}
	return string(token), nil
}

func (l *FormLogin) get(ctx context.Context, client *http.Client, rawURL string) ([]byte, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return body, resp.Request.URL, nil
}

// FormAction returns the absolute action URL of the first form in page.
// Entities in the attribute are decoded by the HTML parser.
func FormAction(page []byte, pageURL *url.URL) (string, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse accounts page: %w", err)
	}

	var action string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "form" {
			for _, attr := range n.Attr {
				if attr.Key == "action" && strings.TrimSpace(attr.Val) != "" {
					action = strings.TrimSpace(attr.Val)
					return true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}

	if !walk(doc) {
		return "", fmt.Errorf("no login form action on accounts page")
	}

	ref, err := url.Parse(action)
	if err != nil {
		return "", fmt.Errorf("invalid form action: %w", err)
	}
	if pageURL == nil {
		return ref.String(), nil
	}
	return pageURL.ResolveReference(ref).String(), nil
}
