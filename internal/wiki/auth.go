package wiki

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"blue-railroad-bot/internal/storage"
)

type tokensResponse struct {
	Query struct {
		Tokens struct {
			LoginToken string `json:"logintoken"`
			CSRFToken  string `json:"csrftoken"`
		} `json:"tokens"`
	} `json:"query"`
}

type loginResponse struct {
	Login struct {
		Result string `json:"result"`
		Reason string `json:"reason"`
	} `json:"login"`
}

// Login authenticates with a bot password. Session cookies are kept in the client's jar.
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loginLocked(ctx)
}

// AuthorizeWrites logs in and fetches an edit token. Rejected or missing
// credentials wrap storage.ErrWriteAccessDenied.
func (c *Client) AuthorizeWrites(ctx context.Context) error {
	_, err := c.editToken(ctx)
	if isAccessError(err) {
		return fmt.Errorf("%w: %w", storage.ErrWriteAccessDenied, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrStoreUnavailable, err)
	}
	return nil
}

func isAccessError(err error) bool {
	return errors.Is(err, ErrNoCredentials) || errors.Is(err, ErrLoginFailed)
}

func (c *Client) loginLocked(ctx context.Context) error {
	if c.loggedIn {
		return nil
	}
	if c.username == "" || c.password == "" {
		return ErrNoCredentials
	}

	var tokens tokensResponse
	err := c.call(ctx, http.MethodGet, url.Values{
		"action": {"query"},
		"meta":   {"tokens"},
		"type":   {"login"},
	}, &tokens)
	if err != nil {
		return fmt.Errorf("fetch login token: %w", err)
	}

	var resp loginResponse
	err = c.call(ctx, http.MethodPost, url.Values{
		"action":     {"login"},
		"lgname":     {c.username},
		"lgpassword": {c.password},
		"lgtoken":    {tokens.Query.Tokens.LoginToken},
	}, &resp)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if resp.Login.Result != "Success" {
		return fmt.Errorf("%w: %s %s", ErrLoginFailed, resp.Login.Result, resp.Login.Reason)
	}

	c.loggedIn = true
	return nil
}

// editToken returns the cached CSRF token, logging in first if needed.
func (c *Client) editToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.csrfToken != "" {
		return c.csrfToken, nil
	}
	if err := c.loginLocked(ctx); err != nil {
		return "", err
	}

	var tokens tokensResponse
	err := c.call(ctx, http.MethodGet, url.Values{
		"action": {"query"},
		"meta":   {"tokens"},
	}, &tokens)
	if err != nil {
		return "", fmt.Errorf("fetch csrf token: %w", err)
	}
	// Anonymous sessions get the token `+\`, which would make an IP edit.
	if tokens.Query.Tokens.CSRFToken == "" || tokens.Query.Tokens.CSRFToken == `+\` {
		return "", fmt.Errorf("%w: no session csrf token", ErrLoginFailed)
	}

	c.csrfToken = tokens.Query.Tokens.CSRFToken
	return c.csrfToken, nil
}

func (c *Client) resetSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loggedIn = false
	c.csrfToken = ""
}
