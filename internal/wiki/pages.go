package wiki

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"blue-railroad-bot/internal/storage"
)

type queryPagesResponse struct {
	Query struct {
		Pages []struct {
			Title     string `json:"title"`
			Missing   bool   `json:"missing"`
			Invalid   bool   `json:"invalid"`
			Revisions []struct {
				Slots struct {
					Main struct {
						Content string `json:"content"`
					} `json:"main"`
				} `json:"slots"`
			} `json:"revisions"`
		} `json:"pages"`
	} `json:"query"`
}

// ReadPage returns the latest content of a page. Failures wrap storage.ErrStoreUnavailable.
func (c *Client) ReadPage(ctx context.Context, name string) (string, bool, error) {
	params := url.Values{
		"action":  {"query"},
		"prop":    {"revisions"},
		"titles":  {name},
		"rvprop":  {"content"},
		"rvslots": {"main"},
	}

	var resp queryPagesResponse
	if err := c.call(ctx, http.MethodGet, params, &resp); err != nil {
		return "", false, fmt.Errorf("%w: read %q: %w", storage.ErrStoreUnavailable, name, err)
	}

	if len(resp.Query.Pages) == 0 {
		return "", false, fmt.Errorf("%w: read %q: empty response", storage.ErrStoreUnavailable, name)
	}
	page := resp.Query.Pages[0]
	if page.Invalid {
		return "", false, fmt.Errorf("%w: invalid page title %q", storage.ErrStoreUnavailable, name)
	}
	if page.Missing || len(page.Revisions) == 0 {
		return "", false, nil
	}
	return page.Revisions[0].Slots.Main.Content, true, nil
}

// FetchConfigDocument returns the text of the configuration page.
func (c *Client) FetchConfigDocument(ctx context.Context, page string) (string, error) {
	content, exists, err := c.ReadPage(ctx, page)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", fmt.Errorf("%w: %s", storage.ErrConfigPageMissing, page)
	}
	return content, nil
}

type editResponse struct {
	Edit struct {
		Result   string `json:"result"`
		NoChange bool   `json:"nochange"`
		NewRevID int64  `json:"newrevid"`
	} `json:"edit"`
}

// WritePage saves a page as a bot edit. Failures wrap storage.ErrPageWriteFailed.
func (c *Client) WritePage(ctx context.Context, name, content, summary string) error {
	err := c.edit(ctx, name, content, summary)
	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.Code == "badtoken" {
		// Session expired between runs; log in again once.
		c.resetSession()
		err = c.edit(ctx, name, content, summary)
	}
	if isAccessError(err) {
		return fmt.Errorf("%w: %s: %w", storage.ErrWriteAccessDenied, name, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", storage.ErrPageWriteFailed, name, err)
	}
	return nil
}

func (c *Client) edit(ctx context.Context, name, content, summary string) error {
	token, err := c.editToken(ctx)
	if err != nil {
		return err
	}

	params := url.Values{
		"action":  {"edit"},
		"title":   {name},
		"text":    {content},
		"summary": {summary},
		"bot":     {"1"},
		"assert":  {"user"},
		"token":   {token},
	}

	var resp editResponse
	if err := c.call(ctx, http.MethodPost, params, &resp); err != nil {
		return err
	}
	if resp.Edit.Result != "Success" {
		return fmt.Errorf("edit result %q", resp.Edit.Result)
	}
	return nil
}
