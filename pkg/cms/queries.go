package cms

import (
	"context"
	"fmt"
)

// Wagtail content types served by the AreWeHeadlessYet app.
const (
	HomePageType  = "areweheadlessyet.AreWeHeadlessYetHomePage"
	TopicPageType = "areweheadlessyet.AreWeHeadlessYetTopicPage"

	topicSummaryFields = "title,status_color,introduction"
	allFields          = "*"
)

// HomePageID looks up the id of the AreWeHeadlessYet home page.
func (c *Client) HomePageID(ctx context.Context) (PageID, error) {
	raw, err := c.Fetch(ctx, "", Params{"type": HomePageType})
	if err != nil {
		return "", err
	}

	items, err := itemsOf(raw)
	if err != nil {
		return "", fmt.Errorf("home page id: %w", err)
	}
	if len(items) == 0 {
		return "", &NotFoundError{
			Entity:  "home page",
			Message: "Failed to fetch AreWeHeadlessYet home page's ID.",
		}
	}

	first, ok := items[0].(map[string]any)
	if !ok {
		return "", fmt.Errorf("home page id: %w: item is %T", ErrUnexpectedShape, items[0])
	}
	id, err := pageIDOf(first["id"])
	if err != nil {
		return "", fmt.Errorf("home page id: %w", err)
	}
	return id, nil
}

// HomePage resolves the home page id and fetches that page.
func (c *Client) HomePage(ctx context.Context) (HomePage, error) {
	id, err := c.HomePageID(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := c.Fetch(ctx, id.String(), Params{})
	if err != nil {
		return nil, err
	}
	page, ok := CamelizeKeys(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("home page %s: %w: body is %T", id, ErrUnexpectedShape, raw)
	}
	return HomePage(page), nil
}

// Topics lists topics with only title, status colour and introduction.
//
// Unlike TopicPages this returns the whole envelope, metadata included.
// Frontend callers read items themselves; keep the two shapes as they are
// until every caller is confirmed.
func (c *Client) Topics(ctx context.Context) (Envelope, error) {
	raw, err := c.Fetch(ctx, "", Params{
		"type":   TopicPageType,
		"fields": topicSummaryFields,
	})
	if err != nil {
		return nil, err
	}
	env, ok := CamelizeKeys(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("topics: %w: body is %T", ErrUnexpectedShape, raw)
	}
	return Envelope(env), nil
}

// TopicPages fetches every topic page with all fields. Only items are returned.
func (c *Client) TopicPages(ctx context.Context) ([]TopicPage, error) {
	raw, err := c.Fetch(ctx, "", Params{
		"type":   TopicPageType,
		"fields": allFields,
	})
	if err != nil {
		return nil, err
	}

	items, err := itemsOf(raw)
	if err != nil {
		return nil, fmt.Errorf("topic pages: %w", err)
	}
	camelized, _ := CamelizeKeys(items).([]any)

	pages := make([]TopicPage, 0, len(camelized))
	for i, item := range camelized {
		p, err := decodeTopicPage(item)
		if err != nil {
			return nil, fmt.Errorf("topic pages[%d]: %w", i, err)
		}
		pages = append(pages, p)
	}
	return pages, nil
}

// TopicPage fetches the topic page with the given slug.
func (c *Client) TopicPage(ctx context.Context, slug string) (TopicPage, error) {
	raw, err := c.Fetch(ctx, "", Params{
		"type":   TopicPageType,
		"slug":   slug,
		"fields": allFields,
	})
	if err != nil {
		return TopicPage{}, err
	}

	items, err := itemsOf(raw)
	if err != nil {
		return TopicPage{}, fmt.Errorf("topic page %s: %w", slug, err)
	}
	if len(items) == 0 {
		return TopicPage{}, &NotFoundError{
			Entity:     "topic page",
			Identifier: slug,
			Message:    fmt.Sprintf("Failed to fetch the %s topic page.", slug),
		}
	}

	p, err := decodeTopicPage(CamelizeKeys(items[0]))
	if err != nil {
		return TopicPage{}, fmt.Errorf("topic page %s: %w", slug, err)
	}
	return p, nil
}

func itemsOf(raw Value) ([]any, error) {
	env, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: body is %T, want object", ErrUnexpectedShape, raw)
	}
	items, ok := env["items"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: items is %T, want array", ErrUnexpectedShape, env["items"])
	}
	return items, nil
}
