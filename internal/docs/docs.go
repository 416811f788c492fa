// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package docs fetches smanim reference documents by slug.
package docs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sourcegraph/conc/iter"
)

const (
	// DefaultEndpoint serves raw MDX documents as GET <endpoint>?slug=<id>.
	DefaultEndpoint = "https://smanim-docs.vercel.app/api/mdx"

	// CheatsheetSlug is the overview document included in every plan request.
	CheatsheetSlug = "overview"

	defaultTimeout       = 30 * time.Second
	defaultMaxConcurrent = 4
)

// ErrFetch indicates a reference document could not be retrieved.
var ErrFetch = errors.New("reference fetch failed")

// Document is one fetched reference document.
type Document struct {
	Slug string
	Text string
}

// Config configures a Client. Zero values select defaults.
type Config struct {
	Endpoint      string
	HTTPClient    *http.Client
	MaxConcurrent int
	Logger        *slog.Logger
}

// Client fetches reference documents. It is safe for concurrent use.
type Client struct {
	endpoint      string
	http          *http.Client
	maxConcurrent int
	logger        *slog.Logger
}

// NewClient creates a Client from cfg.
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		endpoint:      cfg.Endpoint,
		http:          cfg.HTTPClient,
		maxConcurrent: cfg.MaxConcurrent,
		logger:        cfg.Logger,
	}
}

// Fetch retrieves the raw text of one document. A non-2xx status is ErrFetch.
func (c *Client) Fetch(ctx context.Context, slug string) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("%w: parsing endpoint: %v", ErrFetch, err)
	}
	q := u.Query()
	q.Set("slug", slug)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFetch, slug, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFetch, slug, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s: status %d", ErrFetch, slug, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %s: reading body: %v", ErrFetch, slug, err)
	}
	return string(body), nil
}

// FetchAll retrieves documents concurrently and returns those that
// succeeded, in slug order. Each failure is logged and its document omitted.
func (c *Client) FetchAll(ctx context.Context, slugs []string) []Document {
	type result struct {
		doc Document
		err error
	}

	mapper := iter.Mapper[string, result]{MaxGoroutines: c.maxConcurrent}
	results := mapper.Map(slugs, func(slug *string) result {
		text, err := c.Fetch(ctx, *slug)
		return result{doc: Document{Slug: *slug, Text: text}, err: err}
	})

	docs := make([]Document, 0, len(results))
	for _, r := range results {
		if r.err != nil {
			c.logger.Warn("omitting reference document", "slug", r.doc.Slug, "error", r.err)
			continue
		}
		docs = append(docs, r.doc)
	}
	return docs
}
