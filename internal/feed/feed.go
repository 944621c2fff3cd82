package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"gopkg.in/yaml.v3"
)

// Document is the seller-hosted catalog feed consumed wholesale on each import.
type Document struct {
	Shop       string     `yaml:"shop"`
	Categories []Category `yaml:"categories"`
	Goods      []Good     `yaml:"goods"`
}

type Category struct {
	ID   uint   `yaml:"id"`
	Name string `yaml:"name"`
}

type Good struct {
	ID         uint              `yaml:"id"`
	Category   uint              `yaml:"category"`
	Name       string            `yaml:"name"`
	Model      string            `yaml:"model"`
	Price      uint              `yaml:"price"`
	PriceRRC   uint              `yaml:"price_rrc"`
	Quantity   uint              `yaml:"quantity"`
	Parameters map[string]string `yaml:"parameters"`
}

var client = &http.Client{Timeout: 10 * time.Second}

// maxFeedBytes caps how much of a seller-supplied URL we are willing to read.
const maxFeedBytes = 5 << 20

// ValidateURL checks the address syntactically before any network call.
func ValidateURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func Fetch(ctx context.Context, rawURL string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("feed: build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed: fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed: fetch: unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes+1))
	if err != nil {
		return nil, fmt.Errorf("feed: read body: %w", err)
	}
	if len(body) > maxFeedBytes {
		return nil, fmt.Errorf("feed: body exceeds %d bytes", maxFeedBytes)
	}

	return Parse(body)
}

func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("feed: parse: %w", err)
	}
	if doc.Shop == "" {
		return nil, fmt.Errorf("feed: parse: missing shop name")
	}
	return &doc, nil
}
