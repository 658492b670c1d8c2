// Package oaipmh talks to OAI-PMH 2.0 endpoints: Identify and ListRecords
// under the oai_dc profile.
package oaipmh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"OAIHealthCheck/internal/domain"
	"OAIHealthCheck/internal/metrics"
	"OAIHealthCheck/internal/ports"
)

const (
	// MetadataPrefix is the simple Dublin Core profile every endpoint must support.
	MetadataPrefix = "oai_dc"

	defaultUserAgent = "OAIHealthCheck/1.0"
	maxResponseBytes = 64 << 20
	noRecordsMatch   = "noRecordsMatch"
)

// Client implements the identity and record ports over HTTP.
type Client struct {
	client    *http.Client
	userAgent string
	logger    *slog.Logger
}

var (
	_ ports.IdentitySource = (*Client)(nil)
	_ ports.RecordSource   = (*Client)(nil)
)

// NewClient wires an HTTP client; a nil client gets a 60 second timeout.
func NewClient(client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{client: client, userAgent: defaultUserAgent, logger: logger}
}

// WithUserAgent overrides the User-Agent header.
func (c *Client) WithUserAgent(ua string) *Client {
	if ua != "" {
		c.userAgent = ua
	}
	return c
}

// Identify issues verb=Identify.
func (c *Client) Identify(ctx context.Context, endpoint string) (domain.RepositoryIdentity, error) {
	env, err := c.fetch(ctx, endpoint, url.Values{"verb": {"Identify"}})
	if err != nil {
		return domain.RepositoryIdentity{}, &domain.TransportError{Op: "identify", Endpoint: endpoint, Err: err}
	}
	if len(env.Errors) > 0 {
		return domain.RepositoryIdentity{}, &domain.TransportError{Op: "identify", Endpoint: endpoint, Err: env.Errors[0]}
	}
	if env.Identify == nil {
		return domain.RepositoryIdentity{}, &domain.TransportError{
			Op: "identify", Endpoint: endpoint, Err: errors.New("response has no Identify element"),
		}
	}
	return env.Identify.toDomain(), nil
}

// ListRecords walks verb=ListRecords pages, following resumption tokens and
// skipping deleted records. No further page is requested once the consumer stops.
func (c *Client) ListRecords(ctx context.Context, endpoint string) iter.Seq2[domain.RawRecord, error] {
	return func(yield func(domain.RawRecord, error) bool) {
		params := url.Values{"verb": {"ListRecords"}, "metadataPrefix": {MetadataPrefix}}
		previous := ""
		page := 0

		for {
			page++
			env, err := c.fetch(ctx, endpoint, params)
			if err != nil {
				yield(domain.RawRecord{}, &domain.TransportError{Op: "list records", Endpoint: endpoint, Err: err})
				return
			}
			if len(env.Errors) > 0 {
				if env.Errors[0].Code == noRecordsMatch {
					return
				}
				yield(domain.RawRecord{}, &domain.TransportError{Op: "list records", Endpoint: endpoint, Err: env.Errors[0]})
				return
			}
			if env.ListRecords == nil {
				yield(domain.RawRecord{}, &domain.TransportError{
					Op: "list records", Endpoint: endpoint, Err: errors.New("response has no ListRecords element"),
				})
				return
			}

			c.debug("page received", "endpoint", endpoint, "page", page,
				"records", len(env.ListRecords.Records),
				"complete_list_size", env.ListRecords.ResumptionToken.CompleteListSize)

			for _, rec := range env.ListRecords.Records {
				if rec.deleted() {
					continue
				}
				if !yield(rec.toDomain(), nil) {
					return
				}
			}

			token := strings.TrimSpace(env.ListRecords.ResumptionToken.Value)
			if token == "" {
				return
			}
			if token == previous {
				yield(domain.RawRecord{}, &domain.TransportError{
					Op: "list records", Endpoint: endpoint, Err: fmt.Errorf("resumption token %q did not advance", token),
				})
				return
			}
			previous = token
			params = url.Values{"verb": {"ListRecords"}, "resumptionToken": {token}}
		}
	}
}

func (c *Client) fetch(ctx context.Context, endpoint string, params url.Values) (*envelope, error) {
	verb := params.Get("verb")

	reqURL, err := buildRequestURL(endpoint, params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/xml, application/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.OAIRequestsTotal.WithLabelValues(verb, "error").Inc()
		return nil, fmt.Errorf("request %s: %w", verb, err)
	}
	defer resp.Body.Close()
	metrics.OAIRequestsTotal.WithLabelValues(verb, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", verb, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %s%s", verb, resp.Status, describeHTML(body))
	}
	if looksLikeHTML(resp.Header.Get("Content-Type"), body) {
		return nil, fmt.Errorf("%s answered with an HTML page%s, not OAI-PMH XML", verb, describeHTML(body))
	}

	return decodeEnvelope(body)
}

func buildRequestURL(base string, params url.Values) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(base))
	if err != nil {
		return "", fmt.Errorf("invalid endpoint url %s: %w", base, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("invalid endpoint url %s: scheme and host are required", base)
	}

	query := parsed.Query()
	for key, values := range params {
		query[key] = values
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func looksLikeHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "html") {
		return true
	}
	head := bytes.ToLower(bytes.TrimSpace(body[:min(len(body), 512)]))
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}

// describeHTML extracts the page title of an HTML error page for diagnostics.
func describeHTML(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		return ""
	}
	return fmt.Sprintf(" (%q)", title)
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
