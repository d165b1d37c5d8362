// Package source fetches paginated attraction data from the travel API.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Config is the immutable client configuration. All session state (cookie,
// client ID, headers) is fixed at construction; the client never mutates it.
type Config struct {
	BaseURL    string
	ClientID   string
	Cookie     string
	UserAgent  string
	Referer    string
	Origin     string
	DistrictID int
	PageSize   int

	// MinDelay/MaxDelay bound the randomized blocking delay applied before
	// every request. MaxDelay <= 0 disables pacing.
	MinDelay time.Duration
	MaxDelay time.Duration
}

// Client performs authenticated, paced page fetches against the attraction
// list endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a page-fetching client from an immutable configuration.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

// listRequest is the JSON body of the attraction list POST.
type listRequest struct {
	Count            int        `json:"count"`
	DistrictID       int        `json:"districtId"`
	Filter           listFilter `json:"filter"`
	Head             listHead   `json:"head"`
	Index            int        `json:"index"`
	ReturnModuleType string     `json:"returnModuleType"`
	Scene            string     `json:"scene"`
	SortType         int        `json:"sortType"`
}

type listFilter struct {
	FilterItems []string `json:"filterItems"`
}

type listHead struct {
	CID       string   `json:"cid"`
	CTok      string   `json:"ctok"`
	CVer      string   `json:"cver"`
	Lang      string   `json:"lang"`
	SID       string   `json:"sid"`
	SysCode   string   `json:"syscode"`
	Auth      string   `json:"auth"`
	XSID      string   `json:"xsid"`
	Extension []string `json:"extension"`
}

// FetchPage fetches one page (1-based). Transport errors, non-2xx statuses
// and payloads missing the attraction list all surface as errors; the
// caller decides whether to skip or abort. There is no retry here.
func (c *Client) FetchPage(ctx context.Context, page int) (*Page, error) {
	if page < 1 {
		return nil, eris.Errorf("source: page index must be >= 1, got %d", page)
	}

	if err := c.pace(ctx); err != nil {
		return nil, eris.Wrap(err, "source: pacing interrupted")
	}

	body, err := json.Marshal(listRequest{
		Count:      c.cfg.PageSize,
		DistrictID: c.cfg.DistrictID,
		Filter:     listFilter{FilterItems: []string{}},
		Head: listHead{
			CID:       c.cfg.ClientID,
			CVer:      "1.0",
			Lang:      "01",
			SID:       "8888",
			SysCode:   "999",
			Extension: []string{},
		},
		Index:            page,
		ReturnModuleType: "product",
		Scene:            "online",
		SortType:         1,
	})
	if err != nil {
		return nil, eris.Wrap(err, "source: marshal request")
	}

	params := url.Values{
		"_fxpcqlniredt": {c.cfg.ClientID},
		"x-traceID":     {c.traceToken()},
	}
	reqURL := c.cfg.BaseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrapf(err, "source: build request for page %d", page)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "source: fetch page %d", page)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, eris.Errorf("source: page %d returned status %d", page, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read page %d body", page)
	}

	return parsePage(raw, page)
}

// parsePage decodes a raw response body into a Page. A payload without the
// attractionList key is malformed; an empty list is valid.
func parsePage(raw []byte, page int) (*Page, error) {
	var envelope struct {
		AttractionList json.RawMessage `json:"attractionList"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, eris.Wrapf(err, "source: parse page %d response", page)
	}
	if len(envelope.AttractionList) == 0 || string(envelope.AttractionList) == "null" {
		return nil, eris.Errorf("source: page %d response missing attractionList", page)
	}

	var items []Item
	if err := json.Unmarshal(envelope.AttractionList, &items); err != nil {
		return nil, eris.Wrapf(err, "source: parse page %d attraction list", page)
	}

	zap.L().Debug("fetched attraction page",
		zap.Int("page", page),
		zap.Int("items", len(items)),
	)
	return &Page{Attractions: items}, nil
}

// pace blocks for a random duration in [MinDelay, MaxDelay) to avoid
// hammering the source API. This is a pre-request scheduling delay, not a
// retry backoff.
func (c *Client) pace(ctx context.Context) error {
	if c.cfg.MaxDelay <= 0 {
		return nil
	}
	delay := c.cfg.MinDelay
	if span := c.cfg.MaxDelay - c.cfg.MinDelay; span > 0 {
		delay += rand.N(span)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// traceToken builds the per-request trace ID the upstream expects:
// "<clientID>-<unix millis>-<7 random digits>".
func (c *Client) traceToken() string {
	return fmt.Sprintf("%s-%d-%d", c.cfg.ClientID, time.Now().UnixMilli(), rand.IntN(9000000)+1000000)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Referer", c.cfg.Referer)
	req.Header.Set("Origin", c.cfg.Origin)
	if c.cfg.Cookie != "" {
		req.Header.Set("Cookie", c.cfg.Cookie)
	}
	req.Header.Set("sec-ch-ua-mobile", "?0")
	req.Header.Set("sec-ch-ua-platform", `"Windows"`)
}
