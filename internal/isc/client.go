// Package isc talks to the external game server that our players play on.
// It is a best-effort result provider: a result may simply not exist yet,
// which is reported as not-found, never as an error.
package isc

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/AdamBeresnev/league-app/internal/league"
	"github.com/PuerkitoBio/goquery"
	"github.com/gregjones/httpcache"
)

// Provider is the result-fetch contract consumed by the sweep service.
type Provider interface {
	// FetchResult looks up the most recent finished game between the two
	// usernames. The second return value is false when no result exists.
	FetchResult(ctx context.Context, player1, player2 string) (league.Score, bool, error)
}

// Usernames are 3-20 characters, letters/digits/underscore, starting with a
// letter. Anything else is rejected before a request goes out.
var usernameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{2,19}$`)

type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient builds a scraping client for the given results host. Responses
// are cached in memory so a sweep over many matches doesn't hammer the
// provider with identical page fetches.
func NewClient(baseURL string) *Client {
	transport := httpcache.NewMemoryCacheTransport()
	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *Client) FetchResult(ctx context.Context, player1, player2 string) (league.Score, bool, error) {
	if !usernameRe.MatchString(player1) {
		return league.Score{}, false, fmt.Errorf("invalid username %q", player1)
	}
	if !usernameRe.MatchString(player2) {
		return league.Score{}, false, fmt.Errorf("invalid username %q", player2)
	}

	endpoint := fmt.Sprintf("%s/history?player=%s", c.baseURL, url.QueryEscape(player1))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return league.Score{}, false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return league.Score{}, false, fmt.Errorf("failed to fetch history for %s: %w", player1, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return league.Score{}, false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return league.Score{}, false, fmt.Errorf("unexpected status %d fetching history for %s", resp.StatusCode, player1)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return league.Score{}, false, fmt.Errorf("failed to parse history page: %w", err)
	}

	return findGame(doc, player2)
}

// findGame scans the history table for the most recent row against the given
// opponent. Rows carry the opponent name and a "412-389" style score from
// the page owner's perspective.
func findGame(doc *goquery.Document, opponent string) (league.Score, bool, error) {
	var score league.Score
	var found bool
	var parseErr error

	doc.Find("table.history tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		name := strings.TrimSpace(row.Find("td.opponent").Text())
		if !strings.EqualFold(name, opponent) {
			return true
		}
		raw := strings.TrimSpace(row.Find("td.score").Text())
		s, err := parseScore(raw)
		if err != nil {
			parseErr = err
			return false
		}
		score = s
		found = true
		return false
	})

	if parseErr != nil {
		return league.Score{}, false, parseErr
	}
	return score, found, nil
}

func parseScore(raw string) (league.Score, error) {
	parts := strings.SplitN(raw, "-", 2)
	if len(parts) != 2 {
		return league.Score{}, fmt.Errorf("malformed score %q", raw)
	}
	p1, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return league.Score{}, fmt.Errorf("malformed score %q", raw)
	}
	p2, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return league.Score{}, fmt.Errorf("malformed score %q", raw)
	}
	return league.Score{P1: p1, P2: p2}, nil
}
