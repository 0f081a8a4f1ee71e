// Package feed implements the upstream match-data collaborators: an HTTP
// client for live matches, statistics, final states and prices, and a
// websocket stream for push-driven snapshots. Fetch failures never abort a
// cycle; callers degrade to zero stats or an absent price.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kzharov/pitchsignal/internal/domain"
)

// ClientConfig holds the provider endpoint parameters.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is the HTTP feed client. It implements domain.MatchFeed,
// domain.StatsSource and domain.OddsSource.
type Client struct {
	cfg  ClientConfig
	http *http.Client
}

// NewClient creates a feed Client. A zero timeout defaults to 10 seconds.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

type scorePayload struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

type statPayload struct {
	Type string `json:"type"`
	Home string `json:"home"`
	Away string `json:"away"`
}

type matchPayload struct {
	ID            string        `json:"id"`
	CompetitionID string        `json:"competition_id"`
	HomeTeam      string        `json:"home_team"`
	AwayTeam      string        `json:"away_team"`
	Minute        int           `json:"minute"`
	Status        string        `json:"status"`
	Score         *scorePayload `json:"score"`
	Stats         []statPayload `json:"stats"`
}

func (p matchPayload) toSnapshot(observedAt time.Time) domain.MatchSnapshot {
	snap := domain.MatchSnapshot{
		MatchID:       p.ID,
		CompetitionID: p.CompetitionID,
		HomeTeam:      p.HomeTeam,
		AwayTeam:      p.AwayTeam,
		Minute:        p.Minute,
		Status:        domain.MatchStatus(p.Status),
		ObservedAt:    observedAt,
	}
	if p.Score != nil {
		snap.Score = &domain.Score{Home: p.Score.Home, Away: p.Score.Away}
	}
	for _, s := range p.Stats {
		snap.Stats = append(snap.Stats, domain.StatRow{Type: s.Type, Home: s.Home, Away: s.Away})
	}
	return snap
}

// LiveMatches returns a snapshot of every in-play match.
func (c *Client) LiveMatches(ctx context.Context) ([]domain.MatchSnapshot, error) {
	var payload struct {
		Matches []matchPayload `json:"matches"`
	}
	if err := c.get(ctx, "/v1/matches/live", nil, &payload); err != nil {
		return nil, fmt.Errorf("feed: live matches: %w", err)
	}

	now := time.Now().UTC()
	snaps := make([]domain.MatchSnapshot, 0, len(payload.Matches))
	for _, m := range payload.Matches {
		snaps = append(snaps, m.toSnapshot(now))
	}
	return snaps, nil
}

// FinalState returns the current final score and status for a match.
func (c *Client) FinalState(ctx context.Context, matchID string) (domain.Score, domain.MatchStatus, error) {
	var payload matchPayload
	if err := c.get(ctx, "/v1/matches/"+url.PathEscape(matchID), nil, &payload); err != nil {
		return domain.Score{}, "", fmt.Errorf("feed: final state %s: %w", matchID, err)
	}
	if payload.Score == nil {
		return domain.Score{}, domain.MatchStatus(payload.Status), fmt.Errorf("feed: final state %s: no score in payload", matchID)
	}
	return domain.Score{Home: payload.Score.Home, Away: payload.Score.Away}, domain.MatchStatus(payload.Status), nil
}

// FetchStats returns the raw statistic rows for a match.
func (c *Client) FetchStats(ctx context.Context, matchID string) ([]domain.StatRow, error) {
	var payload struct {
		Stats []statPayload `json:"stats"`
	}
	if err := c.get(ctx, "/v1/matches/"+url.PathEscape(matchID)+"/stats", nil, &payload); err != nil {
		return nil, fmt.Errorf("feed: stats %s: %w", matchID, err)
	}

	rows := make([]domain.StatRow, 0, len(payload.Stats))
	for _, s := range payload.Stats {
		rows = append(rows, domain.StatRow{Type: s.Type, Home: s.Home, Away: s.Away})
	}
	return rows, nil
}

// FetchPrice returns the current decimal price for a selection.
// domain.ErrNotFound means the provider quotes no live price for it.
func (c *Client) FetchPrice(ctx context.Context, matchID string, market domain.Market, sel domain.Side, line *float64) (float64, error) {
	q := url.Values{}
	q.Set("match", matchID)
	q.Set("market", string(market))
	q.Set("selection", string(sel))
	if line != nil {
		q.Set("line", strconv.FormatFloat(*line, 'f', 2, 64))
	}

	var payload struct {
		Price float64 `json:"price"`
	}
	if err := c.get(ctx, "/v1/odds", q, &payload); err != nil {
		return 0, fmt.Errorf("feed: price %s %s/%s: %w", matchID, market, sel, err)
	}
	if payload.Price <= 1 {
		return 0, domain.ErrNotFound
	}
	return payload.Price, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("X-Api-Key", c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Compile-time interface checks.
var (
	_ domain.MatchFeed   = (*Client)(nil)
	_ domain.StatsSource = (*Client)(nil)
	_ domain.OddsSource  = (*Client)(nil)
)
