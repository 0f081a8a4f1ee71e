package feed

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kzharov/pitchsignal/internal/domain"
)

func TestClientLiveMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/matches/live" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "k1" {
			t.Errorf("api key header = %q", got)
		}
		w.Write([]byte(`{"matches":[{
			"id":"m1","competition_id":"c1","home_team":"H","away_team":"A",
			"minute":63,"status":"live","score":{"home":1,"away":0},
			"stats":[{"type":"Shots on Goal","home":"5","away":"2"}]
		}]}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, APIKey: "k1"})
	snaps, err := c.LiveMatches(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 {
		t.Fatalf("snaps = %d, want 1", len(snaps))
	}
	snap := snaps[0]
	if snap.MatchID != "m1" || snap.Minute != 63 || snap.Status != domain.MatchStatusLive {
		t.Errorf("snapshot fields wrong: %+v", snap)
	}
	if snap.Score == nil || snap.Score.Home != 1 {
		t.Errorf("score wrong: %+v", snap.Score)
	}
	if len(snap.Stats) != 1 || snap.Stats[0].Home != "5" {
		t.Errorf("stats wrong: %+v", snap.Stats)
	}
}

func TestClientFetchPriceNotQuoted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	_, err := c.FetchPrice(context.Background(), "m1", domain.MarketAsianHandicap, domain.SideHome, domain.Float(-0.25))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

type memStatsCache struct {
	rows map[string][]domain.StatRow
}

func (m *memStatsCache) Get(_ context.Context, matchID string) ([]domain.StatRow, error) {
	rows, ok := m.rows[matchID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rows, nil
}

func (m *memStatsCache) Set(_ context.Context, matchID string, rows []domain.StatRow, _ time.Duration) error {
	m.rows[matchID] = rows
	return nil
}

type countingStats struct {
	calls int
	rows  []domain.StatRow
}

func (c *countingStats) FetchStats(context.Context, string) ([]domain.StatRow, error) {
	c.calls++
	return c.rows, nil
}

func TestCachedStatsBoundsUpstreamCalls(t *testing.T) {
	source := &countingStats{rows: []domain.StatRow{{Type: "Shots", Home: "3", Away: "1"}}}
	cache := &memStatsCache{rows: map[string][]domain.StatRow{}}
	cs := NewCachedStats(source, cache, time.Minute, slog.Default())

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		rows, err := cs.FetchStats(ctx, "m1")
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 1 {
			t.Fatalf("rows = %d", len(rows))
		}
	}
	if source.calls != 1 {
		t.Errorf("upstream calls = %d, want 1 (cache should absorb the rest)", source.calls)
	}
}

func TestOddsKeyIncludesLine(t *testing.T) {
	a := oddsKey("m1", domain.MarketAsianHandicap, domain.SideHome, domain.Float(-0.25))
	b := oddsKey("m1", domain.MarketAsianHandicap, domain.SideHome, domain.Float(-0.75))
	if a == b {
		t.Errorf("distinct lines share an odds cache key: %s", a)
	}
}
