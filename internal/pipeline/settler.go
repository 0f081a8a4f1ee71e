package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kzharov/pitchsignal/internal/domain"
	"github.com/kzharov/pitchsignal/internal/notify"
	"github.com/kzharov/pitchsignal/internal/settle"
)

// Settler drives pending picks to their terminal state. Each cycle it asks
// the feed for the final state of every pending pick's match, grades the ones
// whose matches have finished, and records the results exactly once.
type Settler struct {
	feed        domain.MatchFeed
	odds        domain.OddsSource
	engine      *settle.Engine
	picks       domain.PickStore
	settlements domain.SettlementStore
	notifier    *notify.Notifier
	logger      *slog.Logger
}

// NewSettler creates a Settler.
func NewSettler(
	feed domain.MatchFeed,
	odds domain.OddsSource,
	engine *settle.Engine,
	picks domain.PickStore,
	settlements domain.SettlementStore,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *Settler {
	return &Settler{
		feed:        feed,
		odds:        odds,
		engine:      engine,
		picks:       picks,
		settlements: settlements,
		notifier:    notifier,
		logger:      logger.With(slog.String("component", "settler")),
	}
}

// RunLoop runs settlement cycles on a ticker until ctx is cancelled.
func (s *Settler) RunLoop(ctx context.Context, interval time.Duration) error {
	if err := s.RunCycle(ctx); err != nil {
		s.logger.Error("settlement cycle failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("settlement loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunCycle(ctx); err != nil {
				s.logger.Error("settlement cycle failed", slog.String("error", err.Error()))
			}
		}
	}
}

// RunCycle settles every pending pick whose match has finished. Picks whose
// matches are still running stay pending and are retried next cycle.
func (s *Settler) RunCycle(ctx context.Context) error {
	pending, err := s.picks.ListPending(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	settled := 0
	for _, pick := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.settleOne(ctx, pick) {
			settled++
		}
	}

	s.logger.Info("settlement cycle complete",
		slog.Int("pending", len(pending)),
		slog.Int("settled", settled),
	)
	return nil
}

func (s *Settler) settleOne(ctx context.Context, pick domain.Pick) bool {
	final, status, err := s.feed.FinalState(ctx, pick.Signal.MatchID)
	if err != nil {
		s.logger.Warn("final state fetch failed",
			slog.String("match", pick.Signal.MatchID),
			slog.String("error", err.Error()),
		)
		return false
	}

	rec, err := s.engine.Settle(pick, final, status, s.closingPrice(ctx, pick))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFinished):
			// Retry next cycle.
		case errors.Is(err, domain.ErrAlreadySettled):
			s.logger.Warn("pending list returned a settled pick", slog.String("id", pick.ID))
		default:
			s.logger.Error("settlement failed",
				slog.String("id", pick.ID),
				slog.String("error", err.Error()),
			)
		}
		return false
	}

	inserted, err := s.settlements.Insert(ctx, rec)
	if err != nil {
		s.logger.Error("settlement insert failed",
			slog.String("id", pick.ID),
			slog.String("error", err.Error()),
		)
		return false
	}
	if !inserted {
		s.logger.Debug("settlement already recorded", slog.String("id", pick.ID))
	}

	terminal := domain.PickStatusSettled
	if rec.Outcome == domain.OutcomeSkip {
		terminal = domain.PickStatusVoided
	}
	if err := s.picks.MarkSettled(ctx, pick.ID, terminal); err != nil {
		s.logger.Error("pick status update failed",
			slog.String("id", pick.ID),
			slog.String("error", err.Error()),
		)
		return false
	}

	s.logger.Info("pick settled",
		slog.String("id", pick.ID),
		slog.String("strategy", rec.StrategyID),
		slog.String("outcome", string(rec.Outcome)),
		slog.Float64("profit", rec.Profit),
	)

	if inserted && s.notifier != nil {
		title, msg := notify.FormatSettlement(rec)
		go s.notifier.Notify(context.WithoutCancel(ctx), notify.EventSettlement, title, msg)
	}
	return true
}

// closingPrice fetches the last available quote for CLV tracking. It is
// best-effort only; most books stop quoting once the match ends.
func (s *Settler) closingPrice(ctx context.Context, pick domain.Pick) *float64 {
	if !pick.Signal.Market.Valid() {
		return nil
	}
	price, err := s.odds.FetchPrice(ctx, pick.Signal.MatchID, pick.Signal.Market, pick.Signal.Selection, pick.Signal.Line)
	if err != nil {
		return nil
	}
	return &price
}
