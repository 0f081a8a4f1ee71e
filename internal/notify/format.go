package notify

import (
	"fmt"
	"strings"

	"github.com/kzharov/pitchsignal/internal/domain"
)

// FormatPick renders a freshly emitted pick as a notification title and body.
func FormatPick(pick domain.Pick) (title, message string) {
	sel := string(pick.Signal.Selection)
	if pick.Signal.Line != nil {
		sel = fmt.Sprintf("%s %+.2f", sel, *pick.Signal.Line)
	}
	title = fmt.Sprintf("Pick %s: %s %s", pick.Tier, pick.Signal.StrategyID, sel)

	var b strings.Builder
	fmt.Fprintf(&b, "Match: %s\n", pick.Signal.MatchID)
	fmt.Fprintf(&b, "Market: %s\n", pick.Signal.Market)
	fmt.Fprintf(&b, "Model prob: %.1f%%\n", pick.ModelProb*100)
	if pick.Price != nil {
		fmt.Fprintf(&b, "Price: %.2f\n", *pick.Price)
	}
	if pick.Edge != nil {
		fmt.Fprintf(&b, "Edge: %+.1f%%\n", *pick.Edge*100)
	}
	fmt.Fprintf(&b, "Stake: %.2fu", pick.Stake)
	if pick.Signal.Note != "" {
		fmt.Fprintf(&b, "\n%s", pick.Signal.Note)
	}
	return title, b.String()
}

// FormatSettlement renders a settlement result as a notification title and body.
func FormatSettlement(rec domain.SettlementRecord) (title, message string) {
	title = fmt.Sprintf("Settled %s: %s", rec.Outcome, rec.StrategyID)

	var b strings.Builder
	fmt.Fprintf(&b, "Final: %d-%d\n", rec.FinalScore.Home, rec.FinalScore.Away)
	fmt.Fprintf(&b, "Profit: %+.2fu on %.2fu", rec.Profit, rec.Stake)
	if rec.CLV != nil {
		fmt.Fprintf(&b, "\nCLV: %+.1f%%", *rec.CLV)
	}
	if rec.SkipReason != "" {
		fmt.Fprintf(&b, "\nSkipped: %s", rec.SkipReason)
	}
	return title, b.String()
}

// FormatRiskPause renders a daily-loss pause as a notification.
func FormatRiskPause(state domain.RiskState) (title, message string) {
	title = "Emission paused: daily loss floor hit"
	message = fmt.Sprintf("Day %s\nRealized: %+.2fu\nConsecutive losses: %d",
		state.Day.Format("2006-01-02"), state.DailyProfit, state.ConsecutiveLosses)
	return title, message
}
