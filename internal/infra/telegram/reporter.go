package telegram

import (
	"context"
	"fmt"
	"strings"

	"shabbat_deactivate/internal/app"
	domainTelegram "shabbat_deactivate/internal/domain/telegram"

	"gopkg.in/telebot.v3"
)

// maxListedAddresses caps how many addresses are spelled out in one summary.
const maxListedAddresses = 20

// SummaryReporter posts a short run summary to an operator chat.
type SummaryReporter struct {
	client domainTelegram.Client
	chatID int64
}

func NewSummaryReporter(client domainTelegram.Client, chatID int64) *SummaryReporter {
	return &SummaryReporter{client: client, chatID: chatID}
}

func (r *SummaryReporter) Report(_ context.Context, result *app.RunResult) error {
	if err := r.client.SendMessage(r.chatID, FormatSummary(result), &telebot.SendOptions{DisableWebPagePreview: true}); err != nil {
		return fmt.Errorf("failed to send summary to chat %d: %w", r.chatID, err)
	}
	return nil
}

// FormatSummary renders result as plain text.
func FormatSummary(result *app.RunResult) string {
	var b strings.Builder
	b.WriteString("Bounce deactivation")
	if result.DryRun {
		b.WriteString(" (dry run)")
	}
	fmt.Fprintf(&b, " at %s\n", result.RanAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "Candidates: %d, deactivated: %d\n", len(result.Candidates), result.Deactivated)

	for i, addr := range result.Candidates {
		if i == maxListedAddresses {
			fmt.Fprintf(&b, "... and %d more\n", len(result.Candidates)-maxListedAddresses)
			break
		}
		b.WriteString(addr)
		b.WriteString("\n")
	}
	return b.String()
}
