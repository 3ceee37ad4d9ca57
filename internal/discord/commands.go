package discord

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/NgigiN/walletsync/internal/expense"
	"github.com/NgigiN/walletsync/internal/mpesa"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const usage = "Commands:\n" +
	"`!add <amount> <category> <description>` record an expense\n" +
	"`!list` show the latest expenses\n" +
	"`!delete <id>` remove an expense\n" +
	"`!sync` push pending expenses and refresh from the server\n" +
	"`!status` connectivity and pending count\n" +
	"`!summary [category]` totals per category\n" +
	"Or paste one or more M-PESA confirmations followed by `c: <category>` and `r: <reason>` lines."

const listLimit = 10

var categories = []string{"food", "travel", "savings", "church", "investments"}

// titleCase builds a fresh Caser per call; Casers keep state.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// Reply handles one channel message and returns the text to post back.
func (b *Bot) Reply(ctx context.Context, content string) string {
	content = strings.TrimSpace(content)
	args := strings.Fields(content)
	if len(args) == 0 {
		return "No message content provided"
	}

	switch strings.ToLower(args[0]) {
	case "!help":
		return usage
	case "!add":
		return b.addCommand(ctx, args[1:])
	case "!list":
		return b.listCommand()
	case "!delete":
		return b.deleteCommand(ctx, args[1:])
	case "!sync":
		return b.syncCommand(ctx)
	case "!status":
		return b.statusCommand()
	case "!summary":
		return b.summaryCommand(args[1:])
	}

	entries := mpesa.SplitBatch(content)
	switch {
	case len(entries) > 1:
		return b.importBatch(ctx, entries)
	case len(entries) == 1:
		return b.importOne(ctx, entries[0])
	default:
		return fmt.Sprintf("Invalid Mpesa Message: %v\n%s", mpesa.ErrNotConfirmation, usage)
	}
}

func (b *Bot) addCommand(ctx context.Context, args []string) string {
	if len(args) < 3 {
		return "Usage: !add <amount> <category> <description>"
	}
	amount, err := strconv.ParseFloat(strings.TrimPrefix(strings.ToLower(args[0]), "ksh"), 64)
	if err != nil {
		return fmt.Sprintf("Invalid amount: %s", args[0])
	}
	category := strings.ToLower(args[1])
	if !isValidCategory(category) {
		return invalidCategory(category)
	}

	rec, err := b.ledger.Create(ctx, expense.Draft{
		Amount:      amount,
		Description: strings.Join(args[2:], " "),
		Category:    category,
	})
	if err != nil {
		return fmt.Sprintf("Failed to record expense: %v", err)
	}
	return fmt.Sprintf("Tracked Ksh%.2f for %s in %s (%s)", rec.Amount, rec.Description, rec.Category, stateLabel(rec))
}

func (b *Bot) importOne(ctx context.Context, entry mpesa.Entry) string {
	rec, err := b.importEntry(ctx, entry)
	if err != nil {
		return err.Error()
	}
	return fmt.Sprintf("Tracked Ksh%.2f to %s in %s (%s)", rec.Amount, rec.Description, rec.Category, stateLabel(rec))
}

func (b *Bot) importBatch(ctx context.Context, entries []mpesa.Entry) string {
	var failures []string
	for i, entry := range entries {
		if _, err := b.importEntry(ctx, entry); err != nil {
			failures = append(failures, fmt.Sprintf("Transaction %d: %v", i+1, err))
		}
	}

	var sb strings.Builder
	sb.WriteString("📊 **Batch Processing Complete**\n")
	fmt.Fprintf(&sb, "✅ **Successfully processed**: %d transactions\n", len(entries)-len(failures))
	if len(failures) > 0 {
		fmt.Fprintf(&sb, "❌ **Failed**: %d transactions\n**Errors:**\n", len(failures))
		for _, f := range failures {
			fmt.Fprintf(&sb, "• %s\n", f)
		}
	}
	return sb.String()
}

func (b *Bot) importEntry(ctx context.Context, entry mpesa.Entry) (expense.Record, error) {
	parsed, err := mpesa.ParseMPesaMessage(entry.Message)
	if err != nil {
		return expense.Record{}, fmt.Errorf("Invalid Mpesa Message: %v", err)
	}
	category, reason := mpesa.ParseMetadata(entry.Metadata)
	category = strings.ToLower(category)
	if !isValidCategory(category) {
		return expense.Record{}, errors.New(invalidCategory(category))
	}

	rec, err := b.ledger.Create(ctx, parsed.Draft(category, reason))
	if err != nil {
		return expense.Record{}, fmt.Errorf("Failed to save transaction %s: %v", parsed.TransactionID, err)
	}
	return rec, nil
}

func (b *Bot) listCommand() string {
	records := b.ledger.Snapshot()
	if len(records) == 0 {
		return "No expenses yet."
	}

	var sb strings.Builder
	sb.WriteString("🧾 **Latest Expenses**\n\n")
	for i, r := range records {
		if i == listLimit {
			fmt.Fprintf(&sb, "... and %d more\n", len(records)-listLimit)
			break
		}
		fmt.Fprintf(&sb, "• **Ksh%.2f** %s [%s] %s\n  `%s` %s\n",
			r.Amount, r.Description, r.Category, stateLabel(r),
			r.Identity(), r.OccurredAt.Format("Jan 2, 2006 3:04 PM"))
	}
	return sb.String()
}

func (b *Bot) deleteCommand(ctx context.Context, args []string) string {
	if len(args) != 1 {
		return "Usage: !delete <id>"
	}
	if err := b.ledger.Delete(ctx, args[0]); err != nil {
		if errors.Is(err, expense.ErrNotFound) {
			return fmt.Sprintf("No expense with id %s", args[0])
		}
		return fmt.Sprintf("Failed to delete expense: %v", err)
	}
	return fmt.Sprintf("Deleted %s", args[0])
}

func (b *Bot) syncCommand(ctx context.Context) string {
	res, err := b.ledger.Reconcile(ctx)
	if err != nil {
		return fmt.Sprintf("Sync incomplete: pushed %d, failed %d, server not refreshed: %v", res.Pushed, res.Failed, err)
	}
	msg := fmt.Sprintf("🔄 Sync complete: pushed %d, failed %d, %d expenses on server", res.Pushed, res.Failed, res.Pulled)
	if res.Dropped > 0 {
		msg += fmt.Sprintf("\n⚠️ %d pending expenses were not accepted by the server and are no longer listed", res.Dropped)
	}
	return msg
}

func (b *Bot) statusCommand() string {
	conn := "offline"
	if b.ledger.Online() {
		conn = "online"
	}
	records := b.ledger.Snapshot()
	return fmt.Sprintf("Connectivity: %s\nExpenses: %d (%d pending)", conn, len(records), countPending(records))
}

func (b *Bot) summaryCommand(args []string) string {
	switch len(args) {
	case 0:
		return b.allCategoriesSummary()
	case 1:
		category := strings.ToLower(args[0])
		if !isValidCategory(category) {
			return invalidCategory(category)
		}
		return b.categorySummary(category)
	default:
		return "Usage: !summary [category]\nExamples:\n!summary - show all categories\n!summary food - show food transactions"
	}
}

func (b *Bot) allCategoriesSummary() string {
	totals := make(map[string]float64)
	for _, r := range b.ledger.Snapshot() {
		totals[strings.ToLower(r.Category)] += r.Amount
	}
	if len(totals) == 0 {
		return "No transactions found."
	}

	var total float64
	var sb strings.Builder
	sb.WriteString("📊 **Transaction Summary**\n\n")
	for _, category := range categories {
		if amount, ok := totals[category]; ok {
			fmt.Fprintf(&sb, "**%s**: Ksh%.2f\n", titleCase(category), amount)
			total += amount
		}
	}
	fmt.Fprintf(&sb, "\n**Total**: Ksh%.2f", total)
	return sb.String()
}

func (b *Bot) categorySummary(category string) string {
	var matching []expense.Record
	for _, r := range b.ledger.Snapshot() {
		if strings.EqualFold(r.Category, category) {
			matching = append(matching, r)
		}
	}
	if len(matching) == 0 {
		return fmt.Sprintf("No transactions found for category: %s", category)
	}

	var total float64
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 **%s Transactions**\n\n", titleCase(category))
	for i, r := range matching {
		total += r.Amount
		if i < listLimit {
			fmt.Fprintf(&sb, "• **Ksh%.2f** %s\n  %s\n\n", r.Amount, r.Description, r.OccurredAt.Format("Jan 2, 2006 3:04 PM"))
		}
	}
	if len(matching) > listLimit {
		fmt.Fprintf(&sb, "... and %d more transactions\n\n", len(matching)-listLimit)
	}
	fmt.Fprintf(&sb, "**Total %s**: Ksh%.2f (%d transactions)", titleCase(category), total, len(matching))
	return sb.String()
}

func stateLabel(r expense.Record) string {
	if r.State == expense.Synced {
		return "synced"
	}
	return "pending"
}

func invalidCategory(category string) string {
	return fmt.Sprintf("Invalid category: %s. \n Use: %s", category, strings.Join(categories, ", "))
}
