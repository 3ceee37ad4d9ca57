package mpesa

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/NgigiN/walletsync/internal/expense"
)

var ErrNotConfirmation = errors.New("not a valid outgoing M-PESA message")

type ParsedTransaction struct {
	TransactionID string
	Amount        float64
	Recipient     string
	DateTime      time.Time
	Balance       float64
	Cost          float64
}

// Accepted variants:
//   - optional extra spaces/periods, and "PM.New" without a space
//   - "for account ..." inside the recipient
//   - "New M-PESA balance is" or "New business balance is"
//   - optional space before AM/PM, trailing text after the cost
const money = `Ksh[\d,]+(?:\.\d+)?`

var confirmationRe = regexp.MustCompile(`(?i)(\w+)\s+Confirmed\.?\s+(` + money + `)\s+(sent|paid)\s+to\s+(.*?)\s*\.?\s+on\s+(\d{1,2}/\d{1,2}/\d{2})\s+at\s+(\d{1,2}:\d{2}\s?(AM|PM))\.?\s*New\s+(?:M-PESA|business)\s+balance\s+is\s+(` + money + `)\.\s*Transaction\s+cost,?\s*(` + money + `)(?:\.|\b)`)

func ParseMPesaMessage(msg string) (*ParsedTransaction, error) {
	m := confirmationRe.FindStringSubmatch(msg)
	if len(m) < 10 {
		return nil, ErrNotConfirmation
	}

	amount, err := parseKsh(m[2])
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	when, err := parseWhen(m[5], m[6])
	if err != nil {
		return nil, fmt.Errorf("failed to parse date/time: %w", err)
	}
	balance, err := parseKsh(m[8])
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance: %w", err)
	}
	cost, err := parseKsh(m[9])
	if err != nil {
		return nil, fmt.Errorf("failed to parse cost: %w", err)
	}

	recipient := strings.TrimSpace(strings.TrimSuffix(m[4], "."))
	return &ParsedTransaction{
		TransactionID: m[1],
		Amount:        amount,
		Recipient:     strings.Join(strings.Fields(recipient), " "),
		DateTime:      when,
		Balance:       balance,
		Cost:          cost,
	}, nil
}

// Draft turns the confirmation into an expense draft. The reason, when given,
// describes the expense; otherwise the recipient does.
func (p *ParsedTransaction) Draft(category, reason string) expense.Draft {
	desc := strings.TrimSpace(reason)
	if desc == "" {
		desc = p.Recipient
	}
	return expense.Draft{
		Amount:      p.Amount,
		Description: desc,
		Category:    category,
		OccurredAt:  p.DateTime,
	}
}

func parseKsh(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimPrefix(s, "Ksh"), ",", ""), 64)
}

// parseWhen reads "17/9/25" and "6:56 PM" (or "6:56PM") as local wall time.
func parseWhen(date, clock string) (time.Time, error) {
	var day, month, year int
	if _, err := fmt.Sscanf(date, "%d/%d/%d", &day, &month, &year); err != nil {
		return time.Time{}, err
	}
	clock = strings.ToUpper(strings.ReplaceAll(clock, " ", ""))
	clock = clock[:len(clock)-2] + " " + clock[len(clock)-2:]

	return time.Parse("2006-01-02 3:04 PM", fmt.Sprintf("%d-%02d-%02d %s", 2000+year, month, day, clock))
}
