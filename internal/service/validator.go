package service

import (
	"strings"
	"time"

	"tally/internal/currency"
	"tally/internal/models"
)

// ContributionInput is one member's row in a transaction draft. Drafts carry
// contributions as a list, not a map, so duplicate member references are a
// detectable input error rather than a silent overwrite.
type ContributionInput struct {
	MemberID    string
	AmountCents int64
	Weight      float64
}

// TransactionDraft is an unvalidated transaction as it arrives from the
// boundary layer.
type TransactionDraft struct {
	Name          string
	Category      string
	Currency      string
	Type          models.ExpenseType
	Date          string
	ExchangeRate  float64
	Contributions []ContributionInput
	IsTemplate    bool
}

// validateTransaction applies the entry rules in order (first failure wins)
// and returns a normalized transaction ready for storage and aggregation:
// strings trimmed, date defaulted to today, exchange rate stamped from the
// rate provider when the draft leaves it unset.
func (s *LedgerService) validateTransaction(ledger *models.Ledger, members []models.Member, draft *TransactionDraft) (*models.Transaction, *models.ValidationError) {
	if ledger == nil {
		return nil, models.Validationf(models.RuleLedgerExists, "ledger does not exist")
	}

	code := strings.ToUpper(strings.TrimSpace(draft.Currency))
	if !currency.Supported(code) {
		return nil, models.Validationf(models.RuleCurrency, "unsupported currency %q", draft.Currency)
	}

	if !draft.Type.Valid() {
		return nil, models.Validationf(models.RuleExpenseType, "unknown expense type %q", draft.Type)
	}

	name := strings.TrimSpace(draft.Name)
	category := strings.TrimSpace(draft.Category)
	if name == "" && category == "" {
		return nil, models.Validationf(models.RuleNameOrCategory, "transaction needs a name or a category")
	}

	if len(draft.Contributions) == 0 {
		return nil, models.Validationf(models.RuleContributions, "transaction has no contributions")
	}
	known := make(map[string]bool, len(members))
	for _, m := range members {
		known[m.ID] = true
	}
	seen := make(map[string]bool, len(draft.Contributions))
	for _, c := range draft.Contributions {
		if !known[c.MemberID] {
			return nil, models.Validationf(models.RuleContributions, "member %q is not in the ledger", c.MemberID)
		}
		if seen[c.MemberID] {
			return nil, models.Validationf(models.RuleContributions, "member %q appears twice in contributions", c.MemberID)
		}
		seen[c.MemberID] = true
	}

	for _, c := range draft.Contributions {
		if c.AmountCents < 0 {
			return nil, models.Validationf(models.RuleAmounts, "member %q has negative paid amount %d", c.MemberID, c.AmountCents)
		}
	}

	hasImpact := false
	for _, c := range draft.Contributions {
		if c.Weight != 0 || c.AmountCents != 0 {
			hasImpact = true
			break
		}
	}
	if !hasImpact {
		return nil, models.Validationf(models.RuleImpact, "transaction has no financial impact: all weights and amounts are zero")
	}

	date := strings.TrimSpace(draft.Date)
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, models.Validationf(models.RuleDate, "invalid date %q, want YYYY-MM-DD", draft.Date)
	}

	rate := draft.ExchangeRate
	if rate == 0 {
		r, err := s.rates.Rate(code, ledger.Currency)
		if err != nil {
			return nil, models.Validationf(models.RuleCurrency, "no exchange rate from %s to %s", code, ledger.Currency)
		}
		rate = r
	}

	contributions := make(map[string]models.Contribution, len(draft.Contributions))
	for _, c := range draft.Contributions {
		contributions[c.MemberID] = models.Contribution{AmountCents: c.AmountCents, Weight: c.Weight}
	}

	return &models.Transaction{
		LedgerID:      ledger.ID,
		Name:          name,
		Category:      category,
		Currency:      code,
		Type:          draft.Type,
		Date:          date,
		ExchangeRate:  rate,
		Contributions: contributions,
		IsTemplate:    draft.IsTemplate,
	}, nil
}
