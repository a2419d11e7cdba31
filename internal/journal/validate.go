package journal

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/model"
	"github.com/cleared-dev/ledger/internal/validation"
)

// ValidateLines checks each line on its own: amounts are non-negative with at
// most two decimals and exactly one side is set. Balance is checked at post time.
func ValidateLines(lines []LineInput) []model.ValidationError {
	var errs []model.ValidationError
	for i, l := range lines {
		field := fmt.Sprintf("lines[%d]", i)

		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			errs = append(errs, model.ValidationError{
				Field:   field,
				Message: fmt.Sprintf("amounts must not be negative (debit %s, credit %s)", l.Debit, l.Credit),
			})
			continue
		}

		hasDebit := l.Debit.IsPositive()
		hasCredit := l.Credit.IsPositive()
		switch {
		case hasDebit && hasCredit:
			errs = append(errs, model.ValidationError{Field: field, Message: "line must not have both debit and credit"})
		case !hasDebit && !hasCredit:
			errs = append(errs, model.ValidationError{Field: field, Message: "line amount is zero"})
		}

		if !validation.HasCents(l.Debit) {
			errs = append(errs, model.ValidationError{
				Field:   field + ".debit",
				Message: fmt.Sprintf("%s has more than 2 decimal places", l.Debit),
			})
		}
		if !validation.HasCents(l.Credit) {
			errs = append(errs, model.ValidationError{
				Field:   field + ".credit",
				Message: fmt.Sprintf("%s has more than 2 decimal places", l.Credit),
			})
		}
	}
	return errs
}

// validatePostable enforces what must hold before an entry leaves DRAFT:
// at least one line, equal debit and credit totals, postable accounts only.
func validatePostable(e *model.JournalEntry, accounts map[uuid.UUID]*model.Account) []model.ValidationError {
	var errs []model.ValidationError

	if len(e.Lines) == 0 {
		errs = append(errs, model.ValidationError{Field: "lines", Message: "entry has no lines"})
	}

	debit, credit := e.LineTotals()
	if !debit.Equal(credit) {
		errs = append(errs, model.ValidationError{
			Field:   "lines",
			Message: fmt.Sprintf("debits (%s) != credits (%s)", debit.StringFixed(2), credit.StringFixed(2)),
		})
	}

	seen := make(map[string]bool)
	for _, l := range e.Lines {
		a := accounts[l.AccountID]
		if a == nil || seen[a.Code] {
			continue
		}
		seen[a.Code] = true
		switch {
		case !a.AllowPosting:
			errs = append(errs, model.ValidationError{
				Field:   "lines",
				Message: fmt.Sprintf("account %s does not allow posting", a.Code),
			})
		case a.AccountType != nil && !a.AccountType.AllowPosting:
			errs = append(errs, model.ValidationError{
				Field:   "lines",
				Message: fmt.Sprintf("account %s: type %s does not allow posting", a.Code, a.AccountType.Code),
			})
		}
	}
	return errs
}

func sumLines(lines []LineInput) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}
