package statements

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/model"
)

// IncomeBucket partitions revenue and expense accounts by the nature of the activity.
type IncomeBucket string

const (
	BucketOperating  IncomeBucket = "OPERATING"
	BucketFinancial  IncomeBucket = "FINANCIAL"
	BucketNonCurrent IncomeBucket = "NON_CURRENT"
	BucketTax        IncomeBucket = "TAX"
)

// ClassifyIncome returns the bucket of an account code:
// 71/61 operating, 73/63 financial, 75/65 non-current, 67 tax.
// Any other code is treated as operating.
func ClassifyIncome(code string) IncomeBucket {
	switch {
	case hasAnyPrefix(code, "73", "63"):
		return BucketFinancial
	case hasAnyPrefix(code, "75", "65"):
		return BucketNonCurrent
	case strings.HasPrefix(code, "67"):
		return BucketTax
	default:
		return BucketOperating
	}
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	return slices.ContainsFunc(prefixes, func(p string) bool { return strings.HasPrefix(s, p) })
}

// IncomeLine is the activity of one account type within a bucket.
// Amount is never negative: a type whose net runs against its category,
// such as sales returns exceeding sales, is listed on the other side.
type IncomeLine struct {
	TypeCode string
	Name     string
	Amount   decimal.Decimal
}

// BucketTotals holds one bucket of the income statement.
type BucketTotals struct {
	Bucket   IncomeBucket
	Revenues []IncomeLine
	Expenses []IncomeLine
	Revenue  decimal.Decimal
	Expense  decimal.Decimal
}

// Result is revenue less expense.
func (b BucketTotals) Result() decimal.Decimal {
	return b.Revenue.Sub(b.Expense)
}

// IncomeStatement is the performance of a company over a period.
type IncomeStatement struct {
	From             time.Time
	To               time.Time
	Operating        BucketTotals
	Financial        BucketTotals
	NonCurrent       BucketTotals
	Tax              BucketTotals
	OperatingResult  decimal.Decimal
	FinancialResult  decimal.Decimal
	CurrentResult    decimal.Decimal
	NonCurrentResult decimal.Decimal
	ResultBeforeTax  decimal.Decimal
	TaxExpense       decimal.Decimal
	NetIncome        decimal.Decimal
	TotalRevenue     decimal.Decimal
	TotalExpense     decimal.Decimal
}

// IncomeStatement aggregates revenue and expense types between from and to,
// both inclusive.
func (g *Generator) IncomeStatement(ctx context.Context, company uuid.UUID, from, to time.Time, includeZero bool) (*IncomeStatement, error) {
	from, to = model.Day(from), model.Day(to)
	if to.Before(from) {
		return nil, model.Invalid("to", "period end %s is before start %s", to.Format(time.DateOnly), from.Format(time.DateOnly))
	}

	is := &IncomeStatement{From: from, To: to}
	buckets := map[IncomeBucket]*BucketTotals{
		BucketOperating:  &is.Operating,
		BucketFinancial:  &is.Financial,
		BucketNonCurrent: &is.NonCurrent,
		BucketTax:        &is.Tax,
	}
	for name, b := range buckets {
		*b = BucketTotals{Bucket: name, Revenue: decimal.Zero, Expense: decimal.Zero}
	}

	err := g.read(ctx, company, func(s *snapshot) error {
		period, err := s.calc.Movements(ctx, company, from, to)
		if err != nil {
			return err
		}

		type key struct {
			bucket IncomeBucket
			typeID uuid.UUID
		}
		amounts := make(map[key]decimal.Decimal)
		var order []key
		for _, a := range s.accounts {
			cat := a.Category()
			if cat != model.CategoryRevenue && cat != model.CategoryExpense {
				continue
			}
			k := key{ClassifyIncome(a.Code), a.AccountTypeID}
			if _, seen := amounts[k]; !seen {
				order = append(order, k)
				amounts[k] = decimal.Zero
			}
			if t, ok := period[a.ID]; ok {
				amounts[k] = amounts[k].Add(categoryNet(cat, t))
			}
		}

		for _, k := range order {
			t, ok := s.types.Get(k.typeID)
			if !ok {
				continue
			}
			amount := amounts[k]
			if amount.IsZero() && !includeZero {
				continue
			}
			revenue := t.Category == model.CategoryRevenue
			if amount.IsNegative() {
				revenue = !revenue
				amount = amount.Neg()
			}
			b := buckets[k.bucket]
			line := IncomeLine{TypeCode: t.Code, Name: t.Name, Amount: amount}
			if revenue {
				b.Revenues = append(b.Revenues, line)
				b.Revenue = b.Revenue.Add(amount)
			} else {
				b.Expenses = append(b.Expenses, line)
				b.Expense = b.Expense.Add(amount)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, b := range buckets {
		sortLines(b.Revenues)
		sortLines(b.Expenses)
		is.TotalRevenue = is.TotalRevenue.Add(b.Revenue)
		is.TotalExpense = is.TotalExpense.Add(b.Expense)
	}
	is.OperatingResult = is.Operating.Result()
	is.FinancialResult = is.Financial.Result()
	is.CurrentResult = is.OperatingResult.Add(is.FinancialResult)
	is.NonCurrentResult = is.NonCurrent.Result()
	is.ResultBeforeTax = is.CurrentResult.Add(is.NonCurrentResult)
	// Tax revenue, such as a prior-year tax refund, reduces the tax charge.
	is.TaxExpense = is.Tax.Expense.Sub(is.Tax.Revenue)
	is.NetIncome = is.ResultBeforeTax.Sub(is.TaxExpense)
	return is, nil
}

func sortLines(lines []IncomeLine) {
	slices.SortFunc(lines, func(a, b IncomeLine) int { return strings.Compare(a.TypeCode, b.TypeCode) })
}
