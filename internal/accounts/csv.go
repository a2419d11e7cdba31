package accounts

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/hierarchy"
	"github.com/cleared-dev/ledger/internal/model"
)

// Header is the CSV header of a chart export.
var Header = []string{"code", "name", "type_code", "parent_code", "currency", "opening_balance", "allow_posting", "description"}

const (
	numFields   = 8
	colCode     = 0
	colName     = 1
	colType     = 2
	colParent   = 3
	colCurrency = 4
	colOpening  = 5
	colPosting  = 6
	colDesc     = 7
)

// ReadAccounts reads a chart CSV into creation parameters, in file order.
func ReadAccounts(r io.Reader) ([]CreateParams, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var params []CreateParams
	for i, rec := range records[1:] {
		p, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		params = append(params, p)
	}
	return params, nil
}

// WriteAccounts writes accounts as a chart CSV, parents before children.
// Accounts must have their type loaded.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	codes := make(map[uuid.UUID]string, len(accounts))
	for _, a := range accounts {
		codes[a.ID] = a.Code
	}

	tree := hierarchy.New(accounts)
	row := 2
	write := func(a model.Account) error {
		parent := ""
		if a.ParentID != nil {
			parent = codes[*a.ParentID]
		}
		if err := cw.Write(MarshalAccount(a, parent)); err != nil {
			return fmt.Errorf("writing row %d: %w", row, err)
		}
		row++
		return nil
	}
	for _, root := range tree.Roots() {
		if err := write(root); err != nil {
			return err
		}
		for a := range tree.Descendants(root.ID) {
			if err := write(a); err != nil {
				return err
			}
		}
	}
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(a model.Account, parentCode string) []string {
	row := make([]string, numFields)
	row[colCode] = a.Code
	row[colName] = a.Name
	if a.AccountType != nil {
		row[colType] = a.AccountType.Code
	}
	row[colParent] = parentCode
	row[colCurrency] = a.Currency
	row[colOpening] = a.OpeningBalance.StringFixed(2)
	row[colPosting] = strconv.FormatBool(a.AllowPosting)
	row[colDesc] = a.Description
	return row
}

// UnmarshalAccount converts a CSV row to creation parameters.
func UnmarshalAccount(record []string) (CreateParams, error) {
	if len(record) != numFields {
		return CreateParams{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	p := CreateParams{
		Code:        record[colCode],
		Name:        record[colName],
		TypeCode:    record[colType],
		ParentCode:  record[colParent],
		Currency:    record[colCurrency],
		Description: record[colDesc],
	}

	if record[colOpening] != "" {
		opening, err := decimal.NewFromString(record[colOpening])
		if err != nil {
			return CreateParams{}, fmt.Errorf("parsing opening_balance %q: %w", record[colOpening], err)
		}
		p.OpeningBalance = opening
	}

	if record[colPosting] != "" {
		allow, err := strconv.ParseBool(record[colPosting])
		if err != nil {
			return CreateParams{}, fmt.Errorf("parsing allow_posting %q: %w", record[colPosting], err)
		}
		p.AllowPosting = &allow
	}
	return p, nil
}

// Import creates every account in params, in order, so parents must come first.
func (r *Registry) Import(ctx context.Context, company uuid.UUID, params []CreateParams) ([]model.Account, error) {
	out := make([]model.Account, 0, len(params))
	for _, p := range params {
		a, err := r.Create(ctx, company, p)
		if err != nil {
			return nil, fmt.Errorf("importing account %s: %w", p.Code, err)
		}
		out = append(out, *a)
	}
	return out, nil
}
