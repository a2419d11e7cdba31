package journal

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledger/internal/model"
)

// LinesHeader is the CSV header of an entry's line file.
var LinesHeader = []string{"account_code", "description", "debit", "credit", "reference"}

// ExportHeader is the CSV header of a journal export.
var ExportHeader = []string{"entry_number", "date", "journal", "state", "account_code", "description", "debit", "credit", "reference"}

const (
	dateFormat = "2006-01-02"

	numLineFields = 5
	colAccount    = 0
	colDesc       = 1
	colDebit      = 2
	colCredit     = 3
	colRef        = 4
)

// ReadLines reads entry lines from a CSV reader with a LinesHeader row.
func ReadLines(r io.Reader) ([]LineInput, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numLineFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading lines CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var lines []LineInput
	for i, rec := range records[1:] {
		l, err := UnmarshalLine(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		lines = append(lines, l)
	}
	return lines, nil
}

// UnmarshalLine converts a CSV row to a LineInput. Empty amounts read as zero.
func UnmarshalLine(record []string) (LineInput, error) {
	if len(record) != numLineFields {
		return LineInput{}, fmt.Errorf("expected %d fields, got %d", numLineFields, len(record))
	}

	var debit, credit decimal.Decimal
	var err error
	if record[colDebit] != "" {
		debit, err = decimal.NewFromString(record[colDebit])
		if err != nil {
			return LineInput{}, fmt.Errorf("parsing debit %q: %w", record[colDebit], err)
		}
	}
	if record[colCredit] != "" {
		credit, err = decimal.NewFromString(record[colCredit])
		if err != nil {
			return LineInput{}, fmt.Errorf("parsing credit %q: %w", record[colCredit], err)
		}
	}

	return LineInput{
		AccountCode: record[colAccount],
		Description: record[colDesc],
		Debit:       debit,
		Credit:      credit,
		Reference:   record[colRef],
	}, nil
}

// WriteEntries writes one row per line of each entry, with the header.
// Lines must have their account loaded; journals maps journal IDs to codes.
func WriteEntries(w io.Writer, entries []model.JournalEntry, journals map[uuid.UUID]string) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := 2
	for _, e := range entries {
		for _, l := range e.Lines {
			if err := cw.Write(MarshalLine(e, l, journals[e.JournalID])); err != nil {
				return fmt.Errorf("writing row %d: %w", row, err)
			}
			row++
		}
	}
	return cw.Error()
}

// MarshalLine converts one line of e to an export row.
func MarshalLine(e model.JournalEntry, l model.JournalEntryLine, journalCode string) []string {
	code := ""
	if l.Account != nil {
		code = l.Account.Code
	}
	var debit, credit string
	if !l.DebitAmount.IsZero() {
		debit = l.DebitAmount.StringFixed(2)
	}
	if !l.CreditAmount.IsZero() {
		credit = l.CreditAmount.StringFixed(2)
	}
	return []string{
		e.EntryNumber,
		e.Date.Format(dateFormat),
		journalCode,
		string(e.State),
		code,
		l.Description,
		debit,
		credit,
		l.Reference,
	}
}
