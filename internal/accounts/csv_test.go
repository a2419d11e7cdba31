package accounts

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledger/internal/model"
)

func TestRoundTrip(t *testing.T) {
	asset := &model.AccountType{Code: "51"}
	parentID := uuid.New()
	accounts := []model.Account{
		{ID: uuid.New(), Code: "5161", Name: "Caisses", AccountType: asset, ParentID: &parentID, Currency: "MAD", OpeningBalance: dec("1000.5"), AllowPosting: true},
		{ID: parentID, Code: "51", Name: "Trésorerie, Actif", AccountType: asset, Currency: "MAD", Description: "Summary"},
	}

	var buf bytes.Buffer
	err := WriteAccounts(&buf, accounts)
	require.NoError(t, err)

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Parents are written first.
	assert.Equal(t, "51", got[0].Code)
	assert.Equal(t, "Trésorerie, Actif", got[0].Name)
	assert.Equal(t, "Summary", got[0].Description)
	require.NotNil(t, got[0].AllowPosting)
	assert.False(t, *got[0].AllowPosting)

	assert.Equal(t, "5161", got[1].Code)
	assert.Equal(t, "51", got[1].TypeCode)
	assert.Equal(t, "51", got[1].ParentCode)
	assert.True(t, dec("1000.50").Equal(got[1].OpeningBalance))
	assert.True(t, *got[1].AllowPosting)
}

func TestUnmarshalAccount_Errors(t *testing.T) {
	tests := []struct {
		name   string
		record []string
	}{
		{"too few fields", []string{"5161", "Caisse"}},
		{"bad amount", []string{"5161", "Caisse", "51", "", "MAD", "abc", "true", ""}},
		{"bad bool", []string{"5161", "Caisse", "51", "", "MAD", "0", "maybe", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalAccount(tt.record)
			assert.Error(t, err)
		})
	}
}

func TestDefaultChart(t *testing.T) {
	chart := defaultChart(t)
	require.NotEmpty(t, chart)

	codes := make(map[string]bool)
	for _, p := range chart {
		assert.NotEmpty(t, p.Name, "account %s missing name", p.Code)
		assert.NotEmpty(t, p.TypeCode, "account %s missing type", p.Code)
		if p.ParentCode != "" {
			assert.True(t, codes[p.ParentCode], "parent %s of %s must come first", p.ParentCode, p.Code)
		}
		codes[p.Code] = true
	}
	assert.True(t, codes["5161"], "expected Caisses (5161)")
	assert.True(t, codes["7111"], "expected Ventes de marchandises (7111)")
	assert.True(t, codes["6701"], "expected Impôts sur les bénéfices (6701)")
}

func TestDefaultChart_UnknownTemplate(t *testing.T) {
	chart, err := DefaultChart("pcg")
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Contains(t, err.Error(), "pcg")
	assert.Nil(t, chart)
}

func TestReadTestdata(t *testing.T) {
	f, err := os.Open("../../testdata/chart-of-accounts.csv")
	require.NoError(t, err)
	defer f.Close()

	params, err := ReadAccounts(f)
	require.NoError(t, err)
	require.Len(t, params, 7)

	r, _, company := newRegistry(t)
	ctx := context.Background()
	created, err := r.Import(ctx, company, params)
	require.NoError(t, err)
	require.Len(t, created, 7)

	bank, err := r.ByCode(ctx, company, "5141")
	require.NoError(t, err)
	assert.Equal(t, 1, bank.Level)
	assert.True(t, bank.AllowPosting)
	assert.True(t, dec("100000").Equal(bank.CurrentBalance))
}

func TestExportImportRoundTrip(t *testing.T) {
	r, _, company := newRegistry(t)
	ctx := context.Background()
	_, err := r.Import(ctx, company, defaultChart(t))
	require.NoError(t, err)

	accts, err := r.List(ctx, company, ListFilter{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, accts))

	params, err := ReadAccounts(&buf)
	require.NoError(t, err)
	require.Len(t, params, len(accts))

	r2, _, other := newRegistry(t)
	_, err = r2.Import(ctx, other, params)
	require.NoError(t, err)

	cash, err := r2.ByCode(ctx, other, "5161")
	require.NoError(t, err)
	assert.True(t, cash.AllowPosting)
	require.NotNil(t, cash.ParentID)
	summary, err := r2.ByCode(ctx, other, "51")
	require.NoError(t, err)
	assert.False(t, summary.AllowPosting)
	assert.Equal(t, summary.ID, *cash.ParentID)
}
