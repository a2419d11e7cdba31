package accounttypes

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cleared-dev/ledger/internal/model"
)

// TemplateCGNC is the Moroccan general accounting code.
const TemplateCGNC = "cgnc"

// DefaultTypes returns the account classification for a chart template.
// Parents always precede their children.
func DefaultTypes(template string) ([]CreateParams, error) {
	switch template {
	case TemplateCGNC:
		return cgncTypes(), nil
	default:
		return nil, model.Invalid("template", "unknown chart template %q", template)
	}
}

// Seed creates the given types in order.
func (r *Registry) Seed(ctx context.Context, company uuid.UUID, params []CreateParams) ([]model.AccountType, error) {
	out := make([]model.AccountType, 0, len(params))
	for _, p := range params {
		t, err := r.Create(ctx, company, p)
		if err != nil {
			return nil, fmt.Errorf("seeding account type %s: %w", p.Code, err)
		}
		out = append(out, *t)
	}
	return out, nil
}

// cgncTypes follows the classes of the Moroccan general accounting code.
func cgncTypes() []CreateParams {
	asset := func(code, name, local, parent string) CreateParams {
		return CreateParams{Code: code, Name: name, LocalName: local, Category: model.CategoryAsset, NormalBalance: model.NormalDebit, ParentCode: parent}
	}
	liability := func(code, name, local, parent string) CreateParams {
		return CreateParams{Code: code, Name: name, LocalName: local, Category: model.CategoryLiability, NormalBalance: model.NormalCredit, ParentCode: parent}
	}
	expense := func(code, name, local, parent string) CreateParams {
		return CreateParams{Code: code, Name: name, LocalName: local, Category: model.CategoryExpense, NormalBalance: model.NormalDebit, ParentCode: parent}
	}
	revenue := func(code, name, local, parent string) CreateParams {
		return CreateParams{Code: code, Name: name, LocalName: local, Category: model.CategoryRevenue, NormalBalance: model.NormalCredit, ParentCode: parent}
	}

	return []CreateParams{
		{Code: "11", Name: "Equity", LocalName: "Capitaux propres", Category: model.CategoryEquity, NormalBalance: model.NormalCredit},
		liability("14", "Long-term debt", "Dettes de financement", ""),
		asset("2", "Fixed assets", "Actif immobilisé", ""),
		asset("23", "Tangible fixed assets", "Immobilisations corporelles", "2"),
		asset("3", "Current assets", "Actif circulant", ""),
		asset("34", "Receivables", "Créances de l'actif circulant", "3"),
		liability("4", "Current liabilities", "Passif circulant", ""),
		liability("44", "Current payables", "Dettes du passif circulant", "4"),
		asset("5", "Cash", "Trésorerie", ""),
		asset("51", "Cash and bank", "Trésorerie - Actif", "5"),
		expense("6", "Expenses", "Charges", ""),
		expense("61", "Operating expenses", "Charges d'exploitation", "6"),
		expense("63", "Financial expenses", "Charges financières", "6"),
		expense("65", "Non-current expenses", "Charges non courantes", "6"),
		expense("67", "Income tax", "Impôts sur les résultats", "6"),
		revenue("7", "Revenue", "Produits", ""),
		revenue("71", "Operating revenue", "Produits d'exploitation", "7"),
		revenue("73", "Financial revenue", "Produits financiers", "7"),
		revenue("75", "Non-current revenue", "Produits non courants", "7"),
	}
}
