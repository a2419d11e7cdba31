package accounts

import (
	"github.com/cleared-dev/ledger/internal/accounttypes"
	"github.com/cleared-dev/ledger/internal/model"
)

// DefaultChart returns the default chart of accounts for a template.
// Parents always precede their children. Type codes refer to
// accounttypes.DefaultTypes of the same template.
func DefaultChart(template string) ([]CreateParams, error) {
	switch template {
	case accounttypes.TemplateCGNC:
		return cgncChart(), nil
	default:
		return nil, model.Invalid("template", "unknown chart template %q", template)
	}
}

func cgncChart() []CreateParams {
	no := false
	yes := true
	return []CreateParams{
		{Code: "1111", Name: "Capital social", TypeCode: "11", Description: "Share capital"},
		{Code: "1481", Name: "Emprunts auprès des établissements de crédit", TypeCode: "14"},
		{Code: "2340", Name: "Matériel de transport", TypeCode: "23"},
		{Code: "3421", Name: "Clients", TypeCode: "34", Description: "Trade receivables"},
		{Code: "3455", Name: "État - TVA récupérable", TypeCode: "34", Description: "Deductible VAT"},
		{Code: "4411", Name: "Fournisseurs", TypeCode: "44", Description: "Trade payables"},
		{Code: "4455", Name: "État - TVA facturée", TypeCode: "44", Description: "Collected VAT"},
		{Code: "51", Name: "Trésorerie - Actif", TypeCode: "51", AllowPosting: &no, Description: "Cash and bank summary"},
		{Code: "5141", Name: "Banques", TypeCode: "51", ParentCode: "51", AllowPosting: &yes},
		{Code: "5161", Name: "Caisses", TypeCode: "51", ParentCode: "51", AllowPosting: &yes},
		{Code: "6111", Name: "Achats de marchandises", TypeCode: "61"},
		{Code: "6131", Name: "Locations et charges locatives", TypeCode: "61"},
		{Code: "6171", Name: "Rémunérations du personnel", TypeCode: "61"},
		{Code: "6311", Name: "Intérêts des emprunts et dettes", TypeCode: "63"},
		{Code: "6581", Name: "Pénalités et amendes", TypeCode: "65"},
		{Code: "6701", Name: "Impôts sur les bénéfices", TypeCode: "67"},
		{Code: "7111", Name: "Ventes de marchandises", TypeCode: "71"},
		{Code: "7121", Name: "Ventes de biens et services produits", TypeCode: "71"},
		{Code: "7381", Name: "Intérêts et produits assimilés", TypeCode: "73"},
		{Code: "7581", Name: "Autres produits non courants", TypeCode: "75"},
	}
}
