// Package chantier declares the creation port consumed by the devis
// conversion flow. The real chantier and budget modules live outside
// the core; an in-process stub backs the demo.
package chantier

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// CreationData describes the work-site to open.
type CreationData struct {
	Nom           string  `json:"nom"`
	Adresse       string  `json:"adresse"`
	Description   string  `json:"description"`
	ConducteurIDs []int64 `json:"conducteur_ids"`
}

// BudgetCreationData seeds the initial budget of the chantier.
type BudgetCreationData struct {
	MontantInitialHT    decimal.Decimal `json:"montant_initial_ht"`
	RetenueGarantiePct  float64         `json:"retenue_garantie_pct"`
	SeuilAlertePct      float64         `json:"seuil_alerte_pct"`      // default 80
	SeuilValidationAchat decimal.Decimal `json:"seuil_validation_achat"` // default 5000
	DevisID             int64           `json:"devis_id"`
}

// LotBudgetaireCreationData transfers one devis lot into the budget.
// The cost unit price falls back to the sale price when the debourse is
// absent, so budgets never start at zero cost.
type LotBudgetaireCreationData struct {
	CodeLot        string          `json:"code_lot"`
	Libelle        string          `json:"libelle"`
	Unite          string          `json:"unite"`          // default "forfait"
	QuantitePrevue decimal.Decimal `json:"quantite_prevue"` // default 1
	PrixUnitaireHT decimal.Decimal `json:"prix_unitaire_ht"`
	Ordre          int             `json:"ordre"`
	PrixVenteHT    decimal.Decimal `json:"prix_vente_ht"`
}

// Resultat is the synchronous output of the creation port.
type Resultat struct {
	ChantierID      int64  `json:"chantier_id"`
	CodeChantier    string `json:"code_chantier"`
	BudgetID        int64  `json:"budget_id"`
	NbLotsTransferes int   `json:"nb_lots_transferes"`
}

// CreationPort opens a chantier with its budget and budget lots in one
// call. Implementations own their transaction; the core treats any
// error as a ConversionError.
type CreationPort interface {
	Creer(ctx context.Context, data CreationData, budget BudgetCreationData, lots []LotBudgetaireCreationData) (*Resultat, error)
}

// Normaliser applies the port defaults on optional fields.
func Normaliser(budget *BudgetCreationData, lots []LotBudgetaireCreationData) []LotBudgetaireCreationData {
	if budget.SeuilAlertePct == 0 {
		budget.SeuilAlertePct = 80
	}
	if budget.SeuilValidationAchat.IsZero() {
		budget.SeuilValidationAchat = decimal.NewFromInt(5000)
	}
	for i := range lots {
		if lots[i].Unite == "" {
			lots[i].Unite = "forfait"
		}
		if lots[i].QuantitePrevue.IsZero() {
			lots[i].QuantitePrevue = decimal.NewFromInt(1)
		}
		if lots[i].PrixUnitaireHT.IsZero() {
			lots[i].PrixUnitaireHT = lots[i].PrixVenteHT
		}
	}
	return lots
}

// StubPort is the in-process implementation used by the demo and the
// tests: deterministic incrementing ids, no storage.
type StubPort struct {
	mu   sync.Mutex
	next int64

	// Echec forces the next call to fail, to exercise the error path.
	Echec error
}

func (p *StubPort) Creer(_ context.Context, data CreationData, budget BudgetCreationData, lots []LotBudgetaireCreationData) (*Resultat, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Echec != nil {
		err := p.Echec
		p.Echec = nil
		return nil, err
	}
	lots = Normaliser(&budget, lots)
	p.next++
	return &Resultat{
		ChantierID:       p.next,
		CodeChantier:     fmt.Sprintf("CH-%03d", p.next),
		BudgetID:         p.next,
		NbLotsTransferes: len(lots),
	}, nil
}
