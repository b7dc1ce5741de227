package devis

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Lot is a section of a devis. Lots nest through ParentID (0 for a
// root lot); CodeLot is recomputed from the tree by NumerotationService
// and cached here.
type Lot struct {
	ID       int64  `json:"id"`
	DevisID  int64  `json:"devis_id"`
	ParentID int64  `json:"parent_id,omitempty"`
	CodeLot  string `json:"code_lot"` // 1, 1.2, 2.1.3
	Titre    string `json:"titre"`
	Ordre    int    `json:"ordre"` // among siblings, 0-based

	Marge *float64 `json:"marge,omitempty"` // percent, overrides devis margins

	TotalHT       decimal.Decimal `json:"total_ht"`
	TotalTTC      decimal.Decimal `json:"total_ttc"`
	TotalDebourse decimal.Decimal `json:"total_debourse"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	CreatedBy int64      `json:"created_by"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy int64      `json:"deleted_by,omitempty"`
}

// Valider checks the intrinsic fields.
func (l *Lot) Valider() error {
	if strings.TrimSpace(l.Titre) == "" {
		return ErrDevisValidation("titre du lot requis")
	}
	if l.Ordre < 0 {
		return ErrDevisValidation("ordre du lot négatif")
	}
	if l.Marge != nil && *l.Marge < 0 {
		return ErrDevisValidation("marge du lot négative")
	}
	return nil
}

// Profondeur counts tree levels from the cached code: "2.1.3" → 3.
func (l *Lot) Profondeur() int {
	if l.CodeLot == "" {
		return 0
	}
	return strings.Count(l.CodeLot, ".") + 1
}
