package devis

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Article is a price-library entry referenced by devis lines.
type Article struct {
	ID          int64           `json:"id"`
	Code        string          `json:"code"` // unique
	Designation string          `json:"designation"`
	Unite       string          `json:"unite"`
	PrixUnitaireHT decimal.Decimal `json:"prix_unitaire_ht"` // scale 4
	Categorie   string          `json:"categorie,omitempty"`
	Composants  string          `json:"composants,omitempty"` // JSON, opaque here
	Actif       bool            `json:"actif"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	CreatedBy int64      `json:"created_by"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy int64      `json:"deleted_by,omitempty"`
}

// Valider checks the intrinsic fields.
func (a *Article) Valider() error {
	if strings.TrimSpace(a.Code) == "" {
		return ErrDevisValidation("code article requis")
	}
	if strings.TrimSpace(a.Designation) == "" {
		return ErrDevisValidation("désignation de l'article requise")
	}
	if a.PrixUnitaireHT.IsNegative() {
		return ErrDevisValidation("prix unitaire de l'article négatif")
	}
	return nil
}

// ChangerPrix updates the unit price; inactive articles keep their
// price frozen for history.
func (a *Article) ChangerPrix(prix decimal.Decimal) error {
	if !a.Actif {
		return ErrDevisValidation("article %s inactif, prix figé", a.Code)
	}
	if prix.IsNegative() {
		return ErrDevisValidation("prix unitaire de l'article négatif")
	}
	a.PrixUnitaireHT = prix
	return nil
}
