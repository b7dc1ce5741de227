package devis

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TypeDebourse is the closed set of direct-cost kinds. MOE (labor) is
// the only kind carrying a craft and an hourly rate.
type TypeDebourse string

const (
	DebourseMOE           TypeDebourse = "MOE"
	DebourseMateriaux     TypeDebourse = "MATERIAUX"
	DebourseSousTraitance TypeDebourse = "SOUS_TRAITANCE"
	DebourseMateriel      TypeDebourse = "MATERIEL"
	DebourseDeplacement   TypeDebourse = "DEPLACEMENT"
)

// AllTypesDebourse lists the kinds in display order.
func AllTypesDebourse() []TypeDebourse {
	return []TypeDebourse{
		DebourseMOE, DebourseMateriaux, DebourseSousTraitance,
		DebourseMateriel, DebourseDeplacement,
	}
}

// EstValide reports membership in the closed set.
func (t TypeDebourse) EstValide() bool {
	switch t {
	case DebourseMOE, DebourseMateriaux, DebourseSousTraitance,
		DebourseMateriel, DebourseDeplacement:
		return true
	}
	return false
}

// Libelle returns the display label.
func (t TypeDebourse) Libelle() string {
	switch t {
	case DebourseMOE:
		return "Main d'œuvre"
	case DebourseMateriaux:
		return "Matériaux"
	case DebourseSousTraitance:
		return "Sous-traitance"
	case DebourseMateriel:
		return "Matériel"
	case DebourseDeplacement:
		return "Déplacement"
	default:
		return string(t)
	}
}

// DebourseDetail is one direct-cost component of a line. Details are
// replaced wholesale whenever their line is updated.
type DebourseDetail struct {
	ID           int64           `json:"id"`
	LigneID      int64           `json:"ligne_id"`
	Type         TypeDebourse    `json:"type"`
	Designation  string          `json:"designation"`
	Quantite     decimal.Decimal `json:"quantite"`      // scale 4
	PrixUnitaire decimal.Decimal `json:"prix_unitaire"` // scale 4

	// MOE only.
	Metier      TypeMetier      `json:"metier,omitempty"`
	TauxHoraire decimal.Decimal `json:"taux_horaire,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Valider checks the intrinsic fields, including the MOE-only ones.
func (d *DebourseDetail) Valider() error {
	if !d.Type.EstValide() {
		return ErrDevisValidation("type de débours %q inconnu", string(d.Type))
	}
	if strings.TrimSpace(d.Designation) == "" {
		return ErrDevisValidation("désignation du débours requise")
	}
	if d.Quantite.IsNegative() {
		return ErrDevisValidation("quantité de débours négative")
	}
	if d.PrixUnitaire.IsNegative() {
		return ErrDevisValidation("prix unitaire de débours négatif")
	}
	if d.Type == DebourseMOE {
		if d.Metier != "" && !d.Metier.EstValide() {
			return ErrDevisValidation("métier %q inconnu", string(d.Metier))
		}
	} else if d.Metier != "" || !d.TauxHoraire.IsZero() {
		return ErrDevisValidation("métier et taux horaire réservés à la main d'œuvre")
	}
	return nil
}

// Total is quantite × prix unitaire, unrounded (aggregation rounds).
func (d *DebourseDetail) Total() decimal.Decimal {
	return d.Quantite.Mul(d.PrixUnitaire)
}
