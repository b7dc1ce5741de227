package planning

import (
	"fmt"
	"time"

	"baticore/internal/devis"
)

// HeuresParJourHomme converts hours to man-days across the module.
const HeuresParJourHomme = 7.0

// BesoinCharge is a weekly manpower need: a chantier declares it wants
// N hours of a craft on a given week. Unique per (chantier, semaine,
// metier).
type BesoinCharge struct {
	ID         int64            `json:"id"`
	ChantierID int64            `json:"chantier_id"`
	Semaine    Semaine          `json:"semaine"`
	Metier     devis.TypeMetier `json:"metier"`
	Heures     float64          `json:"heures"`
	Note       string           `json:"note,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy int64     `json:"created_by"`
}

// NewBesoinCharge validates and builds a need.
func NewBesoinCharge(chantierID int64, semaine Semaine, metier devis.TypeMetier, heures float64, note string, createdBy int64) (*BesoinCharge, error) {
	b := &BesoinCharge{
		ChantierID: chantierID,
		Semaine:    semaine,
		Metier:     metier,
		Heures:     heures,
		Note:       note,
		CreatedBy:  createdBy,
	}
	if err := b.Valider(); err != nil {
		return nil, err
	}
	return b, nil
}

// Valider checks the entity contract.
func (b *BesoinCharge) Valider() error {
	if b.ChantierID <= 0 {
		return devis.ErrDevisValidation("chantier requis pour un besoin de charge")
	}
	if b.CreatedBy <= 0 {
		return devis.ErrDevisValidation("créateur requis pour un besoin de charge")
	}
	if b.Heures < 0 {
		return devis.ErrDevisValidation("heures de besoin négatives")
	}
	if !b.Metier.EstValide() {
		return devis.ErrDevisValidation("métier %q inconnu", string(b.Metier))
	}
	if b.Semaine.Num < 1 || b.Semaine.Num > 53 {
		return devis.NewError(devis.CodeInvalidSemaineRange, "semaine %s invalide", b.Semaine)
	}
	return nil
}

// JoursHomme converts the need to man-days.
func (b *BesoinCharge) JoursHomme() float64 {
	return b.Heures / HeuresParJourHomme
}

// CodeUnique is the uniqueness key of the triplet.
func (b *BesoinCharge) CodeUnique() string {
	return fmt.Sprintf("%d-%s-%s", b.ChantierID, b.Semaine, b.Metier)
}
