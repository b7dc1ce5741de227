package devis

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TypeFrais qualifies a site expense attached to a devis.
type TypeFrais string

const (
	FraisInstallation  TypeFrais = "INSTALLATION_CHANTIER"
	FraisCompteProrata TypeFrais = "COMPTE_PRORATA"
	FraisEvacuation    TypeFrais = "EVACUATION_DECHETS"
	FraisSecurite      TypeFrais = "SECURITE"
	FraisAutre         TypeFrais = "AUTRE"
)

// EstValide reports membership in the closed set.
func (t TypeFrais) EstValide() bool {
	switch t {
	case FraisInstallation, FraisCompteProrata, FraisEvacuation,
		FraisSecurite, FraisAutre:
		return true
	}
	return false
}

// ModeRepartition says how the expense spreads over the devis.
type ModeRepartition string

const (
	RepartitionGlobale ModeRepartition = "GLOBAL"  // kept at devis level
	RepartitionProrata ModeRepartition = "PRORATA" // allocated by lot HT weight
)

// FraisChantier is a site expense carried by a devis, CRUD until the
// version freezes.
type FraisChantier struct {
	ID      int64     `json:"id"`
	DevisID int64     `json:"devis_id"`
	Type    TypeFrais `json:"type"`
	Libelle string    `json:"libelle"`

	MontantHT   decimal.Decimal `json:"montant_ht"` // scale 2
	Repartition ModeRepartition `json:"repartition"`
	TauxTVA     TauxTVA         `json:"taux_tva"`
	LotID       int64           `json:"lot_id,omitempty"` // optional pinning

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	CreatedBy int64     `json:"created_by"`
}

// Valider checks the intrinsic fields.
func (f *FraisChantier) Valider() error {
	if !f.Type.EstValide() {
		return ErrFraisValidation("type de frais %q inconnu", string(f.Type))
	}
	if strings.TrimSpace(f.Libelle) == "" {
		return ErrFraisValidation("libellé du frais requis")
	}
	if f.MontantHT.IsNegative() {
		return ErrFraisValidation("montant HT du frais négatif")
	}
	if f.Repartition != RepartitionGlobale && f.Repartition != RepartitionProrata {
		return ErrFraisValidation("mode de répartition %q inconnu", string(f.Repartition))
	}
	if !f.TauxTVA.EstValide() {
		return ErrTauxTVAInvalide(f.TauxTVA.String())
	}
	return nil
}
