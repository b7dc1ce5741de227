package devis

import (
	"time"

	"github.com/shopspring/decimal"
)

// TypeComparaison classifies one line of a devis-to-devis diff.
type TypeComparaison string

const (
	ComparaisonAjout        TypeComparaison = "AJOUT"
	ComparaisonSuppression  TypeComparaison = "SUPPRESSION"
	ComparaisonModification TypeComparaison = "MODIFICATION"
	ComparaisonIdentique    TypeComparaison = "IDENTIQUE"
)

// Comparatif is the persisted diff between two devis. Regenerating the
// same (source, cible) pair replaces the previous record.
type Comparatif struct {
	ID            int64 `json:"id"`
	DevisSourceID int64 `json:"devis_source_id"`
	DevisCibleID  int64 `json:"devis_cible_id"`

	DeltaHT       decimal.Decimal `json:"delta_ht"`
	DeltaTTC      decimal.Decimal `json:"delta_ttc"`
	DeltaMarge    float64         `json:"delta_marge"` // global margin %, cible − source
	DeltaDebourse decimal.Decimal `json:"delta_debourse"`

	NbAjoutees   int `json:"nb_ajoutees"`
	NbSupprimees int `json:"nb_supprimees"`
	NbModifiees  int `json:"nb_modifiees"`
	NbIdentiques int `json:"nb_identiques"`

	Lignes []LigneComparatif `json:"lignes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	CreatedBy int64     `json:"created_by"`
}

// NbTotal is the line count identity over the four kinds.
func (c *Comparatif) NbTotal() int {
	return c.NbAjoutees + c.NbSupprimees + c.NbModifiees + c.NbIdentiques
}

// LigneComparatif is one matched (or unmatched) line of the diff.
type LigneComparatif struct {
	ID           int64           `json:"id"`
	ComparatifID int64           `json:"comparatif_id"`
	Type         TypeComparaison `json:"type"`
	Cle          string          `json:"cle"` // match key
	LotTitre     string          `json:"lot_titre"`
	Designation  string          `json:"designation"`

	DeltaQuantite     decimal.Decimal `json:"delta_quantite"`
	DeltaPrixUnitaire decimal.Decimal `json:"delta_prix_unitaire"`
	DeltaTotalHT      decimal.Decimal `json:"delta_total_ht"`
	DeltaDebourseSec  decimal.Decimal `json:"delta_debourse_sec"`
}

// EstIdentique reports whether all four deltas are zero.
func (l *LigneComparatif) EstIdentique() bool {
	return l.DeltaQuantite.IsZero() && l.DeltaPrixUnitaire.IsZero() &&
		l.DeltaTotalHT.IsZero() && l.DeltaDebourseSec.IsZero()
}
