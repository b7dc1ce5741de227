package devis

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LigneDevis is a quantified leaf item under a lot. Monetary fields are
// caches refreshed by the recompute flow; CodeLigne derives from the
// lot code and the line order.
type LigneDevis struct {
	ID        int64  `json:"id"`
	DevisID   int64  `json:"devis_id"`
	LotID     int64  `json:"lot_id"`
	CodeLigne string `json:"code_ligne"` // 1.2.03

	Designation string          `json:"designation"`
	Unite       string          `json:"unite"`
	Quantite    decimal.Decimal `json:"quantite"`         // scale 4
	PrixUnitaireHT decimal.Decimal `json:"prix_unitaire_ht"` // scale 4
	TauxTVA     TauxTVA         `json:"taux_tva"`

	Marge     *float64 `json:"marge,omitempty"` // percent, strongest override
	ArticleID int64    `json:"article_id,omitempty"`
	Ordre     int      `json:"ordre"` // among lot siblings, 0-based
	Verrouille bool    `json:"verrouille"`

	// Caches maintained by the recompute flow.
	MontantHT   decimal.Decimal `json:"montant_ht"`
	MontantTTC  decimal.Decimal `json:"montant_ttc"`
	DebourseSec decimal.Decimal `json:"debourse_sec"`
	PrixRevient decimal.Decimal `json:"prix_revient"`
	NiveauMarge NiveauMarge     `json:"niveau_marge,omitempty"` // winning resolution level

	Debourses []DebourseDetail `json:"debourses,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	CreatedBy int64      `json:"created_by"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy int64      `json:"deleted_by,omitempty"`
}

// Valider checks the intrinsic fields and every debourse detail.
func (l *LigneDevis) Valider() error {
	if strings.TrimSpace(l.Designation) == "" {
		return ErrDevisValidation("désignation de la ligne requise")
	}
	if l.Quantite.IsNegative() {
		return ErrDevisValidation("quantité négative")
	}
	if l.PrixUnitaireHT.IsNegative() {
		return ErrDevisValidation("prix unitaire négatif")
	}
	if !l.TauxTVA.EstValide() {
		return ErrTauxTVAInvalide(l.TauxTVA.String())
	}
	if l.Marge != nil && *l.Marge < 0 {
		return ErrDevisValidation("marge de ligne négative")
	}
	if l.Ordre < 0 {
		return ErrDevisValidation("ordre de ligne négatif")
	}
	for i := range l.Debourses {
		if err := l.Debourses[i].Valider(); err != nil {
			return err
		}
	}
	return nil
}

// ChangerQuantite rejects the change when the line is locked.
func (l *LigneDevis) ChangerQuantite(q decimal.Decimal) error {
	if l.Verrouille {
		return ErrDevisValidation("ligne %s verrouillée, quantité figée", l.CodeLigne)
	}
	if q.IsNegative() {
		return ErrDevisValidation("quantité négative")
	}
	l.Quantite = q
	return nil
}

// CleRapprochement is the comparison match key: the article when one is
// referenced, else lot title + designation.
func (l *LigneDevis) CleRapprochement(lotTitre string) string {
	if l.ArticleID > 0 {
		return "article:" + strconv.FormatInt(l.ArticleID, 10)
	}
	return "lot:" + lotTitre + "|desig:" + l.Designation
}
