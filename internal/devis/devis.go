package devis

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Devis is the root aggregate: one commercial quote with its workflow
// state, totals, margin configuration and version lineage. Lots and
// lines live in their own tables and are loaded on demand.
type Devis struct {
	ID     int64  `json:"id"`
	Numero string `json:"numero"` // DEV-YYYY-NNN, plus -R<n> or -<LABEL> suffix

	ClientNom       string `json:"client_nom"`
	ClientAdresse   string `json:"client_adresse"`
	ClientEmail     string `json:"client_email"`
	ClientTelephone string `json:"client_telephone"`
	Objet           string `json:"objet"`

	Statut   StatutDevis     `json:"statut"`
	TotalHT  decimal.Decimal `json:"total_ht"`
	TotalTTC decimal.Decimal `json:"total_ttc"`

	TauxTVADefaut            TauxTVA                 `json:"taux_tva_defaut"`
	MargeGlobale             float64                 `json:"marge_globale"`              // percent
	MargesParType            map[TypeDebourse]float64 `json:"marges_par_type,omitempty"` // percent, overrides MargeGlobale per kind
	CoefficientFraisGeneraux float64                 `json:"coefficient_frais_generaux"` // overhead percent on debourse sec
	RetenueGarantie          RetenueGarantie         `json:"retenue_garantie"`

	DateValidite time.Time  `json:"date_validite"`
	DateEnvoi    *time.Time `json:"date_envoi,omitempty"`

	CommercialID int64 `json:"commercial_id,omitempty"`
	ConducteurID int64 `json:"conducteur_id,omitempty"`
	ChantierID   int64 `json:"chantier_id,omitempty"` // set by conversion

	TypeVersion   TypeVersion `json:"type_version"`
	VersionNumero int         `json:"version_numero"`
	ParentDevisID int64       `json:"parent_devis_id,omitempty"` // original of the family
	VersionFigee  bool        `json:"version_figee"`
	LabelVariante string      `json:"label_variante,omitempty"`

	Options        OptionsPresentation `json:"options"`
	ConfigRelances ConfigRelances      `json:"config_relances"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	CreatedBy int64      `json:"created_by"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy int64      `json:"deleted_by,omitempty"`
}

// Valider checks the intrinsic fields, independent of workflow state.
func (d *Devis) Valider() error {
	if strings.TrimSpace(d.ClientNom) == "" {
		return ErrDevisValidation("nom du client requis")
	}
	if strings.TrimSpace(d.Objet) == "" {
		return ErrDevisValidation("objet du devis requis")
	}
	if !d.TauxTVADefaut.EstValide() {
		return ErrTauxTVAInvalide(d.TauxTVADefaut.String())
	}
	if !d.RetenueGarantie.EstValide() {
		return ErrRetenueInvalide(d.RetenueGarantie.String())
	}
	if d.MargeGlobale < 0 {
		return ErrDevisValidation("marge globale négative")
	}
	if d.CoefficientFraisGeneraux < 0 {
		return ErrDevisValidation("coefficient de frais généraux négatif")
	}
	return d.ConfigRelances.Valider()
}

// PeutEtreModifie reports whether content updates are allowed: the
// statut must be modifiable and the version not frozen.
func (d *Devis) PeutEtreModifie() bool {
	return d.Statut.EstModifiable() && !d.VersionFigee
}

// EstSupprimable reports whether soft deletion is allowed (drafts only).
func (d *Devis) EstSupprimable() bool {
	return d.Statut == StatutBrouillon
}

// EstConverti reports whether a chantier was already created from d.
func (d *Devis) EstConverti() bool {
	return d.Statut == StatutConverti || d.ChantierID > 0
}

// EstExpire reports whether the validity date has passed while the
// devis was waiting on the client.
func (d *Devis) EstExpire(now time.Time) bool {
	if d.Statut != StatutEnvoye && d.Statut != StatutVu {
		return false
	}
	y, m, day := now.UTC().Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	return d.DateValidite.Before(today)
}

// TransitionnerVers mutates the statut along an allowed edge, or
// returns TransitionStatutDevisInvalide.
func (d *Devis) TransitionnerVers(to StatutDevis) error {
	if !d.Statut.PeutTransitionnerVers(to) {
		return ErrTransitionInvalide(d.Statut, to)
	}
	d.Statut = to
	return nil
}

// MarquerConverti records the chantier produced by the conversion flow
// and parks the devis in its operational terminal state.
func (d *Devis) MarquerConverti(chantierID int64) {
	d.ChantierID = chantierID
	d.Statut = StatutConverti
}

// MargePourType returns the per-kind margin override when configured.
func (d *Devis) MargePourType(t TypeDebourse) (float64, bool) {
	if d.MargesParType == nil {
		return 0, false
	}
	m, ok := d.MargesParType[t]
	return m, ok
}

// NumeroBase strips any version suffix: DEV-2026-004-R2 → DEV-2026-004.
func (d *Devis) NumeroBase() string {
	parts := strings.Split(d.Numero, "-")
	if len(parts) <= 3 {
		return d.Numero
	}
	return strings.Join(parts[:3], "-")
}
