// Package pdf declares the document-generation port and the
// rendering-ready DTO the core prepares. Layout belongs to the
// generator; the core fixes the content: full tree, VAT breakdown
// ascending by rate, retention block when positive, legal mention when
// a reduced rate appears — and never any debourse field.
package pdf

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"baticore/internal/devis"
)

// LigneDTO is one line as the client document shows it.
type LigneDTO struct {
	Code        string          `json:"code"`
	Designation string          `json:"designation"`
	Unite       string          `json:"unite"`
	Quantite    decimal.Decimal `json:"quantite"`
	PrixUnitaireHT decimal.Decimal `json:"prix_unitaire_ht"`
	TauxTVA     devis.TauxTVA   `json:"taux_tva"`
	MontantHT   decimal.Decimal `json:"montant_ht"`
}

// LotDTO is one section with its lines and subtotal.
type LotDTO struct {
	Code       string          `json:"code"`
	Titre      string          `json:"titre"`
	SousTotalHT decimal.Decimal `json:"sous_total_ht"`
	Lignes     []LigneDTO      `json:"lignes"`
}

// DevisDetailDTO is the full document content.
type DevisDetailDTO struct {
	Numero       string    `json:"numero"`
	Objet        string    `json:"objet"`
	DateValidite time.Time `json:"date_validite"`

	ClientNom       string `json:"client_nom"`
	ClientAdresse   string `json:"client_adresse"`
	ClientEmail     string `json:"client_email"`
	ClientTelephone string `json:"client_telephone"`

	Lots []LotDTO `json:"lots"`

	TotalHT        decimal.Decimal  `json:"total_ht"`
	VentilationTVA []devis.LigneTVA `json:"ventilation_tva"` // ascending by rate
	TotalTTC       decimal.Decimal  `json:"total_ttc"`

	RetenueGarantiePct float64         `json:"retenue_garantie_pct"`
	MontantRetenue     decimal.Decimal `json:"montant_retenue"`
	NetAPayer          decimal.Decimal `json:"net_a_payer"`

	// MentionLegaleTVA is set when a reduced rate appears: the CERFA
	// attestation reminder printed at the bottom of the document.
	MentionLegaleTVA string `json:"mention_legale_tva,omitempty"`

	Options devis.OptionsPresentation `json:"options"`
}

// Generator renders the DTO to document bytes (A4).
type Generator interface {
	Generate(ctx context.Context, dto *DevisDetailDTO) ([]byte, error)
}
