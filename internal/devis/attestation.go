package devis

import (
	"strings"
	"time"
)

// AttestationTVA is the regulatory cover required when a reduced VAT
// rate applies. One per devis.
type AttestationTVA struct {
	ID       int64   `json:"id"`
	DevisID  int64   `json:"devis_id"`
	TypeCERFA string `json:"type_cerfa"` // 1301-SD (5.5) or 1300-SD (10)
	TauxTVA  TauxTVA `json:"taux_tva"`

	ClientNom       string `json:"client_nom"`
	ClientAdresse   string `json:"client_adresse"`
	AdresseImmeuble string `json:"adresse_immeuble"`
	NatureTravaux   string `json:"nature_travaux"`
	ImmeubleAcheveDepuisPlusDeDeuxAns bool `json:"immeuble_acheve_plus_deux_ans"`

	Signataire    string     `json:"signataire,omitempty"`
	DateSignature *time.Time `json:"date_signature,omitempty"`

	DateGeneration time.Time `json:"date_generation"`
	CreatedAt      time.Time `json:"created_at"`
	CreatedBy      int64     `json:"created_by"`
}

// NouvelleAttestationTVA derives the CERFA form from the rate; only
// reduced rates are eligible.
func NouvelleAttestationTVA(d *Devis, taux TauxTVA, adresseImmeuble, natureTravaux string, plusDeDeuxAns bool, createdBy int64) (*AttestationTVA, error) {
	if !taux.EstValide() {
		return nil, ErrTauxTVAInvalide(taux.String())
	}
	if !taux.NecessiteAttestation() {
		return nil, ErrTVANonEligible(taux.String())
	}
	a := &AttestationTVA{
		DevisID:         d.ID,
		TypeCERFA:       taux.TypeCERFA(),
		TauxTVA:         taux,
		ClientNom:       d.ClientNom,
		ClientAdresse:   d.ClientAdresse,
		AdresseImmeuble: adresseImmeuble,
		NatureTravaux:   natureTravaux,
		ImmeubleAcheveDepuisPlusDeDeuxAns: plusDeDeuxAns,
		DateGeneration:  time.Now().UTC(),
		CreatedBy:       createdBy,
	}
	if err := a.Valider(); err != nil {
		return nil, err
	}
	return a, nil
}

// Valider checks the generation-time mandatory fields.
func (a *AttestationTVA) Valider() error {
	if strings.TrimSpace(a.ClientNom) == "" {
		return ErrAttestationValidation("nom du client requis")
	}
	if strings.TrimSpace(a.AdresseImmeuble) == "" {
		return ErrAttestationValidation("adresse de l'immeuble requise")
	}
	if strings.TrimSpace(a.NatureTravaux) == "" {
		return ErrAttestationValidation("nature des travaux requise")
	}
	return nil
}

// Signer records the signatory; the attestation becomes opposable.
func (a *AttestationTVA) Signer(signataire string, quand time.Time) error {
	if strings.TrimSpace(signataire) == "" {
		return ErrAttestationValidation("signataire requis")
	}
	t := quand.UTC()
	a.Signataire = signataire
	a.DateSignature = &t
	return nil
}

// EstValide reports whether every mandatory field is present and the
// attestation is signed.
func (a *AttestationTVA) EstValide() bool {
	return a.Valider() == nil && a.Signataire != "" && a.DateSignature != nil
}
