package devis

import (
	"strings"
	"time"
)

// TypeSignature is how the client produced the acceptance mark.
type TypeSignature string

const (
	SignatureTactile TypeSignature = "TACTILE"
	SignatureUpload  TypeSignature = "UPLOAD"
	SignatureSaisie  TypeSignature = "SAISIE"
)

// EstValide reports membership in the closed set.
func (t TypeSignature) EstValide() bool {
	switch t {
	case SignatureTactile, SignatureUpload, SignatureSaisie:
		return true
	}
	return false
}

// SignatureDevis is the electronic acceptance of a devis. Immutable
// after creation except for revocation.
type SignatureDevis struct {
	ID      int64         `json:"id"`
	DevisID int64         `json:"devis_id"`
	Type    TypeSignature `json:"type"`

	SignataireNom   string `json:"signataire_nom"`
	SignataireEmail string `json:"signataire_email,omitempty"`
	Donnees         string `json:"donnees,omitempty"` // payload (points, image, typed name)
	AdresseIP       string `json:"adresse_ip,omitempty"`
	UserAgent       string `json:"user_agent,omitempty"`

	DateSignature time.Time `json:"date_signature"`
	HashDocument  string    `json:"hash_document"` // SHA-512 hex of the verified snapshot

	Valide          bool       `json:"valide"`
	RevoqueePar     int64      `json:"revoquee_par,omitempty"`
	MotifRevocation string     `json:"motif_revocation,omitempty"`
	DateRevocation  *time.Time `json:"date_revocation,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Valider checks the creation-time fields.
func (s *SignatureDevis) Valider() error {
	if !s.Type.EstValide() {
		return ErrSignatureValidation("type de signature %q inconnu", string(s.Type))
	}
	if strings.TrimSpace(s.SignataireNom) == "" {
		return ErrSignatureValidation("nom du signataire requis")
	}
	if len(s.HashDocument) != 128 {
		return ErrSignatureValidation("hash du document invalide (%d caractères, 128 attendus)", len(s.HashDocument))
	}
	return nil
}

// Revoquer invalidates the signature. The motive is mandatory.
func (s *SignatureDevis) Revoquer(par int64, motif string, quand time.Time) error {
	if strings.TrimSpace(motif) == "" {
		return ErrSignatureValidation("motif de révocation requis")
	}
	if !s.Valide {
		return ErrSignatureValidation("signature déjà révoquée")
	}
	t := quand.UTC()
	s.Valide = false
	s.RevoqueePar = par
	s.MotifRevocation = motif
	s.DateRevocation = &t
	return nil
}
