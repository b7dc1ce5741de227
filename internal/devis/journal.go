package devis

import "time"

// Action codes recorded in the devis journal.
const (
	ActionCreation           = "creation"
	ActionModification       = "modification"
	ActionSuppression        = "suppression"
	ActionChangementStatut   = "changement_statut"
	ActionRecalculTotaux     = "recalcul_totaux"
	ActionCreationRevision   = "creation_revision"
	ActionCreationVariante   = "creation_variante"
	ActionFigeVersion        = "fige_version"
	ActionComparaison        = "comparaison"
	ActionSignature          = "signature"
	ActionRevocationSignature = "revocation_signature"
	ActionAttestationTVA     = "attestation_tva"
	ActionConversion         = "conversion"
	ActionConversionEchec    = "conversion_echec"
	ActionPublicationEchec   = "publication_echec"
	ActionImportDPGF         = "import_dpgf"
	ActionRelancePlanifiee   = "relance_planifiee"
	ActionRelanceEnvoyee     = "relance_envoyee"
	ActionRelanceAnnulee     = "relance_annulee"
	ActionFraisChantier      = "frais_chantier"
	ActionApplicationMarges  = "application_marges"
)

// JournalDevis is one append-only audit record. Entries are never
// mutated nor deleted; per-devis order is insertion order.
type JournalDevis struct {
	ID       int64          `json:"id"`
	DevisID  int64          `json:"devis_id"`
	Action   string         `json:"action"`
	AuteurID int64          `json:"auteur_id,omitempty"`
	Details  map[string]any `json:"details,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NouvelleEntreeJournal builds a journal record ready to append.
func NouvelleEntreeJournal(devisID int64, action string, auteurID int64, details map[string]any) *JournalDevis {
	return &JournalDevis{
		DevisID:  devisID,
		Action:   action,
		AuteurID: auteurID,
		Details:  details,
	}
}
