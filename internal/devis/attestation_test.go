package devis

import (
	"testing"
	"time"
)

func TestNouvelleAttestationTVA_CERFADepuisTaux(t *testing.T) {
	d := devisMinimal()
	d.ID = 1

	a, err := NouvelleAttestationTVA(d, TVA55, "3 impasse des Lilas", "Isolation thermique", true, 1)
	if err != nil {
		t.Fatalf("NouvelleAttestationTVA: %v", err)
	}
	if a.TypeCERFA != "1301-SD" {
		t.Errorf("CERFA = %q, want 1301-SD", a.TypeCERFA)
	}

	a, err = NouvelleAttestationTVA(d, TVA10, "3 impasse des Lilas", "Rénovation cuisine", true, 1)
	if err != nil {
		t.Fatalf("NouvelleAttestationTVA: %v", err)
	}
	if a.TypeCERFA != "1300-SD" {
		t.Errorf("CERFA = %q, want 1300-SD", a.TypeCERFA)
	}
}

func TestNouvelleAttestationTVA_TauxRefuses(t *testing.T) {
	d := devisMinimal()

	_, err := NouvelleAttestationTVA(d, TVA20, "3 impasse des Lilas", "Travaux neufs", false, 1)
	if err == nil {
		t.Fatal("taux 20 accepté")
	}
	if !IsCode(err, CodeTVANonEligible) {
		t.Errorf("code = %s, want TVA_NON_ELIGIBLE", CodeOf(err))
	}

	_, err = NouvelleAttestationTVA(d, TauxTVA(19.6), "3 impasse des Lilas", "Travaux", false, 1)
	if err == nil {
		t.Fatal("taux hors ensemble accepté")
	}
	if !IsCode(err, CodeTauxTVAInvalide) {
		t.Errorf("code = %s, want TAUX_TVA_INVALIDE", CodeOf(err))
	}
}

func TestAttestation_SignatureEtValidite(t *testing.T) {
	d := devisMinimal()
	a, err := NouvelleAttestationTVA(d, TVA10, "3 impasse des Lilas", "Rénovation", true, 1)
	if err != nil {
		t.Fatalf("NouvelleAttestationTVA: %v", err)
	}
	if a.EstValide() {
		t.Error("attestation non signée déclarée valide")
	}

	if err := a.Signer("", time.Now()); err == nil {
		t.Error("signataire vide accepté")
	}
	if err := a.Signer("M. Dupont", time.Now()); err != nil {
		t.Fatalf("Signer: %v", err)
	}
	if !a.EstValide() {
		t.Error("attestation signée et complète déclarée invalide")
	}
}

func TestSignature_Revocation(t *testing.T) {
	s := &SignatureDevis{
		DevisID:       1,
		Type:          SignatureTactile,
		SignataireNom: "Mme Martin",
		HashDocument:  HashDocument(devisSigne()),
		DateSignature: time.Now().UTC(),
		Valide:        true,
	}
	if err := s.Valider(); err != nil {
		t.Fatalf("signature valide rejetée: %v", err)
	}

	if err := s.Revoquer(1, "", time.Now()); err == nil {
		t.Error("révocation sans motif acceptée")
	}
	if err := s.Revoquer(1, "erreur de montant", time.Now()); err != nil {
		t.Fatalf("Revoquer: %v", err)
	}
	if s.Valide {
		t.Error("signature encore valide après révocation")
	}
	if err := s.Revoquer(1, "encore", time.Now()); err == nil {
		t.Error("double révocation acceptée")
	}
}

func TestSignature_HashObligatoire(t *testing.T) {
	s := &SignatureDevis{Type: SignatureSaisie, SignataireNom: "X", HashDocument: "abc"}
	if err := s.Valider(); err == nil {
		t.Error("hash court accepté")
	}
}

func TestConfigRelances_Validation(t *testing.T) {
	ok := ConfigRelancesDefaut()
	if err := ok.Valider(); err != nil {
		t.Errorf("config par défaut rejetée: %v", err)
	}

	cases := []ConfigRelances{
		{DelaisJours: []int{0}, TypeDefaut: RelanceEmail},
		{DelaisJours: []int{-3}, TypeDefaut: RelanceEmail},
		{DelaisJours: []int{7, 7}, TypeDefaut: RelanceEmail},
		{DelaisJours: []int{14, 7}, TypeDefaut: RelanceEmail},
		{DelaisJours: []int{7}, TypeDefaut: TypeRelance("fax")},
	}
	for i, c := range cases {
		if err := c.Valider(); err == nil {
			t.Errorf("cas %d: config invalide acceptée", i)
		}
	}
}

func TestRelance_CycleDeVie(t *testing.T) {
	r := &RelanceDevis{
		DevisID:    1,
		Sequence:   1,
		Type:       RelanceEmail,
		Statut:     RelancePlanifiee,
		DatePrevue: time.Now().UTC().Add(-time.Hour),
	}
	if err := r.Valider(); err != nil {
		t.Fatalf("relance valide rejetée: %v", err)
	}
	if !r.EstDue(time.Now()) {
		t.Error("relance échue non due")
	}

	if err := r.Envoyer(time.Now()); err != nil {
		t.Fatalf("Envoyer: %v", err)
	}
	if r.Statut != RelanceEnvoyee || r.DateEnvoi == nil {
		t.Error("envoi non enregistré")
	}
	if err := r.Envoyer(time.Now()); err == nil {
		t.Error("double envoi accepté")
	}
	if r.Annuler() {
		t.Error("relance envoyée annulable")
	}

	p := &RelanceDevis{DevisID: 1, Sequence: 2, Type: RelanceEmail, Statut: RelancePlanifiee, DatePrevue: time.Now().Add(24 * time.Hour)}
	if p.EstDue(time.Now()) {
		t.Error("relance future due")
	}
	if !p.Annuler() {
		t.Error("relance planifiée non annulable")
	}
	if p.Statut != RelanceAnnulee {
		t.Errorf("statut = %s, want ANNULEE", p.Statut)
	}
}
