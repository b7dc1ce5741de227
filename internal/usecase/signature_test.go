package usecase

import (
	"context"
	"testing"

	"baticore/internal/devis"
)

func TestSignerDevis_AcceptationComplete(t *testing.T) {
	b := nouveauBanc()
	ctx := context.Background()
	d := b.creerDevis(t)
	lot := b.ajouterLot(t, d.ID, "Lot")
	b.ajouterLignePrix(t, lot.ID, "Fourniture", "1", "1000")
	b.envoyer(t, d.ID)

	sig := b.signer(t, d.ID)
	if len(sig.HashDocument) != 128 {
		t.Errorf("hash de %d caractères, want 128 (SHA-512 hex)", len(sig.HashDocument))
	}
	if !sig.Valide {
		t.Error("signature non valide à la pose")
	}

	d2 := b.recharger(t, d.ID)
	if d2.Statut != devis.StatutAccepte {
		t.Errorf("Statut = %s, want ACCEPTE", d2.Statut)
	}

	// L'acceptation balaie les relances en attente.
	relances, err := b.st.Relances().FindByDevis(ctx, d.ID)
	if err != nil {
		t.Fatalf("relances: %v", err)
	}
	for _, r := range relances {
		if r.Statut == devis.RelancePlanifiee {
			t.Errorf("relance %d encore planifiée après signature", r.Sequence)
		}
	}
}

func TestSignerDevis_DoubleSignatureRefusee(t *testing.T) {
	b := nouveauBanc()
	d := b.creerDevis(t)
	lot := b.ajouterLot(t, d.ID, "Lot")
	b.ajouterLignePrix(t, lot.ID, "Fourniture", "1", "100")
	b.envoyer(t, d.ID)
	b.signer(t, d.ID)

	uc := SignerDevisUseCase{
		Devis: b.st.Devis(), Signatures: b.st.Signatures(), Journal: b.st.Journal(),
		Annuler: AnnulerRelancesUseCase{Relances: b.st.Relances(), Journal: b.st.Journal()},
	}
	_, err := uc.Execute(context.Background(), d.ID, ParamsSignature{
		Type: devis.SignatureSaisie, SignataireNom: "Encore", Donnees: "X",
	})
	// ACCEPTE n'est de toute façon plus signable.
	if err == nil {
		t.Fatal("seconde signature acceptée")
	}
}

func TestSignerDevis_BrouillonNonSignable(t *testing.T) {
	b := nouveauBanc()
	d := b.creerDevis(t)

	uc := SignerDevisUseCase{
		Devis: b.st.Devis(), Signatures: b.st.Signatures(), Journal: b.st.Journal(),
		Annuler: AnnulerRelancesUseCase{Relances: b.st.Relances(), Journal: b.st.Journal()},
	}
	_, err := uc.Execute(context.Background(), d.ID, ParamsSignature{
		Type: devis.SignatureSaisie, SignataireNom: "Trop tôt", Donnees: "X",
	})
	if !devis.IsCode(err, devis.CodeDevisNonSignable) {
		t.Errorf("err = %v, want DEVIS_NON_SIGNABLE", err)
	}
}

func TestVerifierSignature_DetecteLaModification(t *testing.T) {
	b := nouveauBanc()
	ctx := context.Background()
	d := b.creerDevis(t)
	lot := b.ajouterLot(t, d.ID, "Lot")
	b.ajouterLignePrix(t, lot.ID, "Fourniture", "1", "1000")
	b.envoyer(t, d.ID)
	b.signer(t, d.ID)

	verifier := VerifierSignatureUseCase{Devis: b.st.Devis(), Signatures: b.st.Signatures()}
	v, err := verifier.Execute(ctx, d.ID)
	if err != nil {
		t.Fatalf("vérifier: %v", err)
	}
	if !v.EstSigne || !v.EstValide || !v.HashsConcordent {
		t.Fatalf("vérification initiale = %+v, want tout vrai", v)
	}

	// Altération du document après signature, hors garde-fous.
	altere := b.recharger(t, d.ID)
	altere.Objet = "Objet modifié après coup"
	if err := b.st.Devis().Save(ctx, altere); err != nil {
		t.Fatalf("save: %v", err)
	}

	v, err = verifier.Execute(ctx, d.ID)
	if err != nil {
		t.Fatalf("vérifier: %v", err)
	}
	if v.HashsConcordent {
		t.Error("hashs concordants après altération du document")
	}
}

func TestVerifierSignature_DevisNonSigne(t *testing.T) {
	b := nouveauBanc()
	d := b.creerDevis(t)

	v, err := (VerifierSignatureUseCase{Devis: b.st.Devis(), Signatures: b.st.Signatures()}).Execute(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("vérifier: %v", err)
	}
	if v.EstSigne {
		t.Error("EstSigne = true sans signature")
	}
}

func TestRevoquerSignature_AdminSeulement(t *testing.T) {
	b := nouveauBanc()
	ctx := context.Background()
	d := b.creerDevis(t)
	lot := b.ajouterLot(t, d.ID, "Lot")
	b.ajouterLignePrix(t, lot.ID, "Fourniture", "1", "1000")
	b.envoyer(t, d.ID)
	b.signer(t, d.ID)

	uc := RevoquerSignatureUseCase{Devis: b.st.Devis(), Signatures: b.st.Signatures(), Journal: b.st.Journal()}

	if _, err := uc.Execute(ctx, d.ID, devis.RoleCommercial, "erreur de saisie", commercialID); !devis.IsCode(err, devis.CodeTransitionNonAutorisee) {
		t.Errorf("révocation commerciale = %v, want TRANSITION_NON_AUTORISEE", err)
	}

	sig, err := uc.Execute(ctx, d.ID, devis.RoleAdmin, "erreur de saisie", adminID)
	if err != nil {
		t.Fatalf("révocation admin: %v", err)
	}
	if sig.Valide {
		t.Error("signature encore valide après révocation")
	}
	if statut := b.recharger(t, d.ID).Statut; statut != devis.StatutEnNegociation {
		t.Errorf("Statut = %s, want EN_NEGOCIATION", statut)
	}
	if !contient(b.actions(t, d.ID), devis.ActionRevocationSignature) {
		t.Error("journal sans revocation_signature")
	}
}

// Une nouvelle signature après révocation écrase la ligne révoquée;
// le journal doit garder la trace du remplacement.
func TestSignerDevis_ApresRevocationJournaliseLeRemplacement(t *testing.T) {
	b := nouveauBanc()
	ctx := context.Background()
	d := b.creerDevis(t)
	lot := b.ajouterLot(t, d.ID, "Lot")
	b.ajouterLignePrix(t, lot.ID, "Fourniture", "1", "1000")
	b.envoyer(t, d.ID)
	b.signer(t, d.ID)

	revoquer := RevoquerSignatureUseCase{Devis: b.st.Devis(), Signatures: b.st.Signatures(), Journal: b.st.Journal()}
	if _, err := revoquer.Execute(ctx, d.ID, devis.RoleAdmin, "erreur de saisie", adminID); err != nil {
		t.Fatalf("révoquer: %v", err)
	}

	sig := b.signer(t, d.ID)
	if !sig.Valide {
		t.Error("seconde signature non valide")
	}
	if statut := b.recharger(t, d.ID).Statut; statut != devis.StatutAccepte {
		t.Errorf("Statut = %s, want ACCEPTE", statut)
	}

	entrees, err := b.st.Journal().FindByDevis(ctx, d.ID)
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	trouve := false
	for _, e := range entrees {
		if e.Action == devis.ActionSignature && e.Details["remplace_signature_revoquee"] == true {
			trouve = true
		}
	}
	if !trouve {
		t.Error("journal sans trace du remplacement de la signature révoquée")
	}
}
