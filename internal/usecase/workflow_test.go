package usecase

import (
	"context"
	"testing"
	"time"

	"baticore/internal/devis"
)

func TestWorkflow_CheminNominal(t *testing.T) {
	b := nouveauBanc()
	ctx := context.Background()
	d := b.creerDevis(t)
	lot := b.ajouterLot(t, d.ID, "Gros œuvre")
	b.ajouterLignePrix(t, lot.ID, "Fourniture", "1", "1000")

	d = b.envoyer(t, d.ID)
	if d.Statut != devis.StatutEnvoye {
		t.Fatalf("Statut = %s, want ENVOYE", d.Statut)
	}
	if d.DateEnvoi == nil {
		t.Fatal("DateEnvoi nil après envoi")
	}

	if _, err := (MarquerVuUseCase{Devis: b.st.Devis(), Journal: b.st.Journal()}).Execute(ctx, d.ID, devis.RoleCommercial, commercialID); err != nil {
		t.Fatalf("marquer vu: %v", err)
	}
	annuler := AnnulerRelancesUseCase{Relances: b.st.Relances(), Journal: b.st.Journal()}
	if _, err := (AccepterDevisUseCase{Devis: b.st.Devis(), Journal: b.st.Journal(), Annuler: annuler}).Execute(ctx, d.ID, devis.RoleCommercial, commercialID); err != nil {
		t.Fatalf("accepter: %v", err)
	}

	d = b.recharger(t, d.ID)
	if d.Statut != devis.StatutAccepte {
		t.Errorf("Statut = %s, want ACCEPTE", d.Statut)
	}
	if !contient(b.actions(t, d.ID), devis.ActionChangementStatut) {
		t.Error("journal sans changement_statut")
	}
}

func TestWorkflow_TransitionInvalide(t *testing.T) {
	b := nouveauBanc()
	d := b.creerDevis(t)

	// BROUILLON → ENVOYE n'est pas une arête.
	planifier := PlanifierRelancesUseCase{Devis: b.st.Devis(), Relances: b.st.Relances(), Journal: b.st.Journal()}
	_, err := (EnvoyerDevisUseCase{Devis: b.st.Devis(), Journal: b.st.Journal(), Planifier: planifier}).Execute(context.Background(), d.ID, devis.RoleCommercial, commercialID)
	if !devis.IsCode(err, devis.CodeTransitionStatutDevisInvalide) {
		t.Errorf("err = %v, want TRANSITION_STATUT_DEVIS_INVALIDE", err)
	}
}

func TestWorkflow_RoleNonAutorise(t *testing.T) {
	b := nouveauBanc()
	d := b.creerDevis(t)

	_, err := (SoumettreDevisUseCase{Devis: b.st.Devis(), Journal: b.st.Journal()}).Execute(context.Background(), d.ID, devis.RoleCompagnon, 99)
	if !devis.IsCode(err, devis.CodeTransitionNonAutorisee) {
		t.Errorf("err = %v, want TRANSITION_NON_AUTORISEE", err)
	}
}

// Au seuil de 50 000 € HT, la validation échappe au conducteur.
func TestValider_SeuilAdmin(t *testing.T) {
	b := nouveauBanc()
	ctx := context.Background()
	d := b.creerDevis(t)
	lot := b.ajouterLot(t, d.ID, "Gros œuvre")
	b.ajouterLignePrix(t, lot.ID, "Charpente complète", "1", "60000")

	if _, err := (SoumettreDevisUseCase{Devis: b.st.Devis(), Journal: b.st.Journal()}).Execute(ctx, d.ID, devis.RoleCommercial, commercialID); err != nil {
		t.Fatalf("soumettre: %v", err)
	}

	valider := ValiderDevisUseCase{Devis: b.st.Devis(), Journal: b.st.Journal()}
	if _, err := valider.Execute(ctx, d.ID, devis.RoleConducteur, conducteurID); !devis.IsCode(err, devis.CodeTransitionNonAutorisee) {
		t.Errorf("validation conducteur = %v, want TRANSITION_NON_AUTORISEE", err)
	}
	if _, err := valider.Execute(ctx, d.ID, devis.RoleAdmin, adminID); err != nil {
		t.Errorf("validation admin: %v", err)
	}
}

func TestRetournerBrouillon(t *testing.T) {
	b := nouveauBanc()
	ctx := context.Background()
	d := b.creerDevis(t)
	lot := b.ajouterLot(t, d.ID, "Lot")
	b.ajouterLignePrix(t, lot.ID, "Fourniture", "1", "100")

	if _, err := (SoumettreDevisUseCase{Devis: b.st.Devis(), Journal: b.st.Journal()}).Execute(ctx, d.ID, devis.RoleCommercial, commercialID); err != nil {
		t.Fatalf("soumettre: %v", err)
	}
	d2, err := (RetournerBrouillonUseCase{Devis: b.st.Devis(), Journal: b.st.Journal()}).Execute(ctx, d.ID, devis.RoleConducteur, conducteurID)
	if err != nil {
		t.Fatalf("retourner brouillon: %v", err)
	}
	if d2.Statut != devis.StatutBrouillon {
		t.Errorf("Statut = %s, want BROUILLON", d2.Statut)
	}
}

func TestRefuser_AnnuleLesRelances(t *testing.T) {
	b := nouveauBanc()
	ctx := context.Background()
	d := b.creerDevis(t)
	lot := b.ajouterLot(t, d.ID, "Lot")
	b.ajouterLignePrix(t, lot.ID, "Fourniture", "1", "100")
	b.envoyer(t, d.ID)

	annuler := AnnulerRelancesUseCase{Relances: b.st.Relances(), Journal: b.st.Journal()}
	if _, err := (RefuserDevisUseCase{Devis: b.st.Devis(), Journal: b.st.Journal(), Annuler: annuler}).Execute(ctx, d.ID, devis.RoleCommercial, commercialID); err != nil {
		t.Fatalf("refuser: %v", err)
	}

	relances, err := b.st.Relances().FindByDevis(ctx, d.ID)
	if err != nil {
		t.Fatalf("relances: %v", err)
	}
	if len(relances) == 0 {
		t.Fatal("aucune relance planifiée à l'envoi")
	}
	for _, r := range relances {
		if r.Statut != devis.RelanceAnnulee {
			t.Errorf("relance %d au statut %s, want ANNULEE", r.Sequence, r.Statut)
		}
	}
}

// Le balayage d'expiration ne touche que les devis en attente dont la
// validité est dépassée; EXPIRE peut ensuite revenir en négociation.
func TestExpirer_PuisReprise(t *testing.T) {
	b := nouveauBanc()
	ctx := context.Background()
	d := b.creerDevis(t)
	lot := b.ajouterLot(t, d.ID, "Lot")
	b.ajouterLignePrix(t, lot.ID, "Fourniture", "1", "100")
	b.envoyer(t, d.ID)

	// Validité passée d'hier.
	d = b.recharger(t, d.ID)
	d.DateValidite = time.Now().UTC().AddDate(0, 0, -1)
	if err := b.st.Devis().Save(ctx, d); err != nil {
		t.Fatalf("save: %v", err)
	}

	n, err := (ExpirerDevisUseCase{Devis: b.st.Devis(), Journal: b.st.Journal()}).Execute(ctx, devis.RoleAdmin, adminID)
	if err != nil {
		t.Fatalf("expirer: %v", err)
	}
	if n != 1 {
		t.Fatalf("n = %d, want 1", n)
	}
	if statut := b.recharger(t, d.ID).Statut; statut != devis.StatutExpire {
		t.Fatalf("Statut = %s, want EXPIRE", statut)
	}

	if _, err := (NegocierDevisUseCase{Devis: b.st.Devis(), Journal: b.st.Journal()}).Execute(ctx, d.ID, devis.RoleCommercial, commercialID); err != nil {
		t.Fatalf("reprise en négociation: %v", err)
	}
}
