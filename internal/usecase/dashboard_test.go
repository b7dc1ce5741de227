package usecase

import (
	"context"
	"testing"
	"time"

	"baticore/internal/devis"
)

func TestTableauBord_Pipeline(t *testing.T) {
	b := nouveauBanc()
	ctx := context.Background()
	annuler := AnnulerRelancesUseCase{Relances: b.st.Relances(), Journal: b.st.Journal()}

	envoye := b.creerDevis(t)
	lot := b.ajouterLot(t, envoye.ID, "Lot")
	b.ajouterLignePrix(t, lot.ID, "Fourniture", "1", "100")
	b.envoyer(t, envoye.ID)

	gagne := b.creerDevis(t)
	lot = b.ajouterLot(t, gagne.ID, "Lot")
	b.ajouterLignePrix(t, lot.ID, "Fourniture", "1", "250")
	b.envoyer(t, gagne.ID)
	if _, err := (AccepterDevisUseCase{Devis: b.st.Devis(), Journal: b.st.Journal(), Annuler: annuler}).Execute(ctx, gagne.ID, devis.RoleCommercial, commercialID); err != nil {
		t.Fatalf("accepter: %v", err)
	}

	perdu := b.creerDevis(t)
	lot = b.ajouterLot(t, perdu.ID, "Lot")
	b.ajouterLignePrix(t, lot.ID, "Fourniture", "1", "80")
	b.envoyer(t, perdu.ID)
	if _, err := (RefuserDevisUseCase{Devis: b.st.Devis(), Journal: b.st.Journal(), Annuler: annuler}).Execute(ctx, perdu.ID, devis.RoleCommercial, commercialID); err != nil {
		t.Fatalf("refuser: %v", err)
	}

	b.creerDevis(t) // brouillon, hors encours

	tb, err := (TableauBordDevisUseCase{Devis: b.st.Devis()}).Execute(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("tableau de bord: %v", err)
	}
	if tb.Total != 4 {
		t.Errorf("Total = %d, want 4", tb.Total)
	}
	if !tb.EnCoursHT.Equal(dec("100.00")) {
		t.Errorf("EnCoursHT = %s, want 100.00", tb.EnCoursHT)
	}
	if !tb.GagneHT.Equal(dec("250.00")) {
		t.Errorf("GagneHT = %s, want 250.00", tb.GagneHT)
	}
	// 1 gagné sur 2 conclus.
	if tb.TauxConversion != 50 {
		t.Errorf("TauxConversion = %v, want 50", tb.TauxConversion)
	}
	if len(tb.ExpirentSous7J) != 0 {
		t.Errorf("ExpirentSous7J = %d devis, want 0 (validité à 30 jours)", len(tb.ExpirentSous7J))
	}
}

func TestTableauBord_ExpirationProche(t *testing.T) {
	b := nouveauBanc()
	ctx := context.Background()
	d := b.creerDevis(t)
	lot := b.ajouterLot(t, d.ID, "Lot")
	b.ajouterLignePrix(t, lot.ID, "Fourniture", "1", "100")
	b.envoyer(t, d.ID)

	// Validité ramenée à 3 jours.
	proche := b.recharger(t, d.ID)
	proche.DateValidite = time.Now().UTC().AddDate(0, 0, 3)
	if err := b.st.Devis().Save(ctx, proche); err != nil {
		t.Fatalf("save: %v", err)
	}

	tb, err := (TableauBordDevisUseCase{Devis: b.st.Devis()}).Execute(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("tableau de bord: %v", err)
	}
	if len(tb.ExpirentSous7J) != 1 || tb.ExpirentSous7J[0].ID != d.ID {
		t.Fatalf("ExpirentSous7J = %+v, want le devis %d", tb.ExpirentSous7J, d.ID)
	}
}
