package usecase

import (
	"context"
	"testing"

	"baticore/internal/devis"
)

func (b *banc) ajouterFrais(t *testing.T, devisID int64, params ParamsFrais) *devis.FraisChantier {
	t.Helper()
	uc := AjouterFraisChantierUseCase{Devis: b.st.Devis(), Lots: b.st.Lots(), Frais: b.st.Frais(), Journal: b.st.Journal()}
	f, err := uc.Execute(context.Background(), devisID, params, commercialID)
	if err != nil {
		t.Fatalf("ajouter frais: %v", err)
	}
	return f
}

func TestFraisChantier_RepartitionProrata(t *testing.T) {
	b := nouveauBanc()
	ctx := context.Background()
	d := b.creerDevis(t)
	gros := b.ajouterLot(t, d.ID, "Gros œuvre")
	second := b.ajouterLot(t, d.ID, "Second œuvre")
	b.ajouterLignePrix(t, gros.ID, "Maçonnerie", "1", "600")
	b.ajouterLignePrix(t, second.ID, "Cloisons", "1", "400")

	b.ajouterFrais(t, d.ID, ParamsFrais{
		Type: devis.FraisInstallation, Libelle: "Base vie",
		MontantHT: dec("100"), Repartition: devis.RepartitionProrata, TauxTVA: 20,
	})
	b.ajouterFrais(t, d.ID, ParamsFrais{
		Type: devis.FraisSecurite, Libelle: "Clôture",
		MontantHT: dec("50"), Repartition: devis.RepartitionGlobale, TauxTVA: 20,
	})

	vue, err := (ListerFraisChantierUseCase{Devis: b.st.Devis(), Lots: b.st.Lots(), Frais: b.st.Frais()}).Execute(ctx, d.ID)
	if err != nil {
		t.Fatalf("lister: %v", err)
	}
	if len(vue.Frais) != 2 {
		t.Fatalf("frais = %d, want 2", len(vue.Frais))
	}
	// Prorata du poids HT: 60/40.
	if !vue.Allocation.ParLot[gros.ID].Equal(dec("60.00")) {
		t.Errorf("part gros œuvre = %s, want 60.00", vue.Allocation.ParLot[gros.ID])
	}
	if !vue.Allocation.ParLot[second.ID].Equal(dec("40.00")) {
		t.Errorf("part second œuvre = %s, want 40.00", vue.Allocation.ParLot[second.ID])
	}
	if !vue.Allocation.Globale.Equal(dec("50.00")) {
		t.Errorf("globale = %s, want 50.00", vue.Allocation.Globale)
	}
}

func TestFraisChantier_LotHorsDevisRefuse(t *testing.T) {
	b := nouveauBanc()
	d := b.creerDevis(t)
	autre := b.creerDevis(t)
	lotAutre := b.ajouterLot(t, autre.ID, "Ailleurs")

	uc := AjouterFraisChantierUseCase{Devis: b.st.Devis(), Lots: b.st.Lots(), Frais: b.st.Frais(), Journal: b.st.Journal()}
	_, err := uc.Execute(context.Background(), d.ID, ParamsFrais{
		Type: devis.FraisAutre, Libelle: "Benne",
		MontantHT: dec("30"), Repartition: devis.RepartitionProrata, TauxTVA: 20, LotID: lotAutre.ID,
	}, commercialID)
	if !devis.IsCode(err, devis.CodeFraisChantierValidation) {
		t.Errorf("err = %v, want FRAIS_CHANTIER_VALIDATION", err)
	}
}

// Les frais restent modifiables après l'envoi: seul le figement bloque.
func TestFraisChantier_ModifiablesApresEnvoi(t *testing.T) {
	b := nouveauBanc()
	d := b.creerDevis(t)
	lot := b.ajouterLot(t, d.ID, "Lot")
	b.ajouterLignePrix(t, lot.ID, "Fourniture", "1", "100")
	b.envoyer(t, d.ID)

	b.ajouterFrais(t, d.ID, ParamsFrais{
		Type: devis.FraisEvacuation, Libelle: "Benne gravats",
		MontantHT: dec("180"), Repartition: devis.RepartitionProrata, TauxTVA: 20,
	})

	if _, err := (FigerVersionUseCase{Devis: b.st.Devis(), Journal: b.st.Journal()}).Execute(context.Background(), d.ID, devis.RoleAdmin, adminID); err != nil {
		t.Fatalf("figer: %v", err)
	}
	uc := AjouterFraisChantierUseCase{Devis: b.st.Devis(), Lots: b.st.Lots(), Frais: b.st.Frais(), Journal: b.st.Journal()}
	_, err := uc.Execute(context.Background(), d.ID, ParamsFrais{
		Type: devis.FraisAutre, Libelle: "Trop tard",
		MontantHT: dec("10"), Repartition: devis.RepartitionGlobale, TauxTVA: 20,
	}, commercialID)
	if !devis.IsCode(err, devis.CodeVersionFigee) {
		t.Errorf("err = %v, want VERSION_FIGEE", err)
	}
}

// --- Marges ---

func TestAppliquerMarges_CascadeDesNiveaux(t *testing.T) {
	b := nouveauBanc()
	ctx := context.Background()
	d := b.creerDevis(t)
	lot := b.ajouterLot(t, d.ID, "Gros œuvre")
	ligne := b.ajouterLigneDebourse(t, lot.ID) // marge globale 15 → 283.36

	uc := AppliquerMargesUseCase{Devis: b.st.Devis(), Lots: b.st.Lots(), Lignes: b.st.Lignes(), Journal: b.st.Journal(), Calcul: b.calcul}

	// Une marge de lot prime sur la globale: 246.40 × 1.20 = 295.68.
	margeLot := 20.0
	totaux, err := uc.Execute(ctx, d.ID, ParamsMarges{ParLot: map[int64]*float64{lot.ID: &margeLot}}, commercialID)
	if err != nil {
		t.Fatalf("appliquer lot: %v", err)
	}
	if !totaux.TotalHT.Equal(dec("295.68")) {
		t.Errorf("TotalHT = %s, want 295.68", totaux.TotalHT)
	}

	// Une marge de ligne prime sur tout: 246.40 × 1.10 = 271.04.
	margeLigne := 10.0
	totaux, err = uc.Execute(ctx, d.ID, ParamsMarges{ParLigne: map[int64]*float64{ligne.ID: &margeLigne}}, commercialID)
	if err != nil {
		t.Fatalf("appliquer ligne: %v", err)
	}
	if !totaux.TotalHT.Equal(dec("271.04")) {
		t.Errorf("TotalHT = %s, want 271.04", totaux.TotalHT)
	}
	rechargee, err := b.st.Lignes().FindByID(ctx, ligne.ID)
	if err != nil {
		t.Fatalf("ligne: %v", err)
	}
	if rechargee.NiveauMarge != devis.NiveauLigne {
		t.Errorf("NiveauMarge = %s, want ligne", rechargee.NiveauMarge)
	}

	// Effacer l'override de ligne rend la main au lot.
	totaux, err = uc.Execute(ctx, d.ID, ParamsMarges{ParLigne: map[int64]*float64{ligne.ID: nil}}, commercialID)
	if err != nil {
		t.Fatalf("effacer: %v", err)
	}
	if !totaux.TotalHT.Equal(dec("295.68")) {
		t.Errorf("TotalHT après effacement = %s, want 295.68", totaux.TotalHT)
	}
}

func TestAppliquerMarges_NegativeRefusee(t *testing.T) {
	b := nouveauBanc()
	d := b.creerDevis(t)

	marge := -5.0
	uc := AppliquerMargesUseCase{Devis: b.st.Devis(), Lots: b.st.Lots(), Lignes: b.st.Lignes(), Journal: b.st.Journal(), Calcul: b.calcul}
	_, err := uc.Execute(context.Background(), d.ID, ParamsMarges{MargeGlobale: &marge}, commercialID)
	if !devis.IsCode(err, devis.CodeDevisValidation) {
		t.Errorf("err = %v, want DEVIS_VALIDATION", err)
	}
}

func TestAnalyserMarges_MargeEffective(t *testing.T) {
	b := nouveauBanc()
	d := b.creerDevis(t)
	lot := b.ajouterLot(t, d.ID, "Gros œuvre")
	b.ajouterLigneDebourse(t, lot.ID)

	analyse, err := (AnalyserMargesUseCase{Devis: b.st.Devis(), Lots: b.st.Lots(), Lignes: b.st.Lignes()}).Execute(context.Background(), d.ID)
	if err != nil {
		t.Fatalf("analyser: %v", err)
	}
	if len(analyse.Lots) != 1 || len(analyse.Lots[0].Lignes) != 1 {
		t.Fatalf("analyse = %+v, want 1 lot / 1 ligne", analyse)
	}
	// 283.36 / 246.40 − 1 = 15 %.
	if !analyse.MargeEffective.Equal(dec("15.00")) {
		t.Errorf("marge effective = %s, want 15.00", analyse.MargeEffective)
	}
	if !analyse.Lots[0].Lignes[0].MargeEffective.Equal(dec("15.00")) {
		t.Errorf("marge ligne = %s, want 15.00", analyse.Lots[0].Lignes[0].MargeEffective)
	}
}
