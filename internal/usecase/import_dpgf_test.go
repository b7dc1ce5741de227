package usecase

import (
	"context"
	"strings"
	"testing"

	"baticore/internal/devis"
	"baticore/internal/dpgf"
)

var mappingStandard = dpgf.Mapping{
	ColonneLot: 0, ColonneDescription: 1, ColonneUnite: 2,
	ColonneQuantite: 3, ColonnePrixUnitaire: 4, LigneDebut: 2,
}

func (b *banc) importeur() ImporterDPGFUseCase {
	return ImporterDPGFUseCase{
		Devis: b.st.Devis(), Lots: b.st.Lots(), Lignes: b.st.Lignes(),
		Journal: b.st.Journal(), Decoder: dpgf.CSVDecoder{}, Num: b.num, Calcul: b.calcul,
	}
}

func csvDPGF(lignes ...string) []byte {
	return []byte(strings.Join(append([]string{"Lot;Désignation;Unité;Quantité;PU"}, lignes...), "\n"))
}

func TestImporterDPGF_GroupeParLot(t *testing.T) {
	b := nouveauBanc()
	ctx := context.Background()
	d := b.creerDevis(t)

	res, err := b.importeur().Execute(ctx, d.ID, csvDPGF(
		"01;Terrassement général;m3;120;18,50",
		"01;Évacuation des terres;m3;120;9,00",
		"02;Dallage béton;m²;85;42,00",
		";Nettoyage de fin de chantier;ff;1;350",
	), mappingStandard, commercialID)
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	// 01, 02 et le lot DIVERS des rangs sans code.
	if res.NbLotsCreees != 3 || res.NbLignesCreees != 4 {
		t.Fatalf("résultat = %d lots / %d lignes, want 3/4", res.NbLotsCreees, res.NbLignesCreees)
	}
	if len(res.Erreurs) != 0 {
		t.Fatalf("rejets = %v, want aucun", res.Erreurs)
	}

	lots, err := b.st.Lots().FindByDevis(ctx, d.ID)
	if err != nil {
		t.Fatalf("lots: %v", err)
	}
	titres := make([]string, len(lots))
	for i, lot := range lots {
		titres[i] = lot.Titre
	}
	if titres[0] != "01" || titres[1] != "02" || titres[2] != dpgf.LotParDefaut {
		t.Errorf("titres = %v, want [01 02 DIVERS] en ordre de première vue", titres)
	}

	lignes, err := b.st.Lignes().FindByDevis(ctx, d.ID)
	if err != nil {
		t.Fatalf("lignes: %v", err)
	}
	if lignes[0].Unite != "M3" || lignes[0].CodeLigne != "1.01" {
		t.Errorf("ligne 1 = %s %s, want M3 1.01", lignes[0].Unite, lignes[0].CodeLigne)
	}

	// 120×18.50 + 120×9 + 85×42 + 350 = 7220.00
	if !res.Totaux.TotalHT.Equal(dec("7220.00")) {
		t.Errorf("TotalHT = %s, want 7220.00", res.Totaux.TotalHT)
	}
}

func TestImporterDPGF_RejetsPartiels(t *testing.T) {
	b := nouveauBanc()
	d := b.creerDevis(t)

	res, err := b.importeur().Execute(context.Background(), d.ID, csvDPGF(
		"01;Terrassement;m3;120;18,50",
		"01;;m3;10;5",
		"01;Quantité illisible;m3;abc;5",
	), mappingStandard, commercialID)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.NbLignesCreees != 1 {
		t.Errorf("lignes créées = %d, want 1", res.NbLignesCreees)
	}
	if len(res.Erreurs) != 2 {
		t.Fatalf("rejets = %d, want 2", len(res.Erreurs))
	}
	// Les rejets pointent la position dans le fichier.
	if res.Erreurs[0].NumeroLigne != 3 || res.Erreurs[1].NumeroLigne != 4 {
		t.Errorf("positions = %d/%d, want 3/4", res.Erreurs[0].NumeroLigne, res.Erreurs[1].NumeroLigne)
	}
}

func TestImporterDPGF_AucuneLigneExploitable(t *testing.T) {
	b := nouveauBanc()
	d := b.creerDevis(t)

	_, err := b.importeur().Execute(context.Background(), d.ID, csvDPGF(
		"01;;m3;10;5",
	), mappingStandard, commercialID)
	if !devis.IsCode(err, devis.CodeDPGFImport) {
		t.Errorf("err = %v, want DPGF_IMPORT", err)
	}
}

func TestImporterDPGF_ApresLotsExistants(t *testing.T) {
	b := nouveauBanc()
	ctx := context.Background()
	d := b.creerDevis(t)
	b.ajouterLot(t, d.ID, "Existant")

	if _, err := b.importeur().Execute(ctx, d.ID, csvDPGF(
		"01;Terrassement;m3;10;5",
	), mappingStandard, commercialID); err != nil {
		t.Fatalf("import: %v", err)
	}

	lots, err := b.st.Lots().FindByDevis(ctx, d.ID)
	if err != nil {
		t.Fatalf("lots: %v", err)
	}
	if len(lots) != 2 {
		t.Fatalf("lots = %d, want 2", len(lots))
	}
	// Le lot importé vient après l'existant.
	if lots[0].Titre != "Existant" || lots[1].CodeLot != "2" {
		t.Errorf("ordre = %s puis code %s, want Existant puis 2", lots[0].Titre, lots[1].CodeLot)
	}
}

func TestImporterDPGF_FichierIllisible(t *testing.T) {
	b := nouveauBanc()
	d := b.creerDevis(t)

	_, err := b.importeur().Execute(context.Background(), d.ID, []byte("   "), mappingStandard, commercialID)
	if !devis.IsCode(err, devis.CodeDPGFFormat) {
		t.Errorf("err = %v, want DPGF_FORMAT", err)
	}
}
