package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"baticore/internal/devis"
	"baticore/internal/planning"
)

func ouvrir(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("ouvrir la base: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func devisExemple(numero string) *devis.Devis {
	envoi := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	return &devis.Devis{
		Numero:          numero,
		ClientNom:       "M. et Mme Garnier",
		ClientAdresse:   "12 rue des Lilas, Nantes",
		ClientEmail:     "garnier@example.org",
		Objet:           "Rénovation salle de bain",
		Statut:          devis.StatutEnvoye,
		TotalHT:         d("1234.56"),
		TotalTTC:        d("1481.47"),
		TauxTVADefaut:   devis.TVA10,
		MargeGlobale:    15,
		MargesParType:   map[devis.TypeDebourse]float64{devis.DebourseMateriaux: 18},
		CoefficientFraisGeneraux: 12,
		RetenueGarantie: devis.RetenueGarantie(5),
		DateValidite:    time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		DateEnvoi:       &envoi,
		CommercialID:    11,
		ConducteurID:    12,
		TypeVersion:     devis.VersionInitiale,
		VersionNumero:   1,
		ConfigRelances:  devis.ConfigRelancesDefaut(),
		CreatedBy:       11,
	}
}

func TestDevis_AllerRetour(t *testing.T) {
	db := ouvrir(t)
	ctx := context.Background()

	src := devisExemple("DEV-2026-001")
	if err := db.Devis().Save(ctx, src); err != nil {
		t.Fatalf("save: %v", err)
	}
	if src.ID == 0 {
		t.Fatal("ID non affecté à l'insertion")
	}

	lu, err := db.Devis().FindByID(ctx, src.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if lu.Numero != src.Numero || lu.ClientNom != src.ClientNom || lu.Statut != devis.StatutEnvoye {
		t.Errorf("entête = %s / %s / %s", lu.Numero, lu.ClientNom, lu.Statut)
	}
	if !lu.TotalHT.Equal(src.TotalHT) || !lu.TotalTTC.Equal(src.TotalTTC) {
		t.Errorf("totaux = %s / %s, want %s / %s", lu.TotalHT, lu.TotalTTC, src.TotalHT, src.TotalTTC)
	}
	if lu.TauxTVADefaut != devis.TVA10 || lu.RetenueGarantie != devis.RetenueGarantie(5) {
		t.Errorf("taux/retenue = %v / %v", lu.TauxTVADefaut, lu.RetenueGarantie)
	}
	if lu.MargesParType[devis.DebourseMateriaux] != 18 {
		t.Errorf("MargesParType = %v, want matériaux 18", lu.MargesParType)
	}
	if lu.DateEnvoi == nil || !lu.DateEnvoi.Equal(*src.DateEnvoi) {
		t.Errorf("DateEnvoi = %v, want %v", lu.DateEnvoi, src.DateEnvoi)
	}
	if lu.ConfigRelances.TypeDefaut != devis.RelanceEmail || len(lu.ConfigRelances.DelaisJours) != 3 {
		t.Errorf("ConfigRelances = %+v", lu.ConfigRelances)
	}
	// Les options vides sont normalisées au modèle standard.
	if lu.Options.Template != devis.TemplateStandard {
		t.Errorf("Template = %q, want standard", lu.Options.Template)
	}

	parNumero, err := db.Devis().FindByNumero(ctx, "DEV-2026-001")
	if err != nil || parNumero.ID != src.ID {
		t.Errorf("FindByNumero = %v / %v", parNumero, err)
	}
}

func TestDevis_SuppressionDouce(t *testing.T) {
	db := ouvrir(t)
	ctx := context.Background()

	d1 := devisExemple("DEV-2026-001")
	if err := db.Devis().Save(ctx, d1); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := db.Devis().Delete(ctx, d1.ID, 13); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Devis().FindByID(ctx, d1.ID); !devis.IsCode(err, devis.CodeDevisNotFound) {
		t.Errorf("find après suppression = %v, want DEVIS_NOT_FOUND", err)
	}
	if n, _ := db.Devis().Count(ctx); n != 0 {
		t.Errorf("Count = %d, want 0 après suppression douce", n)
	}
	if err := db.Devis().Delete(ctx, d1.ID, 13); !devis.IsCode(err, devis.CodeDevisNotFound) {
		t.Errorf("double suppression = %v, want DEVIS_NOT_FOUND", err)
	}
}

func TestDevis_SequenceEtVersions(t *testing.T) {
	db := ouvrir(t)
	ctx := context.Background()

	origine := devisExemple("DEV-2026-001")
	if err := db.Devis().Save(ctx, origine); err != nil {
		t.Fatalf("save origine: %v", err)
	}
	deuxieme := devisExemple("DEV-2026-002")
	if err := db.Devis().Save(ctx, deuxieme); err != nil {
		t.Fatalf("save deuxième: %v", err)
	}

	// Une révision rattachée à l'origine ne consomme pas la séquence.
	revision := devisExemple("DEV-2026-001-R2")
	revision.TypeVersion = devis.VersionRevision
	revision.VersionNumero = 2
	revision.ParentDevisID = origine.ID
	if err := db.Devis().Save(ctx, revision); err != nil {
		t.Fatalf("save révision: %v", err)
	}

	seq, err := db.Devis().NextNumeroSequence(ctx, time.Now().UTC().Year())
	if err != nil {
		t.Fatalf("séquence: %v", err)
	}
	if seq != 3 {
		t.Errorf("NextNumeroSequence = %d, want 3 (les versions ne comptent pas)", seq)
	}

	// La famille se retrouve depuis n'importe quel membre.
	famille, err := db.Devis().FindVersions(ctx, revision.ID)
	if err != nil {
		t.Fatalf("versions: %v", err)
	}
	if len(famille) != 2 {
		t.Fatalf("famille = %d membres, want 2", len(famille))
	}

	next, err := db.Devis().NextVersionNumber(ctx, origine.ID)
	if err != nil {
		t.Fatalf("next version: %v", err)
	}
	if next != 3 {
		t.Errorf("NextVersionNumber = %d, want 3", next)
	}
}

func TestLigne_RemplacementDesDebourses(t *testing.T) {
	db := ouvrir(t)
	ctx := context.Background()

	dv := devisExemple("DEV-2026-001")
	if err := db.Devis().Save(ctx, dv); err != nil {
		t.Fatalf("save devis: %v", err)
	}
	lot := &devis.Lot{DevisID: dv.ID, CodeLot: "1", Titre: "Gros œuvre", CreatedBy: 11}
	if err := db.Lots().Save(ctx, lot); err != nil {
		t.Fatalf("save lot: %v", err)
	}

	ligne := &devis.LigneDevis{
		DevisID: dv.ID, LotID: lot.ID, CodeLigne: "1.01",
		Designation: "Mur de refend", Unite: "M2",
		Quantite: d("10"), TauxTVA: devis.TVA10, CreatedBy: 11,
		Debourses: []devis.DebourseDetail{
			{Type: devis.DebourseMateriaux, Designation: "Parpaings", Quantite: d("2"), PrixUnitaire: d("50")},
			devis.NouveauDebourseMOE("Pose", d("4"), d("30"), devis.MetierMacon),
		},
	}
	if err := db.Lignes().Save(ctx, ligne); err != nil {
		t.Fatalf("save ligne: %v", err)
	}

	lue, err := db.Lignes().FindByID(ctx, ligne.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(lue.Debourses) != 2 {
		t.Fatalf("débours = %d, want 2", len(lue.Debourses))
	}

	// Une réécriture remplace les détails en bloc.
	lue.Debourses = []devis.DebourseDetail{
		{Type: devis.DebourseMateriel, Designation: "Étaiement", Quantite: d("1"), PrixUnitaire: d("80")},
	}
	for i := range lue.Debourses {
		lue.Debourses[i].ID = 0
	}
	if err := db.Lignes().Save(ctx, lue); err != nil {
		t.Fatalf("resave: %v", err)
	}
	relue, err := db.Lignes().FindByID(ctx, ligne.ID)
	if err != nil {
		t.Fatalf("relire: %v", err)
	}
	if len(relue.Debourses) != 1 || relue.Debourses[0].Designation != "Étaiement" {
		t.Errorf("débours après remplacement = %+v", relue.Debourses)
	}
}

func TestRelances_Dues(t *testing.T) {
	db := ouvrir(t)
	ctx := context.Background()
	now := time.Now().UTC()

	dv := devisExemple("DEV-2026-001")
	if err := db.Devis().Save(ctx, dv); err != nil {
		t.Fatalf("save devis: %v", err)
	}

	echue := &devis.RelanceDevis{DevisID: dv.ID, Sequence: 1, Type: devis.RelanceEmail,
		Statut: devis.RelancePlanifiee, DatePrevue: now.AddDate(0, 0, -1)}
	future := &devis.RelanceDevis{DevisID: dv.ID, Sequence: 2, Type: devis.RelanceEmail,
		Statut: devis.RelancePlanifiee, DatePrevue: now.AddDate(0, 0, 7)}
	envoyee := &devis.RelanceDevis{DevisID: dv.ID, Sequence: 3, Type: devis.RelanceEmail,
		Statut: devis.RelanceEnvoyee, DatePrevue: now.AddDate(0, 0, -3)}
	for _, rel := range []*devis.RelanceDevis{echue, future, envoyee} {
		if err := db.Relances().Save(ctx, rel); err != nil {
			t.Fatalf("save relance %d: %v", rel.Sequence, err)
		}
	}

	dues, err := db.Relances().FindDues(ctx, now)
	if err != nil {
		t.Fatalf("dues: %v", err)
	}
	if len(dues) != 1 || dues[0].ID != echue.ID {
		t.Fatalf("dues = %+v, want la seule relance échue planifiée", dues)
	}
}

func TestBesoin_TripletUnique(t *testing.T) {
	db := ouvrir(t)
	ctx := context.Background()
	s10 := planning.Semaine{Annee: 2026, Num: 10}

	b1, err := planning.NewBesoinCharge(1, s10, devis.MetierPlombier, 35, "", 7)
	if err != nil {
		t.Fatalf("besoin: %v", err)
	}
	if err := db.Besoins().Save(ctx, b1); err != nil {
		t.Fatalf("save: %v", err)
	}

	doublon, _ := planning.NewBesoinCharge(1, s10, devis.MetierPlombier, 14, "", 7)
	if err := db.Besoins().Save(ctx, doublon); !devis.IsCode(err, devis.CodeBesoinAlreadyExists) {
		t.Errorf("doublon = %v, want BESOIN_ALREADY_EXISTS", err)
	}

	// La mise à jour du même enregistrement reste permise.
	b1.Heures = 42
	if err := db.Besoins().Save(ctx, b1); err != nil {
		t.Fatalf("update: %v", err)
	}
	relu, err := db.Besoins().FindByID(ctx, b1.ID)
	if err != nil || relu.Heures != 42 {
		t.Errorf("relecture = %+v / %v", relu, err)
	}

	// La plage englobe le passage d'année.
	fin2026, _ := planning.NewBesoinCharge(2, planning.Semaine{Annee: 2026, Num: 53}, devis.MetierCarreleur, 21, "", 7)
	if err := db.Besoins().Save(ctx, fin2026); err != nil {
		t.Fatalf("save fin 2026: %v", err)
	}
	plage, err := db.Besoins().FindByRange(ctx, planning.Semaine{Annee: 2026, Num: 52}, planning.Semaine{Annee: 2027, Num: 2})
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(plage) != 1 || plage[0].ID != fin2026.ID {
		t.Errorf("plage = %+v, want le seul besoin de S53", plage)
	}

	if err := db.Besoins().Delete(ctx, b1.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := db.Besoins().Delete(ctx, b1.ID); err == nil {
		t.Error("double suppression acceptée")
	}
}

func TestComparatif_RemplaceLaPaire(t *testing.T) {
	db := ouvrir(t)
	ctx := context.Background()

	premier := &devis.Comparatif{
		DevisSourceID: 1, DevisCibleID: 2,
		DeltaHT: d("120.00"), NbModifiees: 1,
		Lignes: []devis.LigneComparatif{{
			Type: devis.ComparaisonModification, Cle: "lot:A|desig:B",
			LotTitre: "A", Designation: "B", DeltaTotalHT: d("120.00"),
		}},
		CreatedBy: 11,
	}
	if err := db.Comparatifs().Replace(ctx, premier); err != nil {
		t.Fatalf("replace: %v", err)
	}

	second := &devis.Comparatif{
		DevisSourceID: 1, DevisCibleID: 2,
		DeltaHT: d("80.00"), NbIdentiques: 2,
		CreatedBy: 11,
	}
	if err := db.Comparatifs().Replace(ctx, second); err != nil {
		t.Fatalf("replace 2: %v", err)
	}

	garde, err := db.Comparatifs().FindByPair(ctx, 1, 2)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if garde.ID != second.ID || !garde.DeltaHT.Equal(d("80.00")) || garde.NbIdentiques != 2 {
		t.Errorf("comparatif conservé = %+v, want le second", garde)
	}
	if len(garde.Lignes) != 0 {
		t.Errorf("lignes du premier encore présentes: %+v", garde.Lignes)
	}
}
