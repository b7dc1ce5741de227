package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"baticore/internal/chantier"
	"baticore/internal/config"
	"baticore/internal/devis"
	"baticore/internal/dpgf"
	"baticore/internal/event"
	"baticore/internal/logger"
	"baticore/internal/notify"
	"baticore/internal/pdf"
	"baticore/internal/planning"
	"baticore/internal/storage"
	"baticore/internal/storage/memory"
	"baticore/internal/storage/sqlite"
	"baticore/internal/usecase"
)

var version = "dev"

// backend is the slice of the storage layer the demo wires. Both the
// SQLite and the in-memory store satisfy it.
type backend interface {
	Devis() storage.DevisRepository
	Lots() storage.LotRepository
	Lignes() storage.LigneRepository
	Articles() storage.ArticleRepository
	Journal() storage.JournalRepository
	Attestations() storage.AttestationRepository
	Signatures() storage.SignatureRepository
	Relances() storage.RelanceRepository
	Frais() storage.FraisRepository
	Comparatifs() storage.ComparatifRepository
	Besoins() storage.BesoinChargeRepository
}

func main() {
	dbPath := flag.String("db", "", "SQLite database path (empty: in-memory store)")
	flag.Parse()

	logger.Banner(version)

	var st backend
	if *dbPath != "" {
		database, err := sqlite.Open(*dbPath)
		if err != nil {
			logger.Error("DB", fmt.Sprintf("Failed to open database: %v", err))
			os.Exit(1)
		}
		defer database.Close()
		st = database
	} else {
		logger.Info("DB", "In-memory store")
		st = memory.New()
	}

	if err := run(context.Background(), st, config.Default()); err != nil {
		logger.Error("DEMO", err.Error())
		os.Exit(1)
	}
}

// run plays one commercial life of a devis end to end, then the
// planning side.
func run(ctx context.Context, st backend, cfg *config.Config) error {
	const (
		commercial = int64(101)
		conducteur = int64(102)
	)
	calcul := devis.CalculService{}
	num := devis.NumerotationService{}

	// --- Création ---
	logger.Section("Devis")

	tvaRenovation := 10.0
	creer := usecase.CreerDevisUseCase{Devis: st.Devis(), Journal: st.Journal(), Config: cfg, Num: num}
	d, err := creer.Execute(ctx, usecase.ParamsCreationDevis{
		ClientNom:       "M. et Mme Garnier",
		ClientAdresse:   "12 rue des Acacias, 44000 Nantes",
		ClientEmail:     "garnier@example.org",
		ClientTelephone: "06 12 34 56 78",
		Objet:           "Rénovation salle de bain",
		CommercialID:    commercial,
		ConducteurID:    conducteur,
		TauxTVA:         &tvaRenovation,
	}, commercial)
	if err != nil {
		return err
	}
	logger.Success("DEVIS", fmt.Sprintf("%s créé (%s)", d.Numero, d.Statut))

	ajouterLot := usecase.AjouterLotUseCase{Devis: st.Devis(), Lots: st.Lots(), Lignes: st.Lignes(), Journal: st.Journal(), Num: num}
	plomberie, err := ajouterLot.Execute(ctx, d.ID, 0, "Plomberie", nil, commercial)
	if err != nil {
		return err
	}
	electricite, err := ajouterLot.Execute(ctx, d.ID, 0, "Électricité", nil, commercial)
	if err != nil {
		return err
	}

	ajouterLigne := usecase.AjouterLigneUseCase{
		Devis: st.Devis(), Lots: st.Lots(), Lignes: st.Lignes(),
		Articles: st.Articles(), Journal: st.Journal(), Num: num, Calcul: calcul,
	}
	// Cost buildup line: 220 € of debourse, overhead then margin give
	// the sale price.
	ligne, err := ajouterLigne.Execute(ctx, plomberie.ID, usecase.ParamsLigne{
		Designation: "Remplacement colonne d'évacuation",
		Unite:       "ENS",
		Quantite:    decimal.NewFromInt(1),
		Debourses: []devis.DebourseDetail{
			devis.NouveauDebourseMOE("Pose", decimal.NewFromInt(4), decimal.NewFromInt(40), devis.MetierPlombier),
			{
				Type:         devis.DebourseMateriaux,
				Designation:  "Colonne PVC + colliers",
				Quantite:     decimal.NewFromInt(1),
				PrixUnitaire: decimal.NewFromInt(60),
			},
		},
	}, commercial)
	if err != nil {
		return err
	}
	logger.Info("LIGNE", fmt.Sprintf("%s débourse %s → revient %s → vente %s",
		ligne.CodeLigne, ligne.DebourseSec.StringFixed(2), ligne.PrixRevient.StringFixed(2), ligne.MontantHT.StringFixed(2)))

	// Manual price line, no cost detail.
	if _, err := ajouterLigne.Execute(ctx, electricite.ID, usecase.ParamsLigne{
		Designation:  "Mise aux normes tableau",
		Unite:        "FORFAIT",
		Quantite:     decimal.NewFromInt(1),
		PrixUnitaire: decimal.NewFromFloat(890),
	}, commercial); err != nil {
		return err
	}

	frais := usecase.AjouterFraisChantierUseCase{Devis: st.Devis(), Lots: st.Lots(), Frais: st.Frais(), Journal: st.Journal()}
	if _, err := frais.Execute(ctx, d.ID, usecase.ParamsFrais{
		Type:        devis.FraisEvacuation,
		Libelle:     "Benne gravats",
		MontantHT:   decimal.NewFromInt(180),
		Repartition: devis.RepartitionProrata,
		TauxTVA:     tvaRenovation,
	}, commercial); err != nil {
		return err
	}

	recalc := usecase.RecalculerTotauxUseCase{Devis: st.Devis(), Lots: st.Lots(), Lignes: st.Lignes(), Journal: st.Journal(), Calcul: calcul}
	totaux, err := recalc.Execute(ctx, d.ID, commercial)
	if err != nil {
		return err
	}
	logger.Stats("Total HT", totaux.TotalHT.StringFixed(2))
	logger.Stats("Total TTC", totaux.TotalTTC.StringFixed(2))
	logger.Stats("Total débourse", totaux.TotalDebourse.StringFixed(2))

	// --- Workflow ---
	logger.Section("Workflow")

	if _, err := (usecase.SoumettreDevisUseCase{Devis: st.Devis(), Journal: st.Journal()}).Execute(ctx, d.ID, devis.RoleCommercial, commercial); err != nil {
		return err
	}
	if _, err := (usecase.ValiderDevisUseCase{Devis: st.Devis(), Journal: st.Journal()}).Execute(ctx, d.ID, devis.RoleConducteur, conducteur); err != nil {
		return err
	}
	planifier := usecase.PlanifierRelancesUseCase{Devis: st.Devis(), Relances: st.Relances(), Journal: st.Journal()}
	envoyer := usecase.EnvoyerDevisUseCase{Devis: st.Devis(), Journal: st.Journal(), Planifier: planifier}
	if _, err := envoyer.Execute(ctx, d.ID, devis.RoleCommercial, commercial); err != nil {
		return err
	}
	if _, err := (usecase.MarquerVuUseCase{Devis: st.Devis(), Journal: st.Journal()}).Execute(ctx, d.ID, devis.RoleCommercial, commercial); err != nil {
		return err
	}
	relances, err := st.Relances().FindByDevis(ctx, d.ID)
	if err != nil {
		return err
	}
	logger.Success("WORKFLOW", fmt.Sprintf("%s envoyé puis vu, %d relances planifiées", d.Numero, len(relances)))

	// --- Variante et comparaison ---
	logger.Section("Versions")

	variante, err := (usecase.CreerVarianteUseCase{
		Devis: st.Devis(), Lots: st.Lots(), Lignes: st.Lignes(), Journal: st.Journal(), Num: num,
	}).Execute(ctx, d.ID, "ECO", devis.RoleCommercial, commercial)
	if err != nil {
		return err
	}
	logger.Info("VERSION", fmt.Sprintf("variante %s créée", variante.Numero))

	comparatif, err := (usecase.ComparerDevisUseCase{
		Devis: st.Devis(), Lots: st.Lots(), Lignes: st.Lignes(),
		Comparatifs: st.Comparatifs(), Journal: st.Journal(), Service: devis.ComparaisonService{},
	}).Execute(ctx, d.ID, variante.ID, commercial)
	if err != nil {
		return err
	}
	logger.Stats("Lignes identiques", comparatif.NbIdentiques)
	logger.Stats("Lignes modifiées", comparatif.NbModifiees)

	// --- Attestation et signature ---
	logger.Section("Signature")

	attestation, err := (usecase.CreerAttestationTVAUseCase{
		Devis: st.Devis(), Attestations: st.Attestations(), Journal: st.Journal(),
	}).Execute(ctx, d.ID, d.ClientAdresse, "Rénovation de salle de bain, logement achevé depuis plus de deux ans", true, commercial)
	if err != nil {
		return err
	}
	logger.Info("TVA", fmt.Sprintf("attestation CERFA %s (taux %s %%)", attestation.TypeCERFA, attestation.TauxTVA))
	if _, err := (usecase.SignerAttestationUseCase{Attestations: st.Attestations(), Journal: st.Journal()}).Execute(ctx, d.ID, "M. Garnier", commercial); err != nil {
		return err
	}

	annuler := usecase.AnnulerRelancesUseCase{Relances: st.Relances(), Journal: st.Journal()}
	sig, err := (usecase.SignerDevisUseCase{
		Devis: st.Devis(), Signatures: st.Signatures(), Journal: st.Journal(), Annuler: annuler,
	}).Execute(ctx, d.ID, usecase.ParamsSignature{
		Type:            devis.SignatureSaisie,
		SignataireNom:   "M. Garnier",
		SignataireEmail: "garnier@example.org",
		Donnees:         "M. GARNIER",
		AdresseIP:       "203.0.113.7",
	})
	if err != nil {
		return err
	}
	logger.Success("SIGNATURE", fmt.Sprintf("acceptation %s, hash %s…", sig.Type, sig.HashDocument[:16]))

	verif, err := (usecase.VerifierSignatureUseCase{Devis: st.Devis(), Signatures: st.Signatures()}).Execute(ctx, d.ID)
	if err != nil {
		return err
	}
	logger.Info("SIGNATURE", verif.Message)

	// --- Document ---
	document, err := (usecase.GenererPDFUseCase{
		Devis: st.Devis(), Lots: st.Lots(), Lignes: st.Lignes(), Generator: pdf.TextRenderer{},
	}).Execute(ctx, d.ID)
	if err != nil {
		return err
	}
	logger.Info("DOCUMENT", fmt.Sprintf("%d octets rendus", len(document)))

	// --- Conversion ---
	logger.Section("Conversion")

	res, err := (usecase.ConvertirDevisUseCase{
		Devis: st.Devis(), Lots: st.Lots(), Signatures: st.Signatures(), Journal: st.Journal(),
		Port: &chantier.StubPort{}, Publisher: event.LogPublisher{},
	}).Execute(ctx, d.ID, devis.RoleConducteur, conducteur)
	if err != nil {
		return err
	}
	logger.Success("CHANTIER", fmt.Sprintf("%s ouvert, %d lots budgétaires", res.CodeChantier, res.NbLotsTransferes))

	// --- Import DPGF sur un second devis ---
	logger.Section("Import DPGF")

	d2, err := creer.Execute(ctx, usecase.ParamsCreationDevis{
		ClientNom: "SCI Les Tilleuls",
		Objet:     "Extension bureaux",
	}, commercial)
	if err != nil {
		return err
	}
	csv := strings.Join([]string{
		"Lot;Désignation;Unité;Quantité;PU",
		"01;Terrassement général;m3;120;18,50",
		"01;Évacuation des terres;m3;120;9,00",
		"02;Dallage béton;m2;85;42,00",
	}, "\n")
	importer := usecase.ImporterDPGFUseCase{
		Devis: st.Devis(), Lots: st.Lots(), Lignes: st.Lignes(), Journal: st.Journal(),
		Decoder: dpgf.CSVDecoder{}, Num: num, Calcul: calcul,
	}
	resImport, err := importer.Execute(ctx, d2.ID, []byte(csv), dpgf.Mapping{
		ColonneLot: 0, ColonneDescription: 1, ColonneUnite: 2,
		ColonneQuantite: 3, ColonnePrixUnitaire: 4, LigneDebut: 2,
	}, commercial)
	if err != nil {
		return err
	}
	logger.Success("DPGF", fmt.Sprintf("%d lots, %d lignes, %d rejets — total HT %s",
		resImport.NbLotsCreees, resImport.NbLignesCreees, len(resImport.Erreurs), resImport.Totaux.TotalHT.StringFixed(2)))

	// --- Relances dues ---
	executer := usecase.ExecuterRelancesUseCase{
		Devis: st.Devis(), Relances: st.Relances(), Journal: st.Journal(), Transport: notify.LogTransport{},
	}
	resRelances, err := executer.Execute(ctx, 0)
	if err != nil {
		return err
	}
	logger.Info("RELANCE", fmt.Sprintf("%d envoyée(s), %d échec(s)", resRelances.NbEnvoyees, len(resRelances.Echecs)))

	// --- Planning de charge ---
	logger.Section("Planning de charge")

	debut := planning.Semaine{Annee: time.Now().Year(), Num: 10}
	chantiers := planning.NewMemChantierProvider([]planning.ChantierInfo{
		{ID: res.ChantierID, Code: res.CodeChantier, Nom: "Rénovation Garnier", HeuresEstimees: 160},
	})
	affectations := &planning.MemAffectationProvider{
		Planifie: map[planning.CleAffectation]float64{
			{ChantierID: res.ChantierID, Semaine: debut}: 70,
		},
		Capacite:   map[planning.Semaine]float64{debut: 105, debut.Next(): 105},
		NonAffecte: map[planning.Semaine]int{debut.Next(): 1},
	}

	creerBesoin := planning.CreerBesoinUseCase{Besoins: st.Besoins()}
	if _, err := creerBesoin.Execute(ctx, devis.RoleConducteur, res.ChantierID, debut, devis.MetierPlombier, 35, "", conducteur); err != nil {
		return err
	}
	if _, err := creerBesoin.Execute(ctx, devis.RoleConducteur, res.ChantierID, debut.Next(), devis.MetierCarreleur, 140, "pose faïence", conducteur); err != nil {
		return err
	}

	grille, err := (planning.GetPlanningChargeUseCase{
		Chantiers: chantiers, Affectations: affectations, Besoins: st.Besoins(),
		Cache: planning.NewCachePlanning(30 * time.Second),
	}).Execute(ctx, planning.ParamsPlanning{Debut: debut, Fin: debut.Next()})
	if err != nil {
		return err
	}
	for _, pied := range grille.Pied {
		logger.Stats(pied.Semaine.String(), fmt.Sprintf("planifié %.0f h / besoin %.0f h, occupation %.0f %% (%s), à recruter %d",
			pied.Planifie, pied.Besoin, pied.Occupation.Valeur*100, pied.Occupation.Niveau(), pied.ARecruter))
	}

	// --- Tableau de bord ---
	logger.Section("Tableau de bord")

	bord, err := (usecase.TableauBordDevisUseCase{Devis: st.Devis()}).Execute(ctx, time.Now().UTC())
	if err != nil {
		return err
	}
	logger.Stats("Devis", bord.Total)
	logger.Stats("En cours HT", bord.EnCoursHT.StringFixed(2))
	logger.Stats("Gagné HT", bord.GagneHT.StringFixed(2))
	logger.Stats("Taux de conversion", fmt.Sprintf("%.1f %%", bord.TauxConversion))

	return nil
}
