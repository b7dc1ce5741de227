package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"baticore/internal/devis"
	"baticore/internal/storage"
)

// AjouterLotUseCase appends a section to a devis, at the end of its
// siblings, and renumbers the tree.
type AjouterLotUseCase struct {
	Devis   storage.DevisRepository
	Lots    storage.LotRepository
	Lignes  storage.LigneRepository
	Journal storage.JournalRepository
	Num     devis.NumerotationService
}

func (uc AjouterLotUseCase) Execute(ctx context.Context, devisID, parentID int64, titre string, marge *float64, auteur int64) (*devis.Lot, error) {
	d, err := chargerModifiable(ctx, uc.Devis, devisID)
	if err != nil {
		return nil, err
	}
	if parentID != 0 {
		if _, err := uc.Lots.FindByID(ctx, parentID); err != nil {
			return nil, err
		}
	}

	lots, err := uc.Lots.FindByDevis(ctx, devisID)
	if err != nil {
		return nil, err
	}
	ordre := 0
	for _, l := range lots {
		if l.ParentID == parentID {
			ordre++
		}
	}

	lot := &devis.Lot{
		DevisID:   devisID,
		ParentID:  parentID,
		Titre:     titre,
		Ordre:     ordre,
		Marge:     marge,
		CreatedBy: auteur,
	}
	if err := lot.Valider(); err != nil {
		return nil, err
	}
	if err := uc.Lots.Save(ctx, lot); err != nil {
		return nil, err
	}
	ren := renumeroteur{Lots: uc.Lots, Lignes: uc.Lignes, Num: uc.Num}
	if err := ren.renumeroter(ctx, devisID); err != nil {
		return nil, err
	}
	if err := journaliser(ctx, uc.Journal, d.ID, devis.ActionModification, auteur, map[string]any{
		"lot": titre, "ajout": true,
	}); err != nil {
		return nil, err
	}
	return uc.Lots.FindByID(ctx, lot.ID)
}

// ModifierLotUseCase updates a lot's title or margin override.
type ModifierLotUseCase struct {
	Devis   storage.DevisRepository
	Lots    storage.LotRepository
	Lignes  storage.LigneRepository
	Journal storage.JournalRepository
	Calcul  devis.CalculService
}

func (uc ModifierLotUseCase) Execute(ctx context.Context, lotID int64, titre *string, marge *float64, effacerMarge bool, auteur int64) (*devis.Lot, error) {
	lot, err := uc.Lots.FindByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	d, err := chargerModifiable(ctx, uc.Devis, lot.DevisID)
	if err != nil {
		return nil, err
	}

	if titre != nil {
		lot.Titre = *titre
	}
	if effacerMarge {
		lot.Marge = nil
	} else if marge != nil {
		lot.Marge = marge
	}
	if err := lot.Valider(); err != nil {
		return nil, err
	}
	if err := uc.Lots.Save(ctx, lot); err != nil {
		return nil, err
	}

	// A margin change moves every line of the lot.
	rec := recalculateur{Devis: uc.Devis, Lots: uc.Lots, Lignes: uc.Lignes, Calcul: uc.Calcul}
	if _, err := rec.recalculer(ctx, d); err != nil {
		return nil, err
	}
	if err := journaliser(ctx, uc.Journal, d.ID, devis.ActionModification, auteur, map[string]any{
		"lot_id": lotID,
	}); err != nil {
		return nil, err
	}
	return uc.Lots.FindByID(ctx, lotID)
}

// SupprimerLotUseCase soft-deletes a lot with its lines, then
// renumbers and recomputes.
type SupprimerLotUseCase struct {
	Devis   storage.DevisRepository
	Lots    storage.LotRepository
	Lignes  storage.LigneRepository
	Journal storage.JournalRepository
	Num     devis.NumerotationService
	Calcul  devis.CalculService
}

func (uc SupprimerLotUseCase) Execute(ctx context.Context, lotID, auteur int64) error {
	lot, err := uc.Lots.FindByID(ctx, lotID)
	if err != nil {
		return err
	}
	d, err := chargerModifiable(ctx, uc.Devis, lot.DevisID)
	if err != nil {
		return err
	}

	// Children go with their parent.
	lots, err := uc.Lots.FindByDevis(ctx, d.ID)
	if err != nil {
		return err
	}
	aSupprimer := map[int64]bool{lotID: true}
	for changed := true; changed; {
		changed = false
		for _, l := range lots {
			if !aSupprimer[l.ID] && aSupprimer[l.ParentID] {
				aSupprimer[l.ID] = true
				changed = true
			}
		}
	}
	for id := range aSupprimer {
		lignes, err := uc.Lignes.FindByLot(ctx, id)
		if err != nil {
			return err
		}
		for _, ligne := range lignes {
			if err := uc.Lignes.Delete(ctx, ligne.ID, auteur); err != nil {
				return err
			}
		}
		if err := uc.Lots.Delete(ctx, id, auteur); err != nil {
			return err
		}
	}

	ren := renumeroteur{Lots: uc.Lots, Lignes: uc.Lignes, Num: uc.Num}
	if err := ren.renumeroter(ctx, d.ID); err != nil {
		return err
	}
	rec := recalculateur{Devis: uc.Devis, Lots: uc.Lots, Lignes: uc.Lignes, Calcul: uc.Calcul}
	if _, err := rec.recalculer(ctx, d); err != nil {
		return err
	}
	return journaliser(ctx, uc.Journal, d.ID, devis.ActionModification, auteur, map[string]any{
		"lot_supprime": lot.Titre,
	})
}

// ReordonnerLotsUseCase rewrites the sibling order of a parent's lots
// and renumbers the whole tree.
type ReordonnerLotsUseCase struct {
	Devis   storage.DevisRepository
	Lots    storage.LotRepository
	Lignes  storage.LigneRepository
	Journal storage.JournalRepository
	Num     devis.NumerotationService
}

// Execute takes the sibling ids in their new order. Every id must be
// an active lot of the devis under the same parent.
func (uc ReordonnerLotsUseCase) Execute(ctx context.Context, devisID int64, ordreIDs []int64, auteur int64) error {
	d, err := chargerModifiable(ctx, uc.Devis, devisID)
	if err != nil {
		return err
	}
	var parent int64
	for i, id := range ordreIDs {
		lot, err := uc.Lots.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if lot.DevisID != devisID {
			return devis.ErrDevisValidation("lot %d hors du devis %d", id, devisID)
		}
		if i == 0 {
			parent = lot.ParentID
		} else if lot.ParentID != parent {
			return devis.ErrDevisValidation("réordonnancement sur des lots de parents différents")
		}
		lot.Ordre = i
		if err := uc.Lots.Save(ctx, lot); err != nil {
			return err
		}
	}
	ren := renumeroteur{Lots: uc.Lots, Lignes: uc.Lignes, Num: uc.Num}
	if err := ren.renumeroter(ctx, devisID); err != nil {
		return err
	}
	return journaliser(ctx, uc.Journal, d.ID, devis.ActionModification, auteur, map[string]any{
		"reordonnancement": len(ordreIDs),
	})
}

// ParamsLigne is the creation/update input of a line.
type ParamsLigne struct {
	Designation  string
	Unite        string
	Quantite     decimal.Decimal
	PrixUnitaire decimal.Decimal
	TauxTVA      *float64 // default: the devis rate
	Marge        *float64
	ArticleID    int64
	Debourses    []devis.DebourseDetail
}

// AjouterLigneUseCase appends a line to a lot. An article reference
// pre-fills designation, unit and price; explicit params win.
type AjouterLigneUseCase struct {
	Devis    storage.DevisRepository
	Lots     storage.LotRepository
	Lignes   storage.LigneRepository
	Articles storage.ArticleRepository
	Journal  storage.JournalRepository
	Num      devis.NumerotationService
	Calcul   devis.CalculService
}

func (uc AjouterLigneUseCase) Execute(ctx context.Context, lotID int64, params ParamsLigne, auteur int64) (*devis.LigneDevis, error) {
	lot, err := uc.Lots.FindByID(ctx, lotID)
	if err != nil {
		return nil, err
	}
	d, err := chargerModifiable(ctx, uc.Devis, lot.DevisID)
	if err != nil {
		return nil, err
	}

	if params.ArticleID != 0 {
		a, err := uc.Articles.FindByID(ctx, params.ArticleID)
		if err != nil {
			return nil, err
		}
		if params.Designation == "" {
			params.Designation = a.Designation
		}
		if params.Unite == "" {
			params.Unite = a.Unite
		}
		if params.PrixUnitaire.IsZero() {
			params.PrixUnitaire = a.PrixUnitaireHT
		}
	}

	taux := d.TauxTVADefaut
	if params.TauxTVA != nil {
		if taux, err = devis.NewTauxTVA(*params.TauxTVA); err != nil {
			return nil, err
		}
	}

	siblings, err := uc.Lignes.FindByLot(ctx, lotID)
	if err != nil {
		return nil, err
	}

	ligne := &devis.LigneDevis{
		DevisID:        d.ID,
		LotID:          lotID,
		Designation:    params.Designation,
		Unite:          params.Unite,
		Quantite:       params.Quantite,
		PrixUnitaireHT: params.PrixUnitaire,
		TauxTVA:        taux,
		Marge:          params.Marge,
		ArticleID:      params.ArticleID,
		Ordre:          len(siblings),
		Debourses:      params.Debourses,
		CreatedBy:      auteur,
	}
	ligne.CodeLigne = uc.Num.CodeLigne(lot.CodeLot, ligne.Ordre)
	if err := ligne.Valider(); err != nil {
		return nil, err
	}
	if err := uc.Lignes.Save(ctx, ligne); err != nil {
		return nil, err
	}

	rec := recalculateur{Devis: uc.Devis, Lots: uc.Lots, Lignes: uc.Lignes, Calcul: uc.Calcul}
	if _, err := rec.recalculer(ctx, d); err != nil {
		return nil, err
	}
	if err := journaliser(ctx, uc.Journal, d.ID, devis.ActionModification, auteur, map[string]any{
		"ligne": ligne.Designation, "ajout": true,
	}); err != nil {
		return nil, err
	}
	return uc.Lignes.FindByID(ctx, ligne.ID)
}

// ModifierLigneUseCase updates a line; discharge details are replaced
// wholesale. The lock guard protects the quantity of frozen lines.
type ModifierLigneUseCase struct {
	Devis   storage.DevisRepository
	Lots    storage.LotRepository
	Lignes  storage.LigneRepository
	Journal storage.JournalRepository
	Calcul  devis.CalculService
}

func (uc ModifierLigneUseCase) Execute(ctx context.Context, ligneID int64, params ParamsLigne, auteur int64) (*devis.LigneDevis, error) {
	ligne, err := uc.Lignes.FindByID(ctx, ligneID)
	if err != nil {
		return nil, err
	}
	d, err := chargerModifiable(ctx, uc.Devis, ligne.DevisID)
	if err != nil {
		return nil, err
	}

	if !params.Quantite.Equal(ligne.Quantite) {
		if err := ligne.ChangerQuantite(params.Quantite); err != nil {
			return nil, err
		}
	}
	if params.Designation != "" {
		ligne.Designation = params.Designation
	}
	if params.Unite != "" {
		ligne.Unite = params.Unite
	}
	if !params.PrixUnitaire.IsZero() {
		ligne.PrixUnitaireHT = params.PrixUnitaire
	}
	if params.TauxTVA != nil {
		if ligne.TauxTVA, err = devis.NewTauxTVA(*params.TauxTVA); err != nil {
			return nil, err
		}
	}
	ligne.Marge = params.Marge
	if params.Debourses != nil {
		for i := range params.Debourses {
			params.Debourses[i].ID = 0 // wholesale replacement
			params.Debourses[i].LigneID = ligne.ID
		}
		ligne.Debourses = params.Debourses
	}

	if err := ligne.Valider(); err != nil {
		return nil, err
	}
	if err := uc.Lignes.Save(ctx, ligne); err != nil {
		return nil, err
	}

	rec := recalculateur{Devis: uc.Devis, Lots: uc.Lots, Lignes: uc.Lignes, Calcul: uc.Calcul}
	if _, err := rec.recalculer(ctx, d); err != nil {
		return nil, err
	}
	if err := journaliser(ctx, uc.Journal, d.ID, devis.ActionModification, auteur, map[string]any{
		"ligne_id": ligneID,
	}); err != nil {
		return nil, err
	}
	return uc.Lignes.FindByID(ctx, ligneID)
}

// VerrouillerLigneUseCase toggles the lock flag of a line.
type VerrouillerLigneUseCase struct {
	Devis   storage.DevisRepository
	Lignes  storage.LigneRepository
	Journal storage.JournalRepository
}

func (uc VerrouillerLigneUseCase) Execute(ctx context.Context, ligneID int64, verrouille bool, auteur int64) (*devis.LigneDevis, error) {
	ligne, err := uc.Lignes.FindByID(ctx, ligneID)
	if err != nil {
		return nil, err
	}
	if _, err := chargerModifiable(ctx, uc.Devis, ligne.DevisID); err != nil {
		return nil, err
	}
	ligne.Verrouille = verrouille
	if err := uc.Lignes.Save(ctx, ligne); err != nil {
		return nil, err
	}
	if err := journaliser(ctx, uc.Journal, ligne.DevisID, devis.ActionModification, auteur, map[string]any{
		"ligne_id":   ligneID,
		"verrouille": verrouille,
	}); err != nil {
		return nil, err
	}
	return ligne, nil
}

// SupprimerLigneUseCase soft-deletes a line, renumbers and recomputes.
type SupprimerLigneUseCase struct {
	Devis   storage.DevisRepository
	Lots    storage.LotRepository
	Lignes  storage.LigneRepository
	Journal storage.JournalRepository
	Num     devis.NumerotationService
	Calcul  devis.CalculService
}

func (uc SupprimerLigneUseCase) Execute(ctx context.Context, ligneID, auteur int64) error {
	ligne, err := uc.Lignes.FindByID(ctx, ligneID)
	if err != nil {
		return err
	}
	d, err := chargerModifiable(ctx, uc.Devis, ligne.DevisID)
	if err != nil {
		return err
	}
	if err := uc.Lignes.Delete(ctx, ligneID, auteur); err != nil {
		return err
	}
	ren := renumeroteur{Lots: uc.Lots, Lignes: uc.Lignes, Num: uc.Num}
	if err := ren.renumeroter(ctx, d.ID); err != nil {
		return err
	}
	rec := recalculateur{Devis: uc.Devis, Lots: uc.Lots, Lignes: uc.Lignes, Calcul: uc.Calcul}
	if _, err := rec.recalculer(ctx, d); err != nil {
		return err
	}
	return journaliser(ctx, uc.Journal, d.ID, devis.ActionModification, auteur, map[string]any{
		"ligne_supprimee": ligne.Designation,
	})
}
