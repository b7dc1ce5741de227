package usecase

import (
	"context"

	"baticore/internal/devis"
	"baticore/internal/storage"
)

// ComparerDevisUseCase diffs two devis and persists the result,
// superseding any earlier diff of the same pair.
type ComparerDevisUseCase struct {
	Devis       storage.DevisRepository
	Lots        storage.LotRepository
	Lignes      storage.LigneRepository
	Comparatifs storage.ComparatifRepository
	Journal     storage.JournalRepository
	Service     devis.ComparaisonService
}

func (uc ComparerDevisUseCase) Execute(ctx context.Context, sourceID, cibleID, auteur int64) (*devis.Comparatif, error) {
	if sourceID == cibleID {
		return nil, devis.ErrDevisValidation("comparaison d'un devis avec lui-même")
	}
	source, err := uc.Devis.FindByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	cible, err := uc.Devis.FindByID(ctx, cibleID)
	if err != nil {
		return nil, err
	}

	entreesSource, err := uc.aplatir(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	entreesCible, err := uc.aplatir(ctx, cibleID)
	if err != nil {
		return nil, err
	}

	c := uc.Service.Comparer(source, cible, entreesSource, entreesCible)
	c.CreatedBy = auteur
	if err := uc.Comparatifs.Replace(ctx, c); err != nil {
		return nil, err
	}

	if err := journaliser(ctx, uc.Journal, sourceID, devis.ActionComparaison, auteur, map[string]any{
		"cible":         cible.Numero,
		"nb_ajoutees":   c.NbAjoutees,
		"nb_supprimees": c.NbSupprimees,
		"nb_modifiees":  c.NbModifiees,
		"nb_identiques": c.NbIdentiques,
	}); err != nil {
		return nil, err
	}
	return c, nil
}

// aplatir flattens the active tree of one devis for matching.
func (uc ComparerDevisUseCase) aplatir(ctx context.Context, devisID int64) ([]devis.EntreeComparaison, error) {
	lots, err := uc.Lots.FindByDevis(ctx, devisID)
	if err != nil {
		return nil, err
	}
	titres := make(map[int64]string, len(lots))
	for _, lot := range lots {
		titres[lot.ID] = lot.Titre
	}

	lignes, err := uc.Lignes.FindByDevis(ctx, devisID)
	if err != nil {
		return nil, err
	}
	out := make([]devis.EntreeComparaison, 0, len(lignes))
	for _, l := range lignes {
		out = append(out, devis.EntreeComparaison{
			LotTitre:     titres[l.LotID],
			Designation:  l.Designation,
			ArticleID:    l.ArticleID,
			Quantite:     l.Quantite,
			PrixUnitaire: l.PrixUnitaireHT,
			TotalHT:      l.MontantHT,
			DebourseSec:  l.DebourseSec,
		})
	}
	return out, nil
}
