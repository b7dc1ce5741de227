// Package usecase holds one value type per business operation of the
// devis context. Each use case carries its dependencies, loads through
// the repositories, delegates computation to the domain services, then
// persists and appends a journal entry. No state survives between
// invocations.
package usecase

import (
	"context"

	"baticore/internal/devis"
	"baticore/internal/storage"
)

// journaliser appends an audit entry. Journal failures surface as
// errors: an operation is not complete until its trace is written.
func journaliser(ctx context.Context, journal storage.JournalRepository, devisID int64, action string, auteur int64, details map[string]any) error {
	return journal.Append(ctx, devis.NouvelleEntreeJournal(devisID, action, auteur, details))
}

// chargerModifiable loads a devis and enforces the update guards:
// frozen versions reject everything, then the statut must be
// modifiable.
func chargerModifiable(ctx context.Context, repo storage.DevisRepository, id int64) (*devis.Devis, error) {
	d, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.VersionFigee {
		return nil, devis.ErrVersionFigee(d.Numero)
	}
	if !d.Statut.EstModifiable() {
		return nil, devis.ErrDevisNotModifiable(d.Numero, d.Statut)
	}
	return d, nil
}

// renumeroteur reloads the lot and line trees of a devis, reruns the
// numbering traversal and persists every element. Shared by the
// structural use cases.
type renumeroteur struct {
	Lots   storage.LotRepository
	Lignes storage.LigneRepository
	Num    devis.NumerotationService
}

func (r renumeroteur) renumeroter(ctx context.Context, devisID int64) error {
	lots, err := r.Lots.FindByDevis(ctx, devisID)
	if err != nil {
		return err
	}
	lignes, err := r.Lignes.FindByDevis(ctx, devisID)
	if err != nil {
		return err
	}
	r.Num.Renumeroter(lots, lignes)
	for _, lot := range lots {
		if err := r.Lots.Save(ctx, lot); err != nil {
			return err
		}
	}
	for _, ligne := range lignes {
		if err := r.Lignes.Save(ctx, ligne); err != nil {
			return err
		}
	}
	return nil
}

// recalculateur reruns the cost buildup over a whole devis and
// persists the three levels. Shared by every use case that touches
// amounts.
type recalculateur struct {
	Devis  storage.DevisRepository
	Lots   storage.LotRepository
	Lignes storage.LigneRepository
	Calcul devis.CalculService
}

func (r recalculateur) recalculer(ctx context.Context, d *devis.Devis) (devis.TotauxDevis, error) {
	lots, err := r.Lots.FindByDevis(ctx, d.ID)
	if err != nil {
		return devis.TotauxDevis{}, err
	}
	lignes, err := r.Lignes.FindByDevis(ctx, d.ID)
	if err != nil {
		return devis.TotauxDevis{}, err
	}

	totaux := r.Calcul.CalculerDevis(d, lots, lignes)

	for _, ligne := range lignes {
		if err := r.Lignes.Save(ctx, ligne); err != nil {
			return devis.TotauxDevis{}, err
		}
	}
	for _, lot := range lots {
		if err := r.Lots.Save(ctx, lot); err != nil {
			return devis.TotauxDevis{}, err
		}
	}
	if err := r.Devis.Save(ctx, d); err != nil {
		return devis.TotauxDevis{}, err
	}
	return totaux, nil
}
