package usecase

import (
	"context"

	"baticore/internal/devis"
	"baticore/internal/storage"
)

// versionneur deep-copies a devis tree under a new head. Copied lines
// are unlocked and soft-delete flags never travel (the repositories
// filter them out on load).
type versionneur struct {
	Devis  storage.DevisRepository
	Lots   storage.LotRepository
	Lignes storage.LigneRepository
}

func (v versionneur) copierArbre(ctx context.Context, sourceID int64, tete *devis.Devis) error {
	if err := v.Devis.Save(ctx, tete); err != nil {
		return err
	}

	lots, err := v.Lots.FindByDevis(ctx, sourceID)
	if err != nil {
		return err
	}
	lignes, err := v.Lignes.FindByDevis(ctx, sourceID)
	if err != nil {
		return err
	}

	// Parents are saved before children so the id map is complete:
	// FindByDevis orders by (parent, ordre) and roots carry parent 0.
	nouveauxIDs := make(map[int64]int64, len(lots))
	for _, lot := range lots {
		copie := *lot
		copie.ID = 0
		copie.DevisID = tete.ID
		copie.ParentID = nouveauxIDs[lot.ParentID]
		copie.DeletedAt = nil
		copie.DeletedBy = 0
		if err := v.Lots.Save(ctx, &copie); err != nil {
			return err
		}
		nouveauxIDs[lot.ID] = copie.ID
	}

	for _, ligne := range lignes {
		copie := *ligne
		copie.ID = 0
		copie.DevisID = tete.ID
		copie.LotID = nouveauxIDs[ligne.LotID]
		copie.Verrouille = false
		copie.DeletedAt = nil
		copie.DeletedBy = 0
		copie.Debourses = append([]devis.DebourseDetail(nil), ligne.Debourses...)
		for i := range copie.Debourses {
			copie.Debourses[i].ID = 0
		}
		if err := v.Lignes.Save(ctx, &copie); err != nil {
			return err
		}
	}
	return nil
}

// origineFamille is the parent id a derived version records: the
// original of the family.
func origineFamille(source *devis.Devis) int64 {
	if source.ParentDevisID != 0 {
		return source.ParentDevisID
	}
	return source.ID
}

// nouvelleTete clones the head fields shared by revisions and
// variants: back to BROUILLON, unfrozen, no envoi, no chantier.
func nouvelleTete(source *devis.Devis, auteur int64) *devis.Devis {
	tete := *source
	tete.ID = 0
	tete.Statut = devis.StatutBrouillon
	tete.VersionFigee = false
	tete.ParentDevisID = origineFamille(source)
	tete.DateEnvoi = nil
	tete.ChantierID = 0
	tete.CreatedBy = auteur
	tete.DeletedAt = nil
	tete.DeletedBy = 0
	return &tete
}

// CreerRevisionUseCase derives the next revision of a devis and
// freezes the source.
type CreerRevisionUseCase struct {
	Devis   storage.DevisRepository
	Lots    storage.LotRepository
	Lignes  storage.LigneRepository
	Journal storage.JournalRepository
	Num     devis.NumerotationService
}

func (uc CreerRevisionUseCase) Execute(ctx context.Context, sourceID int64, role devis.Role, auteur int64) (*devis.Devis, error) {
	if err := devis.AutoriserAction(devis.ActReviser, role); err != nil {
		return nil, err
	}
	source, err := uc.Devis.FindByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	version, err := uc.Devis.NextVersionNumber(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	tete := nouvelleTete(source, auteur)
	tete.TypeVersion = devis.VersionRevision
	tete.VersionNumero = version
	tete.LabelVariante = ""
	tete.Numero = uc.Num.NumeroRevision(source.NumeroBase(), version)

	v := versionneur{Devis: uc.Devis, Lots: uc.Lots, Lignes: uc.Lignes}
	if err := v.copierArbre(ctx, sourceID, tete); err != nil {
		return nil, err
	}

	// A revision freezes its source: the old version becomes history.
	if !source.VersionFigee {
		source.VersionFigee = true
		if err := uc.Devis.Save(ctx, source); err != nil {
			return nil, err
		}
		if err := journaliser(ctx, uc.Journal, source.ID, devis.ActionFigeVersion, auteur, map[string]any{
			"par_revision": tete.Numero,
		}); err != nil {
			return nil, err
		}
	}

	if err := journaliser(ctx, uc.Journal, tete.ID, devis.ActionCreationRevision, auteur, map[string]any{
		"source": source.Numero, "numero": tete.Numero, "version": version,
	}); err != nil {
		return nil, err
	}
	return tete, nil
}

// CreerVarianteUseCase derives a labelled alternative without touching
// the source.
type CreerVarianteUseCase struct {
	Devis   storage.DevisRepository
	Lots    storage.LotRepository
	Lignes  storage.LigneRepository
	Journal storage.JournalRepository
	Num     devis.NumerotationService
}

func (uc CreerVarianteUseCase) Execute(ctx context.Context, sourceID int64, label string, role devis.Role, auteur int64) (*devis.Devis, error) {
	if err := devis.AutoriserAction(devis.ActReviser, role); err != nil {
		return nil, err
	}
	source, err := uc.Devis.FindByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	numero, err := uc.Num.NumeroVariante(source.NumeroBase(), label)
	if err != nil {
		return nil, err
	}
	version, err := uc.Devis.NextVersionNumber(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	tete := nouvelleTete(source, auteur)
	tete.TypeVersion = devis.VersionVariante
	tete.VersionNumero = version
	tete.LabelVariante = label
	tete.Numero = numero

	v := versionneur{Devis: uc.Devis, Lots: uc.Lots, Lignes: uc.Lignes}
	if err := v.copierArbre(ctx, sourceID, tete); err != nil {
		return nil, err
	}

	if err := journaliser(ctx, uc.Journal, tete.ID, devis.ActionCreationVariante, auteur, map[string]any{
		"source": source.Numero, "numero": tete.Numero, "label": label,
	}); err != nil {
		return nil, err
	}
	return tete, nil
}

// FigerVersionUseCase freezes a devis explicitly. Frozen is final.
type FigerVersionUseCase struct {
	Devis   storage.DevisRepository
	Journal storage.JournalRepository
}

func (uc FigerVersionUseCase) Execute(ctx context.Context, id int64, role devis.Role, auteur int64) (*devis.Devis, error) {
	if err := devis.AutoriserAction(devis.ActFigerVersion, role); err != nil {
		return nil, err
	}
	d, err := uc.Devis.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.VersionFigee {
		return nil, devis.ErrVersionFigee(d.Numero)
	}
	d.VersionFigee = true
	if err := uc.Devis.Save(ctx, d); err != nil {
		return nil, err
	}
	if err := journaliser(ctx, uc.Journal, d.ID, devis.ActionFigeVersion, auteur, nil); err != nil {
		return nil, err
	}
	return d, nil
}

// ListerVersionsUseCase returns the whole family of a devis.
type ListerVersionsUseCase struct {
	Devis storage.DevisRepository
}

func (uc ListerVersionsUseCase) Execute(ctx context.Context, id int64) ([]*devis.Devis, error) {
	return uc.Devis.FindVersions(ctx, id)
}
