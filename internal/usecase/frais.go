package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"baticore/internal/devis"
	"baticore/internal/storage"
)

// chargerNonFige loads a devis for a frais mutation: site expenses
// stay editable through the workflow but stop at a frozen version.
func chargerNonFige(ctx context.Context, repo storage.DevisRepository, id int64) (*devis.Devis, error) {
	d, err := repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.VersionFigee {
		return nil, devis.ErrVersionFigee(d.Numero)
	}
	return d, nil
}

// ParamsFrais is the creation/update input of a site expense.
type ParamsFrais struct {
	Type        devis.TypeFrais
	Libelle     string
	MontantHT   decimal.Decimal
	Repartition devis.ModeRepartition
	TauxTVA     float64
	LotID       int64
}

// AjouterFraisChantierUseCase attaches a site expense to a devis.
type AjouterFraisChantierUseCase struct {
	Devis   storage.DevisRepository
	Lots    storage.LotRepository
	Frais   storage.FraisRepository
	Journal storage.JournalRepository
}

func (uc AjouterFraisChantierUseCase) Execute(ctx context.Context, devisID int64, params ParamsFrais, auteur int64) (*devis.FraisChantier, error) {
	d, err := chargerNonFige(ctx, uc.Devis, devisID)
	if err != nil {
		return nil, err
	}
	taux, err := devis.NewTauxTVA(params.TauxTVA)
	if err != nil {
		return nil, err
	}
	if params.LotID != 0 {
		lot, err := uc.Lots.FindByID(ctx, params.LotID)
		if err != nil {
			return nil, err
		}
		if lot.DevisID != devisID {
			return nil, devis.ErrFraisValidation("lot %d hors du devis %d", params.LotID, devisID)
		}
	}

	f := &devis.FraisChantier{
		DevisID:     devisID,
		Type:        params.Type,
		Libelle:     params.Libelle,
		MontantHT:   params.MontantHT,
		Repartition: params.Repartition,
		TauxTVA:     taux,
		LotID:       params.LotID,
		CreatedBy:   auteur,
	}
	if err := f.Valider(); err != nil {
		return nil, err
	}
	if err := uc.Frais.Save(ctx, f); err != nil {
		return nil, err
	}
	if err := journaliser(ctx, uc.Journal, d.ID, devis.ActionFraisChantier, auteur, map[string]any{
		"libelle": f.Libelle, "montant_ht": f.MontantHT.StringFixed(2),
	}); err != nil {
		return nil, err
	}
	return f, nil
}

// ModifierFraisChantierUseCase updates a site expense.
type ModifierFraisChantierUseCase struct {
	Devis   storage.DevisRepository
	Frais   storage.FraisRepository
	Journal storage.JournalRepository
}

func (uc ModifierFraisChantierUseCase) Execute(ctx context.Context, fraisID int64, params ParamsFrais, auteur int64) (*devis.FraisChantier, error) {
	f, err := uc.Frais.FindByID(ctx, fraisID)
	if err != nil {
		return nil, err
	}
	if _, err := chargerNonFige(ctx, uc.Devis, f.DevisID); err != nil {
		return nil, err
	}

	taux, err := devis.NewTauxTVA(params.TauxTVA)
	if err != nil {
		return nil, err
	}
	f.Type = params.Type
	f.Libelle = params.Libelle
	f.MontantHT = params.MontantHT
	f.Repartition = params.Repartition
	f.TauxTVA = taux
	f.LotID = params.LotID
	if err := f.Valider(); err != nil {
		return nil, err
	}
	if err := uc.Frais.Save(ctx, f); err != nil {
		return nil, err
	}
	if err := journaliser(ctx, uc.Journal, f.DevisID, devis.ActionFraisChantier, auteur, map[string]any{
		"frais_id": fraisID,
	}); err != nil {
		return nil, err
	}
	return f, nil
}

// SupprimerFraisChantierUseCase removes a site expense.
type SupprimerFraisChantierUseCase struct {
	Devis   storage.DevisRepository
	Frais   storage.FraisRepository
	Journal storage.JournalRepository
}

func (uc SupprimerFraisChantierUseCase) Execute(ctx context.Context, fraisID, auteur int64) error {
	f, err := uc.Frais.FindByID(ctx, fraisID)
	if err != nil {
		return err
	}
	if _, err := chargerNonFige(ctx, uc.Devis, f.DevisID); err != nil {
		return err
	}
	if err := uc.Frais.Delete(ctx, fraisID); err != nil {
		return err
	}
	return journaliser(ctx, uc.Journal, f.DevisID, devis.ActionFraisChantier, auteur, map[string]any{
		"frais_supprime": f.Libelle,
	})
}

// VueFrais is the read projection: expenses plus their allocation.
type VueFrais struct {
	Frais      []*devis.FraisChantier `json:"frais"`
	Allocation devis.AllocationFrais  `json:"allocation"`
}

// ListerFraisChantierUseCase lists the expenses of a devis with the
// prorata allocation over its lots.
type ListerFraisChantierUseCase struct {
	Devis storage.DevisRepository
	Lots  storage.LotRepository
	Frais storage.FraisRepository
}

func (uc ListerFraisChantierUseCase) Execute(ctx context.Context, devisID int64) (*VueFrais, error) {
	if _, err := uc.Devis.FindByID(ctx, devisID); err != nil {
		return nil, err
	}
	frais, err := uc.Frais.FindByDevis(ctx, devisID)
	if err != nil {
		return nil, err
	}
	lots, err := uc.Lots.FindByDevis(ctx, devisID)
	if err != nil {
		return nil, err
	}
	return &VueFrais{Frais: frais, Allocation: devis.RepartirFrais(frais, lots)}, nil
}
