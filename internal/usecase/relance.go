package usecase

import (
	"context"
	"time"

	"baticore/internal/devis"
	"baticore/internal/notify"
	"baticore/internal/storage"
)

// PlanifierRelancesUseCase creates one relance per configured delay
// not already covered, dated from the envoi date.
type PlanifierRelancesUseCase struct {
	Devis    storage.DevisRepository
	Relances storage.RelanceRepository
	Journal  storage.JournalRepository
}

func (uc PlanifierRelancesUseCase) Execute(ctx context.Context, devisID, auteur int64) ([]*devis.RelanceDevis, error) {
	d, err := uc.Devis.FindByID(ctx, devisID)
	if err != nil {
		return nil, err
	}
	switch d.Statut {
	case devis.StatutEnvoye, devis.StatutVu, devis.StatutEnNegociation:
	default:
		return nil, devis.ErrRelanceValidation("devis %s au statut %s, relances non planifiables", d.Numero, d.Statut)
	}
	if d.DateEnvoi == nil {
		return nil, devis.ErrRelanceValidation("devis %s jamais envoyé", d.Numero)
	}
	if err := d.ConfigRelances.Valider(); err != nil {
		return nil, err
	}

	existantes, err := uc.Relances.FindByDevis(ctx, devisID)
	if err != nil {
		return nil, err
	}
	couvertes := make(map[int]bool, len(existantes))
	for _, r := range existantes {
		couvertes[r.Sequence] = true
	}

	var creees []*devis.RelanceDevis
	for i, delai := range d.ConfigRelances.DelaisJours {
		sequence := i + 1
		if couvertes[sequence] {
			continue
		}
		r := &devis.RelanceDevis{
			DevisID:    devisID,
			Sequence:   sequence,
			Type:       d.ConfigRelances.TypeDefaut,
			Statut:     devis.RelancePlanifiee,
			DatePrevue: d.DateEnvoi.AddDate(0, 0, delai),
			CreatedBy:  auteur,
		}
		if err := r.Valider(); err != nil {
			return nil, err
		}
		if err := uc.Relances.Save(ctx, r); err != nil {
			return nil, err
		}
		creees = append(creees, r)
	}

	if len(creees) > 0 {
		if err := journaliser(ctx, uc.Journal, devisID, devis.ActionRelancePlanifiee, auteur, map[string]any{
			"nb_relances": len(creees),
		}); err != nil {
			return nil, err
		}
	}
	return creees, nil
}

// ResultatExecutionRelances summarizes one batch run.
type ResultatExecutionRelances struct {
	NbEnvoyees int     `json:"nb_envoyees"`
	Echecs     []error `json:"-"`
}

// ExecuterRelancesUseCase is the batch: every due relance goes through
// the transport; failures are collected, never propagated, so one dead
// mailbox cannot stall the sweep. Delivery is at least once.
type ExecuterRelancesUseCase struct {
	Devis     storage.DevisRepository
	Relances  storage.RelanceRepository
	Journal   storage.JournalRepository
	Transport notify.Transport
}

func (uc ExecuterRelancesUseCase) Execute(ctx context.Context, auteur int64) (*ResultatExecutionRelances, error) {
	dues, err := uc.Relances.FindDues(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	res := &ResultatExecutionRelances{}
	for _, r := range dues {
		d, err := uc.Devis.FindByID(ctx, r.DevisID)
		if err != nil {
			res.Echecs = append(res.Echecs, devis.ErrRelanceExecution(err, r.ID))
			continue
		}
		// A devis that closed since planning cancels its relances.
		if d.Statut.EstTerminal() {
			r.Annuler()
			if err := uc.Relances.Save(ctx, r); err != nil {
				res.Echecs = append(res.Echecs, devis.ErrRelanceExecution(err, r.ID))
			}
			continue
		}
		if err := uc.Transport.Send(ctx, r, d); err != nil {
			res.Echecs = append(res.Echecs, devis.ErrRelanceExecution(err, r.ID))
			continue
		}
		if err := r.Envoyer(time.Now().UTC()); err != nil {
			res.Echecs = append(res.Echecs, devis.ErrRelanceExecution(err, r.ID))
			continue
		}
		if err := uc.Relances.Save(ctx, r); err != nil {
			res.Echecs = append(res.Echecs, devis.ErrRelanceExecution(err, r.ID))
			continue
		}
		if err := journaliser(ctx, uc.Journal, r.DevisID, devis.ActionRelanceEnvoyee, auteur, map[string]any{
			"sequence": r.Sequence,
		}); err != nil {
			return res, err
		}
		res.NbEnvoyees++
	}
	return res, nil
}

// AnnulerRelancesUseCase sweeps every planned relance of a devis.
type AnnulerRelancesUseCase struct {
	Relances storage.RelanceRepository
	Journal  storage.JournalRepository
}

func (uc AnnulerRelancesUseCase) Execute(ctx context.Context, devisID, auteur int64) (int, error) {
	relances, err := uc.Relances.FindByDevis(ctx, devisID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range relances {
		if !r.Annuler() {
			continue
		}
		if err := uc.Relances.Save(ctx, r); err != nil {
			return n, err
		}
		n++
	}
	if n > 0 {
		if err := journaliser(ctx, uc.Journal, devisID, devis.ActionRelanceAnnulee, auteur, map[string]any{
			"nb_annulees": n,
		}); err != nil {
			return n, err
		}
	}
	return n, nil
}
