package usecase

import (
	"context"
	"time"

	"baticore/internal/devis"
	"baticore/internal/storage"
)

// workflowDeps carries the shared pieces of the state-change use
// cases; transition is their common body.
type workflowDeps struct {
	Devis   storage.DevisRepository
	Journal storage.JournalRepository
}

func (w workflowDeps) transition(ctx context.Context, id int64, role devis.Role, action devis.ActionDevis, to devis.StatutDevis, auteur int64) (*devis.Devis, error) {
	if err := devis.AutoriserAction(action, role); err != nil {
		return nil, err
	}
	d, err := w.Devis.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := d.Statut
	if err := d.TransitionnerVers(to); err != nil {
		return nil, err
	}
	if err := w.Devis.Save(ctx, d); err != nil {
		return nil, err
	}
	if err := journaliser(ctx, w.Journal, d.ID, devis.ActionChangementStatut, auteur, map[string]any{
		"de": string(from), "vers": string(to), "action": string(action),
	}); err != nil {
		return nil, err
	}
	return d, nil
}

// SoumettreDevisUseCase sends a draft into validation.
type SoumettreDevisUseCase struct {
	Devis   storage.DevisRepository
	Journal storage.JournalRepository
}

func (uc SoumettreDevisUseCase) Execute(ctx context.Context, id int64, role devis.Role, auteur int64) (*devis.Devis, error) {
	w := workflowDeps{uc.Devis, uc.Journal}
	return w.transition(ctx, id, role, devis.ActSoumettre, devis.StatutEnValidation, auteur)
}

// ValiderDevisUseCase approves a devis waiting in validation. The
// amount rule applies: HT at or above the threshold needs an admin.
// The statut stays EN_VALIDATION; envoi is a separate act.
type ValiderDevisUseCase struct {
	Devis   storage.DevisRepository
	Journal storage.JournalRepository
}

func (uc ValiderDevisUseCase) Execute(ctx context.Context, id int64, role devis.Role, auteur int64) (*devis.Devis, error) {
	d, err := uc.Devis.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Statut != devis.StatutEnValidation {
		return nil, devis.ErrTransitionInvalide(d.Statut, devis.StatutEnValidation)
	}
	if err := devis.AutoriserValidation(role, d.TotalHT); err != nil {
		return nil, err
	}
	if err := journaliser(ctx, uc.Journal, d.ID, devis.ActionChangementStatut, auteur, map[string]any{
		"action": string(devis.ActValider), "total_ht": d.TotalHT.StringFixed(2),
	}); err != nil {
		return nil, err
	}
	return d, nil
}

// RetournerBrouillonUseCase pulls a devis out of validation.
type RetournerBrouillonUseCase struct {
	Devis   storage.DevisRepository
	Journal storage.JournalRepository
}

func (uc RetournerBrouillonUseCase) Execute(ctx context.Context, id int64, role devis.Role, auteur int64) (*devis.Devis, error) {
	w := workflowDeps{uc.Devis, uc.Journal}
	return w.transition(ctx, id, role, devis.ActRetournerBrouillon, devis.StatutBrouillon, auteur)
}

// EnvoyerDevisUseCase sends the devis to the client: statut ENVOYE,
// envoi date stamped, relances planned when the config is active.
type EnvoyerDevisUseCase struct {
	Devis     storage.DevisRepository
	Journal   storage.JournalRepository
	Planifier PlanifierRelancesUseCase
}

func (uc EnvoyerDevisUseCase) Execute(ctx context.Context, id int64, role devis.Role, auteur int64) (*devis.Devis, error) {
	w := workflowDeps{uc.Devis, uc.Journal}
	d, err := w.transition(ctx, id, role, devis.ActEnvoyer, devis.StatutEnvoye, auteur)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	d.DateEnvoi = &now
	if err := uc.Devis.Save(ctx, d); err != nil {
		return nil, err
	}
	if d.ConfigRelances.Actif {
		if _, err := uc.Planifier.Execute(ctx, d.ID, auteur); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// MarquerVuUseCase records that the client opened the devis.
type MarquerVuUseCase struct {
	Devis   storage.DevisRepository
	Journal storage.JournalRepository
}

func (uc MarquerVuUseCase) Execute(ctx context.Context, id int64, role devis.Role, auteur int64) (*devis.Devis, error) {
	w := workflowDeps{uc.Devis, uc.Journal}
	return w.transition(ctx, id, role, devis.ActMarquerVu, devis.StatutVu, auteur)
}

// NegocierDevisUseCase opens (or reopens, from EXPIRE) a negotiation.
type NegocierDevisUseCase struct {
	Devis   storage.DevisRepository
	Journal storage.JournalRepository
}

func (uc NegocierDevisUseCase) Execute(ctx context.Context, id int64, role devis.Role, auteur int64) (*devis.Devis, error) {
	w := workflowDeps{uc.Devis, uc.Journal}
	return w.transition(ctx, id, role, devis.ActNegocier, devis.StatutEnNegociation, auteur)
}

// AccepterDevisUseCase closes the devis as won and sweeps pending
// relances.
type AccepterDevisUseCase struct {
	Devis   storage.DevisRepository
	Journal storage.JournalRepository
	Annuler AnnulerRelancesUseCase
}

func (uc AccepterDevisUseCase) Execute(ctx context.Context, id int64, role devis.Role, auteur int64) (*devis.Devis, error) {
	w := workflowDeps{uc.Devis, uc.Journal}
	d, err := w.transition(ctx, id, role, devis.ActAccepter, devis.StatutAccepte, auteur)
	if err != nil {
		return nil, err
	}
	if _, err := uc.Annuler.Execute(ctx, id, auteur); err != nil {
		return nil, err
	}
	return d, nil
}

// RefuserDevisUseCase closes the devis as declined.
type RefuserDevisUseCase struct {
	Devis   storage.DevisRepository
	Journal storage.JournalRepository
	Annuler AnnulerRelancesUseCase
}

func (uc RefuserDevisUseCase) Execute(ctx context.Context, id int64, role devis.Role, auteur int64) (*devis.Devis, error) {
	w := workflowDeps{uc.Devis, uc.Journal}
	d, err := w.transition(ctx, id, role, devis.ActRefuser, devis.StatutRefuse, auteur)
	if err != nil {
		return nil, err
	}
	if _, err := uc.Annuler.Execute(ctx, id, auteur); err != nil {
		return nil, err
	}
	return d, nil
}

// MarquerPerduUseCase closes a negotiation that went nowhere.
type MarquerPerduUseCase struct {
	Devis   storage.DevisRepository
	Journal storage.JournalRepository
	Annuler AnnulerRelancesUseCase
}

func (uc MarquerPerduUseCase) Execute(ctx context.Context, id int64, role devis.Role, auteur int64) (*devis.Devis, error) {
	w := workflowDeps{uc.Devis, uc.Journal}
	d, err := w.transition(ctx, id, role, devis.ActPerdu, devis.StatutPerdu, auteur)
	if err != nil {
		return nil, err
	}
	if _, err := uc.Annuler.Execute(ctx, id, auteur); err != nil {
		return nil, err
	}
	return d, nil
}

// ExpirerDevisUseCase is the batch sweep over past-validity devis.
type ExpirerDevisUseCase struct {
	Devis   storage.DevisRepository
	Journal storage.JournalRepository
}

// Execute expires every ENVOYE/VU devis whose validity date is past,
// and returns how many moved.
func (uc ExpirerDevisUseCase) Execute(ctx context.Context, role devis.Role, auteur int64) (int, error) {
	if err := devis.AutoriserAction(devis.ActExpirer, role); err != nil {
		return 0, err
	}
	expires, err := uc.Devis.FindExpires(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	n := 0
	for _, d := range expires {
		from := d.Statut
		if err := d.TransitionnerVers(devis.StatutExpire); err != nil {
			return n, err
		}
		if err := uc.Devis.Save(ctx, d); err != nil {
			return n, err
		}
		if err := journaliser(ctx, uc.Journal, d.ID, devis.ActionChangementStatut, auteur, map[string]any{
			"de": string(from), "vers": string(devis.StatutExpire), "action": string(devis.ActExpirer),
		}); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
