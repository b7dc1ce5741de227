package usecase

import (
	"context"
	"time"

	"baticore/internal/devis"
	"baticore/internal/storage"
)

// CreerAttestationTVAUseCase emits the CERFA cover of a reduced-rate
// devis. One attestation per devis; rate 20 (or 0) is not eligible.
type CreerAttestationTVAUseCase struct {
	Devis        storage.DevisRepository
	Attestations storage.AttestationRepository
	Journal      storage.JournalRepository
}

func (uc CreerAttestationTVAUseCase) Execute(ctx context.Context, devisID int64, adresseImmeuble, natureTravaux string, plusDeDeuxAns bool, auteur int64) (*devis.AttestationTVA, error) {
	d, err := uc.Devis.FindByID(ctx, devisID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.Attestations.FindByDevis(ctx, devisID); err == nil {
		return nil, devis.ErrAttestationDejaExistante(devisID)
	}

	a, err := devis.NouvelleAttestationTVA(d, d.TauxTVADefaut, adresseImmeuble, natureTravaux, plusDeDeuxAns, auteur)
	if err != nil {
		return nil, err
	}
	if err := uc.Attestations.Save(ctx, a); err != nil {
		return nil, err
	}
	if err := journaliser(ctx, uc.Journal, devisID, devis.ActionAttestationTVA, auteur, map[string]any{
		"cerfa": a.TypeCERFA, "taux": a.TauxTVA.String(),
	}); err != nil {
		return nil, err
	}
	return a, nil
}

// SignerAttestationUseCase records the client signatory on the
// attestation, making it opposable.
type SignerAttestationUseCase struct {
	Attestations storage.AttestationRepository
	Journal      storage.JournalRepository
}

func (uc SignerAttestationUseCase) Execute(ctx context.Context, devisID int64, signataire string, auteur int64) (*devis.AttestationTVA, error) {
	a, err := uc.Attestations.FindByDevis(ctx, devisID)
	if err != nil {
		return nil, err
	}
	if err := a.Signer(signataire, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := uc.Attestations.Save(ctx, a); err != nil {
		return nil, err
	}
	if err := journaliser(ctx, uc.Journal, devisID, devis.ActionAttestationTVA, auteur, map[string]any{
		"signataire": signataire,
	}); err != nil {
		return nil, err
	}
	return a, nil
}
