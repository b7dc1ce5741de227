package usecase

import (
	"context"
	"time"

	"baticore/internal/devis"
	"baticore/internal/storage"
)

// ParamsSignature is the acceptance input captured from the client.
type ParamsSignature struct {
	Type            devis.TypeSignature
	SignataireNom   string
	SignataireEmail string
	Donnees         string
	AdresseIP       string
	UserAgent       string
}

// SignerDevisUseCase records the electronic acceptance: document hash,
// signature row, transition to ACCEPTE, relance sweep.
type SignerDevisUseCase struct {
	Devis      storage.DevisRepository
	Signatures storage.SignatureRepository
	Journal    storage.JournalRepository
	Annuler    AnnulerRelancesUseCase
}

func (uc SignerDevisUseCase) Execute(ctx context.Context, devisID int64, params ParamsSignature) (*devis.SignatureDevis, error) {
	d, err := uc.Devis.FindByID(ctx, devisID)
	if err != nil {
		return nil, err
	}
	switch d.Statut {
	case devis.StatutEnvoye, devis.StatutVu, devis.StatutEnNegociation:
	default:
		return nil, devis.ErrDevisNonSignable(d.Numero, d.Statut)
	}
	remplaceRevoquee := false
	if existante, err := uc.Signatures.FindByDevis(ctx, devisID); err == nil {
		if existante.Valide {
			return nil, devis.ErrDevisDejaSigne(d.Numero)
		}
		// Re-signing after a revocation overwrites the revoked row; the
		// journal keeps the trace the row loses.
		remplaceRevoquee = true
	}

	now := time.Now().UTC()
	sig := &devis.SignatureDevis{
		DevisID:         devisID,
		Type:            params.Type,
		SignataireNom:   params.SignataireNom,
		SignataireEmail: params.SignataireEmail,
		Donnees:         params.Donnees,
		AdresseIP:       params.AdresseIP,
		UserAgent:       params.UserAgent,
		DateSignature:   now,
		HashDocument:    devis.HashDocument(d),
		Valide:          true,
	}
	if err := sig.Valider(); err != nil {
		return nil, err
	}
	if err := uc.Signatures.Save(ctx, sig); err != nil {
		return nil, err
	}

	if err := d.TransitionnerVers(devis.StatutAccepte); err != nil {
		return nil, err
	}
	if err := uc.Devis.Save(ctx, d); err != nil {
		return nil, err
	}
	if _, err := uc.Annuler.Execute(ctx, devisID, 0); err != nil {
		return nil, err
	}
	details := map[string]any{
		"signataire": sig.SignataireNom,
		"type":       string(sig.Type),
		"hash":       sig.HashDocument,
	}
	if remplaceRevoquee {
		details["remplace_signature_revoquee"] = true
	}
	if err := journaliser(ctx, uc.Journal, devisID, devis.ActionSignature, 0, details); err != nil {
		return nil, err
	}
	return sig, nil
}

// RevoquerSignatureUseCase cancels an acceptance, admin only. The
// devis leaves its terminal ACCEPTE state by administrative override:
// this edge is deliberately outside the commercial state machine.
type RevoquerSignatureUseCase struct {
	Devis      storage.DevisRepository
	Signatures storage.SignatureRepository
	Journal    storage.JournalRepository
}

func (uc RevoquerSignatureUseCase) Execute(ctx context.Context, devisID int64, role devis.Role, motif string, auteur int64) (*devis.SignatureDevis, error) {
	if err := devis.AutoriserAction(devis.ActRevoquerSignature, role); err != nil {
		return nil, err
	}
	sig, err := uc.Signatures.FindByDevis(ctx, devisID)
	if err != nil {
		return nil, err
	}
	if err := sig.Revoquer(auteur, motif, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := uc.Signatures.Save(ctx, sig); err != nil {
		return nil, err
	}

	d, err := uc.Devis.FindByID(ctx, devisID)
	if err != nil {
		return nil, err
	}
	d.Statut = devis.StatutEnNegociation
	if err := uc.Devis.Save(ctx, d); err != nil {
		return nil, err
	}
	if err := journaliser(ctx, uc.Journal, devisID, devis.ActionRevocationSignature, auteur, map[string]any{
		"motif": motif,
	}); err != nil {
		return nil, err
	}
	return sig, nil
}

// VerificationSignature is the integrity report of a signed devis.
type VerificationSignature struct {
	EstSigne        bool   `json:"est_signe"`
	EstValide       bool   `json:"est_valide"`
	HashsConcordent bool   `json:"hashs_concordent"`
	Message         string `json:"message"`
}

// VerifierSignatureUseCase recomputes the document hash and reports
// whether the signed snapshot still matches the devis.
type VerifierSignatureUseCase struct {
	Devis      storage.DevisRepository
	Signatures storage.SignatureRepository
}

func (uc VerifierSignatureUseCase) Execute(ctx context.Context, devisID int64) (*VerificationSignature, error) {
	d, err := uc.Devis.FindByID(ctx, devisID)
	if err != nil {
		return nil, err
	}
	sig, err := uc.Signatures.FindByDevis(ctx, devisID)
	if err != nil {
		if devis.IsCode(err, devis.CodeSignatureNotFound) {
			return &VerificationSignature{Message: "devis non signé"}, nil
		}
		return nil, err
	}

	v := &VerificationSignature{
		EstSigne:        true,
		EstValide:       sig.Valide,
		HashsConcordent: devis.VerifierHash(d, sig.HashDocument),
	}
	switch {
	case !sig.Valide:
		v.Message = "signature révoquée: " + sig.MotifRevocation
	case !v.HashsConcordent:
		v.Message = "le devis a été modifié depuis la signature, intégrité rompue"
	default:
		v.Message = "signature valide, document intègre"
	}
	return v, nil
}
