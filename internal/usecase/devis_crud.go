package usecase

import (
	"context"
	"time"

	"baticore/internal/config"
	"baticore/internal/devis"
	"baticore/internal/storage"
)

// ParamsCreationDevis is the creation input. Zero optional fields take
// the platform defaults.
type ParamsCreationDevis struct {
	ClientNom       string
	ClientAdresse   string
	ClientEmail     string
	ClientTelephone string
	Objet           string

	CommercialID int64
	ConducteurID int64

	TauxTVA         *float64
	MargeGlobale    *float64
	Coefficient     *float64
	RetenuePct      *float64
	ValiditeJours   *int
	Options         *devis.OptionsPresentation
}

// CreerDevisUseCase opens a devis in BROUILLON under the next
// DEV-YYYY-NNN number.
type CreerDevisUseCase struct {
	Devis   storage.DevisRepository
	Journal storage.JournalRepository
	Config  *config.Config
	Num     devis.NumerotationService
}

func (uc CreerDevisUseCase) Execute(ctx context.Context, params ParamsCreationDevis, auteur int64) (*devis.Devis, error) {
	now := time.Now().UTC()

	tva := uc.Config.TauxTVADefaut
	if params.TauxTVA != nil {
		tva = *params.TauxTVA
	}
	tauxTVA, err := devis.NewTauxTVA(tva)
	if err != nil {
		return nil, err
	}
	retenuePct := uc.Config.RetenueGarantiePct
	if params.RetenuePct != nil {
		retenuePct = *params.RetenuePct
	}
	retenue, err := devis.NewRetenueGarantie(retenuePct)
	if err != nil {
		return nil, err
	}

	marge := uc.Config.MargeGlobaleDefaut
	if params.MargeGlobale != nil {
		marge = *params.MargeGlobale
	}
	coef := uc.Config.CoefficientFraisGeneraux
	if params.Coefficient != nil {
		coef = *params.Coefficient
	}
	validite := uc.Config.ValiditeJours
	if params.ValiditeJours != nil {
		validite = *params.ValiditeJours
	}
	options := devis.OptionsPresentation{}
	if params.Options != nil {
		if options, err = devis.NewOptionsPresentation(*params.Options); err != nil {
			return nil, err
		}
	} else if options, err = devis.OptionsParTemplate(devis.TemplateStandard); err != nil {
		return nil, err
	}

	sequence, err := uc.Devis.NextNumeroSequence(ctx, now.Year())
	if err != nil {
		return nil, err
	}

	d := &devis.Devis{
		Numero:          uc.Num.NumeroDevis(now.Year(), sequence),
		ClientNom:       params.ClientNom,
		ClientAdresse:   params.ClientAdresse,
		ClientEmail:     params.ClientEmail,
		ClientTelephone: params.ClientTelephone,
		Objet:           params.Objet,
		Statut:          devis.StatutBrouillon,

		TauxTVADefaut:            tauxTVA,
		MargeGlobale:             marge,
		CoefficientFraisGeneraux: coef,
		RetenueGarantie:          retenue,
		DateValidite:             now.AddDate(0, 0, validite),

		CommercialID: params.CommercialID,
		ConducteurID: params.ConducteurID,

		TypeVersion:   devis.VersionInitiale,
		VersionNumero: 1,

		Options:        options,
		ConfigRelances: devis.ConfigRelancesDefaut(),
		CreatedBy:      auteur,
	}
	if err := d.Valider(); err != nil {
		return nil, err
	}
	if err := uc.Devis.Save(ctx, d); err != nil {
		return nil, err
	}
	if err := journaliser(ctx, uc.Journal, d.ID, devis.ActionCreation, auteur, map[string]any{
		"numero": d.Numero,
	}); err != nil {
		return nil, err
	}
	return d, nil
}

// ParamsModificationDevis updates a devis. Nil fields are untouched.
type ParamsModificationDevis struct {
	ClientNom       *string
	ClientAdresse   *string
	ClientEmail     *string
	ClientTelephone *string
	Objet           *string

	DateValidite  *time.Time
	TauxTVA       *float64
	MargeGlobale  *float64
	MargesParType map[devis.TypeDebourse]float64
	Coefficient   *float64
	RetenuePct    *float64

	Options        *devis.OptionsPresentation
	ConfigRelances *devis.ConfigRelances
}

// ModifierDevisUseCase mutates the header fields of a modifiable
// devis.
type ModifierDevisUseCase struct {
	Devis   storage.DevisRepository
	Journal storage.JournalRepository
}

func (uc ModifierDevisUseCase) Execute(ctx context.Context, id int64, params ParamsModificationDevis, auteur int64) (*devis.Devis, error) {
	d, err := chargerModifiable(ctx, uc.Devis, id)
	if err != nil {
		return nil, err
	}

	if params.ClientNom != nil {
		d.ClientNom = *params.ClientNom
	}
	if params.ClientAdresse != nil {
		d.ClientAdresse = *params.ClientAdresse
	}
	if params.ClientEmail != nil {
		d.ClientEmail = *params.ClientEmail
	}
	if params.ClientTelephone != nil {
		d.ClientTelephone = *params.ClientTelephone
	}
	if params.Objet != nil {
		d.Objet = *params.Objet
	}
	if params.DateValidite != nil {
		d.DateValidite = params.DateValidite.UTC()
	}
	if params.TauxTVA != nil {
		if d.TauxTVADefaut, err = devis.NewTauxTVA(*params.TauxTVA); err != nil {
			return nil, err
		}
	}
	if params.MargeGlobale != nil {
		d.MargeGlobale = *params.MargeGlobale
	}
	if params.MargesParType != nil {
		d.MargesParType = params.MargesParType
	}
	if params.Coefficient != nil {
		d.CoefficientFraisGeneraux = *params.Coefficient
	}
	if params.RetenuePct != nil {
		if d.RetenueGarantie, err = devis.NewRetenueGarantie(*params.RetenuePct); err != nil {
			return nil, err
		}
	}
	if params.Options != nil {
		if d.Options, err = devis.NewOptionsPresentation(*params.Options); err != nil {
			return nil, err
		}
	}
	if params.ConfigRelances != nil {
		d.ConfigRelances = *params.ConfigRelances
	}

	if err := d.Valider(); err != nil {
		return nil, err
	}
	if err := uc.Devis.Save(ctx, d); err != nil {
		return nil, err
	}
	if err := journaliser(ctx, uc.Journal, d.ID, devis.ActionModification, auteur, nil); err != nil {
		return nil, err
	}
	return d, nil
}

// SupprimerDevisUseCase soft-deletes a draft. Frozen versions are
// immutable history; non-drafts are legal documents.
type SupprimerDevisUseCase struct {
	Devis   storage.DevisRepository
	Journal storage.JournalRepository
}

func (uc SupprimerDevisUseCase) Execute(ctx context.Context, id, auteur int64) error {
	d, err := uc.Devis.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if d.VersionFigee {
		return devis.ErrDevisValidation("version %s figée, suppression interdite", d.Numero)
	}
	if !d.EstSupprimable() {
		return devis.ErrDevisNotModifiable(d.Numero, d.Statut)
	}
	if err := uc.Devis.Delete(ctx, id, auteur); err != nil {
		return err
	}
	return journaliser(ctx, uc.Journal, id, devis.ActionSuppression, auteur, map[string]any{
		"numero": d.Numero,
	})
}

// DevisDetail is the full read projection of one devis.
type DevisDetail struct {
	Devis  *devis.Devis        `json:"devis"`
	Lots   []*devis.Lot        `json:"lots"`
	Lignes []*devis.LigneDevis `json:"lignes"`
	Frais  []*devis.FraisChantier `json:"frais,omitempty"`
}

// GetDevisUseCase loads one devis with its tree.
type GetDevisUseCase struct {
	Devis  storage.DevisRepository
	Lots   storage.LotRepository
	Lignes storage.LigneRepository
	Frais  storage.FraisRepository
}

func (uc GetDevisUseCase) Execute(ctx context.Context, id int64) (*DevisDetail, error) {
	d, err := uc.Devis.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	lots, err := uc.Lots.FindByDevis(ctx, id)
	if err != nil {
		return nil, err
	}
	lignes, err := uc.Lignes.FindByDevis(ctx, id)
	if err != nil {
		return nil, err
	}
	frais, err := uc.Frais.FindByDevis(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DevisDetail{Devis: d, Lots: lots, Lignes: lignes, Frais: frais}, nil
}

// ListDevisUseCase searches the devis list.
type ListDevisUseCase struct {
	Devis storage.DevisRepository
}

func (uc ListDevisUseCase) Execute(ctx context.Context, filtre storage.FiltreDevis) ([]*devis.Devis, error) {
	return uc.Devis.FindAll(ctx, filtre)
}
