package usecase

import (
	"context"
	"fmt"
	"time"

	"baticore/internal/chantier"
	"baticore/internal/devis"
	"baticore/internal/event"
	"baticore/internal/logger"
	"baticore/internal/storage"
)

// ConvertirDevisUseCase turns an accepted, signed devis into a
// work-site through the creation port, then publishes the conversion
// event. The port call is synchronous and authoritative for the
// chantier id; the event is a post-commit notification only.
type ConvertirDevisUseCase struct {
	Devis      storage.DevisRepository
	Lots       storage.LotRepository
	Signatures storage.SignatureRepository
	Journal    storage.JournalRepository
	Port       chantier.CreationPort
	Publisher  event.Publisher
}

func (uc ConvertirDevisUseCase) Execute(ctx context.Context, devisID int64, role devis.Role, auteur int64) (*chantier.Resultat, error) {
	if err := devis.AutoriserAction(devis.ActConvertir, role); err != nil {
		return nil, err
	}
	d, err := uc.Devis.FindByID(ctx, devisID)
	if err != nil {
		return nil, err
	}

	if d.EstConverti() {
		return nil, devis.ErrDevisDejaConverti(d.Numero, d.ChantierID)
	}
	if d.Statut != devis.StatutAccepte {
		return nil, devis.ErrDevisNonConvertible(d.Numero, "statut "+string(d.Statut)+", ACCEPTE requis")
	}
	sig, err := uc.Signatures.FindByDevis(ctx, devisID)
	if err != nil || !sig.Valide {
		return nil, devis.ErrDevisNonConvertible(d.Numero, "aucune signature valide")
	}
	if !d.TotalHT.IsPositive() {
		return nil, devis.ErrDevisNonConvertible(d.Numero, "total HT nul")
	}
	lots, err := uc.Lots.FindByDevis(ctx, devisID)
	if err != nil {
		return nil, err
	}
	if len(lots) == 0 {
		return nil, devis.ErrDevisNonConvertible(d.Numero, "aucun lot actif")
	}

	data := chantier.CreationData{
		Nom:         d.Objet,
		Adresse:     d.ClientAdresse,
		Description: "Chantier issu du devis " + d.Numero,
	}
	if d.ConducteurID != 0 {
		data.ConducteurIDs = []int64{d.ConducteurID}
	}
	budget := chantier.BudgetCreationData{
		MontantInitialHT:   d.TotalHT,
		RetenueGarantiePct: float64(d.RetenueGarantie),
		DevisID:            d.ID,
	}
	lotsBudget := make([]chantier.LotBudgetaireCreationData, 0, len(lots))
	lotsEvent := make([]event.LotConverti, 0, len(lots))
	for _, lot := range lots {
		lotsBudget = append(lotsBudget, chantier.LotBudgetaireCreationData{
			CodeLot:        lot.CodeLot,
			Libelle:        lot.Titre,
			PrixUnitaireHT: lot.TotalDebourse,
			Ordre:          lot.Ordre,
			PrixVenteHT:    lot.TotalHT,
		})
		lotsEvent = append(lotsEvent, event.LotConverti{
			CodeLot:           lot.CodeLot,
			Libelle:           lot.Titre,
			MontantDebourseHT: lot.TotalDebourse,
			MontantVenteHT:    lot.TotalHT,
		})
	}
	lotsBudget = chantier.Normaliser(&budget, lotsBudget)

	res, err := uc.Port.Creer(ctx, data, budget, lotsBudget)
	if err != nil {
		wrapped := devis.ErrConversion(err, d.Numero)
		if jerr := journaliser(ctx, uc.Journal, d.ID, devis.ActionConversionEchec, auteur, map[string]any{
			"erreur": err.Error(),
		}); jerr != nil {
			return nil, jerr
		}
		return nil, wrapped
	}

	// An asynchronous consumer may not return the id; the sentinel 0
	// is patched later.
	d.MarquerConverti(res.ChantierID)
	if err := uc.Devis.Save(ctx, d); err != nil {
		return nil, err
	}

	dateConversion := time.Now().UTC()
	if err := journaliser(ctx, uc.Journal, d.ID, devis.ActionConversion, auteur, map[string]any{
		"chantier_id":   res.ChantierID,
		"code_chantier": res.CodeChantier,
		"nb_lots":       res.NbLotsTransferes,
	}); err != nil {
		return nil, err
	}

	evt := event.DevisConvertEvent{
		DevisID:            d.ID,
		Numero:             d.Numero,
		ClientNom:          d.ClientNom,
		ClientAdresse:      d.ClientAdresse,
		ClientTelephone:    d.ClientTelephone,
		Objet:              d.Objet,
		TotalHT:            d.TotalHT,
		TotalTTC:           d.TotalTTC,
		RetenueGarantiePct: float64(d.RetenueGarantie),
		Lots:               lotsEvent,
		CommercialID:       d.CommercialID,
		ConducteurID:       d.ConducteurID,
		DateConversion:     dateConversion,
	}
	if err := uc.Publisher.Publish(ctx, event.NewEnvelope(event.TypeDevisConverti, evt)); err != nil {
		// The conversion committed; a lost notification does not fail
		// the operation but must leave a trace.
		if jerr := journaliser(ctx, uc.Journal, d.ID, devis.ActionPublicationEchec, auteur, map[string]any{
			"type":   event.TypeDevisConverti,
			"erreur": err.Error(),
		}); jerr != nil {
			logger.Warn("EVENT", fmt.Sprintf("publication %s perdue pour %s: %v", event.TypeDevisConverti, d.Numero, err))
		}
	}
	return res, nil
}
