package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"baticore/internal/devis"
	"baticore/internal/storage"
)

// ParamsMarges carries a bulk margin update. Nil map values clear the
// override at that level, a non-nil value sets it.
type ParamsMarges struct {
	MargeGlobale *float64
	ParType      map[devis.TypeDebourse]*float64
	ParLot       map[int64]*float64
	ParLigne     map[int64]*float64
}

// AppliquerMargesUseCase rewrites margin overrides at any combination
// of levels, then reruns the cost buildup so every cached price
// reflects the new resolution.
type AppliquerMargesUseCase struct {
	Devis   storage.DevisRepository
	Lots    storage.LotRepository
	Lignes  storage.LigneRepository
	Journal storage.JournalRepository
	Calcul  devis.CalculService
}

func (uc AppliquerMargesUseCase) Execute(ctx context.Context, devisID int64, params ParamsMarges, auteur int64) (devis.TotauxDevis, error) {
	d, err := chargerModifiable(ctx, uc.Devis, devisID)
	if err != nil {
		return devis.TotauxDevis{}, err
	}

	if params.MargeGlobale != nil {
		if *params.MargeGlobale < 0 {
			return devis.TotauxDevis{}, devis.ErrDevisValidation("marge globale négative")
		}
		d.MargeGlobale = *params.MargeGlobale
	}
	for t, taux := range params.ParType {
		if taux == nil {
			delete(d.MargesParType, t)
			continue
		}
		if *taux < 0 {
			return devis.TotauxDevis{}, devis.ErrDevisValidation("marge négative pour le type %s", t)
		}
		if d.MargesParType == nil {
			d.MargesParType = make(map[devis.TypeDebourse]float64)
		}
		d.MargesParType[t] = *taux
	}

	for lotID, taux := range params.ParLot {
		lot, err := uc.Lots.FindByID(ctx, lotID)
		if err != nil {
			return devis.TotauxDevis{}, err
		}
		if lot.DevisID != devisID {
			return devis.TotauxDevis{}, devis.ErrDevisValidation("lot %d hors du devis %d", lotID, devisID)
		}
		lot.Marge = taux
		if err := lot.Valider(); err != nil {
			return devis.TotauxDevis{}, err
		}
		if err := uc.Lots.Save(ctx, lot); err != nil {
			return devis.TotauxDevis{}, err
		}
	}
	for ligneID, taux := range params.ParLigne {
		ligne, err := uc.Lignes.FindByID(ctx, ligneID)
		if err != nil {
			return devis.TotauxDevis{}, err
		}
		if ligne.DevisID != devisID {
			return devis.TotauxDevis{}, devis.ErrDevisValidation("ligne %d hors du devis %d", ligneID, devisID)
		}
		ligne.Marge = taux
		if err := ligne.Valider(); err != nil {
			return devis.TotauxDevis{}, err
		}
		if err := uc.Lignes.Save(ctx, ligne); err != nil {
			return devis.TotauxDevis{}, err
		}
	}

	recalc := recalculateur{Devis: uc.Devis, Lots: uc.Lots, Lignes: uc.Lignes, Calcul: uc.Calcul}
	totaux, err := recalc.recalculer(ctx, d)
	if err != nil {
		return devis.TotauxDevis{}, err
	}

	if err := journaliser(ctx, uc.Journal, devisID, devis.ActionApplicationMarges, auteur, map[string]any{
		"nb_lots":   len(params.ParLot),
		"nb_lignes": len(params.ParLigne),
		"total_ht":  totaux.TotalHT.StringFixed(2),
	}); err != nil {
		return devis.TotauxDevis{}, err
	}
	return totaux, nil
}

// MargeLigne is the effective margin of one line in the analysis view.
type MargeLigne struct {
	LigneID        int64             `json:"ligne_id"`
	CodeLigne      string            `json:"code_ligne"`
	Designation    string            `json:"designation"`
	Niveau         devis.NiveauMarge `json:"niveau,omitempty"`
	PrixRevient    decimal.Decimal   `json:"prix_revient"`
	MontantHT      decimal.Decimal   `json:"montant_ht"`
	MargeEffective decimal.Decimal   `json:"marge_effective"` // percent
}

// MargeLot aggregates the analysis per lot.
type MargeLot struct {
	LotID          int64           `json:"lot_id"`
	CodeLot        string          `json:"code_lot"`
	Titre          string          `json:"titre"`
	PrixRevient    decimal.Decimal `json:"prix_revient"`
	MontantHT      decimal.Decimal `json:"montant_ht"`
	MargeEffective decimal.Decimal `json:"marge_effective"`
	Lignes         []MargeLigne    `json:"lignes"`
}

// AnalyseMarges is the full report: effective margins realized at each
// level, computed from cached costs rather than configured rates, so
// manually-priced lines show their true markup.
type AnalyseMarges struct {
	DevisID        int64           `json:"devis_id"`
	Numero         string          `json:"numero"`
	PrixRevient    decimal.Decimal `json:"prix_revient"`
	MontantHT      decimal.Decimal `json:"montant_ht"`
	MargeEffective decimal.Decimal `json:"marge_effective"`
	Lots           []MargeLot      `json:"lots"`
}

// AnalyserMargesUseCase computes the effective-margin report of a devis.
type AnalyserMargesUseCase struct {
	Devis  storage.DevisRepository
	Lots   storage.LotRepository
	Lignes storage.LigneRepository
}

func (uc AnalyserMargesUseCase) Execute(ctx context.Context, devisID int64) (*AnalyseMarges, error) {
	d, err := uc.Devis.FindByID(ctx, devisID)
	if err != nil {
		return nil, err
	}
	lots, err := uc.Lots.FindByDevis(ctx, devisID)
	if err != nil {
		return nil, err
	}
	lignes, err := uc.Lignes.FindByDevis(ctx, devisID)
	if err != nil {
		return nil, err
	}

	parLot := make(map[int64][]*devis.LigneDevis)
	for _, l := range lignes {
		parLot[l.LotID] = append(parLot[l.LotID], l)
	}

	analyse := &AnalyseMarges{DevisID: d.ID, Numero: d.Numero}
	for _, lot := range lots {
		vue := MargeLot{LotID: lot.ID, CodeLot: lot.CodeLot, Titre: lot.Titre}
		for _, l := range parLot[lot.ID] {
			ml := MargeLigne{
				LigneID:     l.ID,
				CodeLigne:   l.CodeLigne,
				Designation: l.Designation,
				Niveau:      l.NiveauMarge,
				PrixRevient: l.PrixRevient,
				MontantHT:   l.MontantHT,
			}
			ml.MargeEffective = margeEffective(l.MontantHT, l.PrixRevient)
			vue.PrixRevient = vue.PrixRevient.Add(l.PrixRevient)
			vue.MontantHT = vue.MontantHT.Add(l.MontantHT)
			vue.Lignes = append(vue.Lignes, ml)
		}
		vue.MargeEffective = margeEffective(vue.MontantHT, vue.PrixRevient)
		analyse.PrixRevient = analyse.PrixRevient.Add(vue.PrixRevient)
		analyse.MontantHT = analyse.MontantHT.Add(vue.MontantHT)
		analyse.Lots = append(analyse.Lots, vue)
	}
	analyse.MargeEffective = margeEffective(analyse.MontantHT, analyse.PrixRevient)
	return analyse, nil
}

// margeEffective computes (vente/revient − 1) × 100, 2 decimals. A zero
// cost base yields zero: no meaningful markup on a free line.
func margeEffective(vente, revient decimal.Decimal) decimal.Decimal {
	if revient.IsZero() {
		return decimal.Zero
	}
	cent := decimal.NewFromInt(100)
	return vente.Div(revient).Sub(decimal.NewFromInt(1)).Mul(cent).Round(2)
}
