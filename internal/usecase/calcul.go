package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"baticore/internal/devis"
	"baticore/internal/storage"
)

// RecalculerTotauxUseCase reruns the cost buildup over the whole tree,
// persists the three levels and journals the aggregate figures.
type RecalculerTotauxUseCase struct {
	Devis   storage.DevisRepository
	Lots    storage.LotRepository
	Lignes  storage.LigneRepository
	Journal storage.JournalRepository
	Calcul  devis.CalculService
}

func (uc RecalculerTotauxUseCase) Execute(ctx context.Context, devisID, auteur int64) (devis.TotauxDevis, error) {
	d, err := uc.Devis.FindByID(ctx, devisID)
	if err != nil {
		return devis.TotauxDevis{}, err
	}
	if d.VersionFigee {
		return devis.TotauxDevis{}, devis.ErrVersionFigee(d.Numero)
	}

	rec := recalculateur{Devis: uc.Devis, Lots: uc.Lots, Lignes: uc.Lignes, Calcul: uc.Calcul}
	totaux, err := rec.recalculer(ctx, d)
	if err != nil {
		return devis.TotauxDevis{}, err
	}

	if err := journaliser(ctx, uc.Journal, d.ID, devis.ActionRecalculTotaux, auteur, map[string]any{
		"total_ht":       totaux.TotalHT.StringFixed(2),
		"total_ttc":      totaux.TotalTTC.StringFixed(2),
		"total_debourse": totaux.TotalDebourse.StringFixed(2),
	}); err != nil {
		return devis.TotauxDevis{}, err
	}
	return totaux, nil
}

// DecompositionLigne is the cost view of one line.
type DecompositionLigne struct {
	LigneID     int64                              `json:"ligne_id"`
	Code        string                             `json:"code"`
	Designation string                             `json:"designation"`
	ParType     map[devis.TypeDebourse]decimal.Decimal `json:"par_type"`
	DebourseSec decimal.Decimal                    `json:"debourse_sec"`
	PrixRevient decimal.Decimal                    `json:"prix_revient"`
	MontantHT   decimal.Decimal                    `json:"montant_ht"`
	NiveauMarge devis.NiveauMarge                  `json:"niveau_marge,omitempty"`
}

// DecompositionCouts is the devis-wide cost view: per line, per lot and
// per debourse kind.
type DecompositionCouts struct {
	Lignes  []DecompositionLigne                   `json:"lignes"`
	ParLot  map[int64]decimal.Decimal              `json:"par_lot"`
	ParType map[devis.TypeDebourse]decimal.Decimal `json:"par_type"`
	Total   decimal.Decimal                        `json:"total"`
}

// DecomposerCoutsUseCase projects the internal cost structure. This is
// a back-office view; it never reaches the client document.
type DecomposerCoutsUseCase struct {
	Devis    storage.DevisRepository
	Lignes   storage.LigneRepository
	Debourse devis.DebourseService
}

func (uc DecomposerCoutsUseCase) Execute(ctx context.Context, devisID int64) (*DecompositionCouts, error) {
	if _, err := uc.Devis.FindByID(ctx, devisID); err != nil {
		return nil, err
	}
	lignes, err := uc.Lignes.FindByDevis(ctx, devisID)
	if err != nil {
		return nil, err
	}

	out := &DecompositionCouts{
		ParLot:  make(map[int64]decimal.Decimal),
		ParType: make(map[devis.TypeDebourse]decimal.Decimal),
	}
	for _, l := range lignes {
		v := uc.Debourse.Ventiler(l.ID, l.Debourses)
		out.Lignes = append(out.Lignes, DecompositionLigne{
			LigneID:     l.ID,
			Code:        l.CodeLigne,
			Designation: l.Designation,
			ParType:     v.ParType,
			DebourseSec: v.DebourseSec.Round(2),
			PrixRevient: l.PrixRevient,
			MontantHT:   l.MontantHT,
			NiveauMarge: l.NiveauMarge,
		})
		out.ParLot[l.LotID] = out.ParLot[l.LotID].Add(v.DebourseSec)
		for t, m := range v.ParType {
			out.ParType[t] = out.ParType[t].Add(m)
		}
		out.Total = out.Total.Add(v.DebourseSec)
	}
	out.Total = out.Total.Round(2)
	return out, nil
}
