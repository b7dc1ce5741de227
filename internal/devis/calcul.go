package devis

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TotauxDevis is the three-figure aggregate reported after a recompute.
type TotauxDevis struct {
	TotalHT       decimal.Decimal `json:"total_ht"`
	TotalTTC      decimal.Decimal `json:"total_ttc"`
	TotalDebourse decimal.Decimal `json:"total_debourse"`
}

// CalculService refreshes the cached monetary fields of lines, lots and
// devis. Money is rounded half-up to 2 decimals, unit prices kept at 4.
type CalculService struct {
	Debourse DebourseService
	Marge    MargeService
}

// CalculerLigne refreshes one line. When discharge details exist the
// unit price derives from the cost buildup: debourse sec, overhead,
// then the resolved margin; otherwise the manual unit price stands.
func (s CalculService) CalculerLigne(d *Devis, lot *Lot, ligne *LigneDevis) {
	ventilation := s.Debourse.Ventiler(ligne.ID, ligne.Debourses)
	ligne.DebourseSec = ventilation.DebourseSec.Round(2)

	if len(ligne.Debourses) > 0 {
		prixRevient := s.Debourse.PrixRevient(ventilation.DebourseSec, d.CoefficientFraisGeneraux)
		ligne.PrixRevient = prixRevient.Round(2)

		var lotMarge *float64
		if lot != nil {
			lotMarge = lot.Marge
		}
		res := s.Marge.ResoudreMarge(ligne.Marge, lotMarge, d, ligne.Debourses)
		ligne.NiveauMarge = res.Niveau

		marge := decimal.NewFromFloat(res.Taux).Div(decimal.NewFromInt(100)).Add(decimal.NewFromInt(1))
		prixVente := prixRevient.Mul(marge)
		if ligne.Quantite.IsPositive() {
			ligne.PrixUnitaireHT = prixVente.Div(ligne.Quantite).Round(4)
		}
	} else {
		ligne.PrixRevient = decimal.Zero
		ligne.NiveauMarge = ""
	}

	ligne.MontantHT = ligne.PrixUnitaireHT.Mul(ligne.Quantite).Round(2)
	ligne.MontantTTC = ligne.TauxTVA.MontantTTC(ligne.MontantHT)
}

// CalculerDevis recomputes every active line, rolls lot totals up from
// their own lines, and devis totals from all active lots. Mutates the
// given slices and the devis in place, and returns the aggregate.
func (s CalculService) CalculerDevis(d *Devis, lots []*Lot, lignes []*LigneDevis) TotauxDevis {
	parID := make(map[int64]*Lot, len(lots))
	for _, lot := range lots {
		parID[lot.ID] = lot
	}

	parLot := make(map[int64][]*LigneDevis)
	for _, ligne := range lignes {
		if ligne.DeletedAt != nil {
			continue
		}
		s.CalculerLigne(d, parID[ligne.LotID], ligne)
		parLot[ligne.LotID] = append(parLot[ligne.LotID], ligne)
	}

	var totaux TotauxDevis
	for _, lot := range lots {
		if lot.DeletedAt != nil {
			continue
		}
		lot.TotalHT = decimal.Zero
		lot.TotalTTC = decimal.Zero
		lot.TotalDebourse = decimal.Zero
		for _, ligne := range parLot[lot.ID] {
			lot.TotalHT = lot.TotalHT.Add(ligne.MontantHT)
			lot.TotalTTC = lot.TotalTTC.Add(ligne.MontantTTC)
			lot.TotalDebourse = lot.TotalDebourse.Add(ligne.DebourseSec)
		}
		totaux.TotalHT = totaux.TotalHT.Add(lot.TotalHT)
		totaux.TotalTTC = totaux.TotalTTC.Add(lot.TotalTTC)
		totaux.TotalDebourse = totaux.TotalDebourse.Add(lot.TotalDebourse)
	}

	d.TotalHT = totaux.TotalHT.Round(2)
	d.TotalTTC = totaux.TotalTTC.Round(2)
	return totaux
}

// LigneTVA is one rate bucket of the VAT breakdown.
type LigneTVA struct {
	Taux       TauxTVA         `json:"taux"`
	BaseHT     decimal.Decimal `json:"base_ht"`
	MontantTVA decimal.Decimal `json:"montant_tva"`
	MontantTTC decimal.Decimal `json:"montant_ttc"`
}

// VentilationTVA groups active lines per VAT rate, ascending. The VAT
// amount is computed on the grouped base, the usual presentation on
// French invoices.
func VentilationTVA(lignes []*LigneDevis) []LigneTVA {
	bases := make(map[TauxTVA]decimal.Decimal)
	for _, l := range lignes {
		if l.DeletedAt != nil {
			continue
		}
		bases[l.TauxTVA] = bases[l.TauxTVA].Add(l.MontantHT)
	}

	taux := make([]TauxTVA, 0, len(bases))
	for t := range bases {
		taux = append(taux, t)
	}
	sort.Slice(taux, func(i, j int) bool { return taux[i] < taux[j] })

	out := make([]LigneTVA, 0, len(taux))
	for _, t := range taux {
		base := bases[t].Round(2)
		tva := t.MontantTVA(base)
		out = append(out, LigneTVA{
			Taux:       t,
			BaseHT:     base,
			MontantTVA: tva,
			MontantTTC: base.Add(tva),
		})
	}
	return out
}

// AllocationFrais is the outcome of spreading site expenses: per-lot
// shares for prorata expenses, plus the devis-level remainder.
type AllocationFrais struct {
	ParLot  map[int64]decimal.Decimal `json:"par_lot"`
	Globale decimal.Decimal           `json:"globale"`
	Total   decimal.Decimal           `json:"total"`
}

// RepartirFrais allocates each expense: pinned ones go to their lot,
// prorata ones spread by lot HT weight (the residual cent lands on the
// last lot), global ones stay at devis level.
func RepartirFrais(frais []*FraisChantier, lots []*Lot) AllocationFrais {
	alloc := AllocationFrais{ParLot: make(map[int64]decimal.Decimal)}

	actifs := make([]*Lot, 0, len(lots))
	totalHT := decimal.Zero
	for _, lot := range lots {
		if lot.DeletedAt != nil {
			continue
		}
		actifs = append(actifs, lot)
		totalHT = totalHT.Add(lot.TotalHT)
	}

	for _, f := range frais {
		alloc.Total = alloc.Total.Add(f.MontantHT)

		if f.LotID > 0 {
			alloc.ParLot[f.LotID] = alloc.ParLot[f.LotID].Add(f.MontantHT)
			continue
		}
		if f.Repartition != RepartitionProrata || totalHT.IsZero() || len(actifs) == 0 {
			alloc.Globale = alloc.Globale.Add(f.MontantHT)
			continue
		}

		reste := f.MontantHT
		for i, lot := range actifs {
			var part decimal.Decimal
			if i == len(actifs)-1 {
				part = reste
			} else {
				part = f.MontantHT.Mul(lot.TotalHT).Div(totalHT).Round(2)
				reste = reste.Sub(part)
			}
			alloc.ParLot[lot.ID] = alloc.ParLot[lot.ID].Add(part)
		}
	}
	return alloc
}
