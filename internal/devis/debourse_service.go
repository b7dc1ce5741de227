package devis

import "github.com/shopspring/decimal"

// VentilationDebourse is the per-kind breakdown of a line's direct
// costs.
type VentilationDebourse struct {
	LigneID       int64                         `json:"ligne_id"`
	ParType       map[TypeDebourse]decimal.Decimal `json:"par_type"`
	DebourseSec   decimal.Decimal               `json:"debourse_sec"`
	TypePrincipal TypeDebourse                  `json:"type_principal,omitempty"`
}

// DebourseService computes direct-cost breakdowns. Stateless.
type DebourseService struct{}

// Ventiler sums quantite × prix unitaire per kind. The principal kind
// carries the greatest monetary weight; on equal weight the kind seen
// first in the input wins.
func (DebourseService) Ventiler(ligneID int64, details []DebourseDetail) VentilationDebourse {
	v := VentilationDebourse{
		LigneID: ligneID,
		ParType: make(map[TypeDebourse]decimal.Decimal),
	}
	var ordre []TypeDebourse
	for i := range details {
		d := &details[i]
		total := d.Total()
		if _, seen := v.ParType[d.Type]; !seen {
			ordre = append(ordre, d.Type)
		}
		v.ParType[d.Type] = v.ParType[d.Type].Add(total)
		v.DebourseSec = v.DebourseSec.Add(total)
	}
	var best decimal.Decimal
	for _, t := range ordre {
		if v.ParType[t].GreaterThan(best) {
			best = v.ParType[t]
			v.TypePrincipal = t
		}
	}
	return v
}

// PrixRevient applies the overhead coefficient to the debourse sec:
// debourse × (1 + coefficient/100).
func (DebourseService) PrixRevient(debourseSec decimal.Decimal, coefficientFraisGeneraux float64) decimal.Decimal {
	coef := decimal.NewFromFloat(coefficientFraisGeneraux).
		Div(decimal.NewFromInt(100)).
		Add(decimal.NewFromInt(1))
	return debourseSec.Mul(coef)
}

// NouveauDebourseMOE builds a labor detail: hours at an hourly rate for
// a given craft. The unit price carries the rate so the Σ q×pu rule
// holds for every kind.
func NouveauDebourseMOE(designation string, heures, tauxHoraire decimal.Decimal, metier TypeMetier) DebourseDetail {
	return DebourseDetail{
		Type:         DebourseMOE,
		Designation:  designation,
		Quantite:     heures,
		PrixUnitaire: tauxHoraire,
		Metier:       metier,
		TauxHoraire:  tauxHoraire,
	}
}
