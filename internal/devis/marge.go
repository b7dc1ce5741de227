package devis

// NiveauMarge is the level that won the margin resolution, reported for
// traceability.
type NiveauMarge string

const (
	NiveauLigne        NiveauMarge = "ligne"
	NiveauLot          NiveauMarge = "lot"
	NiveauTypeDebourse NiveauMarge = "type_debourse"
	NiveauGlobal       NiveauMarge = "global"
)

// ResolutionMarge is the outcome of a margin resolution.
type ResolutionMarge struct {
	Taux          float64      `json:"taux"` // percent
	Niveau        NiveauMarge  `json:"niveau"`
	TypePrincipal TypeDebourse `json:"type_principal,omitempty"`
}

// MargeService resolves the margin rate applicable to one line.
// Precedence: line override, then lot override, then the devis rate for
// the line's principal debourse kind, then the devis global rate.
type MargeService struct {
	Debourse DebourseService
}

// ResoudreMarge picks the applicable rate and reports the winning
// level. The principal kind is computed from the details even when a
// stronger level wins, so callers can trace the weight structure.
func (s MargeService) ResoudreMarge(ligneMarge, lotMarge *float64, d *Devis, details []DebourseDetail) ResolutionMarge {
	principal := s.Debourse.Ventiler(0, details).TypePrincipal

	if ligneMarge != nil {
		return ResolutionMarge{Taux: *ligneMarge, Niveau: NiveauLigne, TypePrincipal: principal}
	}
	if lotMarge != nil {
		return ResolutionMarge{Taux: *lotMarge, Niveau: NiveauLot, TypePrincipal: principal}
	}
	if principal != "" {
		if taux, ok := d.MargePourType(principal); ok {
			return ResolutionMarge{Taux: taux, Niveau: NiveauTypeDebourse, TypePrincipal: principal}
		}
	}
	return ResolutionMarge{Taux: d.MargeGlobale, Niveau: NiveauGlobal, TypePrincipal: principal}
}
