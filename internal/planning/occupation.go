package planning

// TauxOccupation rates planned hours against capacity for one week.
type TauxOccupation struct {
	Valeur float64 `json:"valeur"` // planned / capacity; 0 when capacity is 0
}

// NewTauxOccupation computes the ratio; a zero capacity yields 0, never
// a division error nor an alert.
func NewTauxOccupation(planifie, capacite float64) TauxOccupation {
	if capacite <= 0 {
		return TauxOccupation{}
	}
	return TauxOccupation{Valeur: planifie / capacite}
}

// Niveau buckets the ratio: ≤0.6 sous-charge, ≤0.9 normal, ≤1.0
// optimal, beyond surcharge.
func (t TauxOccupation) Niveau() string {
	switch {
	case t.Valeur <= 0.6:
		return "sous-charge"
	case t.Valeur <= 0.9:
		return "normal"
	case t.Valeur <= 1.0:
		return "optimal"
	default:
		return "surcharge"
	}
}

// Couleur maps the bucket to its display color.
func (t TauxOccupation) Couleur() string {
	switch t.Niveau() {
	case "sous-charge":
		return "green"
	case "normal":
		return "cyan"
	case "optimal":
		return "amber"
	default:
		return "red"
	}
}

// Alerte is raised only past full capacity.
func (t TauxOccupation) Alerte() bool {
	return t.Valeur > 1.0
}
