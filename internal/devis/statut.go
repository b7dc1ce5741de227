package devis

// StatutDevis is the workflow state of a devis. CONVERTI is set by the
// conversion flow after acceptance; it is not an edge of the commercial
// state machine.
type StatutDevis string

const (
	StatutBrouillon     StatutDevis = "BROUILLON"
	StatutEnValidation  StatutDevis = "EN_VALIDATION"
	StatutEnvoye        StatutDevis = "ENVOYE"
	StatutVu            StatutDevis = "VU"
	StatutEnNegociation StatutDevis = "EN_NEGOCIATION"
	StatutAccepte       StatutDevis = "ACCEPTE"
	StatutRefuse        StatutDevis = "REFUSE"
	StatutPerdu         StatutDevis = "PERDU"
	StatutExpire        StatutDevis = "EXPIRE"
	StatutConverti      StatutDevis = "CONVERTI"
)

// transitions is the closed edge table. Absent key or empty slice means
// the state is terminal.
var transitions = map[StatutDevis][]StatutDevis{
	StatutBrouillon:     {StatutEnValidation},
	StatutEnValidation:  {StatutBrouillon, StatutEnvoye},
	StatutEnvoye:        {StatutVu, StatutEnNegociation, StatutAccepte, StatutRefuse, StatutExpire},
	StatutVu:            {StatutEnNegociation, StatutAccepte, StatutRefuse, StatutExpire},
	StatutEnNegociation: {StatutEnvoye, StatutAccepte, StatutRefuse, StatutPerdu},
	StatutExpire:        {StatutEnNegociation},
	StatutAccepte:       {},
	StatutRefuse:        {},
	StatutPerdu:         {},
	StatutConverti:      {},
}

// AllStatuts lists every state in display order.
func AllStatuts() []StatutDevis {
	return []StatutDevis{
		StatutBrouillon, StatutEnValidation, StatutEnvoye, StatutVu,
		StatutEnNegociation, StatutAccepte, StatutRefuse, StatutPerdu,
		StatutExpire, StatutConverti,
	}
}

// EstValide reports whether s is a member of the closed enumeration.
func (s StatutDevis) EstValide() bool {
	_, ok := transitions[s]
	return ok
}

// TransitionsPossibles returns the allowed next states, in table order.
func (s StatutDevis) TransitionsPossibles() []StatutDevis {
	next := transitions[s]
	out := make([]StatutDevis, len(next))
	copy(out, next)
	return out
}

// PeutTransitionnerVers reports whether s → to is an allowed edge.
func (s StatutDevis) PeutTransitionnerVers(to StatutDevis) bool {
	for _, n := range transitions[s] {
		if n == to {
			return true
		}
	}
	return false
}

// EstTerminal reports whether no edge leaves s.
func (s StatutDevis) EstTerminal() bool {
	return len(transitions[s]) == 0
}

// EstModifiable reports whether the devis content may still change.
func (s StatutDevis) EstModifiable() bool {
	return s == StatutBrouillon || s == StatutEnNegociation
}

// Libelle returns the display label.
func (s StatutDevis) Libelle() string {
	switch s {
	case StatutBrouillon:
		return "Brouillon"
	case StatutEnValidation:
		return "En validation"
	case StatutEnvoye:
		return "Envoyé"
	case StatutVu:
		return "Vu"
	case StatutEnNegociation:
		return "En négociation"
	case StatutAccepte:
		return "Accepté"
	case StatutRefuse:
		return "Refusé"
	case StatutPerdu:
		return "Perdu"
	case StatutExpire:
		return "Expiré"
	case StatutConverti:
		return "Converti"
	default:
		return string(s)
	}
}

// Couleur returns the presentation color (hex).
func (s StatutDevis) Couleur() string {
	switch s {
	case StatutBrouillon:
		return "#9ca3af"
	case StatutEnValidation:
		return "#8b5cf6"
	case StatutEnvoye:
		return "#3b82f6"
	case StatutVu:
		return "#06b6d4"
	case StatutEnNegociation:
		return "#f97316"
	case StatutAccepte:
		return "#22c55e"
	case StatutRefuse:
		return "#ef4444"
	case StatutPerdu:
		return "#6b7280"
	case StatutExpire:
		return "#eab308"
	case StatutConverti:
		return "#14b8a6"
	default:
		return "#9ca3af"
	}
}
