package devis

import "time"

// TypeRelance is the follow-up channel.
type TypeRelance string

const (
	RelanceEmail     TypeRelance = "EMAIL"
	RelancePush      TypeRelance = "PUSH"
	RelanceEmailPush TypeRelance = "EMAIL_PUSH"
)

// EstValide reports membership in the closed set.
func (t TypeRelance) EstValide() bool {
	switch t {
	case RelanceEmail, RelancePush, RelanceEmailPush:
		return true
	}
	return false
}

// StatutRelance is the lifecycle of one planned follow-up.
type StatutRelance string

const (
	RelancePlanifiee StatutRelance = "PLANIFIEE"
	RelanceEnvoyee   StatutRelance = "ENVOYEE"
	RelanceAnnulee   StatutRelance = "ANNULEE"
)

// ConfigRelances is carried by each devis: which delays after sending
// trigger a follow-up, and on which channel.
type ConfigRelances struct {
	Actif       bool        `json:"actif"`
	DelaisJours []int       `json:"delais_jours"` // strictly increasing, positive
	TypeDefaut  TypeRelance `json:"type_defaut"`
}

// ConfigRelancesDefaut mirrors the platform defaults.
func ConfigRelancesDefaut() ConfigRelances {
	return ConfigRelances{
		Actif:       true,
		DelaisJours: []int{7, 14, 30},
		TypeDefaut:  RelanceEmail,
	}
}

// Valider rejects non-positive or non-increasing delays.
func (c ConfigRelances) Valider() error {
	prev := 0
	for _, d := range c.DelaisJours {
		if d <= 0 {
			return ErrConfigRelancesInvalide("délai de relance %d non positif", d)
		}
		if d <= prev {
			return ErrConfigRelancesInvalide("délais de relance non croissants (%d après %d)", d, prev)
		}
		prev = d
	}
	if len(c.DelaisJours) > 0 && !c.TypeDefaut.EstValide() {
		return ErrConfigRelancesInvalide("type de relance %q inconnu", string(c.TypeDefaut))
	}
	return nil
}

// RelanceDevis is one planned, sent or cancelled follow-up.
type RelanceDevis struct {
	ID       int64         `json:"id"`
	DevisID  int64         `json:"devis_id"`
	Sequence int           `json:"sequence"` // 1-based rank in the plan
	Type     TypeRelance   `json:"type"`
	Statut   StatutRelance `json:"statut"`

	DatePrevue time.Time  `json:"date_prevue"`
	DateEnvoi  *time.Time `json:"date_envoi,omitempty"`
	Message    string     `json:"message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	CreatedBy int64     `json:"created_by"`
}

// Valider checks the intrinsic fields.
func (r *RelanceDevis) Valider() error {
	if r.DevisID <= 0 {
		return ErrRelanceValidation("devis requis")
	}
	if r.Sequence <= 0 {
		return ErrRelanceValidation("séquence de relance non positive")
	}
	if !r.Type.EstValide() {
		return ErrRelanceValidation("type de relance %q inconnu", string(r.Type))
	}
	if r.DatePrevue.IsZero() {
		return ErrRelanceValidation("date prévue requise")
	}
	return nil
}

// EstDue reports whether the relance should be executed now.
func (r *RelanceDevis) EstDue(now time.Time) bool {
	return r.Statut == RelancePlanifiee && !r.DatePrevue.After(now)
}

// Envoyer marks the relance sent.
func (r *RelanceDevis) Envoyer(quand time.Time) error {
	if r.Statut != RelancePlanifiee {
		return ErrRelanceValidation("relance %d au statut %s, envoi impossible", r.ID, r.Statut)
	}
	t := quand.UTC()
	r.Statut = RelanceEnvoyee
	r.DateEnvoi = &t
	return nil
}

// Annuler cancels a planned relance; sent ones are history.
func (r *RelanceDevis) Annuler() bool {
	if r.Statut != RelancePlanifiee {
		return false
	}
	r.Statut = RelanceAnnulee
	return true
}
