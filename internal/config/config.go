package config

// Config holds application settings (in-memory representation).
// Persistence is handled by internal/storage/sqlite.
type Config struct {
	// Defaults applied to new devis.
	CoefficientFraisGeneraux float64 `json:"coefficient_frais_generaux"` // overhead %, applied on debourse sec
	MargeGlobaleDefaut       float64 `json:"marge_globale_defaut"`       // global margin %, devis level
	TauxTVADefaut            float64 `json:"taux_tva_defaut"`            // 0 | 5.5 | 10 | 20
	ValiditeJours            int     `json:"validite_jours"`             // validity window from creation
	RetenueGarantiePct       float64 `json:"retenue_garantie_pct"`       // 0 | 5 | 10

	// Workflow thresholds.
	SeuilValidationAdmin float64 `json:"seuil_validation_admin"` // HT at or above which valider requires admin

	// Planning capacity model.
	HeuresHebdoParUtilisateur float64 `json:"heures_hebdo_par_utilisateur"` // weekly hours of one active user
	HeuresParJourHomme        float64 `json:"heures_par_jour_homme"`        // hours in one man-day
	DiviseurRecrutement       float64 `json:"diviseur_recrutement"`         // hours of shortfall per recruit

	// Relances.
	RelancesActives     bool   `json:"relances_actives"`
	RelanceDelaisJours  []int  `json:"relance_delais_jours"` // ordered, positive
	RelanceTypeDefaut   string `json:"relance_type_defaut"`  // email | push | email_push
	RelanceMessageDefaut string `json:"relance_message_defaut"`
}

// Default returns a Config with the platform defaults.
func Default() *Config {
	return &Config{
		CoefficientFraisGeneraux:  12,
		MargeGlobaleDefaut:        15,
		TauxTVADefaut:             20,
		ValiditeJours:             30,
		RetenueGarantiePct:        5,
		SeuilValidationAdmin:      50000,
		HeuresHebdoParUtilisateur: 35,
		HeuresParJourHomme:        7,
		DiviseurRecrutement:       35,
		RelancesActives:           true,
		RelanceDelaisJours:        []int{7, 14, 30},
		RelanceTypeDefaut:         "email",
		RelanceMessageDefaut:      "",
	}
}
