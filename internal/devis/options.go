package devis

// OptionsPresentation drives what the client-facing document shows.
// AfficherDebourses is forced to false by every path that builds or
// loads options: the client view never reveals internal costs.
type OptionsPresentation struct {
	Template              string `json:"template"`
	AfficherQuantites     bool   `json:"afficher_quantites"`
	AfficherPrixUnitaires bool   `json:"afficher_prix_unitaires"`
	AfficherDetailTVA     bool   `json:"afficher_detail_tva"`
	AfficherRetenue       bool   `json:"afficher_retenue"`
	AfficherSousTotaux    bool   `json:"afficher_sous_totaux"`
	AfficherDebourses     bool   `json:"afficher_debourses"`
}

const (
	TemplateStandard    = "standard"
	TemplateSimplifie   = "simplifie"
	TemplateDetaille    = "detaille"
	TemplateMinimaliste = "minimaliste"
)

var templates = map[string]OptionsPresentation{
	TemplateStandard: {
		Template:              TemplateStandard,
		AfficherQuantites:     true,
		AfficherPrixUnitaires: true,
		AfficherDetailTVA:     true,
		AfficherRetenue:       true,
		AfficherSousTotaux:    true,
	},
	TemplateSimplifie: {
		Template:           TemplateSimplifie,
		AfficherQuantites:  true,
		AfficherRetenue:    true,
		AfficherSousTotaux: true,
	},
	TemplateDetaille: {
		Template:              TemplateDetaille,
		AfficherQuantites:     true,
		AfficherPrixUnitaires: true,
		AfficherDetailTVA:     true,
		AfficherRetenue:       true,
		AfficherSousTotaux:    true,
	},
	TemplateMinimaliste: {
		Template: TemplateMinimaliste,
	},
}

// OptionsParTemplate returns the predefined option set for a template
// name.
func OptionsParTemplate(template string) (OptionsPresentation, error) {
	o, ok := templates[template]
	if !ok {
		return OptionsPresentation{}, ErrOptionsInvalides("template %q inconnu", template)
	}
	return o, nil
}

// NewOptionsPresentation validates and normalizes a custom option set.
func NewOptionsPresentation(o OptionsPresentation) (OptionsPresentation, error) {
	if o.Template == "" {
		o.Template = TemplateStandard
	}
	if _, ok := templates[o.Template]; !ok {
		return OptionsPresentation{}, ErrOptionsInvalides("template %q inconnu", o.Template)
	}
	return o.Normaliser(), nil
}

// Normaliser enforces the invariants on an option set of any origin
// (constructor, storage row, import): the client view never reveals
// debourses and a missing template falls back to standard.
func (o OptionsPresentation) Normaliser() OptionsPresentation {
	if o.Template == "" {
		o.Template = TemplateStandard
	}
	o.AfficherDebourses = false
	return o
}
