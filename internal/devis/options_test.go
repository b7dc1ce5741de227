package devis

import "testing"

func TestOptionsParTemplate_EnsembleFerme(t *testing.T) {
	for _, template := range []string{TemplateStandard, TemplateSimplifie, TemplateDetaille, TemplateMinimaliste} {
		o, err := OptionsParTemplate(template)
		if err != nil {
			t.Errorf("OptionsParTemplate(%s): %v", template, err)
		}
		if o.Template != template {
			t.Errorf("template = %q, want %q", o.Template, template)
		}
	}
	if _, err := OptionsParTemplate("luxe"); err == nil {
		t.Error("template inconnu accepté")
	} else if !IsCode(err, CodeOptionsInvalides) {
		t.Errorf("code = %s, want OPTIONS_PRESENTATION_INVALIDES", CodeOf(err))
	}
}

// La vue client ne révèle jamais les débours, quel que soit le chemin.
func TestOptions_DeboursesToujoursMasques(t *testing.T) {
	o, err := NewOptionsPresentation(OptionsPresentation{
		Template:          TemplateDetaille,
		AfficherDebourses: true,
	})
	if err != nil {
		t.Fatalf("NewOptionsPresentation: %v", err)
	}
	if o.AfficherDebourses {
		t.Error("AfficherDebourses non forcé à false par le constructeur")
	}

	brut := OptionsPresentation{Template: TemplateStandard, AfficherDebourses: true}
	if brut.Normaliser().AfficherDebourses {
		t.Error("AfficherDebourses non forcé à false par Normaliser")
	}

	for name := range templates {
		o, _ := OptionsParTemplate(name)
		if o.AfficherDebourses {
			t.Errorf("template %s expose les débours", name)
		}
	}
}

// Des options à valeur zéro (devis jamais configuré, ligne de base en
// base) se normalisent vers le template standard.
func TestOptions_NormaliserTemplateVide(t *testing.T) {
	o := OptionsPresentation{}.Normaliser()
	if o.Template != TemplateStandard {
		t.Errorf("template = %q, want standard", o.Template)
	}
	garde := OptionsPresentation{Template: TemplateSimplifie, AfficherRetenue: true}.Normaliser()
	if garde.Template != TemplateSimplifie || !garde.AfficherRetenue {
		t.Errorf("options explicites altérées: %+v", garde)
	}
}

func TestNewOptionsPresentation_TemplateVide(t *testing.T) {
	o, err := NewOptionsPresentation(OptionsPresentation{AfficherQuantites: true})
	if err != nil {
		t.Fatalf("NewOptionsPresentation: %v", err)
	}
	if o.Template != TemplateStandard {
		t.Errorf("template = %q, want standard par défaut", o.Template)
	}
	if !o.AfficherQuantites {
		t.Error("drapeaux personnalisés écrasés")
	}
}
