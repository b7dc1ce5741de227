package config

import (
	"testing"
)

func TestDefault_Values(t *testing.T) {
	c := Default()
	if c == nil {
		t.Fatal("Default() returned nil")
	}
	if c.CoefficientFraisGeneraux != 12 {
		t.Errorf("CoefficientFraisGeneraux = %v, want 12", c.CoefficientFraisGeneraux)
	}
	if c.MargeGlobaleDefaut != 15 {
		t.Errorf("MargeGlobaleDefaut = %v, want 15", c.MargeGlobaleDefaut)
	}
	if c.TauxTVADefaut != 20 {
		t.Errorf("TauxTVADefaut = %v, want 20", c.TauxTVADefaut)
	}
	if c.ValiditeJours != 30 {
		t.Errorf("ValiditeJours = %v, want 30", c.ValiditeJours)
	}
	if c.SeuilValidationAdmin != 50000 {
		t.Errorf("SeuilValidationAdmin = %v, want 50000", c.SeuilValidationAdmin)
	}
	if c.HeuresHebdoParUtilisateur != 35 {
		t.Errorf("HeuresHebdoParUtilisateur = %v, want 35", c.HeuresHebdoParUtilisateur)
	}
	if c.HeuresParJourHomme != 7 {
		t.Errorf("HeuresParJourHomme = %v, want 7", c.HeuresParJourHomme)
	}
	if got := len(c.RelanceDelaisJours); got != 3 {
		t.Errorf("len(RelanceDelaisJours) = %d, want 3", got)
	}
}
