package devis

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewTauxTVA_EnsembleFerme(t *testing.T) {
	for _, v := range []float64{0, 5.5, 10, 20} {
		if _, err := NewTauxTVA(v); err != nil {
			t.Errorf("NewTauxTVA(%v): %v", v, err)
		}
	}
	for _, v := range []float64{5, 19.6, 21, -1, 7.7} {
		_, err := NewTauxTVA(v)
		if err == nil {
			t.Errorf("NewTauxTVA(%v) accepté", v)
			continue
		}
		if !IsCode(err, CodeTauxTVAInvalide) {
			t.Errorf("NewTauxTVA(%v) code = %s, want TAUX_TVA_INVALIDE", v, CodeOf(err))
		}
	}
}

func TestTauxTVA_AttestationEtCERFA(t *testing.T) {
	cases := []struct {
		taux        TauxTVA
		attestation bool
		cerfa       string
	}{
		{TVA0, false, ""},
		{TVA55, true, "1301-SD"},
		{TVA10, true, "1300-SD"},
		{TVA20, false, ""},
	}
	for _, c := range cases {
		if got := c.taux.NecessiteAttestation(); got != c.attestation {
			t.Errorf("%s.NecessiteAttestation() = %v, want %v", c.taux, got, c.attestation)
		}
		if got := c.taux.TypeCERFA(); got != c.cerfa {
			t.Errorf("%s.TypeCERFA() = %q, want %q", c.taux, got, c.cerfa)
		}
	}
}

func TestTauxTVA_MontantTTC(t *testing.T) {
	ht := decimal.RequireFromString("100.00")
	cases := []struct {
		taux TauxTVA
		ttc  string
	}{
		{TVA0, "100"},
		{TVA55, "105.5"},
		{TVA10, "110"},
		{TVA20, "120"},
	}
	for _, c := range cases {
		got := c.taux.MontantTTC(ht)
		if !got.Equal(decimal.RequireFromString(c.ttc)) {
			t.Errorf("TTC à %s%% = %s, want %s", c.taux, got, c.ttc)
		}
	}
}

func TestTauxDefautPourChantier_Politique(t *testing.T) {
	cases := []struct {
		travaux       TypeTravaux
		plusDeDeuxAns bool
		habitation    bool
		want          TauxTVA
	}{
		{TravauxRenovationEnergetique, true, true, TVA55},
		{TravauxRenovation, true, true, TVA10},
		{TravauxRenovation, false, true, TVA20},
		{TravauxRenovation, true, false, TVA20},
		{TravauxRenovationEnergetique, false, true, TVA20},
		{TravauxNeuf, true, true, TVA20},
		{TravauxNeuf, false, false, TVA20},
	}
	for _, c := range cases {
		got := TauxDefautPourChantier(c.travaux, c.plusDeDeuxAns, c.habitation)
		if got != c.want {
			t.Errorf("TauxDefautPourChantier(%s, %v, %v) = %s, want %s",
				c.travaux, c.plusDeDeuxAns, c.habitation, got, c.want)
		}
	}
}

func TestTauxTVA_String(t *testing.T) {
	if TVA55.String() != "5.5" {
		t.Errorf("TVA55.String() = %q, want 5.5", TVA55.String())
	}
	if TVA20.String() != "20" {
		t.Errorf("TVA20.String() = %q, want 20", TVA20.String())
	}
}
