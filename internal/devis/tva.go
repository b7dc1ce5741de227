package devis

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// TauxTVA is a French VAT rate. The BTP set is closed: {0, 5.5, 10, 20}.
// Reduced rates (5.5, 10) require a CERFA attestation from the client.
type TauxTVA float64

const (
	TVA0  TauxTVA = 0
	TVA55 TauxTVA = 5.5
	TVA10 TauxTVA = 10
	TVA20 TauxTVA = 20
)

// TypeTravaux qualifies the nature of the works for the default-rate policy.
type TypeTravaux string

const (
	TravauxNeuf                  TypeTravaux = "NEUF"
	TravauxRenovation            TypeTravaux = "RENOVATION"
	TravauxRenovationEnergetique TypeTravaux = "RENOVATION_ENERGETIQUE"
)

// NewTauxTVA validates membership in the closed set.
func NewTauxTVA(valeur float64) (TauxTVA, error) {
	t := TauxTVA(valeur)
	switch t {
	case TVA0, TVA55, TVA10, TVA20:
		return t, nil
	}
	return 0, ErrTauxTVAInvalide(strconv.FormatFloat(valeur, 'f', -1, 64))
}

func (t TauxTVA) String() string {
	return strconv.FormatFloat(float64(t), 'f', -1, 64)
}

// EstValide reports membership in the closed set.
func (t TauxTVA) EstValide() bool {
	switch t {
	case TVA0, TVA55, TVA10, TVA20:
		return true
	}
	return false
}

// NecessiteAttestation reports whether applying t requires a client
// attestation (reduced rates only; 0 and 20 are exempt).
func (t TauxTVA) NecessiteAttestation() bool {
	return t == TVA55 || t == TVA10
}

// TypeCERFA returns the form number backing the reduced rate, or "".
func (t TauxTVA) TypeCERFA() string {
	switch t {
	case TVA55:
		return "1301-SD"
	case TVA10:
		return "1300-SD"
	default:
		return ""
	}
}

// Ratio returns t/100 as a decimal, for amount computations.
func (t TauxTVA) Ratio() decimal.Decimal {
	return decimal.NewFromFloat(float64(t)).Div(decimal.NewFromInt(100))
}

// MontantTVA computes the VAT amount on an HT base, rounded half-up to
// 2 decimals.
func (t TauxTVA) MontantTVA(ht decimal.Decimal) decimal.Decimal {
	return ht.Mul(t.Ratio()).Round(2)
}

// MontantTTC computes round2(ht × (1 + t/100)).
func (t TauxTVA) MontantTTC(ht decimal.Decimal) decimal.Decimal {
	return ht.Mul(decimal.NewFromInt(1).Add(t.Ratio())).Round(2)
}

// TauxDefautPourChantier applies the legal default-rate policy: 5.5 %
// for energy renovation of a dwelling over two years old, 10 % for
// plain renovation of a dwelling over two years old, 20 % otherwise.
func TauxDefautPourChantier(travaux TypeTravaux, plusDeDeuxAns, habitation bool) TauxTVA {
	if habitation && plusDeDeuxAns {
		switch travaux {
		case TravauxRenovationEnergetique:
			return TVA55
		case TravauxRenovation:
			return TVA10
		}
	}
	return TVA20
}
