package devis

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// RetenueGarantie is the percentage of TTC withheld pending final
// acceptance of the works. Closed set: {0, 5, 10}.
type RetenueGarantie float64

const (
	RetenueAucune RetenueGarantie = 0
	RetenueCinq   RetenueGarantie = 5
	RetenueDix    RetenueGarantie = 10
)

// NewRetenueGarantie validates membership in the closed set.
func NewRetenueGarantie(valeur float64) (RetenueGarantie, error) {
	r := RetenueGarantie(valeur)
	switch r {
	case RetenueAucune, RetenueCinq, RetenueDix:
		return r, nil
	}
	return 0, ErrRetenueInvalide(strconv.FormatFloat(valeur, 'f', -1, 64))
}

func (r RetenueGarantie) String() string {
	return strconv.FormatFloat(float64(r), 'f', -1, 64)
}

// EstValide reports membership in the closed set.
func (r RetenueGarantie) EstValide() bool {
	switch r {
	case RetenueAucune, RetenueCinq, RetenueDix:
		return true
	}
	return false
}

// Montant computes the withheld amount on a TTC total, rounded half-up
// to 2 decimals.
func (r RetenueGarantie) Montant(ttc decimal.Decimal) decimal.Decimal {
	pct := decimal.NewFromFloat(float64(r)).Div(decimal.NewFromInt(100))
	return ttc.Mul(pct).Round(2)
}

// NetAPayer computes TTC minus the withheld amount. Montant + NetAPayer
// always reconstructs the TTC exactly.
func (r RetenueGarantie) NetAPayer(ttc decimal.Decimal) decimal.Decimal {
	return ttc.Sub(r.Montant(ttc)).Round(2)
}
