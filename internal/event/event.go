// Package event carries the domain events published by the core and
// the publisher port. Events are plain immutable records wrapped in an
// envelope; the transport is the publisher's concern.
package event

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"baticore/internal/logger"
)

// Envelope identifies one emission. The ID makes redeliveries
// detectable downstream.
type Envelope struct {
	ID      string    `json:"id"` // uuid v4
	Type    string    `json:"type"`
	EmisLe  time.Time `json:"emis_le"`
	Payload any       `json:"payload"`
}

// NewEnvelope wraps a payload under a fresh id.
func NewEnvelope(typ string, payload any) Envelope {
	return Envelope{
		ID:      uuid.NewString(),
		Type:    typ,
		EmisLe:  time.Now().UTC(),
		Payload: payload,
	}
}

// TypeDevisConverti is the event type of a devis-to-chantier
// conversion.
const TypeDevisConverti = "devis.converti"

// LotConverti is the budget projection of one lot in the conversion
// event.
type LotConverti struct {
	CodeLot           string          `json:"code_lot"`
	Libelle           string          `json:"libelle"`
	MontantDebourseHT decimal.Decimal `json:"montant_debourse_ht"`
	MontantVenteHT    decimal.Decimal `json:"montant_vente_ht"`
}

// DevisConvertEvent is the post-commit notification of a conversion.
type DevisConvertEvent struct {
	DevisID int64  `json:"devis_id"`
	Numero  string `json:"numero"`

	ClientNom       string `json:"client_nom"`
	ClientAdresse   string `json:"client_adresse"`
	ClientTelephone string `json:"client_telephone"`
	Objet           string `json:"objet"`

	TotalHT            decimal.Decimal `json:"total_ht"`
	TotalTTC           decimal.Decimal `json:"total_ttc"`
	RetenueGarantiePct float64         `json:"retenue_garantie_pct"`

	Lots []LotConverti `json:"lots"`

	CommercialID   int64     `json:"commercial_id,omitempty"`
	ConducteurID   int64     `json:"conducteur_id,omitempty"`
	DateConversion time.Time `json:"date_conversion"`
}

// Publisher delivers events. Implementations are invoked only after
// the originating write committed.
type Publisher interface {
	Publish(ctx context.Context, e Envelope) error
}

// LogPublisher writes events to the console, the default wiring of the
// demo binary.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, e Envelope) error {
	logger.Info("EVENT", fmt.Sprintf("%s %s", e.Type, e.ID))
	return nil
}

// MemPublisher collects events in order, for tests. A non-nil Echec is
// returned on every publish instead of recording.
type MemPublisher struct {
	Publies []Envelope
	Echec   error
}

func (p *MemPublisher) Publish(_ context.Context, e Envelope) error {
	if p.Echec != nil {
		return p.Echec
	}
	p.Publies = append(p.Publies, e)
	return nil
}
