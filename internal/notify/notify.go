// Package notify declares the follow-up transport port. Delivery is
// best effort: the batch use case records a success, collects a
// failure, and never blocks the other relances.
package notify

import (
	"context"
	"fmt"

	"baticore/internal/devis"
	"baticore/internal/logger"
)

// Transport sends one relance for one devis.
type Transport interface {
	Send(ctx context.Context, relance *devis.RelanceDevis, d *devis.Devis) error
}

// LogTransport writes the relance to the console, the demo wiring.
type LogTransport struct{}

func (LogTransport) Send(_ context.Context, r *devis.RelanceDevis, d *devis.Devis) error {
	logger.Info("RELANCE", fmt.Sprintf("%s n°%d (%s) → %s", d.Numero, r.Sequence, r.Type, d.ClientEmail))
	return nil
}

// MemTransport records sends and can fail on demand, for tests.
type MemTransport struct {
	Envoyees []int64 // relance ids, send order
	Echouer  map[int64]error
}

func (t *MemTransport) Send(_ context.Context, r *devis.RelanceDevis, _ *devis.Devis) error {
	if err, ok := t.Echouer[r.ID]; ok {
		return err
	}
	t.Envoyees = append(t.Envoyees, r.ID)
	return nil
}
