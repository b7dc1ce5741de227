package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"baticore/internal/devis"
	"baticore/internal/storage"
)

// LigneTableauBord is the count and amount of one statut bucket.
type LigneTableauBord struct {
	Statut  devis.StatutDevis `json:"statut"`
	Nombre  int               `json:"nombre"`
	Montant decimal.Decimal   `json:"montant_ht"`
}

// TableauBordDevis is the commercial pipeline snapshot.
type TableauBordDevis struct {
	Total          int                `json:"total"`
	ParStatut      []LigneTableauBord `json:"par_statut"`
	EnCoursHT      decimal.Decimal    `json:"en_cours_ht"`      // ENVOYE + VU + EN_NEGOCIATION
	GagneHT        decimal.Decimal    `json:"gagne_ht"`         // ACCEPTE + CONVERTI
	TauxConversion float64            `json:"taux_conversion"`  // won / concluded, percent
	ExpirentSous7J []*devis.Devis     `json:"expirent_sous_7j"` // validity ends within a week
}

// TableauBordDevisUseCase aggregates the pipeline view served on the
// commercial home page.
type TableauBordDevisUseCase struct {
	Devis storage.DevisRepository
}

func (uc TableauBordDevisUseCase) Execute(ctx context.Context, now time.Time) (*TableauBordDevis, error) {
	total, err := uc.Devis.Count(ctx)
	if err != nil {
		return nil, err
	}
	nombres, err := uc.Devis.CountByStatut(ctx)
	if err != nil {
		return nil, err
	}
	montants, err := uc.Devis.SommeMontantByStatut(ctx)
	if err != nil {
		return nil, err
	}

	tb := &TableauBordDevis{Total: total}
	statuts := make([]devis.StatutDevis, 0, len(nombres))
	for s := range nombres {
		statuts = append(statuts, s)
	}
	sort.Slice(statuts, func(i, j int) bool { return statuts[i] < statuts[j] })
	for _, s := range statuts {
		tb.ParStatut = append(tb.ParStatut, LigneTableauBord{Statut: s, Nombre: nombres[s], Montant: montants[s]})
	}

	tb.EnCoursHT = montants[devis.StatutEnvoye].
		Add(montants[devis.StatutVu]).
		Add(montants[devis.StatutEnNegociation])
	tb.GagneHT = montants[devis.StatutAccepte].Add(montants[devis.StatutConverti])

	gagnes := nombres[devis.StatutAccepte] + nombres[devis.StatutConverti]
	conclus := gagnes + nombres[devis.StatutRefuse] + nombres[devis.StatutPerdu] + nombres[devis.StatutExpire]
	if conclus > 0 {
		tb.TauxConversion = float64(gagnes) / float64(conclus) * 100
	}

	enAttente, err := uc.Devis.FindAll(ctx, storage.FiltreDevis{
		Statuts: []devis.StatutDevis{devis.StatutEnvoye, devis.StatutVu},
	})
	if err != nil {
		return nil, err
	}
	limite := now.UTC().AddDate(0, 0, 7)
	for _, d := range enAttente {
		if !d.DateValidite.After(limite) && !d.EstExpire(now) {
			tb.ExpirentSous7J = append(tb.ExpirentSous7J, d)
		}
	}
	sort.Slice(tb.ExpirentSous7J, func(i, j int) bool {
		return tb.ExpirentSous7J[i].DateValidite.Before(tb.ExpirentSous7J[j].DateValidite)
	})
	return tb, nil
}
