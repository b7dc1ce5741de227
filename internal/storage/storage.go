// Package storage declares the repository contracts of the core. Two
// implementations exist: sqlite (production) and memory (tests, demo
// dry runs). Soft-deleted rows are never returned by any finder; Save
// creates when the id is zero and updates otherwise, refreshing
// updated_at.
package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"baticore/internal/devis"
	"baticore/internal/planning"
)

// FiltreDevis is the search filter set of the devis list. Nil or zero
// fields are ignored.
type FiltreDevis struct {
	ClientNom    string
	Statuts      []devis.StatutDevis
	DateDebut    *time.Time
	DateFin      *time.Time
	MontantMin   *decimal.Decimal
	MontantMax   *decimal.Decimal
	CommercialID int64
	ConducteurID int64
	Recherche    string // free text over numero, client, objet

	Limit  int
	Offset int
}

// DevisRepository persists the root aggregate.
type DevisRepository interface {
	Save(ctx context.Context, d *devis.Devis) error
	FindByID(ctx context.Context, id int64) (*devis.Devis, error)
	FindByNumero(ctx context.Context, numero string) (*devis.Devis, error)
	FindAll(ctx context.Context, filtre FiltreDevis) ([]*devis.Devis, error)
	FindAllInRange(ctx context.Context, debut, fin time.Time) ([]*devis.Devis, error)

	// FindVersions walks the family from the original: the parent of
	// the family plus every revision and variant, insertion order.
	FindVersions(ctx context.Context, devisID int64) ([]*devis.Devis, error)
	NextVersionNumber(ctx context.Context, devisID int64) (int, error)
	NextNumeroSequence(ctx context.Context, annee int) (int, error)

	Count(ctx context.Context) (int, error)
	CountByStatut(ctx context.Context) (map[devis.StatutDevis]int, error)
	SommeMontantByStatut(ctx context.Context) (map[devis.StatutDevis]decimal.Decimal, error)
	// FindExpires returns the devis whose date_validite is strictly
	// before today with statut ENVOYE or VU.
	FindExpires(ctx context.Context, aujourdhui time.Time) ([]*devis.Devis, error)

	Delete(ctx context.Context, id, par int64) error
}

// LotRepository persists the sections of a devis.
type LotRepository interface {
	Save(ctx context.Context, l *devis.Lot) error
	FindByID(ctx context.Context, id int64) (*devis.Lot, error)
	FindByDevis(ctx context.Context, devisID int64) ([]*devis.Lot, error)
	Delete(ctx context.Context, id, par int64) error
}

// LigneRepository persists lines together with their discharge details:
// Save replaces the details wholesale.
type LigneRepository interface {
	Save(ctx context.Context, l *devis.LigneDevis) error
	FindByID(ctx context.Context, id int64) (*devis.LigneDevis, error)
	FindByLot(ctx context.Context, lotID int64) ([]*devis.LigneDevis, error)
	FindByDevis(ctx context.Context, devisID int64) ([]*devis.LigneDevis, error)
	Delete(ctx context.Context, id, par int64) error
}

// FiltreArticles narrows the price library.
type FiltreArticles struct {
	Categorie  string
	ActifsSeul bool
	Recherche  string // over code and designation
}

// ArticleRepository persists the price library.
type ArticleRepository interface {
	Save(ctx context.Context, a *devis.Article) error
	FindByID(ctx context.Context, id int64) (*devis.Article, error)
	FindByCode(ctx context.Context, code string) (*devis.Article, error)
	FindAll(ctx context.Context, filtre FiltreArticles) ([]*devis.Article, error)
	Delete(ctx context.Context, id, par int64) error
}

// JournalRepository is append-only. Entries of one devis keep their
// insertion order.
type JournalRepository interface {
	Append(ctx context.Context, e *devis.JournalDevis) error
	FindByDevis(ctx context.Context, devisID int64) ([]*devis.JournalDevis, error)
}

// AttestationRepository persists the 1:1 regulatory cover.
type AttestationRepository interface {
	Save(ctx context.Context, a *devis.AttestationTVA) error
	FindByDevis(ctx context.Context, devisID int64) (*devis.AttestationTVA, error)
}

// SignatureRepository persists the 1:1 electronic acceptance.
type SignatureRepository interface {
	Save(ctx context.Context, s *devis.SignatureDevis) error
	FindByDevis(ctx context.Context, devisID int64) (*devis.SignatureDevis, error)
}

// RelanceRepository persists planned follow-ups.
type RelanceRepository interface {
	Save(ctx context.Context, r *devis.RelanceDevis) error
	FindByDevis(ctx context.Context, devisID int64) ([]*devis.RelanceDevis, error)
	// FindDues returns every planned relance whose date is at or
	// before the given instant, all devis confounded.
	FindDues(ctx context.Context, now time.Time) ([]*devis.RelanceDevis, error)
}

// FraisRepository persists site expenses attached to a devis.
type FraisRepository interface {
	Save(ctx context.Context, f *devis.FraisChantier) error
	FindByID(ctx context.Context, id int64) (*devis.FraisChantier, error)
	FindByDevis(ctx context.Context, devisID int64) ([]*devis.FraisChantier, error)
	Delete(ctx context.Context, id int64) error
}

// ComparatifRepository keeps at most one diff per (source, cible) pair:
// Replace supersedes any earlier record for the pair.
type ComparatifRepository interface {
	Replace(ctx context.Context, c *devis.Comparatif) error
	FindByPair(ctx context.Context, sourceID, cibleID int64) (*devis.Comparatif, error)
}

// BesoinChargeRepository persists weekly manpower needs. Save enforces
// uniqueness per (chantier, semaine, metier) and returns
// BesoinAlreadyExists on a duplicate triplet.
type BesoinChargeRepository interface {
	Save(ctx context.Context, b *planning.BesoinCharge) error
	FindByID(ctx context.Context, id int64) (*planning.BesoinCharge, error)
	// FindByRange loads every need of the inclusive week range in one
	// call, the aggregator's single read.
	FindByRange(ctx context.Context, debut, fin planning.Semaine) ([]*planning.BesoinCharge, error)
	Delete(ctx context.Context, id int64) error
}
