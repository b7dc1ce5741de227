package planning

import (
	"context"
	"strings"
	"sync"

	"baticore/internal/devis"
)

// ChantierInfo is the projection of an active work-site the planner
// displays. The chantier module itself lives outside the core.
type ChantierInfo struct {
	ID             int64   `json:"id"`
	Code           string  `json:"code"`
	Nom            string  `json:"nom"`
	Couleur        string  `json:"couleur"`
	HeuresEstimees float64 `json:"heures_estimees"`
}

// ChantierProvider lists active chantiers, optionally filtered by a
// case-insensitive substring over code and name.
type ChantierProvider interface {
	ChantiersActifs(ctx context.Context, recherche string) ([]ChantierInfo, error)
}

// CleAffectation addresses planned hours: one chantier on one week.
type CleAffectation struct {
	ChantierID int64
	Semaine    Semaine
}

// AffectationProvider exposes the assignment side of the planner:
// hours already planned per (chantier, week), weekly capacity (active
// users × 35 h) and users without any assignment.
type AffectationProvider interface {
	HeuresPlanifiees(ctx context.Context, semaines []Semaine) (map[CleAffectation]float64, error)
	CapaciteParSemaine(ctx context.Context, semaines []Semaine) (map[Semaine]float64, error)
	NonAffectesParSemaine(ctx context.Context, semaines []Semaine) (map[Semaine]int, error)
}

// UtilisateurProvider exposes the workforce directory: capacity per
// craft and unassigned counts per week.
type UtilisateurProvider interface {
	CapaciteParMetier(ctx context.Context, semaine Semaine) (map[devis.TypeMetier]float64, error)
	NonAffectes(ctx context.Context, semaine Semaine) (int, error)
}

// BesoinRepository is the slice of the storage layer the planner needs.
// The full contract lives in internal/storage; implementations satisfy
// both.
type BesoinRepository interface {
	Save(ctx context.Context, b *BesoinCharge) error
	FindByID(ctx context.Context, id int64) (*BesoinCharge, error)
	FindByRange(ctx context.Context, debut, fin Semaine) ([]*BesoinCharge, error)
	Delete(ctx context.Context, id int64) error
}

// --- In-memory providers (tests, demo) ---

// MemChantierProvider serves a fixed chantier list.
type MemChantierProvider struct {
	mu        sync.RWMutex
	chantiers []ChantierInfo
}

// NewMemChantierProvider copies the given list.
func NewMemChantierProvider(chantiers []ChantierInfo) *MemChantierProvider {
	p := &MemChantierProvider{}
	p.chantiers = append(p.chantiers, chantiers...)
	return p
}

// Ajouter registers one more active chantier.
func (p *MemChantierProvider) Ajouter(c ChantierInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chantiers = append(p.chantiers, c)
}

func (p *MemChantierProvider) ChantiersActifs(_ context.Context, recherche string) ([]ChantierInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	recherche = strings.ToLower(strings.TrimSpace(recherche))
	out := make([]ChantierInfo, 0, len(p.chantiers))
	for _, c := range p.chantiers {
		if recherche != "" &&
			!strings.Contains(strings.ToLower(c.Nom), recherche) &&
			!strings.Contains(strings.ToLower(c.Code), recherche) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// MemAffectationProvider serves fixed planning data.
type MemAffectationProvider struct {
	Planifie   map[CleAffectation]float64
	Capacite   map[Semaine]float64
	NonAffecte map[Semaine]int
}

func (p *MemAffectationProvider) HeuresPlanifiees(_ context.Context, semaines []Semaine) (map[CleAffectation]float64, error) {
	out := make(map[CleAffectation]float64)
	for k, v := range p.Planifie {
		for _, s := range semaines {
			if k.Semaine == s {
				out[k] = v
			}
		}
	}
	return out, nil
}

func (p *MemAffectationProvider) CapaciteParSemaine(_ context.Context, semaines []Semaine) (map[Semaine]float64, error) {
	out := make(map[Semaine]float64, len(semaines))
	for _, s := range semaines {
		out[s] = p.Capacite[s]
	}
	return out, nil
}

func (p *MemAffectationProvider) NonAffectesParSemaine(_ context.Context, semaines []Semaine) (map[Semaine]int, error) {
	out := make(map[Semaine]int, len(semaines))
	for _, s := range semaines {
		out[s] = p.NonAffecte[s]
	}
	return out, nil
}

// MemUtilisateurProvider serves a fixed workforce.
type MemUtilisateurProvider struct {
	Capacites  map[devis.TypeMetier]float64
	NonAffecte map[Semaine]int
}

func (p *MemUtilisateurProvider) CapaciteParMetier(_ context.Context, _ Semaine) (map[devis.TypeMetier]float64, error) {
	out := make(map[devis.TypeMetier]float64, len(p.Capacites))
	for m, c := range p.Capacites {
		out[m] = c
	}
	return out, nil
}

func (p *MemUtilisateurProvider) NonAffectes(_ context.Context, semaine Semaine) (int, error) {
	return p.NonAffecte[semaine], nil
}
