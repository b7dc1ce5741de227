// Package memory implements the storage contracts with mutex-guarded
// maps. It backs the use-case tests and the demo binary's dry-run mode.
// Values are copied on the way in and out so callers never alias the
// store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"baticore/internal/devis"
	"baticore/internal/planning"
	"baticore/internal/storage"
)

// Store bundles every repository over one shared mutex, mirroring the
// single-database transaction scope of the sqlite backend.
type Store struct {
	mu sync.RWMutex

	seq          int64
	devis        map[int64]*devis.Devis
	lots         map[int64]*devis.Lot
	lignes       map[int64]*devis.LigneDevis
	articles     map[int64]*devis.Article
	journal      []*devis.JournalDevis
	attestations map[int64]*devis.AttestationTVA // by devis id
	signatures   map[int64]*devis.SignatureDevis // by devis id
	relances     map[int64]*devis.RelanceDevis
	frais        map[int64]*devis.FraisChantier
	comparatifs  map[[2]int64]*devis.Comparatif
	besoins      map[int64]*planning.BesoinCharge
}

// New builds an empty store.
func New() *Store {
	return &Store{
		devis:        make(map[int64]*devis.Devis),
		lots:         make(map[int64]*devis.Lot),
		lignes:       make(map[int64]*devis.LigneDevis),
		articles:     make(map[int64]*devis.Article),
		attestations: make(map[int64]*devis.AttestationTVA),
		signatures:   make(map[int64]*devis.SignatureDevis),
		relances:     make(map[int64]*devis.RelanceDevis),
		frais:        make(map[int64]*devis.FraisChantier),
		comparatifs:  make(map[[2]int64]*devis.Comparatif),
		besoins:      make(map[int64]*planning.BesoinCharge),
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// Accessors returning the store under each repository contract.

func (s *Store) Devis() storage.DevisRepository              { return (*devisRepo)(s) }
func (s *Store) Lots() storage.LotRepository                 { return (*lotRepo)(s) }
func (s *Store) Lignes() storage.LigneRepository             { return (*ligneRepo)(s) }
func (s *Store) Articles() storage.ArticleRepository         { return (*articleRepo)(s) }
func (s *Store) Journal() storage.JournalRepository          { return (*journalRepo)(s) }
func (s *Store) Attestations() storage.AttestationRepository { return (*attestationRepo)(s) }
func (s *Store) Signatures() storage.SignatureRepository     { return (*signatureRepo)(s) }
func (s *Store) Relances() storage.RelanceRepository         { return (*relanceRepo)(s) }
func (s *Store) Frais() storage.FraisRepository              { return (*fraisRepo)(s) }
func (s *Store) Comparatifs() storage.ComparatifRepository   { return (*comparatifRepo)(s) }
func (s *Store) Besoins() storage.BesoinChargeRepository     { return (*besoinRepo)(s) }

// --- Devis ---

type devisRepo Store

func cloneDevis(d *devis.Devis) *devis.Devis {
	c := *d
	if d.MargesParType != nil {
		c.MargesParType = make(map[devis.TypeDebourse]float64, len(d.MargesParType))
		for k, v := range d.MargesParType {
			c.MargesParType[k] = v
		}
	}
	c.ConfigRelances.DelaisJours = append([]int(nil), d.ConfigRelances.DelaisJours...)
	return &c
}

func (r *devisRepo) Save(_ context.Context, d *devis.Devis) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if d.ID == 0 {
		d.ID = s.nextID()
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	s.devis[d.ID] = cloneDevis(d)
	return nil
}

func (r *devisRepo) FindByID(_ context.Context, id int64) (*devis.Devis, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devis[id]
	if !ok || d.DeletedAt != nil {
		return nil, devis.ErrDevisNotFound(id)
	}
	return cloneDevis(d), nil
}

func (r *devisRepo) FindByNumero(_ context.Context, numero string) (*devis.Devis, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.devis {
		if d.DeletedAt == nil && d.Numero == numero {
			return cloneDevis(d), nil
		}
	}
	return nil, devis.ErrDevisNotFoundNumero(numero)
}

func (r *devisRepo) tous() []*devis.Devis {
	s := (*Store)(r)
	out := make([]*devis.Devis, 0, len(s.devis))
	for _, d := range s.devis {
		if d.DeletedAt == nil {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func contientStatut(statuts []devis.StatutDevis, st devis.StatutDevis) bool {
	for _, x := range statuts {
		if x == st {
			return true
		}
	}
	return false
}

func (r *devisRepo) FindAll(_ context.Context, f storage.FiltreDevis) ([]*devis.Devis, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*devis.Devis
	for _, d := range r.tous() {
		if f.ClientNom != "" && !strings.Contains(strings.ToLower(d.ClientNom), strings.ToLower(f.ClientNom)) {
			continue
		}
		if len(f.Statuts) > 0 && !contientStatut(f.Statuts, d.Statut) {
			continue
		}
		if f.DateDebut != nil && d.CreatedAt.Before(*f.DateDebut) {
			continue
		}
		if f.DateFin != nil && d.CreatedAt.After(*f.DateFin) {
			continue
		}
		if f.MontantMin != nil && d.TotalHT.LessThan(*f.MontantMin) {
			continue
		}
		if f.MontantMax != nil && d.TotalHT.GreaterThan(*f.MontantMax) {
			continue
		}
		if f.CommercialID != 0 && d.CommercialID != f.CommercialID {
			continue
		}
		if f.ConducteurID != 0 && d.ConducteurID != f.ConducteurID {
			continue
		}
		if f.Recherche != "" {
			q := strings.ToLower(f.Recherche)
			if !strings.Contains(strings.ToLower(d.Numero), q) &&
				!strings.Contains(strings.ToLower(d.ClientNom), q) &&
				!strings.Contains(strings.ToLower(d.Objet), q) {
				continue
			}
		}
		out = append(out, cloneDevis(d))
	}

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *devisRepo) FindAllInRange(_ context.Context, debut, fin time.Time) ([]*devis.Devis, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*devis.Devis
	for _, d := range r.tous() {
		if d.CreatedAt.Before(debut) || d.CreatedAt.After(fin) {
			continue
		}
		out = append(out, cloneDevis(d))
	}
	return out, nil
}

// origineFamille resolves the root devis of a version family.
func (r *devisRepo) origineFamille(id int64) int64 {
	s := (*Store)(r)
	d, ok := s.devis[id]
	if !ok {
		return id
	}
	for d.ParentDevisID != 0 {
		parent, ok := s.devis[d.ParentDevisID]
		if !ok {
			break
		}
		d = parent
	}
	return d.ID
}

func (r *devisRepo) FindVersions(_ context.Context, devisID int64) ([]*devis.Devis, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	origine := r.origineFamille(devisID)
	var out []*devis.Devis
	for _, d := range r.tous() {
		if d.ID == origine || r.origineFamille(d.ID) == origine {
			out = append(out, cloneDevis(d))
		}
	}
	return out, nil
}

func (r *devisRepo) NextVersionNumber(ctx context.Context, devisID int64) (int, error) {
	versions, err := r.FindVersions(ctx, devisID)
	if err != nil {
		return 0, err
	}
	max := 0
	for _, v := range versions {
		if v.VersionNumero > max {
			max = v.VersionNumero
		}
	}
	return max + 1, nil
}

func (r *devisRepo) NextNumeroSequence(_ context.Context, annee int) (int, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, d := range s.devis {
		if d.CreatedAt.Year() == annee && d.TypeVersion == devis.VersionInitiale {
			n++
		}
	}
	return n + 1, nil
}

func (r *devisRepo) Count(_ context.Context) (int, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(r.tous()), nil
}

func (r *devisRepo) CountByStatut(_ context.Context) (map[devis.StatutDevis]int, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[devis.StatutDevis]int)
	for _, d := range r.tous() {
		out[d.Statut]++
	}
	return out, nil
}

func (r *devisRepo) SommeMontantByStatut(_ context.Context) (map[devis.StatutDevis]decimal.Decimal, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[devis.StatutDevis]decimal.Decimal)
	for _, d := range r.tous() {
		out[d.Statut] = out[d.Statut].Add(d.TotalHT)
	}
	return out, nil
}

func (r *devisRepo) FindExpires(_ context.Context, aujourdhui time.Time) ([]*devis.Devis, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*devis.Devis
	for _, d := range r.tous() {
		if d.EstExpire(aujourdhui) {
			out = append(out, cloneDevis(d))
		}
	}
	return out, nil
}

func (r *devisRepo) Delete(_ context.Context, id, par int64) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devis[id]
	if !ok || d.DeletedAt != nil {
		return devis.ErrDevisNotFound(id)
	}
	now := time.Now().UTC()
	d.DeletedAt = &now
	d.DeletedBy = par
	return nil
}

// --- Lots ---

type lotRepo Store

func cloneLot(l *devis.Lot) *devis.Lot { c := *l; return &c }

func (r *lotRepo) Save(_ context.Context, l *devis.Lot) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if l.ID == 0 {
		l.ID = s.nextID()
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	s.lots[l.ID] = cloneLot(l)
	return nil
}

func (r *lotRepo) FindByID(_ context.Context, id int64) (*devis.Lot, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lots[id]
	if !ok || l.DeletedAt != nil {
		return nil, devis.ErrLotNotFound(id)
	}
	return cloneLot(l), nil
}

func (r *lotRepo) FindByDevis(_ context.Context, devisID int64) ([]*devis.Lot, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*devis.Lot
	for _, l := range s.lots {
		if l.DeletedAt == nil && l.DevisID == devisID {
			out = append(out, cloneLot(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ParentID != out[j].ParentID {
			return out[i].ParentID < out[j].ParentID
		}
		return out[i].Ordre < out[j].Ordre
	})
	return out, nil
}

func (r *lotRepo) Delete(_ context.Context, id, par int64) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lots[id]
	if !ok || l.DeletedAt != nil {
		return devis.ErrLotNotFound(id)
	}
	now := time.Now().UTC()
	l.DeletedAt = &now
	l.DeletedBy = par
	return nil
}

// --- Lignes ---

type ligneRepo Store

func cloneLigne(l *devis.LigneDevis) *devis.LigneDevis {
	c := *l
	c.Debourses = append([]devis.DebourseDetail(nil), l.Debourses...)
	if l.Marge != nil {
		m := *l.Marge
		c.Marge = &m
	}
	return &c
}

func (r *ligneRepo) Save(_ context.Context, l *devis.LigneDevis) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if l.ID == 0 {
		l.ID = s.nextID()
		l.CreatedAt = now
	}
	for i := range l.Debourses {
		if l.Debourses[i].ID == 0 {
			l.Debourses[i].ID = s.nextID()
			l.Debourses[i].CreatedAt = now
		}
		l.Debourses[i].LigneID = l.ID
	}
	l.UpdatedAt = now
	s.lignes[l.ID] = cloneLigne(l)
	return nil
}

func (r *ligneRepo) FindByID(_ context.Context, id int64) (*devis.LigneDevis, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lignes[id]
	if !ok || l.DeletedAt != nil {
		return nil, devis.ErrLigneNotFound(id)
	}
	return cloneLigne(l), nil
}

func (r *ligneRepo) findWhere(keep func(*devis.LigneDevis) bool) []*devis.LigneDevis {
	s := (*Store)(r)
	var out []*devis.LigneDevis
	for _, l := range s.lignes {
		if l.DeletedAt == nil && keep(l) {
			out = append(out, cloneLigne(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LotID != out[j].LotID {
			return out[i].LotID < out[j].LotID
		}
		return out[i].Ordre < out[j].Ordre
	})
	return out
}

func (r *ligneRepo) FindByLot(_ context.Context, lotID int64) ([]*devis.LigneDevis, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return r.findWhere(func(l *devis.LigneDevis) bool { return l.LotID == lotID }), nil
}

func (r *ligneRepo) FindByDevis(_ context.Context, devisID int64) ([]*devis.LigneDevis, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return r.findWhere(func(l *devis.LigneDevis) bool { return l.DevisID == devisID }), nil
}

func (r *ligneRepo) Delete(_ context.Context, id, par int64) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lignes[id]
	if !ok || l.DeletedAt != nil {
		return devis.ErrLigneNotFound(id)
	}
	now := time.Now().UTC()
	l.DeletedAt = &now
	l.DeletedBy = par
	return nil
}

// --- Articles ---

type articleRepo Store

func cloneArticle(a *devis.Article) *devis.Article { c := *a; return &c }

func (r *articleRepo) Save(_ context.Context, a *devis.Article) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if a.ID == 0 {
		a.ID = s.nextID()
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	s.articles[a.ID] = cloneArticle(a)
	return nil
}

func (r *articleRepo) FindByID(_ context.Context, id int64) (*devis.Article, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.articles[id]
	if !ok || a.DeletedAt != nil {
		return nil, devis.ErrArticleNotFound(id)
	}
	return cloneArticle(a), nil
}

func (r *articleRepo) FindByCode(_ context.Context, code string) (*devis.Article, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.articles {
		if a.DeletedAt == nil && a.Code == code {
			return cloneArticle(a), nil
		}
	}
	return nil, devis.NewError(devis.CodeArticleNotFound, "article %s introuvable", code)
}

func (r *articleRepo) FindAll(_ context.Context, f storage.FiltreArticles) ([]*devis.Article, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*devis.Article
	for _, a := range s.articles {
		if a.DeletedAt != nil {
			continue
		}
		if f.Categorie != "" && a.Categorie != f.Categorie {
			continue
		}
		if f.ActifsSeul && !a.Actif {
			continue
		}
		if f.Recherche != "" {
			q := strings.ToLower(f.Recherche)
			if !strings.Contains(strings.ToLower(a.Code), q) &&
				!strings.Contains(strings.ToLower(a.Designation), q) {
				continue
			}
		}
		out = append(out, cloneArticle(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *articleRepo) Delete(_ context.Context, id, par int64) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[id]
	if !ok || a.DeletedAt != nil {
		return devis.ErrArticleNotFound(id)
	}
	now := time.Now().UTC()
	a.DeletedAt = &now
	a.DeletedBy = par
	return nil
}

// --- Journal ---

type journalRepo Store

func (r *journalRepo) Append(_ context.Context, e *devis.JournalDevis) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextID()
	e.CreatedAt = time.Now().UTC()
	c := *e
	s.journal = append(s.journal, &c)
	return nil
}

func (r *journalRepo) FindByDevis(_ context.Context, devisID int64) ([]*devis.JournalDevis, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*devis.JournalDevis
	for _, e := range s.journal {
		if e.DevisID == devisID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

// --- Attestations ---

type attestationRepo Store

func (r *attestationRepo) Save(_ context.Context, a *devis.AttestationTVA) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.nextID()
		a.CreatedAt = time.Now().UTC()
	}
	c := *a
	s.attestations[a.DevisID] = &c
	return nil
}

func (r *attestationRepo) FindByDevis(_ context.Context, devisID int64) (*devis.AttestationTVA, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attestations[devisID]
	if !ok {
		return nil, devis.ErrAttestationNotFound(devisID)
	}
	c := *a
	return &c, nil
}

// --- Signatures ---

type signatureRepo Store

func (r *signatureRepo) Save(_ context.Context, sig *devis.SignatureDevis) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if sig.ID == 0 {
		sig.ID = s.nextID()
		sig.CreatedAt = time.Now().UTC()
	}
	c := *sig
	s.signatures[sig.DevisID] = &c
	return nil
}

func (r *signatureRepo) FindByDevis(_ context.Context, devisID int64) (*devis.SignatureDevis, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	sig, ok := s.signatures[devisID]
	if !ok {
		return nil, devis.ErrSignatureNotFound(devisID)
	}
	c := *sig
	return &c, nil
}

// --- Relances ---

type relanceRepo Store

func (r *relanceRepo) Save(_ context.Context, rel *devis.RelanceDevis) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if rel.ID == 0 {
		rel.ID = s.nextID()
		rel.CreatedAt = time.Now().UTC()
	}
	c := *rel
	s.relances[rel.ID] = &c
	return nil
}

func (r *relanceRepo) FindByDevis(_ context.Context, devisID int64) ([]*devis.RelanceDevis, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*devis.RelanceDevis
	for _, rel := range s.relances {
		if rel.DevisID == devisID {
			c := *rel
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (r *relanceRepo) FindDues(_ context.Context, now time.Time) ([]*devis.RelanceDevis, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*devis.RelanceDevis
	for _, rel := range s.relances {
		if rel.EstDue(now) {
			c := *rel
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DatePrevue.Before(out[j].DatePrevue) })
	return out, nil
}

// --- Frais ---

type fraisRepo Store

func (r *fraisRepo) Save(_ context.Context, f *devis.FraisChantier) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	if f.ID == 0 {
		f.ID = s.nextID()
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	c := *f
	s.frais[f.ID] = &c
	return nil
}

func (r *fraisRepo) FindByID(_ context.Context, id int64) (*devis.FraisChantier, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.frais[id]
	if !ok {
		return nil, devis.ErrFraisNotFound(id)
	}
	c := *f
	return &c, nil
}

func (r *fraisRepo) FindByDevis(_ context.Context, devisID int64) ([]*devis.FraisChantier, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*devis.FraisChantier
	for _, f := range s.frais {
		if f.DevisID == devisID {
			c := *f
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fraisRepo) Delete(_ context.Context, id int64) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.frais[id]; !ok {
		return devis.ErrFraisNotFound(id)
	}
	delete(s.frais, id)
	return nil
}

// --- Comparatifs ---

type comparatifRepo Store

func cloneComparatif(c *devis.Comparatif) *devis.Comparatif {
	cc := *c
	cc.Lignes = append([]devis.LigneComparatif(nil), c.Lignes...)
	return &cc
}

func (r *comparatifRepo) Replace(_ context.Context, c *devis.Comparatif) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.nextID()
		c.CreatedAt = time.Now().UTC()
	}
	for i := range c.Lignes {
		c.Lignes[i].ComparatifID = c.ID
	}
	s.comparatifs[[2]int64{c.DevisSourceID, c.DevisCibleID}] = cloneComparatif(c)
	return nil
}

func (r *comparatifRepo) FindByPair(_ context.Context, sourceID, cibleID int64) (*devis.Comparatif, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comparatifs[[2]int64{sourceID, cibleID}]
	if !ok {
		return nil, devis.NewError(devis.CodeComparatifNotFound, "aucun comparatif pour la paire (%d, %d)", sourceID, cibleID)
	}
	return cloneComparatif(c), nil
}

// --- Besoins ---

type besoinRepo Store

func (r *besoinRepo) Save(_ context.Context, b *planning.BesoinCharge) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, x := range s.besoins {
		if x.ID != b.ID && x.CodeUnique() == b.CodeUnique() {
			return devis.ErrBesoinAlreadyExists(b.CodeUnique())
		}
	}
	now := time.Now().UTC()
	if b.ID == 0 {
		b.ID = s.nextID()
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	c := *b
	s.besoins[b.ID] = &c
	return nil
}

func (r *besoinRepo) FindByID(_ context.Context, id int64) (*planning.BesoinCharge, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.besoins[id]
	if !ok {
		return nil, devis.ErrBesoinNotFound(id)
	}
	c := *b
	return &c, nil
}

func (r *besoinRepo) FindByRange(_ context.Context, debut, fin planning.Semaine) ([]*planning.BesoinCharge, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*planning.BesoinCharge
	for _, b := range s.besoins {
		if b.Semaine.Avant(debut) || fin.Avant(b.Semaine) {
			continue
		}
		c := *b
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *besoinRepo) Delete(_ context.Context, id int64) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.besoins[id]; !ok {
		return devis.ErrBesoinNotFound(id)
	}
	delete(s.besoins, id)
	return nil
}
