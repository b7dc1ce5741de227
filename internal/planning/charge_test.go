package planning

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"baticore/internal/devis"
)

// fauxBesoins est un BesoinRepository mémoire réduit aux tests du
// paquet; le vrai dépôt vit dans internal/storage.
type fauxBesoins struct {
	suivant int64
	besoins map[int64]*BesoinCharge
}

func nouveauxFauxBesoins() *fauxBesoins {
	return &fauxBesoins{besoins: make(map[int64]*BesoinCharge)}
}

func (r *fauxBesoins) Save(_ context.Context, b *BesoinCharge) error {
	if b.ID == 0 {
		for _, existant := range r.besoins {
			if existant.CodeUnique() == b.CodeUnique() {
				return devis.ErrBesoinAlreadyExists(b.CodeUnique())
			}
		}
		r.suivant++
		b.ID = r.suivant
	}
	copie := *b
	r.besoins[b.ID] = &copie
	return nil
}

func (r *fauxBesoins) FindByID(_ context.Context, id int64) (*BesoinCharge, error) {
	b, ok := r.besoins[id]
	if !ok {
		return nil, devis.NewError(devis.CodeDevisNotFound, "besoin %d introuvable", id)
	}
	copie := *b
	return &copie, nil
}

func (r *fauxBesoins) FindByRange(_ context.Context, debut, fin Semaine) ([]*BesoinCharge, error) {
	var out []*BesoinCharge
	for _, b := range r.besoins {
		if b.Semaine.Avant(debut) || fin.Avant(b.Semaine) {
			continue
		}
		copie := *b
		out = append(out, &copie)
	}
	return out, nil
}

func (r *fauxBesoins) Delete(_ context.Context, id int64) error {
	delete(r.besoins, id)
	return nil
}

func semaine(num int) Semaine { return Semaine{Annee: 2026, Num: num} }

func TestGetPlanningCharge_Agregation(t *testing.T) {
	ctx := context.Background()
	s10, s11 := semaine(10), semaine(11)

	chantiers := NewMemChantierProvider([]ChantierInfo{
		{ID: 1, Code: "CH-001", Nom: "Maison Garnier"},
		{ID: 2, Code: "CH-002", Nom: "Immeuble Loire"},
	})
	affectations := &MemAffectationProvider{
		Planifie: map[CleAffectation]float64{
			{ChantierID: 1, Semaine: s10}: 70,
			{ChantierID: 2, Semaine: s10}: 35,
			{ChantierID: 1, Semaine: s11}: 140,
		},
		Capacite:   map[Semaine]float64{s10: 140, s11: 140},
		NonAffecte: map[Semaine]int{s10: 2},
	}

	besoins := nouveauxFauxBesoins()
	// Deux métiers sur le même chantier-semaine: la grille les somme.
	for _, b := range []struct {
		metier devis.TypeMetier
		heures float64
	}{{devis.MetierPlombier, 70}, {devis.MetierCarreleur, 105}} {
		if _, err := (CreerBesoinUseCase{Besoins: besoins}).Execute(ctx, devis.RoleConducteur, 1, s11, b.metier, b.heures, "", 7); err != nil {
			t.Fatalf("créer besoin: %v", err)
		}
	}

	uc := GetPlanningChargeUseCase{Chantiers: chantiers, Affectations: affectations, Besoins: besoins}
	res, err := uc.Execute(ctx, ParamsPlanning{Debut: s10, Fin: s11})
	if err != nil {
		t.Fatalf("exécuter: %v", err)
	}

	if len(res.Semaines) != 2 || len(res.Chantiers) != 2 || len(res.Cellules) != 4 {
		t.Fatalf("grille = %d semaines / %d chantiers / %d cellules, want 2/2/4", len(res.Semaines), len(res.Chantiers), len(res.Cellules))
	}

	// Cellule chantier 1 × S11: 140 planifiées pour 175 demandées.
	var cellule CellulePlanning
	for _, c := range res.Cellules {
		if c.ChantierID == 1 && c.Semaine == s11 {
			cellule = c
		}
	}
	if cellule.Planifie != 140 || cellule.Besoin != 175 || cellule.NonCouvert != 35 || !cellule.ABesoin {
		t.Errorf("cellule = %+v, want 140 planifiées, 175 demandées, 35 non couvertes", cellule)
	}

	// Pied S10: 105/140 d'occupation, 2 compagnons à placer.
	pied := res.Pied[0]
	if pied.Semaine != s10 {
		t.Fatalf("pied[0] = %s, want S10", pied.Semaine)
	}
	if pied.Occupation.Valeur != 0.75 || pied.Occupation.Niveau() != "normal" {
		t.Errorf("occupation = %v (%s), want 0.75 normal", pied.Occupation.Valeur, pied.Occupation.Niveau())
	}
	if pied.ARecruter != 0 || pied.APlacer != 2 {
		t.Errorf("pied S10 = %d à recruter / %d à placer, want 0/2", pied.ARecruter, pied.APlacer)
	}

	// Pied S11: 175 h demandées pour 140 de capacité → 1 recrutement.
	if res.Pied[1].ARecruter != 1 {
		t.Errorf("ARecruter S11 = %d, want 1 (écart 35 h)", res.Pied[1].ARecruter)
	}
}

func TestGetPlanningCharge_JoursHomme(t *testing.T) {
	s10 := semaine(10)
	chantiers := NewMemChantierProvider([]ChantierInfo{{ID: 1, Nom: "Chantier"}})
	affectations := &MemAffectationProvider{
		Planifie: map[CleAffectation]float64{{ChantierID: 1, Semaine: s10}: 70},
		Capacite: map[Semaine]float64{s10: 140},
	}

	uc := GetPlanningChargeUseCase{Chantiers: chantiers, Affectations: affectations, Besoins: nouveauxFauxBesoins()}
	res, err := uc.Execute(context.Background(), ParamsPlanning{Debut: s10, Fin: s10, Unite: UniteJoursHomme})
	if err != nil {
		t.Fatalf("exécuter: %v", err)
	}
	if res.Cellules[0].Planifie != 10 {
		t.Errorf("Planifie = %v jours-homme, want 10", res.Cellules[0].Planifie)
	}
	if res.Pied[0].Capacite != 20 {
		t.Errorf("Capacite = %v jours-homme, want 20", res.Pied[0].Capacite)
	}
	// Le taux reste calculé en heures.
	if res.Pied[0].Occupation.Valeur != 0.5 {
		t.Errorf("Occupation = %v, want 0.5", res.Pied[0].Occupation.Valeur)
	}
}

func TestGetPlanningCharge_RechercheChantier(t *testing.T) {
	s10 := semaine(10)
	chantiers := NewMemChantierProvider([]ChantierInfo{
		{ID: 1, Code: "CH-001", Nom: "Maison Garnier"},
		{ID: 2, Code: "CH-002", Nom: "Immeuble Loire"},
	})
	uc := GetPlanningChargeUseCase{
		Chantiers:    chantiers,
		Affectations: &MemAffectationProvider{},
		Besoins:      nouveauxFauxBesoins(),
	}
	res, err := uc.Execute(context.Background(), ParamsPlanning{Debut: s10, Fin: s10, Recherche: "garnier"})
	if err != nil {
		t.Fatalf("exécuter: %v", err)
	}
	if len(res.Chantiers) != 1 || res.Chantiers[0].ID != 1 {
		t.Errorf("chantiers filtrés = %+v, want le seul Garnier", res.Chantiers)
	}
}

func TestCachePlanning_MemoiseEtInvalide(t *testing.T) {
	ctx := context.Background()
	s10 := semaine(10)
	var calculs atomic.Int64

	cache := NewCachePlanning(time.Minute)
	fn := func(context.Context, ParamsPlanning) (*PlanningCharge, error) {
		calculs.Add(1)
		return &PlanningCharge{Unite: UniteHeures}, nil
	}
	params := ParamsPlanning{Debut: s10, Fin: s10, Unite: UniteHeures}

	for i := 0; i < 3; i++ {
		if _, err := cache.Get(ctx, params, fn); err != nil {
			t.Fatalf("get: %v", err)
		}
	}
	if calculs.Load() != 1 {
		t.Errorf("calculs = %d, want 1 (mémoïsé)", calculs.Load())
	}

	cache.Invalider()
	if _, err := cache.Get(ctx, params, fn); err != nil {
		t.Fatalf("get après invalidation: %v", err)
	}
	if calculs.Load() != 2 {
		t.Errorf("calculs = %d, want 2 après invalidation", calculs.Load())
	}

	// Des paramètres différents ne partagent pas d'entrée.
	autre := ParamsPlanning{Debut: s10, Fin: semaine(11), Unite: UniteHeures}
	if _, err := cache.Get(ctx, autre, fn); err != nil {
		t.Fatalf("get autre plage: %v", err)
	}
	if calculs.Load() != 3 {
		t.Errorf("calculs = %d, want 3", calculs.Load())
	}
}

func TestBesoin_CRUDEtGardes(t *testing.T) {
	ctx := context.Background()
	besoins := nouveauxFauxBesoins()
	s10 := semaine(10)

	// Un commercial ne gère pas la charge.
	if _, err := (CreerBesoinUseCase{Besoins: besoins}).Execute(ctx, devis.RoleCommercial, 1, s10, devis.MetierPlombier, 35, "", 7); !devis.IsCode(err, devis.CodeTransitionNonAutorisee) {
		t.Errorf("création commerciale = %v, want TRANSITION_NON_AUTORISEE", err)
	}

	b, err := (CreerBesoinUseCase{Besoins: besoins}).Execute(ctx, devis.RoleConducteur, 1, s10, devis.MetierPlombier, 35, "gros rush", 7)
	if err != nil {
		t.Fatalf("créer: %v", err)
	}

	// Le triplet (chantier, semaine, métier) est unique.
	if _, err := (CreerBesoinUseCase{Besoins: besoins}).Execute(ctx, devis.RoleAdmin, 1, s10, devis.MetierPlombier, 10, "", 7); !devis.IsCode(err, devis.CodeBesoinAlreadyExists) {
		t.Errorf("doublon = %v, want BESOIN_ALREADY_EXISTS", err)
	}

	modifie, err := (ModifierBesoinUseCase{Besoins: besoins}).Execute(ctx, devis.RoleConducteur, b.ID, 42, "ajusté")
	if err != nil {
		t.Fatalf("modifier: %v", err)
	}
	if modifie.Heures != 42 || modifie.Note != "ajusté" {
		t.Errorf("besoin modifié = %+v", modifie)
	}

	if err := (SupprimerBesoinUseCase{Besoins: besoins}).Execute(ctx, devis.RoleConducteur, b.ID); err != nil {
		t.Fatalf("supprimer: %v", err)
	}
	if _, err := besoins.FindByID(ctx, b.ID); err == nil {
		t.Error("besoin encore présent après suppression")
	}
}
