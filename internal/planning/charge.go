package planning

import (
	"context"
	"math"

	"baticore/internal/devis"
)

// UniteAffichage selects how the grid displays loads. Stored values
// stay in hours; the conversion applies at projection time only.
type UniteAffichage string

const (
	UniteHeures     UniteAffichage = "heures"
	UniteJoursHomme UniteAffichage = "jours_homme"
)

// ParamsPlanning are the aggregator inputs.
type ParamsPlanning struct {
	Debut     Semaine
	Fin       Semaine
	Recherche string // optional chantier filter
	Unite     UniteAffichage
}

// CellulePlanning is one chantier × week cell of the grid.
type CellulePlanning struct {
	ChantierID int64   `json:"chantier_id"`
	Semaine    Semaine `json:"semaine"`
	Planifie   float64 `json:"planifie"`
	Besoin     float64 `json:"besoin"`
	NonCouvert float64 `json:"non_couvert"` // max(besoin − planifie, 0)
	ABesoin    bool    `json:"a_besoin"`
}

// PiedSemaine is the weekly footer: occupancy and staffing signals.
type PiedSemaine struct {
	Semaine    Semaine        `json:"semaine"`
	Planifie   float64        `json:"planifie"`
	Besoin     float64        `json:"besoin"`
	Capacite   float64        `json:"capacite"`
	Occupation TauxOccupation `json:"occupation"`
	ARecruter  int            `json:"a_recruter"` // round((Σbesoin − capacité)/35), floored 0
	APlacer    int            `json:"a_placer"`   // unassigned users
}

// PlanningCharge is the full aggregation result.
type PlanningCharge struct {
	Semaines  []Semaine         `json:"semaines"`
	Chantiers []ChantierInfo    `json:"chantiers"`
	Cellules  []CellulePlanning `json:"cellules"` // chantier-major, week order
	Pied      []PiedSemaine     `json:"pied"`
	Unite     UniteAffichage    `json:"unite"`
}

// DiviseurRecrutement converts a weekly shortfall in hours into a
// headcount (one recruit covers a 35 h week).
const DiviseurRecrutement = 35.0

// GetPlanningChargeUseCase aggregates the weekly workload grid. Reads
// only; an optional cache coalesces identical requests.
type GetPlanningChargeUseCase struct {
	Chantiers    ChantierProvider
	Affectations AffectationProvider
	Besoins      BesoinRepository
	Cache        *CachePlanning // nil disables memoization
}

// Execute runs the aggregation for the inclusive week range.
func (uc GetPlanningChargeUseCase) Execute(ctx context.Context, params ParamsPlanning) (*PlanningCharge, error) {
	if params.Unite == "" {
		params.Unite = UniteHeures
	}
	if uc.Cache == nil {
		return uc.agreger(ctx, params)
	}
	return uc.Cache.Get(ctx, params, uc.agreger)
}

func (uc GetPlanningChargeUseCase) agreger(ctx context.Context, params ParamsPlanning) (*PlanningCharge, error) {
	semaines, err := SequenceSemaines(params.Debut, params.Fin)
	if err != nil {
		return nil, err
	}

	chantiers, err := uc.Chantiers.ChantiersActifs(ctx, params.Recherche)
	if err != nil {
		return nil, err
	}

	besoins, err := uc.Besoins.FindByRange(ctx, params.Debut, params.Fin)
	if err != nil {
		return nil, err
	}
	// Needs are per craft in storage; the grid sums them per cell.
	besoinParCle := make(map[CleAffectation]float64)
	for _, b := range besoins {
		cle := CleAffectation{ChantierID: b.ChantierID, Semaine: b.Semaine}
		besoinParCle[cle] += b.Heures
	}

	planifie, err := uc.Affectations.HeuresPlanifiees(ctx, semaines)
	if err != nil {
		return nil, err
	}
	capacites, err := uc.Affectations.CapaciteParSemaine(ctx, semaines)
	if err != nil {
		return nil, err
	}
	nonAffectes, err := uc.Affectations.NonAffectesParSemaine(ctx, semaines)
	if err != nil {
		return nil, err
	}

	res := &PlanningCharge{
		Semaines:  semaines,
		Chantiers: chantiers,
		Unite:     params.Unite,
	}

	planifieSemaine := make(map[Semaine]float64, len(semaines))
	besoinSemaine := make(map[Semaine]float64, len(semaines))

	for _, c := range chantiers {
		for _, s := range semaines {
			cle := CleAffectation{ChantierID: c.ID, Semaine: s}
			p := planifie[cle]
			b, aBesoin := besoinParCle[cle]
			planifieSemaine[s] += p
			besoinSemaine[s] += b

			res.Cellules = append(res.Cellules, CellulePlanning{
				ChantierID: c.ID,
				Semaine:    s,
				Planifie:   convertir(p, params.Unite),
				Besoin:     convertir(b, params.Unite),
				NonCouvert: convertir(math.Max(b-p, 0), params.Unite),
				ABesoin:    aBesoin,
			})
		}
	}

	for _, s := range semaines {
		capacite := capacites[s]
		aRecruter := 0
		if manque := besoinSemaine[s] - capacite; manque > 0 {
			aRecruter = int(math.Round(manque / DiviseurRecrutement))
		}
		res.Pied = append(res.Pied, PiedSemaine{
			Semaine:    s,
			Planifie:   convertir(planifieSemaine[s], params.Unite),
			Besoin:     convertir(besoinSemaine[s], params.Unite),
			Capacite:   convertir(capacite, params.Unite),
			Occupation: NewTauxOccupation(planifieSemaine[s], capacite),
			ARecruter:  aRecruter,
			APlacer:    nonAffectes[s],
		})
	}

	return res, nil
}

func convertir(heures float64, unite UniteAffichage) float64 {
	if unite == UniteJoursHomme {
		return heures / HeuresParJourHomme
	}
	return heures
}

// --- Besoin CRUD ---

// CreerBesoinUseCase registers a weekly need. The (chantier, semaine,
// metier) triplet is unique; any write invalidates the planning cache.
type CreerBesoinUseCase struct {
	Besoins BesoinRepository
	Cache   *CachePlanning
}

func (uc CreerBesoinUseCase) Execute(ctx context.Context, role devis.Role, chantierID int64, semaine Semaine, metier devis.TypeMetier, heures float64, note string, par int64) (*BesoinCharge, error) {
	if err := devis.AutoriserAction(devis.ActGererBesoins, role); err != nil {
		return nil, err
	}
	b, err := NewBesoinCharge(chantierID, semaine, metier, heures, note, par)
	if err != nil {
		return nil, err
	}
	if err := uc.Besoins.Save(ctx, b); err != nil {
		return nil, err
	}
	uc.Cache.Invalider()
	return b, nil
}

// ModifierBesoinUseCase updates the hours or note of a need. The
// triplet itself is immutable; delete and recreate to move a need.
type ModifierBesoinUseCase struct {
	Besoins BesoinRepository
	Cache   *CachePlanning
}

func (uc ModifierBesoinUseCase) Execute(ctx context.Context, role devis.Role, id int64, heures float64, note string) (*BesoinCharge, error) {
	if err := devis.AutoriserAction(devis.ActGererBesoins, role); err != nil {
		return nil, err
	}
	b, err := uc.Besoins.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Heures = heures
	b.Note = note
	if err := b.Valider(); err != nil {
		return nil, err
	}
	if err := uc.Besoins.Save(ctx, b); err != nil {
		return nil, err
	}
	uc.Cache.Invalider()
	return b, nil
}

// SupprimerBesoinUseCase removes a need.
type SupprimerBesoinUseCase struct {
	Besoins BesoinRepository
	Cache   *CachePlanning
}

func (uc SupprimerBesoinUseCase) Execute(ctx context.Context, role devis.Role, id int64) error {
	if err := devis.AutoriserAction(devis.ActGererBesoins, role); err != nil {
		return err
	}
	if _, err := uc.Besoins.FindByID(ctx, id); err != nil {
		return err
	}
	if err := uc.Besoins.Delete(ctx, id); err != nil {
		return err
	}
	uc.Cache.Invalider()
	return nil
}
