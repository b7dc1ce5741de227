package devis

import (
	"fmt"
	"sort"
	"strconv"
)

// NumerotationService produces devis numbers and hierarchical lot and
// line codes. All outputs are deterministic from the inputs.
type NumerotationService struct{}

// NumeroDevis formats DEV-YYYY-NNN from a creation year and the
// per-year sequence (1-based).
func (NumerotationService) NumeroDevis(annee, sequence int) string {
	return fmt.Sprintf("DEV-%04d-%03d", annee, sequence)
}

// NumeroRevision appends -R<version> to the base numero.
func (s NumerotationService) NumeroRevision(base string, version int) string {
	return fmt.Sprintf("%s-R%d", base, version)
}

// NumeroVariante appends the variant label to the base numero. The
// label set is closed.
func (s NumerotationService) NumeroVariante(base, label string) (string, error) {
	if !LabelVarianteValide(label) {
		return "", ErrDevisValidation("label de variante %q hors {ECO, STD, PREM, ALT}", label)
	}
	return base + "-" + label, nil
}

// CodeLot derives a lot code from the parent code and the sibling
// order (0-based): roots get "1", "2", …; children "parent.(ordre+1)".
func (NumerotationService) CodeLot(parentCode string, ordre int) string {
	if parentCode == "" {
		return strconv.Itoa(ordre + 1)
	}
	return parentCode + "." + strconv.Itoa(ordre+1)
}

// CodeLigne derives a line code from its lot code and its order,
// two-digit padded: "1.2" + ordre 2 → "1.2.03".
func (NumerotationService) CodeLigne(codeLot string, ordre int) string {
	return fmt.Sprintf("%s.%02d", codeLot, ordre+1)
}

// Renumeroter recomputes every lot and line code of one devis after a
// structural change. Lots are walked depth-first from the roots over a
// parent-id map, siblings in Ordre order; lines follow their lot.
// Soft-deleted elements are skipped and the survivors are compacted:
// Ordre and codes derive from the rank among surviving siblings, so a
// deletion never leaves a gap. Mutates the slices in place.
func (s NumerotationService) Renumeroter(lots []*Lot, lignes []*LigneDevis) {
	enfants := make(map[int64][]*Lot)
	for _, l := range lots {
		if l.DeletedAt != nil {
			continue
		}
		enfants[l.ParentID] = append(enfants[l.ParentID], l)
	}
	for _, siblings := range enfants {
		sort.SliceStable(siblings, func(i, j int) bool { return siblings[i].Ordre < siblings[j].Ordre })
	}

	parLot := make(map[int64][]*LigneDevis)
	for _, l := range lignes {
		if l.DeletedAt != nil {
			continue
		}
		parLot[l.LotID] = append(parLot[l.LotID], l)
	}
	for _, ls := range parLot {
		sort.SliceStable(ls, func(i, j int) bool { return ls[i].Ordre < ls[j].Ordre })
	}

	var walk func(parentID int64, parentCode string)
	walk = func(parentID int64, parentCode string) {
		for i, lot := range enfants[parentID] {
			lot.Ordre = i
			lot.CodeLot = s.CodeLot(parentCode, i)
			for j, ligne := range parLot[lot.ID] {
				ligne.Ordre = j
				ligne.CodeLigne = s.CodeLigne(lot.CodeLot, j)
			}
			walk(lot.ID, lot.CodeLot)
		}
	}
	walk(0, "")
}
