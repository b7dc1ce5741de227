package devis

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// EntreeComparaison is one line of a devis flattened for matching:
// the lot title, the line fields, and the optional article reference.
type EntreeComparaison struct {
	LotTitre     string
	Designation  string
	ArticleID    int64
	Quantite     decimal.Decimal
	PrixUnitaire decimal.Decimal
	TotalHT      decimal.Decimal
	DebourseSec  decimal.Decimal
}

// Cle is the match key: the article identity when referenced, else the
// lot title plus designation.
func (e EntreeComparaison) Cle() string {
	if e.ArticleID > 0 {
		return "article:" + strconv.FormatInt(e.ArticleID, 10)
	}
	return "lot:" + e.LotTitre + "|desig:" + e.Designation
}

// ComparaisonService diffs two flattened devis trees.
type ComparaisonService struct{}

// Comparer classifies every entry pair and aggregates the deltas.
// Deltas are cible − source; additions carry the target values, removals
// the negated source values. Line order: source order first, then
// unmatched target entries.
func (ComparaisonService) Comparer(source, cible *Devis, entreesSource, entreesCible []EntreeComparaison) *Comparatif {
	c := &Comparatif{
		DevisSourceID: source.ID,
		DevisCibleID:  cible.ID,
		DeltaHT:       cible.TotalHT.Sub(source.TotalHT),
		DeltaTTC:      cible.TotalTTC.Sub(source.TotalTTC),
		DeltaMarge:    cible.MargeGlobale - source.MargeGlobale,
	}

	parCle := make(map[string]EntreeComparaison, len(entreesCible))
	ordreCible := make([]string, 0, len(entreesCible))
	for _, e := range entreesCible {
		k := e.Cle()
		if _, seen := parCle[k]; !seen {
			ordreCible = append(ordreCible, k)
		}
		parCle[k] = e
	}

	vus := make(map[string]bool, len(entreesSource))
	for _, src := range entreesSource {
		k := src.Cle()
		if vus[k] {
			continue
		}
		vus[k] = true

		tgt, ok := parCle[k]
		if !ok {
			c.NbSupprimees++
			c.Lignes = append(c.Lignes, LigneComparatif{
				Type:              ComparaisonSuppression,
				Cle:               k,
				LotTitre:          src.LotTitre,
				Designation:       src.Designation,
				DeltaQuantite:     src.Quantite.Neg(),
				DeltaPrixUnitaire: src.PrixUnitaire.Neg(),
				DeltaTotalHT:      src.TotalHT.Neg(),
				DeltaDebourseSec:  src.DebourseSec.Neg(),
			})
			c.DeltaDebourse = c.DeltaDebourse.Sub(src.DebourseSec)
			continue
		}

		ligne := LigneComparatif{
			Cle:               k,
			LotTitre:          tgt.LotTitre,
			Designation:       tgt.Designation,
			DeltaQuantite:     tgt.Quantite.Sub(src.Quantite),
			DeltaPrixUnitaire: tgt.PrixUnitaire.Sub(src.PrixUnitaire),
			DeltaTotalHT:      tgt.TotalHT.Sub(src.TotalHT),
			DeltaDebourseSec:  tgt.DebourseSec.Sub(src.DebourseSec),
		}
		if ligne.EstIdentique() {
			ligne.Type = ComparaisonIdentique
			c.NbIdentiques++
		} else {
			ligne.Type = ComparaisonModification
			c.NbModifiees++
		}
		c.DeltaDebourse = c.DeltaDebourse.Add(ligne.DeltaDebourseSec)
		c.Lignes = append(c.Lignes, ligne)
	}

	for _, k := range ordreCible {
		if vus[k] {
			continue
		}
		tgt := parCle[k]
		c.NbAjoutees++
		c.Lignes = append(c.Lignes, LigneComparatif{
			Type:              ComparaisonAjout,
			Cle:               k,
			LotTitre:          tgt.LotTitre,
			Designation:       tgt.Designation,
			DeltaQuantite:     tgt.Quantite,
			DeltaPrixUnitaire: tgt.PrixUnitaire,
			DeltaTotalHT:      tgt.TotalHT,
			DeltaDebourseSec:  tgt.DebourseSec,
		})
		c.DeltaDebourse = c.DeltaDebourse.Add(tgt.DebourseSec)
	}

	return c
}
