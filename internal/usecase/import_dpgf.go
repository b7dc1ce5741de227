package usecase

import (
	"context"

	"baticore/internal/devis"
	"baticore/internal/dpgf"
	"baticore/internal/storage"
)

// ResultatImport summarizes one DPGF import: what was created plus the
// rows rejected with their file position.
type ResultatImport struct {
	NbLotsCreees   int               `json:"nb_lots_crees"`
	NbLignesCreees int               `json:"nb_lignes_creees"`
	Erreurs        []dpgf.ErreurRang `json:"erreurs,omitempty"`
	Totaux         devis.TotauxDevis `json:"totaux"`
}

// ImporterDPGFUseCase loads a DPGF file into a devis: decode, parse,
// group rows into lots in first-seen order, then renumber and recompute
// the whole tree. Partial imports are accepted as long as at least one
// row survives.
type ImporterDPGFUseCase struct {
	Devis   storage.DevisRepository
	Lots    storage.LotRepository
	Lignes  storage.LigneRepository
	Journal storage.JournalRepository
	Decoder dpgf.Decoder
	Num     devis.NumerotationService
	Calcul  devis.CalculService
}

func (uc ImporterDPGFUseCase) Execute(ctx context.Context, devisID int64, data []byte, mapping dpgf.Mapping, auteur int64) (*ResultatImport, error) {
	d, err := chargerModifiable(ctx, uc.Devis, devisID)
	if err != nil {
		return nil, err
	}

	rows, err := uc.Decoder.Decode(ctx, data)
	if err != nil {
		return nil, err
	}
	rangs, erreurs := dpgf.Parse(rows, mapping)
	if len(rangs) == 0 {
		return nil, devis.ErrDPGFImport("aucune ligne exploitable (%d rejetée(s))", len(erreurs))
	}

	existants, err := uc.Lots.FindByDevis(ctx, devisID)
	if err != nil {
		return nil, err
	}
	ordre := 0
	for _, lot := range existants {
		if lot.ParentID == 0 && lot.Ordre >= ordre {
			ordre = lot.Ordre + 1
		}
	}

	res := &ResultatImport{Erreurs: erreurs}
	lotsParCode := make(map[string]*devis.Lot)
	lignesParLot := make(map[int64]int)
	for _, rang := range rangs {
		lot, ok := lotsParCode[rang.CodeLot]
		if !ok {
			lot = &devis.Lot{
				DevisID:   devisID,
				Titre:     rang.CodeLot,
				Ordre:     ordre,
				CreatedBy: auteur,
			}
			if err := uc.Lots.Save(ctx, lot); err != nil {
				return nil, err
			}
			lotsParCode[rang.CodeLot] = lot
			ordre++
			res.NbLotsCreees++
		}

		ligne := &devis.LigneDevis{
			DevisID:        devisID,
			LotID:          lot.ID,
			Designation:    rang.Designation,
			Unite:          rang.Unite,
			Quantite:       rang.Quantite,
			PrixUnitaireHT: rang.PrixUnitaire.Round(4),
			TauxTVA:        d.TauxTVADefaut,
			Ordre:          lignesParLot[lot.ID],
			CreatedBy:      auteur,
		}
		if err := ligne.Valider(); err != nil {
			res.Erreurs = append(res.Erreurs, dpgf.ErreurRang{NumeroLigne: rang.NumeroLigne, Message: err.Error()})
			continue
		}
		if err := uc.Lignes.Save(ctx, ligne); err != nil {
			return nil, err
		}
		lignesParLot[lot.ID]++
		res.NbLignesCreees++
	}
	if res.NbLignesCreees == 0 {
		return nil, devis.ErrDPGFImport("aucune ligne exploitable (%d rejetée(s))", len(res.Erreurs))
	}

	renum := renumeroteur{Lots: uc.Lots, Lignes: uc.Lignes, Num: uc.Num}
	if err := renum.renumeroter(ctx, devisID); err != nil {
		return nil, err
	}
	recalc := recalculateur{Devis: uc.Devis, Lots: uc.Lots, Lignes: uc.Lignes, Calcul: uc.Calcul}
	res.Totaux, err = recalc.recalculer(ctx, d)
	if err != nil {
		return nil, err
	}

	if err := journaliser(ctx, uc.Journal, devisID, devis.ActionImportDPGF, auteur, map[string]any{
		"nb_lots":   res.NbLotsCreees,
		"nb_lignes": res.NbLignesCreees,
		"nb_rejets": len(res.Erreurs),
	}); err != nil {
		return nil, err
	}
	return res, nil
}
