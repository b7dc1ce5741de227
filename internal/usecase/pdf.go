package usecase

import (
	"context"
	"sort"

	"baticore/internal/devis"
	"baticore/internal/pdf"
	"baticore/internal/storage"
)

// GenererPDFUseCase assembles the client document content and hands it
// to the configured generator.
type GenererPDFUseCase struct {
	Devis     storage.DevisRepository
	Lots      storage.LotRepository
	Lignes    storage.LigneRepository
	Generator pdf.Generator
}

func (uc GenererPDFUseCase) Execute(ctx context.Context, devisID int64) ([]byte, error) {
	dto, err := uc.Preparer(ctx, devisID)
	if err != nil {
		return nil, err
	}
	return uc.Generator.Generate(ctx, dto)
}

// Preparer builds the rendering DTO without generating, for previews
// and tests.
func (uc GenererPDFUseCase) Preparer(ctx context.Context, devisID int64) (*pdf.DevisDetailDTO, error) {
	d, err := uc.Devis.FindByID(ctx, devisID)
	if err != nil {
		return nil, err
	}
	lots, err := uc.Lots.FindByDevis(ctx, devisID)
	if err != nil {
		return nil, err
	}
	lignes, err := uc.Lignes.FindByDevis(ctx, devisID)
	if err != nil {
		return nil, err
	}

	parLot := make(map[int64][]*devis.LigneDevis)
	for _, l := range lignes {
		parLot[l.LotID] = append(parLot[l.LotID], l)
	}
	for _, ls := range parLot {
		sort.Slice(ls, func(i, j int) bool { return ls[i].Ordre < ls[j].Ordre })
	}

	dto := &pdf.DevisDetailDTO{
		Numero:          d.Numero,
		Objet:           d.Objet,
		DateValidite:    d.DateValidite,
		ClientNom:       d.ClientNom,
		ClientAdresse:   d.ClientAdresse,
		ClientEmail:     d.ClientEmail,
		ClientTelephone: d.ClientTelephone,
		TotalHT:         d.TotalHT,
		TotalTTC:        d.TotalTTC,
		Options:         d.Options.Normaliser(),
	}

	for _, lot := range enOrdreDocument(lots) {
		vue := pdf.LotDTO{Code: lot.CodeLot, Titre: lot.Titre, SousTotalHT: lot.TotalHT}
		for _, l := range parLot[lot.ID] {
			vue.Lignes = append(vue.Lignes, pdf.LigneDTO{
				Code:           l.CodeLigne,
				Designation:    l.Designation,
				Unite:          l.Unite,
				Quantite:       l.Quantite,
				PrixUnitaireHT: l.PrixUnitaireHT,
				TauxTVA:        l.TauxTVA,
				MontantHT:      l.MontantHT,
			})
		}
		dto.Lots = append(dto.Lots, vue)
	}

	dto.VentilationTVA = devis.VentilationTVA(lignes)
	for _, lt := range dto.VentilationTVA {
		if lt.Taux.NecessiteAttestation() {
			dto.MentionLegaleTVA = "Taux de TVA réduit applicable sous réserve de la remise de " +
				"l'attestation CERFA n° " + lt.Taux.TypeCERFA() + " signée par le client avant facturation."
			break
		}
	}

	dto.RetenueGarantiePct = float64(d.RetenueGarantie)
	dto.MontantRetenue = d.RetenueGarantie.Montant(d.TotalTTC)
	dto.NetAPayer = d.RetenueGarantie.NetAPayer(d.TotalTTC)
	return dto, nil
}

// enOrdreDocument flattens the lot tree depth-first, siblings by Ordre,
// the order the printed document follows.
func enOrdreDocument(lots []*devis.Lot) []*devis.Lot {
	enfants := make(map[int64][]*devis.Lot)
	for _, lot := range lots {
		enfants[lot.ParentID] = append(enfants[lot.ParentID], lot)
	}
	for _, fratrie := range enfants {
		sort.Slice(fratrie, func(i, j int) bool { return fratrie[i].Ordre < fratrie[j].Ordre })
	}

	out := make([]*devis.Lot, 0, len(lots))
	var visiter func(parent int64)
	visiter = func(parent int64) {
		for _, lot := range enfants[parent] {
			out = append(out, lot)
			visiter(lot.ID)
		}
	}
	visiter(0)
	return out
}
