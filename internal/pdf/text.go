package pdf

import (
	"context"
	"fmt"
	"strings"
)

// TextRenderer is the bundled Generator: a fixed-width plain-text
// rendition of the document, honoring the presentation options. Real
// deployments swap in a PDF engine behind the same port.
type TextRenderer struct{}

func (TextRenderer) Generate(_ context.Context, dto *DevisDetailDTO) ([]byte, error) {
	opts := dto.Options.Normaliser()

	var b strings.Builder
	sep := strings.Repeat("=", 72)

	fmt.Fprintf(&b, "%s\nDEVIS %s\n%s\n", sep, dto.Numero, sep)
	fmt.Fprintf(&b, "Client : %s\n", dto.ClientNom)
	if dto.ClientAdresse != "" {
		fmt.Fprintf(&b, "         %s\n", dto.ClientAdresse)
	}
	fmt.Fprintf(&b, "Objet  : %s\n", dto.Objet)
	fmt.Fprintf(&b, "Valable jusqu'au %s\n\n", dto.DateValidite.Format("02/01/2006"))

	for _, lot := range dto.Lots {
		fmt.Fprintf(&b, "Lot %s — %s\n", lot.Code, lot.Titre)
		for _, l := range lot.Lignes {
			fmt.Fprintf(&b, "  %-8s %-34s", l.Code, tronquer(l.Designation, 34))
			if opts.AfficherQuantites {
				fmt.Fprintf(&b, " %8s %-4s", l.Quantite.StringFixed(2), l.Unite)
			}
			if opts.AfficherPrixUnitaires {
				fmt.Fprintf(&b, " %10s", l.PrixUnitaireHT.StringFixed(2))
			}
			fmt.Fprintf(&b, " %12s\n", l.MontantHT.StringFixed(2))
		}
		if opts.AfficherSousTotaux {
			fmt.Fprintf(&b, "  %58s %12s\n", "Sous-total HT", lot.SousTotalHT.StringFixed(2))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%s\nTotal HT  %s\n", sep, dto.TotalHT.StringFixed(2))
	if opts.AfficherDetailTVA {
		for _, t := range dto.VentilationTVA {
			fmt.Fprintf(&b, "TVA %5s %% sur %s : %s\n", t.Taux, t.BaseHT.StringFixed(2), t.MontantTVA.StringFixed(2))
		}
	}
	fmt.Fprintf(&b, "Total TTC %s\n", dto.TotalTTC.StringFixed(2))

	if opts.AfficherRetenue && dto.RetenueGarantiePct > 0 {
		fmt.Fprintf(&b, "Retenue de garantie (%.0f %%) : %s\n", dto.RetenueGarantiePct, dto.MontantRetenue.StringFixed(2))
		fmt.Fprintf(&b, "Net à payer : %s\n", dto.NetAPayer.StringFixed(2))
	}

	if dto.MentionLegaleTVA != "" {
		fmt.Fprintf(&b, "\n%s\n", dto.MentionLegaleTVA)
	}

	return []byte(b.String()), nil
}

func tronquer(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
