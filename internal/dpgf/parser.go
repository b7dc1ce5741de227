package dpgf

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Mapping locates the devis columns in the uploaded rows (0-based) and
// the first data row (1-based, as shown in a spreadsheet).
type Mapping struct {
	ColonneLot          int `json:"colonne_lot"`
	ColonneDescription  int `json:"colonne_description"`
	ColonneUnite        int `json:"colonne_unite"`
	ColonneQuantite     int `json:"colonne_quantite"`
	ColonnePrixUnitaire int `json:"colonne_prix_unitaire"`
	LigneDebut          int `json:"ligne_debut"`
}

// LotParDefaut groups rows carrying no lot code.
const LotParDefaut = "DIVERS"

// Rang is one parsed data row.
type Rang struct {
	NumeroLigne  int             `json:"numero_ligne"` // 1-based file position
	CodeLot      string          `json:"code_lot"`
	Designation  string          `json:"designation"`
	Unite        string          `json:"unite"`
	Quantite     decimal.Decimal `json:"quantite"`
	PrixUnitaire decimal.Decimal `json:"prix_unitaire"`
}

// ErreurRang localizes one rejected row.
type ErreurRang struct {
	NumeroLigne int    `json:"numero_ligne"`
	Message     string `json:"message"`
}

// unites is the closed normalization table; anything else falls back
// to U.
var unites = map[string]string{
	"m2": "M2", "m²": "M2", "m^2": "M2",
	"m3": "M3", "m³": "M3",
	"ml": "ML", "m": "ML",
	"u": "U", "un": "U", "unite": "U", "unité": "U", "pce": "U", "pc": "U", "piece": "U", "pièce": "U",
	"ens": "ENS", "ensemble": "ENS",
	"ff": "FORFAIT", "forfait": "FORFAIT", "fft": "FORFAIT",
	"h": "H", "heure": "H",
	"j": "J", "jour": "J",
	"kg": "KG",
	"t": "T", "tonne": "T",
	"l": "L", "litre": "L",
}

// NormaliserUnite maps a free-form unit to the closed table, falling
// back to U.
func NormaliserUnite(u string) string {
	if n, ok := unites[strings.ToLower(strings.TrimSpace(u))]; ok {
		return n
	}
	return "U"
}

// ParseDecimal reads a French-tolerant number: comma accepted as the
// decimal separator, spaces (including non-breaking) ignored.
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.NewReplacer(" ", "", " ", "", " ", "", ",", ".").Replace(strings.TrimSpace(s))
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func cellule(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func estVide(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Parse applies the mapping from the start row down. Blank rows are
// skipped silently; invalid ones are collected with their file line
// number and never abort the batch.
func Parse(rows [][]string, m Mapping) ([]Rang, []ErreurRang) {
	debut := m.LigneDebut
	if debut < 1 {
		debut = 1
	}

	var rangs []Rang
	var erreurs []ErreurRang
	for i := debut - 1; i < len(rows); i++ {
		numero := i + 1
		row := rows[i]
		if estVide(row) {
			continue
		}

		designation := cellule(row, m.ColonneDescription)
		if designation == "" {
			erreurs = append(erreurs, ErreurRang{numero, "désignation manquante"})
			continue
		}

		quantite, err := ParseDecimal(cellule(row, m.ColonneQuantite))
		if err != nil {
			erreurs = append(erreurs, ErreurRang{numero, "quantité illisible: " + cellule(row, m.ColonneQuantite)})
			continue
		}
		prix, err := ParseDecimal(cellule(row, m.ColonnePrixUnitaire))
		if err != nil {
			erreurs = append(erreurs, ErreurRang{numero, "prix unitaire illisible: " + cellule(row, m.ColonnePrixUnitaire)})
			continue
		}
		if quantite.IsNegative() || prix.IsNegative() {
			erreurs = append(erreurs, ErreurRang{numero, "valeur négative"})
			continue
		}

		codeLot := cellule(row, m.ColonneLot)
		if codeLot == "" {
			codeLot = LotParDefaut
		}

		rangs = append(rangs, Rang{
			NumeroLigne:  numero,
			CodeLot:      codeLot,
			Designation:  designation,
			Unite:        NormaliserUnite(cellule(row, m.ColonneUnite)),
			Quantite:     quantite,
			PrixUnitaire: prix,
		})
	}
	return rangs, erreurs
}
