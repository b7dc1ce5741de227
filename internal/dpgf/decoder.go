// Package dpgf turns uploaded DPGF files into devis rows: decoding
// (charset guess, delimiter sniff) and parsing (French decimals, unit
// normalization). Grouping rows into lots is the import use case's
// job.
package dpgf

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"baticore/internal/devis"
)

// Decoder extracts raw string rows from file bytes. The bundled
// implementation handles CSV; binary workbooks plug in behind the same
// port.
type Decoder interface {
	Decode(ctx context.Context, data []byte) ([][]string, error)
}

// CSVDecoder decodes CSV exports with encoding and delimiter
// tolerance: UTF-8 (with or without BOM), CP1252, Latin-1; separator
// sniffed among ';', ',' and tab.
type CSVDecoder struct{}

func (CSVDecoder) Decode(_ context.Context, data []byte) ([][]string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, devis.ErrDPGFFormat("fichier vide")
	}

	texte, err := decoderCharset(data)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(strings.NewReader(texte))
	r.Comma = sniffSeparateur(texte)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, devis.NewError(devis.CodeDPGFFormat, "CSV illisible: %v", err)
	}
	if len(rows) == 0 {
		return nil, devis.ErrDPGFFormat("aucune ligne dans le fichier")
	}
	return rows, nil
}

// decoderCharset guesses the encoding: valid UTF-8 wins (BOM
// stripped), then CP1252, then Latin-1 when CP1252 leaves replacement
// runes on its undefined bytes.
func decoderCharset(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		return string(data), nil
	}
	if s, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil && !bytes.ContainsRune(s, utf8.RuneError) {
		return string(s), nil
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", devis.ErrDPGFFormat("encodage non reconnu")
	}
	return string(s), nil
}

// sniffSeparateur counts candidate separators on the first non-empty
// line; semicolon is the French-spreadsheet default.
func sniffSeparateur(texte string) rune {
	for _, ligne := range strings.Split(texte, "\n") {
		if strings.TrimSpace(ligne) == "" {
			continue
		}
		meilleur, n := ';', strings.Count(ligne, ";")
		if c := strings.Count(ligne, ","); c > n {
			meilleur, n = ',', c
		}
		if c := strings.Count(ligne, "\t"); c > n {
			meilleur = '\t'
		}
		return meilleur
	}
	return ';'
}
