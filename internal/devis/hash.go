package devis

import (
	"bytes"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
)

// champsVerifies extracts the signed snapshot of a devis: the fields a
// client committed to. Amounts are fixed to 2 decimals, the date to its
// day, so re-serialization is stable.
func champsVerifies(d *Devis) map[string]any {
	return map[string]any{
		"numero":           d.Numero,
		"client_nom":       d.ClientNom,
		"client_adresse":   d.ClientAdresse,
		"client_email":     d.ClientEmail,
		"client_telephone": d.ClientTelephone,
		"objet":            d.Objet,
		"total_ht":         d.TotalHT.StringFixed(2),
		"total_ttc":        d.TotalTTC.StringFixed(2),
		"marge_globale":    d.MargeGlobale,
		"taux_tva_defaut":  d.TauxTVADefaut.String(),
		"date_validite":    d.DateValidite.UTC().Format("2006-01-02"),
	}
}

// HashDocument computes the SHA-512 (hex, 128 chars) of the canonical
// JSON of the verified fields: keys sorted, non-ASCII bytes preserved.
func HashDocument(d *Devis) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Map keys are sorted by encoding/json; Encode appends a newline.
	if err := enc.Encode(champsVerifies(d)); err != nil {
		return ""
	}
	sum := sha512.Sum512(bytes.TrimRight(buf.Bytes(), "\n"))
	return hex.EncodeToString(sum[:])
}

// VerifierHash recomputes the hash and compares it to the stored one.
func VerifierHash(d *Devis, stocke string) bool {
	return stocke != "" && HashDocument(d) == stocke
}
