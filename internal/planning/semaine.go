package planning

import (
	"fmt"
	"strconv"
	"time"

	"baticore/internal/devis"
)

// Semaine identifies one ISO week, serialized SWW-YYYY (S07-2026).
type Semaine struct {
	Annee int `json:"annee"` // ISO year
	Num   int `json:"num"`   // ISO week, 1..53
}

// ParseSemaine reads the SWW-YYYY form, zero-padded week.
func ParseSemaine(s string) (Semaine, error) {
	malformee := devis.NewError(devis.CodeInvalidSemaineRange, "semaine %q invalide, format SWW-YYYY attendu", s)
	if len(s) != 8 || s[0] != 'S' || s[3] != '-' {
		return Semaine{}, malformee
	}
	num, err := strconv.Atoi(s[1:3])
	if err != nil {
		return Semaine{}, malformee
	}
	annee, err := strconv.Atoi(s[4:8])
	if err != nil {
		return Semaine{}, malformee
	}
	if num < 1 || num > 53 {
		return Semaine{}, devis.NewError(devis.CodeInvalidSemaineRange, "numéro de semaine %d hors 1..53", num)
	}
	return Semaine{Annee: annee, Num: num}, nil
}

// SemaineDe maps an instant to its ISO week.
func SemaineDe(t time.Time) Semaine {
	y, w := t.UTC().ISOWeek()
	return Semaine{Annee: y, Num: w}
}

func (s Semaine) String() string {
	return fmt.Sprintf("S%02d-%04d", s.Num, s.Annee)
}

// Avant orders weeks chronologically.
func (s Semaine) Avant(o Semaine) bool {
	if s.Annee != o.Annee {
		return s.Annee < o.Annee
	}
	return s.Num < o.Num
}

// Lundi returns the Monday starting the week. ISO week 1 is the week
// containing January 4th.
func (s Semaine) Lundi() time.Time {
	jan4 := time.Date(s.Annee, 1, 4, 0, 0, 0, 0, time.UTC)
	wd := int(jan4.Weekday())
	if wd == 0 {
		wd = 7 // Sunday
	}
	lundiS1 := jan4.AddDate(0, 0, 1-wd)
	return lundiS1.AddDate(0, 0, (s.Num-1)*7)
}

// Plage returns the [monday, sunday] date range of the week.
func (s Semaine) Plage() (time.Time, time.Time) {
	lundi := s.Lundi()
	return lundi, lundi.AddDate(0, 0, 6)
}

// Next steps to the following ISO week, rolling over year ends.
func (s Semaine) Next() Semaine {
	return SemaineDe(s.Lundi().AddDate(0, 0, 7))
}

// SequenceSemaines expands [debut, fin] inclusively. The range is
// rejected when fin precedes debut or when it spans over two years of
// weeks, which signals swapped arguments.
func SequenceSemaines(debut, fin Semaine) ([]Semaine, error) {
	if fin.Avant(debut) {
		return nil, devis.NewError(devis.CodeInvalidSemaineRange, "plage inversée: %s après %s", debut, fin)
	}
	const max = 106
	out := []Semaine{debut}
	for cur := debut; cur != fin; {
		cur = cur.Next()
		out = append(out, cur)
		if len(out) > max {
			return nil, devis.NewError(devis.CodeInvalidSemaineRange, "plage %s..%s trop large (max %d semaines)", debut, fin, max)
		}
	}
	return out, nil
}
