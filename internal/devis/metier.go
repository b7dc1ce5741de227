package devis

// TypeMetier is the craft catalog shared by labor debourses and the
// workload planner.
type TypeMetier string

const (
	MetierMacon       TypeMetier = "MACON"
	MetierElectricien TypeMetier = "ELECTRICIEN"
	MetierPlombier    TypeMetier = "PLOMBIER"
	MetierCharpentier TypeMetier = "CHARPENTIER"
	MetierCouvreur    TypeMetier = "COUVREUR"
	MetierPlaquiste   TypeMetier = "PLAQUISTE"
	MetierPeintre     TypeMetier = "PEINTRE"
	MetierCarreleur   TypeMetier = "CARRELEUR"
	MetierMenuisier   TypeMetier = "MENUISIER"
	MetierTerrassier  TypeMetier = "TERRASSIER"
	MetierGrutier     TypeMetier = "GRUTIER"
	MetierManoeuvre   TypeMetier = "MANOEUVRE"
)

var metiers = map[TypeMetier]struct {
	libelle string
	couleur string
}{
	MetierMacon:       {"Maçon", "#b45309"},
	MetierElectricien: {"Électricien", "#eab308"},
	MetierPlombier:    {"Plombier", "#3b82f6"},
	MetierCharpentier: {"Charpentier", "#92400e"},
	MetierCouvreur:    {"Couvreur", "#64748b"},
	MetierPlaquiste:   {"Plaquiste", "#a8a29e"},
	MetierPeintre:     {"Peintre", "#ec4899"},
	MetierCarreleur:   {"Carreleur", "#14b8a6"},
	MetierMenuisier:   {"Menuisier", "#d97706"},
	MetierTerrassier:  {"Terrassier", "#78716c"},
	MetierGrutier:     {"Grutier", "#f97316"},
	MetierManoeuvre:   {"Manœuvre", "#9ca3af"},
}

// AllMetiers lists the catalog in display order.
func AllMetiers() []TypeMetier {
	return []TypeMetier{
		MetierMacon, MetierElectricien, MetierPlombier, MetierCharpentier,
		MetierCouvreur, MetierPlaquiste, MetierPeintre, MetierCarreleur,
		MetierMenuisier, MetierTerrassier, MetierGrutier, MetierManoeuvre,
	}
}

// EstValide reports membership in the catalog.
func (m TypeMetier) EstValide() bool {
	_, ok := metiers[m]
	return ok
}

// Libelle returns the display label, or the raw value when unknown.
func (m TypeMetier) Libelle() string {
	if e, ok := metiers[m]; ok {
		return e.libelle
	}
	return string(m)
}

// Couleur returns the presentation color (hex).
func (m TypeMetier) Couleur() string {
	if e, ok := metiers[m]; ok {
		return e.couleur
	}
	return "#9ca3af"
}
