package devis

// TypeVersion distinguishes the original devis from its derived copies.
type TypeVersion string

const (
	VersionInitiale TypeVersion = "INITIAL"
	VersionRevision TypeVersion = "REVISION"
	VersionVariante TypeVersion = "VARIANTE"
)

// Variant labels, closed set. The label is appended to the base numero.
const (
	VarianteECO  = "ECO"
	VarianteSTD  = "STD"
	VariantePREM = "PREM"
	VarianteALT  = "ALT"
)

var labelsVariante = map[string]bool{
	VarianteECO:  true,
	VarianteSTD:  true,
	VariantePREM: true,
	VarianteALT:  true,
}

// LabelVarianteValide reports membership in the closed label set.
func LabelVarianteValide(label string) bool {
	return labelsVariante[label]
}
