package devis

import (
	"errors"
	"fmt"
)

// Code identifies one failure kind. Callers switch on Code, never on
// message text.
type Code string

// Categorie groups codes for transport mapping (HTTP status, exit code).
type Categorie string

const (
	CategorieNotFound    Categorie = "not_found"
	CategorieConflit     Categorie = "conflit"
	CategorieValidation  Categorie = "validation"
	CategorieIntegration Categorie = "integration"
	CategorieNonEligible Categorie = "non_eligible"
)

const (
	CodeDevisNotFound          Code = "DEVIS_NOT_FOUND"
	CodeLotDevisNotFound       Code = "LOT_DEVIS_NOT_FOUND"
	CodeLigneDevisNotFound     Code = "LIGNE_DEVIS_NOT_FOUND"
	CodeArticleNotFound        Code = "ARTICLE_NOT_FOUND"
	CodeAttestationTVANotFound Code = "ATTESTATION_TVA_NOT_FOUND"
	CodeSignatureNotFound      Code = "SIGNATURE_NOT_FOUND"
	CodeFraisChantierNotFound  Code = "FRAIS_CHANTIER_NOT_FOUND"
	CodeComparatifNotFound     Code = "COMPARATIF_NOT_FOUND"
	CodeRelanceNotFound        Code = "RELANCE_NOT_FOUND"
	CodeBesoinNotFound         Code = "BESOIN_NOT_FOUND"

	CodeDevisNotModifiable            Code = "DEVIS_NOT_MODIFIABLE"
	CodeTransitionStatutDevisInvalide Code = "TRANSITION_STATUT_DEVIS_INVALIDE"
	CodeDevisDejaConverti             Code = "DEVIS_DEJA_CONVERTI"
	CodeDevisNonConvertible           Code = "DEVIS_NON_CONVERTIBLE"
	CodeDevisDejaSigne                Code = "DEVIS_DEJA_SIGNE"
	CodeDevisNonSignable              Code = "DEVIS_NON_SIGNABLE"
	CodeVersionFigee                  Code = "VERSION_FIGEE"
	CodeAttestationTVADejaExistante   Code = "ATTESTATION_TVA_DEJA_EXISTANTE"
	CodeBesoinAlreadyExists           Code = "BESOIN_ALREADY_EXISTS"

	CodeDevisValidation          Code = "DEVIS_VALIDATION"
	CodeAttestationTVAValidation Code = "ATTESTATION_TVA_VALIDATION"
	CodeFraisChantierValidation  Code = "FRAIS_CHANTIER_VALIDATION"
	CodeSignatureDevisValidation Code = "SIGNATURE_DEVIS_VALIDATION"
	CodeRelanceDevisValidation   Code = "RELANCE_DEVIS_VALIDATION"
	CodeTauxTVAInvalide          Code = "TAUX_TVA_INVALIDE"
	CodeRetenueGarantieInvalide  Code = "RETENUE_GARANTIE_INVALIDE"
	CodeOptionsInvalides         Code = "OPTIONS_PRESENTATION_INVALIDES"
	CodeConfigRelancesInvalide   Code = "CONFIG_RELANCES_INVALIDE"
	CodeTransitionNonAutorisee   Code = "TRANSITION_NON_AUTORISEE"
	CodeInvalidSemaineRange      Code = "INVALID_SEMAINE_RANGE"

	CodeConversion             Code = "CONVERSION"
	CodeDPGFFormat             Code = "DPGF_FORMAT"
	CodeDPGFImport             Code = "DPGF_IMPORT"
	CodeRelanceDevisExecution  Code = "RELANCE_DEVIS_EXECUTION"

	CodeTVANonEligible Code = "TVA_NON_ELIGIBLE"
)

var categories = map[Code]Categorie{
	CodeDevisNotFound:          CategorieNotFound,
	CodeLotDevisNotFound:       CategorieNotFound,
	CodeLigneDevisNotFound:     CategorieNotFound,
	CodeArticleNotFound:        CategorieNotFound,
	CodeAttestationTVANotFound: CategorieNotFound,
	CodeSignatureNotFound:      CategorieNotFound,
	CodeFraisChantierNotFound:  CategorieNotFound,
	CodeComparatifNotFound:     CategorieNotFound,
	CodeRelanceNotFound:        CategorieNotFound,
	CodeBesoinNotFound:         CategorieNotFound,

	CodeDevisNotModifiable:            CategorieConflit,
	CodeTransitionStatutDevisInvalide: CategorieConflit,
	CodeDevisDejaConverti:             CategorieConflit,
	CodeDevisNonConvertible:           CategorieConflit,
	CodeDevisDejaSigne:                CategorieConflit,
	CodeDevisNonSignable:              CategorieConflit,
	CodeVersionFigee:                  CategorieConflit,
	CodeAttestationTVADejaExistante:   CategorieConflit,
	CodeBesoinAlreadyExists:           CategorieConflit,

	CodeDevisValidation:          CategorieValidation,
	CodeAttestationTVAValidation: CategorieValidation,
	CodeFraisChantierValidation:  CategorieValidation,
	CodeSignatureDevisValidation: CategorieValidation,
	CodeRelanceDevisValidation:   CategorieValidation,
	CodeTauxTVAInvalide:          CategorieValidation,
	CodeRetenueGarantieInvalide:  CategorieValidation,
	CodeOptionsInvalides:         CategorieValidation,
	CodeConfigRelancesInvalide:   CategorieValidation,
	CodeTransitionNonAutorisee:   CategorieValidation,
	CodeInvalidSemaineRange:      CategorieValidation,

	CodeConversion:            CategorieIntegration,
	CodeDPGFFormat:            CategorieIntegration,
	CodeDPGFImport:            CategorieIntegration,
	CodeRelanceDevisExecution: CategorieIntegration,

	CodeTVANonEligible: CategorieNonEligible,
}

// Error is the domain error of the devis and planning contexts. Two
// errors match under errors.Is when they carry the same Code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Categorie reports the code's group.
func (e *Error) Categorie() Categorie { return categories[e.Code] }

// HTTPStatus suggests a transport mapping for the error's category.
func (c Categorie) HTTPStatus() int {
	switch c {
	case CategorieNotFound:
		return 404
	case CategorieConflit:
		return 409
	case CategorieValidation:
		return 422
	case CategorieNonEligible:
		return 422
	case CategorieIntegration:
		return 502
	default:
		return 500
	}
}

// NewError builds a domain error. Prefer the typed constructors below;
// this is exported for the planning package, which shares the taxonomy.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a cause, for integration failures.
func WrapError(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// CodeOf extracts the domain code from err, or "" when err is not a
// domain error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// --- NotFound ---

func ErrDevisNotFound(id int64) *Error {
	return NewError(CodeDevisNotFound, "devis %d introuvable", id)
}

func ErrDevisNotFoundNumero(numero string) *Error {
	return NewError(CodeDevisNotFound, "devis %s introuvable", numero)
}

func ErrLotNotFound(id int64) *Error {
	return NewError(CodeLotDevisNotFound, "lot %d introuvable", id)
}

func ErrLigneNotFound(id int64) *Error {
	return NewError(CodeLigneDevisNotFound, "ligne %d introuvable", id)
}

func ErrArticleNotFound(id int64) *Error {
	return NewError(CodeArticleNotFound, "article %d introuvable", id)
}

func ErrAttestationNotFound(devisID int64) *Error {
	return NewError(CodeAttestationTVANotFound, "aucune attestation TVA pour le devis %d", devisID)
}

func ErrSignatureNotFound(devisID int64) *Error {
	return NewError(CodeSignatureNotFound, "aucune signature pour le devis %d", devisID)
}

func ErrFraisNotFound(id int64) *Error {
	return NewError(CodeFraisChantierNotFound, "frais de chantier %d introuvable", id)
}

func ErrRelanceNotFound(id int64) *Error {
	return NewError(CodeRelanceNotFound, "relance %d introuvable", id)
}

func ErrBesoinNotFound(id int64) *Error {
	return NewError(CodeBesoinNotFound, "besoin de charge %d introuvable", id)
}

// --- Conflit / état ---

func ErrDevisNotModifiable(numero string, statut StatutDevis) *Error {
	return NewError(CodeDevisNotModifiable, "devis %s non modifiable au statut %s", numero, statut)
}

func ErrTransitionInvalide(from, to StatutDevis) *Error {
	return NewError(CodeTransitionStatutDevisInvalide, "transition %s → %s interdite", from, to)
}

func ErrDevisDejaConverti(numero string, chantierID int64) *Error {
	return NewError(CodeDevisDejaConverti, "devis %s déjà converti (chantier %d)", numero, chantierID)
}

func ErrDevisNonConvertible(numero, raison string) *Error {
	return NewError(CodeDevisNonConvertible, "devis %s non convertible: %s", numero, raison)
}

func ErrDevisDejaSigne(numero string) *Error {
	return NewError(CodeDevisDejaSigne, "devis %s déjà signé", numero)
}

func ErrDevisNonSignable(numero string, statut StatutDevis) *Error {
	return NewError(CodeDevisNonSignable, "devis %s non signable au statut %s", numero, statut)
}

func ErrVersionFigee(numero string) *Error {
	return NewError(CodeVersionFigee, "version %s figée", numero)
}

func ErrAttestationDejaExistante(devisID int64) *Error {
	return NewError(CodeAttestationTVADejaExistante, "attestation TVA déjà émise pour le devis %d", devisID)
}

func ErrBesoinAlreadyExists(code string) *Error {
	return NewError(CodeBesoinAlreadyExists, "besoin déjà déclaré pour %s", code)
}

// --- Validation ---

func ErrDevisValidation(format string, args ...any) *Error {
	return NewError(CodeDevisValidation, format, args...)
}

func ErrAttestationValidation(format string, args ...any) *Error {
	return NewError(CodeAttestationTVAValidation, format, args...)
}

func ErrFraisValidation(format string, args ...any) *Error {
	return NewError(CodeFraisChantierValidation, format, args...)
}

func ErrSignatureValidation(format string, args ...any) *Error {
	return NewError(CodeSignatureDevisValidation, format, args...)
}

func ErrRelanceValidation(format string, args ...any) *Error {
	return NewError(CodeRelanceDevisValidation, format, args...)
}

func ErrTauxTVAInvalide(taux string) *Error {
	return NewError(CodeTauxTVAInvalide, "taux de TVA %s hors {0, 5.5, 10, 20}", taux)
}

func ErrRetenueInvalide(taux string) *Error {
	return NewError(CodeRetenueGarantieInvalide, "retenue de garantie %s hors {0, 5, 10}", taux)
}

func ErrOptionsInvalides(format string, args ...any) *Error {
	return NewError(CodeOptionsInvalides, format, args...)
}

func ErrConfigRelancesInvalide(format string, args ...any) *Error {
	return NewError(CodeConfigRelancesInvalide, format, args...)
}

func ErrTransitionNonAutorisee(action string, role Role) *Error {
	return NewError(CodeTransitionNonAutorisee, "rôle %s non autorisé pour %s", role, action)
}

// --- Intégration ---

func ErrConversion(cause error, numero string) *Error {
	return WrapError(CodeConversion, cause, "conversion du devis %s en chantier", numero)
}

func ErrDPGFFormat(format string, args ...any) *Error {
	return NewError(CodeDPGFFormat, format, args...)
}

func ErrDPGFImport(format string, args ...any) *Error {
	return NewError(CodeDPGFImport, format, args...)
}

func ErrRelanceExecution(cause error, relanceID int64) *Error {
	return WrapError(CodeRelanceDevisExecution, cause, "envoi de la relance %d", relanceID)
}

// --- Non éligible ---

func ErrTVANonEligible(taux string) *Error {
	return NewError(CodeTVANonEligible, "taux de TVA %s non éligible à attestation", taux)
}
