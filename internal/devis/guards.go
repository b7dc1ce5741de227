package devis

import "github.com/shopspring/decimal"

// Role is the caller's role, extracted upstream of the core.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleConducteur   Role = "conducteur"
	RoleCommercial   Role = "commercial"
	RoleChefChantier Role = "chef_chantier"
	RoleCompagnon    Role = "compagnon"
)

// ActionDevis names one guarded workflow operation.
type ActionDevis string

const (
	ActSoumettre          ActionDevis = "soumettre"
	ActValider            ActionDevis = "valider"
	ActRetournerBrouillon ActionDevis = "retourner_brouillon"
	ActEnvoyer            ActionDevis = "envoyer"
	ActMarquerVu          ActionDevis = "marquer_vu"
	ActNegocier           ActionDevis = "negocier"
	ActAccepter           ActionDevis = "accepter"
	ActRefuser            ActionDevis = "refuser"
	ActPerdu              ActionDevis = "perdu"
	ActExpirer            ActionDevis = "expirer"
	ActConvertir          ActionDevis = "convertir"
	ActSigner             ActionDevis = "signer"
	ActRevoquerSignature  ActionDevis = "revoquer_signature"
	ActReviser            ActionDevis = "reviser"
	ActFigerVersion       ActionDevis = "figer_version"
	ActGererBesoins       ActionDevis = "gerer_besoins"
)

// permissions is the closed action → roles table. The three privileged
// roles drive the commercial workflow; signature acceptance itself is
// client-side and unguarded.
var permissions = map[ActionDevis][]Role{
	ActSoumettre:          {RoleAdmin, RoleConducteur, RoleCommercial},
	ActValider:            {RoleAdmin, RoleConducteur},
	ActRetournerBrouillon: {RoleAdmin, RoleConducteur, RoleCommercial},
	ActEnvoyer:            {RoleAdmin, RoleConducteur, RoleCommercial},
	ActMarquerVu:          {RoleAdmin, RoleConducteur, RoleCommercial},
	ActNegocier:           {RoleAdmin, RoleConducteur, RoleCommercial},
	ActAccepter:           {RoleAdmin, RoleConducteur, RoleCommercial},
	ActRefuser:            {RoleAdmin, RoleConducteur, RoleCommercial},
	ActPerdu:              {RoleAdmin, RoleConducteur, RoleCommercial},
	ActExpirer:            {RoleAdmin, RoleConducteur, RoleCommercial},
	ActConvertir:          {RoleAdmin, RoleConducteur},
	ActSigner:             {RoleAdmin, RoleConducteur, RoleCommercial},
	ActRevoquerSignature:  {RoleAdmin},
	ActReviser:            {RoleAdmin, RoleConducteur, RoleCommercial},
	ActFigerVersion:       {RoleAdmin, RoleConducteur, RoleCommercial},
	ActGererBesoins:       {RoleAdmin, RoleConducteur},
}

// SeuilValidationAdmin is the HT amount at or above which valider
// requires the admin role.
var SeuilValidationAdmin = decimal.NewFromInt(50000)

// AutoriserAction checks the permission table.
func AutoriserAction(action ActionDevis, role Role) error {
	for _, r := range permissions[action] {
		if r == role {
			return nil
		}
	}
	return ErrTransitionNonAutorisee(string(action), role)
}

// AutoriserValidation adds the amount rule on top of the table: a devis
// whose HT reaches the threshold can only be validated by an admin.
func AutoriserValidation(role Role, totalHT decimal.Decimal) error {
	if err := AutoriserAction(ActValider, role); err != nil {
		return err
	}
	if totalHT.GreaterThanOrEqual(SeuilValidationAdmin) && role != RoleAdmin {
		return ErrTransitionNonAutorisee("valider (HT ≥ 50 000)", role)
	}
	return nil
}
