package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"baticore/internal/devis"
	"baticore/internal/storage"
)

type devisRepo DB

const devisColonnes = `id, numero, client_nom, client_adresse, client_email, client_telephone,
	objet, statut, total_ht, total_ttc, taux_tva_defaut, marge_globale, marges_par_type,
	coefficient_fg, retenue_garantie, date_validite, date_envoi, commercial_id, conducteur_id,
	chantier_id, type_version, version_numero, parent_devis_id, version_figee, label_variante,
	options, config_relances, created_at, updated_at, created_by`

func scanDevis(row interface{ Scan(...any) error }) (*devis.Devis, error) {
	var (
		d                                  devis.Devis
		totalHT, totalTTC                  string
		tauxTVA, retenue                   float64
		margesJSON                         sql.NullString
		dateValidite                       string
		dateEnvoi                          sql.NullString
		versionFigee                       int
		optionsJSON, relancesJSON          string
		createdAt, updatedAt               string
	)
	err := row.Scan(
		&d.ID, &d.Numero, &d.ClientNom, &d.ClientAdresse, &d.ClientEmail, &d.ClientTelephone,
		&d.Objet, &d.Statut, &totalHT, &totalTTC, &tauxTVA, &d.MargeGlobale, &margesJSON,
		&d.CoefficientFraisGeneraux, &retenue, &dateValidite, &dateEnvoi, &d.CommercialID, &d.ConducteurID,
		&d.ChantierID, &d.TypeVersion, &d.VersionNumero, &d.ParentDevisID, &versionFigee, &d.LabelVariante,
		&optionsJSON, &relancesJSON, &createdAt, &updatedAt, &d.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	d.TotalHT = dec(totalHT)
	d.TotalTTC = dec(totalTTC)
	d.TauxTVADefaut = devis.TauxTVA(tauxTVA)
	d.RetenueGarantie = devis.RetenueGarantie(retenue)
	d.DateValidite = parseTime(dateValidite)
	d.DateEnvoi = parseTimePtr(dateEnvoi)
	d.VersionFigee = versionFigee != 0
	d.CreatedAt = parseTime(createdAt)
	d.UpdatedAt = parseTime(updatedAt)
	if margesJSON.Valid && margesJSON.String != "" {
		json.Unmarshal([]byte(margesJSON.String), &d.MargesParType)
	}
	json.Unmarshal([]byte(optionsJSON), &d.Options)
	d.Options = d.Options.Normaliser()
	json.Unmarshal([]byte(relancesJSON), &d.ConfigRelances)
	return &d, nil
}

func (r *devisRepo) Save(ctx context.Context, d *devis.Devis) error {
	db := (*DB)(r)
	now := time.Now().UTC()

	var margesJSON any
	if d.MargesParType != nil {
		b, err := json.Marshal(d.MargesParType)
		if err != nil {
			return err
		}
		margesJSON = string(b)
	}
	optionsJSON, err := json.Marshal(d.Options.Normaliser())
	if err != nil {
		return err
	}
	relancesJSON, err := json.Marshal(d.ConfigRelances)
	if err != nil {
		return err
	}

	if d.ID == 0 {
		d.CreatedAt = now
		d.UpdatedAt = now
		res, err := db.sql.ExecContext(ctx, `
			INSERT INTO devis (numero, client_nom, client_adresse, client_email, client_telephone,
				objet, statut, total_ht, total_ttc, taux_tva_defaut, marge_globale, marges_par_type,
				coefficient_fg, retenue_garantie, date_validite, date_envoi, commercial_id, conducteur_id,
				chantier_id, type_version, version_numero, parent_devis_id, version_figee, label_variante,
				options, config_relances, created_at, updated_at, created_by)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.Numero, d.ClientNom, d.ClientAdresse, d.ClientEmail, d.ClientTelephone,
			d.Objet, string(d.Statut), d.TotalHT.String(), d.TotalTTC.String(), float64(d.TauxTVADefaut),
			d.MargeGlobale, margesJSON, d.CoefficientFraisGeneraux, float64(d.RetenueGarantie),
			fmtTime(d.DateValidite), fmtTimePtr(d.DateEnvoi), d.CommercialID, d.ConducteurID,
			d.ChantierID, string(d.TypeVersion), d.VersionNumero, d.ParentDevisID, boolInt(d.VersionFigee),
			d.LabelVariante, string(optionsJSON), string(relancesJSON), fmtTime(d.CreatedAt), fmtTime(d.UpdatedAt), d.CreatedBy,
		)
		if err != nil {
			return err
		}
		d.ID, err = res.LastInsertId()
		return err
	}

	d.UpdatedAt = now
	_, err = db.sql.ExecContext(ctx, `
		UPDATE devis SET numero = ?, client_nom = ?, client_adresse = ?, client_email = ?,
			client_telephone = ?, objet = ?, statut = ?, total_ht = ?, total_ttc = ?,
			taux_tva_defaut = ?, marge_globale = ?, marges_par_type = ?, coefficient_fg = ?,
			retenue_garantie = ?, date_validite = ?, date_envoi = ?, commercial_id = ?,
			conducteur_id = ?, chantier_id = ?, type_version = ?, version_numero = ?,
			parent_devis_id = ?, version_figee = ?, label_variante = ?, options = ?,
			config_relances = ?, updated_at = ?
		WHERE id = ?`,
		d.Numero, d.ClientNom, d.ClientAdresse, d.ClientEmail, d.ClientTelephone,
		d.Objet, string(d.Statut), d.TotalHT.String(), d.TotalTTC.String(), float64(d.TauxTVADefaut),
		d.MargeGlobale, margesJSON, d.CoefficientFraisGeneraux, float64(d.RetenueGarantie),
		fmtTime(d.DateValidite), fmtTimePtr(d.DateEnvoi), d.CommercialID, d.ConducteurID,
		d.ChantierID, string(d.TypeVersion), d.VersionNumero, d.ParentDevisID, boolInt(d.VersionFigee),
		d.LabelVariante, string(optionsJSON), string(relancesJSON), fmtTime(d.UpdatedAt), d.ID,
	)
	return err
}

func (r *devisRepo) FindByID(ctx context.Context, id int64) (*devis.Devis, error) {
	db := (*DB)(r)
	d, err := scanDevis(db.sql.QueryRowContext(ctx,
		"SELECT "+devisColonnes+" FROM devis WHERE id = ? AND deleted_at IS NULL", id))
	if err != nil {
		return nil, devis.ErrDevisNotFound(id)
	}
	return d, nil
}

func (r *devisRepo) FindByNumero(ctx context.Context, numero string) (*devis.Devis, error) {
	db := (*DB)(r)
	d, err := scanDevis(db.sql.QueryRowContext(ctx,
		"SELECT "+devisColonnes+" FROM devis WHERE numero = ? AND deleted_at IS NULL", numero))
	if err != nil {
		return nil, devis.ErrDevisNotFoundNumero(numero)
	}
	return d, nil
}

func (r *devisRepo) queryDevis(ctx context.Context, where string, args ...any) ([]*devis.Devis, error) {
	db := (*DB)(r)
	rows, err := db.sql.QueryContext(ctx,
		"SELECT "+devisColonnes+" FROM devis WHERE deleted_at IS NULL"+where+" ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*devis.Devis
	for rows.Next() {
		d, err := scanDevis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *devisRepo) FindAll(ctx context.Context, f storage.FiltreDevis) ([]*devis.Devis, error) {
	where := ""
	var args []any
	if f.ClientNom != "" {
		where += " AND client_nom LIKE ?"
		args = append(args, "%"+f.ClientNom+"%")
	}
	if len(f.Statuts) > 0 {
		where += " AND statut IN (?" + repeatPlaceholders(len(f.Statuts)-1) + ")"
		for _, s := range f.Statuts {
			args = append(args, string(s))
		}
	}
	if f.DateDebut != nil {
		where += " AND created_at >= ?"
		args = append(args, fmtTime(*f.DateDebut))
	}
	if f.DateFin != nil {
		where += " AND created_at <= ?"
		args = append(args, fmtTime(*f.DateFin))
	}
	if f.MontantMin != nil {
		where += " AND CAST(total_ht AS REAL) >= ?"
		mn, _ := f.MontantMin.Float64()
		args = append(args, mn)
	}
	if f.MontantMax != nil {
		where += " AND CAST(total_ht AS REAL) <= ?"
		mx, _ := f.MontantMax.Float64()
		args = append(args, mx)
	}
	if f.CommercialID != 0 {
		where += " AND commercial_id = ?"
		args = append(args, f.CommercialID)
	}
	if f.ConducteurID != 0 {
		where += " AND conducteur_id = ?"
		args = append(args, f.ConducteurID)
	}
	if f.Recherche != "" {
		where += " AND (numero LIKE ? OR client_nom LIKE ? OR objet LIKE ?)"
		q := "%" + f.Recherche + "%"
		args = append(args, q, q, q)
	}

	out, err := r.queryDevis(ctx, where, args...)
	if err != nil {
		return nil, err
	}
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *devisRepo) FindAllInRange(ctx context.Context, debut, fin time.Time) ([]*devis.Devis, error) {
	return r.queryDevis(ctx, " AND created_at >= ? AND created_at <= ?", fmtTime(debut), fmtTime(fin))
}

// origineFamille walks the parent chain up to the family root.
func (r *devisRepo) origineFamille(ctx context.Context, id int64) int64 {
	db := (*DB)(r)
	for {
		var parent int64
		err := db.sql.QueryRowContext(ctx, "SELECT parent_devis_id FROM devis WHERE id = ?", id).Scan(&parent)
		if err != nil || parent == 0 {
			return id
		}
		id = parent
	}
}

func (r *devisRepo) FindVersions(ctx context.Context, devisID int64) ([]*devis.Devis, error) {
	origine := r.origineFamille(ctx, devisID)
	return r.queryDevis(ctx, " AND (id = ? OR parent_devis_id = ?)", origine, origine)
}

func (r *devisRepo) NextVersionNumber(ctx context.Context, devisID int64) (int, error) {
	versions, err := r.FindVersions(ctx, devisID)
	if err != nil {
		return 0, err
	}
	max := 0
	for _, v := range versions {
		if v.VersionNumero > max {
			max = v.VersionNumero
		}
	}
	return max + 1, nil
}

func (r *devisRepo) NextNumeroSequence(ctx context.Context, annee int) (int, error) {
	db := (*DB)(r)
	var n int
	err := db.sql.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM devis
		 WHERE substr(created_at, 1, 4) = ? AND type_version = ?`,
		strconv.Itoa(annee), string(devis.VersionInitiale)).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

func (r *devisRepo) Count(ctx context.Context) (int, error) {
	db := (*DB)(r)
	var n int
	err := db.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM devis WHERE deleted_at IS NULL").Scan(&n)
	return n, err
}

func (r *devisRepo) CountByStatut(ctx context.Context) (map[devis.StatutDevis]int, error) {
	db := (*DB)(r)
	rows, err := db.sql.QueryContext(ctx,
		"SELECT statut, COUNT(*) FROM devis WHERE deleted_at IS NULL GROUP BY statut")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[devis.StatutDevis]int)
	for rows.Next() {
		var statut string
		var n int
		if err := rows.Scan(&statut, &n); err != nil {
			return nil, err
		}
		out[devis.StatutDevis(statut)] = n
	}
	return out, rows.Err()
}

func (r *devisRepo) SommeMontantByStatut(ctx context.Context) (map[devis.StatutDevis]decimal.Decimal, error) {
	db := (*DB)(r)
	rows, err := db.sql.QueryContext(ctx,
		"SELECT statut, total_ht FROM devis WHERE deleted_at IS NULL")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[devis.StatutDevis]decimal.Decimal)
	for rows.Next() {
		var statut, totalHT string
		if err := rows.Scan(&statut, &totalHT); err != nil {
			return nil, err
		}
		st := devis.StatutDevis(statut)
		out[st] = out[st].Add(dec(totalHT))
	}
	return out, rows.Err()
}

func (r *devisRepo) FindExpires(ctx context.Context, aujourdhui time.Time) ([]*devis.Devis, error) {
	candidats, err := r.queryDevis(ctx, " AND statut IN (?, ?)",
		string(devis.StatutEnvoye), string(devis.StatutVu))
	if err != nil {
		return nil, err
	}
	var out []*devis.Devis
	for _, d := range candidats {
		if d.EstExpire(aujourdhui) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *devisRepo) Delete(ctx context.Context, id, par int64) error {
	db := (*DB)(r)
	res, err := db.sql.ExecContext(ctx,
		"UPDATE devis SET deleted_at = ?, deleted_by = ? WHERE id = ? AND deleted_at IS NULL",
		fmtTime(time.Now()), par, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return devis.ErrDevisNotFound(id)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func repeatPlaceholders(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		s += ", ?"
	}
	return s
}
