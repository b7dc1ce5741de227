package sqlite

import (
	"context"
	"database/sql"
	"time"

	"baticore/internal/devis"
)

// --- Lots ---

type lotRepo DB

const lotColonnes = `id, devis_id, parent_id, code_lot, titre, ordre, marge,
	total_ht, total_ttc, total_debourse, created_at, updated_at, created_by`

func scanLot(row interface{ Scan(...any) error }) (*devis.Lot, error) {
	var (
		l                               devis.Lot
		marge                           sql.NullFloat64
		totalHT, totalTTC, totalDeb     string
		createdAt, updatedAt            string
	)
	err := row.Scan(&l.ID, &l.DevisID, &l.ParentID, &l.CodeLot, &l.Titre, &l.Ordre, &marge,
		&totalHT, &totalTTC, &totalDeb, &createdAt, &updatedAt, &l.CreatedBy)
	if err != nil {
		return nil, err
	}
	l.Marge = parseFloatPtr(marge)
	l.TotalHT = dec(totalHT)
	l.TotalTTC = dec(totalTTC)
	l.TotalDebourse = dec(totalDeb)
	l.CreatedAt = parseTime(createdAt)
	l.UpdatedAt = parseTime(updatedAt)
	return &l, nil
}

func (r *lotRepo) Save(ctx context.Context, l *devis.Lot) error {
	db := (*DB)(r)
	now := time.Now().UTC()

	if l.ID == 0 {
		l.CreatedAt = now
		l.UpdatedAt = now
		res, err := db.sql.ExecContext(ctx, `
			INSERT INTO lots (devis_id, parent_id, code_lot, titre, ordre, marge,
				total_ht, total_ttc, total_debourse, created_at, updated_at, created_by)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.DevisID, l.ParentID, l.CodeLot, l.Titre, l.Ordre, fmtFloatPtr(l.Marge),
			l.TotalHT.String(), l.TotalTTC.String(), l.TotalDebourse.String(),
			fmtTime(l.CreatedAt), fmtTime(l.UpdatedAt), l.CreatedBy)
		if err != nil {
			return err
		}
		l.ID, err = res.LastInsertId()
		return err
	}

	l.UpdatedAt = now
	_, err := db.sql.ExecContext(ctx, `
		UPDATE lots SET parent_id = ?, code_lot = ?, titre = ?, ordre = ?, marge = ?,
			total_ht = ?, total_ttc = ?, total_debourse = ?, updated_at = ?
		WHERE id = ?`,
		l.ParentID, l.CodeLot, l.Titre, l.Ordre, fmtFloatPtr(l.Marge),
		l.TotalHT.String(), l.TotalTTC.String(), l.TotalDebourse.String(),
		fmtTime(l.UpdatedAt), l.ID)
	return err
}

func (r *lotRepo) FindByID(ctx context.Context, id int64) (*devis.Lot, error) {
	db := (*DB)(r)
	l, err := scanLot(db.sql.QueryRowContext(ctx,
		"SELECT "+lotColonnes+" FROM lots WHERE id = ? AND deleted_at IS NULL", id))
	if err != nil {
		return nil, devis.ErrLotNotFound(id)
	}
	return l, nil
}

func (r *lotRepo) FindByDevis(ctx context.Context, devisID int64) ([]*devis.Lot, error) {
	db := (*DB)(r)
	rows, err := db.sql.QueryContext(ctx,
		"SELECT "+lotColonnes+" FROM lots WHERE devis_id = ? AND deleted_at IS NULL ORDER BY parent_id, ordre",
		devisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*devis.Lot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *lotRepo) Delete(ctx context.Context, id, par int64) error {
	db := (*DB)(r)
	res, err := db.sql.ExecContext(ctx,
		"UPDATE lots SET deleted_at = ?, deleted_by = ? WHERE id = ? AND deleted_at IS NULL",
		fmtTime(time.Now()), par, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return devis.ErrLotNotFound(id)
	}
	return nil
}

// --- Lignes ---

type ligneRepo DB

const ligneColonnes = `id, devis_id, lot_id, code_ligne, designation, unite, quantite,
	prix_unitaire_ht, taux_tva, marge, article_id, ordre, verrouille, montant_ht, montant_ttc,
	debourse_sec, prix_revient, niveau_marge, created_at, updated_at, created_by`

func scanLigne(row interface{ Scan(...any) error }) (*devis.LigneDevis, error) {
	var (
		l                                      devis.LigneDevis
		quantite, prixUnitaire                 string
		tauxTVA                                float64
		marge                                  sql.NullFloat64
		verrouille                             int
		montantHT, montantTTC, debSec, revient string
		niveauMarge                            string
		createdAt, updatedAt                   string
	)
	err := row.Scan(&l.ID, &l.DevisID, &l.LotID, &l.CodeLigne, &l.Designation, &l.Unite, &quantite,
		&prixUnitaire, &tauxTVA, &marge, &l.ArticleID, &l.Ordre, &verrouille, &montantHT, &montantTTC,
		&debSec, &revient, &niveauMarge, &createdAt, &updatedAt, &l.CreatedBy)
	if err != nil {
		return nil, err
	}
	l.Quantite = dec(quantite)
	l.PrixUnitaireHT = dec(prixUnitaire)
	l.TauxTVA = devis.TauxTVA(tauxTVA)
	l.Marge = parseFloatPtr(marge)
	l.Verrouille = verrouille != 0
	l.MontantHT = dec(montantHT)
	l.MontantTTC = dec(montantTTC)
	l.DebourseSec = dec(debSec)
	l.PrixRevient = dec(revient)
	l.NiveauMarge = devis.NiveauMarge(niveauMarge)
	l.CreatedAt = parseTime(createdAt)
	l.UpdatedAt = parseTime(updatedAt)
	return &l, nil
}

// Save persists the line and replaces its debourse details wholesale.
func (r *ligneRepo) Save(ctx context.Context, l *devis.LigneDevis) error {
	db := (*DB)(r)
	now := time.Now().UTC()

	if l.ID == 0 {
		l.CreatedAt = now
		l.UpdatedAt = now
		res, err := db.sql.ExecContext(ctx, `
			INSERT INTO lignes (devis_id, lot_id, code_ligne, designation, unite, quantite,
				prix_unitaire_ht, taux_tva, marge, article_id, ordre, verrouille, montant_ht,
				montant_ttc, debourse_sec, prix_revient, niveau_marge, created_at, updated_at, created_by)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.DevisID, l.LotID, l.CodeLigne, l.Designation, l.Unite, l.Quantite.String(),
			l.PrixUnitaireHT.String(), float64(l.TauxTVA), fmtFloatPtr(l.Marge), l.ArticleID, l.Ordre,
			boolInt(l.Verrouille), l.MontantHT.String(), l.MontantTTC.String(), l.DebourseSec.String(),
			l.PrixRevient.String(), string(l.NiveauMarge), fmtTime(l.CreatedAt), fmtTime(l.UpdatedAt), l.CreatedBy)
		if err != nil {
			return err
		}
		l.ID, err = res.LastInsertId()
		if err != nil {
			return err
		}
	} else {
		l.UpdatedAt = now
		_, err := db.sql.ExecContext(ctx, `
			UPDATE lignes SET lot_id = ?, code_ligne = ?, designation = ?, unite = ?, quantite = ?,
				prix_unitaire_ht = ?, taux_tva = ?, marge = ?, article_id = ?, ordre = ?,
				verrouille = ?, montant_ht = ?, montant_ttc = ?, debourse_sec = ?, prix_revient = ?,
				niveau_marge = ?, updated_at = ?
			WHERE id = ?`,
			l.LotID, l.CodeLigne, l.Designation, l.Unite, l.Quantite.String(),
			l.PrixUnitaireHT.String(), float64(l.TauxTVA), fmtFloatPtr(l.Marge), l.ArticleID, l.Ordre,
			boolInt(l.Verrouille), l.MontantHT.String(), l.MontantTTC.String(), l.DebourseSec.String(),
			l.PrixRevient.String(), string(l.NiveauMarge), fmtTime(l.UpdatedAt), l.ID)
		if err != nil {
			return err
		}
	}

	if _, err := db.sql.ExecContext(ctx, "DELETE FROM debourses WHERE ligne_id = ?", l.ID); err != nil {
		return err
	}
	for i := range l.Debourses {
		det := &l.Debourses[i]
		det.LigneID = l.ID
		if det.CreatedAt.IsZero() {
			det.CreatedAt = now
		}
		res, err := db.sql.ExecContext(ctx, `
			INSERT INTO debourses (ligne_id, type, designation, quantite, prix_unitaire, metier, taux_horaire, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			det.LigneID, string(det.Type), det.Designation, det.Quantite.String(),
			det.PrixUnitaire.String(), string(det.Metier), det.TauxHoraire.String(), fmtTime(det.CreatedAt))
		if err != nil {
			return err
		}
		det.ID, err = res.LastInsertId()
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *ligneRepo) chargerDebourses(ctx context.Context, l *devis.LigneDevis) error {
	db := (*DB)(r)
	rows, err := db.sql.QueryContext(ctx, `
		SELECT id, ligne_id, type, designation, quantite, prix_unitaire, metier, taux_horaire, created_at
		  FROM debourses WHERE ligne_id = ? ORDER BY id`, l.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	l.Debourses = nil
	for rows.Next() {
		var (
			det                             devis.DebourseDetail
			typ, metier                     string
			quantite, prix, tauxHoraire     string
			createdAt                       string
		)
		if err := rows.Scan(&det.ID, &det.LigneID, &typ, &det.Designation, &quantite, &prix,
			&metier, &tauxHoraire, &createdAt); err != nil {
			return err
		}
		det.Type = devis.TypeDebourse(typ)
		det.Quantite = dec(quantite)
		det.PrixUnitaire = dec(prix)
		det.Metier = devis.TypeMetier(metier)
		det.TauxHoraire = dec(tauxHoraire)
		det.CreatedAt = parseTime(createdAt)
		l.Debourses = append(l.Debourses, det)
	}
	return rows.Err()
}

func (r *ligneRepo) FindByID(ctx context.Context, id int64) (*devis.LigneDevis, error) {
	db := (*DB)(r)
	l, err := scanLigne(db.sql.QueryRowContext(ctx,
		"SELECT "+ligneColonnes+" FROM lignes WHERE id = ? AND deleted_at IS NULL", id))
	if err != nil {
		return nil, devis.ErrLigneNotFound(id)
	}
	if err := r.chargerDebourses(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (r *ligneRepo) queryLignes(ctx context.Context, where string, args ...any) ([]*devis.LigneDevis, error) {
	db := (*DB)(r)
	rows, err := db.sql.QueryContext(ctx,
		"SELECT "+ligneColonnes+" FROM lignes WHERE deleted_at IS NULL"+where+" ORDER BY lot_id, ordre", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*devis.LigneDevis
	for rows.Next() {
		l, err := scanLigne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, l := range out {
		if err := r.chargerDebourses(ctx, l); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *ligneRepo) FindByLot(ctx context.Context, lotID int64) ([]*devis.LigneDevis, error) {
	return r.queryLignes(ctx, " AND lot_id = ?", lotID)
}

func (r *ligneRepo) FindByDevis(ctx context.Context, devisID int64) ([]*devis.LigneDevis, error) {
	return r.queryLignes(ctx, " AND devis_id = ?", devisID)
}

func (r *ligneRepo) Delete(ctx context.Context, id, par int64) error {
	db := (*DB)(r)
	res, err := db.sql.ExecContext(ctx,
		"UPDATE lignes SET deleted_at = ?, deleted_by = ? WHERE id = ? AND deleted_at IS NULL",
		fmtTime(time.Now()), par, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return devis.ErrLigneNotFound(id)
	}
	return nil
}
