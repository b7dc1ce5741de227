package sqlite

import (
	"context"
	"time"

	"baticore/internal/devis"
	"baticore/internal/planning"
)

type besoinRepo DB

const besoinColonnes = `id, chantier_id, annee, semaine, metier, heures, note,
	created_at, updated_at, created_by`

func scanBesoin(row interface{ Scan(...any) error }) (*planning.BesoinCharge, error) {
	var (
		b                    planning.BesoinCharge
		metier               string
		createdAt, updatedAt string
	)
	err := row.Scan(&b.ID, &b.ChantierID, &b.Semaine.Annee, &b.Semaine.Num, &metier, &b.Heures,
		&b.Note, &createdAt, &updatedAt, &b.CreatedBy)
	if err != nil {
		return nil, err
	}
	b.Metier = devis.TypeMetier(metier)
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	return &b, nil
}

func (r *besoinRepo) Save(ctx context.Context, b *planning.BesoinCharge) error {
	db := (*DB)(r)

	// The triplet uniqueness is enforced here rather than left to the
	// UNIQUE index so the caller gets the domain error.
	var existant int64
	err := db.sql.QueryRowContext(ctx, `
		SELECT id FROM besoins_charge
		 WHERE chantier_id = ? AND annee = ? AND semaine = ? AND metier = ?`,
		b.ChantierID, b.Semaine.Annee, b.Semaine.Num, string(b.Metier)).Scan(&existant)
	if err == nil && existant != b.ID {
		return devis.ErrBesoinAlreadyExists(b.CodeUnique())
	}

	now := time.Now().UTC()
	if b.ID == 0 {
		b.CreatedAt = now
		b.UpdatedAt = now
		res, err := db.sql.ExecContext(ctx, `
			INSERT INTO besoins_charge (chantier_id, annee, semaine, metier, heures, note,
				created_at, updated_at, created_by)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ChantierID, b.Semaine.Annee, b.Semaine.Num, string(b.Metier), b.Heures, b.Note,
			fmtTime(b.CreatedAt), fmtTime(b.UpdatedAt), b.CreatedBy)
		if err != nil {
			return err
		}
		b.ID, err = res.LastInsertId()
		return err
	}

	b.UpdatedAt = now
	_, err = db.sql.ExecContext(ctx, `
		UPDATE besoins_charge SET chantier_id = ?, annee = ?, semaine = ?, metier = ?,
			heures = ?, note = ?, updated_at = ?
		WHERE id = ?`,
		b.ChantierID, b.Semaine.Annee, b.Semaine.Num, string(b.Metier), b.Heures, b.Note,
		fmtTime(b.UpdatedAt), b.ID)
	return err
}

func (r *besoinRepo) FindByID(ctx context.Context, id int64) (*planning.BesoinCharge, error) {
	db := (*DB)(r)
	b, err := scanBesoin(db.sql.QueryRowContext(ctx,
		"SELECT "+besoinColonnes+" FROM besoins_charge WHERE id = ?", id))
	if err != nil {
		return nil, devis.ErrBesoinNotFound(id)
	}
	return b, nil
}

func (r *besoinRepo) FindByRange(ctx context.Context, debut, fin planning.Semaine) ([]*planning.BesoinCharge, error) {
	db := (*DB)(r)
	rows, err := db.sql.QueryContext(ctx, `
		SELECT `+besoinColonnes+` FROM besoins_charge
		 WHERE (annee > ? OR (annee = ? AND semaine >= ?))
		   AND (annee < ? OR (annee = ? AND semaine <= ?))
		 ORDER BY id`,
		debut.Annee, debut.Annee, debut.Num, fin.Annee, fin.Annee, fin.Num)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*planning.BesoinCharge
	for rows.Next() {
		b, err := scanBesoin(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *besoinRepo) Delete(ctx context.Context, id int64) error {
	db := (*DB)(r)
	res, err := db.sql.ExecContext(ctx, "DELETE FROM besoins_charge WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return devis.ErrBesoinNotFound(id)
	}
	return nil
}
