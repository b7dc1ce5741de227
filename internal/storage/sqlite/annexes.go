package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"baticore/internal/devis"
	"baticore/internal/storage"
)

// --- Articles ---

type articleRepo DB

const articleColonnes = `id, code, designation, unite, prix_unitaire_ht, categorie,
	composants, actif, created_at, updated_at, created_by`

func scanArticle(row interface{ Scan(...any) error }) (*devis.Article, error) {
	var (
		a                    devis.Article
		prix                 string
		actif                int
		createdAt, updatedAt string
	)
	err := row.Scan(&a.ID, &a.Code, &a.Designation, &a.Unite, &prix, &a.Categorie,
		&a.Composants, &actif, &createdAt, &updatedAt, &a.CreatedBy)
	if err != nil {
		return nil, err
	}
	a.PrixUnitaireHT = dec(prix)
	a.Actif = actif != 0
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return &a, nil
}

func (r *articleRepo) Save(ctx context.Context, a *devis.Article) error {
	db := (*DB)(r)
	now := time.Now().UTC()

	if a.ID == 0 {
		a.CreatedAt = now
		a.UpdatedAt = now
		res, err := db.sql.ExecContext(ctx, `
			INSERT INTO articles (code, designation, unite, prix_unitaire_ht, categorie,
				composants, actif, created_at, updated_at, created_by)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.Code, a.Designation, a.Unite, a.PrixUnitaireHT.String(), a.Categorie,
			a.Composants, boolInt(a.Actif), fmtTime(a.CreatedAt), fmtTime(a.UpdatedAt), a.CreatedBy)
		if err != nil {
			return err
		}
		a.ID, err = res.LastInsertId()
		return err
	}

	a.UpdatedAt = now
	_, err := db.sql.ExecContext(ctx, `
		UPDATE articles SET code = ?, designation = ?, unite = ?, prix_unitaire_ht = ?,
			categorie = ?, composants = ?, actif = ?, updated_at = ?
		WHERE id = ?`,
		a.Code, a.Designation, a.Unite, a.PrixUnitaireHT.String(), a.Categorie,
		a.Composants, boolInt(a.Actif), fmtTime(a.UpdatedAt), a.ID)
	return err
}

func (r *articleRepo) FindByID(ctx context.Context, id int64) (*devis.Article, error) {
	db := (*DB)(r)
	a, err := scanArticle(db.sql.QueryRowContext(ctx,
		"SELECT "+articleColonnes+" FROM articles WHERE id = ? AND deleted_at IS NULL", id))
	if err != nil {
		return nil, devis.ErrArticleNotFound(id)
	}
	return a, nil
}

func (r *articleRepo) FindByCode(ctx context.Context, code string) (*devis.Article, error) {
	db := (*DB)(r)
	a, err := scanArticle(db.sql.QueryRowContext(ctx,
		"SELECT "+articleColonnes+" FROM articles WHERE code = ? AND deleted_at IS NULL", code))
	if err != nil {
		return nil, devis.NewError(devis.CodeArticleNotFound, "article %s introuvable", code)
	}
	return a, nil
}

func (r *articleRepo) FindAll(ctx context.Context, f storage.FiltreArticles) ([]*devis.Article, error) {
	db := (*DB)(r)
	where := ""
	var args []any
	if f.Categorie != "" {
		where += " AND categorie = ?"
		args = append(args, f.Categorie)
	}
	if f.ActifsSeul {
		where += " AND actif = 1"
	}
	if f.Recherche != "" {
		where += " AND (code LIKE ? OR designation LIKE ?)"
		q := "%" + f.Recherche + "%"
		args = append(args, q, q)
	}

	rows, err := db.sql.QueryContext(ctx,
		"SELECT "+articleColonnes+" FROM articles WHERE deleted_at IS NULL"+where+" ORDER BY code", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*devis.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *articleRepo) Delete(ctx context.Context, id, par int64) error {
	db := (*DB)(r)
	res, err := db.sql.ExecContext(ctx,
		"UPDATE articles SET deleted_at = ?, deleted_by = ? WHERE id = ? AND deleted_at IS NULL",
		fmtTime(time.Now()), par, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return devis.ErrArticleNotFound(id)
	}
	return nil
}

// --- Journal ---

type journalRepo DB

func (r *journalRepo) Append(ctx context.Context, e *devis.JournalDevis) error {
	db := (*DB)(r)
	var details any
	if e.Details != nil {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return err
		}
		details = string(b)
	}
	e.CreatedAt = time.Now().UTC()
	res, err := db.sql.ExecContext(ctx, `
		INSERT INTO journal_devis (devis_id, action, auteur_id, details, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.DevisID, e.Action, e.AuteurID, details, fmtTime(e.CreatedAt))
	if err != nil {
		return err
	}
	e.ID, err = res.LastInsertId()
	return err
}

func (r *journalRepo) FindByDevis(ctx context.Context, devisID int64) ([]*devis.JournalDevis, error) {
	db := (*DB)(r)
	rows, err := db.sql.QueryContext(ctx, `
		SELECT id, devis_id, action, auteur_id, details, created_at
		  FROM journal_devis WHERE devis_id = ? ORDER BY id`, devisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*devis.JournalDevis
	for rows.Next() {
		var (
			e         devis.JournalDevis
			details   sql.NullString
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.DevisID, &e.Action, &e.AuteurID, &details, &createdAt); err != nil {
			return nil, err
		}
		if details.Valid && details.String != "" {
			json.Unmarshal([]byte(details.String), &e.Details)
		}
		e.CreatedAt = parseTime(createdAt)
		out = append(out, &e)
	}
	return out, rows.Err()
}

// --- Attestations ---

type attestationRepo DB

func (r *attestationRepo) Save(ctx context.Context, a *devis.AttestationTVA) error {
	db := (*DB)(r)
	if a.ID == 0 {
		a.CreatedAt = time.Now().UTC()
		res, err := db.sql.ExecContext(ctx, `
			INSERT INTO attestations_tva (devis_id, type_cerfa, taux_tva, client_nom, client_adresse,
				adresse_immeuble, nature_travaux, plus_de_deux_ans, signataire, date_signature,
				date_generation, created_at, created_by)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.DevisID, a.TypeCERFA, float64(a.TauxTVA), a.ClientNom, a.ClientAdresse,
			a.AdresseImmeuble, a.NatureTravaux, boolInt(a.ImmeubleAcheveDepuisPlusDeDeuxAns),
			a.Signataire, fmtTimePtr(a.DateSignature), fmtTime(a.DateGeneration), fmtTime(a.CreatedAt), a.CreatedBy)
		if err != nil {
			return err
		}
		a.ID, err = res.LastInsertId()
		return err
	}

	_, err := db.sql.ExecContext(ctx, `
		UPDATE attestations_tva SET type_cerfa = ?, taux_tva = ?, client_nom = ?, client_adresse = ?,
			adresse_immeuble = ?, nature_travaux = ?, plus_de_deux_ans = ?, signataire = ?,
			date_signature = ?
		WHERE id = ?`,
		a.TypeCERFA, float64(a.TauxTVA), a.ClientNom, a.ClientAdresse,
		a.AdresseImmeuble, a.NatureTravaux, boolInt(a.ImmeubleAcheveDepuisPlusDeDeuxAns),
		a.Signataire, fmtTimePtr(a.DateSignature), a.ID)
	return err
}

func (r *attestationRepo) FindByDevis(ctx context.Context, devisID int64) (*devis.AttestationTVA, error) {
	db := (*DB)(r)
	var (
		a                              devis.AttestationTVA
		tauxTVA                        float64
		plusDeDeuxAns                  int
		dateSignature                  sql.NullString
		dateGeneration, createdAt      string
	)
	err := db.sql.QueryRowContext(ctx, `
		SELECT id, devis_id, type_cerfa, taux_tva, client_nom, client_adresse, adresse_immeuble,
		       nature_travaux, plus_de_deux_ans, signataire, date_signature, date_generation,
		       created_at, created_by
		  FROM attestations_tva WHERE devis_id = ?`, devisID).Scan(
		&a.ID, &a.DevisID, &a.TypeCERFA, &tauxTVA, &a.ClientNom, &a.ClientAdresse, &a.AdresseImmeuble,
		&a.NatureTravaux, &plusDeDeuxAns, &a.Signataire, &dateSignature, &dateGeneration,
		&createdAt, &a.CreatedBy)
	if err != nil {
		return nil, devis.ErrAttestationNotFound(devisID)
	}
	a.TauxTVA = devis.TauxTVA(tauxTVA)
	a.ImmeubleAcheveDepuisPlusDeDeuxAns = plusDeDeuxAns != 0
	a.DateSignature = parseTimePtr(dateSignature)
	a.DateGeneration = parseTime(dateGeneration)
	a.CreatedAt = parseTime(createdAt)
	return &a, nil
}

// --- Signatures ---

type signatureRepo DB

func (r *signatureRepo) Save(ctx context.Context, s *devis.SignatureDevis) error {
	db := (*DB)(r)
	if s.ID == 0 {
		s.CreatedAt = time.Now().UTC()
		res, err := db.sql.ExecContext(ctx, `
			INSERT INTO signatures_devis (devis_id, type, signataire_nom, signataire_email, donnees,
				adresse_ip, user_agent, date_signature, hash_document, valide, revoquee_par,
				motif_revocation, date_revocation, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.DevisID, string(s.Type), s.SignataireNom, s.SignataireEmail, s.Donnees,
			s.AdresseIP, s.UserAgent, fmtTime(s.DateSignature), s.HashDocument, boolInt(s.Valide),
			s.RevoqueePar, s.MotifRevocation, fmtTimePtr(s.DateRevocation), fmtTime(s.CreatedAt))
		if err != nil {
			return err
		}
		s.ID, err = res.LastInsertId()
		return err
	}

	_, err := db.sql.ExecContext(ctx, `
		UPDATE signatures_devis SET valide = ?, revoquee_par = ?, motif_revocation = ?, date_revocation = ?
		WHERE id = ?`,
		boolInt(s.Valide), s.RevoqueePar, s.MotifRevocation, fmtTimePtr(s.DateRevocation), s.ID)
	return err
}

func (r *signatureRepo) FindByDevis(ctx context.Context, devisID int64) (*devis.SignatureDevis, error) {
	db := (*DB)(r)
	var (
		s                             devis.SignatureDevis
		typ                           string
		dateSignature, createdAt      string
		valide                        int
		dateRevocation                sql.NullString
	)
	err := db.sql.QueryRowContext(ctx, `
		SELECT id, devis_id, type, signataire_nom, signataire_email, donnees, adresse_ip, user_agent,
		       date_signature, hash_document, valide, revoquee_par, motif_revocation, date_revocation, created_at
		  FROM signatures_devis WHERE devis_id = ?`, devisID).Scan(
		&s.ID, &s.DevisID, &typ, &s.SignataireNom, &s.SignataireEmail, &s.Donnees, &s.AdresseIP, &s.UserAgent,
		&dateSignature, &s.HashDocument, &valide, &s.RevoqueePar, &s.MotifRevocation, &dateRevocation, &createdAt)
	if err != nil {
		return nil, devis.ErrSignatureNotFound(devisID)
	}
	s.Type = devis.TypeSignature(typ)
	s.DateSignature = parseTime(dateSignature)
	s.Valide = valide != 0
	s.DateRevocation = parseTimePtr(dateRevocation)
	s.CreatedAt = parseTime(createdAt)
	return &s, nil
}

// --- Relances ---

type relanceRepo DB

const relanceColonnes = `id, devis_id, sequence, type, statut, date_prevue, date_envoi,
	message, created_at, created_by`

func scanRelance(row interface{ Scan(...any) error }) (*devis.RelanceDevis, error) {
	var (
		rel                   devis.RelanceDevis
		typ, statut           string
		datePrevue, createdAt string
		dateEnvoi             sql.NullString
	)
	err := row.Scan(&rel.ID, &rel.DevisID, &rel.Sequence, &typ, &statut, &datePrevue, &dateEnvoi,
		&rel.Message, &createdAt, &rel.CreatedBy)
	if err != nil {
		return nil, err
	}
	rel.Type = devis.TypeRelance(typ)
	rel.Statut = devis.StatutRelance(statut)
	rel.DatePrevue = parseTime(datePrevue)
	rel.DateEnvoi = parseTimePtr(dateEnvoi)
	rel.CreatedAt = parseTime(createdAt)
	return &rel, nil
}

func (r *relanceRepo) Save(ctx context.Context, rel *devis.RelanceDevis) error {
	db := (*DB)(r)
	if rel.ID == 0 {
		rel.CreatedAt = time.Now().UTC()
		res, err := db.sql.ExecContext(ctx, `
			INSERT INTO relances_devis (devis_id, sequence, type, statut, date_prevue, date_envoi,
				message, created_at, created_by)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rel.DevisID, rel.Sequence, string(rel.Type), string(rel.Statut), fmtTime(rel.DatePrevue),
			fmtTimePtr(rel.DateEnvoi), rel.Message, fmtTime(rel.CreatedAt), rel.CreatedBy)
		if err != nil {
			return err
		}
		rel.ID, err = res.LastInsertId()
		return err
	}

	_, err := db.sql.ExecContext(ctx, `
		UPDATE relances_devis SET statut = ?, date_prevue = ?, date_envoi = ?, message = ?
		WHERE id = ?`,
		string(rel.Statut), fmtTime(rel.DatePrevue), fmtTimePtr(rel.DateEnvoi), rel.Message, rel.ID)
	return err
}

func (r *relanceRepo) FindByDevis(ctx context.Context, devisID int64) ([]*devis.RelanceDevis, error) {
	db := (*DB)(r)
	rows, err := db.sql.QueryContext(ctx,
		"SELECT "+relanceColonnes+" FROM relances_devis WHERE devis_id = ? ORDER BY sequence", devisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*devis.RelanceDevis
	for rows.Next() {
		rel, err := scanRelance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rel)
	}
	return out, rows.Err()
}

func (r *relanceRepo) FindDues(ctx context.Context, now time.Time) ([]*devis.RelanceDevis, error) {
	db := (*DB)(r)
	rows, err := db.sql.QueryContext(ctx,
		"SELECT "+relanceColonnes+" FROM relances_devis WHERE statut = ? AND date_prevue <= ? ORDER BY date_prevue",
		string(devis.RelancePlanifiee), fmtTime(now))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*devis.RelanceDevis
	for rows.Next() {
		rel, err := scanRelance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rel)
	}
	return out, rows.Err()
}

// --- Frais ---

type fraisRepo DB

const fraisColonnes = `id, devis_id, type, libelle, montant_ht, repartition, taux_tva,
	lot_id, created_at, updated_at, created_by`

func scanFrais(row interface{ Scan(...any) error }) (*devis.FraisChantier, error) {
	var (
		f                    devis.FraisChantier
		typ, repartition     string
		montantHT            string
		tauxTVA              float64
		createdAt, updatedAt string
	)
	err := row.Scan(&f.ID, &f.DevisID, &typ, &f.Libelle, &montantHT, &repartition, &tauxTVA,
		&f.LotID, &createdAt, &updatedAt, &f.CreatedBy)
	if err != nil {
		return nil, err
	}
	f.Type = devis.TypeFrais(typ)
	f.MontantHT = dec(montantHT)
	f.Repartition = devis.ModeRepartition(repartition)
	f.TauxTVA = devis.TauxTVA(tauxTVA)
	f.CreatedAt = parseTime(createdAt)
	f.UpdatedAt = parseTime(updatedAt)
	return &f, nil
}

func (r *fraisRepo) Save(ctx context.Context, f *devis.FraisChantier) error {
	db := (*DB)(r)
	now := time.Now().UTC()

	if f.ID == 0 {
		f.CreatedAt = now
		f.UpdatedAt = now
		res, err := db.sql.ExecContext(ctx, `
			INSERT INTO frais_chantier (devis_id, type, libelle, montant_ht, repartition, taux_tva,
				lot_id, created_at, updated_at, created_by)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			f.DevisID, string(f.Type), f.Libelle, f.MontantHT.String(), string(f.Repartition),
			float64(f.TauxTVA), f.LotID, fmtTime(f.CreatedAt), fmtTime(f.UpdatedAt), f.CreatedBy)
		if err != nil {
			return err
		}
		f.ID, err = res.LastInsertId()
		return err
	}

	f.UpdatedAt = now
	_, err := db.sql.ExecContext(ctx, `
		UPDATE frais_chantier SET type = ?, libelle = ?, montant_ht = ?, repartition = ?,
			taux_tva = ?, lot_id = ?, updated_at = ?
		WHERE id = ?`,
		string(f.Type), f.Libelle, f.MontantHT.String(), string(f.Repartition),
		float64(f.TauxTVA), f.LotID, fmtTime(f.UpdatedAt), f.ID)
	return err
}

func (r *fraisRepo) FindByID(ctx context.Context, id int64) (*devis.FraisChantier, error) {
	db := (*DB)(r)
	f, err := scanFrais(db.sql.QueryRowContext(ctx,
		"SELECT "+fraisColonnes+" FROM frais_chantier WHERE id = ?", id))
	if err != nil {
		return nil, devis.ErrFraisNotFound(id)
	}
	return f, nil
}

func (r *fraisRepo) FindByDevis(ctx context.Context, devisID int64) ([]*devis.FraisChantier, error) {
	db := (*DB)(r)
	rows, err := db.sql.QueryContext(ctx,
		"SELECT "+fraisColonnes+" FROM frais_chantier WHERE devis_id = ? ORDER BY id", devisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*devis.FraisChantier
	for rows.Next() {
		f, err := scanFrais(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *fraisRepo) Delete(ctx context.Context, id int64) error {
	db := (*DB)(r)
	res, err := db.sql.ExecContext(ctx, "DELETE FROM frais_chantier WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return devis.ErrFraisNotFound(id)
	}
	return nil
}

// --- Comparatifs ---

type comparatifRepo DB

func (r *comparatifRepo) Replace(ctx context.Context, c *devis.Comparatif) error {
	db := (*DB)(r)
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var ancien int64
	if err := tx.QueryRowContext(ctx,
		"SELECT id FROM comparatifs WHERE devis_source_id = ? AND devis_cible_id = ?",
		c.DevisSourceID, c.DevisCibleID).Scan(&ancien); err == nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM comparatif_lignes WHERE comparatif_id = ?", ancien); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM comparatifs WHERE id = ?", ancien); err != nil {
			return err
		}
	}

	c.CreatedAt = time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO comparatifs (devis_source_id, devis_cible_id, delta_ht, delta_ttc, delta_marge,
			delta_debourse, nb_ajoutees, nb_supprimees, nb_modifiees, nb_identiques, created_at, created_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.DevisSourceID, c.DevisCibleID, c.DeltaHT.String(), c.DeltaTTC.String(), c.DeltaMarge,
		c.DeltaDebourse.String(), c.NbAjoutees, c.NbSupprimees, c.NbModifiees, c.NbIdentiques,
		fmtTime(c.CreatedAt), c.CreatedBy)
	if err != nil {
		return err
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}

	for i := range c.Lignes {
		l := &c.Lignes[i]
		l.ComparatifID = c.ID
		res, err := tx.ExecContext(ctx, `
			INSERT INTO comparatif_lignes (comparatif_id, type, cle, lot_titre, designation,
				delta_quantite, delta_prix_unitaire, delta_total_ht, delta_debourse_sec)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ComparatifID, string(l.Type), l.Cle, l.LotTitre, l.Designation,
			l.DeltaQuantite.String(), l.DeltaPrixUnitaire.String(), l.DeltaTotalHT.String(),
			l.DeltaDebourseSec.String())
		if err != nil {
			return err
		}
		l.ID, err = res.LastInsertId()
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *comparatifRepo) FindByPair(ctx context.Context, sourceID, cibleID int64) (*devis.Comparatif, error) {
	db := (*DB)(r)
	var (
		c                                       devis.Comparatif
		deltaHT, deltaTTC, deltaDebourse        string
		createdAt                               string
	)
	err := db.sql.QueryRowContext(ctx, `
		SELECT id, devis_source_id, devis_cible_id, delta_ht, delta_ttc, delta_marge, delta_debourse,
		       nb_ajoutees, nb_supprimees, nb_modifiees, nb_identiques, created_at, created_by
		  FROM comparatifs WHERE devis_source_id = ? AND devis_cible_id = ?`,
		sourceID, cibleID).Scan(
		&c.ID, &c.DevisSourceID, &c.DevisCibleID, &deltaHT, &deltaTTC, &c.DeltaMarge, &deltaDebourse,
		&c.NbAjoutees, &c.NbSupprimees, &c.NbModifiees, &c.NbIdentiques, &createdAt, &c.CreatedBy)
	if err != nil {
		return nil, devis.NewError(devis.CodeComparatifNotFound, "aucun comparatif pour la paire (%d, %d)", sourceID, cibleID)
	}
	c.DeltaHT = dec(deltaHT)
	c.DeltaTTC = dec(deltaTTC)
	c.DeltaDebourse = dec(deltaDebourse)
	c.CreatedAt = parseTime(createdAt)

	rows, err := db.sql.QueryContext(ctx, `
		SELECT id, comparatif_id, type, cle, lot_titre, designation, delta_quantite,
		       delta_prix_unitaire, delta_total_ht, delta_debourse_sec
		  FROM comparatif_lignes WHERE comparatif_id = ? ORDER BY id`, c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l                            devis.LigneComparatif
			typ                          string
			dq, dpu, dht, dds            string
		)
		if err := rows.Scan(&l.ID, &l.ComparatifID, &typ, &l.Cle, &l.LotTitre, &l.Designation,
			&dq, &dpu, &dht, &dds); err != nil {
			return nil, err
		}
		l.Type = devis.TypeComparaison(typ)
		l.DeltaQuantite = dec(dq)
		l.DeltaPrixUnitaire = dec(dpu)
		l.DeltaTotalHT = dec(dht)
		l.DeltaDebourseSec = dec(dds)
		c.Lignes = append(c.Lignes, l)
	}
	return &c, rows.Err()
}
