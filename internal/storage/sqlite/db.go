// Package sqlite implements the storage contracts over a single SQLite
// file. Decimals are stored as TEXT to keep cents exact, dates as
// RFC 3339 TEXT, JSON columns carry the embedded documents (margin
// overrides, relance config, presentation options).
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"baticore/internal/logger"
	"baticore/internal/storage"
)

// DB wraps a SQLite database connection and exposes the repositories.
type DB struct {
	sql *sql.DB
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*DB, error) {
	d, err := open(path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", 0)
	if err != nil {
		return nil, err
	}
	logger.Success("DB", fmt.Sprintf("Opened %s", path))
	return d, nil
}

// OpenMemory opens a throwaway in-memory database, for tests. The pool
// is pinned to one connection: every connection to :memory: would
// otherwise see its own empty database.
func OpenMemory() (*DB, error) {
	return open("file::memory:?_pragma=foreign_keys(1)", 1)
}

func open(dsn string, maxConns int) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(maxConns)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Repository accessors.

func (d *DB) Devis() storage.DevisRepository              { return (*devisRepo)(d) }
func (d *DB) Lots() storage.LotRepository                 { return (*lotRepo)(d) }
func (d *DB) Lignes() storage.LigneRepository             { return (*ligneRepo)(d) }
func (d *DB) Articles() storage.ArticleRepository         { return (*articleRepo)(d) }
func (d *DB) Journal() storage.JournalRepository          { return (*journalRepo)(d) }
func (d *DB) Attestations() storage.AttestationRepository { return (*attestationRepo)(d) }
func (d *DB) Signatures() storage.SignatureRepository     { return (*signatureRepo)(d) }
func (d *DB) Relances() storage.RelanceRepository         { return (*relanceRepo)(d) }
func (d *DB) Frais() storage.FraisRepository              { return (*fraisRepo)(d) }
func (d *DB) Comparatifs() storage.ComparatifRepository   { return (*comparatifRepo)(d) }
func (d *DB) Besoins() storage.BesoinChargeRepository     { return (*besoinRepo)(d) }

func (d *DB) migrate() error {
	version := 0
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS config (
				key   TEXT PRIMARY KEY,
				value TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS devis (
				id               INTEGER PRIMARY KEY AUTOINCREMENT,
				numero           TEXT NOT NULL UNIQUE,
				client_nom       TEXT NOT NULL,
				client_adresse   TEXT NOT NULL DEFAULT '',
				client_email     TEXT NOT NULL DEFAULT '',
				client_telephone TEXT NOT NULL DEFAULT '',
				objet            TEXT NOT NULL,
				statut           TEXT NOT NULL,
				total_ht         TEXT NOT NULL DEFAULT '0',
				total_ttc        TEXT NOT NULL DEFAULT '0',
				taux_tva_defaut  REAL NOT NULL,
				marge_globale    REAL NOT NULL,
				marges_par_type  TEXT,
				coefficient_fg   REAL NOT NULL,
				retenue_garantie REAL NOT NULL,
				date_validite    TEXT NOT NULL,
				date_envoi       TEXT,
				commercial_id    INTEGER NOT NULL DEFAULT 0,
				conducteur_id    INTEGER NOT NULL DEFAULT 0,
				chantier_id      INTEGER NOT NULL DEFAULT 0,
				type_version     TEXT NOT NULL,
				version_numero   INTEGER NOT NULL DEFAULT 1,
				parent_devis_id  INTEGER NOT NULL DEFAULT 0,
				version_figee    INTEGER NOT NULL DEFAULT 0,
				label_variante   TEXT NOT NULL DEFAULT '',
				options          TEXT NOT NULL,
				config_relances  TEXT NOT NULL,
				created_at       TEXT NOT NULL,
				updated_at       TEXT NOT NULL,
				created_by       INTEGER NOT NULL DEFAULT 0,
				deleted_at       TEXT,
				deleted_by       INTEGER NOT NULL DEFAULT 0
			);
			CREATE INDEX IF NOT EXISTS idx_devis_statut ON devis(statut);
			CREATE INDEX IF NOT EXISTS idx_devis_famille ON devis(parent_devis_id);

			CREATE TABLE IF NOT EXISTS lots (
				id             INTEGER PRIMARY KEY AUTOINCREMENT,
				devis_id       INTEGER NOT NULL REFERENCES devis(id),
				parent_id      INTEGER NOT NULL DEFAULT 0,
				code_lot       TEXT NOT NULL DEFAULT '',
				titre          TEXT NOT NULL,
				ordre          INTEGER NOT NULL DEFAULT 0,
				marge          REAL,
				total_ht       TEXT NOT NULL DEFAULT '0',
				total_ttc      TEXT NOT NULL DEFAULT '0',
				total_debourse TEXT NOT NULL DEFAULT '0',
				created_at     TEXT NOT NULL,
				updated_at     TEXT NOT NULL,
				created_by     INTEGER NOT NULL DEFAULT 0,
				deleted_at     TEXT,
				deleted_by     INTEGER NOT NULL DEFAULT 0
			);
			CREATE INDEX IF NOT EXISTS idx_lots_devis ON lots(devis_id);

			CREATE TABLE IF NOT EXISTS lignes (
				id               INTEGER PRIMARY KEY AUTOINCREMENT,
				devis_id         INTEGER NOT NULL REFERENCES devis(id),
				lot_id           INTEGER NOT NULL REFERENCES lots(id),
				code_ligne       TEXT NOT NULL DEFAULT '',
				designation      TEXT NOT NULL,
				unite            TEXT NOT NULL DEFAULT '',
				quantite         TEXT NOT NULL DEFAULT '0',
				prix_unitaire_ht TEXT NOT NULL DEFAULT '0',
				taux_tva         REAL NOT NULL,
				marge            REAL,
				article_id       INTEGER NOT NULL DEFAULT 0,
				ordre            INTEGER NOT NULL DEFAULT 0,
				verrouille       INTEGER NOT NULL DEFAULT 0,
				montant_ht       TEXT NOT NULL DEFAULT '0',
				montant_ttc      TEXT NOT NULL DEFAULT '0',
				debourse_sec     TEXT NOT NULL DEFAULT '0',
				prix_revient     TEXT NOT NULL DEFAULT '0',
				niveau_marge     TEXT NOT NULL DEFAULT '',
				created_at       TEXT NOT NULL,
				updated_at       TEXT NOT NULL,
				created_by       INTEGER NOT NULL DEFAULT 0,
				deleted_at       TEXT,
				deleted_by       INTEGER NOT NULL DEFAULT 0
			);
			CREATE INDEX IF NOT EXISTS idx_lignes_devis ON lignes(devis_id);
			CREATE INDEX IF NOT EXISTS idx_lignes_lot ON lignes(lot_id);

			CREATE TABLE IF NOT EXISTS debourses (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				ligne_id      INTEGER NOT NULL REFERENCES lignes(id),
				type          TEXT NOT NULL,
				designation   TEXT NOT NULL,
				quantite      TEXT NOT NULL DEFAULT '0',
				prix_unitaire TEXT NOT NULL DEFAULT '0',
				metier        TEXT NOT NULL DEFAULT '',
				taux_horaire  TEXT NOT NULL DEFAULT '0',
				created_at    TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_debourses_ligne ON debourses(ligne_id);

			CREATE TABLE IF NOT EXISTS articles (
				id               INTEGER PRIMARY KEY AUTOINCREMENT,
				code             TEXT NOT NULL UNIQUE,
				designation      TEXT NOT NULL,
				unite            TEXT NOT NULL DEFAULT '',
				prix_unitaire_ht TEXT NOT NULL DEFAULT '0',
				categorie        TEXT NOT NULL DEFAULT '',
				composants       TEXT NOT NULL DEFAULT '',
				actif            INTEGER NOT NULL DEFAULT 1,
				created_at       TEXT NOT NULL,
				updated_at       TEXT NOT NULL,
				created_by       INTEGER NOT NULL DEFAULT 0,
				deleted_at       TEXT,
				deleted_by       INTEGER NOT NULL DEFAULT 0
			);

			CREATE TABLE IF NOT EXISTS journal_devis (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				devis_id   INTEGER NOT NULL,
				action     TEXT NOT NULL,
				auteur_id  INTEGER NOT NULL DEFAULT 0,
				details    TEXT,
				created_at TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_journal_devis ON journal_devis(devis_id);

			CREATE TABLE IF NOT EXISTS attestations_tva (
				id                INTEGER PRIMARY KEY AUTOINCREMENT,
				devis_id          INTEGER NOT NULL UNIQUE,
				type_cerfa        TEXT NOT NULL,
				taux_tva          REAL NOT NULL,
				client_nom        TEXT NOT NULL,
				client_adresse    TEXT NOT NULL DEFAULT '',
				adresse_immeuble  TEXT NOT NULL,
				nature_travaux    TEXT NOT NULL,
				plus_de_deux_ans  INTEGER NOT NULL DEFAULT 0,
				signataire        TEXT NOT NULL DEFAULT '',
				date_signature    TEXT,
				date_generation   TEXT NOT NULL,
				created_at        TEXT NOT NULL,
				created_by        INTEGER NOT NULL DEFAULT 0
			);

			CREATE TABLE IF NOT EXISTS signatures_devis (
				id               INTEGER PRIMARY KEY AUTOINCREMENT,
				devis_id         INTEGER NOT NULL UNIQUE,
				type             TEXT NOT NULL,
				signataire_nom   TEXT NOT NULL,
				signataire_email TEXT NOT NULL DEFAULT '',
				donnees          TEXT NOT NULL DEFAULT '',
				adresse_ip       TEXT NOT NULL DEFAULT '',
				user_agent       TEXT NOT NULL DEFAULT '',
				date_signature   TEXT NOT NULL,
				hash_document    TEXT NOT NULL,
				valide           INTEGER NOT NULL DEFAULT 1,
				revoquee_par     INTEGER NOT NULL DEFAULT 0,
				motif_revocation TEXT NOT NULL DEFAULT '',
				date_revocation  TEXT,
				created_at       TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS relances_devis (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				devis_id    INTEGER NOT NULL,
				sequence    INTEGER NOT NULL,
				type        TEXT NOT NULL,
				statut      TEXT NOT NULL,
				date_prevue TEXT NOT NULL,
				date_envoi  TEXT,
				message     TEXT NOT NULL DEFAULT '',
				created_at  TEXT NOT NULL,
				created_by  INTEGER NOT NULL DEFAULT 0
			);
			CREATE INDEX IF NOT EXISTS idx_relances_devis ON relances_devis(devis_id);
			CREATE INDEX IF NOT EXISTS idx_relances_due ON relances_devis(statut, date_prevue);

			CREATE TABLE IF NOT EXISTS frais_chantier (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				devis_id    INTEGER NOT NULL,
				type        TEXT NOT NULL,
				libelle     TEXT NOT NULL,
				montant_ht  TEXT NOT NULL DEFAULT '0',
				repartition TEXT NOT NULL,
				taux_tva    REAL NOT NULL,
				lot_id      INTEGER NOT NULL DEFAULT 0,
				created_at  TEXT NOT NULL,
				updated_at  TEXT NOT NULL,
				created_by  INTEGER NOT NULL DEFAULT 0
			);
			CREATE INDEX IF NOT EXISTS idx_frais_devis ON frais_chantier(devis_id);

			CREATE TABLE IF NOT EXISTS comparatifs (
				id              INTEGER PRIMARY KEY AUTOINCREMENT,
				devis_source_id INTEGER NOT NULL,
				devis_cible_id  INTEGER NOT NULL,
				delta_ht        TEXT NOT NULL DEFAULT '0',
				delta_ttc       TEXT NOT NULL DEFAULT '0',
				delta_marge     REAL NOT NULL DEFAULT 0,
				delta_debourse  TEXT NOT NULL DEFAULT '0',
				nb_ajoutees     INTEGER NOT NULL DEFAULT 0,
				nb_supprimees   INTEGER NOT NULL DEFAULT 0,
				nb_modifiees    INTEGER NOT NULL DEFAULT 0,
				nb_identiques   INTEGER NOT NULL DEFAULT 0,
				created_at      TEXT NOT NULL,
				created_by      INTEGER NOT NULL DEFAULT 0,
				UNIQUE (devis_source_id, devis_cible_id)
			);

			CREATE TABLE IF NOT EXISTS comparatif_lignes (
				id                  INTEGER PRIMARY KEY AUTOINCREMENT,
				comparatif_id       INTEGER NOT NULL REFERENCES comparatifs(id) ON DELETE CASCADE,
				type                TEXT NOT NULL,
				cle                 TEXT NOT NULL,
				lot_titre           TEXT NOT NULL DEFAULT '',
				designation         TEXT NOT NULL DEFAULT '',
				delta_quantite      TEXT NOT NULL DEFAULT '0',
				delta_prix_unitaire TEXT NOT NULL DEFAULT '0',
				delta_total_ht      TEXT NOT NULL DEFAULT '0',
				delta_debourse_sec  TEXT NOT NULL DEFAULT '0'
			);
			CREATE INDEX IF NOT EXISTS idx_comparatif_lignes ON comparatif_lignes(comparatif_id);

			CREATE TABLE IF NOT EXISTS besoins_charge (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				chantier_id INTEGER NOT NULL,
				annee       INTEGER NOT NULL,
				semaine     INTEGER NOT NULL,
				metier      TEXT NOT NULL,
				heures      REAL NOT NULL,
				note        TEXT NOT NULL DEFAULT '',
				created_at  TEXT NOT NULL,
				updated_at  TEXT NOT NULL,
				created_by  INTEGER NOT NULL DEFAULT 0,
				UNIQUE (chantier_id, annee, semaine, metier)
			);
			CREATE INDEX IF NOT EXISTS idx_besoins_semaine ON besoins_charge(annee, semaine);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		logger.Info("DB", "Applied migration v1")
	}

	return nil
}

// GetConfigValue reads one key of the key/value settings table.
func (d *DB) GetConfigValue(key string) (string, bool) {
	var v string
	err := d.sql.QueryRow("SELECT value FROM config WHERE key = ?", key).Scan(&v)
	return v, err == nil
}

// SetConfigValue upserts one key of the key/value settings table.
func (d *DB) SetConfigValue(key, value string) error {
	_, err := d.sql.Exec("INSERT OR REPLACE INTO config (key, value) VALUES (?, ?)", key, value)
	return err
}

// --- scan helpers ---

const timeLayout = time.RFC3339Nano

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func fmtTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func fmtFloatPtr(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func parseFloatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
