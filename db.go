package chrmap

import (
	"crypto/sha1"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // database/sql driver
	"github.com/rs/zerolog"
)

// ErrProjectNotFound is returned when loading a project that isn't
// stored.
var ErrProjectNotFound = errors.New("chrmap: project not found")

// ProjectDB stores tile maps together with their CHR data in a SQLite
// database. Identical CHR data is stored once.
type ProjectDB struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewProjectDB opens, creating if necessary, the database in file.
func NewProjectDB(file string, logger zerolog.Logger) (*ProjectDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS chr (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL UNIQUE, data BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS tilemap (id INTEGER PRIMARY KEY NOT NULL, name STRING NOT NULL UNIQUE, chr_id INTEGER, document BLOB NOT NULL, FOREIGN KEY(chr_id) REFERENCES chr(id))"); err != nil {
		db.Close()
		return nil, err
	}

	return &ProjectDB{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the database.
func (db *ProjectDB) Close() error {
	return db.db.Close()
}

func (db *ProjectDB) addChr(data []byte) (int64, string, error) {
	if data == nil {
		data = []byte{}
	}
	sha := fmt.Sprintf("%X", sha1.Sum(data))

	var id int64
	switch err := db.db.QueryRow("SELECT id FROM chr WHERE sha1 = ?", sha).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := db.db.Exec("INSERT INTO chr (sha1, data) VALUES (?, ?)", sha, data)
		if err != nil {
			return 0, "", err
		}
		id, err = result.LastInsertId()
		return id, sha, err
	case nil:
		return id, sha, nil
	default:
		return 0, "", err
	}
}

// SaveProject stores p under name, replacing any project already stored
// under that name.
func (db *ProjectDB) SaveProject(name string, p *Project) error {
	chrID, sha, err := db.addChr(p.ChrData())
	if err != nil {
		return err
	}

	d := p.Map.Serializable()
	d.ChrSource = sha

	b, err := MarshalDocument(d)
	if err != nil {
		return err
	}

	if _, err := db.db.Exec("INSERT OR REPLACE INTO tilemap (name, chr_id, document) VALUES (?, ?, ?)", name, chrID, b); err != nil {
		return err
	}

	db.logger.Debug().Str("name", name).Str("chr", sha).Int("bytes", len(b)).Msg("saved project")

	return nil
}

// LoadProject returns the project stored under name.
func (db *ProjectDB) LoadProject(name string, logger zerolog.Logger) (*Project, error) {
	var document, data []byte
	switch err := db.db.QueryRow("SELECT t.document, c.data FROM tilemap AS t LEFT JOIN chr AS c ON t.chr_id = c.id WHERE t.name = ?", name).Scan(&document, &data); err {
	case sql.ErrNoRows:
		return nil, ErrProjectNotFound
	case nil:
	default:
		return nil, err
	}

	d, err := UnmarshalDocument(document)
	if err != nil {
		return nil, fmt.Errorf("chrmap: decoding %q: %w", name, err)
	}

	m, err := FromSerializable(d)
	if err != nil {
		return nil, err
	}

	db.logger.Debug().Str("name", name).Msg("loaded project")

	return NewProject(m, data, logger), nil
}

// Names returns the name of every stored project in order.
func (db *ProjectDB) Names() ([]string, error) {
	rows, err := db.db.Query("SELECT name FROM tilemap ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteProject removes the project stored under name. CHR data that is
// no longer referenced is removed too.
func (db *ProjectDB) DeleteProject(name string) error {
	if _, err := db.db.Exec("DELETE FROM tilemap WHERE name = ?", name); err != nil {
		return err
	}
	if _, err := db.db.Exec("DELETE FROM chr WHERE id NOT IN (SELECT chr_id FROM tilemap WHERE chr_id IS NOT NULL)"); err != nil {
		return err
	}
	return nil
}
