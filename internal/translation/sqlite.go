package translation

import (
	"database/sql"
	"fmt"

	"github.com/agentic-research/relabel/internal/substitute"
	_ "modernc.org/sqlite"
)

// LoadSQLite reads the translations(key, value) table of a SQLite database.
func LoadSQLite(dbPath string) (substitute.Mapping, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }() // safe to ignore

	return ReadTable(db)
}

// ReadTable collects every row of the translations table. NULL values map
// to nil; duplicate keys keep the last row.
func ReadTable(db *sql.DB) (substitute.Mapping, error) {
	rows, err := db.Query("SELECT key, value FROM translations")
	if err != nil {
		return nil, fmt.Errorf("query translations: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	m := make(substitute.Mapping)
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if value.Valid {
			m[key] = value.String
		} else {
			m[key] = nil
		}
	}
	return m, rows.Err()
}
