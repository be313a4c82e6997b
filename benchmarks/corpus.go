package benchmarks

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// WordCorpus is a realistic key source backed by an in-memory SQLite table,
// used as an alternative to the pure Zipf generator for workloads where key
// byte patterns (not just popularity skew) matter - e.g. comparing fixed
// 16-byte key encoding against variable-length string keys.
type WordCorpus struct {
	db    *sql.DB
	words []string
}

// NewWordCorpus opens an in-memory SQLite database, seeds it with n
// synthetic but non-trivial words (varying length and character mix), and
// loads them back out through a real query so the corpus reflects what a
// SQL round-trip would hand a cache layer.
func NewWordCorpus(n int) (*WordCorpus, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite corpus: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE words (id INTEGER PRIMARY KEY, word TEXT NOT NULL)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create corpus table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("begin corpus seed: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO words (id, word) VALUES (?, ?)`)
	if err != nil {
		tx.Rollback()
		db.Close()
		return nil, fmt.Errorf("prepare corpus insert: %w", err)
	}
	for i := 0; i < n; i++ {
		word := syntheticWord(i)
		if _, err := stmt.Exec(i, word); err != nil {
			stmt.Close()
			tx.Rollback()
			db.Close()
			return nil, fmt.Errorf("seed corpus row %d: %w", i, err)
		}
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		db.Close()
		return nil, fmt.Errorf("commit corpus seed: %w", err)
	}

	rows, err := db.Query(`SELECT word FROM words ORDER BY id`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("query corpus: %w", err)
	}
	defer rows.Close()

	words := make([]string, 0, n)
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			db.Close()
			return nil, fmt.Errorf("scan corpus row: %w", err)
		}
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		db.Close()
		return nil, err
	}

	return &WordCorpus{db: db, words: words}, nil
}

// syntheticWord derives a pronounceable-ish, variable-length key from i so
// corpus entries exercise different byte lengths instead of a uniform
// "key-%d" shape.
func syntheticWord(i int) string {
	syllables := [...]string{"ba", "to", "lu", "mir", "sen", "qua", "dro", "fex", "win", "zol"}
	s1 := syllables[i%len(syllables)]
	s2 := syllables[(i/len(syllables))%len(syllables)]
	return fmt.Sprintf("%s%s%04d", s1, s2, i%10000)
}

// Words returns the loaded corpus.
func (w *WordCorpus) Words() []string { return w.words }

// Close releases the underlying SQLite connection.
func (w *WordCorpus) Close() error { return w.db.Close() }
