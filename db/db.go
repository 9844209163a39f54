package db

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/nijaru/yt-summary/errors"
	"github.com/sirupsen/logrus"
)

// Key identifies a cached summary. The same cleaned text summarized by the
// same model with the same chunk budget always yields the same summary.
type Key struct {
	SourceHash     string
	ModelName      string
	MaxChunkLength int
	MinChunkLength int
}

func NewKey(cleanedText, modelName string, maxChunkLength, minChunkLength int) Key {
	return Key{
		SourceHash:     HashSource(cleanedText),
		ModelName:      modelName,
		MaxChunkLength: maxChunkLength,
		MinChunkLength: minChunkLength,
	}
}

func HashSource(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

type Store struct {
	db *sql.DB
}

func InitializeDB(dbPath string) (*Store, error) {
	const op = "db.InitializeDB"
	logrus.WithField("path", dbPath).Info("Initializing database")

	// Ensure the directory for the database file exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, errors.Internal(op, err, "Failed to create database directory")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Internal(op, err, "Failed to open database")
	}

	// Set connection pool settings
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(15 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Internal(op, err, "Failed to connect to database")
	}

	_, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS summaries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_hash TEXT NOT NULL,
		model_name TEXT NOT NULL,
		max_chunk_length INTEGER NOT NULL,
		min_chunk_length INTEGER NOT NULL,
		summary TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_hash, model_name, max_chunk_length, min_chunk_length)
	)`)
	if err != nil {
		db.Close()
		return nil, errors.Internal(op, err, "Failed to create table")
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// GetSummary returns a NotFound error when nothing is cached for key.
func (s *Store) GetSummary(ctx context.Context, key Key) (string, error) {
	const op = "db.GetSummary"

	var summary string
	err := s.db.QueryRowContext(ctx,
		`SELECT summary FROM summaries
		WHERE source_hash = ? AND model_name = ? AND max_chunk_length = ? AND min_chunk_length = ?`,
		key.SourceHash, key.ModelName, key.MaxChunkLength, key.MinChunkLength,
	).Scan(&summary)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", errors.NotFound(op, err, "Summary not found")
		}
		return "", errors.Internal(op, err, "Failed to query summary")
	}

	return summary, nil
}

func (s *Store) SetSummary(ctx context.Context, key Key, summary string) error {
	const op = "db.SetSummary"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Internal(op, err, "Failed to begin transaction")
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO summaries
		(source_hash, model_name, max_chunk_length, min_chunk_length, summary)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_hash, model_name, max_chunk_length, min_chunk_length)
		DO UPDATE SET summary = excluded.summary, created_at = CURRENT_TIMESTAMP`)
	if err != nil {
		tx.Rollback()
		return errors.Internal(op, err, "Failed to prepare statement")
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, key.SourceHash, key.ModelName, key.MaxChunkLength, key.MinChunkLength, summary); err != nil {
		tx.Rollback()
		return errors.Internal(op, err, "Failed to save summary")
	}

	if err := tx.Commit(); err != nil {
		return errors.Internal(op, err, "Failed to commit transaction")
	}

	return nil
}

func (s *Store) DeleteSummary(ctx context.Context, key Key) error {
	const op = "db.DeleteSummary"

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM summaries
		WHERE source_hash = ? AND model_name = ? AND max_chunk_length = ? AND min_chunk_length = ?`,
		key.SourceHash, key.ModelName, key.MaxChunkLength, key.MinChunkLength,
	)
	if err != nil {
		return errors.Internal(op, err, "Failed to delete summary")
	}
	return nil
}
