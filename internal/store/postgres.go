package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return s.getUser(ctx, `SELECT id, username, email, password_hash, created_at FROM users WHERE email=$1`, email)
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return s.getUser(ctx, `SELECT id, username, email, password_hash, created_at FROM users WHERE username=$1`, username)
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (User, error) {
	return s.getUser(ctx, `SELECT id, username, email, password_hash, created_at FROM users WHERE id=$1`, id)
}

func (s *PostgresStore) getUser(ctx context.Context, query, arg string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt,
	)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// ListNotesByOwner returns every note owned by ownerID, most recently
// modified first.
func (s *PostgresStore) ListNotesByOwner(ctx context.Context, ownerID string) ([]Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, title, content, tags, created_at, updated_at
		FROM notes
		WHERE owner_id=$1
		ORDER BY updated_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

// GetNote fetches a single note scoped to its owner. A note owned by someone
// else scans as sql.ErrNoRows, same as a missing one.
func (s *PostgresStore) GetNote(ctx context.Context, ownerID, noteID string) (Note, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, content, tags, created_at, updated_at
		FROM notes
		WHERE id=$1 AND owner_id=$2
	`, noteID, ownerID)
	return scanNote(row)
}

func (s *PostgresStore) InsertNote(ctx context.Context, note Note) error {
	tags, err := encodeTags(note.Tags)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notes (id, owner_id, title, content, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, note.ID, note.OwnerID, note.Title, note.Content, tags, note.CreatedAt, note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateNote(ctx context.Context, note Note) error {
	tags, err := encodeTags(note.Tags)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE notes
		SET title=$3, content=$4, tags=$5, updated_at=$6
		WHERE id=$1 AND owner_id=$2
	`, note.ID, note.OwnerID, note.Title, note.Content, tags, note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update note rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) DeleteNote(ctx context.Context, ownerID, noteID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id=$1 AND owner_id=$2`, noteID, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete note: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete note rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (Note, error) {
	var note Note
	var tags []byte
	err := row.Scan(&note.ID, &note.OwnerID, &note.Title, &note.Content, &tags, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return Note{}, err
	}
	note.Tags = decodeTags(tags)
	return note, nil
}

// Tags live in a JSONB column so the stored list keeps its order.

func encodeTags(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	return encoded, nil
}

func decodeTags(raw []byte) []string {
	tags := []string{}
	if len(raw) == 0 {
		return tags
	}
	_ = json.Unmarshal(raw, &tags)
	return tags
}
