package character

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gigglechat/internal/apperr"
	"gigglechat/internal/models"
	"gigglechat/internal/storage"
)

// ErrNotFound is returned by Get when no character has the requested id.
var ErrNotFound = apperr.NotFound("Character not found.")

// Store is the read side used by the chat flow and the listing endpoint.
type Store interface {
	List(ctx context.Context) ([]models.Character, error)
	Get(ctx context.Context, id int64) (*models.Character, error)
}

// SQLStore keeps characters in the relational database.
type SQLStore struct {
	db *storage.DB
}

func NewSQLStore(db *storage.DB) *SQLStore {
	return &SQLStore{db: db}
}

// List returns every character ordered by id.
func (s *SQLStore) List(ctx context.Context) ([]models.Character, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, personality_prompt, avatar, description FROM characters ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	characters := make([]models.Character, 0)
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		characters = append(characters, *c)
	}
	return characters, rows.Err()
}

// Get loads one character.
func (s *SQLStore) Get(ctx context.Context, id int64) (*models.Character, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		s.db.Rebind(`SELECT id, name, personality_prompt, avatar, description FROM characters WHERE id = ?`), id,
	)
	c, err := scanCharacter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// Create inserts a character. Administrative only; chat never writes characters.
func (s *SQLStore) Create(ctx context.Context, c models.Character) (*models.Character, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, apperr.Validation("character name is required")
	}
	id, err := s.db.InsertID(ctx,
		`INSERT INTO characters (name, personality_prompt, avatar, description) VALUES (?, ?, ?, ?)`,
		c.Name, c.PersonalityPrompt, nullString(c.Avatar), nullString(c.Description),
	)
	if err != nil {
		return nil, fmt.Errorf("create character: %w", err)
	}
	c.ID = id
	return &c, nil
}

// Count reports how many characters exist.
func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM characters`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count characters: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCharacter(row scanner) (*models.Character, error) {
	var (
		c           models.Character
		avatar      sql.NullString
		description sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Name, &c.PersonalityPrompt, &avatar, &description); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan character: %w", err)
	}
	if avatar.Valid {
		c.Avatar = &avatar.String
	}
	if description.Valid {
		c.Description = &description.String
	}
	return &c, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
