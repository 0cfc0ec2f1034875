package sqlite

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yegors/co-france/internal/tags"
	"github.com/yegors/co-france/pkg/logger"
)

// TagStorage is a tags.Store backed by sqlite. Only the latest value per
// tag and callsign is kept.
type TagStorage struct {
	db     *sql.DB
	logger *logger.Logger
	now    func() time.Time
}

// NewTagStorage creates the tag tables if needed and returns the storage
func NewTagStorage(db *sql.DB, log *logger.Logger) (*TagStorage, error) {
	storage := &TagStorage{
		db:     db,
		logger: log.Named("sqlite-tags"),
		now:    time.Now,
	}
	if err := storage.initDB(); err != nil {
		return nil, err
	}
	return storage, nil
}

func (s *TagStorage) initDB() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tag_definitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			default_value TEXT NOT NULL,
			allowed_actions TEXT NOT NULL DEFAULT '',
			registered_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tag_values (
			tag_id INTEGER NOT NULL,
			callsign TEXT NOT NULL,
			value TEXT NOT NULL,
			color_r INTEGER,
			color_g INTEGER,
			color_b INTEGER,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (tag_id, callsign),
			FOREIGN KEY (tag_id) REFERENCES tag_definitions(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tag_values_callsign ON tag_values(callsign)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize tag tables: %w", err)
		}
	}
	return nil
}

// RegisterTagDefinition implements tags.Sink. Registering an existing name
// updates its definition and returns the existing id.
func (s *TagStorage) RegisterTagDefinition(def tags.Definition) (string, error) {
	if def.Name == "" {
		return "", fmt.Errorf("tag definition requires a name")
	}
	_, err := s.db.Exec(
		`INSERT INTO tag_definitions (name, default_value, allowed_actions, registered_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			default_value = excluded.default_value,
			allowed_actions = excluded.allowed_actions`,
		def.Name,
		def.DefaultValue,
		strings.Join(def.AllowedActions, ","),
		s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("failed to register tag %q: %w", def.Name, err)
	}

	var id int64
	if err := s.db.QueryRow(`SELECT id FROM tag_definitions WHERE name = ?`, def.Name).Scan(&id); err != nil {
		return "", fmt.Errorf("failed to read id of tag %q: %w", def.Name, err)
	}

	s.logger.Debug("Registered tag definition",
		logger.String("name", def.Name),
		logger.String("tag_id", strconv.FormatInt(id, 10)))
	return strconv.FormatInt(id, 10), nil
}

// UpdateTagValue implements tags.Sink
func (s *TagStorage) UpdateTagValue(tagID, callsign, value string, color *tags.Color) error {
	id, err := strconv.ParseInt(tagID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid tag id %q: %w", tagID, err)
	}

	var r, g, b sql.NullInt64
	if color != nil {
		r = sql.NullInt64{Int64: int64(color.R), Valid: true}
		g = sql.NullInt64{Int64: int64(color.G), Valid: true}
		b = sql.NullInt64{Int64: int64(color.B), Valid: true}
	}

	_, err = s.db.Exec(
		`INSERT INTO tag_values (tag_id, callsign, value, color_r, color_g, color_b, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tag_id, callsign) DO UPDATE SET
			value = excluded.value,
			color_r = excluded.color_r,
			color_g = excluded.color_g,
			color_b = excluded.color_b,
			updated_at = excluded.updated_at`,
		id, callsign, value, r, g, b,
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to update tag %s for %s: %w", tagID, callsign, err)
	}
	return nil
}

// LookupTag implements tags.Reader
func (s *TagStorage) LookupTag(name string) (string, tags.Definition, bool) {
	var (
		id      int64
		def     tags.Definition
		actions string
	)
	err := s.db.QueryRow(
		`SELECT id, name, default_value, allowed_actions FROM tag_definitions WHERE name = ?`,
		name,
	).Scan(&id, &def.Name, &def.DefaultValue, &actions)
	if err != nil {
		if err != sql.ErrNoRows {
			s.logger.Error("Failed to look up tag", logger.String("name", name), logger.Error(err))
		}
		return "", tags.Definition{}, false
	}
	if actions != "" {
		def.AllowedActions = strings.Split(actions, ",")
	}
	return strconv.FormatInt(id, 10), def, true
}

// Values implements tags.Reader
func (s *TagStorage) Values(tagID string) ([]tags.Entry, error) {
	id, err := strconv.ParseInt(tagID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid tag id %q: %w", tagID, err)
	}

	rows, err := s.db.Query(
		`SELECT callsign, value, color_r, color_g, color_b, updated_at
		FROM tag_values
		WHERE tag_id = ?
		ORDER BY callsign`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query tag values: %w", err)
	}
	defer rows.Close()

	return s.scanEntryRows(tagID, rows)
}

func (s *TagStorage) scanEntryRows(tagID string, rows *sql.Rows) ([]tags.Entry, error) {
	entries := []tags.Entry{}
	for rows.Next() {
		var (
			entry     tags.Entry
			r, g, b   sql.NullInt64
			updatedAt string
		)
		if err := rows.Scan(&entry.Callsign, &entry.Value, &r, &g, &b, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag value: %w", err)
		}
		entry.TagID = tagID

		if r.Valid && g.Valid && b.Valid {
			entry.Color = &tags.Color{R: uint8(r.Int64), G: uint8(g.Int64), B: uint8(b.Int64)}
		}

		var err error
		entry.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tag values: %w", err)
	}
	return entries, nil
}
