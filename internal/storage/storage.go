// Package storage persists named selections ("bookmarks") of a dataset in
// Postgres or SQLite through gorm.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a bookmark does not exist
var ErrNotFound = errors.New("storage: bookmark not found")

// Bookmark is a saved selection of one series, with the camera it was
// saved under.
type Bookmark struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name    string         `gorm:"size:128;not null;uniqueIndex:idx_bookmark_key"`
	Dataset string         `gorm:"size:512;not null;uniqueIndex:idx_bookmark_key"`
	Series  string         `gorm:"size:128;not null"`
	Indices datatypes.JSON `gorm:"not null"`
	Zoom    float64
	LookAt  datatypes.JSON
}

// IndexList decodes the stored indices
func (b *Bookmark) IndexList() ([]int, error) {
	var out []int
	if len(b.Indices) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(b.Indices, &out); err != nil {
		return nil, fmt.Errorf("storage: bookmark %q: %w", b.Name, err)
	}
	return out, nil
}

// LookAtPoint decodes the stored camera target
func (b *Bookmark) LookAtPoint() ([3]float64, bool) {
	var p [3]float64
	if len(b.LookAt) == 0 || json.Unmarshal(b.LookAt, &p) != nil {
		return p, false
	}
	return p, true
}

// NewBookmark builds a bookmark ready to save
func NewBookmark(dataset, name, series string, indices []int, zoom float64, lookAt [3]float64) (*Bookmark, error) {
	if indices == nil {
		indices = []int{}
	}
	idx, err := json.Marshal(indices)
	if err != nil {
		return nil, err
	}
	la, err := json.Marshal(lookAt)
	if err != nil {
		return nil, err
	}
	return &Bookmark{
		Name:    name,
		Dataset: dataset,
		Series:  series,
		Indices: datatypes.JSON(idx),
		Zoom:    zoom,
		LookAt:  datatypes.JSON(la),
	}, nil
}

// Config selects the database. Postgres is used when Host is set.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string

	// SQLitePath is the fallback database file; empty means in memory
	SQLitePath string
}

// Manager handles the database connection and bookmark queries.
type Manager struct {
	DB      *gorm.DB
	SqlDB   *sql.DB
	IsLocal bool
	Logger  zerolog.Logger

	config Config
}

// NewManager creates a new database manager.
func NewManager(config Config, log zerolog.Logger) *Manager {
	return &Manager{config: config, Logger: log.With().Str("component", "storage").Logger()}
}

// Connect opens Postgres when configured, falling back to SQLite, and
// migrates the schema.
func (m *Manager) Connect() error {
	var err error
	if m.config.Host != "" {
		m.DB, err = m.openPostgres()
		if err == nil {
			m.SqlDB, err = m.DB.DB()
		}
		if err == nil {
			err = m.SqlDB.Ping()
		}
		if err != nil {
			m.Logger.Error().Err(err).Msg("Failed to connect to Postgres DB, trying SQLite")
			m.DB = nil
		}
	}

	if m.DB == nil {
		m.IsLocal = true
		m.DB, err = m.openSqlite(m.config.SQLitePath)
		if err != nil {
			return fmt.Errorf("storage: open SQLite: %w", err)
		}
		m.SqlDB, err = m.DB.DB()
		if err != nil {
			return fmt.Errorf("storage: access sql interface: %w", err)
		}
		// one connection keeps an in-memory database alive and shared
		m.SqlDB.SetMaxOpenConns(1)
	} else {
		m.SqlDB.SetMaxOpenConns(10)
		m.Logger.Info().Msg("Connected to database")
	}

	if err := m.DB.AutoMigrate(&Bookmark{}); err != nil {
		return fmt.Errorf("storage: migrate: %w", err)
	}
	return nil
}

func (m *Manager) openPostgres() (*gorm.DB, error) {
	port := m.config.Port
	if port == 0 {
		port = 5432
	}
	dsn := fmt.Sprintf(`host=%s port=%d user=%s password=%s dbname=%s sslmode=disable`,
		m.config.Host, port, m.config.User, m.config.Password, m.config.Database)

	m.Logger.Debug().Str("host", m.config.Host).Int("port", port).Msg("Connecting to Postgres DB")

	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
}

func (m *Manager) openSqlite(path string) (*gorm.DB, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if path == "" {
		m.Logger.Info().Msg("Using in-memory SQLite DB")
	} else {
		m.Logger.Info().Str("path", path).Msg("Using local SQLite DB")
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA temp_store = MEMORY;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}
	return db, nil
}

// Close closes the connection
func (m *Manager) Close() error {
	if m.SqlDB == nil {
		return nil
	}
	return m.SqlDB.Close()
}

// Save creates the bookmark or replaces the one with the same dataset and name
func (m *Manager) Save(b *Bookmark) error {
	err := m.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}, {Name: "dataset"}},
		DoUpdates: clause.AssignmentColumns([]string{"series", "indices", "zoom", "look_at", "updated_at"}),
	}).Create(b).Error
	if err != nil {
		return fmt.Errorf("storage: save %q: %w", b.Name, err)
	}
	m.Logger.Debug().Str("dataset", b.Dataset).Str("name", b.Name).Msg("bookmark saved")
	return nil
}

// Load returns one bookmark
func (m *Manager) Load(dataset, name string) (*Bookmark, error) {
	var b Bookmark
	err := m.DB.Where("dataset = ? AND name = ?", dataset, name).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, dataset, name)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: load %q: %w", name, err)
	}
	return &b, nil
}

// List returns the bookmarks of a dataset ordered by name. An empty
// dataset lists every bookmark.
func (m *Manager) List(dataset string) ([]Bookmark, error) {
	var out []Bookmark
	q := m.DB.Order("dataset").Order("name")
	if dataset != "" {
		q = q.Where("dataset = ?", dataset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("storage: list: %w", err)
	}
	return out, nil
}

// Delete removes a bookmark
func (m *Manager) Delete(dataset, name string) error {
	res := m.DB.Where("dataset = ? AND name = ?", dataset, name).Delete(&Bookmark{})
	if res.Error != nil {
		return fmt.Errorf("storage: delete %q: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, dataset, name)
	}
	return nil
}
