// Package migration runs named, batched schema migrations and records them
// in the ally_migrations table.
//
//	func init() {
//	    migration.Register("20250101000000_create_core_tables", migration.Funcs{UpFn: up, DownFn: down})
//	}
package migration

import (
	"fmt"
	"io"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/artisansally/ally/pkg/logger"
)

type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

// Funcs adapts a pair of functions to Migration.
type Funcs struct {
	UpFn   func(db *gorm.DB) error
	DownFn func(db *gorm.DB) error
}

func (f Funcs) Up(db *gorm.DB) error   { return f.UpFn(db) }
func (f Funcs) Down(db *gorm.DB) error { return f.DownFn(db) }

type record struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:191;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (record) TableName() string { return "ally_migrations" }

type entry struct {
	name string
	m    Migration
}

var registry []entry

// Register adds a migration. Names sort lexicographically, so prefix them
// with a timestamp.
func Register(name string, m Migration) {
	registry = append(registry, entry{name: name, m: m})
}

// Status is one row of `ally migrate:status`.
type Status struct {
	Name  string
	Ran   bool
	Batch int
}

type Runner struct {
	db  *gorm.DB
	out io.Writer
}

// New returns a Runner that reports progress to out.
func New(db *gorm.DB, out io.Writer) *Runner {
	if out == nil {
		out = io.Discard
	}
	return &Runner{db: db, out: out}
}

func (r *Runner) ensureTable() error {
	return r.db.AutoMigrate(&record{})
}

func sorted() []entry {
	out := append([]entry(nil), registry...)
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func (r *Runner) ran() (map[string]record, error) {
	var rows []record
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	m := make(map[string]record, len(rows))
	for _, row := range rows {
		m[row.Name] = row
	}
	return m, nil
}

// Run applies every pending migration as one batch. Each migration and its
// bookkeeping row commit together.
func (r *Runner) Run() error {
	if err := r.ensureTable(); err != nil {
		return fmt.Errorf("migration: ensure table: %w", err)
	}
	done, err := r.ran()
	if err != nil {
		return fmt.Errorf("migration: load history: %w", err)
	}

	var pending []entry
	for _, e := range sorted() {
		if _, ok := done[e.name]; !ok {
			pending = append(pending, e)
		}
	}
	if len(pending) == 0 {
		fmt.Fprintln(r.out, "Nothing to migrate.")
		return nil
	}

	batch := r.lastBatch() + 1
	for _, e := range pending {
		err := r.db.Transaction(func(tx *gorm.DB) error {
			if err := e.m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&record{Name: e.name, Batch: batch}).Error
		})
		if err != nil {
			return fmt.Errorf("migration: %s up: %w", e.name, err)
		}
		fmt.Fprintf(r.out, "Migrated: %s\n", e.name)
	}

	logger.Info("migrations applied", "count", len(pending), "batch", batch)
	return nil
}

// Rollback reverses the most recent batch, newest first.
func (r *Runner) Rollback() error {
	if err := r.ensureTable(); err != nil {
		return fmt.Errorf("migration: ensure table: %w", err)
	}
	last := r.lastBatch()
	if last == 0 {
		fmt.Fprintln(r.out, "Nothing to roll back.")
		return nil
	}

	var rows []record
	if err := r.db.Where("batch = ?", last).Order("id desc").Find(&rows).Error; err != nil {
		return err
	}

	byName := make(map[string]Migration, len(registry))
	for _, e := range registry {
		byName[e.name] = e.m
	}

	for _, row := range rows {
		m, ok := byName[row.Name]
		if !ok {
			return fmt.Errorf("migration: %s is recorded but not registered", row.Name)
		}
		err := r.db.Transaction(func(tx *gorm.DB) error {
			if err := m.Down(tx); err != nil {
				return err
			}
			return tx.Delete(&record{}, row.ID).Error
		})
		if err != nil {
			return fmt.Errorf("migration: %s down: %w", row.Name, err)
		}
		fmt.Fprintf(r.out, "Rolled back: %s\n", row.Name)
	}
	return nil
}

// Status lists every registered migration with its state.
func (r *Runner) Status() ([]Status, error) {
	if err := r.ensureTable(); err != nil {
		return nil, err
	}
	done, err := r.ran()
	if err != nil {
		return nil, err
	}

	var out []Status
	for _, e := range sorted() {
		row, ok := done[e.name]
		out = append(out, Status{Name: e.name, Ran: ok, Batch: row.Batch})
	}
	return out, nil
}

func (r *Runner) lastBatch() int {
	var max struct{ Max int }
	r.db.Model(&record{}).Select("COALESCE(MAX(batch), 0) AS max").Scan(&max)
	return max.Max
}
