// Package seeders fills a database with demo data.
//
// A seeder registers itself from init():
//
//	func init() { seeders.Register("demo", SeedDemo) }
//
// and runs with `ally seed`.
package seeders

import (
	"fmt"
	"io"
	"sync"

	"gorm.io/gorm"
)

type SeederFunc func(db *gorm.DB) error

type seederEntry struct {
	name string
	fn   SeederFunc
}

var (
	mu      sync.Mutex
	entries []seederEntry
)

func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, seederEntry{name: name, fn: fn})
}

// RunAll executes every registered seeder in registration order and stops
// at the first error.
func RunAll(db *gorm.DB, out io.Writer) error {
	mu.Lock()
	current := append([]seederEntry(nil), entries...)
	mu.Unlock()

	if len(current) == 0 {
		fmt.Fprintln(out, "  (no seeders registered)")
		return nil
	}

	for _, e := range current {
		fmt.Fprintf(out, "  • Running seeder: %s … ", e.name)
		if err := e.fn(db); err != nil {
			fmt.Fprintln(out, "FAILED")
			return fmt.Errorf("seeder %q: %w", e.name, err)
		}
		fmt.Fprintln(out, "done")
	}
	return nil
}
