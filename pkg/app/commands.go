package app

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/artisansally/ally/database/seeders"
	"github.com/artisansally/ally/pkg/database"
	"github.com/artisansally/ally/pkg/migration"
	"github.com/artisansally/ally/pkg/router"
)

// Migrate applies pending migrations to database.DB.
func Migrate(out io.Writer) error {
	return migration.New(database.DB, out).Run()
}

// Rollback reverts the most recent migration batch.
func Rollback(out io.Writer) error {
	return migration.New(database.DB, out).Rollback()
}

// MigrateStatus prints one line per known migration.
func MigrateStatus(out io.Writer) error {
	statuses, err := migration.New(database.DB, out).Status()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "MIGRATION\tRAN\tBATCH")
	for _, s := range statuses {
		batch := "-"
		if s.Ran {
			batch = fmt.Sprint(s.Batch)
		}
		fmt.Fprintf(w, "%s\t%t\t%s\n", s.Name, s.Ran, batch)
	}
	return w.Flush()
}

func Seed(out io.Writer) error {
	return seeders.RunAll(database.DB, out)
}

// PrintRoutes writes routes sorted by path, then method.
func PrintRoutes(out io.Writer, routes []router.Route) error {
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path != routes[j].Path {
			return routes[i].Path < routes[j].Path
		}
		return routes[i].Method < routes[j].Method
	})

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATH\tNAME")
	fmt.Fprintln(w, "------\t----\t----")
	for _, ri := range routes {
		fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
	}
	return w.Flush()
}
