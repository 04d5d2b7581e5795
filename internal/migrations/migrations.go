package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql/*.sql
var sqlFS embed.FS

// Migration is one embedded version and the name taken from its file.
type Migration struct {
	Version uint
	Name    string
}

// Status describes one embedded migration against the database version.
type Status struct {
	Migration
	Applied bool
	// Dirty marks the current version when its last run failed halfway.
	Dirty bool
}

// Source returns the embedded NNNNNN_name.{up,down}.sql files.
func Source() (source.Driver, error) {
	return iofs.New(sqlFS, "sql")
}

// List reads every migration in src in ascending version order.
func List(src source.Driver) ([]Migration, error) {
	var list []Migration

	v, err := src.First()
	for err == nil {
		r, name, rerr := src.ReadUp(v)
		if rerr != nil {
			return nil, fmt.Errorf("read migration %d: %w", v, rerr)
		}
		r.Close()

		list = append(list, Migration{Version: v, Name: name})

		v, err = src.Next(v)
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return list, nil
}

// Migrator applies the embedded migrations to a postgres database and records
// progress in schema_migrations.
type Migrator struct {
	m    *migrate.Migrate
	list []Migration
}

func New(db *sql.DB) (*Migrator, error) {
	src, err := Source()
	if err != nil {
		return nil, err
	}

	list, err := List(src)
	if err != nil {
		return nil, err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, err
	}

	return &Migrator{m: m, list: list}, nil
}

// Close releases the source and the database connection.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}

// Version returns the applied version. ok is false when nothing is applied.
func (mg *Migrator) Version() (version uint, dirty, ok bool, err error) {
	version, dirty, err = mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, err
	}

	return version, dirty, true, nil
}

// Up applies every pending migration. changed is false when the schema was
// already current.
func (mg *Migrator) Up() (changed bool, err error) {
	err = mg.m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// Down reverts the latest steps migrations.
func (mg *Migrator) Down(steps int) error {
	if steps < 1 {
		steps = 1
	}

	err := mg.m.Steps(-steps)
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}

	return err
}

// Force records version as applied and clean without running anything. It is
// the way out of a dirty state after a failed migration was fixed by hand.
func (mg *Migrator) Force(version int) error {
	return mg.m.Force(version)
}

func (mg *Migrator) Status() ([]Status, error) {
	version, dirty, ok, err := mg.Version()
	if err != nil {
		return nil, err
	}

	return statuses(mg.list, version, dirty, ok), nil
}

// statuses marks every version up to current as applied. golang-migrate keeps
// a single linear version, so nothing past it can be applied.
func statuses(list []Migration, current uint, dirty, ok bool) []Status {
	out := make([]Status, 0, len(list))

	for _, m := range list {
		s := Status{Migration: m}
		if ok && m.Version <= current {
			s.Applied = true
			s.Dirty = dirty && m.Version == current
		}
		out = append(out, s)
	}

	return out
}
