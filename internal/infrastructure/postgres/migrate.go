package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/jhoicas/kardex-api/pkg/config"
)

// RunMigrations aplica las migraciones pendientes del directorio indicado
// (p. ej. "file://migrations"). Usa una conexión propia vía database/sql
// que se cierra al terminar; el pool de la app no participa.
func RunMigrations(cfg config.DBConfig, sourceURL string) error {
	db, err := sql.Open("pgx", cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("abrir conexión para migraciones: %w", err)
	}

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("driver de migraciones: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("instancia de migrate: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		_, _ = m.Close()
		return fmt.Errorf("aplicar migraciones: %w", err)
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return fmt.Errorf("cerrar source de migraciones: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("cerrar conexión de migraciones: %w", dbErr)
	}
	return nil
}
