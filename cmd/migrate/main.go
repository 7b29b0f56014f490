package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	databaseURL := flag.String("database", "", "database URL (defaults to DATABASE_URL)")
	migrationsPath := flag.String("path", "migrations", "path to migrations directory")
	command := flag.String("command", "up", "migration command: up, down, version, force")
	flag.Parse()

	if *databaseURL == "" {
		*databaseURL = os.Getenv("DATABASE_URL")
	}
	if *databaseURL == "" {
		log.Fatal("database URL is required: use -database or DATABASE_URL")
	}

	m, err := migrate.New(fmt.Sprintf("file://%s", *migrationsPath), *databaseURL)
	if err != nil {
		log.Fatalf("create migration instance: %v", err)
	}
	defer m.Close()

	switch *command {
	case "up":
		err = m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			log.Println("no migrations to run")
			return
		}
		if err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		log.Println("migrations applied")

	case "down":
		err = m.Down()
		if err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("migrate down: %v", err)
		}
		log.Println("migrations rolled back")

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Println("no migrations applied")
			return
		}
		if err != nil {
			log.Fatalf("get version: %v", err)
		}
		log.Printf("version %d (dirty: %v)", version, dirty)

	case "force":
		if flag.NArg() < 1 {
			log.Fatal("force requires a version: -command force <version>")
		}
		var version int
		if _, err := fmt.Sscanf(flag.Arg(0), "%d", &version); err != nil {
			log.Fatalf("invalid version %q: %v", flag.Arg(0), err)
		}
		if err := m.Force(version); err != nil {
			log.Fatalf("force version: %v", err)
		}
		log.Printf("forced version %d", version)

	default:
		log.Fatalf("unknown command %q (use up, down, version, force)", *command)
	}
}
