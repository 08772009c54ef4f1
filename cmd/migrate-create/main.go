package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Scaffolds a timestamped up/down SQL pair under db/migrations, the source
// tree cmd/migrate reads from.
func main() {
	dir := flag.String("dir", filepath.Join("db", "migrations"), "migrations directory")
	name := flag.String("name", "", "migration name, e.g. add_room_topic")
	flag.Parse()

	if *name == "" {
		log.Fatal("migration name is required, e.g. -name add_room_topic")
	}
	if !validName(*name) {
		log.Fatalf("migration name %q must be lowercase letters, digits and underscores", *name)
	}

	version := time.Now().UTC().Format("20060102150405")
	base := filepath.Join(*dir, fmt.Sprintf("%s_%s", version, *name))

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Fatalf("create migrations dir: %v", err)
	}
	if err := writeStub(base+".up.sql", *name, "up"); err != nil {
		log.Fatalf("create up migration: %v", err)
	}
	if err := writeStub(base+".down.sql", *name, "down"); err != nil {
		log.Fatalf("create down migration: %v", err)
	}

	log.Printf("created %s.{up,down}.sql", base)
}

func validName(name string) bool {
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return false
		}
	}
	return true
}

func writeStub(path, name, direction string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("-- %s (%s)\n", name, direction)), 0o644)
}
