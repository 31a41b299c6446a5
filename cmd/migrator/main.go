package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/mahmutissiz-creator/libraTech/internal/config"
)

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return
	}
	command := args[0]

	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	switch command {
	case "up":
		if err := goose.Up(db, "migrations"); err != nil {
			log.Fatalf("failed to apply migrations: %v", err)
		}
		fmt.Println("migrations applied")
	case "down":
		if err := goose.Down(db, "migrations"); err != nil {
			log.Fatalf("failed to roll back migration: %v", err)
		}
		fmt.Println("last migration rolled back")
	case "status":
		if err := goose.Status(db, "migrations"); err != nil {
			log.Fatalf("failed to get migration status: %v", err)
		}
	case "seed":
		if err := seed(ctx, db); err != nil {
			log.Fatalf("failed to seed database: %v", err)
		}
		fmt.Println("sample data inserted")
	default:
		fmt.Printf("unknown command: %s\n", command)
		flag.Usage()
	}
}

// seed inserts a small sample catalogue and student roster for local
// development. Rows that already exist (by ISBN / student number) are skipped.
func seed(ctx context.Context, db *sql.DB) error {
	books := []struct {
		title, author, isbn, category string
	}{
		{"Kürk Mantolu Madonna", "Sabahattin Ali", "9789753638029", "Edebiyat"},
		{"1984", "George Orwell", "9780451524935", "Bilim Kurgu"},
		{"Matematik Cilt 1", "Tom M. Apostol", "9780471000051", "Eğitim"},
		{"Temiz Kod (Clean Code)", "Robert C. Martin", "9780132350884", "Teknoloji"},
	}
	for _, b := range books {
		_, err := db.ExecContext(ctx, `
			INSERT INTO books (title, author, isbn, status, category, added_date)
			VALUES ($1, $2, $3, 'AVAILABLE', $4, now())
			ON CONFLICT (isbn) DO NOTHING`,
			b.title, b.author, b.isbn, b.category)
		if err != nil {
			return fmt.Errorf("failed to seed book %s: %w", b.isbn, err)
		}
	}

	students := []struct {
		name, number, email, grade string
	}{
		{"Ali Yılmaz", "2024001", "ali@okul.com", "10-A"},
		{"Ayşe Demir", "2024002", "ayse@okul.com", "11-B"},
		{"Mehmet Kaya", "2024003", "mehmet@okul.com", "9-C"},
	}
	for _, s := range students {
		_, err := db.ExecContext(ctx, `
			INSERT INTO students (name, student_number, email, grade, reading_history)
			VALUES ($1, $2, $3, $4, '{}')
			ON CONFLICT (student_number) DO NOTHING`,
			s.name, s.number, s.email, s.grade)
		if err != nil {
			return fmt.Errorf("failed to seed student %s: %w", s.number, err)
		}
	}
	return nil
}

func usage() {
	fmt.Println("Usage: migrator [command]")
	fmt.Println("Commands:")
	fmt.Println("  up      - apply all pending migrations")
	fmt.Println("  down    - roll back the last migration")
	fmt.Println("  status  - show migration status")
	fmt.Println("  seed    - insert sample books and students")
}
