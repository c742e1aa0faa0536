package db

import (
	"database/sql"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

var db *sqlx.DB

func InitDB() *sqlx.DB {
	path := os.Getenv("DATABASE_PATH")
	if path == "" {
		path = "league.db"
	}

	conn, err := sqlx.Connect("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		log.Fatalln("Failed to connect to DB:", err)
	}

	_, err = conn.Exec("PRAGMA foreign_keys = ON;")
	if err != nil {
		log.Fatal(err)
	}

	log.Println("Database connected.")
	db = conn
	return conn
}

func GetDB() *sqlx.DB {
	return db
}

func RunMigrations(database *sql.DB) error {
	driver, err := sqlite3.WithInstance(database, &sqlite3.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "sqlite3", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
