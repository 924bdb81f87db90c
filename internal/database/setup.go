package database

import (
	"context"
	"database/sql"
	"fmt"
	"realestate-backend/internal/config"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

func setPragmaValues(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return err
	}

	// these next 2 extremely speed up performance of sqlite
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return err
	}

	if _, err := db.Exec("PRAGMA synchronous = normal"); err != nil {
		return err
	}

	return nil
}

func readPragmaValues(db *sql.DB, sugar *zap.SugaredLogger) error {
	var foreignKeysValue bool
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeysValue)
	if err != nil {
		return err
	}

	var journalModeValue string
	err = db.QueryRow("PRAGMA journal_mode").Scan(&journalModeValue)
	if err != nil {
		return err
	}

	var synchronousValue int
	err = db.QueryRow("PRAGMA synchronous").Scan(&synchronousValue)
	if err != nil {
		return err
	}

	var synchronousValueStr string
	switch synchronousValue {
	case 0:
		synchronousValueStr = "off"
	case 1:
		synchronousValueStr = "normal"
	case 2:
		synchronousValueStr = "full"
	case 3:
		synchronousValueStr = "extra"
	default:
		return fmt.Errorf("synchronous value is unsupported")
	}

	sugar.Infow("sqlite pragma values",
		"foreign_keys", foreignKeysValue,
		"journal_mode", journalModeValue,
		"synchronous", synchronousValueStr,
	)

	return nil
}

// OpenSqlite opens the self-contained database at path, ":memory:" works for tests.
func OpenSqlite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// there can be sqlite busy errors if this is not set to 1
	db.SetMaxOpenConns(1)

	err = setPragmaValues(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	err = setupTables(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func mysqlDSN(cfg *config.ConfigFile) string {
	// clientFoundRows makes RowsAffected count matched rows, updates that change nothing still report 1
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&timeout=10s&clientFoundRows=true",
		cfg.DbUser, cfg.DbPassword, cfg.DbAddress, cfg.DbPort, cfg.DbDatabase)
}

func Setup(cfg *config.ConfigFile, sugar *zap.SugaredLogger) (*sql.DB, error) {
	if cfg.SelfContained {
		sugar.Infof("Connecting to database sqlite at %s...", cfg.SqlitePath)

		db, err := OpenSqlite(cfg.SqlitePath)
		if err != nil {
			return nil, err
		}

		err = readPragmaValues(db, sugar)
		if err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	}

	sugar.Info("Connecting to database mysql/mariadb...")

	db, err := sql.Open("mysql", mysqlDSN(cfg))
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	err = setupTables(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func setupTables(db *sql.DB) error {
	var err error

	_, err = db.Exec(`
			CREATE TABLE IF NOT EXISTS users (
				id BIGINT PRIMARY KEY,
				username VARCHAR(32) NOT NULL UNIQUE,
				password BINARY(60) NOT NULL,
				role VARCHAR(16) NOT NULL DEFAULT 'user',
				created_at BIGINT NOT NULL,
				updated_at BIGINT NOT NULL
			);
		`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
			CREATE TABLE IF NOT EXISTS messages (
				id BIGINT PRIMARY KEY,
				sender_id BIGINT NOT NULL,
				receiver_id BIGINT NOT NULL,
				content TEXT NOT NULL,
				created_at BIGINT NOT NULL,
				is_read BOOLEAN NOT NULL DEFAULT FALSE,
				FOREIGN KEY (sender_id) REFERENCES users(id) ON DELETE CASCADE,
				FOREIGN KEY (receiver_id) REFERENCES users(id) ON DELETE CASCADE
			);
		`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
			CREATE TABLE IF NOT EXISTS listings (
				id VARCHAR(36) PRIMARY KEY,
				user_id BIGINT NOT NULL,
				title VARCHAR(256) NOT NULL,
				description TEXT NOT NULL,
				price DOUBLE NOT NULL,
				street VARCHAR(128) NOT NULL,
				city VARCHAR(128) NOT NULL,
				state VARCHAR(128) NOT NULL,
				postal_code VARCHAR(32) NOT NULL,
				country VARCHAR(128) NOT NULL,
				property_type VARCHAR(16) NOT NULL,
				size DOUBLE NOT NULL,
				bedrooms INT NOT NULL,
				bathrooms INT NOT NULL,
				listed_date BIGINT NOT NULL,
				features TEXT NOT NULL,
				images TEXT NOT NULL,
				agent_name VARCHAR(64) NOT NULL,
				agent_contact VARCHAR(128) NOT NULL,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			);
		`)
	if err != nil {
		return err
	}

	return nil
}
