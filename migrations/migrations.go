package migrations

import (
	"database/sql"
	"time"
)

// AutoMigrateUsers creates the users table if it does not exist.
func AutoMigrateUsers(retries int, db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			id INT AUTO_INCREMENT PRIMARY KEY,
			external_id INT NOT NULL UNIQUE,
			name VARCHAR(200),
			username VARCHAR(100),
			email VARCHAR(255),
			phone VARCHAR(100),
			website VARCHAR(255),
			company_name VARCHAR(255),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		);
	`
	return execWithRetry(retries, db, query)
}

// AutoMigrateAddresses creates the addresses table if it does not exist.
// The unique key on user_id enforces the 1:1 relationship.
func AutoMigrateAddresses(retries int, db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS addresses (
			id INT AUTO_INCREMENT PRIMARY KEY,
			user_id INT NOT NULL UNIQUE,
			street VARCHAR(255),
			street_name VARCHAR(255),
			city VARCHAR(255),
			state VARCHAR(255),
			country VARCHAR(255),
			zip VARCHAR(50),
			lat DOUBLE,
			lng DOUBLE,
			raw_json JSON,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		);
	`
	return execWithRetry(retries, db, query)
}

// AutoMigrateCreditCards creates the credit_cards table if it does not exist.
func AutoMigrateCreditCards(retries int, db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS credit_cards (
			id INT AUTO_INCREMENT PRIMARY KEY,
			user_id INT NOT NULL UNIQUE,
			cc_number VARCHAR(32),
			cc_type VARCHAR(50),
			exp_month INT,
			exp_year INT,
			raw_json JSON,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		);
	`
	return execWithRetry(retries, db, query)
}

func execWithRetry(retries int, db *sql.DB, query string) error {
	_, err := db.Exec(query)
	if err != nil {
		for i := 0; i < retries; i++ {
			time.Sleep(1 * time.Second)
			_, err = db.Exec(query)
			if err == nil {
				break
			}
		}
	}
	return err
}
