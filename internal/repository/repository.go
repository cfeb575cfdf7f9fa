package repository

import (
	"context"
	"database/sql"
	"errors"

	"user-sync-service/internal/entity"
)

// ErrUserVanished is returned when the user selected for enrichment was
// deleted before the write. Callers treat it as a skip, not a failure.
var ErrUserVanished = errors.New("user vanished before enrichment write")

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db}
}

// UpsertUsers writes one page of synced users inside a single transaction.
// The unique key on external_id makes re-running a page converge to the same
// rows instead of duplicating them.
func (r *UserRepository) UpsertUsers(ctx context.Context, users []*entity.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO users (external_id, name, username, email, phone, website, company_name)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			username = VALUES(username),
			email = VALUES(email),
			phone = VALUES(phone),
			website = VALUES(website),
			company_name = VALUES(company_name)`

	for _, u := range users {
		_, err := tx.ExecContext(ctx, query, u.ExternalID, u.Name, u.Username, u.Email, u.Phone, u.Website, u.CompanyName)
		if err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// UpsertAddressForUser attaches or replaces the address of the user with the
// given external id, in its own transaction. Returns ErrUserVanished when the
// user row no longer exists.
func (r *UserRepository) UpsertAddressForUser(ctx context.Context, externalID int, addr *entity.Address) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	userID, err := userIDByExternalID(ctx, tx, externalID)
	if err != nil {
		tx.Rollback()
		return err
	}

	query := `
		INSERT INTO addresses (user_id, street, street_name, city, state, country, zip, lat, lng, raw_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			street = VALUES(street),
			street_name = VALUES(street_name),
			city = VALUES(city),
			state = VALUES(state),
			country = VALUES(country),
			zip = VALUES(zip),
			lat = VALUES(lat),
			lng = VALUES(lng),
			raw_json = VALUES(raw_json)`

	_, err = tx.ExecContext(ctx, query, userID, addr.Street, addr.StreetName, addr.City, addr.State, addr.Country, addr.Zip, addr.Lat, addr.Lng, nullableJSON(addr.RawJSON))
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// UpsertCreditCardForUser attaches or replaces the credit card of the user
// with the given external id, in its own transaction.
func (r *UserRepository) UpsertCreditCardForUser(ctx context.Context, externalID int, card *entity.CreditCard) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	userID, err := userIDByExternalID(ctx, tx, externalID)
	if err != nil {
		tx.Rollback()
		return err
	}

	query := `
		INSERT INTO credit_cards (user_id, cc_number, cc_type, exp_month, exp_year, raw_json)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			cc_number = VALUES(cc_number),
			cc_type = VALUES(cc_type),
			exp_month = VALUES(exp_month),
			exp_year = VALUES(exp_year),
			raw_json = VALUES(raw_json)`

	_, err = tx.ExecContext(ctx, query, userID, card.CCNumber, card.CCType, card.ExpMonth, card.ExpYear, nullableJSON(card.RawJSON))
	if err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func userIDByExternalID(ctx context.Context, tx *sql.Tx, externalID int) (int, error) {
	var userID int
	err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE external_id = ?`, externalID).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserVanished
	}
	if err != nil {
		return 0, err
	}
	return userID, nil
}

// MissingAddressExternalIDs selects users that have no address yet, ordered
// by internal id so batch boundaries are stable across runs. batchSize 0
// means the full backlog.
func (r *UserRepository) MissingAddressExternalIDs(ctx context.Context, batchSize int) ([]int, error) {
	return r.missingExternalIDs(ctx, "addresses", batchSize)
}

// MissingCardExternalIDs selects users that have no credit card yet.
func (r *UserRepository) MissingCardExternalIDs(ctx context.Context, batchSize int) ([]int, error) {
	return r.missingExternalIDs(ctx, "credit_cards", batchSize)
}

func (r *UserRepository) missingExternalIDs(ctx context.Context, relatedTable string, batchSize int) ([]int, error) {
	query := `
		SELECT u.external_id FROM users u
		LEFT JOIN ` + relatedTable + ` rel ON rel.user_id = u.id
		WHERE rel.id IS NULL
		ORDER BY u.id ASC`
	args := []interface{}{}
	if batchSize > 0 {
		query += ` LIMIT ?`
		args = append(args, batchSize)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListUsers returns a page of users with their address and card loaded.
// hasAddress / hasCard restrict the page when non-nil.
func (r *UserRepository) ListUsers(ctx context.Context, limit, offset int, hasAddress, hasCard *bool) ([]*entity.User, error) {
	query := `
		SELECT id, external_id, name, username, email, phone, website, company_name, created_at, updated_at
		FROM users WHERE 1=1`
	if hasAddress != nil {
		query += existsClause("addresses", *hasAddress)
	}
	if hasCard != nil {
		query += existsClause("credit_cards", *hasCard)
	}
	query += ` ORDER BY id ASC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		u := &entity.User{}
		err := rows.Scan(&u.ID, &u.ExternalID, &u.Name, &u.Username, &u.Email, &u.Phone, &u.Website, &u.CompanyName, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, u := range users {
		if err := r.loadRelated(ctx, u); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// GetUserByID returns one user by internal id with address and card loaded.
// Returns sql.ErrNoRows when the user does not exist.
func (r *UserRepository) GetUserByID(ctx context.Context, id int) (*entity.User, error) {
	u := &entity.User{}
	query := `
		SELECT id, external_id, name, username, email, phone, website, company_name, created_at, updated_at
		FROM users WHERE id = ?`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.ExternalID, &u.Name, &u.Username, &u.Email, &u.Phone, &u.Website, &u.CompanyName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := r.loadRelated(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) loadRelated(ctx context.Context, u *entity.User) error {
	addr := &entity.Address{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, street, street_name, city, state, country, zip, lat, lng FROM addresses WHERE user_id = ?`,
		u.ID).Scan(&addr.ID, &addr.UserID, &addr.Street, &addr.StreetName, &addr.City, &addr.State, &addr.Country, &addr.Zip, &addr.Lat, &addr.Lng)
	switch {
	case err == nil:
		u.Address = addr
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	card := &entity.CreditCard{}
	err = r.db.QueryRowContext(ctx,
		`SELECT id, user_id, cc_number, cc_type, exp_month, exp_year FROM credit_cards WHERE user_id = ?`,
		u.ID).Scan(&card.ID, &card.UserID, &card.CCNumber, &card.CCType, &card.ExpMonth, &card.ExpYear)
	switch {
	case err == nil:
		u.CreditCard = card
	case !errors.Is(err, sql.ErrNoRows):
		return err
	}

	return nil
}

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}

func existsClause(relatedTable string, present bool) string {
	clause := ` AND EXISTS (SELECT 1 FROM ` + relatedTable + ` rel WHERE rel.user_id = users.id)`
	if !present {
		clause = ` AND NOT EXISTS (SELECT 1 FROM ` + relatedTable + ` rel WHERE rel.user_id = users.id)`
	}
	return clause
}
