package entity

import "time"

// User is a row in the users table. ExternalID is the provider's id and is
// the natural key: re-syncing the same ExternalID updates, never duplicates.
type User struct {
	ID          int       `json:"id"`
	ExternalID  int       `json:"external_id"`
	Name        *string   `json:"name"`
	Username    *string   `json:"username"`
	Email       *string   `json:"email"`
	Phone       *string   `json:"phone"`
	Website     *string   `json:"website"`
	CompanyName *string   `json:"company_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Address    *Address    `json:"address,omitempty"`
	CreditCard *CreditCard `json:"credit_card,omitempty"`
}

// Address is the 1:1 address of a user. The unique key on UserID enforces at
// most one row per user.
type Address struct {
	ID         int      `json:"id"`
	UserID     int      `json:"user_id"`
	Street     *string  `json:"street"`
	StreetName *string  `json:"street_name"`
	City       *string  `json:"city"`
	State      *string  `json:"state"`
	Country    *string  `json:"country"`
	Zip        *string  `json:"zip"`
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
	RawJSON    []byte   `json:"-"`
}

// CreditCard is the 1:1 card of a user. CCNumber is stored in the clear and
// masked only at API egress.
type CreditCard struct {
	ID       int     `json:"id"`
	UserID   int     `json:"user_id"`
	CCNumber *string `json:"cc_number"`
	CCType   *string `json:"cc_type"`
	ExpMonth *int    `json:"exp_month"`
	ExpYear  *int    `json:"exp_year"`
	RawJSON  []byte  `json:"-"`
}
