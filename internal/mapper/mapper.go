// Package mapper translates provider records into local entity shapes. Every
// function here is pure: malformed nested payloads degrade to null fields and
// never fail, so one bad record cannot abort a batch.
package mapper

import (
	"encoding/json"
	"strconv"
	"strings"

	"user-sync-service/internal/client"
	"user-sync-service/internal/entity"
)

// MapUser maps a provider record to a User. The display name joins the
// trimmed first and last names with a single space; when both are blank the
// name is nil, not an empty string.
func MapUser(record *client.UserRecord) *entity.User {
	first := strings.TrimSpace(record.FirstName)
	last := strings.TrimSpace(record.LastName)

	var parts []string
	if first != "" {
		parts = append(parts, first)
	}
	if last != "" {
		parts = append(parts, last)
	}
	var name *string
	if len(parts) > 0 {
		joined := strings.Join(parts, " ")
		name = &joined
	}

	company := decodeObject(record.Company)

	return &entity.User{
		ExternalID:  record.ID,
		Name:        name,
		Username:    optString(record.Username),
		Email:       optString(record.Email),
		Phone:       optString(record.Phone),
		Website:     optString(record.Domain),
		CompanyName: stringField(company, "name"),
	}
}

// MapAddress maps the nested address object. An absent or malformed object
// yields all-null fields; street_name has no provider source and stays nil.
func MapAddress(record *client.UserRecord) *entity.Address {
	addr := decodeObject(record.Address)
	coords := objectField(addr, "coordinates")

	return &entity.Address{
		Street:     stringField(addr, "address"),
		StreetName: nil,
		City:       stringField(addr, "city"),
		State:      stringField(addr, "state"),
		Country:    stringField(addr, "country"),
		Zip:        stringField(addr, "postalCode"),
		Lat:        floatField(coords, "lat"),
		Lng:        floatField(coords, "lng"),
		RawJSON:    rawOrNil(record.Address),
	}
}

// MapCreditCard maps the nested bank object. cardExpire is "MM/YY" with the
// year normalized to 2000+YY; anything malformed yields nil month and year.
func MapCreditCard(record *client.UserRecord) *entity.CreditCard {
	bank := decodeObject(record.Bank)
	month, year := parseExpiry(stringField(bank, "cardExpire"))

	return &entity.CreditCard{
		CCNumber: stringField(bank, "cardNumber"),
		CCType:   stringField(bank, "cardType"),
		ExpMonth: month,
		ExpYear:  year,
		RawJSON:  rawOrNil(record.Bank),
	}
}

func parseExpiry(value *string) (*int, *int) {
	if value == nil {
		return nil, nil
	}
	mm, yy, found := strings.Cut(*value, "/")
	if !found {
		return nil, nil
	}
	month, err := strconv.Atoi(strings.TrimSpace(mm))
	if err != nil || month < 1 || month > 12 {
		return nil, nil
	}
	year, err := strconv.Atoi(strings.TrimSpace(yy))
	if err != nil {
		return nil, nil
	}
	if year < 100 {
		year += 2000
	}
	return &month, &year
}

// decodeObject parses raw JSON into a generic object, treating absent or
// malformed payloads as empty.
func decodeObject(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj
}

func objectField(obj map[string]any, key string) map[string]any {
	nested, _ := obj[key].(map[string]any)
	return nested
}

func stringField(obj map[string]any, key string) *string {
	s, ok := obj[key].(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

// floatField coerces a numeric or numeric-string value to a float; anything
// else is nil, never an error.
func floatField(obj map[string]any, key string) *float64 {
	switch v := obj[key].(type) {
	case float64:
		return &v
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func rawOrNil(raw json.RawMessage) []byte {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}
