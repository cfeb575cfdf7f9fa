package mapper

import (
	"encoding/json"
	"testing"

	"user-sync-service/internal/client"
)

func TestMapUser_FullName(t *testing.T) {
	t.Run("first and last", func(t *testing.T) {
		u := MapUser(&client.UserRecord{ID: 1, FirstName: "Jane", LastName: "Doe"})
		if u.Name == nil || *u.Name != "Jane Doe" {
			t.Errorf("expected name 'Jane Doe', got %v", strOrNil(u.Name))
		}
	})

	t.Run("trims whitespace", func(t *testing.T) {
		u := MapUser(&client.UserRecord{ID: 1, FirstName: "  Jane ", LastName: ""})
		if u.Name == nil || *u.Name != "Jane" {
			t.Errorf("expected name 'Jane', got %v", strOrNil(u.Name))
		}
	})

	t.Run("both blank is nil not empty", func(t *testing.T) {
		u := MapUser(&client.UserRecord{ID: 1, FirstName: "  ", LastName: ""})
		if u.Name != nil {
			t.Errorf("expected nil name, got %q", *u.Name)
		}
	})
}

func TestMapUser_Fields(t *testing.T) {
	record := &client.UserRecord{
		ID:       99,
		Username: "jdoe",
		Email:    "jane@example.com",
		Phone:    "555-1234",
		Domain:   "example.com",
		Company:  json.RawMessage(`{"name":"Acme Inc"}`),
	}

	u := MapUser(record)
	if u.ExternalID != 99 {
		t.Errorf("expected external id 99, got %d", u.ExternalID)
	}
	if u.Website == nil || *u.Website != "example.com" {
		t.Errorf("expected website from domain, got %v", strOrNil(u.Website))
	}
	if u.CompanyName == nil || *u.CompanyName != "Acme Inc" {
		t.Errorf("expected company name 'Acme Inc', got %v", strOrNil(u.CompanyName))
	}
}

func TestMapUser_MissingCompany(t *testing.T) {
	u := MapUser(&client.UserRecord{ID: 1})
	if u.CompanyName != nil {
		t.Errorf("expected nil company name, got %q", *u.CompanyName)
	}
}

func TestMapAddress(t *testing.T) {
	record := &client.UserRecord{
		ID: 50,
		Address: json.RawMessage(`{
			"address": "5 Test St",
			"city": "Testville",
			"country": "Nowhere",
			"coordinates": {"lat": 1.23, "lng": 4.56}
		}`),
	}

	a := MapAddress(record)
	if a.Street == nil || *a.Street != "5 Test St" {
		t.Errorf("expected street '5 Test St', got %v", strOrNil(a.Street))
	}
	if a.City == nil || *a.City != "Testville" {
		t.Errorf("expected city 'Testville', got %v", strOrNil(a.City))
	}
	if a.Lat == nil || *a.Lat != 1.23 {
		t.Errorf("expected lat 1.23, got %v", a.Lat)
	}
	if a.Lng == nil || *a.Lng != 4.56 {
		t.Errorf("expected lng 4.56, got %v", a.Lng)
	}
	if a.StreetName != nil {
		t.Errorf("street_name has no provider source, got %q", *a.StreetName)
	}
	if len(a.RawJSON) == 0 {
		t.Error("expected raw payload to be retained")
	}
}

func TestMapAddress_CoordinateCoercion(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"non-numeric lat", `{"coordinates": {"lat": "abc", "lng": "xyz"}}`},
		{"missing coordinates", `{"city": "Testville"}`},
		{"null coordinates", `{"coordinates": null}`},
		{"malformed address", `"not an object"`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := MapAddress(&client.UserRecord{Address: json.RawMessage(tc.raw)})
			if a.Lat != nil || a.Lng != nil {
				t.Errorf("expected nil coordinates, got lat=%v lng=%v", a.Lat, a.Lng)
			}
		})
	}
}

func TestMapAddress_NumericStringCoordinates(t *testing.T) {
	a := MapAddress(&client.UserRecord{
		Address: json.RawMessage(`{"coordinates": {"lat": "1.5", "lng": "-2.5"}}`),
	})
	if a.Lat == nil || *a.Lat != 1.5 {
		t.Errorf("expected lat 1.5, got %v", a.Lat)
	}
	if a.Lng == nil || *a.Lng != -2.5 {
		t.Errorf("expected lng -2.5, got %v", a.Lng)
	}
}

func TestMapAddress_Absent(t *testing.T) {
	a := MapAddress(&client.UserRecord{ID: 1})
	if a.Street != nil || a.City != nil || a.State != nil || a.Country != nil || a.Zip != nil {
		t.Error("expected all address fields nil when address object absent")
	}
	if a.RawJSON != nil {
		t.Errorf("expected nil raw payload, got %s", a.RawJSON)
	}
}

func TestMapCreditCard(t *testing.T) {
	record := &client.UserRecord{
		Bank: json.RawMessage(`{"cardNumber": "1234 5678 9012 3456", "cardType": "Visa", "cardExpire": "05/27"}`),
	}

	c := MapCreditCard(record)
	if c.CCNumber == nil || *c.CCNumber != "1234 5678 9012 3456" {
		t.Errorf("card number stored unmasked, got %v", strOrNil(c.CCNumber))
	}
	if c.CCType == nil || *c.CCType != "Visa" {
		t.Errorf("expected card type 'Visa', got %v", strOrNil(c.CCType))
	}
	if c.ExpMonth == nil || *c.ExpMonth != 5 {
		t.Errorf("expected month 5, got %v", c.ExpMonth)
	}
	if c.ExpYear == nil || *c.ExpYear != 2027 {
		t.Errorf("expected year 2027, got %v", c.ExpYear)
	}
}

func TestParseExpiry(t *testing.T) {
	cases := []struct {
		name  string
		value string
		month int
		year  int
		null  bool
	}{
		{"two digit year", "11/28", 11, 2028, false},
		{"four digit year", "11/2028", 11, 2028, false},
		{"invalid month high", "13/2028", 0, 0, true},
		{"invalid month zero", "0/28", 0, 0, true},
		{"missing slash", "1128", 0, 0, true},
		{"non-numeric", "ab/cd", 0, 0, true},
		{"empty", "", 0, 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, _ := json.Marshal(map[string]string{"cardExpire": tc.value})
			c := MapCreditCard(&client.UserRecord{Bank: raw})
			if tc.null {
				if c.ExpMonth != nil || c.ExpYear != nil {
					t.Errorf("expected nil expiry, got month=%v year=%v", c.ExpMonth, c.ExpYear)
				}
				return
			}
			if c.ExpMonth == nil || *c.ExpMonth != tc.month {
				t.Errorf("expected month %d, got %v", tc.month, c.ExpMonth)
			}
			if c.ExpYear == nil || *c.ExpYear != tc.year {
				t.Errorf("expected year %d, got %v", tc.year, c.ExpYear)
			}
		})
	}
}

func TestMapCreditCard_MissingBank(t *testing.T) {
	c := MapCreditCard(&client.UserRecord{ID: 1})
	if c.CCNumber != nil || c.CCType != nil || c.ExpMonth != nil || c.ExpYear != nil {
		t.Error("expected all card fields nil when bank object absent")
	}
}

func strOrNil(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
