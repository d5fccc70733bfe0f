package marketplace

import (
	"fmt"
	"time"

	"github.com/tulepito/pito-cloud-canteen-sub003/internal/domain"
)

// The backend returns entities in a normalized form: a data resource
// whose relationships reference resources carried in an included set.
// Everything below flattens that form into plain nested structs.

type resourceRef struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type relationship struct {
	Data *resourceRef `json:"data"`
}

type resource struct {
	ID            string                  `json:"id"`
	Type          string                  `json:"type"`
	Attributes    map[string]interface{}  `json:"attributes"`
	Relationships map[string]relationship `json:"relationships"`
}

type apiResponse struct {
	Data     resource   `json:"data"`
	Included []resource `json:"included"`
}

type apiListResponse struct {
	Data     []resource `json:"data"`
	Included []resource `json:"included"`
}

func (r *apiResponse) resolve(ref *resourceRef) (*resource, error) {
	if ref == nil {
		return nil, nil
	}
	for i := range r.Included {
		if r.Included[i].ID == ref.ID && r.Included[i].Type == ref.Type {
			return &r.Included[i], nil
		}
	}
	return nil, fmt.Errorf("included %s %s: %w", ref.Type, ref.ID, domain.ErrNotFound)
}

func denormalizeListing(res *resource) *Listing {
	return &Listing{
		ID:         res.ID,
		Title:      getString(res.Attributes, "title"),
		PublicData: getMap(res.Attributes, "publicData"),
		Metadata:   getMap(res.Attributes, "metadata"),
	}
}

func denormalizeUser(res *resource) *User {
	user := &User{
		ID:       res.ID,
		Email:    getString(res.Attributes, "email"),
		Metadata: getMap(res.Attributes, "metadata"),
	}
	if profile := getMap(res.Attributes, "profile"); profile != nil {
		user.DisplayName = getString(profile, "displayName")
	}
	return user
}

func denormalizeBooking(res *resource) (*Booking, error) {
	booking := &Booking{}
	var err error
	if booking.Start, err = getTime(res.Attributes, "start"); err != nil {
		return nil, err
	}
	if booking.End, err = getTime(res.Attributes, "end"); err != nil {
		return nil, err
	}
	if booking.DisplayStart, err = getTime(res.Attributes, "displayStart"); err != nil {
		return nil, err
	}
	if booking.DisplayEnd, err = getTime(res.Attributes, "displayEnd"); err != nil {
		return nil, err
	}
	return booking, nil
}

func denormalizeTransaction(rsp *apiResponse) (*Transaction, error) {
	res := rsp.Data
	if res.Type != "transaction" {
		return nil, fmt.Errorf("expected transaction resource, got %q", res.Type)
	}

	tx := &Transaction{
		ID:             res.ID,
		LastTransition: domain.Transition(getString(res.Attributes, "lastTransition")),
		Metadata:       getMap(res.Attributes, "metadata"),
		ProtectedData:  getMap(res.Attributes, "protectedData"),
	}

	if rel, ok := res.Relationships["booking"]; ok && rel.Data != nil {
		included, err := rsp.resolve(rel.Data)
		if err != nil {
			return nil, err
		}
		if tx.Booking, err = denormalizeBooking(included); err != nil {
			return nil, fmt.Errorf("failed to denormalize booking: %w", err)
		}
	}

	if rel, ok := res.Relationships["listing"]; ok && rel.Data != nil {
		included, err := rsp.resolve(rel.Data)
		if err != nil {
			return nil, err
		}
		tx.Listing = denormalizeListing(included)
	}

	if rel, ok := res.Relationships["provider"]; ok && rel.Data != nil {
		included, err := rsp.resolve(rel.Data)
		if err != nil {
			return nil, err
		}
		tx.Provider = denormalizeUser(included)
	}

	if rel, ok := res.Relationships["customer"]; ok && rel.Data != nil {
		included, err := rsp.resolve(rel.Data)
		if err != nil {
			return nil, err
		}
		tx.Customer = denormalizeUser(included)
	}

	return tx, nil
}

func getString(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if m == nil {
		return nil
	}
	nested, _ := m[key].(map[string]interface{})
	return nested
}

func getTime(m map[string]interface{}, key string) (time.Time, error) {
	raw := getString(m, key)
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing timestamp attribute %q", key)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %q: %w", key, err)
	}
	return t, nil
}
