package marketplace

import (
	"context"
	"time"

	"github.com/tulepito/pito-cloud-canteen-sub003/internal/domain"
)

// Listing is a denormalized marketplace listing. Orders, plans and
// provider restaurants all live as listings whose metadata carries the
// domain payload.
type Listing struct {
	ID         string
	Title      string
	PublicData map[string]interface{}
	Metadata   map[string]interface{}
}

// Booking is a transaction's booking window.
type Booking struct {
	Start        time.Time
	End          time.Time
	DisplayStart time.Time
	DisplayEnd   time.Time
}

// User is a denormalized marketplace user.
type User struct {
	ID          string
	DisplayName string
	Email       string
	Metadata    map[string]interface{}
}

// Transaction is a denormalized marketplace transaction with its
// expanded associations, when requested via include.
type Transaction struct {
	ID             string
	LastTransition domain.Transition
	Metadata       map[string]interface{}
	ProtectedData  map[string]interface{}
	Booking        *Booking
	Listing        *Listing
	Provider       *User
	Customer       *User
}

// OrderID reads the parent order id the transaction was tagged with at
// initiation time.
func (t *Transaction) OrderID() string {
	if t.Metadata == nil {
		return ""
	}
	id, _ := t.Metadata["orderId"].(string)
	return id
}

// ParticipantIDs reads the registered participant ids recorded on the
// transaction.
func (t *Transaction) ParticipantIDs() []string {
	return stringSlice(t.Metadata, "participantIds")
}

// AnonymousIDs reads the anonymous participant ids recorded on the
// transaction.
func (t *Transaction) AnonymousIDs() []string {
	return stringSlice(t.Metadata, "anonymousIds")
}

func stringSlice(m map[string]interface{}, key string) []string {
	raw, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// InitiateParams describes one transaction to create on the backend.
type InitiateParams struct {
	ListingID     string
	BookingStart  time.Time
	BookingEnd    time.Time
	DisplayStart  time.Time
	DisplayEnd    time.Time
	Metadata      map[string]interface{}
	ProtectedData map[string]interface{}
	AccessToken   string
}

// Client is the marketplace backend capability. Implementations talk
// to the external transaction/listing store; tests substitute fakes.
type Client interface {
	ShowListing(ctx context.Context, id string) (*Listing, error)
	UpdateListingMetadata(ctx context.Context, id string, metadata map[string]interface{}) (*Listing, error)
	QueryListings(ctx context.Context, filter map[string]string) ([]*Listing, error)
	ShowTransaction(ctx context.Context, id string, include []string) (*Transaction, error)
	TransitionTransaction(ctx context.Context, id string, transition domain.Transition, params map[string]interface{}, include []string) (*Transaction, error)
	InitiateTransaction(ctx context.Context, params InitiateParams) (*Transaction, error)
	ShowUser(ctx context.Context, id string) (*User, error)
	UpdateUserProfile(ctx context.Context, id string, metadata map[string]interface{}) (*User, error)
}

// TokenExchanger swaps an operator credential for a delegated token
// acting on behalf of a sub-account.
type TokenExchanger interface {
	ExchangeToken(ctx context.Context, subAccountID string) (string, error)
}
