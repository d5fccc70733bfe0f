package marketplace

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/tulepito/pito-cloud-canteen-sub003/internal/domain"
)

const transactionJSON = `{
	"data": {
		"id": "tx-1",
		"type": "transaction",
		"attributes": {
			"lastTransition": "partner-confirm-sub-order",
			"metadata": {
				"orderId": "order-1",
				"participantIds": ["m1", "m2"],
				"anonymousIds": ["a1"]
			}
		},
		"relationships": {
			"booking": {"data": {"id": "bk-1", "type": "booking"}},
			"listing": {"data": {"id": "ls-1", "type": "listing"}},
			"provider": {"data": {"id": "u-1", "type": "user"}}
		}
	},
	"included": [
		{
			"id": "bk-1",
			"type": "booking",
			"attributes": {
				"start": "2025-09-15T04:00:00Z",
				"end": "2025-09-15T05:00:00Z",
				"displayStart": "2025-09-15T04:30:00Z",
				"displayEnd": "2025-09-15T05:00:00Z"
			}
		},
		{
			"id": "ls-1",
			"type": "listing",
			"attributes": {
				"title": "Quan An Ngon",
				"publicData": {"vat": "noExportVat"}
			}
		},
		{
			"id": "u-1",
			"type": "user",
			"attributes": {
				"email": "partner@example.com",
				"profile": {"displayName": "Quan An Ngon"}
			}
		}
	]
}`

func TestDenormalizeTransaction(t *testing.T) {
	var rsp apiResponse
	if err := json.Unmarshal([]byte(transactionJSON), &rsp); err != nil {
		t.Fatalf("failed to unmarshal fixture: %v", err)
	}

	tx, err := denormalizeTransaction(&rsp)
	if err != nil {
		t.Fatalf("denormalizeTransaction failed: %v", err)
	}

	if tx.ID != "tx-1" {
		t.Errorf("ID = %q, expected tx-1", tx.ID)
	}
	if tx.LastTransition != domain.TransitionPartnerConfirmSubOrder {
		t.Errorf("LastTransition = %q, expected partner-confirm-sub-order", tx.LastTransition)
	}
	if tx.OrderID() != "order-1" {
		t.Errorf("OrderID() = %q, expected order-1", tx.OrderID())
	}
	if got := tx.ParticipantIDs(); len(got) != 2 || got[0] != "m1" || got[1] != "m2" {
		t.Errorf("ParticipantIDs() = %v, expected [m1 m2]", got)
	}
	if got := tx.AnonymousIDs(); len(got) != 1 || got[0] != "a1" {
		t.Errorf("AnonymousIDs() = %v, expected [a1]", got)
	}
	if tx.Booking == nil || tx.Booking.DisplayStart.IsZero() {
		t.Fatal("expected booking to be expanded")
	}
	if tx.Listing == nil || tx.Listing.Title != "Quan An Ngon" {
		t.Errorf("expected listing title Quan An Ngon, got %+v", tx.Listing)
	}
	if tx.Provider == nil || tx.Provider.DisplayName != "Quan An Ngon" {
		t.Errorf("expected provider display name, got %+v", tx.Provider)
	}
}

func TestDenormalizeTransaction_MissingInclude(t *testing.T) {
	var rsp apiResponse
	if err := json.Unmarshal([]byte(transactionJSON), &rsp); err != nil {
		t.Fatalf("failed to unmarshal fixture: %v", err)
	}
	rsp.Included = rsp.Included[:1] // drop listing and provider

	_, err := denormalizeTransaction(&rsp)
	if err == nil {
		t.Fatal("expected error for dangling relationship")
	}
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
