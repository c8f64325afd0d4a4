package clerkwebhook

import (
	"encoding/json"
	"time"

	"github.com/localspot/localspot-backend/pkg/clerk"
)

const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// Event is the provider's webhook envelope. Data is kept raw because its
// shape depends on the event type.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// UserData is the user payload carried by lifecycle events. Deletion events
// carry only the id and the deleted marker.
type UserData struct {
	ID                    string               `json:"id"`
	FirstName             *string              `json:"first_name"`
	LastName              *string              `json:"last_name"`
	ImageURL              string               `json:"image_url"`
	EmailAddresses        []clerk.EmailAddress `json:"email_addresses"`
	PrimaryEmailAddressID string               `json:"primary_email_address_id"`
	PhoneNumbers          []PhoneNumber        `json:"phone_numbers"`
	PrimaryPhoneNumberID  string               `json:"primary_phone_number_id"`
	CreatedAt             int64                `json:"created_at"`
	Deleted               bool                 `json:"deleted"`
}

// PhoneNumber mirrors the provider's phone entry.
type PhoneNumber struct {
	ID           string             `json:"id"`
	PhoneNumber  string             `json:"phone_number"`
	Verification clerk.Verification `json:"verification"`
}

// primaryEmail picks the address flagged primary, falling back to the first.
func (d *UserData) primaryEmail() *clerk.EmailAddress {
	for i := range d.EmailAddresses {
		if d.EmailAddresses[i].ID == d.PrimaryEmailAddressID {
			return &d.EmailAddresses[i]
		}
	}
	if len(d.EmailAddresses) > 0 {
		return &d.EmailAddresses[0]
	}
	return nil
}

func (d *UserData) primaryPhone() *PhoneNumber {
	for i := range d.PhoneNumbers {
		if d.PhoneNumbers[i].ID == d.PrimaryPhoneNumberID {
			return &d.PhoneNumbers[i]
		}
	}
	if len(d.PhoneNumbers) > 0 {
		return &d.PhoneNumbers[0]
	}
	return nil
}

// createdTime converts the provider's millisecond epoch, defaulting to now
// when the payload omits it.
func (d *UserData) createdTime() time.Time {
	if d.CreatedAt <= 0 {
		return time.Now().UTC()
	}
	return time.UnixMilli(d.CreatedAt).UTC()
}
