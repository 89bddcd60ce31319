package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// NotificationType enumerates the kinds of notification the server pushes.
type NotificationType string

const (
	// NotificationRequest carries a pending achievement request that a
	// commissioner can approve or reject.
	NotificationRequest NotificationType = "request"

	// NotificationCompleted announces an achievement a team completed.
	NotificationCompleted NotificationType = "completed"

	// NotificationApproved reports that a request was approved.
	NotificationApproved NotificationType = "approved"

	// NotificationRejected reports that a request was rejected.
	NotificationRejected NotificationType = "rejected"

	// NotificationGeneric is a plain announcement, optionally with a link.
	NotificationGeneric NotificationType = "generic"
)

// Payload is the type-specific content of a notification. Each
// notification type carries exactly one payload variant.
type Payload interface {
	payloadType() NotificationType
}

// RequestPayload accompanies NotificationRequest.
type RequestPayload struct {
	// RequestID identifies the achievement request to approve or reject.
	RequestID int64 `json:"requestId"`

	// TeamName is the requesting team.
	TeamName string `json:"teamName"`

	// Achievement is the name of the requested achievement.
	Achievement string `json:"achievement"`
}

// CompletedPayload accompanies NotificationCompleted.
type CompletedPayload struct {
	TeamName    string `json:"teamName"`
	Achievement string `json:"achievement"`
}

// DecisionPayload accompanies NotificationApproved and NotificationRejected.
type DecisionPayload struct {
	RequestID int64 `json:"requestId"`

	// Note is the reviewer's comment, if any.
	Note string `json:"note,omitempty"`
}

// LinkPayload accompanies NotificationGeneric.
type LinkPayload struct {
	// URL is an optional link to open for more detail.
	URL string `json:"url,omitempty"`
}

func (RequestPayload) payloadType() NotificationType   { return NotificationRequest }
func (CompletedPayload) payloadType() NotificationType { return NotificationCompleted }
func (DecisionPayload) payloadType() NotificationType  { return NotificationApproved }
func (LinkPayload) payloadType() NotificationType      { return NotificationGeneric }

// Notification is a server-pushed user-facing event. The read flag only
// ever transitions unread to read.
type Notification struct {
	// ID is the server-side notification identifier.
	ID string `json:"id"`

	// Type selects which payload variant Data holds.
	Type NotificationType `json:"type"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read"`

	// Data is the typed payload for this notification's type. Nil when
	// the type carries no extra content.
	Data Payload `json:"-"`

	// CreatedAt is when the notification was generated server-side.
	CreatedAt time.Time `json:"created_at"`
}

// notificationJSON is the wire form with the payload still raw.
type notificationJSON struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	Data      json.RawMessage  `json:"data,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// UnmarshalJSON decodes a notification, selecting the payload variant
// from the type field. Unknown types decode as generic so a newer
// server cannot break an older client.
func (n *Notification) UnmarshalJSON(b []byte) error {
	var raw notificationJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decoding notification: %w", err)
	}

	n.ID = raw.ID
	n.Type = raw.Type
	n.Message = raw.Message
	n.Read = raw.Read
	n.CreatedAt = raw.CreatedAt

	data, err := DecodePayload(raw.Type, raw.Data)
	if err != nil {
		return err
	}
	n.Data = data
	return nil
}

// MarshalJSON encodes the notification with its payload inlined under data.
func (n Notification) MarshalJSON() ([]byte, error) {
	raw := notificationJSON{
		ID:        n.ID,
		Type:      n.Type,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
	if n.Data != nil {
		data, err := json.Marshal(n.Data)
		if err != nil {
			return nil, fmt.Errorf("encoding notification payload: %w", err)
		}
		raw.Data = data
	}
	return json.Marshal(raw)
}

// DecodePayload decodes the raw payload bytes for the given type.
// An empty payload yields nil.
func DecodePayload(t NotificationType, raw []byte) (Payload, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var (
		p   Payload
		err error
	)
	switch t {
	case NotificationRequest:
		var v RequestPayload
		err = json.Unmarshal(raw, &v)
		p = v
	case NotificationCompleted:
		var v CompletedPayload
		err = json.Unmarshal(raw, &v)
		p = v
	case NotificationApproved, NotificationRejected:
		var v DecisionPayload
		err = json.Unmarshal(raw, &v)
		p = v
	default:
		var v LinkPayload
		err = json.Unmarshal(raw, &v)
		p = v
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", t, err)
	}
	return p, nil
}
