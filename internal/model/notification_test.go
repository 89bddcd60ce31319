package model

import (
	"encoding/json"
	"testing"
)

func TestUnmarshalRequestNotification(t *testing.T) {
	raw := `{
		"id": "n1",
		"type": "request",
		"message": "Georgia requests: Perfect Season",
		"read": false,
		"data": {"requestId": 42, "teamName": "Georgia", "achievement": "Perfect Season"},
		"created_at": "2023-11-04T19:30:00Z"
	}`

	var n Notification
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if n.Type != NotificationRequest {
		t.Errorf("want request type, got %s", n.Type)
	}
	req, ok := n.Data.(RequestPayload)
	if !ok {
		t.Fatalf("want RequestPayload, got %T", n.Data)
	}
	if req.RequestID != 42 || req.TeamName != "Georgia" || req.Achievement != "Perfect Season" {
		t.Errorf("payload fields wrong: %+v", req)
	}
}

func TestUnmarshalDecisionNotifications(t *testing.T) {
	for _, typ := range []NotificationType{NotificationApproved, NotificationRejected} {
		raw := `{"id":"n2","type":"` + string(typ) + `","message":"decided","data":{"requestId":7,"note":"gg"}}`

		var n Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			t.Fatalf("%s: unmarshal: %v", typ, err)
		}
		dec, ok := n.Data.(DecisionPayload)
		if !ok {
			t.Fatalf("%s: want DecisionPayload, got %T", typ, n.Data)
		}
		if dec.RequestID != 7 || dec.Note != "gg" {
			t.Errorf("%s: payload wrong: %+v", typ, dec)
		}
	}
}

func TestUnmarshalUnknownTypeFallsBackToGeneric(t *testing.T) {
	raw := `{"id":"n3","type":"season_recap","message":"check this out","data":{"url":"https://example.com/recap"}}`

	var n Notification
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	link, ok := n.Data.(LinkPayload)
	if !ok {
		t.Fatalf("unknown type must decode as LinkPayload, got %T", n.Data)
	}
	if link.URL != "https://example.com/recap" {
		t.Errorf("link wrong: %+v", link)
	}
}

func TestUnmarshalWithoutPayload(t *testing.T) {
	raw := `{"id":"n4","type":"completed","message":"done"}`

	var n Notification
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if n.Data != nil {
		t.Errorf("missing data must decode as nil payload, got %+v", n.Data)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	orig := Notification{
		ID:      "n5",
		Type:    NotificationCompleted,
		Message: "Georgia completed: Undefeated Regular Season",
		Data: CompletedPayload{
			TeamName:    "Georgia",
			Achievement: "Undefeated Regular Season",
		},
	}

	raw, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got Notification
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	comp, ok := got.Data.(CompletedPayload)
	if !ok {
		t.Fatalf("want CompletedPayload, got %T", got.Data)
	}
	if comp != orig.Data.(CompletedPayload) {
		t.Errorf("payload changed in round trip: %+v", comp)
	}
}

func TestUserRoles(t *testing.T) {
	commissioner := User{Roles: []string{RoleUser, RoleCommissioner}}
	if !commissioner.IsCommissioner() {
		t.Error("user with commissioner role must report it")
	}

	plain := User{Roles: []string{RoleUser}}
	if plain.IsCommissioner() {
		t.Error("plain user must not report the commissioner role")
	}
}
