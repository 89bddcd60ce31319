package notifview

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kmorse/huddle/internal/keys"
	"github.com/kmorse/huddle/internal/model"
)

func newTestModel() Model {
	return New(nil, keys.DefaultKeyMap(), 100, 24)
}

func testItems() []model.Notification {
	created := time.Date(2024, 11, 2, 15, 30, 0, 0, time.UTC)
	return []model.Notification{
		{
			ID:        "n-1",
			Type:      model.NotificationRequest,
			Message:   "Coach Smart requested a new achievement",
			Read:      false,
			CreatedAt: created,
			Data:      model.RequestPayload{RequestID: 42},
		},
		{
			ID:        "n-2",
			Type:      model.NotificationApproved,
			Message:   "Your achievement request was approved",
			Read:      true,
			CreatedAt: created.Add(-time.Hour),
		},
	}
}

func TestListRendersItemsWithBadges(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(ListLoadedMsg{Items: testItems()})

	view := m.View()
	if !strings.Contains(view, "Coach Smart requested") {
		t.Errorf("expected request message in view, got:\n%s", view)
	}
	if !strings.Contains(view, "[REQ]") {
		t.Errorf("expected [REQ] badge, got:\n%s", view)
	}
	if !strings.Contains(view, "[APR]") {
		t.Errorf("expected [APR] badge, got:\n%s", view)
	}
}

func TestUnreadMarkerOnlyOnUnread(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(ListLoadedMsg{Items: testItems()})

	view := m.View()
	if got := strings.Count(view, "●"); got != 1 {
		t.Errorf("want exactly 1 unread marker, got %d in:\n%s", got, view)
	}
}

func TestEmptyListShowsPlaceholder(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(ListLoadedMsg{Items: nil})

	view := m.View()
	if !strings.Contains(view, "No notifications.") {
		t.Errorf("expected empty placeholder, got:\n%s", view)
	}
}

func TestLoadErrorRendersBanner(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(ListLoadedMsg{Err: errors.New("db locked")})

	view := m.View()
	if !strings.Contains(view, "notifications unavailable") {
		t.Errorf("expected error banner, got:\n%s", view)
	}
}

func TestRefreshErrorKeepsItemsWithStaleBanner(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(ListLoadedMsg{Items: testItems()})
	m.SetRefreshError(errors.New("server unreachable"))

	view := m.View()
	if !strings.Contains(view, "refresh failed") {
		t.Errorf("expected stale banner, got:\n%s", view)
	}
	if !strings.Contains(view, "Coach Smart requested") {
		t.Errorf("cached items must stay visible, got:\n%s", view)
	}
}

func TestActionErrorShowsNotice(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(ListLoadedMsg{Items: testItems()})
	m, cmd := m.Update(ActionDoneMsg{Err: errors.New("mark read failed")})

	if cmd != nil {
		t.Error("failed action must not trigger a reload")
	}
	if !strings.Contains(m.View(), "mark read failed") {
		t.Errorf("expected failure notice, got:\n%s", m.View())
	}
}

func TestActionSuccessReloadsList(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(ListLoadedMsg{Items: testItems()})
	m, cmd := m.Update(ActionDoneMsg{Info: "marked read"})

	if cmd == nil {
		t.Error("successful action must reload the list")
	}
	if !strings.Contains(m.View(), "marked read") {
		t.Errorf("expected success notice, got:\n%s", m.View())
	}
}

func TestSelectedFollowsCursor(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(ListLoadedMsg{Items: testItems()})

	n, ok := m.Selected()
	if !ok || n.ID != "n-1" {
		t.Fatalf("want first item selected, got %v %v", n.ID, ok)
	}

	m.cursor = 1
	n, _ = m.Selected()
	if n.ID != "n-2" {
		t.Errorf("want n-2 after moving cursor, got %s", n.ID)
	}

	m.cursor = 5
	if _, ok := m.Selected(); ok {
		t.Error("out-of-range cursor must report no selection")
	}
}
