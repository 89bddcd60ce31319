package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/kmorse/huddle/internal/model"
	"github.com/kmorse/huddle/tests/testutil"
)

func TestReplaceStandingsKeepsServerOrder(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	rows := []model.StandingsRow{
		{TeamID: 3, TeamName: "Michigan", Conference: "Big Ten", Wins: 11, Losses: 1, Rank: 1},
		{TeamID: 1, TeamName: "Georgia", Conference: "SEC", Wins: 10, Losses: 2, Rank: 2},
		{TeamID: 2, TeamName: "Alabama", Conference: "SEC", Wins: 9, Losses: 3, Rank: 3},
	}
	if err := s.ReplaceStandings(ctx, 2023, rows); err != nil {
		t.Fatalf("ReplaceStandings: %v", err)
	}

	got, err := s.GetStandings(ctx, 2023)
	if err != nil {
		t.Fatalf("GetStandings: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want 3 rows, got %d", len(got))
	}
	for i, want := range []string{"Michigan", "Georgia", "Alabama"} {
		if got[i].TeamName != want {
			t.Errorf("row %d: want %s, got %s", i, want, got[i].TeamName)
		}
	}
	if got[0].Year != 2023 {
		t.Errorf("year must be restored on read, got %d", got[0].Year)
	}
}

func TestReplaceStandingsIsScopedToYear(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	old := []model.StandingsRow{{TeamID: 1, TeamName: "Georgia", Wins: 11}}
	if err := s.ReplaceStandings(ctx, 2022, old); err != nil {
		t.Fatalf("ReplaceStandings 2022: %v", err)
	}
	current := []model.StandingsRow{{TeamID: 1, TeamName: "Georgia", Wins: 4}}
	if err := s.ReplaceStandings(ctx, 2023, current); err != nil {
		t.Fatalf("ReplaceStandings 2023: %v", err)
	}

	got2022, _ := s.GetStandings(ctx, 2022)
	if len(got2022) != 1 || got2022[0].Wins != 11 {
		t.Errorf("replacing one season must not touch another: %+v", got2022)
	}
}

func TestNotificationRoundTripWithPayload(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	created := time.Date(2023, 11, 4, 19, 30, 0, 0, time.UTC)
	ns := []model.Notification{
		{
			ID:      "n1",
			Type:    model.NotificationRequest,
			Message: "Georgia requests: Perfect Season",
			Data: model.RequestPayload{
				RequestID:   42,
				TeamName:    "Georgia",
				Achievement: "Perfect Season",
			},
			CreatedAt: created,
		},
		{
			ID:        "n2",
			Type:      model.NotificationGeneric,
			Message:   "welcome",
			Read:      true,
			CreatedAt: created.Add(time.Hour),
		},
	}
	if err := s.ReplaceNotifications(ctx, ns); err != nil {
		t.Fatalf("ReplaceNotifications: %v", err)
	}

	got, err := s.GetNotifications(ctx)
	if err != nil {
		t.Fatalf("GetNotifications: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 notifications, got %d", len(got))
	}
	// Newest first.
	if got[0].ID != "n2" || got[1].ID != "n1" {
		t.Errorf("want newest first, got %s then %s", got[0].ID, got[1].ID)
	}

	req, ok := got[1].Data.(model.RequestPayload)
	if !ok {
		t.Fatalf("payload must decode to RequestPayload, got %T", got[1].Data)
	}
	if req.RequestID != 42 || req.TeamName != "Georgia" {
		t.Errorf("payload fields lost: %+v", req)
	}
}

func TestUnreadCountIsDerived(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	ns := []model.Notification{
		{ID: "a", Type: model.NotificationGeneric, CreatedAt: time.Now().UTC()},
		{ID: "b", Type: model.NotificationGeneric, CreatedAt: time.Now().UTC()},
		{ID: "c", Type: model.NotificationGeneric, Read: true, CreatedAt: time.Now().UTC()},
	}
	if err := s.ReplaceNotifications(ctx, ns); err != nil {
		t.Fatalf("ReplaceNotifications: %v", err)
	}

	count, err := s.UnreadNotificationCount(ctx)
	if err != nil {
		t.Fatalf("UnreadNotificationCount: %v", err)
	}
	if count != 2 {
		t.Errorf("want 2 unread, got %d", count)
	}

	if err := s.MarkNotificationRead(ctx, "a"); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	count, _ = s.UnreadNotificationCount(ctx)
	if count != 1 {
		t.Errorf("after one read: want 1, got %d", count)
	}

	if err := s.MarkAllNotificationsRead(ctx); err != nil {
		t.Fatalf("MarkAllNotificationsRead: %v", err)
	}
	count, _ = s.UnreadNotificationCount(ctx)
	if count != 0 {
		t.Errorf("after mark-all: want 0, got %d", count)
	}
}

func TestDeleteNotification(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	ns := []model.Notification{
		{ID: "a", Type: model.NotificationGeneric, CreatedAt: time.Now().UTC()},
	}
	if err := s.ReplaceNotifications(ctx, ns); err != nil {
		t.Fatalf("ReplaceNotifications: %v", err)
	}
	if err := s.DeleteNotification(ctx, "a"); err != nil {
		t.Fatalf("DeleteNotification: %v", err)
	}

	got, _ := s.GetNotifications(ctx)
	if len(got) != 0 {
		t.Errorf("deleted notification still present: %+v", got)
	}

	// Deleting a missing ID is not an error.
	if err := s.DeleteNotification(ctx, "ghost"); err != nil {
		t.Errorf("deleting a missing notification: %v", err)
	}
}

func TestGamesRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	kickoff := time.Date(2023, 9, 2, 19, 0, 0, 0, time.UTC)
	games := []model.Game{
		{ID: 10, Year: 2023, Week: 2, HomeTeam: "Georgia", AwayTeam: "Auburn", Status: model.GameScheduled, KickoffAt: kickoff.Add(7 * 24 * time.Hour)},
		{ID: 11, Year: 2023, Week: 1, HomeTeam: "Alabama", AwayTeam: "LSU", Status: model.GameFinal, HomeScore: 31, AwayScore: 17, KickoffAt: kickoff},
	}
	if err := s.ReplaceGames(ctx, 2023, games); err != nil {
		t.Fatalf("ReplaceGames: %v", err)
	}

	got, err := s.GetGames(ctx, 2023)
	if err != nil {
		t.Fatalf("GetGames: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 games, got %d", len(got))
	}
	// Ordered by week.
	if got[0].ID != 11 || got[1].ID != 10 {
		t.Errorf("games must come back in week order: %d then %d", got[0].ID, got[1].ID)
	}
	if got[0].HomeScore != 31 || got[0].Status != model.GameFinal {
		t.Errorf("final game fields lost: %+v", got[0])
	}
}

func TestKVRoundTripAndDelete(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.GetValue(ctx, "user"); err != nil || ok {
		t.Fatalf("missing key: ok=%v err=%v", ok, err)
	}

	if err := s.SetValue(ctx, "user", `{"id":1}`); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if err := s.SetValue(ctx, "selected_team", `{"id":3}`); err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	v, ok, err := s.GetValue(ctx, "user")
	if err != nil || !ok || v != `{"id":1}` {
		t.Fatalf("GetValue: %q ok=%v err=%v", v, ok, err)
	}

	// Overwrite.
	if err := s.SetValue(ctx, "user", `{"id":2}`); err != nil {
		t.Fatalf("SetValue overwrite: %v", err)
	}
	v, _, _ = s.GetValue(ctx, "user")
	if v != `{"id":2}` {
		t.Errorf("overwrite lost: %q", v)
	}

	if err := s.DeleteValues(ctx, "user", "selected_team"); err != nil {
		t.Fatalf("DeleteValues: %v", err)
	}
	if _, ok, _ := s.GetValue(ctx, "user"); ok {
		t.Error("user key must be gone")
	}
	if _, ok, _ := s.GetValue(ctx, "selected_team"); ok {
		t.Error("selected_team key must be gone")
	}
}
