package store

import (
	"context"

	"github.com/kmorse/huddle/internal/model"
)

// Store defines the local persistence interface: a cache of server
// state (notifications, standings, games) plus a small key-value area
// for durable session values.
type Store interface {
	// === Notifications ===

	ReplaceNotifications(ctx context.Context, ns []model.Notification) error
	GetNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id string) error
	UnreadNotificationCount(ctx context.Context) (int, error)

	// === Standings snapshot ===

	ReplaceStandings(ctx context.Context, year int, rows []model.StandingsRow) error
	GetStandings(ctx context.Context, year int) ([]model.StandingsRow, error)

	// === Schedule snapshot ===

	ReplaceGames(ctx context.Context, year int, games []model.Game) error
	GetGames(ctx context.Context, year int) ([]model.Game, error)

	// === Key-value session state ===

	GetValue(ctx context.Context, key string) (string, bool, error)
	SetValue(ctx context.Context, key, value string) error
	DeleteValues(ctx context.Context, keys ...string) error
}
