// Package notify implements the notification center: listing recent
// notifications, read/delete mutations, and commissioner review of
// achievement requests. Every mutation goes to the server first; the
// local cache only changes once the server confirms, so a failed call
// leaves the visible state untouched.
package notify

import (
	"context"
	"fmt"

	"github.com/kmorse/huddle/internal/api"
	"github.com/kmorse/huddle/internal/model"
	"github.com/kmorse/huddle/internal/session"
	"github.com/kmorse/huddle/internal/store"
)

// Service coordinates notification state between the server and the
// local cache.
type Service struct {
	client  *api.Client
	store   store.Store
	session *session.Store
}

// NewService creates a notification service.
func NewService(client *api.Client, st store.Store, sess *session.Store) *Service {
	return &Service{
		client:  client,
		store:   st,
		session: sess,
	}
}

// Refresh pulls the server's notification set and replaces the local
// cache with it.
func (s *Service) Refresh(ctx context.Context) ([]model.Notification, error) {
	ns, err := s.client.Notifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("notify.Refresh: %w", err)
	}
	if err := s.store.ReplaceNotifications(ctx, ns); err != nil {
		return nil, fmt.Errorf("notify.Refresh: %w", err)
	}
	return ns, nil
}

// List returns the cached notifications, newest first.
func (s *Service) List(ctx context.Context) ([]model.Notification, error) {
	return s.store.GetNotifications(ctx)
}

// UnreadCount returns the derived unread count. It is never stored;
// it is always counted from the read flags.
func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	return s.store.UnreadNotificationCount(ctx)
}

// MarkAsRead marks one notification as read, server first. Marking an
// already-read notification is a no-op on both sides.
func (s *Service) MarkAsRead(ctx context.Context, id string) error {
	if err := s.client.MarkNotificationRead(ctx, id); err != nil {
		return fmt.Errorf("notify.MarkAsRead: %w", err)
	}
	if err := s.store.MarkNotificationRead(ctx, id); err != nil {
		return fmt.Errorf("notify.MarkAsRead: %w", err)
	}
	return nil
}

// MarkAllAsRead marks every notification as read. Idempotent: a second
// call changes nothing.
func (s *Service) MarkAllAsRead(ctx context.Context) error {
	if err := s.client.MarkAllNotificationsRead(ctx); err != nil {
		return fmt.Errorf("notify.MarkAllAsRead: %w", err)
	}
	if err := s.store.MarkAllNotificationsRead(ctx); err != nil {
		return fmt.Errorf("notify.MarkAllAsRead: %w", err)
	}
	return nil
}

// Delete removes a notification, server first.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.client.DeleteNotification(ctx, id); err != nil {
		return fmt.Errorf("notify.Delete: %w", err)
	}
	if err := s.store.DeleteNotification(ctx, id); err != nil {
		return fmt.Errorf("notify.Delete: %w", err)
	}
	return nil
}

// Approve approves the achievement request carried by a request
// notification. Requires the commissioner role; checked locally before
// the server is asked, so an unprivileged session fails fast with an
// authorization error.
func (s *Service) Approve(ctx context.Context, n model.Notification, note string) error {
	req, err := s.requestPayload(n)
	if err != nil {
		return err
	}
	if err := s.client.ApproveAchievementRequest(ctx, req.RequestID, note); err != nil {
		return fmt.Errorf("notify.Approve: %w", err)
	}
	if err := s.store.MarkNotificationRead(ctx, n.ID); err != nil {
		return fmt.Errorf("notify.Approve: %w", err)
	}
	return nil
}

// Reject rejects the achievement request carried by a request
// notification. Requires the commissioner role.
func (s *Service) Reject(ctx context.Context, n model.Notification, note string) error {
	req, err := s.requestPayload(n)
	if err != nil {
		return err
	}
	if err := s.client.RejectAchievementRequest(ctx, req.RequestID, note); err != nil {
		return fmt.Errorf("notify.Reject: %w", err)
	}
	if err := s.store.MarkNotificationRead(ctx, n.ID); err != nil {
		return fmt.Errorf("notify.Reject: %w", err)
	}
	return nil
}

// requestPayload validates that the notification carries a reviewable
// request and that the session may review it.
func (s *Service) requestPayload(n model.Notification) (model.RequestPayload, error) {
	sess, ok := s.session.Current()
	if !ok {
		return model.RequestPayload{}, session.ErrNoSession
	}
	if !sess.User.IsCommissioner() {
		return model.RequestPayload{}, &api.AuthorizationError{
			Message: "reviewing achievement requests requires the commissioner role",
		}
	}
	req, ok := n.Data.(model.RequestPayload)
	if !ok {
		return model.RequestPayload{}, &api.ValidationError{
			Message: fmt.Sprintf("notification %s carries no reviewable request", n.ID),
		}
	}
	return req, nil
}
