package server

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"echoverse/internal/models"
	"echoverse/internal/observability"
)

// Event type constants prevent typos in event names.
const (
	EventPostCreated            = "post_created"
	EventPostReactionUpdated    = "post_reaction_updated"
	EventCommentCreated         = "comment_created"
	EventCommentUpdated         = "comment_updated"
	EventCommentDeleted         = "comment_deleted"
	EventMessageReceived        = "message_received"
	EventMessagesRead           = "messages_read"
	EventFriendRequestReceived  = "friend_request_received"
	EventFriendRequestSent      = "friend_request_sent"
	EventFriendRequestAccepted  = "friend_request_accepted"
	EventFriendAdded            = "friend_added"
	EventFriendRequestRejected  = "friend_request_rejected"
	EventFriendRequestCancelled = "friend_request_cancelled"
	EventFriendRemoved          = "friend_removed"
	EventPresenceChanged        = "presence_changed"
)

func eventEnvelope(eventType string, payload map[string]interface{}) (string, bool) {
	event := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return "", false
	}
	return string(eventJSON), true
}

func (s *Server) publishUserEvent(userID uint, eventType string, payload map[string]interface{}) {
	message, ok := eventEnvelope(eventType, payload)
	if !ok {
		return
	}
	observability.WebSocketEventsTotal.WithLabelValues(eventType).Inc()
	if s.hub != nil {
		s.hub.Broadcast(userID, message)
	}
	if s.notifier != nil {
		if err := s.notifier.PublishUser(context.Background(), userID, message); err != nil {
			log.Printf("failed to publish %s event to user %d: %v", eventType, userID, err)
		}
	}
}

func (s *Server) publishBroadcastEvent(eventType string, payload map[string]interface{}) {
	message, ok := eventEnvelope(eventType, payload)
	if !ok {
		return
	}
	observability.WebSocketEventsTotal.WithLabelValues(eventType).Inc()
	if s.hub != nil {
		s.hub.BroadcastAll(message)
	}
	if s.notifier != nil {
		if err := s.notifier.PublishBroadcast(context.Background(), message); err != nil {
			log.Printf("failed to publish %s broadcast event: %v", eventType, err)
		}
	}
}

// onPresenceChanged persists the presence transition and tells everyone.
func (s *Server) onPresenceChanged(userID uint, online bool) {
	ctx := context.Background()
	if err := s.userRepo.SetPresence(ctx, userID, online, time.Now().UTC()); err != nil {
		log.Printf("failed to persist presence for user %d: %v", userID, err)
	}
	s.publishBroadcastEvent(EventPresenceChanged, map[string]interface{}{
		"user_id":   userID,
		"is_online": online,
	})
}

func userSummary(user models.User) models.UserSummary {
	return user.Summary()
}

func userSummaryPtr(user *models.User) *models.UserSummary {
	if user == nil {
		return nil
	}
	summary := user.Summary()
	return &summary
}
