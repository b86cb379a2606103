package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"echoverse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRepository_Integration(t *testing.T) {
	repo := NewMessageRepository(testDB)
	ctx := context.Background()

	ts := time.Now().UnixNano()
	alice := &models.User{Username: fmt.Sprintf("m1_%d", ts), Email: fmt.Sprintf("m1_%d@e.com", ts)}
	bob := &models.User{Username: fmt.Sprintf("m2_%d", ts), Email: fmt.Sprintf("m2_%d@e.com", ts)}
	testDB.Create(alice)
	testDB.Create(bob)

	t.Run("Create and GetConversation ordering", func(t *testing.T) {
		first := &models.Message{SenderID: alice.ID, ReceiverID: bob.ID, Content: "hi bob"}
		require.NoError(t, repo.Create(ctx, first))

		second := &models.Message{SenderID: bob.ID, ReceiverID: alice.ID, Content: "hi alice"}
		require.NoError(t, repo.Create(ctx, second))

		msgs, err := repo.GetConversation(ctx, alice.ID, bob.ID, 50, 0)
		require.NoError(t, err)
		require.Len(t, msgs, 2)
		// Oldest first, both directions included.
		assert.Equal(t, "hi bob", msgs[0].Content)
		assert.Equal(t, "hi alice", msgs[1].Content)
		assert.Equal(t, alice.Username, msgs[0].Sender.Username)
	})

	t.Run("CountUnread and MarkConversationRead", func(t *testing.T) {
		unread, err := repo.CountUnread(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, unread)

		changed, err := repo.MarkConversationRead(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, changed)

		// Marking again is a no-op.
		changed, err = repo.MarkConversationRead(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.Zero(t, changed)

		// Bob's incoming message from Alice is untouched.
		unread, err = repo.CountUnread(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, unread)
	})

	t.Run("ListConversations returns latest message per peer", func(t *testing.T) {
		carol := &models.User{Username: fmt.Sprintf("m3_%d", ts), Email: fmt.Sprintf("m3_%d@e.com", ts)}
		testDB.Create(carol)

		require.NoError(t, repo.Create(ctx, &models.Message{SenderID: carol.ID, ReceiverID: alice.ID, Content: "hello from carol"}))
		require.NoError(t, repo.Create(ctx, &models.Message{SenderID: carol.ID, ReceiverID: alice.ID, Content: "newest from carol"}))

		convos, err := repo.ListConversations(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, convos, 2)

		// Most recent conversation first.
		assert.Equal(t, carol.ID, convos[0].Peer.ID)
		assert.Equal(t, "newest from carol", convos[0].LastMessage.Content)
		assert.EqualValues(t, 2, convos[0].UnreadCount)

		assert.Equal(t, bob.ID, convos[1].Peer.ID)
	})
}
