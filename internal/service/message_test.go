package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.verifiedUser("alice", "alice@x.io")
	bob := f.verifiedUser("bob", "bob@x.io")

	msg, err := f.messages.SendMessage(ctx, alice.ID, bob.ID, "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, alice.ID, msg.Sender)
	assert.Equal(t, bob.ID, msg.Receiver)
	assert.Equal(t, time.UTC, msg.Timestamp.Location())
	assert.Len(t, f.db.messages, 1)
}

func TestSendMessage_Errors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.verifiedUser("alice", "alice@x.io")

	_, err := f.messages.SendMessage(ctx, alice.ID, alice.ID, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.messages.SendMessage(ctx, alice.ID, "", "hi")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.messages.SendMessage(ctx, alice.ID, "ghost", "hi")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "Sender or Receiver not found", err.Error())

	_, err = f.messages.SendMessage(ctx, "ghost", alice.ID, "hi")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Empty(t, f.db.messages)
}

func TestSendMessage_StoreFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.verifiedUser("alice", "alice@x.io")

	f.db.failNext = errors.New("disk full")
	_, err := f.messages.SendMessage(ctx, alice.ID, alice.ID, "hi")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGetHistory_OrderedBothDirections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.verifiedUser("alice", "alice@x.io")
	bob := f.verifiedUser("bob", "bob@x.io")

	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	tick := 0
	f.messages.nowFunc = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for i, pair := range [][2]string{{alice.ID, bob.ID}, {bob.ID, alice.ID}, {alice.ID, bob.ID}} {
		_, err := f.messages.SendMessage(ctx, pair[0], pair[1], "m"+strconv.Itoa(i))
		require.NoError(t, err)
	}

	history, err := f.messages.GetHistory(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i-1].Timestamp.Before(history[i].Timestamp))
	}
	assert.Equal(t, "m0", history[0].Text)
}

func TestGetHistory_CacheHitAndInvalidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.verifiedUser("alice", "alice@x.io")
	bob := f.verifiedUser("bob", "bob@x.io")

	_, err := f.messages.SendMessage(ctx, alice.ID, bob.ID, "one")
	require.NoError(t, err)

	_, err = f.messages.GetHistory(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	history, err := f.messages.GetHistory(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, 1, f.cache.hits)

	_, err = f.messages.SendMessage(ctx, bob.ID, alice.ID, "two")
	require.NoError(t, err)

	history, err = f.messages.GetHistory(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestGetHistory_EmptyIsNotNil(t *testing.T) {
	f := newFixture()

	history, err := f.messages.GetHistory(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestGetHistory_LoadRacingWithInvalidationIsNotCached(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.verifiedUser("alice", "alice@x.io")
	bob := f.verifiedUser("bob", "bob@x.io")

	_, err := f.friends.AddFriend(ctx, alice.ID, bob.FriendCode)
	require.NoError(t, err)
	_, err = f.messages.SendMessage(ctx, alice.ID, bob.ID, "hi")
	require.NoError(t, err)

	// the friend is removed between the history load and the cache write
	f.db.afterFind = func() {
		require.NoError(t, f.friends.RemoveFriend(ctx, alice.ID, bob.ID))
	}

	history, err := f.messages.GetHistory(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	history, err = f.messages.GetHistory(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Zero(t, f.cache.hits)
}
