package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddFriend(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.verifiedUser("alice", "alice@x.io")
	bob := f.verifiedUser("bob", "bob@x.io")

	friend, err := f.friends.AddFriend(ctx, alice.ID, bob.FriendCode)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, friend.ID)

	self, err := f.users.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID}, []string(self.Friends))

	// one-sided: bob's list is untouched
	other, err := f.users.GetUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, other.Friends)
}

func TestAddFriend_Errors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.verifiedUser("alice", "alice@x.io")
	bob := f.verifiedUser("bob", "bob@x.io")

	_, err := f.friends.AddFriend(ctx, alice.ID, " ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.friends.AddFriend(ctx, alice.ID, "nosuchcd")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.friends.AddFriend(ctx, "deleted-owner", bob.FriendCode)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddFriend_DuplicatesAreKeptAndAllRemoved(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.verifiedUser("alice", "alice@x.io")
	bob := f.verifiedUser("bob", "bob@x.io")
	carol := f.verifiedUser("carol", "carol@x.io")

	for _, code := range []string{bob.FriendCode, carol.FriendCode, bob.FriendCode} {
		_, err := f.friends.AddFriend(ctx, alice.ID, code)
		require.NoError(t, err)
	}

	self, _ := f.users.GetUser(ctx, alice.ID)
	assert.Equal(t, []string{bob.ID, carol.ID, bob.ID}, []string(self.Friends))

	require.NoError(t, f.friends.RemoveFriend(ctx, alice.ID, bob.ID))

	self, _ = f.users.GetUser(ctx, alice.ID)
	assert.Equal(t, []string{carol.ID}, []string(self.Friends))
}

func TestRemoveFriend_PurgesHistoryBothDirections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.verifiedUser("alice", "alice@x.io")
	bob := f.verifiedUser("bob", "bob@x.io")
	carol := f.verifiedUser("carol", "carol@x.io")

	_, err := f.friends.AddFriend(ctx, alice.ID, bob.FriendCode)
	require.NoError(t, err)

	_, err = f.messages.SendMessage(ctx, alice.ID, bob.ID, "hi")
	require.NoError(t, err)
	_, err = f.messages.SendMessage(ctx, bob.ID, alice.ID, "hey")
	require.NoError(t, err)
	_, err = f.messages.SendMessage(ctx, alice.ID, carol.ID, "unrelated")
	require.NoError(t, err)

	// warm the cache so removal has to invalidate it
	history, err := f.messages.GetHistory(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	require.NoError(t, f.friends.RemoveFriend(ctx, alice.ID, bob.ID))

	history, err = f.messages.GetHistory(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	history, err = f.messages.GetHistory(ctx, carol.ID, alice.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestRemoveFriend_Errors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.verifiedUser("alice", "alice@x.io")

	assert.ErrorIs(t, f.friends.RemoveFriend(ctx, alice.ID, ""), ErrValidation)
	assert.ErrorIs(t, f.friends.RemoveFriend(ctx, "ghost", alice.ID), ErrNotFound)

	// removing someone who is not a friend is a no-op
	assert.NoError(t, f.friends.RemoveFriend(ctx, alice.ID, "stranger"))
}

func TestGetUser(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.verifiedUser("alice", "alice@x.io")

	u, err := f.users.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Name)

	_, err = f.users.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.users.GetUser(ctx, "")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := f.users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
