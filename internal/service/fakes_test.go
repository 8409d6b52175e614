package service

import (
	"context"
	"sync"
	"time"

	"tush00nka/chitchat/internal/model"
	"tush00nka/chitchat/internal/pkg/auth"
	"tush00nka/chitchat/internal/pkg/logging"
	"tush00nka/chitchat/internal/repository"
)

// memDB backs the in-memory repositories used by the service tests.
type memDB struct {
	mu       sync.Mutex
	users    map[string]*model.User
	messages []model.Message
	failNext error
	// afterFind runs once FindBetween has released the lock
	afterFind func()
}

func newMemDB() *memDB {
	return &memDB{users: map[string]*model.User{}}
}

func (db *memDB) fail() error {
	err := db.failNext
	db.failNext = nil
	return err
}

func clone(u *model.User) *model.User {
	c := *u
	c.Friends = append([]string{}, u.Friends...)
	return &c
}

type memUsers struct{ db *memDB }

func (r memUsers) Create(_ context.Context, user *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail(); err != nil {
		return err
	}
	for _, u := range r.db.users {
		if u.Email == user.Email || u.FriendCode == user.FriendCode {
			return repository.ErrDuplicate
		}
	}
	user.EnsureFriends()
	r.db.users[user.ID] = clone(user)
	return nil
}

func (r memUsers) find(match func(*model.User) bool) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail(); err != nil {
		return nil, err
	}
	for _, u := range r.db.users {
		if match(u) {
			return clone(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.ID == id })
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r memUsers) FindByFriendCode(_ context.Context, code string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.FriendCode == code })
}

func (r memUsers) FindAll(context.Context) ([]*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []*model.User{}
	for _, u := range r.db.users {
		out = append(out, clone(u))
	}
	return out, nil
}

func (r memUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if err == repository.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r memUsers) FriendCodeExists(ctx context.Context, code string) (bool, error) {
	_, err := r.FindByFriendCode(ctx, code)
	if err == repository.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r memUsers) SetVerificationCode(_ context.Context, id, code string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok || u.IsVerified {
		return repository.ErrNotFound
	}
	u.VerificationCode = &code
	u.VerificationExpiresAt = &expiresAt
	return nil
}

func (r memUsers) MarkVerified(_ context.Context, id, code string) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok || u.IsVerified || u.VerificationCode == nil || *u.VerificationCode != code {
		return false, nil
	}
	u.IsVerified = true
	u.VerificationCode = nil
	u.VerificationExpiresAt = nil
	return true, nil
}

type memFriends struct{ db *memDB }

func (r memFriends) AddFriend(_ context.Context, ownerID, friendID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[ownerID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Friends = append(u.Friends, friendID)
	return nil
}

func (r memFriends) RemoveFriend(_ context.Context, ownerID, friendID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[ownerID]
	if !ok {
		return 0, repository.ErrNotFound
	}

	kept := u.Friends[:0]
	for _, f := range u.Friends {
		if f != friendID {
			kept = append(kept, f)
		}
	}
	u.Friends = kept

	var purged int64
	remaining := r.db.messages[:0]
	for _, m := range r.db.messages {
		if (m.Sender == ownerID && m.Receiver == friendID) || (m.Sender == friendID && m.Receiver == ownerID) {
			purged++
			continue
		}
		remaining = append(remaining, m)
	}
	r.db.messages = remaining
	return purged, nil
}

type memMessages struct{ db *memDB }

func (r memMessages) Create(_ context.Context, msg *model.Message) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.fail(); err != nil {
		return err
	}
	r.db.messages = append(r.db.messages, *msg)
	return nil
}

func (r memMessages) FindBetween(_ context.Context, a, b string) ([]model.Message, error) {
	r.db.mu.Lock()
	out := []model.Message{}
	for _, m := range r.db.messages {
		if (m.Sender == a && m.Receiver == b) || (m.Sender == b && m.Receiver == a) {
			out = append(out, m)
		}
	}
	after := r.db.afterFind
	r.db.afterFind = nil
	r.db.mu.Unlock()

	if after != nil {
		after()
	}
	return out, nil
}

type cacheEntry struct {
	version  int64
	messages []model.Message
}

type memCache struct {
	mu       sync.Mutex
	entries  map[string]cacheEntry
	versions map[string]int64
	hits     int
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]cacheEntry{}, versions: map[string]int64{}}
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

func (c *memCache) Get(_ context.Context, a, b string) ([]model.Message, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := pairKey(a, b)
	version := c.versions[key]
	e, ok := c.entries[key]
	if !ok || e.version != version {
		return nil, version, false, nil
	}
	c.hits++
	return e.messages, version, true, nil
}

func (c *memCache) Put(_ context.Context, a, b string, version int64, messages []model.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[pairKey(a, b)] = cacheEntry{version: version, messages: messages}
	return nil
}

func (c *memCache) Invalidate(_ context.Context, a, b string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[pairKey(a, b)]++
	return nil
}

type sentCode struct {
	email string
	code  string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (m *fakeMailer) SendVerificationCode(_ context.Context, email, code string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentCode{email: email, code: code})
	return nil
}

func (m *fakeMailer) last(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].email == email {
			return m.sent[i].code
		}
	}
	return ""
}

type fixture struct {
	db       *memDB
	mailer   *fakeMailer
	cache    *memCache
	tokens   *auth.TokenIssuer
	auth     *authService
	users    UserService
	friends  FriendService
	messages *messageService
}

func newFixture() *fixture {
	db := newMemDB()
	users := memUsers{db: db}
	mailer := &fakeMailer{}
	cache := newMemCache()
	tokens := auth.NewTokenIssuer("v1", []byte("test-secret"), nil, time.Hour)
	log := logging.Discard()

	return &fixture{
		db:       db,
		mailer:   mailer,
		cache:    cache,
		tokens:   tokens,
		auth:     NewAuthService(users, auth.NewHasher(4), tokens, mailer, 15*time.Minute, log).(*authService),
		users:    NewUserService(users),
		friends:  NewFriendService(users, memFriends{db: db}, cache, log),
		messages: NewMessageService(users, memMessages{db: db}, cache, log).(*messageService),
	}
}

// verifiedUser registers, verifies and returns the stored user.
func (f *fixture) verifiedUser(name, email string) *model.User {
	ctx := context.Background()
	if err := f.auth.Register(ctx, RegisterInput{Name: name, Email: email, Password: "pw-" + name}); err != nil {
		panic(err)
	}
	if err := f.auth.Verify(ctx, email, f.mailer.last(email)); err != nil {
		panic(err)
	}
	u, err := memUsers{db: f.db}.FindByEmail(ctx, email)
	if err != nil {
		panic(err)
	}
	return u
}
