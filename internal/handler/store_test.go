package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"tush00nka/chitchat/internal/model"
	"tush00nka/chitchat/internal/pkg/auth"
	"tush00nka/chitchat/internal/pkg/logging"
	"tush00nka/chitchat/internal/repository"
	"tush00nka/chitchat/internal/service"
	"tush00nka/chitchat/internal/ws"

	"github.com/gorilla/mux"
)

// store is a small in-memory backend for end-to-end handler tests.
type store struct {
	mu       sync.Mutex
	users    map[string]*model.User
	messages []model.Message
}

func copyUser(u *model.User) *model.User {
	c := *u
	c.Friends = append([]string{}, u.Friends...)
	return &c
}

func between(m model.Message, a, b string) bool {
	return (m.Sender == a && m.Receiver == b) || (m.Sender == b && m.Receiver == a)
}

type users struct{ s *store }

func (r users) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email || u.FriendCode == user.FriendCode {
			return repository.ErrDuplicate
		}
	}
	user.EnsureFriends()
	r.s.users[user.ID] = copyUser(user)
	return nil
}

func (r users) find(match func(*model.User) bool) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r users) FindByID(_ context.Context, id string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.ID == id })
}

func (r users) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r users) FindByFriendCode(_ context.Context, code string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.FriendCode == code })
}

func (r users) FindAll(context.Context) ([]*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.User{}
	for _, u := range r.s.users {
		out = append(out, copyUser(u))
	}
	return out, nil
}

func (r users) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r users) FriendCodeExists(ctx context.Context, code string) (bool, error) {
	_, err := r.FindByFriendCode(ctx, code)
	return err == nil, nil
}

func (r users) SetVerificationCode(_ context.Context, id, code string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || u.IsVerified {
		return repository.ErrNotFound
	}
	u.VerificationCode, u.VerificationExpiresAt = &code, &expiresAt
	return nil
}

func (r users) MarkVerified(_ context.Context, id, code string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok || u.IsVerified || u.VerificationCode == nil || *u.VerificationCode != code {
		return false, nil
	}
	u.IsVerified, u.VerificationCode, u.VerificationExpiresAt = true, nil, nil
	return true, nil
}

type friends struct{ s *store }

func (r friends) AddFriend(_ context.Context, ownerID, friendID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[ownerID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Friends = append(u.Friends, friendID)
	return nil
}

func (r friends) RemoveFriend(_ context.Context, ownerID, friendID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[ownerID]
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
	remaining := []model.Message{}
	for _, m := range r.s.messages {
		if between(m, ownerID, friendID) {
			purged++
			continue
		}
		remaining = append(remaining, m)
	}
	r.s.messages = remaining
	return purged, nil
}

type messages struct{ s *store }

func (r messages) Create(_ context.Context, msg *model.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.messages = append(r.s.messages, *msg)
	return nil
}

func (r messages) FindBetween(_ context.Context, a, b string) ([]model.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Message{}
	for _, m := range r.s.messages {
		if between(m, a, b) {
			out = append(out, m)
		}
	}
	return out, nil
}

type inbox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (i *inbox) SendVerificationCode(_ context.Context, email, code string, _ time.Time) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.codes[email] = code
	return nil
}

func (i *inbox) code(email string) string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.codes[email]
}

type testServer struct {
	*httptest.Server
	store *store
	inbox *inbox
	hub   *ws.Hub
}

// newTestServer wires real services over the in-memory store the same way
// the application does.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s := &store{users: map[string]*model.User{}}
	box := &inbox{codes: map[string]string{}}
	log := logging.Discard()
	hub := ws.NewHub()
	cache := repository.NewNoopHistoryCache()
	tokens := auth.NewTokenIssuer("v1", []byte("handler-secret"), nil, time.Hour)

	authService := service.NewAuthService(users{s}, auth.NewHasher(4), tokens, box, 15*time.Minute, log)
	userService := service.NewUserService(users{s})
	friendService := service.NewFriendService(users{s}, friends{s}, cache, log)
	messageService := service.NewMessageService(users{s}, messages{s}, cache, log)

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/ping", Ping(hub)).Methods("GET")
	NewAuthHandler(authService, userService, friendService, log).RegisterRoutes(api)
	NewUserHandler(userService, log).RegisterRoutes(api)
	NewMessageHandler(messageService, log).RegisterRoutes(api)
	NewLiveHandler(hub, ws.NewUpgrader(nil, true), log).RegisterRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
	})

	return &testServer{Server: srv, store: s, inbox: box, hub: hub}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	return doRequest(t, ts.URL, method, path, token, body)
}
