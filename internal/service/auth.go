package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/mail"
	"strings"
	"time"

	"tush00nka/chitchat/internal/model"
	"tush00nka/chitchat/internal/pkg/logging"
	mailer "tush00nka/chitchat/internal/pkg/mail"
	"tush00nka/chitchat/internal/repository"

	"github.com/google/uuid"
)

type authService struct {
	users   repository.UserRepository
	hasher  PasswordHasher
	tokens  TokenManager
	mailer  mailer.Mailer
	codeTTL time.Duration
	log     logging.Logger
	nowFunc func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	hasher PasswordHasher,
	tokens TokenManager,
	m mailer.Mailer,
	codeTTL time.Duration,
	log logging.Logger,
) AuthService {
	return &authService{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		mailer:  m,
		codeTTL: codeTTL,
		log:     log,
		nowFunc: time.Now,
	}
}

// bcrypt не принимает пароли длиннее 72 байт
const maxPasswordBytes = 72

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (s *authService) Register(ctx context.Context, in RegisterInput) error {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)

	if name == "" || email == "" || in.Password == "" {
		return newError(ErrValidation, "Name, email and password are required")
	}
	if !validEmail(email) {
		return newError(ErrValidation, "Invalid email address")
	}
	if len(in.Password) > maxPasswordBytes {
		return newError(ErrValidation, "Password must be at most 72 bytes")
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return unavailable(err)
	}
	if exists {
		return newError(ErrConflict, "User already exists")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return unavailable(err)
	}

	code, err := generateVerificationCode()
	if err != nil {
		return unavailable(err)
	}

	friendCode, err := uniqueFriendCode(ctx, s.users)
	if err != nil {
		return unavailable(err)
	}

	expiresAt := s.nowFunc().UTC().Add(s.codeTTL)
	user := &model.User{
		ID:                    uuid.NewString(),
		Name:                  name,
		Email:                 email,
		Password:              hash,
		FriendCode:            friendCode,
		VerificationCode:      &code,
		VerificationExpiresAt: &expiresAt,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return newError(ErrConflict, "User already exists")
		}
		return unavailable(err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)

	if err := s.mailer.SendVerificationCode(ctx, email, code, expiresAt); err != nil {
		s.log.Error(ctx, "failed to send verification code", "user_id", user.ID, "error", err)
		return unavailable(err)
	}

	return nil
}

func (s *authService) Verify(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)

	if email == "" || code == "" {
		return newError(ErrValidation, "Email and verification code are required")
	}

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}

	if user.IsVerified {
		return newError(ErrAlreadyVerified, "User already verified")
	}

	if user.VerificationCode == nil || user.CodeExpired(s.nowFunc()) ||
		subtle.ConstantTimeCompare([]byte(*user.VerificationCode), []byte(code)) != 1 {
		return newError(ErrInvalidCode, "Invalid verification code")
	}

	ok, err := s.users.MarkVerified(ctx, user.ID, code)
	if err != nil {
		return unavailable(err)
	}
	if !ok {
		// Код уже использован параллельным запросом
		return newError(ErrInvalidCode, "Invalid verification code")
	}

	s.log.Info(ctx, "user verified", "user_id", user.ID)
	return nil
}

func (s *authService) ResendCode(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return newError(ErrValidation, "Email is required")
	}

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}

	if user.IsVerified {
		return newError(ErrAlreadyVerified, "User already verified")
	}

	code, err := generateVerificationCode()
	if err != nil {
		return unavailable(err)
	}

	expiresAt := s.nowFunc().UTC().Add(s.codeTTL)
	if err := s.users.SetVerificationCode(ctx, user.ID, code, expiresAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// подтверждён между чтением и обновлением
			return newError(ErrAlreadyVerified, "User already verified")
		}
		return unavailable(err)
	}

	if err := s.mailer.SendVerificationCode(ctx, email, code, expiresAt); err != nil {
		s.log.Error(ctx, "failed to resend verification code", "user_id", user.ID, "error", err)
		return unavailable(err)
	}

	return nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, newError(ErrValidation, "Email and password are required")
	}

	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	// Неподтверждённым отказываем до проверки пароля
	if !user.IsVerified {
		return nil, newError(ErrForbidden, "Please verify your email first")
	}

	if !s.hasher.Verify(password, user.Password) {
		return nil, newError(ErrInvalidCredentials, "Invalid credentials")
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, unavailable(err)
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *authService) Authenticate(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", newError(ErrUnauthenticated, "Access denied")
	}

	userID, err := s.tokens.Verify(token)
	if err != nil {
		return "", &Error{Kind: ErrInvalidToken, Message: "Invalid or expired token", Err: err}
	}

	return userID, nil
}

func (s *authService) findByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "User not found")
		}
		return nil, unavailable(err)
	}
	return user, nil
}
