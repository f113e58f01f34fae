package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"tripledger/internal/auth"
	"tripledger/internal/models"
	"tripledger/internal/storage"
	"tripledger/pkg/serrors"
)

// UserService is the single authoritative identity service: registration,
// authentication, credential updates, and user resolution for the ledger core.
type UserService struct {
	store  storage.Store
	jwt    *auth.JWTManager
	logger *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(store storage.Store, jwt *auth.JWTManager, logger *slog.Logger) *UserService {
	return &UserService{store: store, jwt: jwt, logger: logger}
}

// Session is the result of a successful registration or login.
type Session struct {
	User  models.UserProfile `json:"user"`
	Token string             `json:"token"`
}

// Register creates a new account and returns a session for it.
func (s *UserService) Register(ctx context.Context, username, email, password, confirmPassword string) (*Session, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" {
		return nil, serrors.Validation("username and email are required")
	}
	if password != confirmPassword {
		return nil, serrors.Validation("passwords do not match")
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, serrors.Validation("%s", err.Error())
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, serrors.Internal(err, "hashing password")
	}

	user := &models.User{Username: username, Email: email, PasswordHash: hash}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, serrors.Conflict("username or email already registered")
		}
		return nil, serrors.Internal(err, "creating user")
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)

	return s.newSession(user)
}

// Login authenticates by email and password and returns a session.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, serrors.Validation("email and password are required")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, serrors.Authorization("invalid email or password")
	}
	if err != nil {
		return nil, serrors.Internal(err, "looking up user")
	}

	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		s.logger.Warn("login failed", "email", email)
		return nil, serrors.Authorization("invalid email or password")
	}

	s.logger.Info("user logged in", "user_id", user.ID)

	return s.newSession(user)
}

// ResolveUser returns the profile for a user id.
func (s *UserService) ResolveUser(ctx context.Context, id int64) (models.UserProfile, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return models.UserProfile{}, serrors.NotFound("user %d does not exist", id)
	}
	if err != nil {
		return models.UserProfile{}, serrors.Internal(err, "looking up user")
	}
	return user.Profile(), nil
}

// ResolveByIdentifier returns the profile for an email address or username.
func (s *UserService) ResolveByIdentifier(ctx context.Context, identifier string) (models.UserProfile, error) {
	if identifier == "" {
		return models.UserProfile{}, serrors.Validation("identifier is required")
	}

	user, err := s.store.GetUserByEmail(ctx, identifier)
	if errors.Is(err, storage.ErrNotFound) {
		user, err = s.store.GetUserByUsername(ctx, identifier)
	}
	if errors.Is(err, storage.ErrNotFound) {
		return models.UserProfile{}, serrors.NotFound("no user matches %q", identifier)
	}
	if err != nil {
		return models.UserProfile{}, serrors.Internal(err, "looking up user")
	}
	return user.Profile(), nil
}

// UpdateUsername changes the caller's username.
func (s *UserService) UpdateUsername(ctx context.Context, userID int64, username string) (models.UserProfile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.UserProfile{}, serrors.Validation("username must not be empty")
	}

	if err := s.store.UpdateUsername(ctx, userID, username); err != nil {
		switch {
		case errors.Is(err, storage.ErrDuplicate):
			return models.UserProfile{}, serrors.Conflict("username %q is taken", username)
		case errors.Is(err, storage.ErrNotFound):
			return models.UserProfile{}, serrors.NotFound("user %d does not exist", userID)
		default:
			return models.UserProfile{}, serrors.Internal(err, "updating username")
		}
	}

	s.logger.Info("username updated", "user_id", userID, "username", username)

	return s.ResolveUser(ctx, userID)
}

// UpdatePassword changes the caller's password after verifying the current one.
func (s *UserService) UpdatePassword(ctx context.Context, userID int64, current, newPassword, confirmPassword string) error {
	user, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return serrors.NotFound("user %d does not exist", userID)
	}
	if err != nil {
		return serrors.Internal(err, "looking up user")
	}

	if err := auth.VerifyPassword(user.PasswordHash, current); err != nil {
		return serrors.Authorization("current password is incorrect")
	}
	if newPassword != confirmPassword {
		return serrors.Validation("passwords do not match")
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return serrors.Validation("%s", err.Error())
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return serrors.Internal(err, "hashing password")
	}
	if err := s.store.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return serrors.Internal(err, "updating password")
	}

	s.logger.Info("password updated", "user_id", userID)

	return nil
}

func (s *UserService) newSession(user *models.User) (*Session, error) {
	token, err := s.jwt.Generate(user.ID, user.Username)
	if err != nil {
		return nil, serrors.Internal(err, "issuing token")
	}
	return &Session{User: user.Profile(), Token: token}, nil
}
