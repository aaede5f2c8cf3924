package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ad/go-telegram-fitness/internal/db"
	"github.com/ad/go-telegram-fitness/internal/models"
)

// AuthService tracks registered users and who is currently logged in.
type AuthService struct {
	users    *db.UserRepository
	sessions *db.SessionRepository
	now      func() time.Time
}

func NewAuthService(users *db.UserRepository, sessions *db.SessionRepository) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		now:      time.Now,
	}
}

// Register creates or refreshes the user record.
func (s *AuthService) Register(ctx context.Context, user *models.User) error {
	if user == nil || user.ID == "" {
		return fmt.Errorf("register: empty user id")
	}
	if err := s.users.CreateOrUpdate(ctx, user); err != nil {
		return fmt.Errorf("register user %s: %w", user.ID, err)
	}
	return nil
}

// Login registers the user if needed and opens a session.
func (s *AuthService) Login(ctx context.Context, user *models.User) error {
	if err := s.Register(ctx, user); err != nil {
		return err
	}
	if err := s.sessions.Start(ctx, user.ID, s.now()); err != nil {
		return fmt.Errorf("start session for %s: %w", user.ID, err)
	}
	log.Printf("[AUTH] User %s logged in", user.DisplayName())
	return nil
}

func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.sessions.End(ctx, userID); err != nil {
		return fmt.Errorf("end session for %s: %w", userID, err)
	}
	return nil
}

func (s *AuthService) IsLoggedIn(ctx context.Context, userID string) (bool, error) {
	_, err := s.sessions.Get(ctx, userID)
	if errors.Is(err, db.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CurrentUser returns the logged-in user or ErrNotAuthenticated.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	loggedIn, err := s.IsLoggedIn(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !loggedIn {
		return nil, ErrNotAuthenticated
	}
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, db.ErrRecordNotFound) {
		return nil, ErrNotAuthenticated
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
