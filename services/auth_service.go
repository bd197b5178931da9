package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/Dosada05/fencing-tableau/models"
	"github.com/Dosada05/fencing-tableau/repositories"
)

// MinPINLength is the shortest accepted organizer or referee PIN.
const MinPINLength = 4

type AuthService interface {
	// Login checks the PIN of a role for a session and returns the role.
	Login(ctx context.Context, sessionID string, role models.SessionRole, pin string) (models.SessionRole, error)
}

type authService struct {
	sessionRepo repositories.SessionRepository
	logger      *slog.Logger
}

func NewAuthService(sessionRepo repositories.SessionRepository, logger *slog.Logger) AuthService {
	return &authService{sessionRepo: sessionRepo, logger: logger}
}

func (s *authService) Login(ctx context.Context, sessionID string, role models.SessionRole, pin string) (models.SessionRole, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	var hash string
	switch role {
	case models.RoleOrganizer:
		hash = session.OrganizerPINHash
	case models.RoleReferee:
		hash = session.RefereePINHash
	default:
		return "", ErrInvalidCredentials
	}
	if hash == "" {
		return "", ErrInvalidCredentials
	}

	err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.logger.WarnContext(ctx, "rejected login", slog.String("session_id", sessionID), slog.String("role", string(role)))
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to compare pin hash: %w", err)
	}
	return role, nil
}

// hashPIN validates and hashes a PIN. An empty PIN disables the role.
func hashPIN(pin string) (string, error) {
	if pin == "" {
		return "", nil
	}
	if len(pin) < MinPINLength {
		return "", ErrPINTooShort
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("ошибка хеширования PIN: %w", err)
	}
	return string(hashed), nil
}
