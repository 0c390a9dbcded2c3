package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	staffrepo "github.com/Amsterdam/meldingen-sub000/internal/data/repos/staff"
	"github.com/Amsterdam/meldingen-sub000/internal/domain"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/envutil"
	"github.com/Amsterdam/meldingen-sub000/internal/platform/logger"
)

// ErrInvalidCredentials covers both an unknown email and a wrong password,
// indistinguishable to the caller on purpose.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidStaffToken marks a missing, malformed, or expired staff JWT.
var ErrInvalidStaffToken = errors.New("invalid staff token")

// StaffAuthService authenticates back-office users with bcrypt-hashed
// passwords and short-lived HS256 JWTs.
type StaffAuthService interface {
	Register(ctx context.Context, email, password, name string) (*domain.StaffUser, error)
	Login(ctx context.Context, email, password string) (string, error)
	Verify(ctx context.Context, tokenString string) (*domain.StaffUser, error)
	AccessTTL() time.Duration
}

type staffAuthService struct {
	db  *gorm.DB
	log *logger.Logger

	staffRepo staffrepo.StaffUserRepo
	secret    []byte
	accessTTL time.Duration
}

func NewStaffAuthService(db *gorm.DB, baseLog *logger.Logger, staffRepo staffrepo.StaffUserRepo) (StaffAuthService, error) {
	secret := os.Getenv("JWT_SECRET_KEY")
	if secret == "" {
		return nil, fmt.Errorf("missing JWT_SECRET_KEY")
	}
	return &staffAuthService{
		db:        db,
		log:       baseLog.With("service", "StaffAuthService"),
		staffRepo: staffRepo,
		secret:    []byte(secret),
		accessTTL: envutil.Duration("STAFF_JWT_TTL", 8*time.Hour),
	}, nil
}

func (s *staffAuthService) AccessTTL() time.Duration { return s.accessTTL }

func (s *staffAuthService) Register(ctx context.Context, email, password, name string) (*domain.StaffUser, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	row := &domain.StaffUser{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
	}
	if err := s.staffRepo.Create(ctx, nil, row); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("staff user: %w", ErrConflict)
		}
		return nil, err
	}
	s.log.Info("staff user registered", "staff_id", row.ID.String())
	return row, nil
}

func (s *staffAuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.staffRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		// Burn a comparison so unknown emails cost the same as wrong
		// passwords.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5B4VQOPO3Q1a5S7a5a5a5a5a5a5aG"), []byte(password))
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}
	s.log.Info("staff login", "staff_id", user.ID.String())
	return signed, nil
}

func (s *staffAuthService) Verify(ctx context.Context, tokenString string) (*domain.StaffUser, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidStaffToken
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, ErrInvalidStaffToken
	}
	staffID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidStaffToken
	}
	user, err := s.staffRepo.GetByID(ctx, nil, staffID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidStaffToken
	}
	return user, nil
}
