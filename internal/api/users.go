package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rental-agreements-go/internal/auth"
	"rental-agreements-go/internal/models"
	"rental-agreements-go/internal/store"

	"go.uber.org/zap"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// Authenticate checks an email and password pair and returns the matching user.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *RentalService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			zap.L().Info("Login for unknown email", zap.String("email", email))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		zap.L().Info("Login with wrong password", zap.String("user_id", user.Id))
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// RegisterUser hashes the password and stores a new landlord or tenant.
func (s *RentalService) RegisterUser(ctx context.Context, name, email, role, password string) (*models.User, error) {
	if strings.TrimSpace(name) == "" || !strings.Contains(email, "@") {
		return nil, validationError("name and a valid email are required")
	}
	if role != models.RoleLandlord && role != models.RoleTenant {
		return nil, validationError("role must be %s or %s", models.RoleLandlord, models.RoleTenant)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, validationError("%v", err)
	}

	user, err := s.store.CreateUser(ctx, store.CreateUserParams{
		Name:         strings.TrimSpace(name),
		Email:        email,
		Role:         role,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Registered user", zap.String("user_id", user.Id), zap.String("role", role))
	return user, nil
}

// CreateProperty lists a property for a landlord.
func (s *RentalService) CreateProperty(ctx context.Context, landlordId string, params store.CreatePropertyParams) (*models.Property, error) {
	landlord, err := s.store.GetUserById(ctx, landlordId)
	if err != nil {
		return nil, err
	}
	if landlord.Role != models.RoleLandlord {
		return nil, fmt.Errorf("only landlords can list properties: %w", ErrForbidden)
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, validationError("property title is required")
	}
	if params.MonthlyPrice.IsNegative() {
		return nil, validationError("monthly price cannot be negative")
	}

	params.LandlordId = landlordId
	return s.store.CreateProperty(ctx, params)
}
