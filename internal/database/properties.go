package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rental-agreements-go/internal/models"
	"rental-agreements-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Service) CreateProperty(ctx context.Context, params store.CreatePropertyParams) (*models.Property, error) {
	if params.Title == "" {
		return nil, fmt.Errorf("property title cannot be empty")
	}
	if params.MonthlyPrice.IsNegative() {
		return nil, fmt.Errorf("monthly price cannot be negative: %s", params.MonthlyPrice)
	}

	propertyId := uuid.New().String()
	zap.L().Info("Creating property",
		zap.String("id", propertyId),
		zap.String("landlord_id", params.LandlordId),
		zap.String("title", params.Title))

	_, err := s.db.ExecContext(ctx, queryInsertProperty,
		propertyId, params.LandlordId, params.Title, params.Address, params.City, params.MonthlyPrice.String())
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("landlord %s: %w", params.LandlordId, store.ErrNotFound)
		}
		zap.L().Error("Failed to insert property", zap.Error(err))
		return nil, fmt.Errorf("unable to insert property: %w", err)
	}

	return s.GetPropertyById(ctx, propertyId)
}

func (s *Service) GetPropertyById(ctx context.Context, propertyId string) (*models.Property, error) {
	var property models.Property
	var price string
	err := s.db.QueryRowContext(ctx, queryGetPropertyById, propertyId).Scan(
		&property.Id, &property.LandlordId, &property.Title, &property.Address, &property.City, &price, &property.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("property %s: %w", propertyId, store.ErrNotFound)
		}
		zap.L().Error("Failed to query property", zap.String("property_id", propertyId), zap.Error(err))
		return nil, fmt.Errorf("unable to query property: %w", err)
	}

	if property.MonthlyPrice, err = parseDecimal("monthly price", price); err != nil {
		return nil, err
	}
	return &property, nil
}
