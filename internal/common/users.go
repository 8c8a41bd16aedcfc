package common

import (
	"context"
	"fmt"

	"rental-agreements-go/internal/models"
	"rental-agreements-go/internal/store"

	"go.uber.org/zap"
)

// UserInfo is the subset of a user the CLI reports print
type UserInfo struct {
	Id    string
	Name  string
	Email string
	Role  string
}

func toUserInfo(u *models.User) UserInfo {
	return UserInfo{Id: u.Id, Name: u.Name, Email: u.Email, Role: u.Role}
}

// InitializeUsers selects the users a report covers. An email selects exactly
// that user; otherwise every active user is returned, optionally narrowed to
// one role.
func InitializeUsers(ctx context.Context, st store.RentalStore, emailFilter, roleFilter string, logger *zap.Logger) ([]UserInfo, error) {
	if roleFilter != "" && roleFilter != models.RoleLandlord && roleFilter != models.RoleTenant {
		return nil, fmt.Errorf("unknown role filter %q", roleFilter)
	}

	if emailFilter != "" {
		logger.Info("Looking up user by email", zap.String("email", emailFilter))
		user, err := st.GetUserByEmail(ctx, emailFilter)
		if err != nil {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return []UserInfo{toUserInfo(user)}, nil
	}

	all, err := st.GetUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	users := make([]UserInfo, 0, len(all))
	for i := range all {
		if roleFilter != "" && all[i].Role != roleFilter {
			continue
		}
		users = append(users, toUserInfo(&all[i]))
	}

	logger.Info("Selected users for report",
		zap.Int("count", len(users)),
		zap.String("role", roleFilter))
	return users, nil
}
