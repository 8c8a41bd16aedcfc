package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rental-agreements-go/internal/auth"
	"rental-agreements-go/internal/models"
	"rental-agreements-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

type SeedUser struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Role     string `yaml:"role"`
	Password string `yaml:"password"`
}

type SeedProperty struct {
	Landlord     string `yaml:"landlord"`
	Title        string `yaml:"title"`
	Address      string `yaml:"address"`
	City         string `yaml:"city"`
	MonthlyPrice string `yaml:"monthly_price"`
}

type SeedFile struct {
	Users      []SeedUser     `yaml:"users"`
	Properties []SeedProperty `yaml:"properties"`
}

// SeedSummary counts what ApplySeed changed
type SeedSummary struct {
	UsersCreated      int
	UsersExisting     int
	PropertiesCreated int
}

func LoadSeedFile(seedFile string) (*SeedFile, error) {
	var seedPath string
	if filepath.IsAbs(seedFile) {
		seedPath = seedFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		seedPath = filepath.Join(wd, seedFile)
	}

	data, err := os.ReadFile(seedPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", seedFile, err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", seedFile, err)
	}

	emails := make(map[string]string, len(seed.Users))
	for i, user := range seed.Users {
		if user.Name == "" || user.Email == "" {
			return nil, fmt.Errorf("user at index %d missing name or email", i)
		}
		if user.Role != models.RoleLandlord && user.Role != models.RoleTenant {
			return nil, fmt.Errorf("user %s has invalid role %q", user.Email, user.Role)
		}
		emails[normalizeEmail(user.Email)] = user.Role
	}

	for i, property := range seed.Properties {
		if property.Title == "" {
			return nil, fmt.Errorf("property at index %d missing title", i)
		}
		if role, ok := emails[normalizeEmail(property.Landlord)]; ok && role != models.RoleLandlord {
			return nil, fmt.Errorf("property %q owner %s is not a landlord", property.Title, property.Landlord)
		}
		if _, err := decimal.NewFromString(property.MonthlyPrice); err != nil {
			return nil, fmt.Errorf("property %q has invalid monthly_price %q", property.Title, property.MonthlyPrice)
		}
	}

	return &seed, nil
}

// ApplySeed creates missing users and then lists every property under its
// landlord. Users are matched by email so the seed can be re-run; properties
// are only created for landlords created in this run.
func ApplySeed(ctx context.Context, st store.RentalStore, seed *SeedFile) (SeedSummary, error) {
	var summary SeedSummary
	created := make(map[string]*models.User)

	for _, u := range seed.Users {
		existing, err := st.GetUserByEmail(ctx, u.Email)
		if err == nil {
			zap.L().Info("Seed user already exists", zap.String("email", existing.Email))
			summary.UsersExisting++
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return summary, fmt.Errorf("failed to look up %s: %w", u.Email, err)
		}

		var hash string
		if u.Password != "" {
			hash, err = auth.HashPassword(u.Password)
			if err != nil {
				return summary, fmt.Errorf("seed user %s: %w", u.Email, err)
			}
		}

		user, err := st.CreateUser(ctx, store.CreateUserParams{
			Name:         u.Name,
			Email:        u.Email,
			Role:         u.Role,
			PasswordHash: hash,
		})
		if err != nil {
			return summary, fmt.Errorf("failed to create %s: %w", u.Email, err)
		}
		created[normalizeEmail(user.Email)] = user
		summary.UsersCreated++
	}

	for _, p := range seed.Properties {
		landlord, ok := created[normalizeEmail(p.Landlord)]
		if !ok {
			continue
		}

		_, err := st.CreateProperty(ctx, store.CreatePropertyParams{
			LandlordId:   landlord.Id,
			Title:        p.Title,
			Address:      p.Address,
			City:         p.City,
			MonthlyPrice: decimal.RequireFromString(p.MonthlyPrice),
		})
		if err != nil {
			return summary, fmt.Errorf("failed to create property %q: %w", p.Title, err)
		}
		summary.PropertiesCreated++
	}

	zap.L().Info("Seed applied",
		zap.Int("users_created", summary.UsersCreated),
		zap.Int("users_existing", summary.UsersExisting),
		zap.Int("properties_created", summary.PropertiesCreated))
	return summary, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
