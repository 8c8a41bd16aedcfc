package main

import (
	"context"
	"flag"
	"fmt"

	"rental-agreements-go/internal/common"
	"rental-agreements-go/internal/config"
	"rental-agreements-go/internal/database"
	"rental-agreements-go/internal/formance"
	"rental-agreements-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// rentLedger reads settled rent totals from the ledger mirror
type rentLedger interface {
	GetLandlordRentReceived(ctx context.Context, landlordId, currency string) (decimal.Decimal, error)
	GetTenantRentPaid(ctx context.Context, tenantId, currency string) (decimal.Decimal, error)
}

type reportStats struct {
	totalUsers          int
	usersWithAgreements int
	totalAgreements     int
	pendingPayments     int
}

func formatTransactionId(txId string) string {
	if txId == "" {
		return "none"
	}
	if len(txId) > 8 {
		return txId[:8] + "..."
	}
	return txId
}

func printPayment(payment models.Payment, currency string, isLast bool) {
	fmt.Printf("%s    %-9s %14s  due %s  %-9s (tx: %s)\n",
		common.BoxDetailPrefix(isLast),
		payment.Kind,
		common.FormatMoney(payment.Amount, currency),
		payment.DueDate.Format(models.DateLayout),
		payment.Status,
		formatTransactionId(payment.TransactionId))
}

func printAgreement(agreement models.RentalAgreement, role, currency string, payments []models.Payment, isLast bool) {
	signed := "unsigned"
	switch {
	case agreement.IsFullySigned():
		signed = "fully signed"
	case agreement.SignedByLandlord:
		signed = "landlord signed"
	case agreement.SignedByTenant:
		signed = "tenant signed"
	}

	fmt.Printf("%s %s  %-10s %s → %s  rent %s  (%s, as %s, v%d)\n",
		common.BoxPrefix(isLast),
		agreement.Id,
		agreement.Status,
		agreement.StartDate.Format(models.DateLayout),
		agreement.EndDate.Format(models.DateLayout),
		common.FormatMoney(agreement.MonthlyRent, currency),
		signed,
		role,
		agreement.Version)

	for i, payment := range payments {
		printPayment(payment, currency, isLast && i == len(payments)-1)
	}
}

// ledgerTotal returns the label and amount of the user's settled rent.
func ledgerTotal(ctx context.Context, user common.UserInfo, ledger rentLedger, currency string) (string, decimal.Decimal, error) {
	if user.Role == models.RoleLandlord {
		amount, err := ledger.GetLandlordRentReceived(ctx, user.Id, currency)
		return "Rent received", amount, err
	}
	amount, err := ledger.GetTenantRentPaid(ctx, user.Id, currency)
	return "Rent paid", amount, err
}

func printUserHeader(ctx context.Context, user common.UserInfo, agreementCount int, ledger rentLedger, currency string) {
	fmt.Printf("\n┌─ User: %s (%s, %s)\n", user.Name, user.Email, user.Role)
	fmt.Printf("│  ID: %s\n", user.Id)
	fmt.Printf("│  Agreements: %d\n", agreementCount)
	if ledger != nil {
		label, amount, err := ledgerTotal(ctx, user, ledger, currency)
		if err != nil {
			zap.L().Warn("Failed to read ledger balance", zap.String("user_id", user.Id), zap.Error(err))
			fmt.Printf("│  %s: unavailable\n", label)
		} else {
			fmt.Printf("│  %s: %s\n", label, common.FormatMoney(amount, currency))
		}
	}
	common.PrintBoxSeparator(78)
}

func processUser(ctx context.Context, user common.UserInfo, dbService *database.Service, ledger rentLedger, currency string) (int, int, error) {
	agreements, err := dbService.ListAgreementsForUser(ctx, user.Id)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get agreements: %w", err)
	}

	if len(agreements) == 0 {
		return 0, 0, nil
	}

	printUserHeader(ctx, user, len(agreements), ledger, currency)

	pending := 0
	for i, agreement := range agreements {
		payments, err := dbService.ListPayments(ctx, agreement.Id)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to get payments for %s: %w", agreement.Id, err)
		}
		for _, p := range payments {
			if p.Status == models.PaymentPending {
				pending++
			}
		}

		role := models.RoleTenant
		if agreement.LandlordId == user.Id {
			role = models.RoleLandlord
		}
		printAgreement(agreement, role, currency, payments, i == len(agreements)-1)
	}

	return len(agreements), pending, nil
}

func processUsersAndGenerateReport(ctx context.Context, users []common.UserInfo, dbService *database.Service, ledger rentLedger, currency string, logger *zap.Logger) reportStats {
	stats := reportStats{}

	for _, user := range users {
		stats.totalUsers++

		count, pending, err := processUser(ctx, user, dbService, ledger, currency)
		if err != nil {
			logger.Error("Failed to process user",
				zap.String("user_id", user.Id),
				zap.String("user_name", user.Name),
				zap.Error(err))
			continue
		}

		if count > 0 {
			stats.usersWithAgreements++
			stats.totalAgreements += count
			stats.pendingPayments += pending
		}
	}

	return stats
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	emailFlag := flag.String("email", "", "Filter by specific user email (optional)")
	roleFlag := flag.String("role", "", "Only report landlords or tenants (optional)")
	flag.Parse()

	logger.Info("Starting agreement report")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	users, err := common.InitializeUsers(ctx, dbService, *emailFlag, *roleFlag, logger)
	if err != nil {
		logger.Fatal("Failed to initialize users", zap.Error(err))
	}

	// Ledger totals are shown only when the Formance mirror is configured
	var ledger rentLedger
	if cfg.Formance.StackURL != "" {
		logger.Info("Connecting to Formance ledger", zap.String("stack_url", cfg.Formance.StackURL))
		formanceService, err := formance.NewService(ctx, cfg.Formance)
		if err != nil {
			logger.Fatal("Failed to initialize Formance ledger", zap.Error(err))
		}
		defer formanceService.Close()
		ledger = formanceService
	}

	common.PrintHeader("RENTAL AGREEMENT REPORT", common.WideWidth)

	stats := processUsersAndGenerateReport(ctx, users, dbService, ledger, cfg.Gateway.Currency, logger)

	// Agreements are counted once per party, so shared ones appear twice
	summary := fmt.Sprintf("SUMMARY: %d users with agreements (%d agreement listings, %d pending payments across %d users queried)",
		stats.usersWithAgreements, stats.totalAgreements, stats.pendingPayments, stats.totalUsers)
	common.PrintFooter(summary, common.WideWidth)

	logger.Info("Agreement report completed",
		zap.Int("users_queried", stats.totalUsers),
		zap.Int("users_with_agreements", stats.usersWithAgreements),
		zap.Int("total_agreements", stats.totalAgreements))
}
