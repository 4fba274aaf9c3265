// Command seed loads development fixtures (accounts, groups, kits, penalty
// policies and borrowings) and prints an access token for every account.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/lib/pq"
	"gopkg.in/yaml.v3"

	"iotkit-rental-backend/internal/config"
	"iotkit-rental-backend/internal/logger"
	"iotkit-rental-backend/internal/security"
)

type seedAccount struct {
	Email         string `yaml:"email"`
	FullName      string `yaml:"full_name"`
	Role          string `yaml:"role"`
	WalletBalance int64  `yaml:"wallet_balance"`
}

type seedGroup struct {
	Name        string   `yaml:"name"`
	LeaderEmail string   `yaml:"leader_email"`
	Members     []string `yaml:"members"`
}

type seedComponent struct {
	Name            string `yaml:"name"`
	Quantity        int32  `yaml:"quantity"`
	UnitDamageValue int64  `yaml:"unit_damage_value"`
}

type seedKit struct {
	Name       string          `yaml:"name"`
	Type       string          `yaml:"type"`
	Components []seedComponent `yaml:"components"`
}

type seedPolicy struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Amount int64  `yaml:"amount"`
}

type seedBorrowing struct {
	Kit           string `yaml:"kit"`
	RenterEmail   string `yaml:"renter_email"`
	Status        string `yaml:"status"`
	DepositAmount int64  `yaml:"deposit_amount"`
	TotalCost     int64  `yaml:"total_cost"`
	DueInDays     int    `yaml:"due_in_days"`
}

type seedData struct {
	Accounts   []seedAccount   `yaml:"accounts"`
	Groups     []seedGroup     `yaml:"groups"`
	Kits       []seedKit       `yaml:"kits"`
	Policies   []seedPolicy    `yaml:"policies"`
	Borrowings []seedBorrowing `yaml:"borrowings"`
}

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "path to config file")
	seedPath := flag.String("data", "cmd/seed/seed.yaml", "path to seed data file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	data, err := readSeedFile(*seedPath)
	if err != nil {
		logger.Error("Failed to read seed file", "path", *seedPath, "error", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	accountIDs, err := populate(ctx, db, data, time.Now().UTC())
	if err != nil {
		logger.Error("Failed to populate seed data", "error", err)
		os.Exit(1)
	}
	logger.Info("Seed data populated", "accounts", len(data.Accounts), "kits", len(data.Kits), "borrowings", len(data.Borrowings))

	tm := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
	for _, a := range data.Accounts {
		token, err := tm.GenerateAccessToken(accountIDs[a.Email], a.Email, []string{a.Role})
		if err != nil {
			logger.Error("Failed to generate token", "email", a.Email, "error", err)
			continue
		}
		fmt.Printf("%-32s %-9s %s\n", a.Email, a.Role, token)
	}
}

func readSeedFile(path string) (*seedData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data seedData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &data, nil
}

// populate inserts everything in one transaction and returns account ids by email.
func populate(ctx context.Context, db *sql.DB, data *seedData, now time.Time) (map[string]int32, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	accountIDs := make(map[string]int32, len(data.Accounts))
	for _, a := range data.Accounts {
		var id int32
		err := tx.QueryRowContext(ctx, `
			INSERT INTO accounts (email, full_name, role, wallet_balance, created_on)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			a.Email, a.FullName, a.Role, a.WalletBalance, now,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to create account %s: %w", a.Email, err)
		}
		accountIDs[a.Email] = id
	}

	for _, g := range data.Groups {
		leaderID, ok := accountIDs[g.LeaderEmail]
		if !ok {
			return nil, fmt.Errorf("group %s: unknown leader %s", g.Name, g.LeaderEmail)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO student_groups (name, leader_account_id, members)
			VALUES ($1, $2, $3)`,
			g.Name, leaderID, pq.Array(g.Members),
		); err != nil {
			return nil, fmt.Errorf("failed to create group %s: %w", g.Name, err)
		}
	}

	kitIDs := make(map[string]int32, len(data.Kits))
	for _, k := range data.Kits {
		var id int32
		err := tx.QueryRowContext(ctx, `
			INSERT INTO kits (name, type, status, created_on, updated_on)
			VALUES ($1, $2, 'AVAILABLE', $3, $3)
			RETURNING id`,
			k.Name, k.Type, now,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to create kit %s: %w", k.Name, err)
		}
		kitIDs[k.Name] = id
		for _, c := range k.Components {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO kit_components (kit_id, name, quantity, unit_damage_value)
				VALUES ($1, $2, $3, $4)`,
				id, c.Name, c.Quantity, c.UnitDamageValue,
			); err != nil {
				return nil, fmt.Errorf("failed to create component %s of %s: %w", c.Name, k.Name, err)
			}
		}
	}

	for _, p := range data.Policies {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO penalty_policies (policy_name, type, amount, issued_date)
			VALUES ($1, $2, $3, $4)`,
			p.Name, p.Type, p.Amount, now,
		); err != nil {
			return nil, fmt.Errorf("failed to create policy %s: %w", p.Name, err)
		}
	}

	for _, b := range data.Borrowings {
		kitID, ok := kitIDs[b.Kit]
		if !ok {
			return nil, fmt.Errorf("borrowing: unknown kit %s", b.Kit)
		}
		accountID, ok := accountIDs[b.RenterEmail]
		if !ok {
			return nil, fmt.Errorf("borrowing: unknown renter %s", b.RenterEmail)
		}
		due := now.AddDate(0, 0, b.DueInDays)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO borrowing_requests (kit_id, account_id, renter_email, status, request_type,
				deposit_amount, total_cost, request_date, approved_date, due_date, version, created_on, updated_on)
			VALUES ($1, $2, $3, $4, 'KIT', $5, $6, $7, $7, $8, 1, $7, $7)`,
			kitID, accountID, b.RenterEmail, b.Status, b.DepositAmount, b.TotalCost, now, due,
		); err != nil {
			return nil, fmt.Errorf("failed to create borrowing of %s: %w", b.Kit, err)
		}
		if b.Status == "APPROVED" || b.Status == "BORROWED" {
			if _, err := tx.ExecContext(ctx, `UPDATE kits SET status = 'BORROWED', updated_on = $2 WHERE id = $1`, kitID, now); err != nil {
				return nil, fmt.Errorf("failed to mark kit %s borrowed: %w", b.Kit, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit seed data: %w", err)
	}
	return accountIDs, nil
}
