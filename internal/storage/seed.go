package storage

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/BurntSushi/toml"

	"budgetmanager/internal/core"
)

//go:embed seed.toml
var seedTOML []byte

type seedFile struct {
	Version  int            `toml:"version"`
	Accounts []seedAccount  `toml:"account"`
	Category []seedCategory `toml:"category"`
	Rules    []seedRule     `toml:"rule"`
}

type seedAccount struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

type seedCategory struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
}

type seedRule struct {
	Priority int    `toml:"priority"`
	Contains string `toml:"contains"`
	Category string `toml:"category"`
}

// SeedResult counts the rows Seed inserted.
type SeedResult struct {
	Accounts   int
	Categories int
	Rules      int
}

func loadSeed() (seedFile, error) {
	var f seedFile
	if err := toml.Unmarshal(seedTOML, &f); err != nil {
		return seedFile{}, fmt.Errorf("parse seed.toml: %w", err)
	}
	return f, nil
}

// Seed fills each of accounts, categories and rules with the embedded
// defaults when that table is empty. Populated tables are left alone.
func (s *Store) Seed(ctx context.Context) (SeedResult, error) {
	seed, err := loadSeed()
	if err != nil {
		return SeedResult{}, err
	}

	var result SeedResult
	err = s.InTx(ctx, func(q *Queries) error {
		result = SeedResult{}

		if n, err := q.countRows(ctx, "accounts"); err != nil {
			return err
		} else if n == 0 {
			for _, a := range seed.Accounts {
				if _, err := q.CreateAccount(ctx, core.Account{Name: a.Name, Type: a.Type, IsActive: true}); err != nil {
					return fmt.Errorf("seed account %q: %w", a.Name, err)
				}
				result.Accounts++
			}
		}

		if n, err := q.countRows(ctx, "categories"); err != nil {
			return err
		} else if n == 0 {
			for _, c := range seed.Category {
				if _, err := q.CreateCategory(ctx, core.Category{Name: c.Name, Description: c.Description, IsActive: true}); err != nil {
					return fmt.Errorf("seed category %q: %w", c.Name, err)
				}
				result.Categories++
			}
		}

		if n, err := q.countRows(ctx, "categorization_rules"); err != nil {
			return err
		} else if n == 0 {
			for _, r := range seed.Rules {
				cat, err := q.GetCategoryByName(ctx, r.Category)
				if err != nil {
					return fmt.Errorf("seed rule %q: %w", r.Contains, err)
				}
				rule := core.Rule{Priority: r.Priority, ContainsText: r.Contains, CategoryID: cat.ID, IsActive: true}
				if _, err := q.CreateRule(ctx, rule); err != nil {
					return fmt.Errorf("seed rule %q: %w", r.Contains, err)
				}
				result.Rules++
			}
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}

	slog.InfoContext(ctx, "Seed data applied",
		"accounts", result.Accounts,
		"categories", result.Categories,
		"rules", result.Rules)
	return result, nil
}

// countRows is only called with the fixed table names above.
func (q *Queries) countRows(ctx context.Context, table string) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
