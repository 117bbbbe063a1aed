package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"marketplace-catalog-service/internal/config"
	"marketplace-catalog-service/internal/domain"
	"marketplace-catalog-service/internal/store"
)

// seedTarget receives the seeded products.
type seedTarget interface {
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Close() error
}

// openSeedTarget connects to Postgres. Tests replace it.
var openSeedTarget = func(ctx context.Context, dsn string) (seedTarget, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return store.NewPostgresStore(db), nil
}

func newSeedCmd(c *cli) *cobra.Command {
	var (
		dsn     string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the catalog into Postgres",
		Long: `Inserts every product of the catalog into marketplace.products.
IDs in the file are ignored; the database assigns new ones.
Without --dsn the POSTGRES_* environment variables are used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				if cfg.Postgres.Host == "" {
					return errors.New("no database configured: pass --dsn or set POSTGRES_HOST")
				}
				dsn = cfg.Postgres.DSN()
			}
			products, err := c.products()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			target, err := openSeedTarget(ctx, dsn)
			if err != nil {
				return err
			}
			defer target.Close()

			for i := range products {
				created, err := target.CreateProduct(ctx, &products[i])
				if err != nil {
					return fmt.Errorf("seed %q: %w", products[i].Name, err)
				}
				c.logger.Info("Seeded product", zap.Int64("id", created.ID), zap.String("name", created.Name))
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products\n", len(products))
			return err
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "Postgres connection string")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "overall timeout")
	return cmd
}
