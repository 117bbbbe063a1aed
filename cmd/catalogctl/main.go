// Command catalogctl browses and seeds the marketplace catalog from the terminal.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"marketplace-catalog-service/internal/domain"
	"marketplace-catalog-service/internal/logging"
	"marketplace-catalog-service/internal/store"
)

// cli holds the flags shared by every subcommand.
type cli struct {
	catalogFile string
	logLevel    string
	logger      *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{logger: zap.NewNop()}
	root := &cobra.Command{
		Use:   "catalogctl",
		Short: "Browse and seed the recycled goods marketplace catalog",
		Long: `catalogctl runs the marketplace filter and sort engine against a YAML catalog
file, or the bundled sample catalog when --catalog is not given.

Examples:
  catalogctl list --category Garden --sort price-low
  catalogctl list --min-rating 4.5 --in-stock -o json
  catalogctl seed --catalog products.yaml --dsn "host=localhost user=market ..."`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New("development", c.logLevel)
			if err != nil {
				return err
			}
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = c.logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&c.catalogFile, "catalog", "", "YAML catalog file (defaults to the bundled sample)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	root.AddCommand(newListCmd(c), newCategoriesCmd(c), newSeedCmd(c))
	return root
}

// products loads the catalog named by --catalog.
func (c *cli) products() ([]domain.Product, error) {
	if c.catalogFile == "" {
		return store.SampleCatalog(), nil
	}
	f, err := os.Open(c.catalogFile)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	products, err := store.LoadCatalog(f)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Loaded catalog", zap.String("file", c.catalogFile), zap.Int("products", len(products)))
	return products, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}
