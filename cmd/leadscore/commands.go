package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"leadscore_backend/internal/events"
	"leadscore_backend/internal/icp"
	"leadscore_backend/internal/learning"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/db"
	"leadscore_backend/platform/logger"
	"leadscore_backend/platform/redislock"
)

const trainingLockPrefix = "leadscore:lock:"

// backend is the database-backed wiring shared by the operator commands.
type backend struct {
	cfg      *config.Config
	pool     *pgxpool.Pool
	learning *learning.Module
	bus      *events.InMemoryBus
	closers  []func()
}

func openBackend(ctx context.Context) (*backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.Env)

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	b := &backend{cfg: cfg, pool: pool, bus: events.NewInMemoryBus(log)}
	b.closers = append(b.closers, pool.Close)

	var locker *redislock.Locker
	if cfg.GetRedisURL() != "" {
		client, err := redislock.NewClient(ctx, cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		b.closers = append(b.closers, func() { _ = client.Close() })
		locker = redislock.NewLocker(client, trainingLockPrefix)
	}

	b.learning = learning.NewModule(pool, cfg, locker, b.bus, log)
	return b, nil
}

func (b *backend) Close() {
	b.bus.Wait()
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func orgFlag(cmd *cobra.Command) (uuid.UUID, error) {
	raw, _ := cmd.Flags().GetString("org")
	if raw == "" {
		return uuid.Nil, fmt.Errorf("--org is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --org %q: %w", raw, err)
	}
	return id, nil
}

// --- train ---

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train and publish a scoring model for an organization",
	RunE: func(cmd *cobra.Command, args []string) error {
		orgID, err := orgFlag(cmd)
		if err != nil {
			return err
		}
		b, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()

		result := b.learning.Service().Train(cmd.Context(), orgID)
		printStatus("status", "%s", result.Status)
		printStatus("examples", "%d", result.Examples)
		if result.Metrics != nil {
			printStatus("accuracy", "%.3f", result.Metrics.Accuracy)
			printStatus("f1", "%.3f", result.Metrics.F1)
		}
		if result.Reason != "" {
			printStatus("reason", "%s", result.Reason)
		}

		switch result.Status {
		case learning.StatusPublished:
			printSuccess("Published model v%d", result.Model.Version)
		case learning.StatusFailed:
			return result.Err
		default:
			printWarning("No model published")
		}
		return nil
	},
}

func init() {
	trainCmd.Flags().String("org", "", "organization id")
}

// --- models ---

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect and roll back scoring models",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List model versions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		orgID, err := orgFlag(cmd)
		if err != nil {
			return err
		}
		b, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()

		models, err := b.learning.Service().ListModels(cmd.Context(), orgID)
		if err != nil {
			return err
		}
		if len(models) == 0 {
			printWarning("No models trained yet")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "VERSION\tACTIVE\tEXAMPLES\tACCURACY\tCREATED")
		for _, m := range models {
			active := ""
			if m.IsActive {
				active = "*"
			}
			fmt.Fprintf(w, "%d\t%s\t%d\t%.3f\t%s\n", m.Version, active, m.TrainedOnCount, m.Metrics.Accuracy, m.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var modelsActivateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Make a stored model version the active one",
	RunE: func(cmd *cobra.Command, args []string) error {
		orgID, err := orgFlag(cmd)
		if err != nil {
			return err
		}
		rawVersion, _ := cmd.Flags().GetString("version")
		version, err := strconv.Atoi(rawVersion)
		if err != nil || version < 1 {
			return fmt.Errorf("--version must be a positive integer")
		}
		b, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()

		m, err := b.learning.Service().Activate(cmd.Context(), orgID, version)
		if err != nil {
			return err
		}
		printSuccess("Model v%d is now active", m.Version)
		return nil
	},
}

func init() {
	modelsListCmd.Flags().String("org", "", "organization id")
	modelsActivateCmd.Flags().String("org", "", "organization id")
	modelsActivateCmd.Flags().String("version", "", "model version to activate")
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsActivateCmd)
}

// --- icp ---

var icpCmd = &cobra.Command{
	Use:   "icp",
	Short: "Manage ideal customer profile criteria",
}

var icpSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace an organization's active criteria from a YAML file",
	Long: `Replace an organization's active criteria from a YAML file.

Example file:
  criteria:
    - name: Company size
      type: company_size
      weight: 30
      ideal_values: ["51-200", "201-500"]
      is_required: true`,
	RunE: func(cmd *cobra.Command, args []string) error {
		orgID, err := orgFlag(cmd)
		if err != nil {
			return err
		}
		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			return fmt.Errorf("--file is required")
		}

		criteria, warnings, err := icp.LoadFile(path)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			printWarning("%s", w)
		}

		b, err := openBackend(cmd.Context())
		if err != nil {
			return err
		}
		defer b.Close()

		if err := icp.NewRepository(b.pool).Replace(cmd.Context(), orgID, criteria); err != nil {
			return err
		}
		printSuccess("Seeded %d criteria", len(criteria))
		return nil
	},
}

func init() {
	icpSeedCmd.Flags().String("org", "", "organization id")
	icpSeedCmd.Flags().String("file", "", "YAML criteria file")
	icpCmd.AddCommand(icpSeedCmd)
}
