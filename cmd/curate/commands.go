package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ecotraits/curate/pkg/audit"
	"github.com/ecotraits/curate/pkg/cleaner"
	"github.com/ecotraits/curate/pkg/diversity"
	"github.com/ecotraits/curate/pkg/model"
	"github.com/ecotraits/curate/pkg/pipeline"
	"github.com/ecotraits/curate/pkg/table"
	"github.com/ecotraits/curate/pkg/taxonomy"
	"github.com/ecotraits/curate/pkg/validate"
)

var (
	planPath string
	dictPath string
	nmdsDims int
)

// validateCmd runs the rule set against one dataset and reports findings
var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Run the validation rule set against a dataset",
	Long: `Evaluates every rule against the table and prints all findings.
Rules are independent and failures accumulate; the command exits non-zero
when any finding is produced so it can gate downstream steps.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, schema, err := loadDataset(args[0])
		if err != nil {
			return err
		}

		rules, err := buildRules(schema)
		if err != nil {
			return err
		}

		findings := rules.Evaluate(t, schema)
		for _, finding := range findings {
			fmt.Println(finding.String())
		}
		fmt.Printf("%d rows, %d rules, %d findings\n", t.RowCount(), rules.Len(), len(findings))

		if len(findings) > 0 {
			return fmt.Errorf("validation produced %d findings", len(findings))
		}
		return nil
	},
}

// cleanCmd applies a cleaning plan to one dataset
var cleanCmd = &cobra.Command{
	Use:   "clean [file]",
	Short: "Apply a cleaning plan to a dataset and write the cleaned table",
	Long: `Runs the dataset through the full curation sequence: validate,
apply the plan's transforms in order, re-validate, write the cleaned table
and verify the written output. The cleaning log is printed and, when an
audit database is configured, persisted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := signalContext()

		manager, closeAudit, err := buildManager(ctx)
		if err != nil {
			return err
		}
		defer closeAudit()

		result, err := manager.CurateFile(ctx, args[0])
		if err != nil {
			return err
		}

		printCleaningLog(result)

		if !result.Success {
			return fmt.Errorf("curation failed for %s", result.Dataset)
		}
		fmt.Printf("wrote %s (%d rows, %d removed, verified=%v)\n",
			result.OutputPath, result.RowsWritten, result.RowsRemoved, result.Verified)
		return nil
	},
}

// statsCmd prints per-plot diversity summaries
var statsCmd = &cobra.Command{
	Use:   "stats [file]",
	Short: "Compute per-plot diversity indices",
	Long: `Aggregates observations into a community matrix grouped by the
configured columns and prints richness, Shannon diversity, Pielou evenness
and the Gini-Simpson index for every sample.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		matrix, err := loadMatrix(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%-28s %10s %9s %9s %9s %9s\n",
			"sample", "count", "richness", "shannon", "evenness", "simpson")
		for _, s := range diversity.Summarize(matrix) {
			fmt.Printf("%-28s %10.0f %9d %9.3f %9.3f %9.3f\n",
				s.Sample, s.Individuals, s.Richness, s.Shannon, s.Evenness, s.Simpson)
		}
		return nil
	},
}

// ordinateCmd runs NMDS on the Bray-Curtis dissimilarities
var ordinateCmd = &cobra.Command{
	Use:   "ordinate [file]",
	Short: "Run NMDS ordination on Bray-Curtis dissimilarities",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		matrix, err := loadMatrix(args[0])
		if err != nil {
			return err
		}

		dissim := diversity.BrayCurtis(matrix)
		result, err := diversity.NMDS(matrix.Samples, dissim, diversity.NMDSConfig{
			Dimensions: nmdsDims,
			Seed:       cfg.NMDSSeed,
		})
		if err != nil {
			return err
		}

		fmt.Printf("stress: %.4f (%d iterations)\n", result.Stress, result.Iterations)
		for i, sample := range result.Samples {
			fmt.Printf("%-28s", sample)
			for d := 0; d < nmdsDims; d++ {
				fmt.Printf(" %9.4f", result.Points.At(i, d))
			}
			fmt.Println()
		}
		return nil
	},
}

// runCmd curates every dataset in the configured data directory
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Curate every dataset in the data directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := signalContext()

		manager, closeAudit, err := buildManager(ctx)
		if err != nil {
			return err
		}
		defer closeAudit()

		if cfg.WorkerPoolSize > 0 {
			manager.WithWorkerCount(cfg.WorkerPoolSize)
		}

		paths, err := manager.DiscoverDatasets(cfg.DataDir)
		if err != nil {
			return err
		}

		summary, err := manager.Run(ctx, paths)
		if err != nil {
			return err
		}

		fmt.Print(manager.GenerateReport())

		if len(summary.FailedDatasets) > 0 {
			return fmt.Errorf("%d of %d datasets failed",
				len(summary.FailedDatasets), len(summary.Datasets))
		}
		return nil
	},
}

func init() {
	cleanCmd.Flags().StringVar(&planPath, "plan", "", "cleaning plan YAML (default from CLEANING_PLAN env)")
	cleanCmd.Flags().StringVar(&dictPath, "dictionary", "", "taxon dictionary YAML (default from TAXON_DICTIONARY env)")
	runCmd.Flags().StringVar(&planPath, "plan", "", "cleaning plan YAML (default from CLEANING_PLAN env)")
	runCmd.Flags().StringVar(&dictPath, "dictionary", "", "taxon dictionary YAML (default from TAXON_DICTIONARY env)")
	ordinateCmd.Flags().IntVar(&nmdsDims, "dimensions", 2, "number of ordination dimensions")
}

// loadDataset reads one dataset and derives its schema
func loadDataset(path string) (*table.Table, *model.Schema, error) {
	t, err := table.ReadFile(path, table.ReadOptions{Delimiter: cfg.Delimiter, TrimCells: true})
	if err != nil {
		return nil, nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return t, model.DefaultSchema(name), nil
}

// loadMatrix reads a dataset and aggregates it into a community matrix
func loadMatrix(path string) (*diversity.CommunityMatrix, error) {
	t, _, err := loadDataset(path)
	if err != nil {
		return nil, err
	}
	return diversity.BuildMatrix(t, cfg.GroupColumns)
}

// buildRules constructs the standard rule set for a schema
func buildRules(schema *model.Schema) (*validate.RuleSet, error) {
	rules, err := validate.NewRuleSet(logger, validate.SchemaRules(schema)...)
	if err != nil {
		return nil, err
	}
	rules.Add(validate.RowCountRule(cfg.MinRows))
	return rules, nil
}

// buildManager assembles the curation pipeline from configuration. The
// returned closer releases the audit recorder, if any.
func buildManager(ctx context.Context) (*pipeline.Manager, func(), error) {
	schema := model.DefaultSchema("observations")

	rules, err := buildRules(schema)
	if err != nil {
		return nil, nil, err
	}

	var dict *taxonomy.Dictionary
	if path := firstNonEmpty(dictPath, cfg.DictionaryPath); path != "" {
		dict, err = taxonomy.LoadFile(path)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Loaded taxon dictionary",
			zap.String("path", path),
			zap.Int("variants", dict.Len()))
	}

	var transforms []cleaner.Transform
	if path := firstNonEmpty(planPath, cfg.PlanPath); path != "" {
		plan, err := cleaner.LoadPlan(path)
		if err != nil {
			return nil, nil, err
		}
		transforms, err = plan.Build(dict)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Loaded cleaning plan",
			zap.String("path", path),
			zap.Int("transforms", len(transforms)))
	}

	var (
		recorder   cleaner.Recorder
		closeAudit = func() {}
	)
	if cfg.AuditDSN != "" {
		pg, err := audit.NewPostgresRecorder(ctx, cfg.AuditDSN, logger)
		if err != nil {
			return nil, nil, err
		}
		recorder = pg
		closeAudit = func() {
			if err := pg.Close(); err != nil {
				logger.Warn("Failed to close audit recorder", zap.Error(err))
			}
		}
	}

	dataCleaner, err := cleaner.NewCleaner(logger, recorder, transforms...)
	if err != nil {
		closeAudit()
		return nil, nil, err
	}

	manager := pipeline.NewManager(schema, rules, dataCleaner, logger, cfg.OutputDir, cfg.Delimiter)
	return manager, closeAudit, nil
}

// printCleaningLog prints the ordered transform log of a result
func printCleaningLog(result *pipeline.DatasetResult) {
	for _, summary := range result.CleaningLog {
		fmt.Printf("%-24s rows affected: %d\n", summary.Name, summary.RowsAffected)
	}
	fmt.Printf("findings before: %d, after: %d\n",
		len(result.PreFindings), len(result.PostFindings))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// signalContext returns a context cancelled on SIGINT/SIGTERM
func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx
}
