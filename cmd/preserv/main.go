package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/CireWire/preserv/internal/audit"
	"github.com/CireWire/preserv/internal/config"
	"github.com/CireWire/preserv/internal/core"
	"github.com/CireWire/preserv/internal/manifest"
	"github.com/CireWire/preserv/internal/report"
	"github.com/CireWire/preserv/pkg/models"
)

var (
	version = "1.0.0"
	verbose bool
)

// errDrift signals a verify pass that found modified or missing files.
// It maps to exit code 1; fatal errors exit 2.
var errDrift = errors.New("integrity drift detected")

func main() {
	rootCmd := &cobra.Command{
		Use:   "preserv",
		Short: "Preserv - archive integrity checker",
		Long: `Preserv maintains cryptographic proof that a preserved directory tree
has not changed over time. It records per-file SHA-256 checksums in a
manifest and later classifies every file as unchanged, modified,
missing or new, re-hashing only what metadata says may have changed.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print per-file progress")

	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(verifyCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(logCmd())

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errDrift) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}

// loadConfig loads configuration and applies the archive path argument.
func loadConfig(args []string) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if len(args) > 0 {
		cfg.ArchivePath = args[0]
	}
	if cfg.ArchivePath == "" {
		return nil, errors.New("no archive path given (argument or archive_path in preserv.yaml)")
	}
	return cfg, nil
}

// openLog opens the activity log at the configured location and level.
func openLog(cfg *config.Config) (*audit.Log, error) {
	level, err := audit.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return audit.New(cfg.LogFile, level)
}

func newEngine(cfg *config.Config, log *audit.Log) (*core.Engine, error) {
	e, err := core.NewEngine(cfg, log)
	if err != nil {
		return nil, err
	}
	if verbose {
		e.SetProgressCallback(func(rel string, outcome models.Outcome) {
			fmt.Printf("  [%s] %s\n", outcome, rel)
		})
	}
	return e, nil
}

// generateCmd creates the generate command.
func generateCmd() *cobra.Command {
	var (
		manifestPath string
		workers      int
		exclude      []string
		excludeFile  string
		logLevel     string
	)

	cmd := &cobra.Command{
		Use:   "generate [path]",
		Short: "Generate a fresh integrity manifest for an archive",
		Long:  `Walk the archive, hash every regular file, and write the manifest atomically.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args)
			if err != nil {
				return err
			}
			applyOverrides(cfg, manifestPath, workers, exclude, excludeFile, logLevel)

			log, err := openLog(cfg)
			if err != nil {
				return err
			}
			defer log.Close()

			engine, err := newEngine(cfg, log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, summary, err := engine.Generate(ctx, cfg.ArchivePath)
			if summary != nil {
				fmt.Print(report.RenderGenerateSummary(summary))
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Manifest file path")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of hashing workers")
	cmd.Flags().StringSliceVarP(&exclude, "exclude", "e", nil, "Directory names to exclude")
	cmd.Flags().StringVar(&excludeFile, "exclude-file", "", "YAML file with exclude patterns")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Minimum persisted log severity (debug, info, warning, error)")
	return cmd
}

// verifyCmd creates the verify command.
func verifyCmd() *cobra.Command {
	var (
		manifestPath string
		workers      int
		exclude      []string
		excludeFile  string
		logLevel     string
		addNew       bool
		deep         bool
		reportFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "verify [path]",
		Short: "Verify an archive against its manifest",
		Long: `Classify every file as unchanged, modified, missing or new. Exits 0 on
a clean pass, 1 when modified or missing files exist, 2 on fatal errors.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args)
			if err != nil {
				return err
			}
			applyOverrides(cfg, manifestPath, workers, exclude, excludeFile, logLevel)
			if addNew {
				cfg.AddNewFiles = true
			}
			if deep {
				cfg.DeepVerify = true
			}
			if reportFormat != "" {
				cfg.ReportFormat = reportFormat
			}
			if outputFile != "" {
				cfg.OutputFile = outputFile
			}

			log, err := openLog(cfg)
			if err != nil {
				return err
			}
			defer log.Close()

			engine, err := newEngine(cfg, log)
			if err != nil {
				return err
			}

			man, err := engine.Store().Load()
			if err != nil {
				if errors.Is(err, manifest.ErrNotFound) {
					return fmt.Errorf("no manifest at %s; run generate first", cfg.ManifestPath)
				}
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rep, verifyErr := engine.Verify(ctx, cfg.ArchivePath, man)
			if rep == nil {
				return verifyErr
			}

			// A cancelled run still renders its partial report.
			gen := report.NewGenerator(cfg, log)
			if _, err := gen.Verification(rep); err != nil {
				return err
			}
			if verifyErr != nil {
				return verifyErr
			}
			if cfg.ReportFormat != "" {
				// A file report was written; still give the console the
				// one-line summary.
				fmt.Printf("Integrity check complete. OK: %d, Modified: %d, Missing: %d, New: %d\n",
					rep.Unchanged, rep.Modified, rep.Missing, rep.New)
			}

			if !rep.Clean() {
				return fmt.Errorf("%w: %d modified, %d missing", errDrift, rep.Modified, rep.Missing)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Manifest file path")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of hashing workers")
	cmd.Flags().StringSliceVarP(&exclude, "exclude", "e", nil, "Directory names to exclude")
	cmd.Flags().StringVar(&excludeFile, "exclude-file", "", "YAML file with exclude patterns")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Minimum persisted log severity (debug, info, warning, error)")
	cmd.Flags().BoolVarP(&addNew, "add-new", "a", false, "Absorb new files into the manifest")
	cmd.Flags().BoolVarP(&deep, "deep", "d", false, "Rehash every file regardless of metadata")
	cmd.Flags().StringVarP(&reportFormat, "report", "r", "", "Report format: text, json")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Report output file")
	return cmd
}

// statsCmd creates the stats command.
func statsCmd() *cobra.Command {
	var manifestPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show statistics about the current manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if manifestPath != "" {
				cfg.ManifestPath = manifestPath
			}

			store := manifest.NewStore(cfg.ManifestPath)
			if !store.Exists() {
				fmt.Printf("No manifest at %s\n", cfg.ManifestPath)
				return nil
			}
			man, err := store.Load()
			if err != nil {
				return err
			}

			fmt.Printf("Manifest:        %s\n", cfg.ManifestPath)
			fmt.Printf("Tracked files:   %s\n", humanize.Comma(int64(man.Len())))
			fmt.Printf("Total size:      %s\n", humanize.Bytes(uint64(man.TotalSize())))
			if newest := man.NewestGeneratedAt(); !newest.IsZero() {
				fmt.Printf("Last generated:  %s (%s)\n", newest.Format("2006-01-02 15:04:05"), humanize.Time(newest))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "Manifest file path")
	return cmd
}

// logCmd creates the log command.
func logCmd() *cobra.Command {
	var lines int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Print recent activity log entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			level, err := audit.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			log, err := audit.New(cfg.LogFile, level)
			if err != nil {
				return err
			}
			defer log.Close()

			entries, err := log.Tail(lines)
			if err != nil {
				return err
			}
			for _, line := range entries {
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 100, "Number of trailing lines to print")
	return cmd
}

// applyOverrides layers CLI flags over the loaded configuration.
func applyOverrides(cfg *config.Config, manifestPath string, workers int, exclude []string, excludeFile, logLevel string) {
	if manifestPath != "" {
		cfg.ManifestPath = manifestPath
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if len(exclude) > 0 {
		cfg.Exclude = exclude
	}
	if excludeFile != "" {
		cfg.ExcludeFile = excludeFile
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
}
