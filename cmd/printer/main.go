package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ghv/print/internal/cdn"
	"github.com/ghv/print/internal/deploy"
	"github.com/ghv/print/internal/manifest"
	"github.com/ghv/print/internal/storage"
)

var version = "dev"

type options struct {
	configPath  string
	root        string
	variables   map[string]string
	logLevel    string
	logFormat   string
	region      string
	profile     string
	concurrency int
}

func main() {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "printer",
		Short: "Publish a static site to S3 and invalidate its CloudFront cache",
		Long: `printer uploads the files listed in a site's contents.json to S3,
prunes objects that are no longer listed, and invalidates the changed
paths on the site's CloudFront distribution.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, false)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "printer.toml", "path to config file")
	pf.StringVar(&opts.root, "root", "", "site root holding contents.json (default $"+rootEnvVar+" or current folder)")
	pf.StringToStringVar(&opts.variables, "var", nil, "manifest variable as KEY=VALUE (repeatable)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&opts.logFormat, "log-format", "", "log format (text, json)")
	pf.StringVar(&opts.region, "region", "", "AWS region override")
	pf.StringVar(&opts.profile, "profile", "", "AWS shared config profile override")
	pf.IntVar(&opts.concurrency, "concurrency", 0, "number of parallel uploads")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "deploy",
			Short: "Upload changed files, prune removed ones and invalidate the cache",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd.Context(), opts, false)
			},
		},
		&cobra.Command{
			Use:   "plan",
			Short: "Show what a deployment would do without changing anything",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd.Context(), opts, true)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options, dryRun bool) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(&cfg, opts)

	logger, err := setupLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}

	root, err := resolveRoot(opts.root, cfg.Root)
	if err != nil {
		return err
	}

	fs := afero.NewOsFs()
	vars := mergeVariables(cfg.Variables, opts.variables)
	m, err := manifest.Load(fs, filepath.Join(root, manifest.FileName), vars)
	if err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}

	region := cfg.Region
	if region == "" {
		region = m.Region
	}
	profile := cfg.Profile
	if profile == "" {
		profile = m.KeychainItem
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return fmt.Errorf("loading AWS config: %w", err)
	}

	bucket := storage.NewBucket(s3.NewFromConfig(awsCfg), m.Bucket)
	dist := cdn.NewDistribution(cloudfront.NewFromConfig(awsCfg), m.DistributionID, clockwork.NewRealClock())

	d := deploy.New(deploy.Config{
		Root:        root,
		Variables:   vars,
		Concurrency: cfg.Concurrency,
		DryRun:      dryRun,
	}, fs, m, bucket, dist, logger)

	if _, err := d.Run(ctx); err != nil {
		logger.WithError(err).Error("deployment failed")
		return err
	}
	return nil
}

// applyFlags overrides config file values with the ones set on the command
// line and fills in defaults.
func applyFlags(cfg *config, opts *options) {
	if opts.region != "" {
		cfg.Region = opts.region
	}
	if opts.profile != "" {
		cfg.Profile = opts.profile
	}
	if opts.concurrency > 0 {
		cfg.Concurrency = opts.concurrency
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.LogFormat = opts.logFormat
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}
