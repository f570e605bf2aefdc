package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/OndrejSlamecka/s5upload/internal/config"
	"github.com/OndrejSlamecka/s5upload/internal/s3site"
	"github.com/OndrejSlamecka/s5upload/internal/sync"
)

const envPrefix = "S5UPLOAD"

// flag name -> config key
var boundFlags = map[string]string{
	"bucket":       "bucket",
	"dir":          "dir",
	"prefix":       "prefix",
	"distribution": "distribution",
	"region":       "region",
	"profile":      "profile",
	"workers":      "workers",
	"max-tries":    "max_tries",
	"encrypt":      "encrypt",
}

type runFlags struct {
	dryRun, printDefault, save,
	verbose, quiet bool
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	rf := &runFlags{}

	cmd := &cobra.Command{
		Use:   "s5upload",
		Short: "Simple Storage Service static site uploader",
		Long: "Uploads new and changed files of a static site to an S3 bucket, sets their\n" +
			"Cache-Control header by pattern and invalidates CloudFront afterwards.\n" +
			"Prints '+\\t/key' for every file uploaded. Nothing is ever deleted from the bucket.\n" +
			"Reads its configuration from " + config.DefaultPath + " (see --default-config).",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), rf.verbose, rf.quiet))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rf.printDefault {
				return printDefaultConfig(cmd)
			}

			cfg, err := loadConfig(v, cmd)
			if err != nil {
				return exitErr(CmdLineOptionError, err)
			}
			if rf.save {
				path, _ := cmd.Flags().GetString("config")
				if err := cfg.Save(path); err != nil {
					return exitErr(SetupFailed, err)
				}
				slog.Info("saved config", "path", path)
			}
			if err := cfg.Validate(); err != nil {
				return exitErr(CmdLineOptionError, err)
			}
			cmd.SilenceUsage = true

			b, inv, err := newRemote(cfg, rf.dryRun)
			if err != nil {
				return exitErr(SetupFailed, err)
			}

			out := cmd.OutOrStdout()
			if rf.quiet {
				out = io.Discard
			}
			_, err = syncSite(cmd.Context(), cfg, b, inv, rf.dryRun, out)
			return err
		},
	}

	flags := cmd.Flags()
	flags.SortFlags = false
	flags.StringP("config", "c", config.DefaultPath, "Config file location")
	flags.StringP("dir", "d", "", "Directory with the site")
	flags.StringP("bucket", "b", "", "Bucket to upload files to")
	flags.String("distribution", "", "CloudFront distribution ID to invalidate")
	flags.String("prefix", "", "Key prefix inside the bucket")
	flags.String("region", "", "AWS region")
	flags.String("profile", "", "AWS shared profile")
	flags.Int("workers", 0, "No. of concurrent uploads (default 2 per CPU)")
	flags.Int("max-tries", 0, "Attempts per file before giving up (default 5)")
	flags.Bool("encrypt", false, "Encrypt files on server side")
	flags.BoolVarP(&rf.dryRun, "dry-run", "n", false, "Do not upload, just print the plan")
	flags.BoolVarP(&rf.printDefault, "default-config", "p", false, "Print the default configuration and exit")
	flags.BoolVar(&rf.save, "save", false, "Save the effective configuration to the config file")
	flags.BoolVarP(&rf.verbose, "verbose", "v", false, "Log every file considered")
	flags.BoolVarP(&rf.quiet, "quiet", "q", false, "Print only warnings and errors")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	return cmd
}

// loadConfig layers the config file, S5UPLOAD_* environment variables and flags,
// in increasing order of precedence. A missing default config file is fine; a
// missing explicit one is not.
func loadConfig(v *viper.Viper, cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.Is(err, os.ErrNotExist) || errors.As(err, &notFound)
		if !missing || cmd.Flags().Changed("config") {
			return nil, fmt.Errorf("config read '%s': %w", path, err)
		}
		slog.Debug("no config file, using defaults", "path", path)
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := boundFlags[f.Name]; ok {
			bindErr = errors.Join(bindErr, v.BindPFlag(key, f))
		}
	})
	if bindErr != nil {
		return nil, bindErr
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	return config.Load(v)
}

// printDefaultConfig prints the built-in configuration, completed with the
// dir, bucket and distribution flags when given.
func printDefaultConfig(cmd *cobra.Command) error {
	cfg := config.Default()
	cfg.Dir, _ = cmd.Flags().GetString("dir")
	cfg.Bucket, _ = cmd.Flags().GetString("bucket")
	cfg.Distribution, _ = cmd.Flags().GetString("distribution")

	data, err := cfg.Marshal()
	if err != nil {
		return exitErr(SetupFailed, err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// newRemote builds the S3 bucket and, when configured, the CloudFront
// distribution. A dry run never invalidates.
func newRemote(cfg *config.Config, dryRun bool) (*s3site.Bucket, sync.Invalidator, error) {
	sess, err := s3site.NewSession(s3site.Options{Region: cfg.Region, Profile: cfg.Profile})
	if err != nil {
		return nil, nil, fmt.Errorf("aws session: %w", err)
	}

	b := s3site.NewBucket(sess, cfg.Bucket)
	b.Encrypt = cfg.Encrypt

	if cfg.Distribution == "" || dryRun {
		return b, nil, nil
	}
	d := s3site.NewDistribution(sess, cfg.Distribution)
	d.Prefix = cfg.Prefix
	return b, d, nil
}

func newLogger(w io.Writer, verbose, quiet bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelWarn
	}

	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	}))
}
