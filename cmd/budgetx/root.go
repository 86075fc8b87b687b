package main

import (
	"io"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joseph-ayodele/budget-extractor/internal/common"
)

type cli struct {
	cfgFile string
	noColor bool

	v      *viper.Viper
	cfg    *common.Config
	logger *slog.Logger
	out    io.Writer
}

func newRootCmd() *cobra.Command {
	c := &cli{v: common.NewViper()}

	root := &cobra.Command{
		Use:   "budgetx",
		Short: "Extract project budgets from Thai academic proposal PDFs",
		Long: `budgetx reads a project proposal PDF, pulls out the project name, the responsible
person and the itemised budget, validates the result and stores it.

Extraction backends: regex (rule based, offline), openai (any OpenAI compatible
endpoint, Groq by default) and gemini.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&c.cfgFile, "config", "c", "", "config file (default ./budgetx.yaml when present)")
	pf.String("db-driver", "", "database driver: sqlite or postgres")
	pf.String("db-dsn", "", "database DSN")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text or json")
	pf.String("backend", "", "default extraction backend: regex, openai, gemini")
	pf.String("rules", "", "YAML file overriding the regex extraction rules")
	pf.BoolVar(&c.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newExtractCmd(c),
		newProjectsCmd(c),
		newExportCmd(c),
		newBatchCmd(c),
		newServeCmd(c),
		newMCPCmd(c),
		newDBCmd(c),
	)
	return root
}

func (c *cli) init(cmd *cobra.Command) error {
	// .env is optional
	_ = godotenv.Load()
	c.out = cmd.OutOrStdout()

	if err := common.BindFlags(c.v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := common.LoadConfig(c.v, c.cfgFile)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = newLogger(cfg.Log, cmd.ErrOrStderr())
	slog.SetDefault(c.logger)
	return nil
}

func newLogger(cfg common.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	opts.ReplaceAttr = func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey {
			return slog.Attr{}
		}
		return a
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
