// Package cli implements the attendscript CLI commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"attendscript/internal/audit"
	"attendscript/internal/config"
	"attendscript/internal/interp"
	"attendscript/internal/policy"
	"attendscript/internal/resolve"
)

var (
	dbFlag  string
	verbose bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "attendscript",
	Short: "Attendance tracking driven by scripts",
	Long: "attendscript maintains a class attendance roster from check-in and Zoom\n" +
		"exports, driven by a small line-oriented script language.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbFlag, "db", "d", "", "Run history database path (default: $ATTEND_AUDIT_DB or ~/.attendscript/history.db)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		exitErr("load config", err)
	}
	if dbFlag != "" {
		cfg.AuditDB = dbFlag
	}
	return cfg
}

func newLogger(cfg *config.Config) *zap.Logger {
	level := zapcore.InfoLevel
	if err := level.Set(cfg.LogLevel); err != nil {
		level = zapcore.InfoLevel
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	log, err := zc.Build()
	if err != nil {
		exitErr("build logger", err)
	}
	return log
}

// settingsFrom converts validated config into session settings. Load has
// already checked that the cutoffs parse.
func settingsFrom(cfg *config.Config) interp.Settings {
	early, _ := policy.ParseTimeOfDay(cfg.EarlyBird)
	regular, _ := policy.ParseTimeOfDay(cfg.Regular)
	return interp.Settings{
		EarlyBird:     early,
		Regular:       regular,
		ZoomCut:       cfg.ZoomCutMinutes,
		GeminiEnabled: cfg.GeminiEnabled,
		GeminiAPIKey:  cfg.GeminiAPIKey,
		GeminiModel:   cfg.GeminiModel,
	}
}

func geminiFactory(ctx context.Context, s interp.Settings) (resolve.Matcher, error) {
	return resolve.NewGeminiMatcher(ctx, s.GeminiAPIKey, s.GeminiModel)
}

func openAudit(cfg *config.Config) *audit.Log {
	l, err := audit.Open(cfg.AuditDB)
	if err != nil {
		exitErr("open run history", err)
	}
	return l
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
