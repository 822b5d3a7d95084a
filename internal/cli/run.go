package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"attendscript/internal/audit"
	"attendscript/internal/interp"
	"attendscript/internal/tabfile"
)

func init() {
	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Run an attendance script file",
		Long:  "Run an attendance script file. Output is printed line by line and the run is recorded in the history database.",
		Args:  cobra.ExactArgs(1),
		Run:   runRun,
	}

	cmd.Flags().Bool("no-history", false, "Do not record this run")
	cmd.Flags().StringP("roster", "r", "", "Load this roster before the script runs")

	RootCmd.AddCommand(cmd)
}

func runRun(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	log := newLogger(cfg)
	defer log.Sync()

	noHistory, _ := cmd.Flags().GetBool("no-history")
	var hist *audit.Log
	var runID string
	if !noHistory {
		hist = openAudit(cfg)
		defer hist.Close()
		id, err := hist.Begin(cmd.Context(), args[0])
		if err != nil {
			log.Warn("record run start", zap.Error(err))
		} else {
			runID = id
		}
	}

	in := interp.New(log, geminiFactory)
	ec := interp.NewContext(settingsFrom(cfg))

	if rosterPath, _ := cmd.Flags().GetString("roster"); rosterPath != "" {
		r, err := tabfile.LoadRoster(rosterPath)
		if err != nil {
			exitErr("load roster", err)
		}
		ec.Roster = r
		ec.RosterPath = rosterPath
	}

	execErr := in.RunFile(cmd.Context(), ec, args[0])

	for _, o := range ec.Output {
		fmt.Println(o.Text)
	}
	if execErr == nil {
		fmt.Printf("%d commands processed\n", len(ec.Output))
	}

	if runID != "" {
		outs := make([]audit.Output, len(ec.Output))
		for i, o := range ec.Output {
			outs[i] = audit.Output{Line: o.Line, Command: o.Command, Text: o.Text}
		}
		errMsg := ""
		if execErr != nil {
			errMsg = execErr.Error()
		}
		if err := hist.Finish(cmd.Context(), runID, execErr == nil, errMsg, outs); err != nil {
			log.Warn("record run finish", zap.Error(err))
		}
	}

	if execErr != nil {
		exitErr("run", execErr)
	}
}
