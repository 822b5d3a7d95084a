package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show past script runs",
		Long:  "List recent script runs, or show the output log of one run by ID.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runHistory,
	}

	cmd.Flags().IntP("limit", "l", 20, "Max runs to list")
	cmd.Flags().Bool("json", false, "JSON output")

	RootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	hist := openAudit(cfg)
	defer hist.Close()

	asJSON, _ := cmd.Flags().GetBool("json")

	if len(args) == 1 {
		outs, err := hist.Outputs(cmd.Context(), args[0])
		if err != nil {
			exitErr("history", err)
		}
		if asJSON {
			b, _ := json.MarshalIndent(outs, "", "  ")
			fmt.Println(string(b))
			return
		}
		for _, o := range outs {
			fmt.Printf("line %d  %s\n%s\n", o.Line, o.Command, o.Text)
		}
		return
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := hist.Recent(cmd.Context(), limit)
	if err != nil {
		exitErr("history", err)
	}
	if asJSON {
		b, _ := json.MarshalIndent(runs, "", "  ")
		fmt.Println(string(b))
		return
	}
	for _, r := range runs {
		status := "ok"
		if !r.Success {
			status = "failed"
		}
		fmt.Printf("%s  %s  %-6s  %s (%d commands)\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), status, r.Script, r.Commands)
		if r.Error != "" {
			fmt.Printf("    %s\n", r.Error)
		}
	}
}
