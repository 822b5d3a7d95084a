package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"attendscript/internal/interp"
)

func init() {
	cmd := &cobra.Command{
		Use:   "exec [command]",
		Short: "Execute script commands without a file",
		Long:  "Execute script commands given as arguments or piped via stdin. Runs are not recorded in history.",
		Run:   runExec,
	}

	RootCmd.AddCommand(cmd)
}

func runExec(cmd *cobra.Command, args []string) {
	var src string
	if len(args) > 0 {
		src = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			src = string(b)
		}
	}
	if strings.TrimSpace(src) == "" {
		exitErr("exec", fmt.Errorf("a command is required (argument or stdin)"))
	}

	cfg := loadConfig()
	log := newLogger(cfg)
	defer log.Sync()

	in := interp.New(log, geminiFactory)
	ec := interp.NewContext(settingsFrom(cfg))
	execErr := in.Execute(cmd.Context(), ec, src, "(exec)")

	for _, o := range ec.Output {
		fmt.Println(o.Text)
	}
	if execErr != nil {
		exitErr("exec", execErr)
	}
}
