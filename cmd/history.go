package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/DeprecatedLuke/oh-my-pi/internal/history"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently recorded sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.Open()
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()

		runs, err := store.List(flagHistoryLimit)
		if err != nil {
			return fmt.Errorf("list history: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No recorded sessions.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tEXIT\tFLAGS\tCOMMAND")
		for _, r := range runs {
			exit := "-"
			if r.ExitCode != nil {
				exit = fmt.Sprintf("%d", *r.ExitCode)
			}
			flags := ""
			if r.TimedOut {
				flags += "T"
			}
			if r.Dismissed {
				flags += "D"
			}
			if r.Truncated {
				flags += "…"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				r.FinishedAt.Format("2006-01-02 15:04"), exit, flags, r.Command)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "maximum entries to show")
	rootCmd.AddCommand(historyCmd)
}
