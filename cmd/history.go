package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reachpoint/replybot/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent replies from the history store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		replies, err := st.ListRecent(ctx, historyLimit)
		if err != nil {
			return err
		}

		writeHistoryTable(os.Stdout, replies)
		return nil
	},
}

func writeHistoryTable(w io.Writer, replies []store.Reply) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tTARGET\tNICHE\tMODE\tTEXT")
	for _, r := range replies {
		mode := "posted"
		if r.DryRun {
			mode = "dry-run"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.TargetID, r.Niche, mode,
			truncate(r.Text, 60),
		)
	}
	tw.Flush()
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum replies to show")
	rootCmd.AddCommand(historyCmd)
}
