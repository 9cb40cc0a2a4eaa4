package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reachpoint/replybot/internal/platform"
	"github.com/reachpoint/replybot/internal/scorer"
	"github.com/reachpoint/replybot/pkg/platformapi"
)

var scoreLimit int

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Search the platform and rank candidates without replying",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := validatePlatform(); err != nil {
			return err
		}
		if err := scorer.ValidateConfig(cfg.Scorer); err != nil {
			return err
		}

		client := platformapi.NewClient(cfg.Platform.Token, cfg.Platform.BaseURL)
		items, err := client.Search(ctx, platform.Query{
			Text:       cfg.Platform.SearchQuery,
			Keywords:   cfg.Platform.IncludeKeywords,
			MaxResults: cfg.Platform.MaxResults,
			Language:   cfg.Platform.Language,
		})
		if err != nil {
			return err
		}

		ranked := scorer.New(cfg.Scorer).Rank(items)
		if scoreLimit > 0 && len(ranked) > scoreLimit {
			ranked = ranked[:scoreLimit]
		}

		writeScoreTable(os.Stdout, ranked)
		return nil
	},
}

func writeScoreTable(w io.Writer, ranked []scorer.Scored) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tID\tAUTHOR\tNICHE\tELIG\tMONET\tTEXT")
	for i, sc := range ranked {
		author := ""
		if sc.Item.Author != nil {
			author = "@" + sc.Item.Author.Username
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%.2f\t%.0f\t%s\n",
			i+1, sc.Item.ID, author, sc.Niche,
			sc.EligibilityScore, sc.MonetizationScore,
			truncate(sc.Item.Text, 60),
		)
	}
	tw.Flush()
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func init() {
	scoreCmd.Flags().IntVar(&scoreLimit, "limit", 10, "maximum candidates to show")
	rootCmd.AddCommand(scoreCmd)
}
