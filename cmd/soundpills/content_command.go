package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"soundpills/internal/content"
	"soundpills/internal/logging"
)

func newContentCommand(ctx *commandContext) *cobra.Command {
	var sectionsOnly bool

	cmd := &cobra.Command{
		Use:   "content",
		Short: "Load and print the content snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.commandLogger(false)
			if err != nil {
				return err
			}
			src := content.NewSource(cfg)
			snap := content.Load(cmd.Context(), src, logger)
			if snap.Err != nil {
				return snap.Err
			}

			out := cmd.OutOrStdout()
			usable := snap.Usable(cfg.Spawn.Sections)
			fmt.Fprintf(out, "%s (%s)\n", snap.Title, src.Describe())
			fmt.Fprintf(out, "%d item(s), %d eligible for spawning\n", len(snap.Items), len(usable))

			items := snap.Items
			if sectionsOnly {
				items = usable
			}
			if len(items) > 0 {
				fmt.Fprintln(out, renderTable(
					[]string{"Order", "Section", "Text", "Expands", "Link", "Classes"},
					itemRows(items),
					[]columnAlignment{alignRight},
				))
			}
			if len(snap.InfoCards) > 0 {
				rows := make([][]string, 0, len(snap.InfoCards))
				for _, card := range snap.InfoCards {
					rows = append(rows, []string{card.Title, card.Body})
				}
				fmt.Fprintln(out, renderTable([]string{"Info", "Body"}, rows, nil))
			}
			if len(snap.NewsItems) > 0 {
				rows := make([][]string, 0, len(snap.NewsItems))
				for _, news := range snap.NewsItems {
					rows = append(rows, []string{news.Text, news.URL})
				}
				fmt.Fprintln(out, renderTable([]string{"News", "URL"}, rows, nil))
			}
			logger.Debug("content listed", logging.Int("items", len(items)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&sectionsOnly, "eligible", false, "Only list items from the configured spawn sections")
	return cmd
}

func itemRows(items []content.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{
			strconv.Itoa(item.Order),
			item.Section,
			item.Text,
			yesNo(item.HasDetail()),
			item.Link(),
			strings.Join(item.ClassTokens, " "),
		})
	}
	return rows
}
