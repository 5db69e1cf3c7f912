package main

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"soundpills/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openJournal(cmd, ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			sessions, err := store.ListSessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions recorded")
				return nil
			}
			rows := make([][]string, 0, len(sessions))
			for _, s := range sessions {
				rows = append(rows, []string{
					shortID(s.ID),
					formatTimestamp(s.StartedAt),
					formatDuration(s.Duration()),
					string(s.Status),
					strconv.Itoa(s.SpawnCount),
					s.ContentTitle,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Session", "Started", "Duration", "Status", "Spawns", "Content"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight},
			))
			return nil
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum sessions to list (0 lists all)")

	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	return historyCmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "show <session>",
		Short: "Show one session and its spawns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openJournal(cmd, ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			session, err := store.GetSession(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, journal.ErrNotFound) {
					return fmt.Errorf("no session matches %q", args[0])
				}
				return err
			}
			summary, err := store.Summarize(cmd.Context(), session.ID)
			if err != nil {
				return err
			}
			spawns, err := store.ListSpawns(cmd.Context(), session.ID, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderFields(sessionFields(session, summary)))
			if len(spawns) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(spawns))
			for _, sp := range spawns {
				rows = append(rows, []string{
					sp.CreatedAt.Sub(session.StartedAt).Round(time.Millisecond).String(),
					sp.Kind,
					sp.Label,
					sp.Section,
					fmt.Sprintf("%.0f,%.0f", sp.X, sp.Y),
					strconv.FormatFloat(sp.RMS, 'f', 2, 64),
					formatLifetime(sp),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"At", "Kind", "Label", "Section", "Position", "RMS", "Lived"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum spawns to list (0 lists all)")
	return cmd
}

func openJournal(cmd *cobra.Command, ctx *commandContext) (*journal.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Journal.Enabled {
		return nil, errors.New("journal is disabled; set [journal] enabled = true")
	}
	return journal.Open(cmd.Context(), cfg.Journal.Path)
}

func sessionFields(s journal.Session, summary journal.Summary) [][2]string {
	var parts []string
	for _, kind := range slices.Sorted(maps.Keys(summary.ByKind)) {
		parts = append(parts, fmt.Sprintf("%s %d", kind, summary.ByKind[kind]))
	}
	byKind := valueOrDash(strings.Join(parts, ", "))
	fields := [][2]string{
		{"Session", s.ID},
		{"Status", string(s.Status)},
		{"Started", formatTimestamp(s.StartedAt)},
		{"Duration", formatDuration(s.Duration())},
		{"Audio", valueOrDash(s.AudioSource)},
		{"Content", fmt.Sprintf("%s, %d item(s)", valueOrDash(s.ContentTitle), s.ItemCount)},
		{"Seed", strconv.FormatUint(s.Seed, 10)},
		{"Spawns", strconv.Itoa(summary.Total)},
		{"By kind", byKind},
		{"Peak RMS", strconv.FormatFloat(summary.PeakRMS, 'f', 2, 64)},
	}
	if s.ErrorMessage != "" {
		fields = append(fields, [2]string{"Notes", s.ErrorMessage})
	}
	return fields
}

func formatLifetime(sp journal.Spawn) string {
	if sp.ExpiredAt.IsZero() {
		return "-"
	}
	return sp.ExpiredAt.Sub(sp.CreatedAt).Round(time.Millisecond).String()
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}

func shortID(id string) string {
	if len(id) <= 13 {
		return id
	}
	return id[:13]
}

func valueOrDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
