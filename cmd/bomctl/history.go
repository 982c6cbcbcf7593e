package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/structdraw/backend/internal/history"
)

var (
	historyDir   string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded exports, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyDir, "dir", "./data/history", "history directory")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum entries to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.NewStore(historyDir)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	entries, err := store.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No exports recorded")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tFILE\tFORMAT\tROWS\tBYTES")
	for _, e := range entries {
		when := time.UnixMilli(e.CreatedAt).Format("2006-01-02 15:04:05")
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", when, e.FileName, e.Format, e.RowCount, e.ByteSize)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	total, err := store.Count(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nShowing %d of %d exports\n", len(entries), total)
	return nil
}
