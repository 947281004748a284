package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report <game-id>",
	Short: "Print the box score, shot chart and insights for a game",
	Example: `  statsctl report 3
  statsctl report 3 --backup season.json --json`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "List games, newest first",
	Args:  cobra.NoArgs,
	RunE:  runGames,
}

var (
	reportJSON    bool
	reportNoColor bool
)

func init() {
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(gamesCmd)

	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Print the report as JSON")
	reportCmd.Flags().BoolVar(&reportNoColor, "no-color", false, "Disable colored output")
}

func runReport(cmd *cobra.Command, args []string) error {
	gameID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || gameID <= 0 {
		return fmt.Errorf("invalid game id %q", args[0])
	}

	ctx := context.Background()
	svc, closeFn, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	report, err := svc.BuildReport(ctx, gameID)
	if err != nil {
		return err
	}

	if reportJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	p := newPalette(!reportNoColor)
	renderReport(cmd.OutOrStdout(), report, p)
	return nil
}

func runGames(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	svc, closeFn, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	games, err := svc.ListGames(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tOPPONENT\tSIDE\tSTATUS\tQ")
	for _, g := range games {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n",
			g.ID, g.Date.Format("2006-01-02"), g.Opponent, g.HomeAway, g.Status, g.CurrentQuarter)
	}
	return tw.Flush()
}
