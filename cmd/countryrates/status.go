package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mkoziy/countryrates/internal/repositories"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored country count and the latest refresh run",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	status, err := repositories.GetStatus(ctx, a.db)
	if err != nil {
		return fmt.Errorf("read status: %w", err)
	}

	fmt.Println("Country Rates Status")
	fmt.Println(strings.Repeat("=", 40))
	fmt.Printf("  Database:   %s\n", a.cfg.Database.Driver)
	fmt.Printf("  Countries:  %s\n", humanize.Comma(int64(status.TotalCountries)))
	if status.LastRefreshedAt == nil {
		fmt.Println("  Refreshed:  never")
	} else {
		fmt.Printf("  Refreshed:  %s (%s)\n", status.LastRefreshedAt.Format(time.RFC3339), humanize.Time(*status.LastRefreshedAt))
	}

	run, err := repositories.LatestRefreshRun(ctx, a.db)
	if err != nil {
		return fmt.Errorf("read last run: %w", err)
	}
	if run == nil {
		return nil
	}

	fmt.Println("\nLast run:")
	fmt.Printf("  ID:         %s\n", run.RunID)
	fmt.Printf("  Fetched:    %d\n", run.CountriesFetched)
	fmt.Printf("  Inserted:   %d\n", run.Inserted)
	fmt.Printf("  Updated:    %d\n", run.Updated)
	fmt.Printf("  Unmatched:  %d\n", run.Unmatched())
	if a.images.Exists() {
		fmt.Printf("  Summary:    %s\n", a.images.Path())
	}
	return nil
}
