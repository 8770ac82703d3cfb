package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run one refresh against both sources and exit",
	RunE:  runRefresh,
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.service.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	fmt.Printf("Refresh successful (run %s)\n", res.RunID)
	fmt.Printf("  Countries:  %d\n", res.TotalCountries)
	fmt.Printf("  Inserted:   %d\n", res.Inserted)
	fmt.Printf("  Updated:    %d\n", res.Updated)
	fmt.Printf("  Refreshed:  %s\n", res.RefreshedAt.Format(time.RFC3339))
	fmt.Printf("  Summary:    %s\n", a.images.Path())
	return nil
}
