package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func newRootCmd(now func() time.Time) *cobra.Command {
	root := &cobra.Command{
		Use:           "timetablectl",
		Short:         "Offline tooling for observation timetables",
		Long:          "timetablectl previews auto-fill selections and calendar projections from JSON files and manages the timetable schema.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAutoFillCmd(now))
	root.AddCommand(newProjectCmd())
	root.AddCommand(newMigrateCmd())
	return root
}

func main() {
	if err := newRootCmd(time.Now).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
