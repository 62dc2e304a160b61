package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "rentspace",
		Short:        "Rental listing marketplace backend",
		SilenceUsage: true,
		RunE:         runServe,
	}
	rootCmd.AddCommand(ServeCmd(), MigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
