package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/usb-cleaner-box/ucb/internal/catalog"
)

var (
	flagAll  bool
	flagYAML bool
)

var workersCmd = &cobra.Command{
	Use:   "workers",
	Short: "list the workers in the order the box offers them",
	RunE:  doWorkers,
}

func doWorkers(cmd *cobra.Command, _ []string) error {
	cat := catalog.New(config.Workers.Dir).WithSuffix(config.Workers.Suffix)
	cat.Discover(cmd.Context())
	workers := cat.Active(flagAll)

	out := cmd.OutOrStdout()
	if flagYAML {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(workers); err != nil {
			return fmt.Errorf("encoding workers: %w", err)
		}
		return enc.Close()
	}

	if len(workers) == 0 {
		_, err := fmt.Fprintf(os.Stderr, "no workers in %s\n", cat.Dir())
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ORDER\tID\tENABLED\tQUESTION\tDESCRIPTION")
	for _, w := range workers {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%t\t%s\t%s\n", w.Order, w.ID, w.Enabled, w.Question, w.Description)
	}
	return tw.Flush()
}
