package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/relnotes/internal/app"
)

func newResolveCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <name>...",
		Short: "Resolve country names against the reference table",
		Long: "Resolve looks each name up the same way extraction does: exact match\n" +
			"first, then the first canonical name contained in the input.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*opts)
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("init app: %w", err)
			}

			rows := make([][]string, 0, len(args))
			var unresolved []string
			for _, name := range args {
				m := a.Resolve(name)
				code := m.Code
				if !m.Resolved() {
					code = "None"
					unresolved = append(unresolved, name)
				}
				rows = append(rows, []string{name, code, m.Entry.Name, m.Kind.String(), strings.Join(m.Alternatives, ",")})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Name", "ISO Code", "Canonical", "Match", "Also"},
				rows,
			))
			if len(unresolved) > 0 {
				return fmt.Errorf("%w: %s", app.ErrUnresolvedCountries, strings.Join(unresolved, ", "))
			}
			return nil
		},
	}
}
