package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/jhump/gombok/handlers"
)

func (a *app) newPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan [patterns...]",
		Short: "Show what generate would inject, without writing anything",
		Long: `Run the handlers for the packages matched by the given patterns
(default "./...") and print the field additions and method injections they
request, in order, as pseudo-code.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.loaderConfig(patternsOrDefault(args))
			contexts, err := cfg.Load(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			count := 0
			for _, pctx := range contexts {
				recorders, err := handlers.Plan(pctx, a.registry, a.logger)
				if err != nil {
					return err
				}
				if len(recorders) == 0 {
					continue
				}
				fmt.Fprintf(out, "# %s\n", pctx.Package.PkgPath)
				for _, rec := range recorders {
					fmt.Fprint(out, rec.String())
				}
				count += len(recorders)
			}
			if count == 0 {
				pterm.Info.WithWriter(out).Println("no annotated types found")
			}
			return nil
		},
	}
	a.cfg.BindGenerateFlags(cmd.Flags())
	return cmd
}
