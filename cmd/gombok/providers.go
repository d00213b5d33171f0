package main

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func (a *app) newProvidersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the available providers",
		Long: `List the built-in providers and those loaded with --providers, along
with the annotation that selects each and the methods it delegates.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data := pterm.TableData{{"Name", "Annotation", "Type", "Default", "Methods"}}
			for _, c := range a.registry.All() {
				annotation := "@gombok.ProviderAware{Provider: \"" + c.Name + "\"}"
				if c.Annotation != "" {
					annotation = "@gombok." + c.Annotation
				}
				methods := make([]string, len(c.Methods))
				for i, m := range c.Methods {
					methods[i] = m.Name
				}
				data = append(data, []string{
					c.Name,
					annotation,
					c.ProviderType.String(),
					c.DefaultProviderType.String() + "." + c.Factory + "()",
					strings.Join(methods, ", "),
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(cmd.OutOrStdout()).Render()
		},
	}
}
