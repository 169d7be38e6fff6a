package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"taiga/internal/plugin"
)

// runPluginDispatch forwards an unmatched subcommand to the registry.
func runPluginDispatch(ctx *commandContext, cmd *cobra.Command, args []string) error {
	registry, err := ctx.registryValue()
	if err != nil {
		return err
	}

	name := args[0]
	if !registry.Has(name) {
		return fmt.Errorf("unknown command or plugin %q\n\nRun 'taiga --help' for usage", name)
	}
	if len(args) < 2 {
		return fmt.Errorf("usage: taiga %s <command> [args...]", name)
	}

	result, err := registry.Execute(name, args[1], args[2:], ctx.pluginContext())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch result.Kind {
	case plugin.ResultError:
		return fmt.Errorf("%s", result.Message)
	default:
		if result.Message != "" {
			fmt.Fprintln(out, result.Message)
		}
	}
	return nil
}

func newPluginsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List loaded plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.registryValue()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			infos := registry.Infos()
			if len(infos) == 0 {
				fmt.Fprintln(out, "No plugins loaded.")
				return nil
			}

			fmt.Fprintln(out, "Loaded plugins:")
			fmt.Fprintln(out)
			for _, info := range infos {
				fmt.Fprintf(out, "  %s v%s\n", info.Name, info.Version)
				fmt.Fprintf(out, "    %s\n", info.Description)
				fmt.Fprintln(out, "    Commands:")
				for _, def := range info.Commands {
					if def.Usage != "" {
						fmt.Fprintf(out, "      %s %s - %s\n", def.Name, def.Usage, def.Description)
					} else {
						fmt.Fprintf(out, "      %s - %s\n", def.Name, def.Description)
					}
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}
