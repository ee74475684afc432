package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var typesCmd = &cobra.Command{
	Use:   "types [query]",
	Short: "List document types and subtypes",
	Long: `List the document types and their subtypes. With a query, types and
subtypes are fuzzy-matched by code and name.

Examples:
  corrector types
  corrector types literaria`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTypes,
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the correction presets detection can suggest",
	Args:  cobra.NoArgs,
	RunE:  runPresets,
}

var listJSON bool

func init() {
	for _, c := range []*cobra.Command{typesCmd, presetsCmd} {
		c.Flags().BoolVar(&listJSON, "json", false, "print JSON")
	}
	rootCmd.AddCommand(typesCmd, presetsCmd)
}

func runTypes(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	out := cmd.OutOrStdout()
	registry := rt.store.Registry()
	if len(args) == 1 {
		matches := registry.Search(args[0])
		if listJSON {
			return writeJSON(out, matches)
		}
		if len(matches) == 0 {
			return fmt.Errorf("no type matches %q", args[0])
		}
		fmt.Fprint(out, renderMatches(out, matches))
		return nil
	}
	if listJSON {
		return writeJSON(out, registry.Types())
	}
	fmt.Fprint(out, renderTypes(out, registry.Types()))
	return nil
}

func runPresets(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	presets, err := rt.engine.Presets(context.Background())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if listJSON {
		return writeJSON(out, presets)
	}
	fmt.Fprint(out, renderPresets(out, presets))
	return nil
}
