package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/corrector/internal/editor"
)

// Flags shared by the editing commands.
var (
	editType    string
	editSubtype string
	resetAll    bool
)

var setCmd = &cobra.Command{
	Use:   "set [document-id] <path> <value>",
	Short: "Set a configuration value at the editing layer and save it",
	Long: `Set one configuration leaf, e.g. repetition.tolerance, and save it.
Values are read as YAML: 12, true, null and [a, b] are typed, anything else
is a string.

Examples:
  corrector set novela-1 repetition.tolerance high
  corrector set --type FIC repetition.proximity_window_chars 300`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runSet,
}

var resetCmd = &cobra.Command{
	Use:   "reset [document-id] [path...]",
	Short: "Drop customizations so inherited values apply again",
	Long: `Reset configuration leaves of the editing layer to their inherited
values and save. With --all every customization is dropped, rules included.

Examples:
  corrector reset novela-1 repetition.tolerance
  corrector reset novela-1 --all`,
	RunE: runReset,
}

var clearCmd = &cobra.Command{
	Use:   "clear [document-id]",
	Short: "Delete the stored customizations of a document or type override",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClear,
}

var ruleCmd = &cobra.Command{
	Use:   "rule",
	Short: "Manage editorial rules",
}

var ruleAddCmd = &cobra.Command{
	Use:   "add [document-id] <text>",
	Short: "Add a custom rule",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		scopeArgs, text := splitTrailing(args, 1)
		return withEditor(cmd, scopeArgs, func(ed *editor.Editor) error {
			r, err := ed.AddRule(text[0])
			if err == nil && !quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Added rule %s\n", r.ID)
			}
			return err
		})
	},
}

var ruleRemoveCmd = &cobra.Command{
	Use:   "remove [document-id] <rule-id>",
	Short: "Remove a custom rule",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		scopeArgs, id := splitTrailing(args, 1)
		return withEditor(cmd, scopeArgs, func(ed *editor.Editor) error {
			return ed.RemoveRule(id[0])
		})
	},
}

var ruleToggleCmd = &cobra.Command{
	Use:   "toggle [document-id] <rule-id>",
	Short: "Enable or disable a rule",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		scopeArgs, id := splitTrailing(args, 1)
		return withEditor(cmd, scopeArgs, func(ed *editor.Editor) error {
			r, err := ed.ToggleRule(id[0])
			if err == nil && !quiet {
				state := "disabled"
				if r.Enabled {
					state = "enabled"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rule %s %s\n", r.ID, state)
			}
			return err
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{setCmd, resetCmd, clearCmd, ruleAddCmd, ruleRemoveCmd, ruleToggleCmd} {
		c.Flags().StringVar(&editType, "type", "", "edit a type default instead of a document")
		c.Flags().StringVar(&editSubtype, "subtype", "", "subtype of --type")
	}
	resetCmd.Flags().BoolVar(&resetAll, "all", false, "drop every customization")

	ruleCmd.AddCommand(ruleAddCmd, ruleRemoveCmd, ruleToggleCmd)
	rootCmd.AddCommand(setCmd, resetCmd, clearCmd, ruleCmd)
}

// splitTrailing splits off the last n arguments; whatever precedes them
// names the scope.
func splitTrailing(args []string, n int) (scopeArgs, rest []string) {
	return args[:len(args)-n], args[len(args)-n:]
}

// withEditor opens the editor of the scope named by args and flags, runs fn
// and saves.
func withEditor(cmd *cobra.Command, scopeArgs []string, fn func(*editor.Editor) error) error {
	scope, err := scopeFromArgs(scopeArgs, editType, editSubtype)
	if err != nil {
		return err
	}
	rt, err := openRuntime(runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := context.Background()
	ed, err := rt.engine.Open(ctx, scope)
	if err != nil {
		return err
	}
	if err := fn(ed); err != nil {
		return err
	}
	if err := ed.Save(ctx); err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s\n", scope.Key())
	}
	return nil
}

func runSet(cmd *cobra.Command, args []string) error {
	scopeArgs, rest := splitTrailing(args, 2)
	value, err := parseValue(rest[1])
	if err != nil {
		return err
	}
	return withEditor(cmd, scopeArgs, func(ed *editor.Editor) error {
		return ed.Set(rest[0], value)
	})
}

func runReset(cmd *cobra.Command, args []string) error {
	var scopeArgs, paths []string
	if editType == "" && len(args) > 0 {
		scopeArgs, paths = args[:1], args[1:]
	} else {
		paths = args
	}
	if resetAll == (len(paths) > 0) {
		return fmt.Errorf("pass either paths or --all")
	}
	return withEditor(cmd, scopeArgs, func(ed *editor.Editor) error {
		if resetAll {
			return ed.ResetAll()
		}
		for _, p := range paths {
			if err := ed.Reset(p); err != nil {
				return err
			}
		}
		return nil
	})
}

func runClear(cmd *cobra.Command, args []string) error {
	scope, err := scopeFromArgs(args, editType, editSubtype)
	if err != nil {
		return err
	}
	rt, err := openRuntime(runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	if _, err := rt.engine.Clear(context.Background(), scope); err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "Cleared %s\n", scope.Key())
	}
	return nil
}
