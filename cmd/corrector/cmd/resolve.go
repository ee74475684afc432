package cmd

import (
	"bytes"
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/corrector/internal/clip"
	"github.com/hugo-lorenzo-mato/corrector/internal/rules"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [document-id]",
	Short: "Show the effective configuration and where each value comes from",
	Long: `Resolve the effective correction configuration of a document, or of a
type or subtype default with --type/--subtype, and show the layer each value
is inherited from. --enabled-rules lists only the rules in effect.

Examples:
  corrector resolve novela-1
  corrector resolve --type FIC --subtype FIC_LIT
  corrector resolve novela-1 --json --copy`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResolve,
}

var (
	resolveType    string
	resolveSubtype string
	resolveJSON    bool
	resolveCopy    bool
	resolveEnabled bool
)

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().StringVar(&resolveType, "type", "", "resolve a type default instead of a document")
	resolveCmd.Flags().StringVar(&resolveSubtype, "subtype", "", "subtype of --type")
	resolveCmd.Flags().BoolVar(&resolveJSON, "json", false, "print JSON")
	resolveCmd.Flags().BoolVar(&resolveCopy, "copy", false, "also copy the output to the clipboard")
	resolveCmd.Flags().BoolVar(&resolveEnabled, "enabled-rules", false, "list only enabled rules")
}

func runResolve(cmd *cobra.Command, args []string) error {
	scope, err := scopeFromArgs(args, resolveType, resolveSubtype)
	if err != nil {
		return err
	}
	rt, err := openRuntime(runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	ed, err := rt.engine.Open(context.Background(), scope)
	if err != nil {
		return err
	}
	view, err := ed.View()
	if err != nil {
		return err
	}
	if resolveEnabled {
		view.Rules = rules.Enabled(view.Rules)
	}

	out := cmd.OutOrStdout()
	var buf bytes.Buffer
	if resolveJSON {
		if err := writeJSON(&buf, view); err != nil {
			return err
		}
	} else {
		buf.WriteString(renderView(out, view))
	}
	if _, err := out.Write(buf.Bytes()); err != nil {
		return err
	}

	if resolveCopy {
		res, err := clip.New().Copy(buf.String())
		if err != nil {
			return err
		}
		if !quiet {
			if res.Method == clip.MethodFile {
				fmt.Fprintf(cmd.ErrOrStderr(), "No clipboard available; written to %s\n", res.FilePath)
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "Copied to clipboard (%s)\n", res.Method)
			}
		}
	}
	return nil
}
