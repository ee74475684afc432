package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/detect"
	"github.com/hugo-lorenzo-mato/corrector/internal/fsutil"
)

var detectCmd = &cobra.Command{
	Use:   "detect <document-id>",
	Short: "Suggest a correction preset for a document",
	Long: `Detect a suitable correction preset from the document's features. With
--file the features are first extracted from a text sample and recorded;
without it the features recorded earlier are used. --apply applies the
suggestion to the document's customizations and saves them.

Examples:
  corrector detect novela-1 --file chapter1.txt
  corrector detect novela-1 --apply`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

var (
	detectFile  string
	detectApply bool
	detectJSON  bool
)

func init() {
	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().StringVarP(&detectFile, "file", "f", "", "text sample to extract features from")
	detectCmd.Flags().BoolVar(&detectApply, "apply", false, "apply the suggestion and save")
	detectCmd.Flags().BoolVar(&detectJSON, "json", false, "print JSON")
}

func runDetect(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := context.Background()
	docID := args[0]

	if detectFile != "" {
		data, err := fsutil.ReadFileLimited(detectFile, rt.cfg.Detect.MaxTextBytes)
		if err != nil {
			return fmt.Errorf("reading sample: %w", err)
		}
		features := detect.ExtractFeatures(string(data))
		if err := rt.store.RecordFeatures(ctx, docID, features); err != nil {
			return err
		}
		rt.logger.Debug("features recorded", "document_id", docID, "field", features.Field, "register", features.Register)
	}

	scope := core.DocumentScope(docID)
	ed, err := rt.engine.Open(ctx, scope)
	if err != nil {
		return err
	}
	res, err := ed.Detect(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if detectJSON {
		if err := writeJSON(out, res); err != nil {
			return err
		}
	} else {
		fmt.Fprint(out, renderDetection(out, res))
	}

	if !detectApply {
		return nil
	}
	if !res.Detected {
		return fmt.Errorf("nothing to apply: no preset was suggested")
	}
	if err := ed.ApplySuggestion(); err != nil {
		return err
	}
	if err := ed.Save(ctx); err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "Applied %s to %s\n", res.SuggestedPresetID, docID)
	}
	return nil
}
