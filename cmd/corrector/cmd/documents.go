package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/corrector/internal/adapters/store"
)

var docCmd = &cobra.Command{
	Use:     "doc",
	Aliases: []string{"docs", "document"},
	Short:   "Register and list documents",
}

var docRegisterCmd = &cobra.Command{
	Use:   "register <document-id>",
	Short: "Register a document, or change its title, type or subtype",
	Long: `Register a document so its configuration can be resolved and edited.
Type and subtype accept codes or aliases (fiction, novel, ...).

Examples:
  corrector doc register novela-1 --type FIC --subtype FIC_LIT --title "Mi novela"`,
	Args: cobra.ExactArgs(1),
	RunE: runDocRegister,
}

var docListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered documents",
	Args:  cobra.NoArgs,
	RunE:  runDocList,
}

var (
	docTitle   string
	docType    string
	docSubtype string
	docJSON    bool
)

func init() {
	docRegisterCmd.Flags().StringVar(&docTitle, "title", "", "document title")
	docRegisterCmd.Flags().StringVar(&docType, "type", "", "document type code or alias")
	docRegisterCmd.Flags().StringVar(&docSubtype, "subtype", "", "document subtype code")
	_ = docRegisterCmd.MarkFlagRequired("type")
	docListCmd.Flags().BoolVar(&docJSON, "json", false, "print JSON")

	docCmd.AddCommand(docRegisterCmd, docListCmd)
	rootCmd.AddCommand(docCmd)
}

func runDocRegister(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	doc, err := rt.store.RegisterDocument(context.Background(), store.Document{
		ID:          args[0],
		Title:       docTitle,
		TypeCode:    docType,
		SubtypeCode: docSubtype,
	})
	if err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %s as %s %s\n", doc.ID, doc.TypeCode, doc.SubtypeCode)
	}
	return nil
}

func runDocList(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	docs, err := rt.store.Documents(context.Background())
	if err != nil {
		return err
	}
	if docJSON {
		if docs == nil {
			docs = []store.Document{}
		}
		return writeJSON(cmd.OutOrStdout(), docs)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tSUBTYPE\tTITLE")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.TypeCode, d.SubtypeCode, d.Title)
	}
	return tw.Flush()
}
