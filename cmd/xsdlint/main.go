// Command xsdlint validates XML documents against an XSD schema and
// optionally prints the decoded record as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/xmlschema-go/xmlschema"
	"github.com/xmlschema-go/xmlschema/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type flags struct {
	schema   string
	catalog  string
	failFast bool
	verbose  bool
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "xsdlint",
		Short:         "Validate XML documents against an XSD schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&f.schema, "schema", "", "path to the XSD schema file (required)")
	root.PersistentFlags().StringVar(&f.catalog, "catalog", "", "path to a YAML namespace catalog")
	root.PersistentFlags().BoolVar(&f.failFast, "fail-fast", false, "stop at the first validation error")
	root.PersistentFlags().BoolVar(&f.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(newValidateCmd(f), newDecodeCmd(f))
	return root
}

func (f *flags) load() (*xmlschema.Schema, error) {
	if f.schema == "" {
		return nil, fmt.Errorf("--schema is required")
	}
	opts := xmlschema.LoadOptions{Logger: f.logger()}
	if f.catalog != "" {
		cat, err := xmlschema.LoadCatalogFile(os.DirFS("."), f.catalog)
		if err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
		opts.Catalog = cat
	}
	dir, base := splitPath(f.schema)
	return xmlschema.LoadWithOptions(os.DirFS(dir), base, opts)
}

func (f *flags) logger() zerolog.Logger {
	if !f.verbose {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(zerolog.DebugLevel)
}

func (f *flags) options() []xmlschema.Option {
	if f.failFast {
		return []xmlschema.Option{xmlschema.FailFast()}
	}
	return nil
}

func newValidateCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <document.xml> [...]",
		Short: "Validate documents, printing one line per error",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := f.load()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
				return err
			}
			failed := false
			for _, path := range args {
				if err := schema.ValidateFile(path, f.options()...); err != nil {
					failed = true
					printErrors(cmd, path, err)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", path)
				}
			}
			if failed {
				return fmt.Errorf("validation failed")
			}
			return nil
		},
	}
}

func newDecodeCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <document.xml>",
		Short: "Validate a document and print the decoded record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := f.load()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
				return err
			}
			doc, err := os.Open(args[0])
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
				return err
			}
			defer doc.Close()

			rec, err := schema.Decode(doc, f.options()...)
			if err != nil {
				printErrors(cmd, args[0], err)
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(recordJSON(rec))
		},
	}
}

func printErrors(cmd *cobra.Command, path string, err error) {
	validations, ok := errors.AsValidations(err)
	if !ok {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
		return
	}
	for i := range validations {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", path, validations[i].Error())
	}
}

// recordJSON flattens a record into JSON-friendly maps; qualified names
// render in Clark notation.
func recordJSON(rec *xmlschema.Record) map[string]any {
	if rec == nil {
		return nil
	}
	out := map[string]any{"name": rec.Name.String()}
	if rec.Nil {
		out["nil"] = true
	}
	if rec.Value != nil {
		out["value"] = fmt.Sprint(rec.Value)
	}
	if len(rec.Attributes) > 0 {
		attrs := make(map[string]any, len(rec.Attributes))
		for name, v := range rec.Attributes {
			attrs[name.String()] = fmt.Sprint(v)
		}
		out["attributes"] = attrs
	}
	if len(rec.Children) > 0 {
		children := make([]any, 0, len(rec.Children))
		for _, c := range rec.Children {
			children = append(children, recordJSON(c.Record))
		}
		out["children"] = children
	}
	return out
}

func splitPath(p string) (dir, base string) {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' || p[i] == os.PathSeparator {
			return p[:i], p[i+1:]
		}
	}
	return ".", p
}
