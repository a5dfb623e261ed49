package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/plan8/plan8-contacts/internal/domain"
	"github.com/plan8/plan8-contacts/internal/importer"

	"github.com/spf13/cobra"
)

const (
	sourceCSV      = "csv"
	sourceLinkedIn = "linkedin"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	UserEmail string
	UserName  string
	Mapping   map[string]string
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <csv|linkedin> <file>",
		Short: "Import contacts from a CSV export",
		Long: `Import contacts from a CSV file on behalf of a user.

The user is created without a password when missing and can sign up later
with the same email to claim the contacts. Columns are detected from the
header row unless --map is given.

Example:
  plan8 import csv ./contacts.csv --user-email ada@acme.io
  plan8 import linkedin ./Connections.csv --user-email ada@acme.io --map email="E-mail Address"`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			source, path := args[0], args[1]
			if source != sourceCSV && source != sourceLinkedIn {
				return fmt.Errorf("unknown source %q: must be csv or linkedin", source)
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			a, err := newApp(cmd.Context(), opts.Config, opts.Logger)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := runImport(cmd.Context(), a.auth, a.contacts, opts, source, f)
			if err != nil {
				return err
			}
			return writeImportResult(cmd.OutOrStdout(), opts.Format, result)
		},
	}

	cmd.Flags().StringVar(&opts.UserEmail, "user-email", "", "email of the user the contacts belong to (required)")
	cmd.Flags().StringVar(&opts.UserName, "user-name", "", "display name used when the user is created")
	cmd.Flags().StringToStringVar(&opts.Mapping, "map", nil, "field=Header column overrides, e.g. email=\"E-mail\"")
	_ = cmd.MarkFlagRequired("user-email")

	return cmd
}

func runImport(ctx context.Context, authSvc domain.AuthService, contacts domain.ContactService, opts *ImportOptions, source string, r io.Reader) (*domain.ImportResult, error) {
	records, err := importer.Parse(r, flagMapping(opts.Mapping))
	if err != nil {
		if errors.Is(err, importer.ErrNoEmailColumn) {
			return nil, fmt.Errorf("no email column found, pass --map email=<header>")
		}
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no importable rows")
	}

	user, err := authSvc.EnsureUser(ctx, strings.ToLower(strings.TrimSpace(opts.UserEmail)), opts.UserName)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	if source == sourceLinkedIn {
		return contacts.ImportFromLinkedIn(ctx, user.ID, importer.ToLinkedInRows(records))
	}
	return contacts.ImportFromCSV(ctx, user.ID, importer.ToImportRows(records))
}

func flagMapping(raw map[string]string) importer.Mapping {
	if len(raw) == 0 {
		return nil
	}
	m := make(importer.Mapping, len(raw))
	for field, header := range raw {
		m[importer.Field(field)] = header
	}
	return m
}

func writeImportResult(w io.Writer, format string, result *domain.ImportResult) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	s := result.Summary
	if _, err := fmt.Fprintf(w, "imported %d of %d (%d skipped)\n", s.Imported, s.Total, s.Skipped); err != nil {
		return err
	}
	for _, d := range result.Duplicates {
		if _, err := fmt.Fprintf(w, "  duplicate: %s (%s)\n", d.Email, d.Reason); err != nil {
			return err
		}
	}
	return nil
}
