package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/treegrep/internal/rulefile"
)

// exitCodeValidationFailure is the exit code for invalid rule files.
const exitCodeValidationFailure = 2

// NewValidateCommand builds the validate subcommand.
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <rule-file-or-dir>...",
		Short: "Check rule files against the schema and compile them",
		Long: `Validate loads the given rule files (or directories of them), checks each
document against the rule schema, and compiles it against its language.
The exit code is 2 when any document is invalid.

Examples:
  treegrep validate rules/
  treegrep validate lint.yaml more-rules/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args)
		},
	}

	return cmd
}

func runValidate(cmd *cobra.Command, paths []string) error {
	out := cmd.OutOrStdout()
	okColor := color.New(color.FgGreen)
	badColor := color.New(color.FgRed)

	valid, invalid := 0, 0

	for _, path := range paths {
		docs, loadErr := loadRulePath(path)
		if loadErr != nil {
			invalid++

			badColor.Fprintf(out, "✗ %s\n", path)
			fmt.Fprintf(out, "    %v\n", loadErr)

			continue
		}

		for _, doc := range docs {
			if _, compileErr := rulefile.Compile(doc, nil); compileErr != nil {
				invalid++

				badColor.Fprintf(out, "✗ %s (%s)\n", doc.ID, doc.Path)
				fmt.Fprintf(out, "    %v\n", compileErr)

				continue
			}

			valid++

			okColor.Fprintf(out, "✓ %s (%s)\n", doc.ID, doc.Path)
		}
	}

	fmt.Fprintf(out, "\n%d valid, %d invalid\n", valid, invalid)

	if invalid > 0 {
		os.Exit(exitCodeValidationFailure)
	}

	return nil
}

func loadRulePath(path string) ([]*rulefile.Doc, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		return rulefile.LoadDir(path)
	}

	return rulefile.LoadFile(path)
}
