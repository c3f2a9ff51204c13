package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/treegrep/pkg/language"
	"github.com/Sumatoshi-tech/treegrep/pkg/tree"
)

// maxLeafTextLen truncates leaf text in the tree dump.
const maxLeafTextLen = 40

// NewParseCommand builds the parse subcommand, a debugging aid that
// dumps a file's syntax tree with the node kinds patterns match on.
func NewParseCommand() *cobra.Command {
	var (
		langName  string
		namedOnly bool
	)

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Print a file's syntax tree",
		Long: `Parse prints the node kinds, fields, and ranges of a file's syntax tree.
Use it to find the kind and field names rules refer to.

Examples:
  treegrep parse main.go
  treegrep parse --named-only src/app.js`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args[0], langName, namedOnly)
		},
	}

	cmd.Flags().StringVarP(&langName, "lang", "l", "", "override language detection")
	cmd.Flags().BoolVar(&namedOnly, "named-only", false, "hide anonymous token nodes")

	return cmd
}

func runParse(cmd *cobra.Command, path, langName string, namedOnly bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var (
		lang *language.Language
		ok   bool
	)

	if langName != "" {
		lang, ok = language.Get(langName)
		if !ok {
			return fmt.Errorf("unknown language %q (supported: %v)", langName, language.Supported())
		}
	} else {
		lang, ok = language.Detect(path, content)
		if !ok {
			return fmt.Errorf("cannot detect language of %s; use --lang", path)
		}
	}

	t, err := tree.Parse(cmd.Context(), lang, path, content)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", path, lang.Name())
	dumpNode(cmd.OutOrStdout(), t.Root(), 0, namedOnly)

	return nil
}

func dumpNode(w io.Writer, n tree.Node, depth int, namedOnly bool) {
	if namedOnly && !n.IsNamed() {
		return
	}

	indent := strings.Repeat("  ", depth)

	label := n.Kind()
	if field := n.Field(); field != "" {
		label = field + ": " + label
	}

	start, end := n.StartPoint(), n.EndPoint()
	pos := fmt.Sprintf("[%d:%d - %d:%d]", start.Row, start.Column, end.Row, end.Column)

	if n.IsLeaf() {
		fmt.Fprintf(w, "%s%s %s %q\n", indent, label, pos, truncate(n.Text(), maxLeafTextLen))

		return
	}

	fmt.Fprintf(w, "%s%s %s\n", indent, label, pos)

	for _, child := range n.Children() {
		dumpNode(w, child, depth+1, namedOnly)
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	return s[:limit] + "…"
}
