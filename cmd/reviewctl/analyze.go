package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/samvad-hq/codereview/pkg/reviewapi"
	"github.com/spf13/cobra"
)

var extensionLanguages = map[string]string{
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".go":    "go",
	".java":  "java",
	".kt":    "kotlin",
	".rb":    "ruby",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".php":   "php",
	".swift": "swift",
	".sh":    "bash",
	".sql":   "sql",
}

// languageFor infers a language from the file extension, or "" when unknown.
func languageFor(path string) string {
	return extensionLanguages[strings.ToLower(filepath.Ext(path))]
}

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var (
		language string
		output   string
	)
	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Review and document a code file (reads stdin when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != outputJSON && output != outputText {
				return fmt.Errorf("--output must be %q or %q", outputJSON, outputText)
			}

			var (
				code []byte
				err  error
			)
			if len(args) == 1 {
				code, err = os.ReadFile(args[0])
				if language == "" {
					language = languageFor(args[0])
				}
			} else {
				code, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("read code: %w", err)
			}
			if language == "" {
				return fmt.Errorf("--language is required when it cannot be inferred from the file name")
			}

			client, err := opts.client()
			if err != nil {
				return err
			}
			res, err := client.AnalyzeCode(cmd.Context(), string(code), language)
			if err != nil {
				return err
			}
			return printAnalysis(cmd.OutOrStdout(), res, output)
		},
	}
	cmd.Flags().StringVarP(&language, "language", "l", "", "Language of the code (inferred from the file extension when omitted)")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text or json")
	return cmd
}

func printAnalysis(w io.Writer, res reviewapi.AnalysisResult, output string) error {
	if output == outputJSON {
		var buf bytes.Buffer
		if err := json.Indent(&buf, res, "", "  "); err != nil {
			return fmt.Errorf("format result: %w", err)
		}
		buf.WriteByte('\n')
		_, err := buf.WriteTo(w)
		return err
	}

	var rv reviewapi.Review
	if err := res.Decode(&rv); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	_, err := fmt.Fprintf(w, "## Review (%s)\n\n%s\n\n## Documentation\n\n%s\n", rv.Language, rv.Review, rv.Docstring)
	return err
}
