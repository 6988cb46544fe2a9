package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/cardscan/internal/fields"
)

// Classification pairs a string with its field kind.
type Classification struct {
	Text  string           `json:"text"`
	Field fields.FieldKind `json:"field"`
}

var classifyCmd = &cobra.Command{
	Use:   "classify [text ...]",
	Short: "Classify strings as card number, expiry date or holder name",
	Long: `Classify each argument (or each line of standard input when no argument
is given) as a card number, expiry date, card holder name or unclassified.

Examples:
  cardscan classify "4111 1111 1111 1111" "12/28" "JANE DOE"
  printf '12/28\nfoo\n' | cardscan classify --format json`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		if format != outputFormatJSON && format != outputFormatText {
			return fmt.Errorf("invalid output format: %s (must be one of: %s, %s)", format, outputFormatJSON, outputFormatText)
		}

		inputs := args
		if len(inputs) == 0 {
			sc := bufio.NewScanner(cmd.InOrStdin())
			for sc.Scan() {
				if line := strings.TrimRight(sc.Text(), "\r"); line != "" {
					inputs = append(inputs, line)
				}
			}
			if err := sc.Err(); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
		}

		results := make([]Classification, 0, len(inputs))
		for _, s := range inputs {
			results = append(results, Classification{Text: s, Field: fields.Classify(s)})
		}

		if format == outputFormatJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		for _, r := range results {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", r.Field, r.Text); err != nil {
				return fmt.Errorf("failed to write to stdout: %w", err)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().StringP("format", "f", outputFormatText, "output format: text or json")
}
