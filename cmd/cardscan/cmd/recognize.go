package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/cardscan/internal/fields"
	"github.com/MeKo-Tech/cardscan/internal/models"
	"github.com/MeKo-Tech/cardscan/internal/recognizer"
	"github.com/MeKo-Tech/cardscan/internal/utils"
)

const (
	outputFormatJSON = "json"
	outputFormatText = "text"
)

// LineOutput is one recognized line with its classification.
type LineOutput struct {
	Text       string           `json:"text"`
	Confidence float64          `json:"confidence"`
	Field      fields.FieldKind `json:"field"`
	Accepted   bool             `json:"accepted"`
}

// RecognitionOutput is the JSON printed by the recognize command.
type RecognitionOutput struct {
	File     string            `json:"file"`
	Lines    []LineOutput      `json:"lines"`
	Result   fields.ScanResult `json:"result"`
	Complete bool              `json:"complete"`
}

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image>",
	Short: "Read and classify the text on an upright card image",
	Long: `Recognize the text lines of an already straightened card image (for
example the output of detect --rectified-out) and classify them into card
fields.

Examples:
  cardscan recognize card.png
  cardscan recognize card.png --backend tesseract --format text`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		if format != outputFormatJSON && format != outputFormatText {
			return fmt.Errorf("invalid output format: %s (must be one of: %s, %s)", format, outputFormatJSON, outputFormatText)
		}

		img, _, err := utils.LoadImage(args[0])
		if err != nil {
			return err
		}

		rcfg := cfg.ToRecognizerConfig()
		rcfg.ResolvePaths(models.GetModelsDir(cfg.ModelsDir))
		eng, err := recognizer.New(rcfg)
		if err != nil {
			if errors.Is(err, recognizer.ErrNoBackend) {
				return fmt.Errorf("%w (rebuild with -tags %s)", err, rcfg.Backend)
			}
			return fmt.Errorf("failed to create recognizer: %w", err)
		}
		defer func() { _ = eng.Close() }()

		lines, err := eng.Recognize(cmd.Context(), img)
		if err != nil {
			return fmt.Errorf("recognition failed: %w", err)
		}

		classifier := &fields.Classifier{
			MinConfidence:     cfg.Classifier.MinConfidence,
			CaptureHolderName: cfg.Classifier.CaptureHolderName,
		}
		out := RecognitionOutput{File: args[0], Lines: make([]LineOutput, 0, len(lines))}
		for _, l := range lines {
			out.Lines = append(out.Lines, LineOutput{
				Text:       l.Text,
				Confidence: l.Confidence,
				Field:      fields.Classify(l.Text),
				Accepted:   classifier.Accepts(l),
			})
		}
		out.Result = classifier.Extract(lines)
		out.Complete = out.Result.Complete()

		if format == outputFormatText {
			return writeRecognitionText(cmd.OutOrStdout(), out)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func writeRecognitionText(w io.Writer, out RecognitionOutput) error {
	var b strings.Builder
	for _, l := range out.Lines {
		mark := " "
		if l.Accepted {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s %-16s %.2f %s\n", mark, l.Field, l.Confidence, l.Text)
	}
	fmt.Fprintf(&b, "card_number: %s\nexpiry_date: %s\n", out.Result.CardNumber, out.Result.ExpiryDate)
	if out.Result.HolderName != "" {
		fmt.Fprintf(&b, "holder_name: %s\n", out.Result.HolderName)
	}
	fmt.Fprintf(&b, "complete: %t\n", out.Complete)
	_, err := io.WriteString(w, b.String())
	return err
}

func init() {
	rootCmd.AddCommand(recognizeCmd)
	addRecognizerFlags(recognizeCmd)
	recognizeCmd.Flags().StringP("format", "f", outputFormatJSON, "output format: json or text")
}
