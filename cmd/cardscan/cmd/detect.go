package cmd

import (
	"encoding/json"
	"fmt"
	"image"
	"image/draw"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/cardscan/internal/detector"
	"github.com/MeKo-Tech/cardscan/internal/geometry"
	"github.com/MeKo-Tech/cardscan/internal/rectify"
	"github.com/MeKo-Tech/cardscan/internal/utils"
)

// DetectionOutput is the JSON printed by the detect command.
type DetectionOutput struct {
	File       string           `json:"file"`
	Width      int              `json:"width"`
	Height     int              `json:"height"`
	Found      bool             `json:"found"`
	Candidates []CandidateInfo  `json:"candidates"`
	Rectified  *RectifiedOutput `json:"rectified,omitempty"`
}

// CandidateInfo is one detected outline.
type CandidateInfo struct {
	detector.Candidate
	DisplayRect geometry.Rect `json:"display_rect"`
	AspectRatio float64       `json:"aspect_ratio"`
}

// RectifiedOutput describes the straightened card image.
type RectifiedOutput struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

var detectCmd = &cobra.Command{
	Use:   "detect <image>",
	Short: "Detect the card outline in a single image",
	Long: `Detect the card outline in one image and print the result as JSON.
Coordinates of the quad and bounding box are normalized with a bottom-left
origin; display_rect is in pixels with a top-left origin.

Examples:
  cardscan detect photo.jpg
  cardscan detect photo.jpg --overlay-out overlay.png --rectified-out card.png`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		overlayOut, _ := cmd.Flags().GetString("overlay-out")
		rectifiedOut, _ := cmd.Flags().GetString("rectified-out")
		all, _ := cmd.Flags().GetBool("all")

		img, meta, err := utils.LoadImage(args[0])
		if err != nil {
			return err
		}
		det, err := detector.New(cfg.ToDetectorConfig())
		if err != nil {
			return err
		}

		var cands []detector.Candidate
		if all {
			cands = det.DetectAll(img)
		} else if c, ok := det.Detect(img); ok {
			cands = []detector.Candidate{c}
		}

		size := geometry.SizeOf(img.Bounds())
		out := DetectionOutput{
			File:       args[0],
			Width:      meta.Width,
			Height:     meta.Height,
			Found:      len(cands) > 0,
			Candidates: make([]CandidateInfo, 0, len(cands)),
		}
		for _, c := range cands {
			out.Candidates = append(out.Candidates, CandidateInfo{
				Candidate:   c,
				DisplayRect: geometry.ToDisplayRect(c.BoundingBox, size),
				AspectRatio: geometry.ToPixelQuad(c.Quad, size).AspectRatio(),
			})
		}

		if overlayOut != "" {
			if err := writeOverlay(img, out.Candidates, overlayOut); err != nil {
				return err
			}
		}
		if rectifiedOut != "" && out.Found {
			r := rectify.New(cfg.ToRectifierConfig())
			card, err := r.Rectify(img, geometry.ToPixelQuad(cands[0].Quad, size))
			if err != nil {
				return fmt.Errorf("failed to rectify card: %w", err)
			}
			if err := utils.SaveImage(card, rectifiedOut); err != nil {
				return err
			}
			b := card.Bounds()
			out.Rectified = &RectifiedOutput{Path: rectifiedOut, Width: b.Dx(), Height: b.Dy()}
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

// writeOverlay draws every candidate's display rectangle onto a copy of img.
func writeOverlay(img image.Image, cands []CandidateInfo, path string) error {
	b := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, b.Min, draw.Src)
	style := utils.DefaultOverlayStyle()
	for _, c := range cands {
		utils.DrawRoundedRect(canvas, c.DisplayRect, style)
	}
	return utils.SaveImage(canvas, path)
}

func init() {
	rootCmd.AddCommand(detectCmd)
	addDetectorFlags(detectCmd)
	detectCmd.Flags().String("overlay-out", "", "write the frame with the card overlay to this file")
	detectCmd.Flags().String("rectified-out", "", "write the straightened card to this file")
	detectCmd.Flags().Bool("all", false, "report up to detector.max_observations candidates")
}
