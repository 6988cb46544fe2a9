package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/cardscan/internal/fields"
	"github.com/MeKo-Tech/cardscan/internal/geometry"
	"github.com/MeKo-Tech/cardscan/internal/testutil"
	"github.com/MeKo-Tech/cardscan/internal/utils"
)

// frameFixture records what a generated frame is expected to yield.
type frameFixture struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputFile   string         `json:"input_file"`
	CardFound   bool           `json:"card_found"`
	Quad        *geometry.Quad `json:"quad,omitempty"`
	CardNumber  string         `json:"card_number,omitempty"`
	ExpiryDate  string         `json:"expiry_date,omitempty"`
	HolderName  string         `json:"holder_name,omitempty"`
}

// frameVariant is one synthetic frame to render.
type frameVariant struct {
	name        string
	description string
	mutate      func(*testutil.CardSpec)
	noCard      bool
}

var variants = []frameVariant{
	{name: "upright", description: "Card centred without rotation", mutate: func(s *testutil.CardSpec) { s.Angle = 0 }},
	{name: "tilted_left", description: "Card rotated 8 degrees counter-clockwise", mutate: func(s *testutil.CardSpec) { s.Angle = 8 }},
	{name: "tilted_right", description: "Card rotated 8 degrees clockwise", mutate: func(s *testutil.CardSpec) { s.Angle = -8 }},
	{name: "off_centre", description: "Card shifted towards the top left", mutate: func(s *testutil.CardSpec) {
		s.CenterX, s.CenterY, s.Angle = 260, 200, 3
	}},
	{name: "small", description: "Card far from the camera", mutate: func(s *testutil.CardSpec) {
		s.CardWidth, s.CardHeight, s.Angle = 228, 144, 0
	}},
	{name: "dark_card", description: "Dark card on a light background", mutate: func(s *testutil.CardSpec) {
		s.Background = color.NRGBA{R: 220, G: 220, B: 215, A: 255}
		s.CardColor = color.NRGBA{R: 25, G: 40, B: 90, A: 255}
		s.TextColor = color.White
	}},
	{name: "empty", description: "Background only, no card", noCard: true},
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var (
		outDir           = flag.String("out", "", "Output directory (default: <project>/testdata)")
		generateFixtures = flag.Bool("fixtures", true, "Write a JSON fixture next to every frame")
		verbose          = flag.Bool("v", false, "Verbose output")
		help             = flag.Bool("h", false, "Show help")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Generate synthetic card frames for cardscan testing.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEXAMPLES:\n")
		fmt.Fprintf(os.Stderr, "  %s                  # Generate frames and fixtures under testdata/\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -out /tmp/frames # Generate into another directory\n", os.Args[0])
	}

	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	root := *outDir
	if root == "" {
		dir, err := testutil.GetTestDataDir()
		if err != nil {
			slog.Error("Failed to find project root", "error", err)
			os.Exit(1)
		}
		root = dir
	}
	if *verbose {
		slog.Info("Options", "out", root, "fixtures", *generateFixtures, "frames", len(variants))
	}

	if err := generate(root, *generateFixtures); err != nil {
		slog.Error("Failed to generate test data", "error", err)
		os.Exit(1)
	}
	slog.Info("Test data generation completed", "frames", len(variants), "dir", root)
}

func generate(root string, withFixtures bool) error {
	framesDir := testutil.FramesDir(root)
	fixturesDir := testutil.FixturesDir(root)
	if err := testutil.EnsureDir(framesDir); err != nil {
		return fmt.Errorf("failed to create frames directory: %w", err)
	}
	if withFixtures {
		if err := testutil.EnsureDir(fixturesDir); err != nil {
			return fmt.Errorf("failed to create fixtures directory: %w", err)
		}
	}

	for _, v := range variants {
		spec := testutil.DefaultCardSpec()
		if v.mutate != nil {
			v.mutate(&spec)
		}

		fixture := frameFixture{
			Name:        v.name,
			Description: v.description,
			InputFile:   filepath.Join(filepath.Base(framesDir), v.name+".png"),
			CardFound:   !v.noCard,
		}

		framePath := filepath.Join(root, fixture.InputFile)
		if v.noCard {
			if err := utils.SaveImage(blankFrame(spec), framePath); err != nil {
				return fmt.Errorf("failed to save frame %s: %w", v.name, err)
			}
		} else {
			img, _ := testutil.GenerateCardFrame(spec)
			if err := utils.SaveImage(img, framePath); err != nil {
				return fmt.Errorf("failed to save frame %s: %w", v.name, err)
			}
			q := testutil.CardQuad(spec)
			fixture.Quad = &q
			fixture.CardNumber, fixture.ExpiryDate, fixture.HolderName = expectedFields(spec.Lines)
		}
		slog.Debug("Generated frame", "name", v.name, "path", framePath)

		if withFixtures {
			if err := saveFixture(fixture, fixturesDir); err != nil {
				return fmt.Errorf("failed to save fixture '%s': %w", fixture.Name, err)
			}
		}
	}
	return nil
}

func blankFrame(spec testutil.CardSpec) *image.NRGBA {
	return imaging.New(spec.FrameWidth, spec.FrameHeight, spec.Background)
}

// expectedFields picks the printed lines that should classify as fields.
func expectedFields(lines []string) (number, expiry, holder string) {
	for _, l := range lines {
		switch fields.Classify(l) {
		case fields.CardNumber:
			number = l
		case fields.ExpiryDate:
			expiry = l
		case fields.CardHolderName:
			holder = l
		case fields.Unclassified:
		}
	}
	return number, expiry, holder
}

func saveFixture(fixture frameFixture, dir string) error {
	data, err := json.MarshalIndent(fixture, "", "  ")
	if err != nil {
		return err
	}
	filename := filepath.Join(dir, fixture.Name+".json")
	return os.WriteFile(filename, data, 0o600)
}
