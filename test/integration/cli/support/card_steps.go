package support

import (
	"fmt"
	"image"
	"image/color"

	"github.com/cucumber/godog"
	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/cardscan/internal/testutil"
	"github.com/MeKo-Tech/cardscan/internal/utils"
)

// aSyntheticCardFrame renders the default tilted card into the scenario directory.
func (testCtx *TestContext) aSyntheticCardFrame(name string) error {
	img, _ := testutil.GenerateCardFrame(testutil.DefaultCardSpec())
	return testCtx.saveFrame(img, name)
}

// aSyntheticCardFrameAtAngle renders the default card rotated by angle degrees.
func (testCtx *TestContext) aSyntheticCardFrameAtAngle(name string, angle float64) error {
	spec := testutil.DefaultCardSpec()
	spec.Angle = angle
	img, _ := testutil.GenerateCardFrame(spec)
	return testCtx.saveFrame(img, name)
}

func (testCtx *TestContext) aBlankFrame(name string) error {
	img := imaging.New(640, 480, color.NRGBA{R: 30, G: 30, B: 35, A: 255})
	return testCtx.saveFrame(img, name)
}

// aDirectoryOfCardFrames fills dir with n copies of the card frame.
func (testCtx *TestContext) aDirectoryOfCardFrames(dir string, n int) error {
	img, _ := testutil.GenerateCardFrame(testutil.DefaultCardSpec())
	for i := range n {
		if err := testCtx.saveFrame(img, fmt.Sprintf("%s/frame_%03d.png", dir, i)); err != nil {
			return err
		}
	}
	return nil
}

func (testCtx *TestContext) saveFrame(img image.Image, name string) error {
	path := testCtx.path(name)
	if err := utils.SaveImage(img, path); err != nil {
		return fmt.Errorf("failed to write frame %s: %w", path, err)
	}
	testCtx.TrackFile(path)
	return nil
}

// RegisterCardSteps registers steps that create input frames.
func (testCtx *TestContext) RegisterCardSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a synthetic card frame "([^"]*)"$`, testCtx.aSyntheticCardFrame)
	sc.Step(`^a synthetic card frame "([^"]*)" rotated by (-?\d+(?:\.\d+)?) degrees$`, testCtx.aSyntheticCardFrameAtAngle)
	sc.Step(`^a blank frame "([^"]*)"$`, testCtx.aBlankFrame)
	sc.Step(`^a directory "([^"]*)" with (\d+) card frames$`, testCtx.aDirectoryOfCardFrames)
}
