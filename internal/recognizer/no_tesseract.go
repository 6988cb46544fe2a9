//go:build !tesseract

package recognizer

func newTesseract(Config) (Engine, error) {
	return nil, ErrNoBackend
}
