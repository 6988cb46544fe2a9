package recognizer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sync"

	"github.com/MeKo-Tech/cardscan/internal/fields"
	"github.com/MeKo-Tech/cardscan/internal/mempool"
	"github.com/MeKo-Tech/cardscan/internal/models"
	"github.com/MeKo-Tech/cardscan/internal/onnx"
	"github.com/MeKo-Tech/cardscan/internal/utils"
	"github.com/disintegration/imaging"
	onnxrt "github.com/yalue/onnxruntime_go"
)

// ONNXRecognizer runs a CTC text-recognition model on line strips.
type ONNXRecognizer struct {
	cfg        Config
	charset    *Charset
	session    *onnxrt.DynamicAdvancedSession
	inputInfo  onnxrt.InputOutputInfo
	outputInfo onnxrt.InputOutputInfo
	mu         sync.Mutex
}

// NewONNX loads the recognition model and its dictionary.
func NewONNX(cfg Config) (*ONNXRecognizer, error) {
	if err := models.ValidateModelExists(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("recognition model: %w", err)
	}
	charset, err := LoadCharset(cfg.DictPath)
	if err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}
	if err := onnx.Initialize(cfg.GPU.UseGPU); err != nil {
		return nil, err
	}

	inputs, outputs, err := onnxrt.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get model info: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, fmt.Errorf("expected 1 input and 1 output, got %d inputs and %d outputs", len(inputs), len(outputs))
	}
	if d := inputs[0].Dimensions; len(d) != 4 {
		return nil, fmt.Errorf("expected 4D input tensor, got %dD", len(d))
	}

	opts, err := onnx.NewSessionOptions(cfg.GPU, cfg.NumThreads)
	if err != nil {
		return nil, err
	}
	defer func() { _ = opts.Destroy() }()

	session, err := onnxrt.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Debug("Recognition model loaded",
		"model", cfg.ModelPath, "classes", charset.Size()+1, "mode", cfg.Mode)
	return &ONNXRecognizer{
		cfg:        cfg,
		charset:    charset,
		session:    session,
		inputInfo:  inputs[0],
		outputInfo: outputs[0],
	}, nil
}

// Recognize splits img into line strips and reads each of them. Lines are
// returned top to bottom with boxes in img coordinates.
func (r *ONNXRecognizer) Recognize(ctx context.Context, img image.Image) ([]fields.TextLine, error) {
	if err := checkImage(img); err != nil {
		return nil, err
	}
	strips := SegmentLines(img)
	if len(strips) == 0 {
		strips = []image.Rectangle{img.Bounds()}
	}

	lines := make([]fields.TextLine, 0, len(strips))
	for _, box := range strips {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		crop := imaging.Crop(img, box)
		text, conf, err := r.recognizeStrip(crop)
		if err != nil {
			return nil, err
		}
		if r.cfg.Mode == ModeAccurate {
			if alt, altConf, err := r.recognizeStrip(utils.EnhanceForOCR(crop)); err == nil && altConf > conf {
				text, conf = alt, altConf
			}
		}
		lines = append(lines, fields.TextLine{Text: text, Confidence: conf, Box: box})
	}
	return finishLines(lines, r.cfg), nil
}

func (r *ONNXRecognizer) recognizeStrip(img image.Image) (string, float64, error) {
	resized, err := ResizeForRecognition(img, r.cfg.ImageHeight, r.cfg.MaxWidth, r.cfg.PadWidthMultiple)
	if err != nil {
		return "", 0, err
	}
	tensor, buf, err := normalizeForRecognition(resized)
	if err != nil {
		return "", 0, err
	}
	defer mempool.PutFloat32(buf)

	data, shape, err := r.run(tensor)
	if err != nil {
		return "", 0, err
	}
	classes := r.charset.Size() + 1
	indices, probs := decodeGreedy(data, shape, classesFirst(shape, classes))
	return r.charset.Decode(indices), meanConfidence(probs), nil
}

// run executes the model and returns a copy of the output tensor.
func (r *ONNXRecognizer) run(tensor onnx.Tensor) ([]float32, []int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return nil, nil, errors.New("recognizer session is closed")
	}

	input, err := onnxrt.NewTensor(onnxrt.NewShape(tensor.Shape...), tensor.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer func() { _ = input.Destroy() }()

	outputs := []onnxrt.Value{nil}
	if err := r.session.Run([]onnxrt.Value{input}, outputs); err != nil {
		return nil, nil, fmt.Errorf("inference failed: %w", err)
	}
	defer func() {
		if outputs[0] != nil {
			_ = outputs[0].Destroy()
		}
	}()

	out, ok := outputs[0].(*onnxrt.Tensor[float32])
	if !ok {
		return nil, nil, fmt.Errorf("expected float32 tensor, got %T", outputs[0])
	}
	data := append([]float32(nil), out.GetData()...)
	shape := append([]int64(nil), out.GetShape()...)
	if len(shape) != 3 {
		return nil, nil, fmt.Errorf("expected 3D output tensor, got shape %v", shape)
	}
	return data, shape, nil
}

// Warmup runs a few blank strips through the model so the first real frame
// does not pay for lazy allocations.
func (r *ONNXRecognizer) Warmup(iterations int) error {
	blank := imaging.New(r.cfg.ImageHeight*4, r.cfg.ImageHeight, color.White)
	for range iterations {
		if _, _, err := r.recognizeStrip(blank); err != nil {
			return fmt.Errorf("warmup: %w", err)
		}
	}
	return nil
}

// Close releases the session.
func (r *ONNXRecognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return nil
	}
	err := r.session.Destroy()
	r.session = nil
	return err
}
