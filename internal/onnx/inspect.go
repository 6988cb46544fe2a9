package onnx

import (
	"fmt"

	onnxrt "github.com/yalue/onnxruntime_go"
)

// TensorInfo describes one model input or output.
type TensorInfo struct {
	Name       string  `json:"name"`
	Dimensions []int64 `json:"dimensions"`
	DataType   string  `json:"data_type"`
}

// ModelInfo is what Inspect reads from a model file.
type ModelInfo struct {
	Path        string       `json:"path"`
	Inputs      []TensorInfo `json:"inputs"`
	Outputs     []TensorInfo `json:"outputs"`
	Producer    string       `json:"producer,omitempty"`
	Version     int64        `json:"version,omitempty"`
	Description string       `json:"description,omitempty"`
}

// Inspect reads the input/output signature and metadata of a model. The
// runtime must be initialized first.
func Inspect(path string) (ModelInfo, error) {
	inputs, outputs, err := onnxrt.GetInputOutputInfo(path)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("failed to get model info: %w", err)
	}
	info := ModelInfo{
		Path:    path,
		Inputs:  convertInfo(inputs),
		Outputs: convertInfo(outputs),
	}

	metadata, err := onnxrt.GetModelMetadata(path)
	if err != nil {
		return info, nil //nolint:nilerr // metadata is optional
	}
	defer func() { _ = metadata.Destroy() }()
	if producer, err := metadata.GetProducerName(); err == nil {
		info.Producer = producer
	}
	if version, err := metadata.GetVersion(); err == nil {
		info.Version = version
	}
	if description, err := metadata.GetDescription(); err == nil {
		info.Description = description
	}
	return info, nil
}

func convertInfo(in []onnxrt.InputOutputInfo) []TensorInfo {
	out := make([]TensorInfo, 0, len(in))
	for _, i := range in {
		out = append(out, TensorInfo{
			Name:       i.Name,
			Dimensions: []int64(i.Dimensions),
			DataType:   i.DataType.String(),
		})
	}
	return out
}
