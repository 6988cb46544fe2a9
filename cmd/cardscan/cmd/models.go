package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/cardscan/internal/models"
	"github.com/MeKo-Tech/cardscan/internal/onnx"
)

// ModelFileStatus reports one file the ONNX recognizer needs.
type ModelFileStatus struct {
	Kind    string          `json:"kind"`
	Path    string          `json:"path"`
	Present bool            `json:"present"`
	SizeMB  float64         `json:"size_mb,omitempty"`
	Info    *onnx.ModelInfo `json:"info,omitempty"`
	Error   string          `json:"error,omitempty"`
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the recognition model files",
}

var modelsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the recognition model and dictionary are present",
	Long: `Resolve the recognition model and dictionary paths under --models-dir and
report whether they exist. With --inspect the ONNX Runtime is initialized and
the model's inputs, outputs and metadata are printed as well.

The command fails when a file is missing.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		inspect, _ := cmd.Flags().GetBool("inspect")
		asJSON, _ := cmd.Flags().GetBool("json")
		dir := models.GetModelsDir(GetConfig().ModelsDir)

		files := []ModelFileStatus{
			statModelFile("recognition", models.RecognitionModelPath(dir)),
			statModelFile("dictionary", models.DictionaryPath(dir)),
		}

		if inspect && files[0].Present {
			if err := onnx.Initialize(false); err != nil {
				files[0].Error = err.Error()
			} else if info, err := onnx.Inspect(files[0].Path); err != nil {
				files[0].Error = err.Error()
			} else {
				files[0].Info = &info
			}
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(files); err != nil {
				return err
			}
		} else {
			printModelStatus(cmd, dir, files)
		}

		for _, f := range files {
			if !f.Present {
				return errors.New("some model files are missing")
			}
		}
		return nil
	},
}

func statModelFile(kind, path string) ModelFileStatus {
	st := ModelFileStatus{Kind: kind, Path: path}
	if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
		st.Present = true
		st.SizeMB = float64(fi.Size()) / (1024 * 1024)
	}
	return st
}

func printModelStatus(cmd *cobra.Command, dir string, files []ModelFileStatus) {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Models directory: %s\n", dir)
	for _, f := range files {
		if !f.Present {
			_, _ = fmt.Fprintf(out, "missing  %-11s %s\n", f.Kind, f.Path)
			continue
		}
		_, _ = fmt.Fprintf(out, "ok       %-11s %s (%.1f MB)\n", f.Kind, f.Path, f.SizeMB)
		if f.Error != "" {
			_, _ = fmt.Fprintf(out, "         inspect failed: %s\n", f.Error)
		}
		if f.Info == nil {
			continue
		}
		for i, in := range f.Info.Inputs {
			_, _ = fmt.Fprintf(out, "         input[%d]  %s %v (%s)\n", i, in.Name, in.Dimensions, in.DataType)
		}
		for i, o := range f.Info.Outputs {
			_, _ = fmt.Fprintf(out, "         output[%d] %s %v (%s)\n", i, o.Name, o.Dimensions, o.DataType)
		}
		if f.Info.Producer != "" {
			_, _ = fmt.Fprintf(out, "         producer  %s\n", f.Info.Producer)
		}
	}
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsCheckCmd)
	modelsCheckCmd.Flags().Bool("inspect", false, "load the recognition model and print its signature")
	modelsCheckCmd.Flags().Bool("json", false, "print the report as JSON")
}
