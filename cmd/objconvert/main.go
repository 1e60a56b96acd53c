// objconvert converts Wavefront OBJ files to CFR geometry.
package main

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/cfrtools/internal/app"
	"github.com/Faultbox/cfrtools/internal/convert"
)

func main() {
	tool := app.Start("objconvert")

	opts, err := tool.Config.ConvertOptions()
	if err != nil {
		tool.Notifier.Error("objconvert", err)
		tool.Close()
		os.Exit(1)
	}

	files, err := tool.Inputs("Wavefront OBJ", "obj")
	if err != nil {
		tool.Log.Error("No input", zap.Error(err))
		tool.Close()
		os.Exit(1)
	}

	code := tool.Run(files, func(path string) error {
		res, err := convert.File(path, opts, tool.Log)
		if err != nil {
			return err
		}
		tool.Log.Info("Converted",
			zap.String("file", filepath.Base(path)),
			zap.String("output", filepath.Base(res.Output)),
			zap.Int("vertices", res.Vertices),
			zap.Int("elements", res.Elements),
			zap.Int("ranges", len(res.Ranges)),
			zap.Int("removed", res.Removed),
			zap.Int("invalid", res.Invalid),
			zap.Duration("elapsed", res.Duration))
		return nil
	}, app.HasExt(".obj"))

	tool.Close()
	os.Exit(code)
}
