// cfrtflip flips CFR textures vertically in place.
package main

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/cfrtools/internal/app"
	"github.com/Faultbox/cfrtools/pkg/cfr"
)

func main() {
	tool := app.Start("cfrtflip")

	// Flipping rewrites the input, which would retrigger the watcher.
	if tool.Config.Report.Watch {
		tool.Log.Warn("Watch mode is not supported, flipping once")
		tool.Config.Report.Watch = false
	}

	files, err := tool.Inputs("CFR Textures", "cfrt")
	if err != nil {
		tool.Log.Error("No input", zap.Error(err))
		tool.Close()
		os.Exit(1)
	}

	code := tool.Run(files, func(path string) error {
		tex, err := cfr.LoadTextureFile(path)
		if err != nil {
			return err
		}
		tex.Flip()
		if err := cfr.SaveTextureFile(path, tex); err != nil {
			return err
		}
		tool.Log.Info("Flipped", zap.String("file", filepath.Base(path)))
		return nil
	}, app.HasExt(".cfrt"))

	tool.Close()
	os.Exit(code)
}
