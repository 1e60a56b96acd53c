// cfrtconvert converts images to CFR textures.
package main

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/cfrtools/internal/app"
	"github.com/Faultbox/cfrtools/internal/imaging"
)

func main() {
	tool := app.Start("cfrtconvert")
	override := imaging.Layout{
		Channels: tool.Config.Texture.Channels,
		Bytes:    tool.Config.Texture.Bytes,
	}

	files, err := tool.Inputs("Images", "png", "jpg", "jpeg", "gif", "bmp", "tif", "tiff", "webp", "tga")
	if err != nil {
		tool.Log.Error("No input", zap.Error(err))
		tool.Close()
		os.Exit(1)
	}

	code := tool.Run(files, func(path string) error {
		out, tex, err := imaging.ConvertFile(path, override)
		if err != nil {
			return err
		}
		tool.Log.Info("Converted",
			zap.String("file", filepath.Base(path)),
			zap.String("output", filepath.Base(out)),
			zap.Int("width", tex.Width()),
			zap.Int("height", tex.Height()),
			zap.Int("channels", tex.Channels()),
			zap.Int("bytes", tex.Bytes()))
		return nil
	}, imaging.Supported)

	tool.Close()
	os.Exit(code)
}
