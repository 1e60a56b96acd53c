// cfrview prints the contents of CFR geometry and texture files.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/cfrtools/internal/app"
	"github.com/Faultbox/cfrtools/internal/inspect"
	"github.com/Faultbox/cfrtools/pkg/cfr"
)

var flagPNG = flag.String("png", "", "Export texture layers as PNG files to this directory")

func main() {
	tool := app.Start("cfrview")

	files, err := tool.Inputs("CFR Files", "cfrg", "cfrt")
	if err != nil {
		tool.Log.Error("No input", zap.Error(err))
		tool.Close()
		os.Exit(1)
	}

	code := tool.Run(files, func(path string) error {
		name := filepath.Base(path)
		switch strings.ToLower(filepath.Ext(path)) {
		case ".cfrg":
			g := cfr.NewGeometry()
			if err := cfr.LoadGeometryFile(path, g); err != nil {
				return err
			}
			return inspect.Geometry(os.Stdout, name, g)
		case ".cfrt":
			tex, err := cfr.LoadTextureFile(path)
			if err != nil {
				return err
			}
			if err := inspect.Texture(os.Stdout, name, tex); err != nil {
				return err
			}
			if *flagPNG == "" {
				return nil
			}
			if err := os.MkdirAll(*flagPNG, 0755); err != nil {
				return err
			}
			paths, err := inspect.ExportPNG(*flagPNG, name, tex)
			for _, p := range paths {
				tool.Log.Info("Exported", zap.String("file", p))
			}
			return err
		}
		return fmt.Errorf("unknown file type %q", filepath.Ext(path))
	}, app.HasExt(".cfrg", ".cfrt"))

	tool.Close()
	os.Exit(code)
}
