// Command mlpaint is an interactive labeler: paint a few strokes on an image, and a classifier
// trained on them proposes a region that grows ring by ring until it is committed as labels.
package main

import (
	"os"

	"mlpaint/internal/app"
	"mlpaint/internal/config"
	"mlpaint/internal/version"
	"mlpaint/ui/mainwindow"
	"mlpaint/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
)

func main() {
	parser := argparse.NewParser("mlpaint", "Interactive raster labeling")
	imagePath := parser.String("i", "image", &argparse.Options{Help: "Image to label"})
	labelPath := parser.String("l", "labels", &argparse.Options{Help: "Label PNG (default: <image>_labels.png)"})
	configPath := parser.String("c", "config", &argparse.Options{Help: "YAML configuration file"})
	bands := parser.StringList("b", "band", &argparse.Options{Help: "Auxiliary single-band layer, may be repeated"})
	err := parser.Parse(os.Args)
	if err != nil {
		os.Stderr.WriteString(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	logger.Infof("Starting mlpaint %s", version.String())

	cfg := config.Default()
	if *configPath != "" {
		if cfg, err = config.Load(*configPath); err != nil {
			logger.Errorf("%v", err)
			os.Exit(1)
		}
	}

	a := fyneapp.NewWithID("org.mlpaint")
	a.Settings().SetTheme(&app.Theme{})

	win := mainwindow.New(a, logger, cfg, prefs.Load(), *bands)
	if *imagePath != "" {
		if err := win.OpenDocument(*imagePath, *labelPath); err != nil {
			logger.Errorf("Failed to open %s: %v", *imagePath, err)
		}
	}
	win.ShowAndRun()
}
