// Command suggest replays a stroke script against an image without the viewer: it trains on
// the strokes, grows the suggestion, optionally commits it, and writes the labels.
//
// Usage: suggest -i scene.tif -s strokes.yaml [-o labels.png] [-g 3] [--commit positive]
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"mlpaint/internal/app"
	"mlpaint/internal/config"
	mlimage "mlpaint/internal/image"
	"mlpaint/internal/label"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
)

// Options are the resolved command line arguments.
type Options struct {
	Image   string
	Labels  string
	Output  string
	Config  string
	Bands   []string
	Script  string
	Grow    int // -1 keeps the script's value
	Commit  string
	ProbMap string
	Timeout time.Duration
}

func main() {
	parser := argparse.NewParser("suggest", "Replay a stroke script and write the resulting labels")
	image := parser.String("i", "image", &argparse.Options{Help: "Image to label", Required: true})
	script := parser.String("s", "script", &argparse.Options{Help: "YAML stroke script", Required: true})
	labels := parser.String("l", "labels", &argparse.Options{Help: "Existing label PNG (default: <image>_labels.png)"})
	output := parser.String("o", "output", &argparse.Options{Help: "Output label PNG (default: the input label path)"})
	configPath := parser.String("c", "config", &argparse.Options{Help: "YAML configuration file"})
	bands := parser.StringList("b", "band", &argparse.Options{Help: "Auxiliary single-band layer, may be repeated"})
	grow := parser.Int("g", "grow", &argparse.Options{Help: "Rings to grow after the last stroke, overriding the script", Default: -1})
	commit := parser.String("", "commit", &argparse.Options{Help: "Commit the suggestion as this code (positive, negative, class-N), overriding the script"})
	probMap := parser.String("p", "probmap", &argparse.Options{Help: "Also write the P(negative) map to this PNG"})
	timeout := parser.Int("", "timeout", &argparse.Options{Help: "Seconds to wait for background training per ring", Default: 60})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	err = run(logger, Options{
		Image:   *image,
		Labels:  *labels,
		Output:  *output,
		Config:  *configPath,
		Bands:   *bands,
		Script:  *script,
		Grow:    *grow,
		Commit:  *commit,
		ProbMap: *probMap,
		Timeout: time.Duration(*timeout) * time.Second,
	})
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(log logs.Log, opt Options) error {
	cfg := config.Default()
	if opt.Config != "" {
		var err error
		if cfg, err = config.Load(opt.Config); err != nil {
			return err
		}
	}
	script, err := LoadScript(opt.Script)
	if err != nil {
		return err
	}
	if opt.Grow >= 0 {
		script.Grow = opt.Grow
	}
	if opt.Commit != "" {
		script.Commit = opt.Commit
	}
	code, err := script.CommitCode()
	if err != nil {
		return err
	}

	doc, err := app.Open(log, cfg, app.OpenOptions{Image: opt.Image, Labels: opt.Labels, Bands: opt.Bands})
	if err != nil {
		return err
	}
	s := doc.Session
	wait := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), opt.Timeout)
		defer cancel()
		return s.Wait(ctx)
	}

	for i, dabs := range script.Strokes {
		for _, ev := range dabs {
			s.Paint(ev)
		}
		if err := s.Release(); err != nil {
			return fmt.Errorf("stroke %d: %w", i, err)
		}
	}
	if !s.HasSuggestion() {
		return fmt.Errorf("strokes produced no suggestion (trained: %v)", s.Trained())
	}
	log.Infof("Initial suggestion: ring %d of %d, %d pixels", s.RingIndex(), s.RingCount(), s.EnclosedCount())

	for i := 0; i < script.Grow; i++ {
		if err := wait(); err != nil {
			return err
		}
		ok, err := s.Grow()
		if err != nil {
			return err
		}
		if !ok {
			log.Infof("Suggestion saturated after %d extra rings", i)
			break
		}
	}
	log.Infof("Final suggestion: ring %d, cost < %g, %d pixels", s.RingIndex(), s.Threshold(), s.EnclosedCount())

	if opt.ProbMap != "" {
		pm, err := s.ProbabilityMap(context.Background())
		if err != nil {
			return err
		}
		if err := mlimage.SaveGray(opt.ProbMap, pm); err != nil {
			return err
		}
	}

	if code != label.Unlabeled {
		n, err := s.Commit(code)
		if err != nil {
			return err
		}
		log.Infof("Committed %d pixels as %v", n, code)
	}
	if err := wait(); err != nil {
		return err
	}

	out := opt.Output
	if out == "" {
		out = doc.LabelPath
	}
	return doc.SaveAs(out)
}
