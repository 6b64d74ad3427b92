package engine

import (
	"context"
	"image"
	"runtime"
	"time"

	"mlpaint/internal/classifier"

	"golang.org/x/sync/errgroup"
)

// ProbabilityMap evaluates the current classifier over the whole image and returns
// 255·P(negative) per pixel.
func (s *Session) ProbabilityMap(ctx context.Context) (*image.Gray, error) {
	return s.ProbabilityMapWith(ctx, s.classifier)
}

// ProbabilityMapWith evaluates c, usually taken from Classifier, over the whole image. It
// reads only the feature extractor and c, so it may run while the session keeps changing.
// Rows are evaluated in parallel; cancelling ctx stops the work early.
func (s *Session) ProbabilityMapWith(ctx context.Context, c classifier.Classifier) (*image.Gray, error) {
	if c == nil {
		return nil, ErrNoClassifier
	}
	start := time.Now()
	w, h := s.Width(), s.Height()
	img := image.NewGray(image.Rect(0, 0, w, h))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for y := 0; y < h; y++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var fv []float64
			row := img.Pix[y*img.Stride : y*img.Stride+w]
			for x := range row {
				fv = s.feat.Features(x, y, fv)
				row[x] = uint8(255*classifier.ProbNegative(c, fv) + 0.5)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.log.Infof("Probability map %dx%d in %v", w, h, time.Since(start))
	return img, nil
}
