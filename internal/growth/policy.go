package growth

import "mlpaint/internal/config"

// Policy sizes growth batches. Steps inside the interior phase pop enough blocks to cover the
// estimated positive area in Interior steps; later steps grow linearly with the step index.
type Policy struct {
	BlockSize int
	Interior  int
	Scale     float64
}

// NewPolicy builds the policy from the growth configuration.
func NewPolicy(cfg config.Growth) Policy {
	return Policy{BlockSize: max(cfg.BlockSize, 1), Interior: max(cfg.InteriorSteps, 1), Scale: cfg.PeripheralScale}
}

// Batch returns how many entries to pop when producing ring step+1 from ring step. It is
// non-decreasing in step for a fixed estimate.
func (p Policy) Batch(estimate, step int) int {
	base := max(estimate/(p.Interior*p.BlockSize*p.BlockSize), 1)
	if step < p.Interior {
		return base
	}
	grow := 1 + p.Scale*float64(step-p.Interior)/float64(p.Interior)
	return max(int(float64(base)*grow), base)
}
