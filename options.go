package gocalculus

// Options holds the tolerances and iteration caps of the numeric routines.
// A zero field means "use the default".
type Options struct {
	// Sampling
	SamplePoints int     // abscissas per plotted curve
	DefaultStart float64 // plot range when the caller gives none
	DefaultEnd   float64

	// Differentiation
	MaxDiffOrder int // highest order the diff tool accepts
	MaxDiffNodes int // node budget for any intermediate derivative tree

	// Quadrature
	IntegrationTolerance float64 // absolute tolerance on the whole interval
	MaxDepth             int     // bisection levels
	MaxIntervals         int     // total Gauss-Kronrod evaluations

	// Critical points
	RootGrid          int     // uniform intervals scanned for sign changes
	RootTolerance     float64 // bracket width at which bisection stops
	RootMaxIterations int     // bisection and golden-section cap
	RootResidual      float64 // |f'| always accepted as zero after refinement
	TangentTolerance  float64 // |f'| accepted at a touching (no sign change) zero
	RootMergeDistance float64 // roots closer than this are one root
	ClassifyTolerance float64 // |f''| below this classifies as inflection

	// Limits
	LimitSteps          int     // offsets 10^-1 .. 10^-LimitSteps
	LimitTolerance      float64 // relative agreement between estimates
	DivergenceThreshold float64 // magnitude treated as unbounded
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		SamplePoints:         200,
		DefaultStart:         -10,
		DefaultEnd:           10,
		MaxDiffOrder:         8,
		MaxDiffNodes:         50000,
		IntegrationTolerance: 1e-10,
		MaxDepth:             50,
		MaxIntervals:         10000,
		RootGrid:             1000,
		RootTolerance:        1e-10,
		RootMaxIterations:    200,
		RootResidual:         1e-6,
		TangentTolerance:     1e-9,
		RootMergeDistance:    1e-7,
		ClassifyTolerance:    1e-6,
		LimitSteps:           8,
		LimitTolerance:       1e-6,
		DivergenceThreshold:  1e7,
	}
}

// withDefaults fills every zero field from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	setInt := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	setFloat := func(v *float64, def float64) {
		if *v <= 0 {
			*v = def
		}
	}
	setInt(&o.SamplePoints, d.SamplePoints)
	setInt(&o.MaxDiffOrder, d.MaxDiffOrder)
	setInt(&o.MaxDiffNodes, d.MaxDiffNodes)
	setInt(&o.MaxDepth, d.MaxDepth)
	setInt(&o.MaxIntervals, d.MaxIntervals)
	setInt(&o.RootGrid, d.RootGrid)
	setInt(&o.RootMaxIterations, d.RootMaxIterations)
	setInt(&o.LimitSteps, d.LimitSteps)
	setFloat(&o.IntegrationTolerance, d.IntegrationTolerance)
	setFloat(&o.RootTolerance, d.RootTolerance)
	setFloat(&o.RootResidual, d.RootResidual)
	setFloat(&o.TangentTolerance, d.TangentTolerance)
	setFloat(&o.RootMergeDistance, d.RootMergeDistance)
	setFloat(&o.ClassifyTolerance, d.ClassifyTolerance)
	setFloat(&o.LimitTolerance, d.LimitTolerance)
	setFloat(&o.DivergenceThreshold, d.DivergenceThreshold)
	if o.DefaultStart == 0 && o.DefaultEnd == 0 {
		o.DefaultStart, o.DefaultEnd = d.DefaultStart, d.DefaultEnd
	}
	// Limit offsets below 1e-15 vanish against the approach point.
	if o.LimitSteps > 15 {
		o.LimitSteps = 15
	}
	return o
}
