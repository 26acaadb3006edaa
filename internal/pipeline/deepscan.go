package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/scout-cli/internal/model"
)

// ScanInput is what each pass-4 strategy receives: the behavior context
// from pass 3 plus the record and full text.
type ScanInput struct {
	Record   *model.NormalizedProspect
	Text     string
	Behavior *BehaviorResult
}

// The three sub-analyses are independently swappable strategies so they
// can be backed by different inference providers without touching fusion.

// SalesFitAnalyzer assesses buying ability and product fit.
type SalesFitAnalyzer interface {
	AnalyzeSalesFit(ctx context.Context, in ScanInput) (*SalesFit, error)
}

// Investigator surfaces social/status signals and pain points.
type Investigator interface {
	Investigate(ctx context.Context, in ScanInput) (*Investigation, error)
}

// PersonalityClassifier assigns a personality type.
type PersonalityClassifier interface {
	ClassifyPersonality(ctx context.Context, in ScanInput) (*PersonalityRead, error)
}

// Strategies bundles the three pass-4 sub-analyses.
type Strategies struct {
	SalesFit    SalesFitAnalyzer
	Investigate Investigator
	Personality PersonalityClassifier
}

// DeepScanPass runs the three sub-analyses concurrently. None depends on
// another's output, so they share only the immutable input; the first
// error cancels the rest.
func DeepScanPass(ctx context.Context, s Strategies, in ScanInput) (*DeepScanResult, error) {
	var out DeepScanResult

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fit, err := s.SalesFit.AnalyzeSalesFit(gCtx, in)
		if err != nil {
			return eris.Wrap(err, "sales fit")
		}
		out.SalesFit = *fit
		return nil
	})
	g.Go(func() error {
		inv, err := s.Investigate.Investigate(gCtx, in)
		if err != nil {
			return eris.Wrap(err, "investigation")
		}
		out.Investigation = *inv
		return nil
	})
	g.Go(func() error {
		p, err := s.Personality.ClassifyPersonality(gCtx, in)
		if err != nil {
			return eris.Wrap(err, "personality")
		}
		out.Personality = *p
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
