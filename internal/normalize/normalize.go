// Package normalize maps heterogeneous raw prospect payloads into the
// canonical NormalizedProspect shape. Mapping is a pure function of the
// payload; no mapper touches storage.
package normalize

import (
	"encoding/json"
	"fmt"

	"github.com/sells-group/scout-cli/internal/model"
)

// UnsupportedSourceKindError is returned for unknown or empty source
// kinds. The engine never guesses a mapper; this is an input error and is
// never retried.
type UnsupportedSourceKindError struct {
	Kind model.SourceKind
}

func (e *UnsupportedSourceKindError) Error() string {
	if e.Kind == "" {
		return "normalize: empty source kind"
	}
	return fmt.Sprintf("normalize: unsupported source kind %q", e.Kind)
}

// mapperFunc converts one raw payload into the canonical shape.
type mapperFunc func(raw json.RawMessage) (model.NormalizedProspect, error)

// Engine dispatches payloads to source-specific mappers.
type Engine struct {
	mappers map[model.SourceKind]mapperFunc
}

// NewEngine builds an engine with the full mapper set registered.
func NewEngine() *Engine {
	return &Engine{
		mappers: map[model.SourceKind]mapperFunc{
			model.SourceChatTranscript:    mapChatTranscript,
			model.SourceChatPreForm:       mapChatPreForm,
			model.SourceScreenshotOCR:     mapScreenshotOCR,
			model.SourceCSVRow:            mapCSVRow,
			model.SourcePDFText:           mapPDFText,
			model.SourceBrowserExtension:  mapBrowserExtension,
			model.SourceSocialAPI:         mapSocialAPI,
			model.SourceSiteCrawl:         mapSiteCrawl,
			model.SourceManualInput:       mapManualInput,
			model.SourceCrossConsolidated: mapCrossConsolidated,
		},
	}
}

// Supports reports whether the engine has a mapper registered for the
// kind.
func (e *Engine) Supports(kind model.SourceKind) bool {
	_, ok := e.mappers[kind]
	return ok
}

// Normalize converts a raw payload of the given kind into the canonical
// record. The tenant is accepted for symmetry with the ingest contract but
// does not influence mapping.
func (e *Engine) Normalize(kind model.SourceKind, raw json.RawMessage, tenantID string) (model.NormalizedProspect, error) {
	mapper, ok := e.mappers[kind]
	if !ok {
		return model.NormalizedProspect{}, &UnsupportedSourceKindError{Kind: kind}
	}

	p, err := mapper(raw)
	if err != nil {
		return model.NormalizedProspect{}, err
	}

	p.SourceKind = kind
	if p.Sentiment == "" {
		p.Sentiment = model.SentimentNeutral
	}
	if p.Personality == "" {
		p.Personality = model.PersonalityUnknown
	}
	if p.BuyingTimeline == "" {
		p.BuyingTimeline = model.TimelineUnknown
	}
	p.QualityScore = p.ComputeQualityScore()
	return p, nil
}
