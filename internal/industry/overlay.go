package industry

import (
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// overlayFile is the on-disk shape of an industry rules file. Listed
// models are registered after the built-ins: new names append to the
// tie-break order, existing names replace the built-in in place.
type overlayFile struct {
	Industries []*Model `yaml:"industries"`
}

// LoadOverlay registers industry models from a YAML rules file.
func (e *Engine) LoadOverlay(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "read industry rules %s", path)
	}
	var f overlayFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return eris.Wrapf(err, "parse industry rules %s", path)
	}
	for _, m := range f.Industries {
		if m.Name == "" {
			return eris.Errorf("industry rules %s: model with empty name", path)
		}
		if err := e.Register(m); err != nil {
			return err
		}
	}
	e.log.Info("loaded industry rules overlay",
		zap.String("path", path), zap.Int("industries", len(f.Industries)))
	return nil
}
