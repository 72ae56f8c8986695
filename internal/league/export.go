package league

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/diamond/internal/domain/model"
	"gopkg.in/yaml.v3"
)

const filePermission = 0o600

// Export writes a league as YAML.
func Export(w io.Writer, lg model.League) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(lg); err != nil {
		return fmt.Errorf("encode league: %w", err)
	}
	return enc.Close()
}

// Load reads a YAML league. Unknown keys are rejected.
func Load(r io.Reader) (model.League, error) {
	var lg model.League
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&lg); err != nil {
		return model.League{}, fmt.Errorf("decode league: %w", err)
	}
	lg.Universe.CurrentDateTime = lg.Universe.CurrentDateTime.UTC()
	for i := range lg.Games {
		lg.Games[i].DateTime = lg.Games[i].DateTime.UTC()
	}
	return lg, nil
}

// SaveFile exports a league to path.
func SaveFile(path string, lg model.League) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return Export(f, lg)
}

// LoadFile loads a league from path.
func LoadFile(path string) (model.League, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.League{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}
