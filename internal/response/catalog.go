package response

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed phrases.yaml
var defaultPhrases []byte

// Phrase set names in the catalog.
const (
	PhrasesGreeting     = "greeting"
	PhrasesMemory       = "memory"
	PhrasesComfort      = "comfort"
	PhrasesActivity     = "activity"
	PhrasesTime         = "time_based"
	PhrasesFood         = "food"
	PhrasesFamily       = "family"
	PhrasesReassurance  = "reassurance"
	PhrasesMusic        = "music"
	PhrasesHealth       = "health"
	PhrasesHobby        = "hobby"
	PhrasesPet          = "pet"
	PhrasesWork         = "work"
	PhrasesOrientation  = "orientation"
	PhrasesIdentity     = "identity"
	PhrasesLocation     = "location"
	PhrasesEmergency    = "emergency"
	PhrasesBreathing    = "breathing"
	PhrasesDefault      = "default"
	PhrasesDefaultNamed = "default_named"
)

var requiredPhraseSets = []string{
	PhrasesGreeting, PhrasesMemory, PhrasesComfort, PhrasesActivity, PhrasesTime,
	PhrasesFood, PhrasesFamily, PhrasesReassurance, PhrasesMusic, PhrasesHealth,
	PhrasesHobby, PhrasesPet, PhrasesWork, PhrasesOrientation, PhrasesIdentity,
	PhrasesLocation, PhrasesEmergency, PhrasesBreathing, PhrasesDefault, PhrasesDefaultNamed,
}

// Catalog maps a phrase set name to its phrasing variants.
type Catalog map[string][]string

// LoadCatalog decodes a YAML catalog. Sets may be partial; use Merge to
// layer them over the default catalog.
func LoadCatalog(r io.Reader) (Catalog, error) {
	var c Catalog
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		if err == io.EOF {
			return Catalog{}, nil
		}
		return nil, fmt.Errorf("decode phrase catalog: %w", err)
	}
	for name, phrases := range c {
		if len(phrases) == 0 {
			return nil, fmt.Errorf("phrase set %q is empty", name)
		}
	}
	return c, nil
}

// DefaultCatalog returns the built-in phrasings.
func DefaultCatalog() (Catalog, error) {
	c, err := LoadCatalog(bytes.NewReader(defaultPhrases))
	if err != nil {
		return nil, err
	}
	return c, c.Validate()
}

// CatalogFromFile layers the sets defined in path over the default catalog.
func CatalogFromFile(path string) (Catalog, error) {
	base, err := DefaultCatalog()
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open phrase catalog: %w", err)
	}
	defer f.Close()

	override, err := LoadCatalog(f)
	if err != nil {
		return nil, err
	}
	merged := base.Merge(override)
	return merged, merged.Validate()
}

// Merge returns a copy of c with the sets of other replacing its own.
func (c Catalog) Merge(other Catalog) Catalog {
	out := make(Catalog, len(c)+len(other))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Validate checks that every phrase set the engine uses is present.
func (c Catalog) Validate() error {
	for _, name := range requiredPhraseSets {
		if len(c[name]) == 0 {
			return fmt.Errorf("phrase catalog is missing set %q", name)
		}
	}
	return nil
}
