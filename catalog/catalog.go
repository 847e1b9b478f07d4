// Package catalog maps lens model codes to human readable lens names.
package catalog

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/puzpuzpuz/xsync/v3"
)

// Unknown is the name reported for a model code that is not in the catalog.
const Unknown = "???"

// defaultModels lists the TAP-in compatible lenses known at build time.
var defaultModels = map[string]string{
	// APS-C format DSLR (Di II)
	"B016": "Tamron 16-300mm F/3.5-6.3 Di II VC PZD MACRO",
	"B023": "Tamron 10-24mm F/3.5-4.5 Di II VC HLD",
	"B028": "Tamron 18-400mm F/3.5-6.3 Di II VC HLD",

	// full frame DSLR (Di)
	"A009": "Tamron SP 70-200mm F/2.8 Di VC USD",
	"A010": "Tamron 28-300mm F/3.5-6.3 Di VC PZD",
	"A011": "Tamron SP 150-600mm F/5-6.3 Di VC USD",
	"A012": "Tamron SP 15-30mm F/2.8 Di VC USD",
	"A022": "Tamron SP 150-600mm F/5-6.3 Di VC USD G2",
	"A025": "Tamron SP 70-200mm F/2.8 Di VC USD G2",
	"A030": "Tamron SP 70-300mm F/4-5.6 Di VC USD (Tungsten Silver Ring Design)",
	"A032": "Tamron SP 24-70mm F/2.8 Di VC USD G2",
	"A034": "Tamron 70-210mm F/4 Di VC USD",
	"A035": "Tamron 100-400mm F/4.5-6.3 Di VC USD",
	"A037": "Tamron 17-35mm F/2.8-4 Di OSD",
	"A041": "Tamron SP 15-30mm F/2.8 Di VC USD G2",
	"F004": "Tamron SP 90mm F/2.8 Di MACRO 1:1 VC USD",
	"F012": "Tamron SP 35mm F/1.8 Di VC USD",
	"F013": "Tamron SP 45mm F/1.8 Di VC USD",
	"F016": "Tamron SP 85mm F/1.8 Di VC USD",
	"F017": "Tamron SP 90mm F/2.8 Di MACRO 1:1 VC USD",
	"F045": "Tamron SP 35mm F/1.4 Di USD",
}

// Catalog is a goroutine-safe model code to lens name table.
// Model codes are matched without regard to case or surrounding spaces.
type Catalog struct {
	models *xsync.MapOf[string, string]
}

// fileFormat is the layout of a catalog file:
//
//	[models]
//	A025 = "Tamron SP 70-200mm F/2.8 Di VC USD G2"
type fileFormat struct {
	Models map[string]string `toml:"models"`
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{models: xsync.NewMapOf[string, string]()}
}

// Default returns a catalog filled with the built-in lens table.
func Default() *Catalog {
	c := New()
	for code, name := range defaultModels {
		c.Add(code, name)
	}

	return c
}

// Load returns the built-in catalog overlaid with the entries of the TOML file
// at path. Entries of the file replace built-in entries with the same code.
func Load(path string) (*Catalog, error) {
	c := Default()
	if err := c.LoadFile(path); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadFile merges the entries of the TOML file at path into c.
func (c *Catalog) LoadFile(path string) error {
	var raw fileFormat
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return fmt.Errorf("catalog load failed (%s): %w", path, err)
	}

	for code, name := range raw.Models {
		if !c.Add(code, name) {
			return fmt.Errorf("catalog load failed (%s): empty model code or name for %q", path, code)
		}
	}

	return nil
}

// Add sets the name of a model code. It returns false and leaves c unchanged
// if either is blank.
func (c *Catalog) Add(code string, name string) bool {
	code = normalize(code)
	name = strings.TrimSpace(name)
	if code == "" || name == "" {
		return false
	}
	c.models.Store(code, name)

	return true
}

// Lookup returns the name of a model code.
func (c *Catalog) Lookup(code string) (string, bool) {
	return c.models.Load(normalize(code))
}

// Name returns the name of a model code, or [Unknown].
func (c *Catalog) Name(code string) string {
	if name, ok := c.Lookup(code); ok {
		return name
	}

	return Unknown
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return c.models.Size()
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
