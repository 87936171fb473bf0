package catalogs

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"tillcraft.ai/internal/sim/items"
)

//go:embed crops.schema.json
var cropsSchemaJSON string

var cropsSchema = jsonschema.MustCompileString("crops.schema.json", cropsSchemaJSON)

type Catalogs struct {
	Crops CropCatalog
}

type CropCatalog struct {
	ByID   map[items.CropID]CropDef
	Digest string
}

// CropDef is the read-only definition shared by every crop of one species.
type CropDef struct {
	ID                 items.CropID `json:"id"`
	Name               string       `json:"name"`
	Stages             uint8        `json:"stages"`
	GrowthTimePerStage float64      `json:"growth_time_per_stage"`
	TextureAtlas       string       `json:"texture_atlas,omitempty"`
	HarvestedSprite    string       `json:"harvested_sprite,omitempty"`
}

// FinalStage is the 0-based index of the fully grown stage.
func (d CropDef) FinalStage() uint8 {
	if d.Stages == 0 {
		return 0
	}
	return d.Stages - 1
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadCrops(filepath.Join(configDir, "crops.json"), &c.Crops); err != nil {
		return nil, err
	}
	return &c, nil
}

// FromDefs builds a catalog from in-memory definitions.
func FromDefs(defs ...CropDef) (*Catalogs, error) {
	raw, err := json.Marshal(defs)
	if err != nil {
		return nil, err
	}
	var c Catalogs
	if err := parseCrops(raw, &c.Crops); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalogs) Species(id items.CropID) (CropDef, bool) {
	if c == nil {
		return CropDef{}, false
	}
	d, ok := c.Crops.ByID[id]
	return d, ok
}

func (c *Catalogs) CropName(id items.CropID) (string, bool) {
	d, ok := c.Species(id)
	return d.Name, ok
}

// CropIDs returns the known species ids in ascending order.
func (c *Catalogs) CropIDs() []items.CropID {
	ids := make([]items.CropID, 0, len(c.Crops.ByID))
	for id := range c.Crops.ByID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadCrops(path string, out *CropCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := parseCrops(raw, out); err != nil {
		return fmt.Errorf("crops.json: %w", err)
	}
	return nil
}

func parseCrops(raw []byte, out *CropCatalog) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if err := cropsSchema.Validate(doc); err != nil {
		return err
	}

	var defs []CropDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return err
	}
	out.ByID = make(map[items.CropID]CropDef, len(defs))
	for _, d := range defs {
		if _, dup := out.ByID[d.ID]; dup {
			return fmt.Errorf("duplicate crop id %d", d.ID)
		}
		out.ByID[d.ID] = d
	}
	out.Digest = sha256Hex(raw)
	return nil
}
