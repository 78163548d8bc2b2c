package tilemap

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"outbreak.gg/internal/sim/mathx"
)

// File is the on-disk map.yaml layout: ASCII rows plus a legend that maps
// each character to the layers it sets.
type File struct {
	Name   string                 `yaml:"name"`
	Rows   []string               `yaml:"rows"`
	Legend map[string]LegendEntry `yaml:"legend"`
}

type LegendEntry struct {
	Game    string       `yaml:"game"`
	Front   string       `yaml:"front"`
	Rot     int          `yaml:"rot"`
	Arg     int          `yaml:"arg"`
	Tele    string       `yaml:"tele"`
	Number  int          `yaml:"number"`
	Speedup *SpeedupSpec `yaml:"speedup"`
	Tune    int          `yaml:"tune"`
	Spawn   *int         `yaml:"spawn"`
}

type SpeedupSpec struct {
	Force    int `yaml:"force"`
	MaxSpeed int `yaml:"max_speed"`
	Angle    int `yaml:"angle"`
}

func Load(path string) (*Grid, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

func Parse(raw []byte) (*Grid, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("map.yaml: %w", err)
	}
	return f.Build()
}

func (f File) Build() (*Grid, error) {
	if len(f.Rows) == 0 {
		return nil, fmt.Errorf("map %q: no rows", f.Name)
	}
	w := 0
	for _, r := range f.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	g := New(f.Name, w, len(f.Rows))
	for y, row := range f.Rows {
		for x := 0; x < len(row); x++ {
			c := string(row[x])
			e, ok := f.Legend[c]
			if !ok {
				if c == "." || c == " " {
					continue
				}
				return nil, fmt.Errorf("map %q: row %d col %d: no legend for %q", f.Name, y, x, c)
			}
			if err := g.apply(x, y, e); err != nil {
				return nil, fmt.Errorf("map %q: legend %q: %w", f.Name, c, err)
			}
		}
	}
	return g, nil
}

func tileID(name string, arg int) (int, error) {
	id, ok := tileNames[name]
	if !ok {
		return 0, fmt.Errorf("unknown tile %q", name)
	}
	if end := rangeEnd(id); end != id {
		if arg < 0 || id+arg > end {
			return 0, fmt.Errorf("tile %q: arg %d out of range", name, arg)
		}
		id += arg
	}
	return id, nil
}

func (g *Grid) apply(x, y int, e LegendEntry) error {
	if e.Game != "" {
		id, err := tileID(e.Game, e.Arg)
		if err != nil {
			return err
		}
		g.SetTile(LayerGame, x, y, id, e.Rot)
	}
	if e.Front != "" {
		id, err := tileID(e.Front, e.Arg)
		if err != nil {
			return err
		}
		g.SetTile(LayerFront, x, y, id, e.Rot)
	}
	if e.Tele != "" {
		k, ok := teleNames[e.Tele]
		if !ok {
			return fmt.Errorf("unknown tele kind %q", e.Tele)
		}
		if e.Number <= 0 {
			return fmt.Errorf("tele %q: number must be > 0", e.Tele)
		}
		g.SetTele(x, y, k, e.Number)
	}
	if e.Speedup != nil {
		g.SetSpeedup(x, y, Speedup{Force: e.Speedup.Force, MaxSpeed: e.Speedup.MaxSpeed, Angle: e.Speedup.Angle})
	}
	if e.Tune != 0 {
		g.SetTune(x, y, e.Tune)
	}
	if e.Spawn != nil {
		g.AddSpawn(*e.Spawn, g.TilePos(y*g.Width+x))
	}
	return nil
}

// Digest summarizes the map for snapshot headers.
func (g *Grid) Digest() uint64 {
	var h uint64
	for i, t := range g.game {
		if t.ID == 0 {
			continue
		}
		h ^= mathx.Hash2(int64(t.ID)<<8|int64(t.Rot), i%g.Width, i/g.Width)
	}
	return h
}
