package leveldata

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/lafriks/go-tiled"
)

const (
	collisionLayer = "collision"
	spawnGroup     = "Spawn"
	defaultKind    = "ped"
)

// LoadZone parses a TMX file into a Zone. It takes an fs.FS so callers can
// pass embed.FS, os.DirFS or an in-memory fstest.MapFS.
func LoadZone(fsys fs.FS, tmxPath string) (*Zone, error) {
	m, err := tiled.LoadFile(tmxPath, tiled.WithFileSystem(fsys))
	if err != nil {
		return nil, fmt.Errorf("load TMX %s: %w", tmxPath, err)
	}

	zone := &Zone{
		Name:     strings.TrimSuffix(filepath.Base(tmxPath), ".tmx"),
		Width:    float64(m.Width * m.TileWidth),
		Depth:    float64(m.Height * m.TileHeight),
		TileSize: m.TileWidth,
	}

	tileW := float64(m.TileWidth)
	tileD := float64(m.TileHeight)
	for _, layer := range m.Layers {
		if layer.Name != collisionLayer {
			continue
		}
		for row := 0; row < m.Height; row++ {
			for col := 0; col < m.Width; col++ {
				tile := layer.Tiles[row*m.Width+col]
				if tile.IsNil() {
					continue
				}

				var surface string
				if ts, err := tile.Tileset.GetTilesetTile(tile.ID); err == nil {
					surface = ts.Properties.GetString("surface")
				}

				zone.Obstacles = append(zone.Obstacles, Obstacle{
					X:       float64(col) * tileW,
					Z:       float64(row) * tileD,
					W:       tileW,
					D:       tileD,
					Surface: surface,
				})
			}
		}
		break
	}

	for _, og := range m.ObjectGroups {
		if og.Name != spawnGroup {
			continue
		}
		for _, o := range og.Objects {
			kind := o.Properties.GetString("kind")
			if kind == "" {
				kind = defaultKind
			}
			var yaw float64
			if raw := o.Properties.GetString("yaw"); raw != "" {
				yaw, err = strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, fmt.Errorf("spawn %d in %s: yaw %q: %w", o.ID, tmxPath, raw, err)
				}
			}
			zone.Spawns = append(zone.Spawns, Spawn{
				X:     o.X,
				Z:     o.Y,
				Yaw:   yaw,
				Kind:  kind,
				Index: o.Properties.GetInt("spawnIndex"),
			})
		}
	}

	// Stable assignment order regardless of authoring order.
	sort.SliceStable(zone.Spawns, func(i, j int) bool {
		return zone.Spawns[i].Index < zone.Spawns[j].Index
	})

	return zone, nil
}

// LoadAllZones discovers all .tmx files in dir within fsys and returns them
// keyed by stem name plus a sorted list of names.
func LoadAllZones(fsys fs.FS, dir string) (map[string]*Zone, []string, error) {
	pattern := dir + "/*.tmx"
	matches, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, nil, fmt.Errorf("no .tmx files found in %s", dir)
	}

	zones := make(map[string]*Zone, len(matches))
	names := make([]string, 0, len(matches))
	for _, path := range matches {
		zone, err := LoadZone(fsys, path)
		if err != nil {
			return nil, nil, err
		}
		zones[zone.Name] = zone
		names = append(names, zone.Name)
	}

	sort.Strings(names)
	return zones, names, nil
}
