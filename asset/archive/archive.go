package archive

import (
	"errors"
	"fmt"
	"time"

	"github.com/achilleasa/bvhtrace/asset/geometry"
	"github.com/achilleasa/bvhtrace/asset/reader"
	"github.com/achilleasa/bvhtrace/bvh"
	"github.com/google/uuid"
)

const (
	manifestFile = "manifest.json"
	dataFile     = "bvh.bin"

	// Bumped whenever the payload layout changes.
	FormatVersion = 1
)

var ErrUnsupportedVersion = errors.New("archive: unsupported format version")

// Describes the contents of an archive.
type Manifest struct {
	BuildID     string    `json:"buildId"`
	Version     int       `json:"version"`
	Type        string    `json:"type"`
	MaxLeafSize int       `json:"maxLeafSize"`
	Triangles   int       `json:"triangles"`
	Nodes       int       `json:"nodes"`
	CreatedAt   time.Time `json:"createdAt"`
	Source      string    `json:"source,omitempty"`
}

// A compiled scene: its triangles together with the hierarchy built over
// them.
type Archive struct {
	Manifest    Manifest
	Triangles   []*geometry.Triangle
	Accelerator bvh.Accelerator

	// Optional camera settings carried over from the scene file.
	Camera *reader.CameraDef
}

// Create an archive for a freshly built hierarchy.
func New(source string, tris []*geometry.Triangle, accel bvh.Accelerator, maxLeafSize int, camera *reader.CameraDef) *Archive {
	return &Archive{
		Manifest: Manifest{
			BuildID:     uuid.NewString(),
			Version:     FormatVersion,
			Type:        accel.Type().String(),
			MaxLeafSize: maxLeafSize,
			Triangles:   len(tris),
			Nodes:       accel.Stats().Nodes,
			CreatedAt:   time.Now().UTC(),
			Source:      source,
		},
		Triangles:   tris,
		Accelerator: accel,
		Camera:      camera,
	}
}

// The gob encoded contents of the data file.
type payload struct {
	Triangles []triangleData
	Snapshot  bvh.Snapshot
	Camera    *reader.CameraDef
}

type triangleData struct {
	Vertices   [3][3]float32
	Normals    [3][3]float32
	HasNormals bool
}

func encodePayload(a *Archive) (*payload, error) {
	snap, err := bvh.Export(a.Accelerator)
	if err != nil {
		return nil, err
	}

	p := &payload{
		Triangles: make([]triangleData, len(a.Triangles)),
		Snapshot:  snap,
		Camera:    a.Camera,
	}
	for index, tri := range a.Triangles {
		data := &p.Triangles[index]
		data.HasNormals = tri.HasNormals
		for v := 0; v < 3; v++ {
			data.Vertices[v] = tri.Vertices[v]
			data.Normals[v] = tri.Normals[v]
		}
	}
	return p, nil
}

// Rebuild the archive contents from a decoded payload, validating them
// against the manifest.
func decodePayload(manifest Manifest, p *payload) (*Archive, error) {
	if manifest.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, manifest.Version)
	}
	if manifest.Triangles != len(p.Triangles) {
		return nil, fmt.Errorf("%w: manifest lists %d triangles; payload contains %d", bvh.ErrCorrupt, manifest.Triangles, len(p.Triangles))
	}
	if manifest.Type != p.Snapshot.Type.String() {
		return nil, fmt.Errorf("%w: manifest type %q does not match payload type %q", bvh.ErrCorrupt, manifest.Type, p.Snapshot.Type)
	}

	tris := make([]*geometry.Triangle, len(p.Triangles))
	for index, data := range p.Triangles {
		tri := &geometry.Triangle{HasNormals: data.HasNormals}
		for v := 0; v < 3; v++ {
			tri.Vertices[v] = data.Vertices[v]
			tri.Normals[v] = data.Normals[v]
		}
		tri.Init()
		tris[index] = tri
	}

	accel, err := bvh.Restore(geometry.Primitives(tris), p.Snapshot)
	if err != nil {
		return nil, err
	}

	return &Archive{
		Manifest:    manifest,
		Triangles:   tris,
		Accelerator: accel,
		Camera:      p.Camera,
	}, nil
}
