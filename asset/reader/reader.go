package reader

import (
	"fmt"

	"github.com/achilleasa/bvhtrace/asset"
)

// The Reader interface is implemented by all scene model readers.
type Reader interface {
	// Read a scene model from a resource.
	Read(*asset.Resource) (*Model, error)
}

// Read a scene model selecting the reader based on the resource extension.
func ReadModel(res *asset.Resource) (*Model, error) {
	var reader Reader
	switch res.Ext() {
	case ".obj":
		reader = newWavefrontReader()
	default:
		return nil, fmt.Errorf("reader: unsupported file format %q", res.Ext())
	}
	return reader.Read(res)
}

// Read a scene model from a file or URL.
func ReadModelFile(pathToModel string) (*Model, error) {
	res, err := asset.NewResource(pathToModel, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return ReadModel(res)
}
