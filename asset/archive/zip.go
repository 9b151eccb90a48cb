package archive

import (
	"archive/zip"
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/achilleasa/bvhtrace/asset"
	"github.com/achilleasa/bvhtrace/bvh"
	"github.com/achilleasa/bvhtrace/log"
	"github.com/segmentio/encoding/json"
)

var logger = log.New("zip archive")

// Write an archive to a zip file.
func Write(archiveFile string, a *Archive) error {
	logger.Noticef(`writing compiled scene to "%s"`, archiveFile)
	start := time.Now()

	zipFile, err := os.Create(archiveFile)
	if err != nil {
		return err
	}

	err = Encode(zipFile, a)
	if closeErr := zipFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(archiveFile)
		return err
	}

	logger.Noticef("wrote compiled scene in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}

// Encode an archive as a zip stream.
func Encode(w io.Writer, a *Archive) error {
	p, err := encodePayload(a)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)

	mw, err := zw.Create(manifestFile)
	if err != nil {
		return err
	}
	manifest, err := json.MarshalIndent(a.Manifest, "", "  ")
	if err != nil {
		return err
	}
	if _, err = mw.Write(manifest); err != nil {
		return err
	}

	dw, err := zw.Create(dataFile)
	if err != nil {
		return err
	}
	if err = gob.NewEncoder(dw).Encode(p); err != nil {
		return err
	}

	return zw.Close()
}

// Read an archive from a file or URL.
func ReadFile(archiveFile string) (*Archive, error) {
	res, err := asset.NewResource(archiveFile, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return Read(res)
}

// Read an archive from a resource. The hierarchy is validated before it is
// returned; structural problems are reported as errors wrapping
// bvh.ErrCorrupt.
func Read(res *asset.Resource) (*Archive, error) {
	logger.Noticef(`loading compiled scene from "%s"`, res.Path())
	start := time.Now()

	// zip package requires a reader implementing ReaderAt. To work around
	// this requirement we read the entire zip file into memory and create
	// a reader from the bytes package that implements ReaderAt
	data, err := io.ReadAll(res)
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bvh.ErrCorrupt, err.Error())
	}

	var (
		manifest    Manifest
		p           payload
		hasManifest bool
		hasData     bool
	)
	for _, f := range zr.File {
		switch f.Name {
		case manifestFile:
			err = decodeEntry(f, func(r io.Reader) error {
				return json.NewDecoder(r).Decode(&manifest)
			})
			hasManifest = true
		case dataFile:
			err = decodeEntry(f, func(r io.Reader) error {
				return gob.NewDecoder(r).Decode(&p)
			})
			hasData = true
		default:
			logger.Warningf("unknown file %s in archive; skipping", f.Name)
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("%w: failed to load %s: %s", bvh.ErrCorrupt, f.Name, err.Error())
		}
	}

	if !hasManifest || !hasData {
		return nil, fmt.Errorf("%w: archive must contain both %s and %s", bvh.ErrCorrupt, manifestFile, dataFile)
	}

	a, err := decodePayload(manifest, &p)
	if err != nil {
		return nil, err
	}

	logger.Noticef(
		"loaded compiled scene %s in %d ms: type: %s, triangles: %d",
		manifest.BuildID, time.Since(start).Nanoseconds()/1e6, manifest.Type, manifest.Triangles,
	)
	return a, nil
}

func decodeEntry(f *zip.File, decode func(io.Reader) error) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	return decode(rc)
}
