package reader

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/achilleasa/bvhtrace/asset"
	"github.com/achilleasa/bvhtrace/types"
	"github.com/stretchr/testify/require"
)

func mockResource(name, payload string) *asset.Resource {
	return asset.NewResourceFromStream(name, strings.NewReader(payload))
}

func TestFloat32Parser(t *testing.T) {
	expError := `unsupported syntax for "camera_fov"; expected 1 argument; got 0`
	_, err := parseFloat32([]string{"camera_fov"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseFloat32([]string{"camera_fov", "not-a-float"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseFloat32([]string{"camera_fov", "3.14"})
	if err != nil {
		t.Fatal(err)
	}

	if v != 3.14 {
		t.Fatalf("expected parsed value to be 3.14; got %f", v)
	}
}

func TestVec3Parser(t *testing.T) {
	expError := `unsupported syntax for "v"; expected 3 arguments; got 0`
	_, err := parseVec3([]string{"v"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseVec3([]string{"v", "not-a-float", "2", "3"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseVec3([]string{"v", "3.14", "0", "0.4"})
	if err != nil {
		t.Fatal(err)
	}

	expVal := types.Vec3{3.14, 0, 0.4}
	if !reflect.DeepEqual(v, expVal) {
		t.Fatalf("expected parsed value to be %v; got %v", expVal, v)
	}
}

func TestSelectFaceCoordinate(t *testing.T) {
	type spec struct {
		in        string
		listLen   int
		relOffset int
		out       int
		expError  string
	}
	specs := []spec{
		{"2", 1, 0, -1, "index out of bounds"},
		{"-2", 1, 0, -1, "index out of bounds"},
		{"0", 10, 0, -1, "index out of bounds"},
		{"1", 10, 0, 0, ""}, // indices are 1-based
		{"-1", 10, 0, 9, ""},
		{"1", 10, 4, 4, ""},
		{"-1", 10, 4, 9, ""},
	}

	for idx, s := range specs {
		v, err := selectFaceCoordIndex(s.in, s.listLen, s.relOffset)
		if s.expError != "" {
			if err == nil || err.Error() != s.expError {
				t.Fatalf("[spec %d] expected error %s; got %v", idx, s.expError, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("[spec %d] unexpected error: %v", idx, err)
		}
		if v != s.out {
			t.Fatalf("[spec %d] expected index to be %d; got %d", idx, s.out, v)
		}
	}
}

func TestParseFaces(t *testing.T) {
	payload := `
# a triangle and a quad
o shapes
v 0 0 0
v 1 0 0
v 0 1 0
v 1 1 0
vt 0 0
vt 1 0
vt 0 1
vn 0 0 1
f 1 2 3
f 1/1 2/2 4/3
f 1//1 2//1 4//1 3//1
`
	model, err := newWavefrontReader().Read(mockResource("shapes.obj", payload))
	require.NoError(t, err)
	require.Len(t, model.Meshes, 1)
	require.Equal(t, "shapes", model.Meshes[0].Name)

	tris := model.Meshes[0].Triangles
	require.Len(t, tris, 4)
	require.False(t, tris[0].HasNormals)
	require.False(t, tris[1].HasNormals)
	require.True(t, tris[2].HasNormals)

	// Quads are split along the 0-2 diagonal.
	require.Equal(t, [3]types.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}}, tris[2].Vertices)
	require.Equal(t, [3]types.Vec3{{0, 0, 0}, {1, 1, 0}, {0, 1, 0}}, tris[3].Vertices)
	require.Nil(t, model.Camera)
	require.Len(t, model.Triangles(), 4)
}

func TestParseErrors(t *testing.T) {
	specs := []struct {
		payload  string
		expError string
	}{
		{"v 1 2", `[bad.obj: 1] error: unsupported syntax for "v"; expected 3 arguments; got 2`},
		{"v 0 0 0\nv 1 0 0\nf 1 2 3", "[bad.obj: 3] error: could not parse vertex coord for face argument 2: index out of bounds"},
		{"v 0 0 0\nf 1 1", `[bad.obj: 2] error: unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got 2. Select the triangulation option in your exporter`},
		{"v 0 0 0\nf 1 1/1 1", "[bad.obj: 2] error: expected each face argument to contain 1 indices; arg 1 contains 2 indices"},
		{"v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1/1 2/1 3/1", "[bad.obj: 4] error: could not parse tex coord for face argument 0: index out of bounds"},
		{"instance foo 0 0 0 0 0 0 1 1 1", `[bad.obj: 1] error: unknown mesh with name "foo"`},
		{"o foo\nv 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\ninstance foo 0 0", `[bad.obj: 6] error: unsupported syntax for "instance"; expected 10 arguments: mesh_name tX tY tZ yaw pitch roll sX sY sZ; got 3`},
		{"# nothing here", `[bad.obj: 0] error: scene does not contain any faces`},
	}

	for specIndex, spec := range specs {
		_, err := newWavefrontReader().Read(mockResource("bad.obj", spec.payload))
		if err == nil || err.Error() != spec.expError {
			t.Errorf("[spec %d] expected error:\n%s\ngot:\n%v", specIndex, spec.expError, err)
		}
	}
}

func TestDropEmptyMeshes(t *testing.T) {
	payload := `
o empty
o tri
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
g trailing
`
	model, err := newWavefrontReader().Read(mockResource("scene.obj", payload))
	require.NoError(t, err)
	require.Len(t, model.Meshes, 1)
	require.Equal(t, "tri", model.Meshes[0].Name)
}

func TestCameraDirectives(t *testing.T) {
	payload := `
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
camera_fov 60
camera_eye 0 1 5
camera_look 0 0 0
`
	model, err := newWavefrontReader().Read(mockResource("scene.obj", payload))
	require.NoError(t, err)
	require.NotNil(t, model.Camera)
	require.Equal(t, float32(60), model.Camera.FOV)
	require.Equal(t, types.XYZ(0, 1, 5), model.Camera.Eye)
	require.Equal(t, types.XYZ(0, 0, 0), model.Camera.Look)
	require.Equal(t, types.XYZ(0, 1, 0), model.Camera.Up)
}

func TestMeshInstances(t *testing.T) {
	payload := `
o tri
v 0 0 0
v 1 0 0
v 0 1 0
vn 0 0 1
f 1//1 2//1 3//1
instance tri 10 0 0 0 0 0 1 1 1
instance tri 0 0 -5 0 90 0 2 2 2
`
	model, err := newWavefrontReader().Read(mockResource("scene.obj", payload))
	require.NoError(t, err)
	require.Len(t, model.Instances, 2)

	tris := model.Triangles()
	require.Len(t, tris, 2)

	// Translated copy
	for index, exp := range []types.Vec3{{10, 0, 0}, {11, 0, 0}, {10, 1, 0}} {
		require.True(t, tris[0].Vertices[index].ApproxEqual(exp, 1e-5), "expected vertex %v; got %v", exp, tris[0].Vertices[index])
	}

	// Scaled, rotated 90 degrees around Y and then translated
	for index, exp := range []types.Vec3{{0, 0, -5}, {0, 0, -7}, {0, 2, -5}} {
		require.True(t, tris[1].Vertices[index].ApproxEqual(exp, 1e-5), "expected vertex %v; got %v", exp, tris[1].Vertices[index])
	}
	require.True(t, tris[1].Normals[0].ApproxEqual(types.XYZ(1, 0, 0), 1e-5), "expected rotated normal; got %v", tris[1].Normals[0])
}

func TestCallIncludesRelativeFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "parts", "tri.obj"), "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")
	writeFile(t, filepath.Join(dir, "scene.obj"), "v 5 5 5\no main\ncall parts/tri.obj\nv 0 0 1\nv 1 0 1\nv 0 1 1\nf -3 -2 -1\n")

	model, err := ReadModelFile(filepath.Join(dir, "scene.obj"))
	require.NoError(t, err)

	tris := model.Triangles()
	require.Len(t, tris, 2)

	// Positive indices in the included file are relative to its own vertices.
	require.Equal(t, types.XYZ(0, 0, 0), tris[0].Vertices[0])
	require.Equal(t, types.XYZ(0, 0, 1), tris[1].Vertices[0])
}

func TestCallErrorIncludesFrame(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.obj"), "v 0 0\n")
	scenePath := filepath.Join(dir, "scene.obj")
	writeFile(t, scenePath, "call broken.obj\n")

	_, err := ReadModelFile(scenePath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken.obj: 1] error:")
	require.Contains(t, err.Error(), "referenced from "+scenePath+":1 [call]")
}

func TestReadRemoteModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"))
	}))
	defer server.Close()

	model, err := ReadModelFile(server.URL + "/scene.obj")
	require.NoError(t, err)
	require.Len(t, model.Triangles(), 1)
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := ReadModel(mockResource("scene.fbx", ""))
	require.EqualError(t, err, `reader: unsupported file format ".fbx"`)
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}
