package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalResource(t *testing.T) {
	dir := t.TempDir()
	scenePath := filepath.Join(dir, "Scene.OBJ")
	if err := os.WriteFile(scenePath, []byte("v 0 0 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewResource(scenePath, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	if res.IsRemote() {
		t.Fatal("expected local resource")
	}
	if res.Name() != "Scene.OBJ" {
		t.Fatalf("expected name Scene.OBJ; got %s", res.Name())
	}
	if res.Ext() != ".obj" {
		t.Fatalf("expected ext .obj; got %s", res.Ext())
	}

	// Sibling lookups resolve against the parent directory.
	if err := os.WriteFile(filepath.Join(dir, "part.obj"), []byte("v 1 1 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	sibling, err := NewResource("part.obj", res)
	if err != nil {
		t.Fatal(err)
	}
	defer sibling.Close()

	data, err := io.ReadAll(sibling)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "v 1 1 1\n" {
		t.Fatalf("expected sibling contents; got %q", data)
	}
}

func TestMissingLocalResource(t *testing.T) {
	_, err := NewResource(filepath.Join(t.TempDir(), "missing.obj"), nil)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected a not-exist error; got %v", err)
	}
}

func TestHttpResource(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "scene.obj"), []byte("v 0 0 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.FileServer(http.Dir(dir)))
	defer server.Close()

	res, err := NewResource(server.URL+"/scene.obj", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	if !res.IsRemote() {
		t.Fatal("expected remote resource")
	}

	fetchURL := server.URL + "/file-not-found.foo"
	expError := fmt.Sprintf("resource: could not fetch '%s': status %d", fetchURL, 404)
	_, err = NewResource(fetchURL, nil)
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get: %s; got %v", expError, err)
	}
}

func TestRelativeRemoteResources(t *testing.T) {
	serverHits := 0
	serverFn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverHits++
		switch r.URL.Path {
		case "/foo/scene.obj", "/foo/part.obj":
			w.Write([]byte("OK"))
		default:
			http.NotFound(w, r)
		}
	})
	server := httptest.NewServer(serverFn)
	defer server.Close()

	res1, err := NewResource(server.URL+"/foo/scene.obj", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res1.Close()
	res2, err := NewResource("part.obj", res1)
	if err != nil {
		t.Fatal(err)
	}
	defer res2.Close()

	if serverHits != 2 {
		t.Fatalf("expected server to receive 2 requests; got %d", serverHits)
	}
}

func TestCancelledRemoteResource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := OpenContext(ctx, server.URL+"/scene.obj", nil)
	if err == nil || !strings.Contains(err.Error(), "context canceled") {
		t.Fatalf("expected a context cancellation error; got %v", err)
	}
}

func TestUnsupportedResourceScheme(t *testing.T) {
	expError := "resource: unsupported scheme 'gopher'"
	_, err := NewResource("gopher://digging.go", nil)
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get: %s; got %v", expError, err)
	}
}

func TestResourceFromStream(t *testing.T) {
	res := NewResourceFromStream("inline.obj", strings.NewReader("v 0 0 0"))
	defer res.Close()

	if res.Path() != "inline.obj" || res.Ext() != ".obj" {
		t.Fatalf("expected path inline.obj; got %s", res.Path())
	}
}
