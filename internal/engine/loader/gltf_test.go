package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func triangleDocument() *gltf.Document {
	doc := gltf.NewDocument()
	doc.Meshes = []*gltf.Mesh{{
		Name: "tri",
		Primitives: []*gltf.Primitive{{
			Indices: gltf.Index(modeler.WriteIndices(doc, []uint16{0, 1, 2})),
			Attributes: map[string]int{
				"POSITION": modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}),
			},
		}},
	}}
	doc.Nodes = []*gltf.Node{
		{Name: "root", Translation: [3]float64{5, 0, 0}, Children: []int{1}},
		{Name: "child", Mesh: gltf.Index(0), Scale: [3]float64{2, 2, 2}},
	}
	doc.Scenes[0].Nodes = []int{0}
	return doc
}

func TestDecodeDocumentBakesTransforms(t *testing.T) {
	meshes, err := decodeDocument(context.Background(), triangleDocument())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}

	m := meshes[0]
	if m.Name != "tri_p0" {
		t.Errorf("expected name tri_p0, got %q", m.Name)
	}
	if len(m.Indices) != 3 {
		t.Errorf("expected 3 indices, got %d", len(m.Indices))
	}
	if m.Vertices[1].Position != [3]float32{7, 0, 0} {
		t.Errorf("expected vertex 1 at (7,0,0), got %v", m.Vertices[1].Position)
	}
	if m.Vertices[0].Normal != [3]float32{0, 0, 1} {
		t.Errorf("expected computed +Z normal, got %v", m.Vertices[0].Normal)
	}
}

func TestDecodeDocumentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := decodeDocument(ctx, triangleDocument()); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestGLTFDecoderErrors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "broken.glb")
	if err := os.WriteFile(garbage, []byte("not a model"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.glb")},
		{"malformed file", garbage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := (GLTFDecoder{}).Decode(context.Background(), tt.path); err == nil {
				t.Error("expected decode error")
			}
		})
	}
}
