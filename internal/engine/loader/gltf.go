package loader

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/modelviewer/internal/engine/model"
)

// GLTFDecoder reads .glb and .gltf files. Node transforms are baked into the
// vertices so each returned mesh is in model space.
type GLTFDecoder struct{}

// Decode implements Decoder.
func (GLTFDecoder) Decode(ctx context.Context, path string) ([]model.Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	return decodeDocument(ctx, doc)
}

func decodeDocument(ctx context.Context, doc *gltf.Document) ([]model.Mesh, error) {
	var out []model.Mesh
	var walk func(idx int, parent mgl32.Mat4, depth int) error
	walk = func(idx int, parent mgl32.Mat4, depth int) error {
		if idx < 0 || idx >= len(doc.Nodes) {
			return fmt.Errorf("node %d out of range", idx)
		}
		// glTF forbids cycles but files in the wild are not always valid
		if depth > len(doc.Nodes) {
			return fmt.Errorf("node hierarchy cycle at node %d", idx)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		node := doc.Nodes[idx]
		world := parent.Mul4(nodeMatrix(node))

		if node.Mesh != nil && *node.Mesh < len(doc.Meshes) {
			gm := doc.Meshes[*node.Mesh]
			for pi, prim := range gm.Primitives {
				mesh, err := readPrimitive(doc, prim, world)
				if err != nil {
					return fmt.Errorf("mesh %q primitive %d: %w", gm.Name, pi, err)
				}
				if mesh == nil {
					continue
				}
				mesh.Name = primitiveName(node.Name, gm.Name, pi)
				out = append(out, *mesh)
			}
		}
		for _, c := range node.Children {
			if err := walk(c, world, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	for _, root := range rootNodes(doc) {
		if err := walk(root, mgl32.Ident4(), 0); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// rootNodes returns the default scene's nodes, or every parentless node when
// the document has no scene.
func rootNodes(doc *gltf.Document) []int {
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	if len(doc.Scenes) > 0 {
		return doc.Scenes[0].Nodes
	}

	hasParent := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func nodeMatrix(n *gltf.Node) mgl32.Mat4 {
	if n.Matrix != gltf.DefaultMatrix && n.Matrix != ([16]float64{}) {
		var m mgl32.Mat4
		for i, v := range n.Matrix {
			m[i] = float32(v)
		}
		return m
	}

	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	rot := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}

	return mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul4(rot.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2])))
}

// readPrimitive returns nil for primitives that are not triangle lists.
func readPrimitive(doc *gltf.Document, prim *gltf.Primitive, world mgl32.Mat4) (*model.Mesh, error) {
	if prim.Mode != gltf.PrimitiveTriangles {
		return nil, nil
	}
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok || posIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	if idx, ok := prim.Attributes["NORMAL"]; ok && idx < len(doc.Accessors) {
		normals, err = modeler.ReadNormal(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
	}

	var indices []uint32
	if prim.Indices != nil && *prim.Indices < len(doc.Accessors) {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	for _, ix := range indices {
		if int(ix) >= len(positions) {
			return nil, fmt.Errorf("index %d beyond %d vertices", ix, len(positions))
		}
	}

	normalMat := world.Mat3().Inv().Transpose()
	verts := make([]model.Vertex, len(positions))
	for i, p := range positions {
		verts[i].Position = mgl32.TransformCoordinate(mgl32.Vec3(p), world)
		if len(normals) == len(positions) {
			verts[i].Normal = normalMat.Mul3x1(mgl32.Vec3(normals[i])).Normalize()
		}
	}
	if len(normals) != len(positions) {
		model.ComputeNormals(verts, indices)
	}

	return &model.Mesh{Vertices: verts, Indices: indices}, nil
}

func primitiveName(nodeName, meshName string, prim int) string {
	name := meshName
	if name == "" {
		name = nodeName
	}
	if name == "" {
		name = "mesh"
	}
	return fmt.Sprintf("%s_p%d", name, prim)
}
