package reader

import (
	"github.com/achilleasa/bvhtrace/asset/geometry"
	"github.com/achilleasa/bvhtrace/types"
	"github.com/go-gl/mathgl/mgl32"
)

// A named group of triangles in object space.
type Mesh struct {
	Name      string
	Triangles []*geometry.Triangle
}

// A placement of a mesh in the world.
type MeshInstance struct {
	MeshIndex int

	// M = T * R * S
	Transform mgl32.Mat4
}

// Camera settings embedded in a scene file.
type CameraDef struct {
	FOV  float32
	Eye  types.Vec3
	Look types.Vec3
	Up   types.Vec3
}

// A parsed scene model.
type Model struct {
	Meshes    []*Mesh
	Instances []*MeshInstance

	// Nil if the scene file does not define a camera.
	Camera *CameraDef
}

// Get the world-space triangle list of the model. Models without instances
// place each mesh once with an identity transform.
func (m *Model) Triangles() []*geometry.Triangle {
	var out []*geometry.Triangle

	if len(m.Instances) == 0 {
		for _, mesh := range m.Meshes {
			out = append(out, mesh.Triangles...)
		}
		return out
	}

	for _, inst := range m.Instances {
		normalMat := inst.Transform.Mat3().Inv().Transpose()
		for _, tri := range m.Meshes[inst.MeshIndex].Triangles {
			out = append(out, transformTriangle(tri, inst.Transform, normalMat))
		}
	}
	return out
}

func transformTriangle(tri *geometry.Triangle, transform mgl32.Mat4, normalMat mgl32.Mat3) *geometry.Triangle {
	var vertices, normals [3]types.Vec3
	for index := range vertices {
		vertices[index] = types.Vec3(mgl32.TransformCoordinate(mgl32.Vec3(tri.Vertices[index]), transform))
		if tri.HasNormals {
			normals[index] = types.Vec3(normalMat.Mul3x1(mgl32.Vec3(tri.Normals[index]))).Normalize()
		}
	}

	if tri.HasNormals {
		return geometry.NewTriangleWithNormals(vertices, normals)
	}
	return geometry.NewTriangle(vertices[0], vertices[1], vertices[2])
}
