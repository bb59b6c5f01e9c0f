package libutil

import (
	"github.com/go-gl/mathgl/mgl32"
)

type Deleter interface {
	Delete()
}

// DeleteAll deletes in reverse order, so dependents go before their dependencies.
func DeleteAll(deleters []Deleter) {
	for i := len(deleters) - 1; i >= 0; i-- {
		deleters[i].Delete()
	}
}

// cube corners, indexed by the bits x, y, z
var cubeCorners = [8]mgl32.Vec3{
	{-1, -1, -1}, {1, -1, -1}, {-1, 1, -1}, {1, 1, -1},
	{-1, -1, 1}, {1, -1, 1}, {-1, 1, 1}, {1, 1, 1},
}

// two triangles per side, wound counter clockwise when viewed from the inside
var cubeIndices = [36]int{
	1, 7, 3, 1, 5, 7, // +X
	0, 6, 4, 0, 2, 6, // -X
	2, 7, 6, 2, 3, 7, // +Y
	0, 5, 1, 0, 4, 5, // -Y
	4, 7, 5, 4, 6, 7, // +Z
	0, 3, 2, 0, 1, 3, // -Z
}

// NewUnitCube returns the 36 positions of a triangulated cube spanning -1 to 1 on every axis.
func NewUnitCube() []mgl32.Vec3 {
	vertices := make([]mgl32.Vec3, len(cubeIndices))
	for i, index := range cubeIndices {
		vertices[i] = cubeCorners[index]
	}
	return vertices
}
