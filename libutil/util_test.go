package libutil_test

import (
	"iblbake/libutil"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestUnitCubeCoversEverySide(t *testing.T) {
	vertices := libutil.NewUnitCube()
	if len(vertices) != 36 {
		t.Fatalf("cube should have 36 vertices but has %d\n", len(vertices))
	}

	for tri := 0; tri < 12; tri++ {
		a, b, c := vertices[tri*3], vertices[tri*3+1], vertices[tri*3+2]
		normal := b.Sub(a).Cross(c.Sub(a))
		centroid := a.Add(b).Add(c).Mul(1.0 / 3.0)
		// the normal points towards the inside
		if normal.Dot(centroid) >= 0 {
			t.Errorf("triangle %d should face the origin but faces away\n", tri)
		}
		for _, v := range []mgl32.Vec3{a, b, c} {
			for axis := 0; axis < 3; axis++ {
				if v[axis] != 1 && v[axis] != -1 {
					t.Errorf("vertex %v of triangle %d should be a cube corner\n", v, tri)
				}
			}
		}
	}
}

type countingDeleter struct {
	order *[]int
	id    int
}

func (d countingDeleter) Delete() {
	*d.order = append(*d.order, d.id)
}

func TestDeleteAllReverseOrder(t *testing.T) {
	var order []int
	libutil.DeleteAll([]libutil.Deleter{
		countingDeleter{&order, 0},
		countingDeleter{&order, 1},
		countingDeleter{&order, 2},
	})
	if len(order) != 3 || order[0] != 2 || order[1] != 1 || order[2] != 0 {
		t.Errorf("deleters should run in reverse order but ran in %v\n", order)
	}
}
