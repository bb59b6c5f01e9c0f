package ibl

import (
	"github.com/chewxy/math32"
)

// The shading kernels of the software backend. Directions don't have to be normalized.

func shadeEquirectangular(src *swTarget, dx, dy, dz float32) [4]float32 {
	rx, ry, rz := normalize(dx, dy, dz)
	su, sv := sampleSphericalMap(rx, ry, rz)
	rgba := src.sample2D(0, su, sv)
	rgba[3] = 1.0
	return rgba
}

// shadeIrradiance returns the cosine weighted mean radiance around n, which is irradiance / pi.
func shadeIrradiance(env *swTarget, samples []sample, dx, dy, dz float32) [4]float32 {
	nx, ny, nz := normalize(dx, dy, dz)

	var upx, upy, upz float32 = 0.0, 1.0, 0.0
	if math32.Abs(ny) >= 0.999 {
		upx, upy, upz = 0.0, 0.0, 1.0
	}

	// tangent = cross(up, normal)
	tx, ty, tz := normalize(cross(upx, upy, upz, nx, ny, nz))
	// bitangent = cross(normal, tangent)
	bx, by, bz := normalize(cross(nx, ny, nz, tx, ty, tz))

	var result [4]float32
	var totalWeight float32
	for _, s := range samples {
		sx, sy, sz := transform(s.x, s.y, s.z, tx, ty, tz, bx, by, bz, nx, ny, nz)
		if sx == 0.0 && sy == 0.0 && sz == 0.0 {
			continue
		}

		rgba := env.sampleCube(0, sx, sy, sz)
		for c := 0; c < 3; c++ {
			result[c] += rgba[c] * s.weight
		}
		totalWeight += s.weight
	}

	for c := 0; c < 3; c++ {
		result[c] /= totalWeight
	}
	result[3] = 1.0
	return result
}

// shadePrefilter convolves the environment with the GGX lobe of the given roughness,
// assuming n = v = r.
//
// With filtered set, each sample reads from the environment mip level whose texel
// solid angle matches the solid angle covered by the sample.
//
// See: https://developer.nvidia.com/gpugems/gpugems3/part-iii-rendering/chapter-20-gpu-based-importance-sampling
func shadePrefilter(env *swTarget, hammersleySeq [][2]float32, roughness float32, filtered bool, dx, dy, dz float32) [4]float32 {
	nx, ny, nz := normalize(dx, dy, dz)
	if roughness == 0.0 {
		// perfect mirror, a single sample suffices
		rgba := env.sampleCube(0, nx, ny, nz)
		rgba[3] = 1.0
		return rgba
	}
	vx, vy, vz := nx, ny, nz

	// from tangent-space vector to world-space sample vector
	var upx, upy, upz float32 = 0.0, 0.0, 1.0
	if math32.Abs(nz) >= 0.999 {
		upx, upy, upz = 1.0, 0.0, 0.0
	}
	tx, ty, tz := normalize(cross(upx, upy, upz, nx, ny, nz))
	bx, by, bz := cross(nx, ny, nz, tx, ty, tz)

	envDesc := env.Desc()
	maxLod := float32(envDesc.Levels - 1)
	saTexel := 4.0 * math32.Pi / (6.0 * float32(envDesc.Width*envDesc.Width))
	n := float32(len(hammersleySeq))

	var result [4]float32
	var totalWeight float32
	for _, hs := range hammersleySeq {
		sx, sy, sz := importanceSampleGGX(hs[0], hs[1], roughness)
		hx, hy, hz := normalize(transform(sx, sy, sz, tx, ty, tz, bx, by, bz, nx, ny, nz))
		vdoth := dot(vx, vy, vz, hx, hy, hz)
		lx, ly, lz := normalize(2*vdoth*hx-vx, 2*vdoth*hy-vy, 2*vdoth*hz-vz)

		ndotl := dot(nx, ny, nz, lx, ly, lz)
		if ndotl <= 0.0 {
			continue
		}

		var lod float32
		if filtered {
			// pdf = D * n.h / (4 * v.h) and n = v
			ndoth := math32.Max(sz, 0.0)
			pdf := distributionGGX(ndoth, roughness)/4.0 + 0.0001
			saSample := 1.0 / (n*pdf + 0.0001)
			lod = 0.5*math32.Log2(saSample/saTexel) + 1.0
			lod = math32.Max(0.0, math32.Min(lod, maxLod))
		}

		rgba := env.sampleCube(lod, lx, ly, lz)
		for c := 0; c < 3; c++ {
			result[c] += rgba[c] * ndotl
		}
		totalWeight += ndotl
	}

	if totalWeight > 0.0 {
		for c := 0; c < 3; c++ {
			result[c] /= totalWeight
		}
	}
	result[3] = 1.0
	return result
}

// integrateBrdf computes the split sum scale (a) and bias (b) applied to F0.
//
// See: https://learnopengl.com/PBR/IBL/Specular-IBL
func integrateBrdf(hammersleySeq [][2]float32, ndotv, roughness float32) (a, b float32) {
	vx, vy, vz := math32.Sqrt(1.0-ndotv*ndotv), float32(0.0), ndotv

	for _, hs := range hammersleySeq {
		// n = (0, 0, 1), so the tangent space is the world space
		hx, hy, hz := importanceSampleGGX(hs[0], hs[1], roughness)
		vdoth := dot(vx, vy, vz, hx, hy, hz)
		lz := 2.0*vdoth*hz - vz

		ndotl := math32.Max(lz, 0.0)
		ndoth := math32.Max(hz, 0.0)
		vdoth = math32.Max(vdoth, 0.0)

		if ndotl > 0.0 {
			g := geometrySmith(ndotv, ndotl, roughness)
			gVis := (g * vdoth) / (ndoth * ndotv)
			fc := math32.Pow(1.0-vdoth, 5.0)

			a += (1.0 - fc) * gVis
			b += fc * gVis
		}
	}

	n := float32(len(hammersleySeq))
	return a / n, b / n
}
