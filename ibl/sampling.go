package ibl

import (
	"github.com/chewxy/math32"
)

// 1/(2pi), 1/pi
var invAtan = [2]float32{0.15915494309, 0.31830988618}

// sampleSphericalMap maps a normalized direction to equirectangular uvs.
// v = 1 is straight up.
func sampleSphericalMap(rx, ry, rz float32) (u, v float32) {
	u, v = math32.Atan2(rz, rx), math32.Asin(math32.Max(-1.0, math32.Min(ry, 1.0)))
	u = u*invAtan[0] + 0.5
	v = v*invAtan[1] + 0.5
	return u, v
}

// sampleCubeMap selects the face and face uvs of a direction following the OpenGL cube map rules.
//
// Based on: https://www.gamedev.net/forums/topic/687535-implementing-a-cube-map-lookup-function/5337472/
// Cube map face reference: https://www.khronos.org/opengl/wiki_opengl/images/CubeMapAxes.png
func sampleCubeMap(rx, ry, rz float32) (face CubeMapFace, u, v float32) {
	ax := math32.Abs(rx)
	ay := math32.Abs(ry)
	az := math32.Abs(rz)

	// this normalizes the uvs
	var uvfac float32

	if ax >= ay && ax >= az {
		if rx >= 0 {
			face = CubeMapPositiveX
			u = -rz
		} else {
			face = CubeMapNegativeX
			u = rz
		}
		uvfac = 0.5 / ax
		v = -ry
	} else if ay >= ax && ay >= az {
		if ry >= 0 {
			face = CubeMapPositiveY
			v = rz
		} else {
			face = CubeMapNegativeY
			v = -rz
		}
		uvfac = 0.5 / ay
		u = rx
	} else {
		if rz >= 0 {
			face = CubeMapPositiveZ
			u = rx
		} else {
			face = CubeMapNegativeZ
			u = -rx
		}
		uvfac = 0.5 / az
		v = -ry
	}

	u = u*uvfac + 0.5
	v = v*uvfac + 0.5

	return
}

// sampleBilinear samples an RGBA image at uv with clamp to edge wrapping.
// Row 0 of pix is at v = 0.
func sampleBilinear(w, h int, pix []float32, u, v float32) (rgba [4]float32) {
	// -0.5 to adjust for the pixel center offset
	u = u*float32(w) - 0.5
	v = v*float32(h) - 0.5
	ufloor := math32.Floor(u)
	vfloor := math32.Floor(v)
	ufrac, vfrac := u-ufloor, v-vfloor
	u0, v0 := int(ufloor), int(vfloor)
	u1, v1 := u0+1, v0+1

	u0, u1 = clampInt(u0, 0, w-1), clampInt(u1, 0, w-1)
	v0, v1 = clampInt(v0, 0, h-1), clampInt(v1, 0, h-1)

	o00 := (v0*w + u0) * 4
	o10 := (v0*w + u1) * 4
	o01 := (v1*w + u0) * 4
	o11 := (v1*w + u1) * 4

	for c := 0; c < 4; c++ {
		h0 := pix[o00+c]*(1.0-ufrac) + pix[o10+c]*ufrac
		h1 := pix[o01+c]*(1.0-ufrac) + pix[o11+c]*ufrac
		rgba[c] = h0*(1.0-vfrac) + h1*vfrac
	}
	return rgba
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func mix4(a, b [4]float32, t float32) [4]float32 {
	for c := range a {
		a[c] = a[c]*(1.0-t) + b[c]*t
	}
	return a
}

func normalize(x, y, z float32) (float32, float32, float32) {
	len := math32.Sqrt(x*x + y*y + z*z)
	return x / len, y / len, z / len
}

func cross(ax, ay, az, bx, by, bz float32) (float32, float32, float32) {
	x := ay*bz - az*by
	y := az*bx - ax*bz
	z := ax*by - ay*bx
	return x, y, z
}

func dot(ax, ay, az, bx, by, bz float32) float32 {
	return ax*bx + ay*by + az*bz
}

// transform moves v from tangent space into the space of the basis (x, y, z).
func transform(vx, vy, vz, xx, xy, xz, yx, yy, yz, zx, zy, zz float32) (float32, float32, float32) {
	x := (vx * xx) + (vy * yx) + (vz * zx)
	y := (vx * xy) + (vy * yy) + (vz * zy)
	z := (vx * xz) + (vy * yz) + (vz * zz)
	return x, y, z
}

func radicalInverseVdC(bits uint32) float32 {
	bits = (bits << 16) | (bits >> 16)
	bits = ((bits & 0x55555555) << 1) | ((bits & 0xAAAAAAAA) >> 1)
	bits = ((bits & 0x33333333) << 2) | ((bits & 0xCCCCCCCC) >> 2)
	bits = ((bits & 0x0F0F0F0F) << 4) | ((bits & 0xF0F0F0F0) >> 4)
	bits = ((bits & 0x00FF00FF) << 8) | ((bits & 0xFF00FF00) >> 8)
	return float32(bits) * 2.3283064365386963e-10 // / 0x100000000
}

func hammersley(i, n uint32) (x, y float32) {
	return float32(i) / float32(n), radicalInverseVdC(i)
}

func generateHammersleySequence(count int) [][2]float32 {
	samples := make([][2]float32, count)
	for i := 0; i < count; i++ {
		samples[i][0], samples[i][1] = hammersley(uint32(i), uint32(count))
	}
	return samples
}

// importanceSampleGGX returns a tangent space half vector, z is the normal.
func importanceSampleGGX(su, sv float32, roughness float32) (x, y, z float32) {
	a := roughness * roughness

	phi := 2.0 * math32.Pi * su
	cosTheta := math32.Sqrt((1.0 - sv) / (1.0 + (a*a-1.0)*sv))
	sinTheta := math32.Sqrt(1.0 - cosTheta*cosTheta)

	// from spherical coordinates to cartesian coordinates
	x = math32.Cos(phi) * sinTheta
	y = math32.Sin(phi) * sinTheta
	z = cosTheta

	return
}

// distributionGGX is the Trowbridge-Reitz normal distribution function.
func distributionGGX(ndoth, roughness float32) float32 {
	a := roughness * roughness
	a2 := a * a
	d := ndoth*ndoth*(a2-1.0) + 1.0
	return a2 / (math32.Pi * d * d)
}

// geometrySchlickGGX uses k = a^2 / 2 as used for image based lighting.
func geometrySchlickGGX(ndotv, roughness float32) float32 {
	k := (roughness * roughness) / 2.0
	return ndotv / (ndotv*(1.0-k) + k)
}

func geometrySmith(ndotv, ndotl, roughness float32) float32 {
	return geometrySchlickGGX(ndotv, roughness) * geometrySchlickGGX(ndotl, roughness)
}

type sample struct {
	// z is 'up'
	x, y, z float32
	weight  float32
}

// generateDiffuseConvolutionSamples distributes samples over the hemisphere in rings,
// weighted by cos(theta) * sin(theta).
// quality >= 0
func generateDiffuseConvolutionSamples(quality int) []sample {

	if quality == 0 {
		// only one sample directly upwards
		return []sample{{x: 0, y: 0, z: 1, weight: 1}}
	}

	rings := quality + 1
	segments := quality * 4

	dPhi := (2.0 * math32.Pi) / float32(segments)
	dTheta := (math32.Pi / 2.0) / float32(rings)

	samples := make([]sample, (rings-1)*segments+1)
	i := 0
	for ring := 0; ring < rings-1; ring++ {
		theta := (float32(ring) + 0.5) * dTheta
		for segment := 0; segment < segments; segment++ {
			phi := (float32(segment) + 0.5) * dPhi
			samples[i].x = math32.Sin(theta) * math32.Cos(phi)
			samples[i].y = math32.Sin(theta) * math32.Sin(phi)
			samples[i].z = math32.Cos(theta)
			samples[i].weight = math32.Cos(theta) * math32.Sin(theta)
			i++
		}
	}

	poleTheta := (float32(rings-1) + 0.5) * dTheta
	// the last 'ring' accounts for the the segments around the 'pole cap'
	samples[i].x = 0
	samples[i].y = 0
	samples[i].z = 1
	samples[i].weight = float32(segments) * math32.Cos(poleTheta) * math32.Sin(poleTheta)

	return samples
}
