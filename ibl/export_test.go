package ibl

// these functions are only exported when running tests

var SampleCubeMap = sampleCubeMap
var SampleSphericalMap = sampleSphericalMap
var IntegrateBrdf = integrateBrdf
var HammersleySequence = generateHammersleySequence

func DiffuseSampleCount(quality int) int {
	return len(generateDiffuseConvolutionSamples(quality))
}
