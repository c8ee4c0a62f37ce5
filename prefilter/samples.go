package prefilter

import (
	"cubemap-prefilter/logger"
	"math/bits"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// ImportanceSample is a tangent space light direction with its normalized weight and the
// source mip level it should be read from.
type ImportanceSample struct {
	Direction    mgl32.Vec3
	Contribution float32
	Level        float32
}

// K = 4, lets neighbouring samples overlap a bit
const log4K = 1.0

// Hammersley returns the i-th point of the Hammersley sequence with inverseN = 1/N.
func Hammersley(i uint32, inverseN float32) (u, v float32) {
	return float32(i) * inverseN, float32(bits.Reverse32(i)) * (0.5 / 0x80000000)
}

// ImportanceSampleGGX maps a point of the unit square to a GGX distributed half vector around +Z.
func ImportanceSampleGGX(u, v, roughness float32) mgl32.Vec3 {
	a := roughness
	phi := 2.0 * math32.Pi * u
	// (aa-1) == (a-1)(a+1) is more accurate
	cosTheta2 := (1.0 - v) / (1.0 + (a+1.0)*((a-1.0)*v))
	cosTheta := math32.Sqrt(cosTheta2)
	sinTheta := math32.Sqrt(1.0 - cosTheta2)
	return mgl32.Vec3{sinTheta * math32.Cos(phi), sinTheta * math32.Sin(phi), cosTheta}
}

// DistributionGGX is the GGX normal distribution function D.
func DistributionGGX(noh, roughness float32) float32 {
	a := roughness
	f := (a-1.0)*((a+1.0)*(noh*noh)) + 1.0
	return (a * a) / (math32.Pi * f * f)
}

func log4(v float32) float32 {
	return math32.Log2(v) * 0.5
}

// GenerateImportanceSampleCaches builds one cache per mip level 1..levels-1, indexed by level-1.
// The contributions of a cache sum to one. A level where every sample got rejected has an empty cache.
func GenerateImportanceSampleCaches(resolution, levels, samples int) [][]ImportanceSample {
	if levels < 2 {
		return [][]ImportanceSample{}
	}
	caches := make([][]ImportanceSample, levels-1)
	var inverseN float32
	if samples > 0 {
		inverseN = 1.0 / float32(samples)
	}

	for i := range caches {
		level := i + 1
		perceptualRoughness := float32(level) / float32(levels-1)
		roughness := perceptualRoughness * perceptualRoughness
		faceResolution := resolution >> level
		if faceResolution < 1 {
			faceResolution = 1
		}
		// solid angle of one texel at this level
		log4OmegaP := log4((4.0 * math32.Pi) / float32(6*faceResolution*faceResolution))

		cache := make([]ImportanceSample, 0, samples)
		var weight float32
		for s := 0; s < samples; s++ {
			u, v := Hammersley(uint32(s), inverseN)
			h := ImportanceSampleGGX(u, v, roughness)
			noh := h.Z()
			noh2 := noh * noh
			nol := 2.0*noh2 - 1.0
			if nol <= 0 {
				continue
			}

			pdf := DistributionGGX(noh, roughness) / 4.0
			log4OmegaS := log4(1.0 / (float32(samples) * pdf))
			lod := log4OmegaS - log4OmegaP + log4K

			cache = append(cache, ImportanceSample{
				Direction:    mgl32.Vec3{2.0 * noh * h.X(), 2.0 * noh * h.Y(), nol},
				Contribution: nol,
				Level:        mgl32.Clamp(lod, 0, float32(levels-1)),
			})
			weight += nol
		}

		if weight <= 0 {
			logger.Log.Warn("no importance sample accepted, level is passed through",
				zap.Int("level", level), zap.Int("samples", samples))
			caches[i] = cache[:0]
			continue
		}
		for j := range cache {
			cache[j].Contribution /= weight
		}
		caches[i] = cache
	}

	return caches
}
