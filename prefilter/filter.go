package prefilter

// Filter turns six radiance faces into a cubemap whose mip levels hold the radiance
// prefiltered for increasing roughness, level 0 being a perfect mirror.
//
// Implementations are not safe for concurrent use. The GL implementation must only be
// used from the thread that owns the context.
type Filter interface {
	// Update replaces the radiance and refilters every level. The faces are always released,
	// also when an error is returned.
	Update(faces []FaceImage) error
	Resolution() int
	Levels() int
	// Readback copies the filtered cubemap into host memory.
	Readback() (*Cubemap, error)
	// Release frees all resources. Calling it more than once is safe.
	Release()
}
