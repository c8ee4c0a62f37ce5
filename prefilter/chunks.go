package prefilter

const NumberOfCubeFaces = 6

// Chunk is a contiguous range of cube faces rendered by one framebuffer in a single draw.
type Chunk struct {
	Index     int
	FirstFace int
	Size      int
}

// PlanChunks partitions the six cube faces into chunks of at most maxColorAttachments faces.
// The result is ordered by face and covers every face exactly once.
func PlanChunks(maxColorAttachments int) []Chunk {
	chunkSize := maxColorAttachments
	if chunkSize > NumberOfCubeFaces {
		chunkSize = NumberOfCubeFaces
	}
	if chunkSize < 1 {
		chunkSize = 1
	}

	count := (NumberOfCubeFaces + chunkSize - 1) / chunkSize
	chunks := make([]Chunk, count)
	for i := range chunks {
		first := i * chunkSize
		size := chunkSize
		if first+size > NumberOfCubeFaces {
			size = NumberOfCubeFaces - first
		}
		chunks[i] = Chunk{
			Index:     i,
			FirstFace: first,
			Size:      size,
		}
	}
	return chunks
}

// Faces returns the face indices of the chunk in attachment order.
func (c Chunk) Faces() []int {
	faces := make([]int, c.Size)
	for i := range faces {
		faces[i] = c.FirstFace + i
	}
	return faces
}
