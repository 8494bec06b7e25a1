package storage

// splitChunks shards content into size-byte blocks; the final block carries
// the remainder. Blocks own their memory independently of the input slice.
// Empty content yields zero blocks.
func splitChunks(content []byte, size int) [][]byte {
	chunks := make([][]byte, 0, (len(content)+size-1)/size)
	for start := 0; start < len(content); start += size {
		end := start + size
		if end > len(content) {
			end = len(content)
		}
		chunks = append(chunks, cloneBytes(content[start:end]))
	}
	return chunks
}
