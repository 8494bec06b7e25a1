package storage

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitChunks(t *testing.T) {
	t.Run("length is an exact multiple of the block size", func(t *testing.T) {
		blocks := splitChunks([]byte("abcdefgh"), 4)
		require.Len(t, blocks, 2)
		assert.Equal(t, []byte("abcd"), blocks[0])
		assert.Equal(t, []byte("efgh"), blocks[1])
	})

	t.Run("the final block carries the remainder", func(t *testing.T) {
		blocks := splitChunks([]byte("abcdefghij"), 4)
		require.Len(t, blocks, 3)
		assert.Equal(t, []byte("ij"), blocks[2])
	})

	t.Run("empty content yields no blocks", func(t *testing.T) {
		blocks := splitChunks(nil, 4)
		assert.NotNil(t, blocks)
		assert.Len(t, blocks, 0)
	})

	t.Run("content shorter than one block", func(t *testing.T) {
		blocks := splitChunks([]byte("ab"), 4)
		require.Len(t, blocks, 1)
		assert.Equal(t, []byte("ab"), blocks[0])
	})

	t.Run("blocks do not alias the input", func(t *testing.T) {
		content := []byte("abcdefgh")
		blocks := splitChunks(content, 4)
		content[0] = 'X'
		assert.Equal(t, []byte("abcd"), blocks[0])
	})
}

func TestSplitChunksAtDefaultBlockSize(t *testing.T) {
	content := bytes.Repeat([]byte{0xAB}, DefaultChunkSize*2+DefaultChunkSize/2)

	blocks := splitChunks(content, DefaultChunkSize)

	require.Len(t, blocks, 3)
	assert.Len(t, blocks[0], DefaultChunkSize)
	assert.Len(t, blocks[1], DefaultChunkSize)
	assert.Len(t, blocks[2], DefaultChunkSize/2)
	assert.Equal(t, content, reassemble(blocks))
}
