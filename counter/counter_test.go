package counter

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterCounts(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf)

	_, err := c.Write([]byte("Hello, "))
	require.NoError(t, err)
	_, err = c.Write([]byte("World!"))
	require.NoError(t, err)

	assert.EqualValues(t, 13, c.Count())
	assert.Equal(t, "Hello, World!", buf.String())
}

func TestCounterNilWriter(t *testing.T) {
	c := New(nil)
	n, err := c.Write(make([]byte, 42))
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.EqualValues(t, 42, c.Count())
}

func TestCounterCallbackRefusesChunk(t *testing.T) {
	var buf bytes.Buffer
	stop := errors.New("too much")

	var seen []int64
	c := NewWithCallback(func(count int64) error {
		seen = append(seen, count)
		if count > 8 {
			return stop
		}
		return nil
	}, &buf)

	_, err := c.Write([]byte("12345"))
	require.NoError(t, err)

	n, err := c.Write([]byte("67890"))
	assert.Equal(t, stop, err)
	assert.Equal(t, 0, n)

	assert.Equal(t, []int64{5, 10}, seen)
	assert.EqualValues(t, 5, c.Count())
	assert.Equal(t, "12345", buf.String(), "refused chunk must not be written")
}
