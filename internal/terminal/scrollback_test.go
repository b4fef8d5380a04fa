package terminal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrollback_KeepsTrailingBytes(t *testing.T) {
	sb := NewScrollback(8)

	n, err := sb.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(sb.Snapshot()))

	_, _ = sb.Write([]byte(" world"))
	assert.Equal(t, "lo world", string(sb.Snapshot()))
	assert.Equal(t, 8, sb.Len())
}

func TestScrollback_OversizedWrite(t *testing.T) {
	sb := NewScrollback(4)
	_, _ = sb.Write([]byte("ab"))

	n, err := sb.Write([]byte("0123456789"))
	assert.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, "6789", string(sb.Snapshot()))
}

func TestScrollback_NeverExceedsCap(t *testing.T) {
	sb := NewScrollback(16)
	var all []byte
	for i := 0; i < 50; i++ {
		chunk := bytes.Repeat([]byte{byte('a' + i%26)}, i%7+1)
		all = append(all, chunk...)
		_, _ = sb.Write(chunk)

		assert.LessOrEqual(t, sb.Len(), sb.Cap())
		want := all
		if len(want) > 16 {
			want = want[len(want)-16:]
		}
		assert.Equal(t, want, sb.Snapshot())
	}
}

func TestScrollback_SnapshotIsACopy(t *testing.T) {
	sb := NewScrollback(8)
	_, _ = sb.Write([]byte("abc"))

	snap := sb.Snapshot()
	snap[0] = 'X'

	assert.Equal(t, "abc", string(sb.Snapshot()))
}

func TestScrollback_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultScrollbackBytes, NewScrollback(0).Cap())
	assert.Equal(t, 10240, NewScrollback(-1).Cap())
}
