package kv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBucket = []byte("widgets")

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, [][]byte{testBucket})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Update(func(tx *WriteTx) error {
		return tx.Bucket(testBucket).Put([]byte("a"), []byte("1"))
	}))

	var got []byte
	require.NoError(t, s.View(func(tx *ReadTx) error {
		got = tx.Bucket(testBucket).Get([]byte("a"))
		return nil
	}))
	assert.Equal(t, []byte("1"), got)
}

func TestGetMissingReturnsNil(t *testing.T) {
	s := openTestStore(t)

	var got []byte
	require.NoError(t, s.View(func(tx *ReadTx) error {
		got = tx.Bucket(testBucket).Get([]byte("missing"))
		return nil
	}))
	assert.Nil(t, got)
}

func TestUpdateRollsBackOnError(t *testing.T) {
	s := openTestStore(t)

	boom := assert.AnError
	err := s.Update(func(tx *WriteTx) error {
		if err := tx.Bucket(testBucket).Put([]byte("a"), []byte("1")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var got []byte
	require.NoError(t, s.View(func(tx *ReadTx) error {
		got = tx.Bucket(testBucket).Get([]byte("a"))
		return nil
	}))
	assert.Nil(t, got, "aborted transaction must not be visible")
}

func TestRangePrefix(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Update(func(tx *WriteTx) error {
		b := tx.Bucket(testBucket)
		for _, k := range []string{"word:apple", "word:apricot", "word:banana", "facet:color"} {
			if err := b.Put([]byte(k), []byte("v")); err != nil {
				return err
			}
		}
		return nil
	}))

	var got []string
	require.NoError(t, s.View(func(tx *ReadTx) error {
		tx.Bucket(testBucket).Range([]byte("word:"), func(k, v []byte) bool {
			got = append(got, string(k))
			return true
		})
		return nil
	}))
	assert.Equal(t, []string{"word:apple", "word:apricot", "word:banana"}, got)
}

func TestRangeStopsEarly(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Update(func(tx *WriteTx) error {
		b := tx.Bucket(testBucket)
		for _, k := range []string{"a", "b", "c", "d"} {
			if err := b.Put([]byte(k), []byte("v")); err != nil {
				return err
			}
		}
		return nil
	}))

	var seen int
	require.NoError(t, s.View(func(tx *ReadTx) error {
		tx.Bucket(testBucket).ForEach(func(k, v []byte) bool {
			seen++
			return seen < 2
		})
		return nil
	}))
	assert.Equal(t, 2, seen)
}

func TestBigEndianKeyOrdering(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Update(func(tx *WriteTx) error {
		b := tx.Bucket(testBucket)
		for _, n := range []uint64{300, 1, 2_000_000, 42} {
			if err := b.Put(BigEndianUint64(n), nil); err != nil {
				return err
			}
		}
		return nil
	}))

	var got []uint64
	require.NoError(t, s.View(func(tx *ReadTx) error {
		tx.Bucket(testBucket).ForEach(func(k, v []byte) bool {
			got = append(got, Uint64BigEndian(k))
			return true
		})
		return nil
	}))
	assert.Equal(t, []uint64{1, 42, 300, 2_000_000}, got)
}

func TestCopyTo(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Update(func(tx *WriteTx) error {
		return tx.Bucket(testBucket).Put([]byte("a"), []byte("1"))
	}))

	dst := filepath.Join(t.TempDir(), "snapshot.db")
	require.NoError(t, s.CopyTo(dst))

	copied, err := Open(dst, [][]byte{testBucket})
	require.NoError(t, err)
	defer copied.Close()

	var got []byte
	require.NoError(t, copied.View(func(tx *ReadTx) error {
		got = tx.Bucket(testBucket).Get([]byte("a"))
		return nil
	}))
	assert.Equal(t, []byte("1"), got)
}
