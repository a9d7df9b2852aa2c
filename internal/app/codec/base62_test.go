package codec_test

import (
	"strings"
	"testing"

	"github.com/mkraev/linkforge/internal/app/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	t.Run("zero encodes to a single symbol", func(t *testing.T) {
		assert.Equal(t, "a", codec.Encode(0))
	})

	t.Run("small values round the alphabet", func(t *testing.T) {
		assert.Equal(t, "b", codec.Encode(1))
		assert.Equal(t, "9", codec.Encode(61))
		// 62 = 0*62^0 + 1*62^1, least-significant first.
		assert.Equal(t, "ab", codec.Encode(62))
		assert.Equal(t, "bb", codec.Encode(63))
	})

	t.Run("only alphabet symbols appear", func(t *testing.T) {
		for _, n := range []uint64{0, 7, 61, 62, 3843, 916132831, 1<<40 + 17} {
			s := codec.Encode(n)
			require.NotEmpty(t, s)
			for _, r := range s {
				assert.True(t, strings.ContainsRune(codec.Alphabet, r),
					"unexpected symbol %q in %q", r, s)
			}
		}
	})

	t.Run("injective over a dense range", func(t *testing.T) {
		seen := make(map[string]uint64, 100_000)
		for n := uint64(0); n < 100_000; n++ {
			s := codec.Encode(n)
			prev, dup := seen[s]
			require.False(t, dup, "Encode(%d) == Encode(%d) == %q", n, prev, s)
			seen[s] = n
		}
	})

	t.Run("stays within the length bound for the full keyspace", func(t *testing.T) {
		// 62^10 - 1 is the largest value a 10-symbol slug can carry; the
		// configured keyspace (62^8 by default) sits well below it.
		const max = uint64(839299365868340223)
		assert.LessOrEqual(t, len(codec.Encode(max)), codec.MaxSlugLen)
	})
}

func TestValidSlug(t *testing.T) {
	valid := []string{"a", "promo", "Ab3", "zzzzzzzzzz"}
	for _, s := range valid {
		assert.True(t, codec.ValidSlug(s), "expected %q to be valid", s)
	}

	invalid := []string{"", "has space", "semi;colon", "héllo", "elevenchars", "under_score", "dash-ed"}
	for _, s := range invalid {
		assert.False(t, codec.ValidSlug(s), "expected %q to be invalid", s)
	}
}
