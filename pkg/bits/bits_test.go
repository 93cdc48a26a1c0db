package bits

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseField(t *testing.T) {
	tests := []struct {
		in       string
		msb, lsb uint32
		wantErr  bool
	}{
		{in: "7", msb: 7, lsb: 7},
		{in: "31-25", msb: 31, lsb: 25},
		{in: "0-0", msb: 0, lsb: 0},
		{in: "25-31", wantErr: true},
		{in: "a-b", wantErr: true},
		{in: "", wantErr: true},
		{in: "3:1", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			f, err := ParseField(tc.in)
			if tc.wantErr {
				var lfe *LocationFormatError
				require.ErrorAs(t, err, &lfe)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.msb, f.Msb)
			assert.Equal(t, tc.lsb, f.Lsb)
			assert.Equal(t, tc.msb-tc.lsb+1, f.Size())
		})
	}
}

func TestParseLocationDeclarationOrder(t *testing.T) {
	loc, err := ParseLocation("2|8-7|11-9")
	require.NoError(t, err)

	assert.Equal(t, []Field{{Lsb: 2, Msb: 2}, {Lsb: 7, Msb: 8}, {Lsb: 9, Msb: 11}}, loc.Fields())
	assert.Equal(t, []uint32{2, 8, 7, 11, 10, 9}, loc.Bits())
	assert.Equal(t, uint32(6), loc.Size())
	assert.Equal(t, uint32(11), loc.Top())
	assert.Equal(t, "2|8-7|11-9", loc.String())
	assert.False(t, loc.Contiguous())

	sorted := loc.Sorted()
	require.Len(t, sorted, 3)
	assert.Equal(t, uint32(2), sorted[0].Msb)
	assert.Equal(t, uint32(11), sorted[2].Msb)
}

func TestParseLocationErrors(t *testing.T) {
	t.Run("reversed range", func(t *testing.T) {
		_, err := ParseLocation("11-7|3-6")
		var lfe *LocationFormatError
		require.ErrorAs(t, err, &lfe)
		assert.Equal(t, "11-7|3-6", lfe.Location)
	})

	t.Run("overlapping fields", func(t *testing.T) {
		_, err := ParseLocation("11-7|8")
		var oe *OverlapError
		require.ErrorAs(t, err, &oe)
	})

	t.Run("consecutive fields", func(t *testing.T) {
		_, err := ParseLocation("12|11-7")
		var lfe *LocationFormatError
		require.True(t, errors.As(err, &lfe))
		assert.Contains(t, lfe.Error(), "single range")
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseLocation("rs1")
		var lfe *LocationFormatError
		require.ErrorAs(t, err, &lfe)
	})
}

func TestOverlapsIsIntersection(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"11-7", "11-7", true},
		{"11-7", "9", true},
		// partial overlap: neither contains the other
		{"11-7", "14-10", true},
		{"11-7", "6-0", false},
		{"31|7|30-25|11-8", "7", true},
		{"31|7|30-25|11-8", "24-12", false},
		{"2|8-7|11-9", "10-9", true},
	}

	for _, tc := range tests {
		a := MustParseLocation(tc.a)
		b := MustParseLocation(tc.b)
		assert.Equal(t, tc.want, a.Overlaps(b), "%s vs %s", tc.a, tc.b)
		assert.Equal(t, tc.want, b.Overlaps(a), "%s vs %s", tc.b, tc.a)
	}
}

func TestCovers(t *testing.T) {
	loc := MustParseLocation("31|7|30-25|11-8")
	for _, bit := range []uint32{31, 7, 30, 25, 11, 8} {
		assert.True(t, loc.Covers(bit), "bit %d", bit)
	}
	for _, bit := range []uint32{24, 12, 6, 0} {
		assert.False(t, loc.Covers(bit), "bit %d", bit)
	}
	assert.Equal(t, uint32(12), Size(loc))
}

func TestFieldMask(t *testing.T) {
	f, err := NewField(14, 12)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x7000), f.Mask())

	_, err = NewField(3, 4)
	assert.Error(t, err)
}

func TestLocationAt(t *testing.T) {
	loc, err := LocationAt(5)
	require.NoError(t, err)
	assert.Equal(t, "5", loc.String())

	_, err = LocationAt(-1)
	assert.Error(t, err)
}
