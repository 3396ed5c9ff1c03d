package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		release []int
		pre     string
		wantErr bool
	}{
		{"2.9.9", []int{2, 9, 9}, "", false},
		{"1.0", []int{1, 0}, "", false},
		{"0.23", []int{0, 23}, "", false},
		{"3", []int{3}, "", false},
		{"1.2.3rc1", []int{1, 2, 3}, "rc", false},
		{"1.2.3a1", []int{1, 2, 3}, "a", false},
		{"1.2.3.beta2", []int{1, 2, 3}, "b", false},
		{"v1.4", []int{1, 4}, "", false},
		{"", nil, "", true},
		{"abc", nil, "", true},
		{"1.2.x", nil, "", true},
		{"1..2", nil, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := ParseVersion(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.release, v.Release)
			assert.Equal(t, tt.pre, v.Pre)
		})
	}
}

func TestVersion_Compare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0", "1.0", 0},
		{"1.0", "1.0.0", 0}, // shorter release zero-padded
		{"1.0", "1.1", -1},
		{"2.0", "1.9.9", 1},
		{"1.10", "1.9", 1}, // numeric, not lexicographic
		{"1.0rc1", "1.0", -1},
		{"1.0a1", "1.0b1", -1},
		{"1.0rc1", "1.0rc2", -1},
		{"1.0.post1", "1.0", 1},
		{"1.0.dev1", "1.0a1", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+" vs "+tt.b, func(t *testing.T) {
			a, err := ParseVersion(tt.a)
			require.NoError(t, err)
			b, err := ParseVersion(tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Compare(b))
			assert.Equal(t, -tt.want, b.Compare(a))
		})
	}
}

func TestVersion_Satisfies(t *testing.T) {
	tests := []struct {
		version string
		spec    Specifier
		want    bool
	}{
		{"2.9.9", Specifier{OpEq, "2.9.9"}, true},
		{"2.9.9", Specifier{OpEq, "2.9.8"}, false},
		{"2.1", Specifier{OpGreaterEq, "2.0.0"}, true},
		{"1.9", Specifier{OpGreaterEq, "2.0"}, false},
		{"1.5", Specifier{OpLess, "2.0"}, true},
		{"2.0", Specifier{OpLess, "2.0"}, false},
		{"1.0", Specifier{OpNotEq, "2.0"}, true},
		{"5.3.2", Specifier{OpCompatible, "5.3"}, true},
		{"6.0", Specifier{OpCompatible, "5.3"}, false},
		{"2.4.9", Specifier{OpCompatible, "2.4.1"}, true},
		{"2.5.0", Specifier{OpCompatible, "2.4.1"}, false},
	}

	for _, tt := range tests {
		v, err := ParseVersion(tt.version)
		require.NoError(t, err)
		assert.Equal(t, tt.want, v.Satisfies(tt.spec),
			"%s satisfies %s%s", tt.version, tt.spec.Op, tt.spec.Version)
	}
}

func TestVersion_NextCompatible(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2.4.1", "2.5"},
		{"1.4", "2"},
		{"5", "6"},
	}

	for _, tt := range tests {
		v, err := ParseVersion(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, v.NextCompatible().String())
	}
}
