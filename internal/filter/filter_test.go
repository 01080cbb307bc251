package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchesPermissiveDefault(t *testing.T) {
	s := New("", "", "", "")
	require.True(t, s.Empty())

	inputs := [][4]string{
		{"2341", "0043", "AB1234", "1.2"},
		{"", "", "", ""},
		{"N/A", "N/A", "None/Empty", "Unknown"},
		{"ffff", "0000", "x", "9.9.9"},
	}
	for _, in := range inputs {
		ok, reason := s.Matches(in[0], in[1], in[2], in[3])
		assert.True(t, ok, "empty filter set must match %v", in)
		assert.Equal(t, "no filters configured", reason)
	}
}

func TestMatchesSingleFilter(t *testing.T) {
	// 每次只配置一个过滤器,其余三个输入字段不应影响结果
	tests := []struct {
		name    string
		set     *Set
		vendor  string
		product string
		serial  string
		port    string
		want    bool
	}{
		{"vendor match", New("2341", "", "", ""), "2341", "zzz", "zzz", "zzz", true},
		{"vendor mismatch", New("2341", "", "", ""), "1a86", "0043", "AB1234", "1.2", false},
		{"product match", New("", "0043", "", ""), "zzz", "0043", "zzz", "zzz", true},
		{"product mismatch", New("", "0043", "", ""), "2341", "7523", "AB1234", "1.2", false},
		{"serial match", New("", "", "AB1234", ""), "zzz", "zzz", "AB1234", "zzz", true},
		{"serial mismatch", New("", "", "AB1234", ""), "2341", "0043", "XY0000", "1.2", false},
		{"port match", New("", "", "", "1.2"), "zzz", "zzz", "zzz", "1.2", true},
		{"port mismatch", New("", "", "", "1.2"), "2341", "0043", "AB1234", "1.3", false},
		{"case sensitive", New("", "", "ab1234", ""), "", "", "AB1234", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, _ := tt.set.Matches(tt.vendor, tt.product, tt.serial, tt.port)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestMatchesFirstMismatchReason(t *testing.T) {
	set := New("2341", "0043", "AB1234", "1.2")

	ok, reason := set.Matches("2341", "0043", "AB1234", "1.2")
	assert.True(t, ok)
	assert.Empty(t, reason)

	// 第一个不匹配的字段决定日志里的原因
	ok, reason = set.Matches("1a86", "7523", "XY0000", "9.9")
	assert.False(t, ok)
	assert.Equal(t, "vendor id mismatch: 1a86 != 2341", reason)

	ok, reason = set.Matches("2341", "7523", "XY0000", "9.9")
	assert.False(t, ok)
	assert.Equal(t, "product id mismatch: 7523 != 0043", reason)

	ok, reason = set.Matches("2341", "0043", "XY0000", "9.9")
	assert.False(t, ok)
	assert.Equal(t, "serial mismatch: XY0000 != AB1234", reason)

	ok, reason = set.Matches("2341", "0043", "AB1234", "9.9")
	assert.False(t, ok)
	assert.Equal(t, "port mismatch: 9.9 != 1.2", reason)
}

func TestNewTrimsWhitespace(t *testing.T) {
	set := New("  2341 ", "\t0043\n", " AB1234", "1.2 ")
	ok, _ := set.Matches("2341", "0043", "AB1234", "1.2")
	assert.True(t, ok)

	// 全空白等价于未配置
	assert.True(t, New("  ", "\t", "\n", " ").Empty())
}

func TestString(t *testing.T) {
	assert.Equal(t, "vendor=(any) product=(any) serial=(any) port=(any)", New("", "", "", "").String())
	assert.Equal(t, "vendor=2341 product=(any) serial=(any) port=1.2", New("2341", "", "", "1.2").String())
}
