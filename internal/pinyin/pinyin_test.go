package pinyin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"xué":         "xue2",
		"xue2":        "xue2",
		"Xué":         "xue2",
		"lǜ":          "lv4",
		"lv4":         "lv4",
		"lu:4":        "lv4",
		"nü3":         "nv3",
		"xué sheng":   "xue2sheng",
		"xue2sheng":   "xue2sheng",
		"xue2 sheng5": "xue2sheng",
		"mǎmā":        "ma3ma1",
		"  nǐ hǎo ":   "ni3ha3o",
		"hao3":        "ha3o",
		"dou1":        "do1u",
		"gui4":        "gui4",
		"xiān":        "xia1n",
		"Xi'ān":       "xia1n",
		"m2":          "m2",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestNormalizeCombiningMarks(t *testing.T) {
	// "xue" + combining acute accent composes to é under NFC.
	assert.Equal(t, "xue2", Normalize("xué"))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("xue2", "xué"))
	assert.True(t, Equal("lv4", "lǜ"))
	assert.True(t, Equal("Xué", "xue2"))
	assert.False(t, Equal("xue1", "xué"))
	assert.False(t, Equal("ma3ma1", "māmǎ"))
}

func TestToneStaysWithSyllable(t *testing.T) {
	assert.False(t, Equal("ma1ma", "mama1"))
	assert.False(t, Equal("xi1an1", "xian11"))
	assert.False(t, Equal("hao3ren2", "haoren32"))
	assert.True(t, Equal("ni3 hao3", "nǐhǎo"))
	assert.True(t, Equal("zhong1guo2", "Zhōngguó"))
}
