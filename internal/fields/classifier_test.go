package fields

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomDigits(r *rand.Rand, n int) string {
	var b strings.Builder
	for range n {
		b.WriteByte(byte('0' + r.Intn(10)))
	}
	return b.String()
}

func group(d string, sizes []int, sep string) string {
	parts := make([]string, 0, len(sizes))
	off := 0
	for _, n := range sizes {
		parts = append(parts, d[off:off+n])
		off += n
	}
	return strings.Join(parts, sep)
}

func TestIsCardNumber_AcceptedGroupings(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for range 200 {
		d := randomDigits(r, 16)
		assert.True(t, IsCardNumber(d), d)
		assert.True(t, IsCardNumber(group(d, []int{4, 4, 4, 4}, "-")), d)
		assert.True(t, IsCardNumber(group(d, []int{4, 4, 4, 4}, " ")), d)
	}
}

func TestIsCardNumber_RejectedGroupings(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for range 100 {
		d := randomDigits(r, 16)
		rejected := []string{
			group(d, []int{4, 4, 4, 4}, "."),
			group(d, []int{4, 4, 4, 4}, "  "),
			group(d, []int{4, 4, 4, 4}, "/"),
			group(d, []int{4, 6, 6}, " "),
			group(d, []int{8, 8}, "-"),
			group(d, []int{2, 2, 4, 4, 4}, " "),
			group(d[:8], []int{4, 4}, "-") + " " + group(d[8:], []int{4, 4}, "-"),
			d[:15],
			d + "1",
		}
		for _, s := range rejected {
			assert.False(t, IsCardNumber(s), s)
		}
	}
}

func TestIsCardNumber_RejectsSubstringMatches(t *testing.T) {
	cases := []string{
		"prefix 4111111111111111 suffix",
		"4111111111111111 ",
		" 4111111111111111",
		"card 4111 1111 1111 1111",
		"4111-1111-1111-1111x",
		"",
	}
	for _, s := range cases {
		assert.False(t, IsCardNumber(s), "%q", s)
	}
}

func TestIsExpiryDate(t *testing.T) {
	for m := 1; m <= 12; m++ {
		for _, yy := range []string{"00", "25", "99"} {
			s := []byte("00/" + yy)
			s[0] = byte('0' + m/10)
			s[1] = byte('0' + m%10)
			assert.True(t, IsExpiryDate(string(s)), string(s))
		}
	}

	for _, s := range []string{"00/25", "13/25", "1/25", "01/2025", "01-25", "01/2", " 01/25", "01/25 ", "ab/cd"} {
		assert.False(t, IsExpiryDate(s), s)
	}
}

func TestIsCardHolderName(t *testing.T) {
	assert.True(t, IsCardHolderName("JOHN SMITH"))
	assert.True(t, IsCardHolderName("  JOHN SMITH  "))
	assert.True(t, IsCardHolderName("\u00c9MILE ZOLA"))

	for _, s := range []string{
		"John Smith",
		"JOHN",
		"JOHN A SMITH",
		"JOHN  SMITH",
		"JOHN SM1TH",
		"JOHN O'NEIL",
		"",
	} {
		assert.False(t, IsCardHolderName(s), "%q", s)
	}
}

func TestIsCardHolderName_SeparatorIsOneSpace(t *testing.T) {
	// tokens must be separated by exactly one space
	assert.False(t, IsCardHolderName("JOHN  SMITH"))
	assert.False(t, IsCardHolderName("JOHN   SMITH"))
	assert.False(t, IsCardHolderName("JOHN\tSMITH"))
	assert.True(t, IsCardHolderName(" JOHN SMITH"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		in   string
		want FieldKind
	}{
		{"4111 1111 1111 1111", CardNumber},
		{"09/27", ExpiryDate},
		{"JANE DOE", CardHolderName},
		{"VALID THRU", CardHolderName},
		{"VISA", Unclassified},
		{"09/27 JANE", Unclassified},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.in))
		})
	}
}

func TestFieldKind_String(t *testing.T) {
	assert.Equal(t, "card_number", CardNumber.String())
	assert.Equal(t, "expiry_date", ExpiryDate.String())
	assert.Equal(t, "card_holder_name", CardHolderName.String())
	assert.Equal(t, "unclassified", Unclassified.String())

	b, err := ExpiryDate.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "expiry_date", string(b))
}

func TestClassifier_ExtractStrictConfidence(t *testing.T) {
	c := NewClassifier()
	lines := []TextLine{
		{Text: "4111 1111 1111 1111", Confidence: 0.99},
		{Text: "09/27", Confidence: 1.0},
	}
	res := c.Extract(lines)
	assert.Empty(t, res.CardNumber, "lines below 1.0 must be ignored")
	assert.Equal(t, "09/27", res.ExpiryDate)
	assert.False(t, res.Complete())
}

func TestClassifier_ExtractComplete(t *testing.T) {
	c := NewClassifier()
	c.CaptureHolderName = true
	lines := []TextLine{
		{Text: "VISA", Confidence: 1},
		{Text: "4111 1111 1111 1111", Confidence: 1},
		{Text: "09/27", Confidence: 1},
		{Text: "JANE DOE", Confidence: 1},
	}
	res := c.Extract(lines)
	assert.True(t, res.Complete())
	assert.Equal(t, "4111 1111 1111 1111", res.CardNumber)
	assert.Equal(t, "09/27", res.ExpiryDate)
	assert.Equal(t, "JANE DOE", res.HolderName)
}

func TestClassifier_LastMatchWins(t *testing.T) {
	c := NewClassifier()
	c.CaptureHolderName = true
	lines := []TextLine{
		{Text: "1111 2222 3333 4444", Confidence: 1},
		{Text: "4111 1111 1111 1111", Confidence: 1},
		{Text: "01/25", Confidence: 1},
		{Text: "09/27", Confidence: 1},
		{Text: "VALID THRU", Confidence: 1},
		{Text: "JANE DOE", Confidence: 1},
		{Text: "5500 0000 0000 0004", Confidence: 0.9},
	}
	res := c.Extract(lines)
	assert.Equal(t, "4111 1111 1111 1111", res.CardNumber)
	assert.Equal(t, "09/27", res.ExpiryDate)
	assert.Equal(t, "JANE DOE", res.HolderName)
}

func TestClassifier_HolderNameOptIn(t *testing.T) {
	c := NewClassifier()
	res := c.Extract([]TextLine{{Text: "JANE DOE", Confidence: 1}})
	assert.Empty(t, res.HolderName)
}

func TestClassifier_LowerThreshold(t *testing.T) {
	c := &Classifier{MinConfidence: 0.8}
	res := c.Extract([]TextLine{
		{Text: "4111111111111111", Confidence: 0.85},
		{Text: "12/30", Confidence: 0.8},
	})
	assert.True(t, res.Complete())
}

func TestClassifier_EmptyInput(t *testing.T) {
	res := NewClassifier().Extract(nil)
	assert.False(t, res.Complete())
	assert.Equal(t, ScanResult{}, res)
}
