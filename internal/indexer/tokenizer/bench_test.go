package tokenizer

import (
	"strings"
	"testing"
)

func BenchmarkWords(b *testing.B) {
	text := strings.Repeat("white cat and fashionable collar ", 200)
	b.SetBytes(int64(len(text)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Words(text)
	}
}

func BenchmarkIsValid(b *testing.B) {
	text := strings.Repeat("fluffy cat fluffy tail ", 200)
	b.SetBytes(int64(len(text)))
	for i := 0; i < b.N; i++ {
		_ = IsValid(text)
	}
}
