package randstr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateRandomString(t *testing.T) {
	alphabet := "AB12"
	g := New([]byte(alphabet))

	for i := 0; i < 100; i++ {
		s := g.GenerateRandomString(6)
		assert.Len(t, s, 6)
		for _, ch := range s {
			assert.True(t, strings.ContainsRune(alphabet, ch))
		}
	}
}
