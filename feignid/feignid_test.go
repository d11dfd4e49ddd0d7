package feignid

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_EmptyHintReturnsUUID(t *testing.T) {
	id := New("")
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`), id)
}

func TestNew_CustomHintIsSanitizedAndPrefixed(t *testing.T) {
	id := New("my invocation!!")
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{5}-my-invocation$`), id)
}

func TestNew_LongHintIsTruncatedToFit(t *testing.T) {
	hint := ""
	for i := 0; i < 50; i++ {
		hint += "a"
	}
	id := New(hint)
	assert.LessOrEqual(t, len(id), MaxIDLength)
}

func TestNew_HintThatSanitizesToEmptyFallsBackToUUID(t *testing.T) {
	id := New("!!!")
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-`), id)
}

func TestNew_UniquePerCall(t *testing.T) {
	assert.NotEqual(t, New("op"), New("op"))
}
