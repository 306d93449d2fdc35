package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomInt32(t *testing.T) {
	seen := make(map[int32]bool)
	for i := 0; i < 16; i++ {
		seen[RandomInt32()] = true
	}
	// 16次采样全部相同的概率可以忽略
	assert.Greater(t, len(seen), 1)
}
