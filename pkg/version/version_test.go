package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	info := Get()

	// GitVersion carries the ldflags value, or the unknown placeholder in
	// development builds
	assert.NotEmpty(t, info.GitVersion, "GitVersion should not be empty")
	assert.Equal(t, info, Get(), "Get should be stable")
}

func TestString(t *testing.T) {
	assert.Equal(t, "v1.2.3", Info{GitVersion: "v1.2.3"}.String())
	assert.Equal(t, "v1.2.3 (abc1234)", Info{GitVersion: "v1.2.3", GitCommit: "abc1234"}.String())
}
