package weave

import (
	"testing"

	"github.com/htlcswap/weave/weavetest/assert"
)

func TestVersion(t *testing.T) {
	defer func(commit string) { GitCommit = commit }(GitCommit)

	GitCommit = ""
	assert.Equal(t, version, Version())

	GitCommit = "12345678"
	assert.Equal(t, version+" 12345678", Version())
}
