package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoString(t *testing.T) {
	dev := Info{Version: "dev", CommitHash: "abc", BuildTime: "now"}
	assert.True(t, dev.IsDev())
	assert.Equal(t, "mqbuild dev (commit abc, built now)", dev.String())

	tagged := Info{Version: "v0.4.1", CommitHash: "0123456789", BuildTime: "now"}
	assert.False(t, tagged.IsDev())
	assert.Equal(t, "mqbuild v0.4.1 (commit 0123456789, built now)", tagged.String())
	assert.Equal(t, "0123456", tagged.Short())
	assert.Equal(t, "abc", dev.Short())
}

func TestSemver(t *testing.T) {
	v, err := Info{Version: "dev"}.Semver()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = Info{Version: "v0.4.1"}.Semver()
	require.NoError(t, err)
	assert.Equal(t, "0.4.1", v.String())

	_, err = Info{Version: "not-a-version"}.Semver()
	assert.Error(t, err)
}

func TestGet(t *testing.T) {
	info := Get()
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}
