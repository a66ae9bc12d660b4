package assets

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_URL(t *testing.T) {
	fsys := fstest.MapFS{
		"css/site.css": {Data: []byte("body{}")},
		"js/site.js":   {Data: []byte("console.log(1)")},
	}
	r, err := NewResolver(fsys, "static")
	require.NoError(t, err)

	u := r.URL("css/site.css")
	assert.Regexp(t, `^/static/css/site\.css\?v=[0-9a-f]{8}$`, u)
	assert.Equal(t, u, r.URL("/css/site.css"))
	assert.Equal(t, "/static/img/missing.png", r.URL("img/missing.png"))

	fsys["css/site.css"] = &fstest.MapFile{Data: []byte("body{color:red}")}
	r2, err := NewResolver(fsys, "/static/")
	require.NoError(t, err)
	assert.NotEqual(t, u, r2.URL("css/site.css"))
}

func TestResolver_Nil(t *testing.T) {
	var r *Resolver
	assert.Equal(t, "/static/css/site.css", r.URL("css/site.css"))

	empty, err := NewResolver(nil, "/static/")
	require.NoError(t, err)
	assert.Equal(t, "/static/css/site.css", empty.URL("css/site.css"))
}
