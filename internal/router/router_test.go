package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorsConfig(t *testing.T) {
	cfg := corsConfig([]string{"http://localhost:8000"})
	assert.Equal(t, []string{"http://localhost:8000"}, cfg.AllowOrigins)
	assert.Nil(t, cfg.AllowOriginFunc)
	assert.NoError(t, cfg.Validate())

	wildcard := corsConfig([]string{"http://a.test", "*"})
	assert.Empty(t, wildcard.AllowOrigins)
	assert.NotNil(t, wildcard.AllowOriginFunc)
	assert.NoError(t, wildcard.Validate())
}
