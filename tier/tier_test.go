package tier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	got, err := Parse("EPISODIC")
	require.NoError(t, err)
	assert.Equal(t, Episodic, got)

	got, err = Parse("semantic")
	require.NoError(t, err)
	assert.Equal(t, Semantic, got)

	_, err = Parse("invalid")
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, Semantic, c.DefaultTier)
	require.NotNil(t, c.DefaultEpisodicTTLSeconds)
	assert.Equal(t, int64(3600), *c.DefaultEpisodicTTLSeconds)
}

func TestExpiresAt(t *testing.T) {
	c := DefaultConfig()

	assert.Nil(t, c.ExpiresAt(Semantic, 1000, nil))

	exp := c.ExpiresAt(Episodic, 1000, nil)
	require.NotNil(t, exp)
	assert.Equal(t, int64(4600), *exp)

	zero := int64(0)
	exp = c.ExpiresAt(Episodic, 1000, &zero)
	require.NotNil(t, exp)
	assert.Equal(t, int64(1000), *exp)

	noTTL := (*int64)(nil)
	c.DefaultEpisodicTTLSeconds = noTTL
	assert.Nil(t, c.ExpiresAt(Episodic, 1000, nil))
}

func TestExpired(t *testing.T) {
	assert.False(t, Expired(1000, nil))

	past := int64(500)
	assert.True(t, Expired(1000, &past))

	future := int64(1500)
	assert.False(t, Expired(1000, &future))

	now := int64(1000)
	assert.True(t, Expired(1000, &now))
}
