package connectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "streamlog/pkg/domain-errors"
)

type fakeConnector struct {
	slug      string
	available bool
}

func (c fakeConnector) Slug() string       { return c.slug }
func (c fakeConnector) Label() string      { return c.slug }
func (c fakeConnector) Contexts() []string { return nil }
func (c fakeConnector) Actions() []string  { return nil }
func (c fakeConnector) IsAvailable() bool  { return c.available }

func TestRegister(t *testing.T) {
	reg := New(nil)

	require.NoError(t, reg.Register(fakeConnector{slug: "posts", available: true}))
	got, ok := reg.Get("posts")
	assert.True(t, ok)
	assert.Equal(t, "posts", got.Slug())

	err := reg.Register(fakeConnector{slug: "", available: true})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	err = reg.Register(fakeConnector{slug: "woocommerce", available: false})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	_, ok = reg.Get("woocommerce")
	assert.False(t, ok)

	err = reg.Register(nil)
	assert.Error(t, err)
}

func TestSlugs(t *testing.T) {
	reg := New(nil)
	require.NoError(t, reg.Register(fakeConnector{slug: "users", available: true}))
	require.NoError(t, reg.Register(fakeConnector{slug: "posts", available: true}))

	assert.Equal(t, []string{"posts", "users"}, reg.Slugs())
}

func TestLoggingToggles(t *testing.T) {
	reg := New(nil)
	require.NoError(t, reg.Register(fakeConnector{slug: "posts", available: true}))

	// Logging defaults to on, unknown connectors included.
	assert.True(t, reg.IsLoggingEnabled("posts", "post", "updated"))
	assert.True(t, reg.IsLoggingEnabled("plugin-xyz", "widget", "created"))

	t.Run("action toggle", func(t *testing.T) {
		reg.SetLoggingEnabled("posts", "post", "updated", false)
		assert.False(t, reg.IsLoggingEnabled("posts", "post", "updated"))
		assert.True(t, reg.IsLoggingEnabled("posts", "post", "created"))

		reg.SetLoggingEnabled("posts", "post", "updated", true)
		assert.True(t, reg.IsLoggingEnabled("posts", "post", "updated"))
	})

	t.Run("context toggle", func(t *testing.T) {
		reg.SetLoggingEnabled("posts", "page", "", false)
		assert.False(t, reg.IsLoggingEnabled("posts", "page", "created"))
		assert.True(t, reg.IsLoggingEnabled("posts", "post", "created"))

		reg.SetLoggingEnabled("posts", "page", "", true)
	})

	t.Run("connector toggle wins", func(t *testing.T) {
		reg.SetLoggingEnabled("posts", "", "", false)
		assert.False(t, reg.IsLoggingEnabled("posts", "post", "created"))
		assert.False(t, reg.IsLoggingEnabled("posts", "", ""))

		// Re-enabling an action does not override the connector switch.
		reg.SetLoggingEnabled("posts", "post", "created", true)
		assert.False(t, reg.IsLoggingEnabled("posts", "post", "created"))

		reg.SetLoggingEnabled("posts", "", "", true)
		assert.True(t, reg.IsLoggingEnabled("posts", "post", "created"))
	})
}
