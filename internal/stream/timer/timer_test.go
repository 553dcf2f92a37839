package timer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamlog/internal/stream/models"
)

func metaValue(t *testing.T, meta *models.Meta, key string) string {
	t.Helper()
	v, ok := meta.Get(key)
	require.True(t, ok, "meta key %s missing", key)
	return v
}

func TestMarkAndReset(t *testing.T) {
	start := time.Unix(1700000000, 0)

	t.Run("stamps timing meta and re-arms", func(t *testing.T) {
		tx := New()
		tx.startAt(start)

		meta := models.NewMeta()
		stop := start.Add(1500 * time.Millisecond)
		tx.markAndResetAt(stop, meta)

		assert.Equal(t, "1700000000.000000", metaValue(t, meta, models.MetaTransactionStart))
		assert.Equal(t, "1700000001.500000", metaValue(t, meta, models.MetaTransactionStop))
		assert.Equal(t, "1500", metaValue(t, meta, models.MetaTransactionTime))

		// The second interval is measured from the first stop, not the
		// original start.
		meta2 := models.NewMeta()
		tx.markAndResetAt(stop.Add(250*time.Millisecond), meta2)
		assert.Equal(t, "1700000001.500000", metaValue(t, meta2, models.MetaTransactionStart))
		assert.Equal(t, "250", metaValue(t, meta2, models.MetaTransactionTime))
	})

	t.Run("sub-millisecond interval rounds", func(t *testing.T) {
		tx := New()
		tx.startAt(start)

		meta := models.NewMeta()
		tx.markAndResetAt(start.Add(1400*time.Microsecond), meta)
		assert.Equal(t, "1", metaValue(t, meta, models.MetaTransactionTime))
	})

	t.Run("unarmed timer leaves meta untouched", func(t *testing.T) {
		tx := New()
		meta := models.NewMeta()
		tx.MarkAndReset(meta)
		assert.Equal(t, 0, meta.Len())
	})

	t.Run("reset disarms", func(t *testing.T) {
		tx := New()
		tx.startAt(start)
		tx.Reset()

		meta := models.NewMeta()
		tx.markAndResetAt(start.Add(time.Second), meta)
		assert.Equal(t, 0, meta.Len())
	})
}

func TestContextCarriage(t *testing.T) {
	ctx := context.Background()

	_, ok := FromContext(ctx)
	assert.False(t, ok)

	tx := New()
	ctx = WithTransaction(ctx, tx)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, tx, got)

	// nil transactions are not attached
	ctx2 := WithTransaction(context.Background(), nil)
	_, ok = FromContext(ctx2)
	assert.False(t, ok)
}
