package catalog

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rasoi-group/market-intel/internal/model"
)

func TestCache_SnapshotIsACopy(t *testing.T) {
	c := NewCache()
	c.Replace(model.PlatformBlinkit, []model.CatalogEntry{{Name: "Onion 1kg", Price: 25}})

	snap := c.Snapshot(model.PlatformBlinkit)
	snap[0].Price = 1

	again := c.Snapshot(model.PlatformBlinkit)
	assert.Equal(t, 25, again[0].Price)
}

func TestCache_AppendWhileReading(t *testing.T) {
	c := NewCache()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Append(model.PlatformZepto, []model.CatalogEntry{
				{Name: fmt.Sprintf("Item %d", i), Price: i + 1},
			})
		}()
		go func() {
			defer wg.Done()
			_ = c.Snapshot(model.PlatformZepto)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, c.Len(model.PlatformZepto))
}

func TestCache_AppendEmptyIsNoop(t *testing.T) {
	c := NewCache()
	c.Append(model.PlatformBlinkit, nil)
	assert.Equal(t, 0, c.Len(model.PlatformBlinkit))
}
