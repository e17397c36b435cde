package ids_test

import (
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reyer3/Pulso-Back-sub001/internal/ids"
)

func TestNew_ParsesAsULID(t *testing.T) {
	id := ids.New()
	parsed, err := ulid.Parse(id)
	require.NoError(t, err)
	assert.NotZero(t, parsed.Time())
}

func TestNew_Unique(t *testing.T) {
	const n = 1000

	var mu sync.Mutex
	seen := make(map[string]bool, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := ids.New()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, n)
}
