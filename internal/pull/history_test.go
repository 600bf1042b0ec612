package pull

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewHistory(t *testing.T) {
	length := 5
	ttl := 10 * time.Minute

	history := NewHistory(length, ttl)

	assert.Equal(t, length, history.length, "length should match")
	assert.Equal(t, ttl, history.ttl, "ttl should match")
	assert.NotNil(t, history.seen, "seen map should be initialized")
	assert.Empty(t, history.seen, "seen map should be empty initially")
}

func TestHistory_RecordAndContains(t *testing.T) {
	history := NewHistory(2, 0)

	history.Record("rails/rails", 100)
	history.Record("rails/rails", 101)

	assert.True(t, history.Contains("rails/rails", 100))
	assert.True(t, history.Contains("rails/rails", 101))
	assert.False(t, history.Contains("rails/rails", 102))
	assert.False(t, history.Contains("other/repo", 100), "repositories are independent")

	// Third record evicts the oldest number
	history.Record("rails/rails", 102)

	assert.False(t, history.Contains("rails/rails", 100), "oldest number should be evicted")
	assert.True(t, history.Contains("rails/rails", 101))
	assert.True(t, history.Contains("rails/rails", 102))
}

func TestHistory_MultipleRepos(t *testing.T) {
	history := NewHistory(2, 0)

	history.Record("rails/rails", 1)
	history.Record("rails/rails", 2)
	history.Record("rails/rails", 3) // evicts 1
	history.Record("sinatra/sinatra", 1)

	assert.False(t, history.Contains("rails/rails", 1))
	assert.True(t, history.Contains("rails/rails", 2))
	assert.True(t, history.Contains("rails/rails", 3))
	assert.True(t, history.Contains("sinatra/sinatra", 1), "buffers are per repository")
}

func TestHistory_ConcurrentRecord(t *testing.T) {
	history := NewHistory(100, 0)
	iterations := 100

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(repo string) {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				history.Record(repo, j)
			}
		}(fmt.Sprintf("owner/repo-%d", i))
	}

	wg.Wait()

	for i := 0; i < 10; i++ {
		repo := fmt.Sprintf("owner/repo-%d", i)
		assert.True(t, history.Contains(repo, iterations-1), "last number should be present for %s", repo)
	}
}
