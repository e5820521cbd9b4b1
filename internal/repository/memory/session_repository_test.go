package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"course-pr-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveGetDelete(t *testing.T) {
	repo := NewSessionRepository(0)
	sess := store.NewSession("conv1", "user1", "AUTO1001", "AUTO1001", "Intro", "normal")

	_, found := repo.Get(sess.Key())
	assert.False(t, found)

	repo.Save(sess)
	got, found := repo.Get(sess.Key())
	require.True(t, found)
	assert.Equal(t, store.StateIdle, got.State)
	assert.Equal(t, "AUTO1001", got.CourseCode)

	repo.Delete(sess.Key())
	_, found = repo.Get(sess.Key())
	assert.False(t, found)
}

func TestKeysAreIndependent(t *testing.T) {
	repo := NewSessionRepository(0)
	a := store.NewSession("conv1", "user1", "A", "A", "A", "normal")
	b := store.NewSession("conv1", "user2", "B", "B", "B", "normal")

	repo.Save(a)
	repo.Save(b)

	got, found := repo.Get(store.Key("conv1", "user2"))
	require.True(t, found)
	assert.Equal(t, "B", got.CourseCode)

	repo.Delete(a.Key())
	_, found = repo.Get(b.Key())
	assert.True(t, found)
}

func TestExpiry(t *testing.T) {
	repo := NewSessionRepository(20 * time.Millisecond)
	sess := store.NewSession("conv1", "user1", "A", "A", "A", "normal")
	repo.Save(sess)

	_, found := repo.Get(sess.Key())
	require.True(t, found)

	time.Sleep(40 * time.Millisecond)
	_, found = repo.Get(sess.Key())
	assert.False(t, found)
}

func TestLockSerializesPerKey(t *testing.T) {
	repo := NewSessionRepository(0)

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup

	// both goroutines contend on the same key; the critical sections must not
	// interleave
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			unlock := repo.Lock("conv1:user1")
			defer unlock()
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	require.Len(t, order, 4)
	assert.Equal(t, order[0], order[1])
	assert.Equal(t, order[2], order[3])
}

func TestLockReleasesMapEntry(t *testing.T) {
	repo := NewSessionRepository(0)

	for i := 0; i < 100; i++ {
		unlock := repo.Lock(fmt.Sprintf("conv%d:user%d", i, i))
		unlock()
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Empty(t, repo.locks)
}
