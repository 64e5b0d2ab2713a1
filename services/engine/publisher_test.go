package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webtor-io/whattowatch/models"
)

func TestPublisher_CoalescesForSlowSubscriber(t *testing.T) {
	p := newPublisher(models.NewAppState())
	ch, cancel := p.subscribe()
	defer cancel()

	for i := 0; i < 5; i++ {
		p.update(func(st *models.AppState) {
			st.SearchQuery = "q"
		})
	}
	st := <-ch
	assert.Equal(t, uint64(5), st.Version)
	select {
	case <-ch:
		t.Fatal("unexpected snapshot")
	default:
	}
}

func TestPublisher_CancelIsIdempotent(t *testing.T) {
	p := newPublisher(models.NewAppState())
	_, cancel := p.subscribe()
	assert.Equal(t, 1, p.subscribers())
	cancel()
	cancel()
	assert.Equal(t, 0, p.subscribers())
	p.update(func(st *models.AppState) {})
}

func TestPublisher_ConcurrentUpdatesAreTotallyOrdered(t *testing.T) {
	p := newPublisher(models.NewAppState())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p.update(func(st *models.AppState) {
				st.Liked = append([]models.StoredMovie{}, st.Liked...)
				st.Liked = append(st.Liked, models.StoredMovie{ID: i})
			})
		}(i)
	}
	wg.Wait()
	st := p.current()
	assert.Equal(t, uint64(50), st.Version)
	assert.Len(t, st.Liked, 50)
}

func TestPublisher_SubscribeAfterClose(t *testing.T) {
	p := newPublisher(models.NewAppState())
	p.close()
	ch, cancel := p.subscribe()
	_, ok := <-ch
	require.False(t, ok)
	cancel()
}

func TestKeyedLocker(t *testing.T) {
	l := newKeyedLocker()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock(42)
			counter++
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, counter)
	assert.Equal(t, 0, l.size())

	unlockA := l.Lock(1)
	unlockB := l.Lock(2)
	assert.Equal(t, 2, l.size())
	unlockA()
	unlockB()
	assert.Equal(t, 0, l.size())
}
