package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/drfirst/go-soap/internal/soapnote"
)

func TestStore_CreateAndDo(t *testing.T) {
	st := NewStore(zap.NewNop())

	view, err := st.Create(testNote, testLogs)
	require.NoError(t, err)
	assert.NotEmpty(t, view.ID)
	assert.Len(t, view.Problems, 2)
	assert.Equal(t, 1, st.Len())

	err = st.Do(view.ID, func(s *Session) error {
		return s.Stage(KindMedication, "Augmentin", soapnote.SectionCurrentManagement)
	})
	require.NoError(t, err)

	err = st.Do(view.ID, func(s *Session) error {
		assert.Len(t, s.Medications(), 1)
		return nil
	})
	require.NoError(t, err)
}

func TestStore_MissingInputIsNotStored(t *testing.T) {
	st := NewStore(nil)

	_, err := st.Create("", nil)
	assert.ErrorIs(t, err, ErrMissingInput)
	assert.Equal(t, 0, st.Len())
}

func TestStore_UnknownSession(t *testing.T) {
	st := NewStore(nil)

	err := st.Do("missing", func(*Session) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.False(t, st.Delete("missing"))
}

func TestStore_DeleteReportsSize(t *testing.T) {
	st := NewStore(nil)
	var sizes []int
	st.OnSizeChange(func(n int) { sizes = append(sizes, n) })

	a, err := st.Create(testNote, nil)
	require.NoError(t, err)
	_, err = st.Create(testNote, nil)
	require.NoError(t, err)

	assert.True(t, st.Delete(a.ID))
	assert.Equal(t, []int{1, 2, 1}, sizes)
}

func TestStore_SweepDropsIdleSessions(t *testing.T) {
	st := NewStore(nil)
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }

	idle, err := st.Create(testNote, nil)
	require.NoError(t, err)
	now = now.Add(90 * time.Minute)
	active, err := st.Create(testNote, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, st.Sweep(time.Hour))
	assert.ErrorIs(t, st.Do(idle.ID, func(*Session) error { return nil }), ErrSessionNotFound)
	assert.NoError(t, st.Do(active.ID, func(*Session) error { return nil }))
}

func TestStore_SerializesOperationsPerSession(t *testing.T) {
	st := NewStore(nil)
	view, err := st.Create(testNote, testLogs)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = st.Do(view.ID, func(s *Session) error {
				if err := s.Stage(KindMedication, "Zosyn", soapnote.SectionConsult); err != nil {
					return err
				}
				return s.Unstage(KindMedication, "Zosyn", soapnote.SectionConsult)
			})
		}()
	}
	wg.Wait()

	err = st.Do(view.ID, func(s *Session) error {
		assert.Equal(t, view.Medications, s.Medications())
		assert.Empty(t, s.Staged())
		return nil
	})
	require.NoError(t, err)
}

func TestStore_RunSweeperStopsOnCancel(t *testing.T) {
	st := NewStore(nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		st.RunSweeper(ctx, time.Millisecond, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
