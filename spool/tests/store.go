package tests

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/code-payments/moderation-gateway/spool"
)

func RunStoreTests(t *testing.T, s spool.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s spool.Store){
		testPutAndOpen,
		testUniqueNames,
		testReleaseRemovesData,
		testReleaseIsIdempotent,
		testPutCopiesData,
		testPutCanceledContext,
		testConcurrentPuts,
	} {
		tf(t, s)
		teardown()
	}
}

func readAll(t *testing.T, a spool.Artifact) []byte {
	r, err := a.Open()
	require.NoError(t, err, "Open should not return an error")
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err, "Reading the artifact should not return an error")
	return data
}

func testPutAndOpen(t *testing.T, s spool.Store) {
	ctx := context.Background()

	data := []byte("imageData")
	a, err := s.Put(ctx, ".jpg", data)
	require.NoError(t, err, "Put should not return an error")
	defer a.Release()

	require.Contains(t, a.Name(), ".jpg")
	require.Equal(t, data, readAll(t, a), "Stored data should match")

	// Readers are independent
	require.Equal(t, data, readAll(t, a), "Second read should match")
}

func testUniqueNames(t *testing.T, s spool.Store) {
	ctx := context.Background()

	a1, err := s.Put(ctx, ".jpg", []byte("same"))
	require.NoError(t, err)
	defer a1.Release()

	a2, err := s.Put(ctx, ".jpg", []byte("same"))
	require.NoError(t, err)
	defer a2.Release()

	require.NotEqual(t, a1.Name(), a2.Name(), "Artifacts should have distinct names")
}

func testReleaseRemovesData(t *testing.T, s spool.Store) {
	ctx := context.Background()

	a, err := s.Put(ctx, ".png", []byte("data"))
	require.NoError(t, err)

	require.NoError(t, a.Release(), "Release should not return an error")

	r, err := a.Open()
	require.ErrorIs(t, err, spool.ErrNotFound, "Open after release should fail")
	require.Nil(t, r)
}

func testReleaseIsIdempotent(t *testing.T, s spool.Store) {
	ctx := context.Background()

	a, err := s.Put(ctx, "", []byte("data"))
	require.NoError(t, err)

	require.NoError(t, a.Release())
	require.NoError(t, a.Release(), "Second release should not return an error")
}

func testPutCopiesData(t *testing.T, s spool.Store) {
	ctx := context.Background()

	data := []byte("original")
	a, err := s.Put(ctx, ".jpg", data)
	require.NoError(t, err)
	defer a.Release()

	copy(data, "mutated!")
	require.Equal(t, []byte("original"), readAll(t, a), "Artifact should not share the caller's buffer")
}

func testPutCanceledContext(t *testing.T, s spool.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a, err := s.Put(ctx, ".jpg", []byte("data"))
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, a)
}

func testConcurrentPuts(t *testing.T, s spool.Store) {
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			payload := []byte{byte(i), byte(i), byte(i)}
			a, err := s.Put(ctx, ".jpg", payload)
			if err != nil {
				errs <- err
				return
			}
			defer a.Release()

			r, err := a.Open()
			if err != nil {
				errs <- err
				return
			}
			defer r.Close()

			got, err := io.ReadAll(r)
			if err != nil {
				errs <- err
				return
			}
			if string(got) != string(payload) {
				errs <- io.ErrUnexpectedEOF
			}
		}(i)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err, "Concurrent artifacts should not observe each other's data")
	}
}
