package numdb_test

import (
	"errors"
	"testing"

	"github.com/go-numdb/numdb"
	"github.com/go-numdb/numdb/container/hashtable"
)

func TestCacheInvokeCachesResult(t *testing.T) {
	container, err := hashtable.NewLRU[int, int](1 << 16)
	if err != nil {
		t.Fatalf("NewLRU: %v", err)
	}

	calls := 0
	c := numdb.New(func(k int) (int, error) {
		calls++
		return k * k, nil
	}, container)

	v, err := c.Invoke(4)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if v != 16 {
		t.Fatalf("expected 16, got %d", v)
	}
	if calls != 1 {
		t.Fatalf("expected one call to the user function, got %d", calls)
	}

	v, err = c.Invoke(4)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if v != 16 || calls != 1 {
		t.Fatalf("expected the second invoke to hit the cache without re-calling f, calls=%d", calls)
	}
}

func TestCacheInvokePropagatesUserFunctionError(t *testing.T) {
	container, err := hashtable.NewLRU[int, int](1 << 16)
	if err != nil {
		t.Fatalf("NewLRU: %v", err)
	}

	wantErr := errors.New("boom")
	c := numdb.New(func(k int) (int, error) {
		return 0, wantErr
	}, container)

	_, err = c.Invoke(1)
	if err == nil {
		t.Fatalf("expected an error from Invoke")
	}
	var ufe *numdb.UserFunctionError
	if !errors.As(err, &ufe) {
		t.Fatalf("expected a *UserFunctionError, got %T", err)
	}
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected errors.Is to unwrap to the original user error")
	}
	if container.Size() != 0 {
		t.Fatalf("expected nothing inserted on a failed invocation, size=%d", container.Size())
	}
}

func TestCacheEventCounterTracksRetrievalsAndMisses(t *testing.T) {
	container, err := hashtable.NewLRU[int, int](1 << 16)
	if err != nil {
		t.Fatalf("NewLRU: %v", err)
	}
	counter := &numdb.BasicCounter{}
	c := numdb.New(func(k int) (int, error) {
		return k, nil
	}, container, numdb.WithCounter[int, int, *hashtable.LeastUsed[int, int]](counter))

	c.Invoke(1)
	c.Invoke(1)
	c.Invoke(2)

	if got := c.EventCounter().Retrievals(); got != 3 {
		t.Fatalf("expected 3 retrievals, got %d", got)
	}
	if got := c.EventCounter().UserFuncInvocations(); got != 2 {
		t.Fatalf("expected 2 user-function invocations, got %d", got)
	}
}

func TestCacheDummyContainerNeverCaches(t *testing.T) {
	calls := 0
	c := numdb.New(func(k int) (int, error) {
		calls++
		return k, nil
	}, numdb.NewDummyContainer[int, int](0))

	c.Invoke(1)
	c.Invoke(1)
	if calls != 2 {
		t.Fatalf("expected every invoke to re-run f against a dummy container, got %d calls", calls)
	}
}
