package harvest

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OAIHealthCheck/internal/domain"
)

type fakeSource struct {
	records []domain.RawRecord
	failAt  int
	err     error
	pulled  int
}

func (f *fakeSource) ListRecords(_ context.Context, _ string) iter.Seq2[domain.RawRecord, error] {
	return func(yield func(domain.RawRecord, error) bool) {
		for i, r := range f.records {
			if f.err != nil && i == f.failAt {
				yield(domain.RawRecord{}, f.err)
				return
			}
			f.pulled++
			if !yield(r, nil) {
				return
			}
		}
	}
}

func records(n int) []domain.RawRecord {
	out := make([]domain.RawRecord, n)
	for i := range out {
		out[i] = domain.RawRecord{
			Identifier: fmt.Sprintf("oai:repo:%d", i+1),
			Datestamp:  "2024-01-01",
			Metadata: []domain.Field{
				{Name: domain.FieldTitle, Values: []domain.Value{domain.Some(fmt.Sprintf("Title %d", i+1))}},
			},
		}
	}
	return out
}

func TestFlatten(t *testing.T) {
	t.Parallel()

	rec := domain.RawRecord{
		Identifier: "oai:repo:1",
		Datestamp:  "2024-02-03T10:00:00Z",
		Metadata: []domain.Field{
			{Name: domain.FieldCreator, Values: []domain.Value{domain.Some("Doe, J."), domain.None(), domain.Some("Roe, R.")}},
			{Name: domain.FieldSubject, Values: []domain.Value{domain.None(), domain.None()}},
			{Name: domain.FieldDescription, Values: []domain.Value{domain.Some("")}},
			{Name: "identifier", Values: []domain.Value{domain.Some("http://hdl.handle.net/1/2")}},
		},
	}

	row := Flatten(rec)
	assert.Equal(t, "oai:repo:1", row.Identifier())
	assert.Equal(t, "Doe, J.; Roe, R.", row.Get(domain.FieldCreator).Or(""))
	assert.False(t, row.Has(domain.FieldSubject), "field without surviving values is omitted")
	assert.True(t, row.Has(domain.FieldDescription), "empty string is present")
	assert.False(t, row.Has(domain.FieldTitle), "absent field stays absent")
	assert.Equal(t, 3, row.Int(domain.ColCountCreators), "counts use the original sequence")
	assert.Equal(t, 2, row.Int(domain.ColCountSubjects))
	assert.Equal(t, "http://hdl.handle.net/1/2", row.Get("dc_identifier").Or(""))
}

func TestHarvestStopsAtLimit(t *testing.T) {
	t.Parallel()

	src := &fakeSource{records: records(50)}
	h := NewHarvester(src, nil)

	var calls [][2]int
	sample, err := h.Harvest(context.Background(), "http://repo/oai", 25, func(done, limit int) {
		calls = append(calls, [2]int{done, limit})
	})
	require.NoError(t, err)

	assert.Equal(t, 25, sample.Len())
	assert.Equal(t, 25, src.pulled, "no record is pulled past the limit")
	assert.Equal(t, "http://repo/oai", sample.Info.Endpoint)
	assert.Equal(t, 25, sample.Info.Limit)
	assert.Equal(t, []string{domain.ColIdentifier, domain.ColDatestamp, domain.FieldTitle, domain.ColCountCreators, domain.ColCountSubjects}, sample.Columns())

	require.Len(t, calls, 25, "limit 25 reports every record")
	assert.Equal(t, [2]int{25, 25}, calls[len(calls)-1])
}

func TestHarvestExhaustionIsNotAnError(t *testing.T) {
	t.Parallel()

	src := &fakeSource{records: records(7)}
	var last int
	sample, err := NewHarvester(src, nil).Harvest(context.Background(), "http://repo/oai", 2000, func(done, _ int) {
		last = done
	})
	require.NoError(t, err)
	assert.Equal(t, 7, sample.Len())
	assert.Equal(t, 7, last, "final progress is reported")
}

func TestHarvestProgressCadence(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, progressInterval(50))
	assert.Equal(t, 5, progressInterval(500))
	assert.Equal(t, 10, progressInterval(5000))
	assert.Equal(t, 10, progressInterval(100000))

	src := &fakeSource{records: records(500)}
	var calls int
	_, err := NewHarvester(src, nil).Harvest(context.Background(), "http://repo/oai", 500, func(int, int) { calls++ })
	require.NoError(t, err)
	assert.Equal(t, 100, calls)
}

func TestHarvestColumnUnion(t *testing.T) {
	t.Parallel()

	recs := []domain.RawRecord{
		{Identifier: "1", Metadata: []domain.Field{{Name: "title", Values: []domain.Value{domain.Some("a")}}}},
		{Identifier: "2", Metadata: []domain.Field{
			{Name: "rights", Values: []domain.Value{domain.None()}},
			{Name: "language", Values: []domain.Value{domain.Some("en")}},
		}},
		{Identifier: "3", Metadata: []domain.Field{{Name: "rights", Values: []domain.Value{domain.Some("cc")}}}},
	}
	sample, err := NewHarvester(&fakeSource{records: recs}, nil).Harvest(context.Background(), "e", 10, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"identifier", "datestamp", "title", "language", "rights", "count_creators", "count_subjects"}, sample.Columns())
	rows := sample.Rows()
	assert.False(t, rows[0].Has("language"))
	assert.False(t, rows[1].Has("rights"))
}

func TestHarvestFailsOutright(t *testing.T) {
	t.Parallel()

	src := &fakeSource{records: records(30), failAt: 12, err: errors.New("connection reset")}
	sample, err := NewHarvester(src, nil).Harvest(context.Background(), "http://repo/oai", 20, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.True(t, sample.Empty(), "partial progress is discarded")

	var te *domain.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "http://repo/oai", te.Endpoint)
}

func TestHarvestRejectsBadInput(t *testing.T) {
	t.Parallel()

	h := NewHarvester(&fakeSource{records: records(3)}, nil)

	_, err := h.Harvest(context.Background(), "http://repo/oai", 0, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidLimit)

	_, err = h.Harvest(context.Background(), "http://repo/oai", -5, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidLimit)

	_, err = h.Harvest(context.Background(), "", 10, nil)
	assert.ErrorIs(t, err, domain.ErrEmptyEndpoint)
}

func TestHarvestCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sample, err := NewHarvester(&fakeSource{records: records(3)}, nil).Harvest(ctx, "http://repo/oai", 10, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, sample.Empty())
}

func TestCheckConfirmation(t *testing.T) {
	t.Parallel()

	withID := &domain.RepositoryIdentity{RepositoryIdentifier: domain.Some("dspace.mit.edu")}
	withoutID := &domain.RepositoryIdentity{}

	assert.NoError(t, CheckConfirmation(ConfirmThreshold, nil, ""))
	assert.ErrorIs(t, CheckConfirmation(ConfirmThreshold+1, nil, "x"), domain.ErrIdentityRequired)
	assert.ErrorIs(t, CheckConfirmation(ConfirmThreshold+1, withoutID, "x"), domain.ErrConfirmationUnavailable)
	assert.ErrorIs(t, CheckConfirmation(ConfirmThreshold+1, withID, ""), domain.ErrConfirmationRequired)
	assert.ErrorIs(t, CheckConfirmation(ConfirmThreshold+1, withID, "DSPACE.MIT.EDU"), domain.ErrConfirmationMismatch)
	assert.ErrorIs(t, CheckConfirmation(ConfirmThreshold+1, withID, " dspace.mit.edu"), domain.ErrConfirmationMismatch)
	assert.NoError(t, CheckConfirmation(ConfirmThreshold+1, withID, "dspace.mit.edu"))
}

func TestCache(t *testing.T) {
	t.Parallel()

	c := NewCache()
	keyA := Key{Endpoint: "a", Limit: 10}
	keyB := Key{Endpoint: "a", Limit: 20}
	sampleA := domain.NewSample(domain.SampleInfo{Endpoint: "a", Limit: 10}, nil, nil)

	var runs atomic.Int32
	fn := func(context.Context) (domain.Sample, error) {
		runs.Add(1)
		return sampleA, nil
	}

	_, cached, err := c.Do(context.Background(), keyA, fn)
	require.NoError(t, err)
	assert.False(t, cached)

	_, cached, err = c.Do(context.Background(), keyA, fn)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, int32(1), runs.Load())

	_, _, err = c.Do(context.Background(), keyB, func(context.Context) (domain.Sample, error) {
		return domain.Sample{}, errors.New("boom")
	})
	require.Error(t, err)
	_, ok := c.Get(keyA)
	assert.True(t, ok, "failures do not evict the stored sample")

	_, _, err = c.Do(context.Background(), keyB, fn)
	require.NoError(t, err)
	_, ok = c.Get(keyA)
	assert.False(t, ok, "a new key replaces the slot")

	c.Invalidate()
	_, ok = c.Current()
	assert.False(t, ok)
}

func (c *Cache) waiters(key Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.flights[key]; ok {
		return f.waiters
	}
	return 0
}

func TestCacheSharedHarvestOutlivesOneCaller(t *testing.T) {
	t.Parallel()

	c := NewCache()
	key := Key{Endpoint: "a", Limit: 10}
	want := domain.NewSample(domain.SampleInfo{Endpoint: "a", Limit: 10}, nil, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	var runs atomic.Int32
	fn := func(ctx context.Context) (domain.Sample, error) {
		runs.Add(1)
		close(started)
		select {
		case <-release:
			return want, nil
		case <-ctx.Done():
			return domain.Sample{}, ctx.Err()
		}
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, _, err := c.Do(ctxA, key, fn)
		errA <- err
	}()
	<-started

	type result struct {
		sample domain.Sample
		err    error
	}
	resB := make(chan result, 1)
	go func() {
		s, _, err := c.Do(context.Background(), key, fn)
		resB <- result{s, err}
	}()
	require.Eventually(t, func() bool { return c.waiters(key) == 2 }, time.Second, time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(release)
	got := <-resB
	require.NoError(t, got.err)
	assert.Equal(t, want, got.sample)
	assert.Equal(t, int32(1), runs.Load())

	_, ok := c.Get(key)
	assert.True(t, ok)
}

func TestCacheLastCallerCancelsHarvest(t *testing.T) {
	t.Parallel()

	c := NewCache()
	key := Key{Endpoint: "a", Limit: 10}

	started := make(chan struct{})
	stopped := make(chan error, 1)
	fn := func(ctx context.Context) (domain.Sample, error) {
		close(started)
		<-ctx.Done()
		stopped <- ctx.Err()
		return domain.Sample{}, ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, _, err := c.Do(ctx, key, fn)
		errc <- err
	}()
	<-started
	cancel()

	assert.ErrorIs(t, <-errc, context.Canceled)
	assert.ErrorIs(t, <-stopped, context.Canceled)
	assert.Equal(t, 0, c.waiters(key))
}
