package dedup

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/scout-cli/internal/model"
	"github.com/sells-group/scout-cli/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "dedup.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestMerge_FillsEmptyScalarsOnly(t *testing.T) {
	master := &model.Prospect{TenantID: "t1"}
	master.Name = "Maria Santos"
	master.Email = "maria@example.com"
	master.Budget = 3000

	incoming := &model.NormalizedProspect{
		Name:     "M. Santos",
		Phone:    "+639171234567",
		Location: "Cebu",
		Budget:   9000,
	}
	Merge(master, incoming)

	assert.Equal(t, "Maria Santos", master.Name, "populated scalar must not be overwritten")
	assert.Equal(t, "maria@example.com", master.Email)
	assert.Equal(t, "+639171234567", master.Phone)
	assert.Equal(t, "Cebu", master.Location)
	assert.Equal(t, float64(3000), master.Budget)
}

func TestMerge_UnionsListsAndConcatsInteractions(t *testing.T) {
	master := &model.Prospect{TenantID: "t1"}
	master.InterestTags = []string{"price_inquiry", "strong_interest"}
	master.PastInteractions = []model.Interaction{{Content: "first touch"}}

	incoming := &model.NormalizedProspect{
		InterestTags:     []string{"strong_interest", "proof_seeking"},
		PastInteractions: []model.Interaction{{Content: "first touch"}, {Content: "followup"}},
	}
	Merge(master, incoming)

	assert.Equal(t, []string{"price_inquiry", "strong_interest", "proof_seeking"}, master.InterestTags)
	// Interactions concatenate without dedup.
	assert.Len(t, master.PastInteractions, 3)
}

func TestMerge_ExtraFillsAbsentKeysAndRecomputesQuality(t *testing.T) {
	master := &model.Prospect{TenantID: "t1"}
	master.Extra = map[string]any{"referrer": "fb_group"}

	incoming := &model.NormalizedProspect{
		Email: "ana@example.com",
		Extra: map[string]any{"referrer": "tiktok", "campaign": "aug"},
	}
	Merge(master, incoming)

	assert.Equal(t, "fb_group", master.Extra["referrer"])
	assert.Equal(t, "aug", master.Extra["campaign"])
	assert.Equal(t, 20, master.QualityScore)
}

func TestMerge_TimelineUnknownIsReplaceable(t *testing.T) {
	master := &model.Prospect{TenantID: "t1"}
	master.BuyingTimeline = model.TimelineUnknown

	Merge(master, &model.NormalizedProspect{BuyingTimeline: model.TimelineWeek})
	assert.Equal(t, model.TimelineWeek, master.BuyingTimeline)

	Merge(master, &model.NormalizedProspect{BuyingTimeline: model.TimelineQuarter})
	assert.Equal(t, model.TimelineWeek, master.BuyingTimeline, "concrete timeline must stick")
}

func TestIdentityKeys_SortedAndTenantScoped(t *testing.T) {
	rec := &model.NormalizedProspect{
		Email:      "zoe@example.com",
		Phone:      "+639170000001",
		ExternalID: "fb-77",
	}
	keys := identityKeys("t1", rec)
	assert.Equal(t, []string{
		"t1|email|zoe@example.com",
		"t1|ext|fb-77",
		"t1|phone|+639170000001",
	}, keys)

	assert.Empty(t, identityKeys("t1", &model.NormalizedProspect{Name: "no identity"}))
}

func TestFindDuplicates_EmailShortCircuitsPhone(t *testing.T) {
	st := newTestStore(t)
	r := NewResolver(st)
	ctx := context.Background()

	byEmail := &model.Prospect{TenantID: "t1"}
	byEmail.Email = "dup@example.com"
	require.NoError(t, st.InsertProspect(ctx, byEmail))

	byPhone := &model.Prospect{TenantID: "t1"}
	byPhone.Phone = "+639175550000"
	require.NoError(t, st.InsertProspect(ctx, byPhone))

	matches, err := r.FindDuplicates(ctx, "t1", &model.NormalizedProspect{
		Email: "dup@example.com",
		Phone: "+639175550000",
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, byEmail.ID, matches[0].ID)
}

func TestFindDuplicates_FallsThroughToExternalID(t *testing.T) {
	st := newTestStore(t)
	r := NewResolver(st)
	ctx := context.Background()

	existing := &model.Prospect{TenantID: "t1"}
	existing.ExternalID = "ig-123"
	require.NoError(t, st.InsertProspect(ctx, existing))

	matches, err := r.FindDuplicates(ctx, "t1", &model.NormalizedProspect{
		Email:      "fresh@example.com",
		ExternalID: "ig-123",
	})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, existing.ID, matches[0].ID)
}

func TestResolveOrInsert_InsertsNewProspect(t *testing.T) {
	st := newTestStore(t)
	r := NewResolver(st)
	ctx := context.Background()

	rec := &model.NormalizedProspect{Name: "Juan", Email: "juan@example.com"}
	p, merged, err := r.ResolveOrInsert(ctx, "t1", rec)
	require.NoError(t, err)
	assert.False(t, merged)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, 35, p.QualityScore)

	got, err := st.GetProspect(ctx, "t1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, "juan@example.com", got.Email)
}

func TestResolveOrInsert_MergesIntoExisting(t *testing.T) {
	st := newTestStore(t)
	r := NewResolver(st)
	ctx := context.Background()

	first := &model.NormalizedProspect{Name: "Juan", Email: "juan@example.com"}
	p1, merged, err := r.ResolveOrInsert(ctx, "t1", first)
	require.NoError(t, err)
	require.False(t, merged)

	second := &model.NormalizedProspect{
		Email:        "juan@example.com",
		Phone:        "+639175551234",
		InterestTags: []string{"price_inquiry"},
	}
	p2, merged, err := r.ResolveOrInsert(ctx, "t1", second)
	require.NoError(t, err)
	assert.True(t, merged)
	assert.Equal(t, p1.ID, p2.ID)
	assert.Equal(t, "+639175551234", p2.Phone)

	got, err := st.GetProspect(ctx, "t1", p1.ID)
	require.NoError(t, err)
	assert.Equal(t, "+639175551234", got.Phone)
	assert.Equal(t, []string{"price_inquiry"}, got.InterestTags)
}

func TestResolveOrInsert_AbsorbsSecondaryDuplicates(t *testing.T) {
	st := newTestStore(t)
	r := NewResolver(st)
	ctx := context.Background()

	// External ids are not unique-indexed, so two rows can share one.
	master := &model.Prospect{TenantID: "t1"}
	master.ExternalID = "fb-500"
	master.Name = "Ana"
	require.NoError(t, st.InsertProspect(ctx, master))

	dup := &model.Prospect{TenantID: "t1"}
	dup.ExternalID = "fb-500"
	dup.Location = "Davao"
	require.NoError(t, st.InsertProspect(ctx, dup))

	p, merged, err := r.ResolveOrInsert(ctx, "t1", &model.NormalizedProspect{ExternalID: "fb-500"})
	require.NoError(t, err)
	assert.True(t, merged)
	assert.Equal(t, "Ana", p.Name)
	assert.Equal(t, "Davao", p.Location, "absorbed row's fields fold into master")

	// One of the two rows was absorbed and deleted; the survivor is p.
	absorbed := dup.ID
	if p.ID == dup.ID {
		absorbed = master.ID
	}
	_, err = st.GetProspect(ctx, "t1", absorbed)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestResolveOrInsert_TenantsDoNotCollide(t *testing.T) {
	st := newTestStore(t)
	r := NewResolver(st)
	ctx := context.Background()

	rec := &model.NormalizedProspect{Email: "shared@example.com"}
	p1, _, err := r.ResolveOrInsert(ctx, "t1", rec)
	require.NoError(t, err)
	p2, merged, err := r.ResolveOrInsert(ctx, "t2", &model.NormalizedProspect{Email: "shared@example.com"})
	require.NoError(t, err)
	assert.False(t, merged)
	assert.NotEqual(t, p1.ID, p2.ID)
}

func TestIdentityLocks_ReleasedEntriesLeaveTheMap(t *testing.T) {
	st := newTestStore(t)
	r := NewResolver(st)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := &model.NormalizedProspect{
			Name:  "Ana",
			Email: fmt.Sprintf("ana%d@example.com", i),
			Phone: fmt.Sprintf("+63917000000%d", i),
		}
		_, _, err := r.ResolveOrInsert(ctx, "t1", rec)
		require.NoError(t, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Empty(t, r.locks, "identity locks must not outlive their critical sections")
}

func TestIdentityLocks_ConcurrentHoldersShareOneEntry(t *testing.T) {
	st := newTestStore(t)
	r := NewResolver(st)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < len(errs); i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := &model.NormalizedProspect{Name: "Juan", Email: "juan@example.com"}
			_, _, err := r.ResolveOrInsert(ctx, "t1", rec)
			errs[i] = err
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, "resolver %d", i)
	}

	matches, err := st.FindProspectsByEmail(ctx, "t1", "juan@example.com")
	require.NoError(t, err)
	assert.Len(t, matches, 1, "serialized resolvers must converge on one row")

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Empty(t, r.locks)
}
