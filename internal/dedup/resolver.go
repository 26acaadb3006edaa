package dedup

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/scout-cli/internal/model"
	"github.com/sells-group/scout-cli/internal/store"
)

// mergeConfidence is recorded on every merge log entry. Identity matches
// are exact (normalized email, phone, or external id), so the value is a
// constant rather than a computed similarity.
const mergeConfidence = 95

// Resolver finds and absorbs duplicate prospects within a tenant.
// Identity matching checks email, then phone, then external id, and stops
// at the first field that is both populated and matched.
type Resolver struct {
	store store.Store
	log   *zap.Logger

	mu    sync.Mutex
	locks map[string]*identityLock
}

// identityLock is reference-counted so entries leave the map once the last
// holder or waiter releases; a long-lived server does not accrue one entry
// per identity ever seen.
type identityLock struct {
	mu   sync.Mutex
	refs int
}

func NewResolver(st store.Store) *Resolver {
	return &Resolver{
		store: st,
		log:   zap.L().Named("dedup"),
		locks: make(map[string]*identityLock),
	}
}

// identityKeys returns the lock keys for a record's populated identity
// fields, tenant-scoped and sorted so concurrent resolvers always acquire
// them in the same order.
func identityKeys(tenantID string, p *model.NormalizedProspect) []string {
	var keys []string
	if p.Email != "" {
		keys = append(keys, tenantID+"|email|"+p.Email)
	}
	if p.Phone != "" {
		keys = append(keys, tenantID+"|phone|"+p.Phone)
	}
	if p.ExternalID != "" {
		keys = append(keys, tenantID+"|ext|"+p.ExternalID)
	}
	sort.Strings(keys)
	return keys
}

func (r *Resolver) lockIdentities(keys []string) func() {
	var held []*identityLock
	for _, k := range keys {
		r.mu.Lock()
		l, ok := r.locks[k]
		if !ok {
			l = &identityLock{}
			r.locks[k] = l
		}
		l.refs++
		r.mu.Unlock()
		l.mu.Lock()
		held = append(held, l)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			// Unlock before dropping the ref so a new arrival either finds
			// this entry (refs > 0) or a fresh one after deletion, never a
			// second mutex for a still-held key.
			held[i].mu.Unlock()
			r.mu.Lock()
			held[i].refs--
			if held[i].refs == 0 {
				delete(r.locks, keys[i])
			}
			r.mu.Unlock()
		}
	}
}

// FindDuplicates returns existing prospects that share an identity field
// with the record. Fields are checked in fixed order (email, phone,
// external id) and the first populated field that yields matches wins;
// later fields are not consulted.
func (r *Resolver) FindDuplicates(ctx context.Context, tenantID string, p *model.NormalizedProspect) ([]model.Prospect, error) {
	type lookup struct {
		value string
		find  func(context.Context, string, string) ([]model.Prospect, error)
	}
	lookups := []lookup{
		{p.Email, r.store.FindProspectsByEmail},
		{p.Phone, r.store.FindProspectsByPhone},
		{p.ExternalID, r.store.FindProspectsByExternalID},
	}
	for _, l := range lookups {
		if l.value == "" {
			continue
		}
		matches, err := l.find(ctx, tenantID, l.value)
		if err != nil {
			return nil, eris.Wrap(err, "find duplicates")
		}
		if len(matches) > 0 {
			return matches, nil
		}
	}
	return nil, nil
}

// Merge folds the incoming record into the master prospect in place.
// Scalars fill only when the master's value is empty, list fields union
// with the master's order preserved, and past interactions concatenate
// without dedup so repeated contact stays visible.
func Merge(master *model.Prospect, incoming *model.NormalizedProspect) {
	fillString(&master.Name, incoming.Name)
	fillString(&master.Email, incoming.Email)
	fillString(&master.Phone, incoming.Phone)
	fillString(&master.ExternalID, incoming.ExternalID)
	fillString(&master.Location, incoming.Location)
	fillString(&master.Occupation, incoming.Occupation)
	fillString(&master.Channel, incoming.Channel)

	if master.Budget == 0 {
		master.Budget = incoming.Budget
	}
	if master.BuyingCapacity == "" {
		master.BuyingCapacity = incoming.BuyingCapacity
	}
	if master.BuyingTimeline == "" || master.BuyingTimeline == model.TimelineUnknown {
		if incoming.BuyingTimeline != "" {
			master.BuyingTimeline = incoming.BuyingTimeline
		}
	}

	master.InterestTags = model.UnionStrings(master.InterestTags, incoming.InterestTags)
	master.ProductInterest = model.UnionStrings(master.ProductInterest, incoming.ProductInterest)
	master.ObjectionTypes = model.UnionStrings(master.ObjectionTypes, incoming.ObjectionTypes)

	master.PastInteractions = append(master.PastInteractions, incoming.PastInteractions...)

	if master.Extra == nil && len(incoming.Extra) > 0 {
		master.Extra = make(map[string]any, len(incoming.Extra))
	}
	for k, v := range incoming.Extra {
		if _, exists := master.Extra[k]; !exists {
			master.Extra[k] = v
		}
	}

	master.QualityScore = master.ComputeQualityScore()
}

func fillString(dst *string, src string) {
	if *dst == "" {
		*dst = src
	}
}

// absorb merges a duplicate prospect row into the master, writes a merge
// log entry, and hard-deletes the duplicate.
func (r *Resolver) absorb(ctx context.Context, master, dup *model.Prospect) error {
	Merge(master, &dup.NormalizedProspect)

	if err := r.store.UpdateProspect(ctx, master); err != nil {
		return eris.Wrapf(err, "update master %s", master.ID)
	}
	entry := &model.MergeLogEntry{
		TenantID:         master.TenantID,
		MasterID:         master.ID,
		AbsorbedID:       dup.ID,
		Confidence:       mergeConfidence,
		AbsorbedSnapshot: dup,
	}
	if err := r.store.CreateMergeLog(ctx, entry); err != nil {
		return eris.Wrap(err, "create merge log")
	}
	if err := r.store.DeleteProspect(ctx, master.TenantID, dup.ID); err != nil {
		return eris.Wrapf(err, "delete absorbed %s", dup.ID)
	}
	r.log.Info("absorbed duplicate prospect",
		zap.String("tenant_id", master.TenantID),
		zap.String("master_id", master.ID),
		zap.String("absorbed_id", dup.ID))
	return nil
}

// ResolveOrInsert returns the prospect that now owns the record: either an
// existing match with the record merged in, or a freshly inserted row.
// Identity locks serialize resolvers racing on the same email, phone, or
// external id; a unique violation from a racing process is retried as a
// lookup.
func (r *Resolver) ResolveOrInsert(ctx context.Context, tenantID string, rec *model.NormalizedProspect) (*model.Prospect, bool, error) {
	unlock := r.lockIdentities(identityKeys(tenantID, rec))
	defer unlock()

	const maxAttempts = 3
	for attempt := 0; attempt < maxAttempts; attempt++ {
		matches, err := r.FindDuplicates(ctx, tenantID, rec)
		if err != nil {
			return nil, false, err
		}

		if len(matches) > 0 {
			master := &matches[0]
			Merge(master, rec)
			// Extra matches beyond the first are prior duplicates of each
			// other; absorb them into the same master.
			for i := 1; i < len(matches); i++ {
				if err := r.absorb(ctx, master, &matches[i]); err != nil {
					return nil, false, err
				}
			}
			if err := r.store.UpdateProspect(ctx, master); err != nil {
				return nil, false, eris.Wrapf(err, "update master %s", master.ID)
			}
			return master, true, nil
		}

		p := &model.Prospect{TenantID: tenantID, NormalizedProspect: *rec}
		p.QualityScore = p.ComputeQualityScore()
		err = r.store.InsertProspect(ctx, p)
		if err == nil {
			return p, false, nil
		}
		if errors.Is(err, store.ErrUniqueViolation) {
			r.log.Debug("insert raced with concurrent writer, retrying lookup",
				zap.String("tenant_id", tenantID), zap.Int("attempt", attempt+1))
			continue
		}
		return nil, false, eris.Wrap(err, "insert prospect")
	}
	return nil, false, eris.New("dedup: insert kept colliding after retries")
}
