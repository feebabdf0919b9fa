package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"hotelier/internal/domain"
)

// replaceAttempts bounds the re-resolve loop when a conditional replace loses
// against a concurrent writer.
const replaceAttempts = 3

type HotelService struct {
	store    domain.HotelStore
	media    domain.MediaHost
	cache    domain.Cache
	pub      domain.EventPublisher
	cacheTTL time.Duration
}

func NewHotelService(store domain.HotelStore, media domain.MediaHost, cache domain.Cache, pub domain.EventPublisher, ttl time.Duration) *HotelService {
	return &HotelService{store: store, media: media, cache: cache, pub: pub, cacheTTL: ttl}
}

// Resolve locates a record by an identifier of unknown kind: primary key
// first, business key as fallback. A malformed primary key (not a UUID)
// funnels into the same fallback as "no row". Owner scope, when non-empty,
// applies to both steps. Returns the kind that matched so update paths can
// persist keyed on the same field.
func (s *HotelService) Resolve(ctx context.Context, ident, owner string) (domain.Hotel, domain.KeyKind, error) {
	if uuid.Validate(ident) == nil {
		h, err := s.store.FindByKey(ctx, domain.KeyPrimary, ident, owner)
		if err == nil {
			return h, domain.KeyPrimary, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Hotel{}, 0, err
		}
	}
	h, err := s.store.FindByKey(ctx, domain.KeyBusiness, ident, owner)
	if err != nil {
		return domain.Hotel{}, 0, err
	}
	return h, domain.KeyBusiness, nil
}

// Get is a cache-through read in front of Resolve.
func (s *HotelService) Get(ctx context.Context, ident, owner string) (domain.Hotel, error) {
	key := cacheKey(owner, ident)
	var h domain.Hotel
	if ok, _ := s.cache.Get(ctx, key, &h); ok {
		return h, nil
	}
	h, _, err := s.Resolve(ctx, ident, owner)
	if err != nil {
		return domain.Hotel{}, err
	}
	_ = s.cache.Set(ctx, key, h, int(s.cacheTTL.Seconds()))
	return h, nil
}

func (s *HotelService) List(ctx context.Context, owner string, limit int) ([]domain.Hotel, error) {
	return s.store.List(ctx, owner, limit)
}

// Create uploads all images (order preserved, all-or-nothing), assembles the
// record and inserts it. No partial record exists if any upload fails.
func (s *HotelService) Create(ctx context.Context, owner string, fields domain.Hotel, files []domain.ImageFile) (domain.Hotel, error) {
	urls, err := s.uploadAll(ctx, files)
	if err != nil {
		return domain.Hotel{}, err
	}

	now := time.Now().UTC()
	h := fields
	h.ID = uuid.NewString()
	h.OwnerID = owner
	h.Images = urls
	h.Version = 1
	h.CreatedAt = now
	h.UpdatedAt = now

	if err := s.store.Insert(ctx, h); err != nil {
		return domain.Hotel{}, err
	}
	s.publish(ctx, "created", h)
	return h, nil
}

// Update resolves the target owner-scoped, merges the patch onto the existing
// record, appends newly uploaded image URLs after the existing ones and
// persists with a conditional replace keyed on whichever identifier matched.
// Resolution runs before any upload, so an unknown identifier never orphans
// media on the host. Losing the replace against a concurrent writer
// re-resolves and re-merges; existing image references are never dropped.
func (s *HotelService) Update(ctx context.Context, ident, owner string, patch domain.Patch, files []domain.ImageFile) (domain.Hotel, error) {
	if _, _, err := s.Resolve(ctx, ident, owner); err != nil {
		return domain.Hotel{}, err
	}
	urls, err := s.uploadAll(ctx, files)
	if err != nil {
		return domain.Hotel{}, err
	}
	return s.replaceLoop(ctx, ident, owner, "updated", func(cur domain.Hotel) domain.Hotel {
		merged := cur
		patch.Apply(&merged)
		if len(urls) > 0 {
			merged.Images = append(append([]string(nil), cur.Images...), urls...)
		}
		return merged
	})
}

// AdjustPrice multiplies the nightly price by factor, rounded to cents.
func (s *HotelService) AdjustPrice(ctx context.Context, ident, owner string, factor float64) (domain.Hotel, error) {
	if factor <= 0 {
		return domain.Hotel{}, fmt.Errorf("factor must be positive, got %v", factor)
	}
	return s.replaceLoop(ctx, ident, owner, "repriced", func(cur domain.Hotel) domain.Hotel {
		merged := cur
		merged.PricePerNight = math.Round(cur.PricePerNight*factor*100) / 100
		return merged
	})
}

func (s *HotelService) replaceLoop(ctx context.Context, ident, owner, evKind string, merge func(domain.Hotel) domain.Hotel) (domain.Hotel, error) {
	for i := 0; i < replaceAttempts; i++ {
		cur, kind, err := s.Resolve(ctx, ident, owner)
		if err != nil {
			return domain.Hotel{}, err
		}

		merged := merge(cur)
		merged.UpdatedAt = time.Now().UTC()

		key := cur.ID
		if kind == domain.KeyBusiness {
			key = cur.HotelID
		}
		switch err := s.store.Replace(ctx, kind, key, owner, merged); {
		case err == nil:
			merged.Version = cur.Version + 1
			s.invalidate(ctx, cur, merged)
			s.publish(ctx, evKind, merged)
			return merged, nil
		case errors.Is(err, domain.ErrConflict):
			continue
		default:
			return domain.Hotel{}, err
		}
	}
	return domain.Hotel{}, domain.ErrConflict
}

// uploadAll fans the batch out concurrently and waits for every file; the
// first failure cancels the rest and fails the whole batch. Output order
// matches input order.
func (s *HotelService) uploadAll(ctx context.Context, files []domain.ImageFile) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	urls := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			u, err := s.media.Upload(gctx, f.Data, f.ContentType)
			if err != nil {
				return fmt.Errorf("upload image %d: %w", i, err)
			}
			urls[i] = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

// invalidate drops every cache entry that can address the record: both key
// spaces, scoped and unscoped.
func (s *HotelService) invalidate(ctx context.Context, before, after domain.Hotel) {
	if s.cache == nil {
		return
	}
	for _, owner := range []string{"", after.OwnerID} {
		for _, ident := range []string{after.ID, before.HotelID, after.HotelID} {
			_ = s.cache.Del(ctx, cacheKey(owner, ident))
		}
	}
}

func (s *HotelService) publish(ctx context.Context, kind string, h domain.Hotel) {
	if s.pub == nil {
		return
	}
	ev := domain.Event{Kind: kind, HotelID: h.ID, OwnerID: h.OwnerID, Version: h.Version}
	if err := s.pub.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("hotel", h.ID).Str("kind", kind).Msg("event publish failed")
	}
}

func cacheKey(owner, ident string) string {
	return fmt.Sprintf("hotel:%s:%s", owner, ident)
}
