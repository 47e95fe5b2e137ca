package views

import (
	"context"
	"testing"
	"time"

	"github.com/rafaelGuerreiro/ikaria/internal/characters"
	"github.com/rafaelGuerreiro/ikaria/internal/eventbus"
	"github.com/rafaelGuerreiro/ikaria/internal/mapstore"
	"github.com/rafaelGuerreiro/ikaria/internal/validate"
	"github.com/rafaelGuerreiro/ikaria/internal/worldsim"
)

type charRepo struct {
	nextID uint64
	byID   map[uint64]*characters.Character
	byName map[string]uint64
}

func newCharRepo() *charRepo {
	return &charRepo{byID: map[uint64]*characters.Character{}, byName: map[string]uint64{}}
}

func (r *charRepo) InsertUnique(ctx context.Context, c *characters.Character) error {
	if _, taken := r.byName[c.Name]; taken {
		return &characters.ErrNameTaken{Name: c.Name}
	}
	r.nextID++
	c.CharacterID = r.nextID
	cp := *c
	r.byID[c.CharacterID] = &cp
	r.byName[c.Name] = c.CharacterID
	return nil
}

func (r *charRepo) GetByID(ctx context.Context, id uint64) (*characters.Character, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *charRepo) GetAllByUserID(ctx context.Context, userID validate.Identity) ([]*characters.Character, error) {
	var out []*characters.Character
	for _, c := range r.byID {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

type statsRepo struct{ byID map[uint64]*characters.Stats }

func newStatsRepo() *statsRepo { return &statsRepo{byID: map[uint64]*characters.Stats{}} }

func (r *statsRepo) InsertDefaults(ctx context.Context, s *characters.Stats) error {
	cp := *s
	r.byID[s.CharacterID] = &cp
	return nil
}

func (r *statsRepo) GetByCharacterID(ctx context.Context, id uint64) (*characters.Stats, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *statsRepo) GetAllByUserID(ctx context.Context, userID validate.Identity) ([]*characters.Stats, error) {
	var out []*characters.Stats
	for _, s := range r.byID {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

type onlineRepo struct{ byUser map[validate.Identity]*characters.Online }

func newOnlineRepo() *onlineRepo { return &onlineRepo{byUser: map[validate.Identity]*characters.Online{}} }

func (r *onlineRepo) Upsert(ctx context.Context, userID validate.Identity, characterID uint64, signedInAt time.Time) error {
	r.byUser[userID] = &characters.Online{UserID: userID, CharacterID: characterID, SignedInAt: signedInAt}
	return nil
}

func (r *onlineRepo) Get(ctx context.Context, userID validate.Identity) (*characters.Online, error) {
	o, ok := r.byUser[userID]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *onlineRepo) Delete(ctx context.Context, userID validate.Identity) error {
	delete(r.byUser, userID)
	return nil
}

type noopHandler struct{}

func (noopHandler) Handle(ctx context.Context, now time.Time, ev eventbus.Event) error { return nil }

type positionRepo struct {
	online  map[uint64]worldsim.Position
	offline map[uint64]worldsim.Position
}

func newPositionRepo() *positionRepo {
	return &positionRepo{online: map[uint64]worldsim.Position{}, offline: map[uint64]worldsim.Position{}}
}

func (r *positionRepo) GetOnline(ctx context.Context, id uint64) (*worldsim.Position, error) {
	p, ok := r.online[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *positionRepo) GetOffline(ctx context.Context, id uint64) (*worldsim.Position, error) {
	p, ok := r.offline[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *positionRepo) UpsertOnline(ctx context.Context, p worldsim.Position) error {
	r.online[p.CharacterID] = p
	return nil
}

func (r *positionRepo) UpsertOffline(ctx context.Context, p worldsim.Position) error {
	r.offline[p.CharacterID] = p
	return nil
}

func (r *positionRepo) DeleteOnline(ctx context.Context, id uint64) error {
	delete(r.online, id)
	return nil
}

func (r *positionRepo) DeleteOffline(ctx context.Context, id uint64) error {
	delete(r.offline, id)
	return nil
}

type occupancyRepo struct{ byMapID map[uint64]worldsim.OccupiedTile }

func newOccupancyRepo() *occupancyRepo { return &occupancyRepo{byMapID: map[uint64]worldsim.OccupiedTile{}} }

func (r *occupancyRepo) Get(ctx context.Context, mapID uint64) (*worldsim.OccupiedTile, error) {
	t, ok := r.byMapID[mapID]
	if !ok {
		return nil, nil
	}
	cp := t
	cp.CharacterIDs = append([]uint64(nil), t.CharacterIDs...)
	return &cp, nil
}

func (r *occupancyRepo) Upsert(ctx context.Context, tile worldsim.OccupiedTile) error {
	r.byMapID[tile.MapID] = tile
	return nil
}

func (r *occupancyRepo) Delete(ctx context.Context, mapID uint64) error {
	delete(r.byMapID, mapID)
	return nil
}

type cooldownRepo struct{ byID map[uint64]worldsim.Cooldown }

func newCooldownRepo() *cooldownRepo { return &cooldownRepo{byID: map[uint64]worldsim.Cooldown{}} }

func (r *cooldownRepo) Get(ctx context.Context, id uint64) (*worldsim.Cooldown, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *cooldownRepo) Upsert(ctx context.Context, c worldsim.Cooldown) error {
	r.byID[c.CharacterID] = c
	return nil
}

func (r *cooldownRepo) Delete(ctx context.Context, id uint64) error {
	delete(r.byID, id)
	return nil
}

type intentionRepo struct{ byID map[uint64]worldsim.Intention }

func newIntentionRepo() *intentionRepo { return &intentionRepo{byID: map[uint64]worldsim.Intention{}} }

func (r *intentionRepo) Upsert(ctx context.Context, i worldsim.Intention) error {
	r.byID[i.CharacterID] = i
	return nil
}

func (r *intentionRepo) Get(ctx context.Context, id uint64) (*worldsim.Intention, error) {
	i, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &i, nil
}

func (r *intentionRepo) Delete(ctx context.Context, id uint64) error {
	delete(r.byID, id)
	return nil
}

type mapRepo struct{ chunks []mapstore.MapChunk }

func (r *mapRepo) ExistsAny(ctx context.Context) (bool, error) { return len(r.chunks) > 0, nil }

func (r *mapRepo) InsertAll(ctx context.Context, chunks []mapstore.MapChunk) error {
	r.chunks = append(r.chunks, chunks...)
	return nil
}

func (r *mapRepo) FindBySector(ctx context.Context, sectorKey uint64) ([]mapstore.MapChunk, error) {
	var out []mapstore.MapChunk
	for _, c := range r.chunks {
		if c.SectorKey == sectorKey {
			out = append(out, c)
		}
	}
	return out, nil
}

type harness struct {
	views *Service
	chars *characters.Service
	world *worldsim.Service
}

func newHarness(radius uint16) *harness {
	chars := characters.New(newCharRepo(), newStatsRepo(), newOnlineRepo(),
		eventbus.New(noopHandler{}, nil, func() uint64 { return 1 }), 3, 16,
		characters.StatDefaults{Level: 1, Health: 100, Mana: 50, Capacity: 100, Speed: 4, AttackSpeed: 300})

	store := mapstore.New(&mapRepo{}, 128, 0)
	world := worldsim.New(newPositionRepo(), newOccupancyRepo(), newCooldownRepo(), newIntentionRepo(), store, chars, worldsim.Config{
		SpawnX: 1152, SpawnY: 1152, GroundLevel: 0, SectorSize: 128,
		CooldownFactor: 10_000, IntentionWindowMs: 150, DefaultSpeed: 4,
	})

	return &harness{views: New(chars, world, radius), chars: chars, world: world}
}

func TestCharacterMeAndStats(t *testing.T) {
	h := newHarness(2)
	ctx := context.Background()
	sender := validate.Identity{1}
	now := time.Now()

	c, verr := h.chars.CreateCharacter(ctx, sender, "Galahad", characters.GenderMale, characters.RaceHuman, now)
	if verr != nil {
		t.Fatal(verr)
	}

	got, verr := h.views.CharacterMe(ctx, sender)
	if verr != nil || got.CharacterID != c.CharacterID {
		t.Fatalf("expected %v, got %v err=%v", c, got, verr)
	}

	stats, verr := h.views.CharacterMeStats(ctx, sender)
	if verr != nil || stats.CharacterID != c.CharacterID {
		t.Fatalf("expected stats for %d, got %+v err=%v", c.CharacterID, stats, verr)
	}
}

func TestWorldMyCharacterPositionRequiresOnline(t *testing.T) {
	h := newHarness(2)
	ctx := context.Background()
	sender := validate.Identity{1}
	now := time.Now()

	if _, verr := h.chars.CreateCharacter(ctx, sender, "Galahad", characters.GenderMale, characters.RaceHuman, now); verr != nil {
		t.Fatal(verr)
	}

	if _, verr := h.views.WorldMyCharacterPosition(ctx, sender); verr == nil {
		t.Fatal("expected an error before spawning")
	}

	if verr := h.world.SpawnCharacter(ctx, sender, now); verr != nil {
		t.Fatal(verr)
	}

	pos, verr := h.views.WorldMyCharacterPosition(ctx, sender)
	if verr != nil {
		t.Fatalf("unexpected error: %v", verr)
	}
	if pos.Pos.X != 1152 || pos.Pos.Y != 1152 {
		t.Fatalf("unexpected position: %+v", pos.Pos)
	}
}

func TestWorldMapIncludesGrassAroundSpawn(t *testing.T) {
	h := newHarness(2)
	ctx := context.Background()
	sender := validate.Identity{1}
	now := time.Now()

	if _, verr := h.chars.CreateCharacter(ctx, sender, "Galahad", characters.GenderMale, characters.RaceHuman, now); verr != nil {
		t.Fatal(verr)
	}
	if err := h.world.SeedInitialMap(ctx); err != nil {
		t.Fatal(err)
	}
	if verr := h.world.SpawnCharacter(ctx, sender, now); verr != nil {
		t.Fatal(verr)
	}

	chunks, verr := h.views.WorldMap(ctx, sender)
	if verr != nil {
		t.Fatalf("unexpected error: %v", verr)
	}
	foundGrass := false
	for _, c := range chunks {
		if c.Tile == mapstore.TileGrass && c.Rect.Contains(1152, 1152) {
			foundGrass = true
		}
	}
	if !foundGrass {
		t.Fatalf("expected a Grass chunk covering the spawn tile, got %d chunks", len(chunks))
	}
}

func TestNearbyCharactersIncludesSelf(t *testing.T) {
	h := newHarness(2)
	ctx := context.Background()
	now := time.Now()

	a := validate.Identity{1}
	b := validate.Identity{2}
	if err := h.world.SeedInitialMap(ctx); err != nil {
		t.Fatal(err)
	}

	ca, verr := h.chars.CreateCharacter(ctx, a, "Alpha", characters.GenderMale, characters.RaceHuman, now)
	if verr != nil {
		t.Fatal(verr)
	}
	if verr := h.world.SpawnCharacter(ctx, a, now); verr != nil {
		t.Fatal(verr)
	}
	cb, verr := h.chars.CreateCharacter(ctx, b, "Beta", characters.GenderFemale, characters.RaceElf, now)
	if verr != nil {
		t.Fatal(verr)
	}
	if verr := h.world.SpawnCharacter(ctx, b, now); verr != nil {
		t.Fatal(verr)
	}

	nearby, verr := h.views.NearbyCharacters(ctx, a)
	if verr != nil {
		t.Fatalf("unexpected error: %v", verr)
	}
	if len(nearby) != 2 {
		t.Fatalf("expected both Alpha and Beta nearby to Alpha, got %+v", nearby)
	}
	ids := map[uint64]bool{nearby[0].CharacterID: true, nearby[1].CharacterID: true}
	if !ids[ca.CharacterID] || !ids[cb.CharacterID] {
		t.Fatalf("expected Alpha (%d) and Beta (%d) both present, got %+v", ca.CharacterID, cb.CharacterID, nearby)
	}

	positions, verr := h.views.NearbyCharacterPositions(ctx, a)
	if verr != nil {
		t.Fatalf("unexpected error: %v", verr)
	}
	if len(positions) != 2 {
		t.Fatalf("expected both Alpha's and Beta's positions nearby to Alpha, got %+v", positions)
	}
	posIDs := map[uint64]bool{positions[0].CharacterID: true, positions[1].CharacterID: true}
	if !posIDs[ca.CharacterID] || !posIDs[cb.CharacterID] {
		t.Fatalf("expected Alpha (%d) and Beta (%d) positions both present, got %+v", ca.CharacterID, cb.CharacterID, positions)
	}
}
