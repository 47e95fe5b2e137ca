package store_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/rafaelGuerreiro/ikaria/internal/characters"
	"github.com/rafaelGuerreiro/ikaria/internal/eventbus"
	"github.com/rafaelGuerreiro/ikaria/internal/geometry"
	"github.com/rafaelGuerreiro/ikaria/internal/mapstore"
	"github.com/rafaelGuerreiro/ikaria/internal/store"
	"github.com/rafaelGuerreiro/ikaria/internal/validate"
	"github.com/rafaelGuerreiro/ikaria/internal/worldsim"
)

var testDB *store.DB

// TestMain starts a disposable postgres:16 container, runs every embedded
// migration against it, and shares one pool across the package's tests.
func TestMain(m *testing.M) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "ikaria",
			"POSTGRES_PASSWORD": "ikaria",
			"POSTGRES_DB":       "ikaria",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp"),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		log.Fatalf("starting postgres container: %v", err)
	}
	defer func() { _ = container.Terminate(ctx) }()

	host, err := container.Host(ctx)
	if err != nil {
		log.Fatalf("getting container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		log.Fatalf("getting container port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://ikaria:ikaria@%s:%s/ikaria?sslmode=disable", host, port.Port())

	if err := store.RunMigrations(ctx, dsn); err != nil {
		log.Fatalf("running migrations: %v", err)
	}
	testDB, err = store.New(ctx, dsn)
	if err != nil {
		log.Fatalf("connecting to test db: %v", err)
	}
	defer testDB.Close()

	os.Exit(m.Run())
}

func truncateAll(t *testing.T) {
	t.Helper()
	tables := []string{
		"oneshot_deferred_events", "oneshot_movement_intentions", "movement_cooldowns",
		"occupied_tiles", "map_chunks",
		"character_positions_online", "character_positions_offline",
		"online_characters", "character_stats", "characters", "users",
	}
	for _, tbl := range tables {
		_, err := testDB.Pool().Exec(context.Background(), "TRUNCATE "+tbl+" CASCADE")
		require.NoError(t, err)
	}
}

func identity(b byte) validate.Identity {
	var id validate.Identity
	id[0] = b
	return id
}

func TestUserRepositoryUpsertAndTouch(t *testing.T) {
	truncateAll(t)
	repo := store.NewUserRepository(testDB)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := identity(1)

	require.NoError(t, repo.Upsert(ctx, id, now))
	later := now.Add(time.Hour)
	require.NoError(t, repo.Upsert(ctx, id, later))
	require.NoError(t, repo.Touch(ctx, id, later.Add(time.Minute)))
}

func TestCharacterRepositoryInsertUniqueAndNameConflict(t *testing.T) {
	truncateAll(t)
	repo := store.NewCharacterRepository(testDB)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := identity(2)

	c := &characters.Character{
		UserID: id, Name: "assassin", DisplayName: "Assassin",
		Race: characters.RaceHuman, Class: characters.ClassNone, Gender: characters.GenderMale,
		CreatedAt: now,
	}
	require.NoError(t, repo.InsertUnique(ctx, c))
	require.NotZero(t, c.CharacterID)

	dupe := &characters.Character{
		UserID: identity(3), Name: "assassin", DisplayName: "Assassin2",
		Race: characters.RaceElf, Class: characters.ClassNone, Gender: characters.GenderFemale,
		CreatedAt: now,
	}
	err := repo.InsertUnique(ctx, dupe)
	require.Error(t, err)
	var nameTaken *characters.ErrNameTaken
	require.ErrorAs(t, err, &nameTaken)

	got, err := repo.GetByID(ctx, c.CharacterID)
	require.NoError(t, err)
	require.Equal(t, c.Name, got.Name)
	require.Equal(t, characters.RaceHuman, got.Race)

	all, err := repo.GetAllByUserID(ctx, id)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestStatsRepositoryInsertDefaultsAndConflict(t *testing.T) {
	truncateAll(t)
	chars := store.NewCharacterRepository(testDB)
	stats := store.NewStatsRepository(testDB)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := identity(4)

	c := &characters.Character{UserID: id, Name: "warlord", DisplayName: "Warlord", CreatedAt: now}
	require.NoError(t, chars.InsertUnique(ctx, c))

	s := &characters.Stats{CharacterID: c.CharacterID, UserID: id, Level: 1, Health: 100, Mana: 50, Capacity: 10, Speed: 4, AttackSpeed: 300}
	require.NoError(t, stats.InsertDefaults(ctx, s))

	err := stats.InsertDefaults(ctx, s)
	require.Error(t, err)
	var conflict *characters.ErrStatsConflict
	require.ErrorAs(t, err, &conflict)

	got, err := stats.GetByCharacterID(ctx, c.CharacterID)
	require.NoError(t, err)
	require.Equal(t, int32(100), got.Health)
}

func TestOnlineRepositoryUpsertGetDelete(t *testing.T) {
	truncateAll(t)
	chars := store.NewCharacterRepository(testDB)
	online := store.NewOnlineRepository(testDB)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := identity(5)

	c := &characters.Character{UserID: id, Name: "ranger", DisplayName: "Ranger", CreatedAt: now}
	require.NoError(t, chars.InsertUnique(ctx, c))

	require.NoError(t, online.Upsert(ctx, id, c.CharacterID, now))
	got, err := online.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, c.CharacterID, got.CharacterID)

	require.NoError(t, online.Delete(ctx, id))
	got, err = online.Get(ctx, id)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestPositionRepositoryOnlineOfflineAreDisjoint(t *testing.T) {
	truncateAll(t)
	chars := store.NewCharacterRepository(testDB)
	positions := store.NewPositionRepository(testDB)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := identity(6)

	c := &characters.Character{UserID: id, Name: "druidess", DisplayName: "Druidess", CreatedAt: now}
	require.NoError(t, chars.InsertUnique(ctx, c))

	p := worldsim.Position{
		CharacterID: c.CharacterID,
		Pos:         geometry.Vec3{X: 1152, Y: 1152, Z: 0},
		Movement:    geometry.MovementNorth,
		Direction:   geometry.DirectionNorth,
		ArrivesAt:   now,
	}
	require.NoError(t, positions.UpsertOnline(ctx, p))

	got, err := positions.GetOnline(ctx, c.CharacterID)
	require.NoError(t, err)
	require.Equal(t, p.Pos, got.Pos)

	offline, err := positions.GetOffline(ctx, c.CharacterID)
	require.NoError(t, err)
	require.Nil(t, offline)

	require.NoError(t, positions.DeleteOnline(ctx, c.CharacterID))
	require.NoError(t, positions.UpsertOffline(ctx, p))
	offline, err = positions.GetOffline(ctx, c.CharacterID)
	require.NoError(t, err)
	require.Equal(t, p.Pos, offline.Pos)
}

func TestOccupancyRepositoryUpsertAndDelete(t *testing.T) {
	truncateAll(t)
	repo := store.NewOccupancyRepository(testDB)
	ctx := context.Background()

	tile := worldsim.OccupiedTile{MapID: 42, SectorKey: 1, CharacterIDs: []uint64{7, 8, 9}}
	require.NoError(t, repo.Upsert(ctx, tile))

	got, err := repo.Get(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, tile.CharacterIDs, got.CharacterIDs)

	require.NoError(t, repo.Delete(ctx, 42))
	got, err = repo.Get(ctx, 42)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestCooldownRepositoryUpsertAndDelete(t *testing.T) {
	truncateAll(t)
	chars := store.NewCharacterRepository(testDB)
	repo := store.NewCooldownRepository(testDB)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := identity(7)

	c := &characters.Character{UserID: id, Name: "berserker", DisplayName: "Berserker", CreatedAt: now}
	require.NoError(t, chars.InsertUnique(ctx, c))

	require.NoError(t, repo.Upsert(ctx, worldsim.Cooldown{CharacterID: c.CharacterID, CanMoveAt: now.Add(time.Second)}))
	got, err := repo.Get(ctx, c.CharacterID)
	require.NoError(t, err)
	require.WithinDuration(t, now.Add(time.Second), got.CanMoveAt, time.Millisecond)

	require.NoError(t, repo.Delete(ctx, c.CharacterID))
	got, err = repo.Get(ctx, c.CharacterID)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestIntentionRepositorySingleSlotReplacesAndPollsDue(t *testing.T) {
	truncateAll(t)
	chars := store.NewCharacterRepository(testDB)
	repo := store.NewIntentionRepository(testDB)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	id := identity(8)

	c := &characters.Character{UserID: id, Name: "knightly", DisplayName: "Knightly", CreatedAt: now}
	require.NoError(t, chars.InsertUnique(ctx, c))

	require.NoError(t, repo.Upsert(ctx, worldsim.Intention{CharacterID: c.CharacterID, Movement: geometry.MovementNorth, ScheduledAt: now.Add(-time.Second)}))
	require.NoError(t, repo.Upsert(ctx, worldsim.Intention{CharacterID: c.CharacterID, Movement: geometry.MovementEast, ScheduledAt: now.Add(-time.Second)}))

	got, err := repo.Get(ctx, c.CharacterID)
	require.NoError(t, err)
	require.Equal(t, geometry.MovementEast, got.Movement)

	due, err := repo.PollDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, c.CharacterID, due[0].CharacterID)

	require.NoError(t, repo.Delete(ctx, c.CharacterID))
	got, err = repo.Get(ctx, c.CharacterID)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestMapChunkRepositorySeedAndFindBySector(t *testing.T) {
	truncateAll(t)
	repo := store.NewMapChunkRepository(testDB)
	ctx := context.Background()

	exists, err := repo.ExistsAny(ctx)
	require.NoError(t, err)
	require.False(t, exists)

	chunk := mapstore.MapChunk{
		MapID:     geometry.Vec3{X: 1024, Y: 1024, Z: 0}.MapID(),
		SectorKey: geometry.Vec3{X: 1024, Y: 1024, Z: 0}.SectorKey(128),
		Rect:      geometry.NewRect(1024, 1024, 1279, 1279, 0),
		Tile:      mapstore.TileGrass,
	}
	require.NoError(t, repo.InsertAll(ctx, []mapstore.MapChunk{chunk}))

	exists, err = repo.ExistsAny(ctx)
	require.NoError(t, err)
	require.True(t, exists)

	found, err := repo.FindBySector(ctx, chunk.SectorKey)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, mapstore.TileGrass, found[0].Tile)
}

func TestDeferredRepositoryEnqueuePollAck(t *testing.T) {
	truncateAll(t)
	repo := store.NewDeferredRepository(testDB)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	ev := eventbus.UserSignedOut(identity(9))
	require.NoError(t, repo.Enqueue(ctx, 1, now.Add(-time.Second), ev, now))

	due, err := repo.PollDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, eventbus.KindUserSignedOut, due[0].Event.Kind)

	require.NoError(t, repo.Ack(ctx, 1))
	due, err = repo.PollDue(ctx, now, 10)
	require.NoError(t, err)
	require.Empty(t, due)
}
