package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ramosjr18/categorizar-docs/internal/config"
	"github.com/ramosjr18/categorizar-docs/internal/models"
	"github.com/ramosjr18/categorizar-docs/pkg/logger"
)

// fakeStore is an in-memory DocumentStore for exercising the version
// state machine without a database. Deletes are soft, mirroring the
// gorm.Model store: deleted rows stay invisible to queries but still
// count toward MaxVersion.
type fakeStore struct {
	mu        sync.Mutex
	docs      []models.Document
	nextID    uint
	createErr error
	updateErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1}
}

func (f *fakeStore) Create(_ context.Context, doc *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	doc.ID = f.nextID
	f.nextID++
	f.docs = append(f.docs, *doc)
	return nil
}

func (f *fakeStore) Update(_ context.Context, doc *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.docs {
		if f.docs[i].ID == doc.ID {
			f.docs[i] = *doc
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeStore) VersionsByGroup(_ context.Context, group string) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Document
	for _, d := range f.docs {
		if d.GroupKey == group && !d.DeletedAt.Valid {
			out = append(out, d)
		}
	}
	// Latest first, matching the database ordering.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].VersionNumber > out[i].VersionNumber {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakeStore) MaxVersion(_ context.Context, group string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	max := 0
	for _, d := range f.docs {
		if d.GroupKey == group && d.VersionNumber > max {
			max = d.VersionNumber
		}
	}
	return max, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uint) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.docs {
		if d.ID == id && !d.DeletedAt.Valid {
			doc := d
			return &doc, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) List(_ context.Context) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Document
	for _, d := range f.docs {
		if !d.DeletedAt.Valid {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) Delete(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.docs {
		if f.docs[i].ID == id && !f.docs[i].DeletedAt.Valid {
			f.docs[i].DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// fakeBlob is an in-memory BlobStore.
type fakeBlob struct {
	mu       sync.Mutex
	objects  map[string][]byte
	writeErr error
}

func newFakeBlob() *fakeBlob {
	return &fakeBlob{objects: make(map[string][]byte)}
}

func (f *fakeBlob) Write(_ context.Context, key string, data []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.objects[key] = append([]byte(nil), data...)
	return nil
}

func (f *fakeBlob) Read(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, ErrBlobNotFoundForTest
	}
	return data, nil
}

func (f *fakeBlob) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

func (f *fakeBlob) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeBlob) List(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	return keys, nil
}

// ErrBlobNotFoundForTest mirrors the real blob store's not-found sentinel.
var ErrBlobNotFoundForTest = fmt.Errorf("object not found")

func newTestService(store *fakeStore, blobs *fakeBlob) *Service {
	cfg := &config.AppConfig{
		Archive: config.ArchiveConfig{
			MaxUploadBytes: 1 << 20,
			SheetCacheTTL:  60,
		},
	}
	return NewService(cfg, store, blobs, nil, logger.New("archive-test", "test"))
}

// longCSV builds a CSV large enough that a one-cell tweak still scores
// above the near-duplicate threshold.
func longCSV(rows int, lastValue string) []byte {
	var b strings.Builder
	b.WriteString("concepto,importe\n")
	for i := 1; i <= rows; i++ {
		value := fmt.Sprintf("%d", 1000+i)
		if i == rows {
			value = lastValue
		}
		fmt.Fprintf(&b, "partida%03d,%s\n", i, value)
	}
	return []byte(b.String())
}

func TestIngestCreatesFirstVersion(t *testing.T) {
	store := newFakeStore()
	blobs := newFakeBlob()
	svc := newTestService(store, blobs)

	batch := svc.IngestBatch(context.Background(), 1, []UploadFile{
		{Name: "inventario_equipos.csv", Data: longCSV(40, "2040")},
	}, StrategyNone)

	require.Len(t, batch.Files, 1)
	res := batch.Files[0]
	assert.Equal(t, StatusCreated, res.Status)
	assert.Equal(t, 1, res.Version)
	assert.Equal(t, "Inventario", res.Category)
	assert.False(t, batch.NeedsDecision)

	docs, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "inventario_equipos.csv", docs[0].GroupKey)
	assert.Equal(t, uint(1), docs[0].OwnerID)

	exists, err := blobs.Exists(context.Background(), "inventario_equipos.csv/v1/inventario_equipos.csv")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestIngestRejectsExactDuplicate(t *testing.T) {
	store := newFakeStore()
	blobs := newFakeBlob()
	svc := newTestService(store, blobs)

	data := longCSV(40, "2040")
	first := svc.IngestBatch(context.Background(), 1, []UploadFile{{Name: "gastos.csv", Data: data}}, StrategyNone)
	require.Equal(t, StatusCreated, first.Files[0].Status)

	second := svc.IngestBatch(context.Background(), 1, []UploadFile{{Name: "gastos.csv", Data: data}}, StrategyNone)
	res := second.Files[0]
	assert.Equal(t, StatusRejected, res.Status)
	assert.Equal(t, 1, res.Version)
	assert.Contains(t, res.Message, "duplicate")

	docs, _ := store.List(context.Background())
	assert.Len(t, docs, 1, "duplicate must not create a record")
	keys, _ := blobs.List(context.Background())
	assert.Len(t, keys, 1, "duplicate must not write a blob")
}

func TestIngestRejectsNearDuplicateOfLatest(t *testing.T) {
	store := newFakeStore()
	blobs := newFakeBlob()
	svc := newTestService(store, blobs)

	first := svc.IngestBatch(context.Background(), 1, []UploadFile{
		{Name: "gastos.csv", Data: longCSV(80, "2080")},
	}, StrategyNone)
	require.Equal(t, StatusCreated, first.Files[0].Status)

	// Same table with one cell changed: different hash, near-identical text.
	second := svc.IngestBatch(context.Background(), 1, []UploadFile{
		{Name: "gastos.csv", Data: longCSV(80, "2081")},
	}, StrategyNone)
	res := second.Files[0]
	assert.Equal(t, StatusRejected, res.Status)
	assert.Contains(t, res.Message, "already registered")

	docs, _ := store.List(context.Background())
	assert.Len(t, docs, 1)
}

func TestIngestAmbiguousChangeRequiresDecision(t *testing.T) {
	store := newFakeStore()
	blobs := newFakeBlob()
	svc := newTestService(store, blobs)

	first := svc.IngestBatch(context.Background(), 1, []UploadFile{
		{Name: "gastos.csv", Data: longCSV(40, "2040")},
	}, StrategyNone)
	require.Equal(t, StatusCreated, first.Files[0].Status)

	changed := []byte("proveedor,estado\nacme,activo\nglobex,baja\ninitech,activo\n")
	second := svc.IngestBatch(context.Background(), 1, []UploadFile{
		{Name: "gastos.csv", Data: changed},
	}, StrategyNone)

	res := second.Files[0]
	assert.Equal(t, StatusRequiresDecision, res.Status)
	assert.Equal(t, 1, res.AgainstVersion)
	assert.Greater(t, res.ChangePercent, 1.0)
	assert.ElementsMatch(t, []string{"replace", "new_version"}, res.Options)
	assert.True(t, second.NeedsDecision)

	docs, _ := store.List(context.Background())
	assert.Len(t, docs, 1, "pending decision must not commit anything")
	keys, _ := blobs.List(context.Background())
	assert.Len(t, keys, 1)
}

func TestIngestNewVersionStrategy(t *testing.T) {
	store := newFakeStore()
	blobs := newFakeBlob()
	svc := newTestService(store, blobs)

	svc.IngestBatch(context.Background(), 1, []UploadFile{
		{Name: "gastos.csv", Data: longCSV(40, "2040")},
	}, StrategyNone)

	changed := []byte("proveedor,estado\nacme,activo\nglobex,baja\n")
	batch := svc.IngestBatch(context.Background(), 1, []UploadFile{
		{Name: "gastos.csv", Data: changed},
	}, StrategyNewVersion)

	res := batch.Files[0]
	assert.Equal(t, StatusCreated, res.Status)
	assert.Equal(t, 2, res.Version)

	versions, err := store.VersionsByGroup(context.Background(), "gastos.csv")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].VersionNumber)
	assert.Equal(t, 1, versions[1].VersionNumber)

	exists, _ := blobs.Exists(context.Background(), "gastos.csv/v2/gastos.csv")
	assert.True(t, exists)
}

func TestIngestReplaceStrategy(t *testing.T) {
	store := newFakeStore()
	blobs := newFakeBlob()
	svc := newTestService(store, blobs)

	svc.IngestBatch(context.Background(), 1, []UploadFile{
		{Name: "gastos.csv", Data: longCSV(40, "2040")},
	}, StrategyNone)

	changed := []byte("proveedor,estado\nacme,activo\nglobex,baja\n")
	batch := svc.IngestBatch(context.Background(), 1, []UploadFile{
		{Name: "gastos.csv", Data: changed},
	}, StrategyReplace)

	res := batch.Files[0]
	assert.Equal(t, StatusReplaced, res.Status)
	assert.Equal(t, 1, res.Version)

	versions, _ := store.VersionsByGroup(context.Background(), "gastos.csv")
	require.Len(t, versions, 1, "replace must not grow the version chain")
	assert.Equal(t, 1, versions[0].VersionNumber)
	assert.Contains(t, versions[0].ExtractedText, "globex")

	stored, err := blobs.Read(context.Background(), versions[0].StoragePath)
	require.NoError(t, err)
	assert.Equal(t, changed, stored)
}

func TestVersionNumbersMonotonic(t *testing.T) {
	store := newFakeStore()
	blobs := newFakeBlob()
	svc := newTestService(store, blobs)

	contents := [][]byte{
		[]byte("a,b\nuno,1\ndos,2\n"),
		[]byte("c,d\ntres,3\ncuatro,4\n"),
		[]byte("e,f\ncinco,5\nseis,6\n"),
	}
	for i, data := range contents {
		strategy := StrategyNone
		if i > 0 {
			strategy = StrategyNewVersion
		}
		batch := svc.IngestBatch(context.Background(), 1, []UploadFile{{Name: "serie.csv", Data: data}}, strategy)
		require.Equal(t, StatusCreated, batch.Files[0].Status)
		assert.Equal(t, i+1, batch.Files[0].Version)
	}

	versions, _ := store.VersionsByGroup(context.Background(), "serie.csv")
	require.Len(t, versions, 3)
	for i, v := range versions {
		assert.Equal(t, 3-i, v.VersionNumber)
	}
}

func TestCommitFailureLeavesOrphanForSweep(t *testing.T) {
	store := newFakeStore()
	blobs := newFakeBlob()
	svc := newTestService(store, blobs)

	first := svc.IngestBatch(context.Background(), 1, []UploadFile{
		{Name: "gastos.csv", Data: longCSV(40, "2040")},
	}, StrategyNone)
	require.Equal(t, StatusCreated, first.Files[0].Status)

	store.createErr = fmt.Errorf("connection lost")
	batch := svc.IngestBatch(context.Background(), 1, []UploadFile{
		{Name: "gastos.csv", Data: []byte("x,y\n1,2\n")},
	}, StrategyNewVersion)
	assert.Equal(t, StatusError, batch.Files[0].Status)
	store.createErr = nil

	// The blob write preceded the failed commit, so an orphan is left.
	keys, _ := blobs.List(context.Background())
	require.Len(t, keys, 2)

	removed, err := svc.SweepOrphans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	exists, _ := blobs.Exists(context.Background(), "gastos.csv/v1/gastos.csv")
	assert.True(t, exists, "the committed version's blob must survive the sweep")
	exists, _ = blobs.Exists(context.Background(), "gastos.csv/v2/gastos.csv")
	assert.False(t, exists)
}

func TestDeletedVersionNumberNotReused(t *testing.T) {
	store := newFakeStore()
	blobs := newFakeBlob()
	svc := newTestService(store, blobs)

	first := svc.IngestBatch(context.Background(), 1, []UploadFile{
		{Name: "gastos.csv", Data: longCSV(40, "2040")},
	}, StrategyNone)
	require.Equal(t, StatusCreated, first.Files[0].Status)

	second := svc.IngestBatch(context.Background(), 1, []UploadFile{
		{Name: "gastos.csv", Data: []byte("proveedor,estado\nacme,activo\nglobex,baja\n")},
	}, StrategyNewVersion)
	require.Equal(t, 2, second.Files[0].Version)

	versions, err := store.VersionsByGroup(context.Background(), "gastos.csv")
	require.NoError(t, err)
	require.Equal(t, 2, versions[0].VersionNumber)
	require.NoError(t, svc.DeleteDocument(context.Background(), versions[0].ID))

	// The next version must continue past the deleted v2, never re-commit
	// its number or its storage path.
	third := svc.IngestBatch(context.Background(), 1, []UploadFile{
		{Name: "gastos.csv", Data: []byte("equipo,responsable\nalpha,ana\nbeta,eva\n")},
	}, StrategyNewVersion)
	res := third.Files[0]
	assert.Equal(t, StatusCreated, res.Status)
	assert.Equal(t, 3, res.Version, "deleted version number must not be reallocated")

	exists, _ := blobs.Exists(context.Background(), "gastos.csv/v3/gastos.csv")
	assert.True(t, exists)
	exists, _ = blobs.Exists(context.Background(), "gastos.csv/v2/gastos.csv")
	assert.False(t, exists, "the deleted version's path must stay vacant")
}

func TestNumberingContinuesAfterFullDeletion(t *testing.T) {
	store := newFakeStore()
	blobs := newFakeBlob()
	svc := newTestService(store, blobs)

	first := svc.IngestBatch(context.Background(), 1, []UploadFile{
		{Name: "gastos.csv", Data: longCSV(40, "2040")},
	}, StrategyNone)
	require.Equal(t, 1, first.Files[0].Version)

	docs, _ := store.List(context.Background())
	require.Len(t, docs, 1)
	require.NoError(t, svc.DeleteDocument(context.Background(), docs[0].ID))

	// With no live versions left the group restarts, but numbering still
	// continues from the all-time high-water mark.
	second := svc.IngestBatch(context.Background(), 1, []UploadFile{
		{Name: "gastos.csv", Data: []byte("proveedor,estado\nacme,activo\nglobex,baja\n")},
	}, StrategyNone)
	res := second.Files[0]
	assert.Equal(t, StatusCreated, res.Status)
	assert.Equal(t, 2, res.Version)
}

func TestConcurrentUploadsSameGroupSequenceVersions(t *testing.T) {
	store := newFakeStore()
	blobs := newFakeBlob()
	svc := newTestService(store, blobs)

	// Distinct tables per goroutine so neither the hash nor the
	// near-duplicate check interferes with the numbering.
	const n = 8
	results := make([]FileResult, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data := []byte(fmt.Sprintf("campo%d,detalle%d\nregistro_%d_a,%d\nregistro_%d_b,%d\n",
				i, i, i, i*7+1, i, i*13+5))
			batch := svc.IngestBatch(context.Background(), 1, []UploadFile{
				{Name: "concurrente.csv", Data: data},
			}, StrategyNewVersion)
			results[i] = batch.Files[0]
		}(i)
	}
	wg.Wait()

	// The group lock serializes dispositions: no two uploads may observe
	// the same latest version, so the committed numbers are exactly 1..n.
	versions := make([]int, 0, n)
	for _, res := range results {
		require.Equal(t, StatusCreated, res.Status, res.Message)
		versions = append(versions, res.Version)
	}
	sort.Ints(versions)
	for i, v := range versions {
		assert.Equal(t, i+1, v)
	}

	stored, err := store.VersionsByGroup(context.Background(), "concurrente.csv")
	require.NoError(t, err)
	assert.Len(t, stored, n)
}

func TestSweepKeepsLegacyBlobs(t *testing.T) {
	store := newFakeStore()
	blobs := newFakeBlob()
	svc := newTestService(store, blobs)

	require.NoError(t, store.Create(context.Background(), &models.Document{
		OriginalName:  "antiguo.csv",
		GroupKey:      "antiguo.csv",
		VersionNumber: 2,
		StoragePath:   "antiguo.csv/v2/antiguo.csv",
	}))
	require.NoError(t, blobs.Write(context.Background(), "v2_antiguo.csv", []byte("datos"), "text/csv"))

	removed, err := svc.SweepOrphans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, removed, "legacy flat keys of live versions are referenced")
}
