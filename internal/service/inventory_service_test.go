package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"inventario-service/internal/apperr"
	"inventario-service/internal/importer"
	"inventario-service/internal/models"
	"inventario-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin    = models.Actor{ID: 1, Rol: models.RolAdmin}
	subadmin = models.Actor{ID: 2, Rol: models.RolSubadmin}
	vendedor = models.Actor{ID: 3, Rol: models.RolVendedor}
)

type fakeItemStore struct {
	items       map[int64]*models.Item
	inserted    []models.Item
	lastPatch   *models.ItemPatch
	updateRows  int64
	deleteRows  int64
	assignCalls int
	splitCalls  int
}

func newFakeItemStore() *fakeItemStore {
	return &fakeItemStore{items: map[int64]*models.Item{}, updateRows: 1, deleteRows: 1}
}

func (f *fakeItemStore) InsertItem(_ context.Context, item *models.Item) error {
	item.ID = int64(len(f.inserted) + 1)
	f.inserted = append(f.inserted, *item)
	return nil
}

func (f *fakeItemStore) BulkInsertItems(_ context.Context, items []models.Item) (int, error) {
	f.inserted = append(f.inserted, items...)
	return len(items), nil
}

func (f *fakeItemStore) GetItem(_ context.Context, id int64, vis models.Visibility) (*models.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	if !vis.All && (item.AsignadoA == nil || *item.AsignadoA != vis.VendedorID) {
		return nil, nil
	}
	return item, nil
}

func (f *fakeItemStore) ListItems(_ context.Context, vis models.Visibility, filter store.ItemFilter) ([]models.Item, error) {
	var out []models.Item
	for _, item := range f.items {
		if !vis.All && (item.AsignadoA == nil || *item.AsignadoA != vis.VendedorID) {
			continue
		}
		if filter.Estado != nil && item.Estado != *filter.Estado {
			continue
		}
		if filter.Categoria != nil && (item.Categoria == nil || *item.Categoria != *filter.Categoria) {
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}

func (f *fakeItemStore) UpdateItem(_ context.Context, id int64, patch models.ItemPatch) (int64, error) {
	f.lastPatch = &patch
	return f.updateRows, nil
}

func (f *fakeItemStore) AssignItems(_ context.Context, ids []int64, vendedorID int64) ([]int64, error) {
	f.assignCalls++
	return ids, nil
}

func (f *fakeItemStore) UnassignItems(_ context.Context, ids []int64) ([]int64, error) {
	return ids, nil
}

func (f *fakeItemStore) DeleteItem(_ context.Context, id int64) (int64, error) {
	return f.deleteRows, nil
}

func (f *fakeItemStore) SplitItem(_ context.Context, id int64, objetos []string) ([]models.Item, error) {
	f.splitCalls++
	copies := make([]models.Item, len(objetos))
	for i, objeto := range objetos {
		objeto := objeto
		copies[i] = models.Item{ID: int64(100 + i), Objeto: &objeto, Estado: models.ItemEstadoAvailable}
	}
	return copies, nil
}

type fakeLocker struct {
	available bool
	releases  int
}

func (f *fakeLocker) AcquireImportLock(_ context.Context, _ int64, _ time.Duration) (bool, error) {
	return f.available, nil
}

func (f *fakeLocker) ReleaseImportLock(_ context.Context, _ int64) error {
	f.releases++
	return nil
}

func newInventoryService(store *fakeItemStore, locker ImportLocker) *InventoryService {
	return NewInventoryService(store, importer.NewPipeline(store, 0), locker, time.Minute, nil)
}

func strptr(s string) *string { return &s }

func TestCreateItemRequiresManager(t *testing.T) {
	svc := newInventoryService(newFakeItemStore(), nil)

	err := svc.CreateItem(context.Background(), vendedor, &models.Item{Objeto: strptr("x")})

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Unauthorized))
}

func TestCreateItemSetsLifecycleDefaults(t *testing.T) {
	store := newFakeItemStore()
	svc := newInventoryService(store, nil)

	vendedorID := int64(9)
	item := &models.Item{
		Objeto:    strptr("figura"),
		Estado:    models.ItemEstadoSaleApproved,
		AsignadoA: &vendedorID,
	}
	require.NoError(t, svc.CreateItem(context.Background(), subadmin, item))

	assert.Equal(t, models.ItemEstadoAvailable, item.Estado)
	assert.Nil(t, item.AsignadoA)
	require.NotNil(t, item.CreadoPor)
	assert.Equal(t, subadmin.ID, *item.CreadoPor)
}

func TestCreateItemRejectsEmptyRecord(t *testing.T) {
	svc := newInventoryService(newFakeItemStore(), nil)

	err := svc.CreateItem(context.Background(), admin, &models.Item{})

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestUpdateItemSellerPatchStripped(t *testing.T) {
	store := newFakeItemStore()
	sellerID := vendedor.ID
	store.items[5] = &models.Item{ID: 5, Estado: models.ItemEstadoAssigned, AsignadoA: &sellerID}
	svc := newInventoryService(store, nil)

	estado := models.ItemEstadoSaleApproved
	otherSeller := int64(99)
	patch := models.ItemPatch{
		Comentarios: strptr("nueva nota"),
		Estado:      &estado,
		AsignadoA:   &otherSeller,
	}

	require.NoError(t, svc.UpdateItem(context.Background(), vendedor, 5, patch))

	require.NotNil(t, store.lastPatch)
	assert.Nil(t, store.lastPatch.Estado, "seller patch must not carry estado")
	assert.Nil(t, store.lastPatch.AsignadoA)
	assert.Equal(t, strptr("nueva nota"), store.lastPatch.Comentarios)
}

func TestUpdateItemSellerCannotReachForeignItem(t *testing.T) {
	store := newFakeItemStore()
	otherSeller := int64(99)
	store.items[5] = &models.Item{ID: 5, Estado: models.ItemEstadoAssigned, AsignadoA: &otherSeller}
	svc := newInventoryService(store, nil)

	err := svc.UpdateItem(context.Background(), vendedor, 5, models.ItemPatch{Comentarios: strptr("x")})

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.NotFound))
	assert.Nil(t, store.lastPatch)
}

func TestUpdateItemManagerKeepsLifecycleFields(t *testing.T) {
	store := newFakeItemStore()
	svc := newInventoryService(store, nil)

	estado := models.ItemEstadoAssigned
	require.NoError(t, svc.UpdateItem(context.Background(), admin, 5, models.ItemPatch{Estado: &estado}))

	require.NotNil(t, store.lastPatch)
	assert.Equal(t, &estado, store.lastPatch.Estado)
}

func TestUpdateItemEmptyPatchAfterStrip(t *testing.T) {
	store := newFakeItemStore()
	sellerID := vendedor.ID
	store.items[5] = &models.Item{ID: 5, Estado: models.ItemEstadoAssigned, AsignadoA: &sellerID}
	svc := newInventoryService(store, nil)

	estado := models.ItemEstadoAvailable
	err := svc.UpdateItem(context.Background(), vendedor, 5, models.ItemPatch{Estado: &estado})

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestUpdateItemNotFound(t *testing.T) {
	store := newFakeItemStore()
	store.updateRows = 0
	svc := newInventoryService(store, nil)

	err := svc.UpdateItem(context.Background(), admin, 404, models.ItemPatch{Comentarios: strptr("x")})

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestAssignItemsRequiresAdmin(t *testing.T) {
	store := newFakeItemStore()
	svc := newInventoryService(store, nil)

	_, err := svc.AssignItems(context.Background(), subadmin, []int64{1, 2}, 3)

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Unauthorized))
	assert.Zero(t, store.assignCalls)
}

func TestAssignItemsPassesThrough(t *testing.T) {
	store := newFakeItemStore()
	svc := newInventoryService(store, nil)

	assigned, err := svc.AssignItems(context.Background(), admin, []int64{1, 2}, 3)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2}, assigned)
}

func TestUnassignItemsRequiresAdmin(t *testing.T) {
	svc := newInventoryService(newFakeItemStore(), nil)

	_, err := svc.UnassignItems(context.Background(), vendedor, []int64{1})

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Unauthorized))
}

func TestDeleteItemNotFound(t *testing.T) {
	store := newFakeItemStore()
	store.deleteRows = 0
	svc := newInventoryService(store, nil)

	err := svc.DeleteItem(context.Background(), subadmin, 404)

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestSplitItemRequiresTwoNames(t *testing.T) {
	store := newFakeItemStore()
	svc := newInventoryService(store, nil)

	_, err := svc.SplitItem(context.Background(), admin, 7, []string{"solo", "  ", ""})

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))
	assert.Zero(t, store.splitCalls, "store must be untouched on validation failure")
}

func TestSplitItemTrimsNames(t *testing.T) {
	store := newFakeItemStore()
	svc := newInventoryService(store, nil)

	copies, err := svc.SplitItem(context.Background(), subadmin, 7, []string{" uno ", "dos", " ", "tres"})
	require.NoError(t, err)

	require.Len(t, copies, 3)
	assert.Equal(t, "uno", *copies[0].Objeto)
	assert.Equal(t, "dos", *copies[1].Objeto)
	assert.Equal(t, "tres", *copies[2].Objeto)
}

func TestImportCSVRequiresManager(t *testing.T) {
	svc := newInventoryService(newFakeItemStore(), nil)

	_, err := svc.ImportCSV(context.Background(), vendedor, []map[string]string{{"objeto": "x"}})

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Unauthorized))
}

func TestImportCSVLockContention(t *testing.T) {
	locker := &fakeLocker{available: false}
	svc := newInventoryService(newFakeItemStore(), locker)

	_, err := svc.ImportCSV(context.Background(), admin, []map[string]string{{"objeto": "x"}})

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Concurrent))
	assert.Zero(t, locker.releases, "a lock that was never held must not be released")
}

func TestImportCSVReleasesLock(t *testing.T) {
	locker := &fakeLocker{available: true}
	store := newFakeItemStore()
	svc := newInventoryService(store, locker)

	result, err := svc.ImportCSV(context.Background(), admin, []map[string]string{
		{"objeto": "figura"},
		{"nivel": "abc"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.SuccessCount)
	assert.Len(t, result.Errors, 1)
	assert.Equal(t, 1, locker.releases)
}

func TestExportCSVRequiresManager(t *testing.T) {
	svc := newInventoryService(newFakeItemStore(), nil)

	err := svc.ExportCSV(context.Background(), vendedor, store.ItemFilter{}, &bytes.Buffer{})

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Unauthorized))
}

func TestExportCSVWritesAllItems(t *testing.T) {
	itemStore := newFakeItemStore()
	itemStore.items[1] = &models.Item{ID: 1, Objeto: strptr("figura"), Estado: models.ItemEstadoAvailable}
	svc := newInventoryService(itemStore, nil)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), subadmin, store.ItemFilter{}, &buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[1], "figura")
}

func TestExportCSVAppliesFilter(t *testing.T) {
	itemStore := newFakeItemStore()
	itemStore.items[1] = &models.Item{ID: 1, Objeto: strptr("figura"), Estado: models.ItemEstadoAvailable}
	itemStore.items[2] = &models.Item{ID: 2, Objeto: strptr("robot"), Estado: models.ItemEstadoAssigned}
	svc := newInventoryService(itemStore, nil)

	estado := models.ItemEstadoAssigned
	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), admin, store.ItemFilter{Estado: &estado}, &buf))

	out := buf.String()
	assert.Contains(t, out, "robot")
	assert.NotContains(t, out, "figura")
}

func TestGetItemVisibility(t *testing.T) {
	store := newFakeItemStore()
	otherSeller := int64(99)
	store.items[5] = &models.Item{ID: 5, Estado: models.ItemEstadoAssigned, AsignadoA: &otherSeller}
	svc := newInventoryService(store, nil)

	_, err := svc.GetItem(context.Background(), vendedor, 5)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	item, err := svc.GetItem(context.Background(), admin, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), item.ID)
}
