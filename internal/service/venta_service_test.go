package service

import (
	"context"
	"testing"
	"time"

	"inventario-service/internal/apperr"
	"inventario-service/internal/models"
	"inventario-service/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVentaStore struct {
	ventas      map[int64]*models.Venta
	createErr   error
	approveErr  error
	rejectErr   error
	createCalls int
	lastCreated *models.Venta
}

func newFakeVentaStore() *fakeVentaStore {
	return &fakeVentaStore{ventas: map[int64]*models.Venta{}}
}

func (f *fakeVentaStore) CreateVentaTx(_ context.Context, venta *models.Venta) error {
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	venta.ID = int64(len(f.ventas) + 1)
	venta.Estado = models.VentaEstadoPending
	f.ventas[venta.ID] = venta
	f.lastCreated = venta
	return nil
}

func (f *fakeVentaStore) ApproveVentaTx(_ context.Context, ventaID, aprobadorID int64) (*models.Venta, error) {
	if f.approveErr != nil {
		return nil, f.approveErr
	}
	venta := f.ventas[ventaID]
	venta.Estado = models.VentaEstadoApproved
	venta.AprobadoPor = &aprobadorID
	return venta, nil
}

func (f *fakeVentaStore) RejectVentaTx(_ context.Context, ventaID int64) (*models.Venta, error) {
	if f.rejectErr != nil {
		return nil, f.rejectErr
	}
	venta := f.ventas[ventaID]
	venta.Estado = models.VentaEstadoRejected
	return venta, nil
}

func (f *fakeVentaStore) GetVenta(_ context.Context, id int64, vis models.Visibility) (*models.Venta, error) {
	venta, ok := f.ventas[id]
	if !ok {
		return nil, nil
	}
	if !vis.All && venta.VendedorID != vis.VendedorID {
		return nil, nil
	}
	return venta, nil
}

func (f *fakeVentaStore) ListVentas(_ context.Context, vis models.Visibility, _ store.VentaFilter) ([]models.Venta, error) {
	var out []models.Venta
	for _, venta := range f.ventas {
		if vis.All || venta.VendedorID == vis.VendedorID {
			out = append(out, *venta)
		}
	}
	return out, nil
}

type fakeIdemStore struct {
	keys map[string]int64
}

func newFakeIdemStore() *fakeIdemStore {
	return &fakeIdemStore{keys: map[string]int64{}}
}

func (f *fakeIdemStore) RememberIdempotencyKey(_ context.Context, key string, ventaID int64, _ time.Duration) error {
	f.keys[key] = ventaID
	return nil
}

func (f *fakeIdemStore) LookupIdempotencyKey(_ context.Context, key string) (int64, bool, error) {
	id, ok := f.keys[key]
	return id, ok, nil
}

func validVentaRequest() *CreateVentaRequest {
	return &CreateVentaRequest{
		ItemID:       10,
		Precio:       decimal.NewFromInt(150),
		Moneda:       " usd ",
		FechaVenta:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		EvidenciaURL: "https://fotos.example/venta.jpg",
	}
}

func TestCreateVentaRequiresAuthentication(t *testing.T) {
	svc := NewVentaService(newFakeVentaStore(), nil, 0, nil)

	_, err := svc.CreateVenta(context.Background(), models.Actor{}, validVentaRequest())

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Unauthorized))
}

func TestCreateVentaValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateVentaRequest)
	}{
		{"missing item", func(r *CreateVentaRequest) { r.ItemID = 0 }},
		{"zero precio", func(r *CreateVentaRequest) { r.Precio = decimal.Zero }},
		{"negative precio", func(r *CreateVentaRequest) { r.Precio = decimal.NewFromInt(-5) }},
		{"blank moneda", func(r *CreateVentaRequest) { r.Moneda = "  " }},
		{"zero fecha", func(r *CreateVentaRequest) { r.FechaVenta = time.Time{} }},
		{"blank evidencia", func(r *CreateVentaRequest) { r.EvidenciaURL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ventaStore := newFakeVentaStore()
			svc := NewVentaService(ventaStore, nil, 0, nil)

			req := validVentaRequest()
			tt.mutate(req)

			_, err := svc.CreateVenta(context.Background(), vendedor, req)

			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.Validation))
			assert.Zero(t, ventaStore.createCalls)
		})
	}
}

func TestCreateVentaSetsVendedorAndNormalizesMoneda(t *testing.T) {
	ventaStore := newFakeVentaStore()
	svc := NewVentaService(ventaStore, nil, 0, nil)

	venta, err := svc.CreateVenta(context.Background(), vendedor, validVentaRequest())
	require.NoError(t, err)

	assert.Equal(t, vendedor.ID, venta.VendedorID)
	assert.Equal(t, "USD", venta.Moneda)
	assert.Equal(t, models.VentaEstadoPending, venta.Estado)
}

func TestCreateVentaStoreErrorsPassThrough(t *testing.T) {
	kinds := []apperr.Kind{
		apperr.NotFound,
		apperr.Unauthorized,
		apperr.InvalidState,
		apperr.Duplicate,
		apperr.Concurrent,
	}

	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			ventaStore := newFakeVentaStore()
			ventaStore.createErr = apperr.New(kind, "store says no")
			svc := NewVentaService(ventaStore, nil, 0, nil)

			_, err := svc.CreateVenta(context.Background(), vendedor, validVentaRequest())

			require.Error(t, err)
			assert.True(t, apperr.Is(err, kind))
		})
	}
}

func TestCreateVentaIdempotentRetry(t *testing.T) {
	ventaStore := newFakeVentaStore()
	idem := newFakeIdemStore()
	svc := NewVentaService(ventaStore, idem, time.Hour, nil)

	req := validVentaRequest()
	req.IdempotencyKey = "retry-abc"

	first, err := svc.CreateVenta(context.Background(), vendedor, req)
	require.NoError(t, err)
	require.Equal(t, 1, ventaStore.createCalls)

	second, err := svc.CreateVenta(context.Background(), vendedor, req)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, ventaStore.createCalls, "retry must not create a second venta")
}

func TestApproveVentaRequiresAdmin(t *testing.T) {
	ventaStore := newFakeVentaStore()
	svc := NewVentaService(ventaStore, nil, 0, nil)

	for _, actor := range []models.Actor{subadmin, vendedor} {
		_, err := svc.ApproveVenta(context.Background(), actor, 1)
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.Unauthorized))
	}
}

func TestApproveVentaSetsApprover(t *testing.T) {
	ventaStore := newFakeVentaStore()
	ventaStore.ventas[1] = &models.Venta{ID: 1, ItemID: 10, VendedorID: vendedor.ID, Estado: models.VentaEstadoPending}
	svc := NewVentaService(ventaStore, nil, 0, nil)

	venta, err := svc.ApproveVenta(context.Background(), admin, 1)
	require.NoError(t, err)

	assert.Equal(t, models.VentaEstadoApproved, venta.Estado)
	require.NotNil(t, venta.AprobadoPor)
	assert.Equal(t, admin.ID, *venta.AprobadoPor)
}

func TestApproveVentaInvalidStatePassesThrough(t *testing.T) {
	ventaStore := newFakeVentaStore()
	ventaStore.approveErr = apperr.New(apperr.InvalidState, "venta 1 is approved, not pending")
	svc := NewVentaService(ventaStore, nil, 0, nil)

	_, err := svc.ApproveVenta(context.Background(), admin, 1)

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.InvalidState))
}

func TestRejectVentaRequiresAdmin(t *testing.T) {
	svc := NewVentaService(newFakeVentaStore(), nil, 0, nil)

	_, err := svc.RejectVenta(context.Background(), vendedor, 1)

	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Unauthorized))
}

func TestRejectVenta(t *testing.T) {
	ventaStore := newFakeVentaStore()
	ventaStore.ventas[1] = &models.Venta{ID: 1, ItemID: 10, VendedorID: vendedor.ID, Estado: models.VentaEstadoPending}
	svc := NewVentaService(ventaStore, nil, 0, nil)

	venta, err := svc.RejectVenta(context.Background(), admin, 1)
	require.NoError(t, err)

	assert.Equal(t, models.VentaEstadoRejected, venta.Estado)
}

func TestGetVentaVisibility(t *testing.T) {
	ventaStore := newFakeVentaStore()
	ventaStore.ventas[1] = &models.Venta{ID: 1, ItemID: 10, VendedorID: 99, Estado: models.VentaEstadoPending}
	svc := NewVentaService(ventaStore, nil, 0, nil)

	// Another seller's venta is indistinguishable from a missing one.
	_, err := svc.GetVenta(context.Background(), vendedor, 1)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	venta, err := svc.GetVenta(context.Background(), admin, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), venta.ID)
}

func TestListVentasScopedToSeller(t *testing.T) {
	ventaStore := newFakeVentaStore()
	ventaStore.ventas[1] = &models.Venta{ID: 1, VendedorID: vendedor.ID}
	ventaStore.ventas[2] = &models.Venta{ID: 2, VendedorID: 99}
	svc := NewVentaService(ventaStore, nil, 0, nil)

	mine, err := svc.ListVentas(context.Background(), vendedor, store.VentaFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(1), mine[0].ID)

	all, err := svc.ListVentas(context.Background(), admin, store.VentaFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
