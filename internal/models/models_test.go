package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAssignable(t *testing.T) {
	assert.True(t, Assignable(ItemEstadoAvailable))
	assert.True(t, Assignable(ItemEstadoAssigned))
	assert.False(t, Assignable(ItemEstadoSalePending))
	assert.False(t, Assignable(ItemEstadoSaleApproved))
}

func TestSplittable(t *testing.T) {
	assert.True(t, Splittable(ItemEstadoAvailable))
	assert.True(t, Splittable(ItemEstadoAssigned))
	assert.False(t, Splittable(ItemEstadoSalePending))
	assert.False(t, Splittable(ItemEstadoSaleApproved))
}

func TestActorCapabilities(t *testing.T) {
	admin := Actor{ID: 1, Rol: RolAdmin}
	subadmin := Actor{ID: 2, Rol: RolSubadmin}
	vendedor := Actor{ID: 3, Rol: RolVendedor}
	pendiente := Actor{ID: 4, Rol: RolPendiente}

	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.CanManageInventory())

	assert.False(t, subadmin.IsAdmin())
	assert.True(t, subadmin.CanManageInventory())

	assert.False(t, vendedor.IsAdmin())
	assert.False(t, vendedor.CanManageInventory())
	assert.True(t, vendedor.IsAuthenticated())

	assert.False(t, pendiente.IsAuthenticated())
	assert.False(t, Actor{}.IsAuthenticated())
}

func TestVisibilityFor(t *testing.T) {
	assert.Equal(t, Visibility{All: true}, VisibilityFor(Actor{ID: 1, Rol: RolAdmin}))
	assert.Equal(t, Visibility{All: true}, VisibilityFor(Actor{ID: 2, Rol: RolSubadmin}))
	assert.Equal(t, Visibility{VendedorID: 3}, VisibilityFor(Actor{ID: 3, Rol: RolVendedor}))
}

func TestItemPatchStripLifecycle(t *testing.T) {
	estado := ItemEstadoSaleApproved
	vendedor := int64(9)
	now := time.Now()
	objeto := "figura"

	patch := ItemPatch{
		Objeto:     &objeto,
		Estado:     &estado,
		AsignadoA:  &vendedor,
		AsignadoEn: &now,
	}

	stripped := patch.StripLifecycle()

	assert.Nil(t, stripped.Estado)
	assert.Nil(t, stripped.AsignadoA)
	assert.Nil(t, stripped.AsignadoEn)
	assert.Equal(t, &objeto, stripped.Objeto)

	// The original patch is untouched; StripLifecycle is by value.
	assert.NotNil(t, patch.Estado)
}

func TestItemPatchEmpty(t *testing.T) {
	assert.True(t, ItemPatch{}.Empty())

	objeto := "x"
	assert.False(t, ItemPatch{Objeto: &objeto}.Empty())

	estado := ItemEstadoAssigned
	assert.False(t, ItemPatch{Estado: &estado}.Empty())
}
