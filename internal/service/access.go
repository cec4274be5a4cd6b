package service

import (
	"context"

	"inventario-service/internal/apperr"
	"inventario-service/internal/models"
)

// AccessGate resolves a caller identity into an Actor with its
// capabilities. The gate is an external collaborator; the core only
// consumes the resolved Actor.
type AccessGate interface {
	Resolve(ctx context.Context, usuarioID int64) (models.Actor, error)
}

// UsuarioLookup is the slice of the store the default gate needs.
type UsuarioLookup interface {
	GetUsuario(ctx context.Context, id int64) (*models.Usuario, error)
}

// StoreGate is the default gate: roles live in the usuarios table.
type StoreGate struct {
	usuarios UsuarioLookup
}

func NewStoreGate(usuarios UsuarioLookup) *StoreGate {
	return &StoreGate{usuarios: usuarios}
}

func (g *StoreGate) Resolve(ctx context.Context, usuarioID int64) (models.Actor, error) {
	if usuarioID == 0 {
		return models.Actor{}, apperr.New(apperr.Unauthorized, "missing caller identity")
	}

	usuario, err := g.usuarios.GetUsuario(ctx, usuarioID)
	if err != nil {
		return models.Actor{}, apperr.Wrap(apperr.Storage, err, "failed to resolve usuario %d", usuarioID)
	}
	if usuario == nil {
		return models.Actor{}, apperr.New(apperr.Unauthorized, "unknown usuario %d", usuarioID)
	}

	actor := models.Actor{ID: usuario.ID, Rol: usuario.Rol}
	if !actor.IsAuthenticated() {
		return models.Actor{}, apperr.New(apperr.Unauthorized, "usuario %d is pending approval", usuarioID)
	}
	return actor, nil
}
