package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item represents a single catalogued physical unit in inventory.
// Descriptive fields are nullable: the source data is sparse and a
// blank column means "unknown", not empty string.
type Item struct {
	ID            int64      `db:"id" json:"id"`
	Identificador *string    `db:"identificador" json:"identificador,omitempty"`
	Categoria     *string    `db:"categoria" json:"categoria,omitempty"`
	Subcategoria  *string    `db:"subcategoria" json:"subcategoria,omitempty"`
	Objeto        *string    `db:"objeto" json:"objeto,omitempty"`
	Condicion     *string    `db:"condicion" json:"condicion,omitempty"`
	Anio          *string    `db:"anio" json:"anio,omitempty"`
	Rack          *string    `db:"rack" json:"rack,omitempty"`
	Nivel         *int       `db:"nivel" json:"nivel,omitempty"`
	Comentarios   *string    `db:"comentarios" json:"comentarios,omitempty"`
	Estado        string     `db:"estado" json:"estado"`
	AsignadoA     *int64     `db:"asignado_a" json:"asignado_a,omitempty"`
	AsignadoEn    *time.Time `db:"asignado_en" json:"asignado_en,omitempty"`
	CreadoPor     *int64     `db:"creado_por" json:"creado_por,omitempty"`
	CreadoEn      time.Time  `db:"creado_en" json:"creado_en"`
	ActualizadoEn time.Time  `db:"actualizado_en" json:"actualizado_en"`
}

// Item estados. Transitions: available → assigned → sale_pending →
// sale_approved, plus sale_pending → assigned (rejection) and
// assigned → available (unassignment). No transition skips a state.
const (
	ItemEstadoAvailable    = "available"
	ItemEstadoAssigned     = "assigned"
	ItemEstadoSalePending  = "sale_pending"
	ItemEstadoSaleApproved = "sale_approved"
)

// Assignable reports whether an item in the given estado may be
// (re-)assigned to a seller.
func Assignable(estado string) bool {
	return estado == ItemEstadoAvailable || estado == ItemEstadoAssigned
}

// Splittable reports whether an item in the given estado may be split.
// Items inside the sale workflow are locked.
func Splittable(estado string) bool {
	return estado != ItemEstadoSalePending && estado != ItemEstadoSaleApproved
}

// Venta represents a sale transaction tied to one item and one seller.
type Venta struct {
	ID           int64           `db:"id" json:"id"`
	ItemID       int64           `db:"item_id" json:"item_id"`
	VendedorID   int64           `db:"vendedor_id" json:"vendedor_id"`
	Precio       decimal.Decimal `db:"precio" json:"precio"`
	Moneda       string          `db:"moneda" json:"moneda"`
	FechaVenta   time.Time       `db:"fecha_venta" json:"fecha_venta"`
	Canal        *string         `db:"canal" json:"canal,omitempty"`
	EvidenciaURL string          `db:"evidencia_url" json:"evidencia_url"`
	Notas        *string         `db:"notas" json:"notas,omitempty"`
	Estado       string          `db:"estado" json:"estado"`
	AprobadoPor  *int64          `db:"aprobado_por" json:"aprobado_por,omitempty"`
	AprobadoEn   *time.Time      `db:"aprobado_en" json:"aprobado_en,omitempty"`
	CreadoEn     time.Time       `db:"creado_en" json:"creado_en"`
}

// Venta estados. pending → approved and pending → rejected; both
// terminal.
const (
	VentaEstadoPending  = "pending"
	VentaEstadoApproved = "approved"
	VentaEstadoRejected = "rejected"
)

// Usuario is the external seller/admin entity. The core only reads it
// to resolve capabilities; user lifecycle is owned elsewhere.
type Usuario struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Rol      string `db:"rol" json:"rol"`
}

// Usuario roles.
const (
	RolAdmin     = "admin"
	RolSubadmin  = "subadmin"
	RolVendedor  = "vendedor"
	RolPendiente = "pendiente"
)

// Actor is a resolved caller identity threaded explicitly into every
// core operation. There is no ambient current-user state.
type Actor struct {
	ID  int64
	Rol string
}

// IsAdmin reports full administrative capability.
func (a Actor) IsAdmin() bool {
	return a.Rol == RolAdmin
}

// CanManageInventory reports the inventory-management capability
// (admin or sub-admin).
func (a Actor) CanManageInventory() bool {
	return a.Rol == RolAdmin || a.Rol == RolSubadmin
}

// IsAuthenticated reports whether the actor may call seller-level
// operations at all. Pending-approval users cannot.
func (a Actor) IsAuthenticated() bool {
	return a.ID != 0 && a.Rol != RolPendiente && a.Rol != ""
}

// ItemPatch carries a partial item update. Nil pointers are left
// untouched. Lifecycle fields are present so administrative overrides
// can set them; the service strips them for ordinary sellers.
type ItemPatch struct {
	Identificador *string    `json:"identificador,omitempty"`
	Categoria     *string    `json:"categoria,omitempty"`
	Subcategoria  *string    `json:"subcategoria,omitempty"`
	Objeto        *string    `json:"objeto,omitempty"`
	Condicion     *string    `json:"condicion,omitempty"`
	Anio          *string    `json:"anio,omitempty"`
	Rack          *string    `json:"rack,omitempty"`
	Nivel         *int       `json:"nivel,omitempty"`
	Comentarios   *string    `json:"comentarios,omitempty"`
	Estado        *string    `json:"estado,omitempty"`
	AsignadoA     *int64     `json:"asignado_a,omitempty"`
	AsignadoEn    *time.Time `json:"asignado_en,omitempty"`
}

// StripLifecycle removes the lifecycle fields an ordinary seller is
// not allowed to touch. Silent by design of the update contract.
func (p ItemPatch) StripLifecycle() ItemPatch {
	p.Estado = nil
	p.AsignadoA = nil
	p.AsignadoEn = nil
	return p
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.Identificador == nil && p.Categoria == nil && p.Subcategoria == nil &&
		p.Objeto == nil && p.Condicion == nil && p.Anio == nil && p.Rack == nil &&
		p.Nivel == nil && p.Comentarios == nil && p.Estado == nil &&
		p.AsignadoA == nil && p.AsignadoEn == nil
}

// Visibility is the row-level read scope derived from an Actor. It is
// applied at the query layer, never after fetch.
type Visibility struct {
	All        bool
	VendedorID int64
}

// VisibilityFor derives the read scope for an actor: privileged
// callers see everything, sellers see only their own rows.
func VisibilityFor(actor Actor) Visibility {
	if actor.CanManageInventory() {
		return Visibility{All: true}
	}
	return Visibility{VendedorID: actor.ID}
}

// AuditEntry is one append-only audit row written by the event worker.
type AuditEntry struct {
	EventID    string    `db:"event_id" json:"event_id"`
	EventType  string    `db:"event_type" json:"event_type"`
	ActorID    int64     `db:"actor_id" json:"actor_id"`
	EntityID   int64     `db:"entity_id" json:"entity_id"`
	Payload    []byte    `db:"payload" json:"payload"`
	OcurridoEn time.Time `db:"ocurrido_en" json:"ocurrido_en"`
}
