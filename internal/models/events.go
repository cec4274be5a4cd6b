package models

import "time"

// Event types
const (
	EventTypeItemsAssigned   = "ITEMS_ASSIGNED"
	EventTypeItemsUnassigned = "ITEMS_UNASSIGNED"
	EventTypeItemsImported   = "ITEMS_IMPORTED"
	EventTypeItemSplit       = "ITEM_SPLIT"
	EventTypeVentaCreated    = "VENTA_CREATED"
	EventTypeVentaApproved   = "VENTA_APPROVED"
	EventTypeVentaRejected   = "VENTA_REJECTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	ActorID   int64     `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ItemsAssignedEvent published when a batch of items is assigned to a seller
type ItemsAssignedEvent struct {
	BaseEvent
	ItemIDs    []int64 `json:"item_ids"`
	VendedorID int64   `json:"vendedor_id"`
}

// ItemsUnassignedEvent published when a batch of items returns to available
type ItemsUnassignedEvent struct {
	BaseEvent
	ItemIDs []int64 `json:"item_ids"`
}

// ItemsImportedEvent published after a successful bulk CSV import
type ItemsImportedEvent struct {
	BaseEvent
	Count     int `json:"count"`
	RowErrors int `json:"row_errors"`
}

// ItemSplitEvent published when an item is split into copies
type ItemSplitEvent struct {
	BaseEvent
	SourceID   int64   `json:"source_id"`
	NewItemIDs []int64 `json:"new_item_ids"`
}

// VentaCreatedEvent published when a seller registers a sale
type VentaCreatedEvent struct {
	BaseEvent
	VentaID    int64  `json:"venta_id"`
	ItemID     int64  `json:"item_id"`
	VendedorID int64  `json:"vendedor_id"`
	Precio     string `json:"precio"`
	Moneda     string `json:"moneda"`
}

// VentaApprovedEvent published when an admin approves a sale
type VentaApprovedEvent struct {
	BaseEvent
	VentaID int64 `json:"venta_id"`
	ItemID  int64 `json:"item_id"`
}

// VentaRejectedEvent published when an admin rejects a sale
type VentaRejectedEvent struct {
	BaseEvent
	VentaID int64 `json:"venta_id"`
	ItemID  int64 `json:"item_id"`
}
