package models

// All lists every persisted model in dependency order. SQLite dev databases and tests
// create their schema from it; Postgres uses the goose migrations instead.
func All() []any {
	return []any{
		&Product{},
		&ProductionLot{},
		&DecorationEvent{},
		&WasteEvent{},
		&InventorySnapshot{},
		&Forecast{},
	}
}
