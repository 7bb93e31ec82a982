package models

// ModelsToAutoMigrate returns every model the database schema carries.
func ModelsToAutoMigrate() []interface{} {
	return []interface{}{
		&Contract{},
		&ContractEmbedding{},
		&AuditLog{},
	}
}
