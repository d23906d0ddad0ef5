package domain

import "fmt"

// TenantIndexName is the primary index holding a tenant's documents.
func TenantIndexName(tenantID string) string {
	return "tenant_" + tenantID
}

// CategoriesIndexName holds a tenant's categories.
func CategoriesIndexName(tenantID string) string {
	return "categories_" + tenantID
}

// CategoryUserIndexName holds a tenant's category memberships.
func CategoryUserIndexName(tenantID string) string {
	return "category_user_" + tenantID
}

// ConnectionIndexName holds a tenant's connections of one kind.
func ConnectionIndexName(kind SourceKind, tenantID string) string {
	return fmt.Sprintf("datasource_%s_connection_%s", kind, tenantID)
}

// SearchLogsIndexName holds a tenant's search log.
func SearchLogsIndexName(tenantID string) string {
	return "search_logs_" + tenantID
}
