package schema

// SystemAuditLogTable represents the 'system.auditlog' table
type SystemAuditLogTable struct {
	Table     string
	ID        string
	EventType string
	UserID    string
	TenantID  string
	IPAddress string
	UserAgent string
	Details   string
	CreatedAt string
}

var SystemAuditLog = SystemAuditLogTable{
	Table:     "system.auditlog",
	ID:        "id",
	EventType: "eventtype",
	UserID:    "userid",
	TenantID:  "tenantid",
	IPAddress: "ipaddress",
	UserAgent: "useragent",
	Details:   "details",
	CreatedAt: "createdat",
}
