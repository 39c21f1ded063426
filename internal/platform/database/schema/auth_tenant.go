package schema

// AuthTenantTable represents the 'auth.tenant' table
type AuthTenantTable struct {
	Table     string
	ID        string
	Name      string
	Slug      string
	IsActive  string
	CreatedAt string
}

// AuthTenant is the schema definition for auth.tenant
var AuthTenant = AuthTenantTable{
	Table:     "auth.tenant",
	ID:        "id",
	Name:      "name",
	Slug:      "slug",
	IsActive:  "isactive",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t AuthTenantTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.Slug, t.IsActive, t.CreatedAt,
	}
}
