package schema

// AuthAccountTable represents the 'auth.account' table
type AuthAccountTable struct {
	Table               string
	ID                  string
	TenantID            string
	Email               string
	Password            string
	DisplayName         string
	Role                string
	IsActive            string
	FailedLoginAttempts string
	LockedUntil         string
	LastFailedLogin     string
	CreatedAt           string
	UpdatedAt           string
}

// AuthAccount is the schema definition for auth.account
var AuthAccount = AuthAccountTable{
	Table:               "auth.account",
	ID:                  "id",
	TenantID:            "tenantid",
	Email:               "email",
	Password:            "passwordhash",
	DisplayName:         "displayname",
	Role:                "role",
	IsActive:            "isactive",
	FailedLoginAttempts: "failedloginattempts",
	LockedUntil:         "lockeduntil",
	LastFailedLogin:     "lastfailedlogin",
	CreatedAt:           "createdat",
	UpdatedAt:           "updatedat",
}

// Columns returns all standard column names
func (t AuthAccountTable) Columns() []string {
	return []string{
		t.ID, t.TenantID, t.Email, t.Password, t.DisplayName, t.Role,
		t.IsActive, t.FailedLoginAttempts, t.LockedUntil, t.LastFailedLogin,
		t.CreatedAt, t.UpdatedAt,
	}
}
