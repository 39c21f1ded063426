package schema

// AuthRefreshTokenTable represents the 'auth.refreshtoken' table
type AuthRefreshTokenTable struct {
	Table      string
	ID         string
	UserID     string
	TenantID   string
	TokenHash  string
	DeviceName string
	IsRevoked  string
	ExpiresAt  string
	RevokedAt  string
	CreatedAt  string
}

// AuthRefreshToken is the schema definition for auth.refreshtoken
var AuthRefreshToken = AuthRefreshTokenTable{
	Table:      "auth.refreshtoken",
	ID:         "id",
	UserID:     "userid",
	TenantID:   "tenantid",
	TokenHash:  "tokenhash",
	DeviceName: "devicename",
	IsRevoked:  "isrevoked",
	ExpiresAt:  "expiresat",
	RevokedAt:  "revokedat",
	CreatedAt:  "createdat",
}

// Columns returns all standard column names
func (t AuthRefreshTokenTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.TenantID, t.TokenHash, t.DeviceName, t.IsRevoked, t.ExpiresAt, t.RevokedAt, t.CreatedAt,
	}
}
