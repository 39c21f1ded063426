// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

// Kind names a security-relevant event. The set is closed: stored rows and
// query filters only ever carry one of the constants below.
type Kind string

// # Event Kinds

const (
	KindLoginSuccess       Kind = "LOGIN_SUCCESS"
	KindLoginFailed        Kind = "LOGIN_FAILED"
	KindLogout             Kind = "LOGOUT"
	KindPasswordChange     Kind = "PASSWORD_CHANGE"
	KindTokenRefresh       Kind = "TOKEN_REFRESH"
	KindAccountLocked      Kind = "ACCOUNT_LOCKED"
	KindAccountUnlocked    Kind = "ACCOUNT_UNLOCKED"
	KindUserCreated        Kind = "USER_CREATED"
	KindUserUpdated        Kind = "USER_UPDATED"
	KindUserDeleted        Kind = "USER_DELETED"
	KindTenantCreated      Kind = "TENANT_CREATED"
	KindPermissionDenied   Kind = "PERMISSION_DENIED"
	KindSuspiciousActivity Kind = "SUSPICIOUS_ACTIVITY"
)

// Kinds returns every defined event kind, in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindLoginSuccess,
		KindLoginFailed,
		KindLogout,
		KindPasswordChange,
		KindTokenRefresh,
		KindAccountLocked,
		KindAccountUnlocked,
		KindUserCreated,
		KindUserUpdated,
		KindUserDeleted,
		KindTenantCreated,
		KindPermissionDenied,
		KindSuspiciousActivity,
	}
}

// IsValid reports whether k is one of the defined event kinds.
func (k Kind) IsValid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}
