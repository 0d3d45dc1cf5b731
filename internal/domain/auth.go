package domain

// ============================================================
// Auth request and response types (frontend API contract)
// ============================================================

// LoginRequest is the body for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body for 200 from POST /v1/auth/login.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
	User      User   `json:"user"`
}

// ChangePasswordRequest is the body for POST /v1/auth/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// AdminResetPasswordRequest is the body for POST /v1/auth/admin/reset-password.
type AdminResetPasswordRequest struct {
	UserID      string `json:"userId"`
	NewPassword string `json:"newPassword"`
}

// UpstreamLogin is what a data backend hands back on successful login.
type UpstreamLogin struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Session binds a BFA access token (by its jti) to the upstream token and
// the actor it was issued for.
type Session struct {
	ID            string `json:"id"`
	UpstreamToken string `json:"upstreamToken"`
	User          User   `json:"user"`
	CreatedAt     string `json:"createdAt"`
}
