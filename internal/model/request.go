package model

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type PasswordResetRequest struct {
	Username    string `json:"username"`
	NewPassword string `json:"newPassword"`
}

type AccessLogRequest struct {
	UserID   int64 `json:"userId"`
	OptionID int64 `json:"optionId"`
}
