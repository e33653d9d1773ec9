package model

type AccessEntry struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	OptionID    int64  `json:"option_id"`
	OptionLabel string `json:"option_label"`
	IP          string `json:"ip,omitempty"`
	OccurredAt  string `json:"occurred_at"`
}

type AccessQuery struct {
	UserID   int64
	OptionID int64
	From     string
	To       string
	Page     int
	Limit    int
}

type AccessListData struct {
	Items []AccessEntry `json:"items"`
}
