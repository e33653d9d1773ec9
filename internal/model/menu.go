package model

// MenuOption is one row of the menu_options table.
type MenuOption struct {
	ID        int64
	ParentID  *int64
	Label     string
	Path      string
	Icon      string
	SortOrder int
}

// MenuNode is the authorization entry sent to the console.
type MenuNode struct {
	OptionID int64      `json:"option_id"`
	Label    string     `json:"label"`
	Path     string     `json:"path,omitempty"`
	Icon     string     `json:"icon,omitempty"`
	Children []MenuNode `json:"children,omitempty"`
}
