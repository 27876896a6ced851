package models

// Bureau is an owning branch office; posters belong to exactly one.
type Bureau struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Abbrev   string `json:"abbrev"`
	Address  string `json:"address"`
	Disabled bool   `json:"-"`
}
