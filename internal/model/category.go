package model

import "time"

// Category groups prompts in the catalog.  Count is a display value set by
// the seed routine and is not recomputed from the prompts table.
type Category struct {
    ID        string    `json:"id"`
    Title     string    `json:"title"`
    Icon      string    `json:"icon"`
    Count     int       `json:"count"`
    IsNew     bool      `json:"isNew"`
    CreatedAt time.Time `json:"createdAt"`
    UpdatedAt time.Time `json:"updatedAt"`
}
