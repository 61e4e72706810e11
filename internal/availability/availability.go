// Package availability builds the guest-visible menu from already fetched categories.
package availability

import (
	"sort"
	"time"

	"menu-availability-backend/internal/model"
	"menu-availability-backend/internal/schedule"
)

// Item is a dish as shown to guests.
type Item struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	PriceCents   int64  `json:"priceCents"`
	DisplayOrder int    `json:"displayOrder"`
	Available    bool   `json:"-"`
}

// Category is a menu section with its decoded schedule.
type Category struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	DisplayOrder int             `json:"displayOrder"`
	IsActive     bool            `json:"-"`
	Schedule     schedule.Config `json:"-"`
	ScheduleType schedule.Kind   `json:"scheduleType"`
	// Priority is only set for event schedules and only affects presentation.
	Priority int    `json:"priority,omitempty"`
	Items    []Item `json:"items"`
}

// Menu is the guest-facing result.
type Menu struct {
	Categories []Category `json:"categories"`
	CanOrder   bool       `json:"canOrder"`
}

// FromModel decodes stored category records. Items keep their display order.
func FromModel(records []model.Category) []Category {
	out := make([]Category, 0, len(records))
	for _, rec := range records {
		cfg := schedule.FromCategory(rec)
		c := Category{
			ID:           rec.ID,
			Name:         rec.Name,
			DisplayOrder: rec.DisplayOrder,
			IsActive:     rec.IsActive,
			Schedule:     cfg,
			ScheduleType: cfg.Kind(),
			Items:        make([]Item, 0, len(rec.Items)),
		}
		if ev, ok := cfg.(schedule.Event); ok {
			c.Priority = ev.Priority
		}
		for _, it := range rec.Items {
			c.Items = append(c.Items, Item{
				ID:           it.ID,
				Name:         it.Name,
				Description:  it.Description,
				PriceCents:   it.PriceCents,
				DisplayOrder: it.DisplayOrder,
				Available:    it.Available,
			})
		}
		sort.SliceStable(c.Items, func(i, j int) bool { return c.Items[i].DisplayOrder < c.Items[j].DisplayOrder })
		out = append(out, c)
	}
	return out
}

// FilterVisible keeps the categories whose schedule is active at now, drops unavailable
// items from them and orders the result by display order. canOrder mirrors orderingAllowed.
// The input slice is not modified.
func FilterVisible(categories []Category, now time.Time, orderingAllowed bool) Menu {
	visible := make([]Category, 0, len(categories))
	for _, c := range categories {
		if !c.IsActive {
			continue
		}
		if !schedule.Evaluate(c.Schedule, now).Active {
			continue
		}

		items := make([]Item, 0, len(c.Items))
		for _, it := range c.Items {
			if it.Available {
				items = append(items, it)
			}
		}
		c.Items = items
		visible = append(visible, c)
	}

	sort.SliceStable(visible, func(i, j int) bool { return visible[i].DisplayOrder < visible[j].DisplayOrder })
	return Menu{Categories: visible, CanOrder: orderingAllowed}
}

// VisibleIDs lists the ids of the categories in m, in menu order.
func (m Menu) VisibleIDs() []int64 {
	ids := make([]int64, len(m.Categories))
	for i, c := range m.Categories {
		ids[i] = c.ID
	}
	return ids
}
