package domain

// ActivityStatus is the lifecycle state of an activity as stored in
// activities.status. The CRUD services own the transitions; the analytics
// engine only filters on them.
type ActivityStatus string

const (
	ActivityStatusPlanned   ActivityStatus = "PLANNED"
	ActivityStatusActive    ActivityStatus = "ACTIVE"
	ActivityStatusCompleted ActivityStatus = "COMPLETED"
	ActivityStatusCancelled ActivityStatus = "CANCELLED"
)

// GeographicArea is a node in the area tree. ParentID nil means root. Served
// to clients as-is by the area listing endpoint.
type GeographicArea struct {
	ID       string  `db:"id" json:"id"`
	Name     string  `db:"name" json:"name"`
	ParentID *string `db:"parent_geographic_area_id" json:"parentId"`
}
