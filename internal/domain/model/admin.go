package model

import "time"

type AuditAction string

const (
	AuditRoleChanged   AuditAction = "user.role_changed"
	AuditStatusToggled AuditAction = "user.status_toggled"
	AuditUserDeleted   AuditAction = "user.deleted"
)

// AuditEvent records one privileged mutation. It travels through the audit
// queue as JSON before being persisted by the audit worker.
type AuditEvent struct {
	ID        string      `json:"id"`
	ActorID   string      `json:"actorId"`
	Action    AuditAction `json:"action"`
	TargetID  string      `json:"targetId"`
	Detail    string      `json:"detail,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

type UserStats struct {
	Total        int
	Active       int
	RecentSignup int
	RecentLogin  int
}

type PortfolioStats struct {
	Total  int
	Public int
}

type DashboardStats struct {
	TotalUsers       int `json:"totalUsers"`
	TotalPortfolios  int `json:"totalPortfolios"`
	ActiveUsers      int `json:"activeUsers"`
	PublicPortfolios int `json:"publicPortfolios"`
	RecentUsers      int `json:"recentUsers"`
	RecentLogins     int `json:"recentLogins"`
}

type Pagination struct {
	Current int `json:"current"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
}

func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Current: page, Pages: pages, Total: total}
}

type MemoryInfo struct {
	Alloc      uint64 `json:"alloc"`
	TotalAlloc uint64 `json:"totalAlloc"`
	Sys        uint64 `json:"sys"`
	HeapInUse  uint64 `json:"heapInUse"`
	NumGC      uint32 `json:"numGC"`
}

type DatabaseInfo struct {
	OpenConnections int   `json:"openConnections"`
	InUse           int   `json:"inUse"`
	Idle            int   `json:"idle"`
	SizeBytes       int64 `json:"sizeBytes"`
}

type SystemInfo struct {
	GoVersion     string       `json:"goVersion"`
	Environment   string       `json:"environment"`
	UptimeSeconds float64      `json:"uptime"`
	Goroutines    int          `json:"goroutines"`
	Memory        MemoryInfo   `json:"memoryUsage"`
	Database      DatabaseInfo `json:"database"`
}
