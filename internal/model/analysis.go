package model

// AnalysisSummary holds aggregate task counts for one list.
type AnalysisSummary struct {
	TotalTasks      int `json:"total_tasks"`
	TotalPending    int `json:"total_pending"`
	TotalInProgress int `json:"total_in_progress"`
	TotalCompleted  int `json:"total_completed"`
	TotalBlocked    int `json:"total_blocked"`
	TotalCancelled  int `json:"total_cancelled"`
	ReadyCount      int `json:"ready_count"`
	BlockedCount    int `json:"blocked_count"`
	EdgeCount       int `json:"edge_count"`
}

// BlockedTaskInfo pairs a blocked task with the tasks blocking it.
type BlockedTaskInfo struct {
	Task      *Task   `json:"task"`
	BlockedBy []*Task `json:"blocked_by"`
}

// DependencyAnalysis is the response payload for the list analysis endpoint.
type DependencyAnalysis struct {
	ListID          string            `json:"list_id"`
	Summary         AnalysisSummary   `json:"summary"`
	CriticalPath    []string          `json:"critical_path"`
	CriticalMinutes int               `json:"critical_minutes"`
	Cycles          [][]string        `json:"cycles"`
	ReadyTasks      []*Task           `json:"ready_tasks"`
	BlockedTasks    []BlockedTaskInfo `json:"blocked_tasks"`
	Recommendations []string          `json:"recommendations"`
}

// GraphStats holds aggregate task counts by status across all lists.
type GraphStats struct {
	TotalLists      int `json:"total_lists"`
	TotalTasks      int `json:"total_tasks"`
	TotalPending    int `json:"total_pending"`
	TotalInProgress int `json:"total_in_progress"`
	TotalCompleted  int `json:"total_completed"`
	TotalBlocked    int `json:"total_blocked"`
	TotalCancelled  int `json:"total_cancelled"`
}
