// Package dto Defines data transfer objects (request parameters and response structs)
// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

// VersionDTO version information for API response
// VersionDTO 版本信息 API 响应对象
type VersionDTO struct {
	Version   string `json:"version"`   // Current version // 当前版本
	GitTag    string `json:"gitTag"`    // Git tag // Git 标签
	BuildTime string `json:"buildTime"` // Build time // 构建时间
}

// HealthDTO health check response
// HealthDTO 健康检查响应对象
type HealthDTO struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Dialect  string `json:"dialect"`
}

// IntegrityIssueDTO chain integrity issue
// IntegrityIssueDTO 版本链完整性问题
type IntegrityIssueDTO struct {
	NoteID int64  `json:"note_id"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}
