package model

// ContestRecord clist.by接口返回的原始竞赛记录（未做平台映射与时区归一化）
type ContestRecord struct {
	ID       int64  `json:"id"`       // clist.by原生ID
	Event    string `json:"event"`    // 竞赛名称
	Resource string `json:"resource"` // 资源域名（如codeforces.com）
	Start    string `json:"start"`    // 开始时间（无时区后缀，按UTC处理）
	End      string `json:"end"`      // 结束时间（同上）
	Duration int64  `json:"duration"` // 时长（秒）
	Href     string `json:"href"`     // 竞赛链接
}
