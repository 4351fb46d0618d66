package model

import "sort"

// Platform 竞赛平台枚举（与前端展示名一致）
type Platform string

const (
	PlatformCodeforces Platform = "Codeforces"
	PlatformCodeChef   Platform = "CodeChef"
	PlatformLeetCode   Platform = "LeetCode"
	PlatformAtCoder    Platform = "AtCoder"
	PlatformTopCoder   Platform = "TopCoder"
	PlatformHackerRank Platform = "HackerRank"
)

// resourcePlatformMap clist.by资源域名 -> 内部平台枚举
var resourcePlatformMap = map[string]Platform{
	"codeforces.com": PlatformCodeforces,
	"codechef.com":   PlatformCodeChef,
	"leetcode.com":   PlatformLeetCode,
	"atcoder.jp":     PlatformAtCoder,
	"topcoder.com":   PlatformTopCoder,
	"hackerrank.com": PlatformHackerRank,
}

// PlatformFromResource 将clist.by的resource字段映射为内部平台枚举；未知资源返回false
func PlatformFromResource(resource string) (Platform, bool) {
	p, ok := resourcePlatformMap[resource]
	return p, ok
}

// SupportedResources 返回所有受支持的clist.by资源域名（拼接API查询参数用）
func SupportedResources() []string {
	resources := make([]string, 0, len(resourcePlatformMap))
	for r := range resourcePlatformMap {
		resources = append(resources, r)
	}
	sort.Strings(resources)
	return resources
}
