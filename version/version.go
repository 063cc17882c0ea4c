// Package version 提供 borders-go 的构建信息，通过 -ldflags 在构建时注入：
//
//	go build -ldflags "-X github.com/lgc202/borders-go/version.gitVersion=v1.2.0 \
//	  -X github.com/lgc202/borders-go/version.gitCommit=$(git rev-parse HEAD)" ./cmd/borders
//
// 客户端默认的 User-Agent 也由这里生成。
package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/gosuri/uitable"
)

var (
	// gitVersion 形如 vMAJOR.MINOR.PATCH[-PRERELEASE]，未注入时带 git archive 占位符
	gitVersion = "v0.0.0-master+$Format:%h$"
	// gitCommit 为 $(git rev-parse HEAD)
	gitCommit = "$Format:%H$"
	// gitTreeState 为 clean 或 dirty
	gitTreeState = ""
	// buildDate 为 $(date -u +'%Y-%m-%dT%H:%M:%SZ')
	buildDate = "1970-01-01T00:00:00Z"
)

// product 是 User-Agent 中的产品名
const product = "borders-go"

// Info 构建信息
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	TreeState string `json:"treeState,omitempty" yaml:"treeState,omitempty"`
	BuildDate string `json:"buildDate" yaml:"buildDate"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
	Platform  string `json:"platform" yaml:"platform"`
}

// Get 返回当前二进制的构建信息
func Get() Info {
	return Info{
		Version:   stripPlaceholder(gitVersion),
		Commit:    stripPlaceholder(gitCommit),
		TreeState: gitTreeState,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String 返回版本号，工作区有未提交修改时追加 -dirty
func (info Info) String() string {
	if info.TreeState == "dirty" {
		return info.Version + "-dirty"
	}
	return info.Version
}

// Rows 按固定顺序返回非空字段，供表格输出
func (info Info) Rows() [][2]string {
	all := [][2]string{
		{"version", info.Version},
		{"commit", info.Commit},
		{"treeState", info.TreeState},
		{"buildDate", info.BuildDate},
		{"goVersion", info.GoVersion},
		{"platform", info.Platform},
	}
	rows := all[:0]
	for _, r := range all {
		if r[1] != "" {
			rows = append(rows, r)
		}
	}
	return rows
}

// Text 以对齐的表格形式返回构建信息
func (info Info) Text() string {
	table := uitable.New()
	table.RightAlign(0)
	table.MaxColWidth = 80
	table.Separator = " "
	for _, r := range info.Rows() {
		table.AddRow(r[0]+":", r[1])
	}
	return table.String()
}

// UserAgent 返回客户端默认的 User-Agent，形如 "borders-go/v1.2.0 (linux/amd64)"
func UserAgent() string {
	info := Get()
	return fmt.Sprintf("%s/%s (%s)", product, info.Version, info.Platform)
}

// stripPlaceholder 去掉未经 git archive 替换的 $Format 占位符
func stripPlaceholder(s string) string {
	i := strings.Index(s, "$Format")
	if i < 0 {
		return s
	}
	return strings.TrimRight(s[:i], "+")
}
