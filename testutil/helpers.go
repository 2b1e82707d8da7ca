// =============================================================================
// 🧪 测试辅助函数
// =============================================================================
// 提供通用的测试上下文、校验结果断言与蓝图文件辅助
//
// 使用方法:
//
//	ctx := testutil.TestContext(t)
//	testutil.AssertErrorCodes(t, result.Validation, compiler.CodeInvalidEdge)
//	path := testutil.WriteBlueprint(t, bp)
// =============================================================================
package testutil

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/botflow/blueprint"
	"github.com/BaSui01/botflow/compiler"
)

// =============================================================================
// 🎯 上下文辅助
// =============================================================================

// TestContext 返回带超时的测试上下文
func TestContext(t *testing.T) context.Context {
	return TestContextWithTimeout(t, 30*time.Second)
}

// TestContextWithTimeout 返回带自定义超时的测试上下文
func TestContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// =============================================================================
// 🔍 校验结果断言
// =============================================================================

// ErrorCodes 返回校验错误码（排序去重）
func ErrorCodes(vr compiler.ValidationResult) []string {
	codes := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		codes = append(codes, e.Code)
	}
	return uniqueSorted(codes)
}

// WarningCodes 返回校验警告码（排序去重）
func WarningCodes(vr compiler.ValidationResult) []string {
	codes := make([]string, 0, len(vr.Warnings))
	for _, w := range vr.Warnings {
		codes = append(codes, w.Code)
	}
	return uniqueSorted(codes)
}

// AssertErrorCodes 断言错误码集合与 expected 完全一致
func AssertErrorCodes(t *testing.T, vr compiler.ValidationResult, expected ...string) {
	t.Helper()
	assert.Equal(t, uniqueSorted(expected), ErrorCodes(vr), "validation error codes")
	assert.Equal(t, len(expected) == 0, vr.Valid, "valid flag")
}

// AssertWarningCodes 断言警告码集合与 expected 完全一致
func AssertWarningCodes(t *testing.T, vr compiler.ValidationResult, expected ...string) {
	t.Helper()
	assert.Equal(t, uniqueSorted(expected), WarningCodes(vr), "validation warning codes")
}

func uniqueSorted(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// =============================================================================
// 🔄 异步断言
// =============================================================================

// AssertEventuallyTrue 轮询直到 condition 为真或超时
func AssertEventuallyTrue(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()
	assert.Eventually(t, condition, timeout, 10*time.Millisecond)
}

// =============================================================================
// 📦 数据辅助
// =============================================================================

// MustJSON 序列化 v，失败时 panic
func MustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// WriteBlueprint 将蓝图写入临时目录下的 JSON 文件并返回路径
func WriteBlueprint(t *testing.T, bp *blueprint.Blueprint) string {
	t.Helper()
	data, err := bp.ToJSON()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "blueprint.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
