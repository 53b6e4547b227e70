package errcode

// 错误码约定：
// - 0：无错误
// - 4xxx：任务无法继续但不是系统故障（例如卡片已被删除）
// - 5xxx：系统错误（需要中断流程）
const (
	OK              = 0
	ResourceMissing = 4004
	SystemError     = 5000
)

// Message 返回错误码的默认说明，通知里没有更具体的信息时使用。
func Message(code int) string {
	switch code {
	case OK:
		return ""
	case ResourceMissing:
		return "resource missing"
	default:
		return "system error"
	}
}
