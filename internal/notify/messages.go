package notify

import (
	"fmt"

	"acgfun-checkin/internal/assert"
	"acgfun-checkin/internal/components/chrono"
)

const (
	DefaultSiteName = "AcgFun"
	unknownUser     = "未知用户"
	timeLayout      = "2006-01-02 15:04:05"
)

type Message struct {
	Title string
	Body  string
}

// Messages renders the markdown messages sent at the end of a run.
type Messages struct {
	siteName string
	time     chrono.TimeAPI
}

func NewMessages(siteName string, time chrono.TimeAPI) Messages {
	assert.NotNil(time)
	if siteName == "" {
		siteName = DefaultSiteName
	}
	return Messages{siteName: siteName, time: time}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func (m Messages) footer() string {
	return fmt.Sprintf("---\n*%s自动签到系统*", m.siteName)
}

func (m Messages) SigninSuccess(user, detail string) Message {
	return Message{
		Title: fmt.Sprintf("🎉 %s签到成功", m.siteName),
		Body: fmt.Sprintf(`## 签到详情

**时间**: %s
**用户**: %s
**状态**: ✅ 签到完成

%s

%s`,
			m.time.Now().Format(timeLayout),
			orDefault(user, unknownUser),
			orDefault(detail, "今日签到任务已完成！"),
			m.footer(),
		),
	}
}

func (m Messages) SigninFailed(user, reason string) Message {
	return Message{
		Title: fmt.Sprintf("❌ %s签到失败", m.siteName),
		Body: fmt.Sprintf(`## 签到失败详情

**时间**: %s
**用户**: %s
**状态**: ❌ 签到失败

**错误信息**: %s

## 建议操作
- 检查网络连接
- 更新Cookie信息
- 查看详细日志

%s`,
			m.time.Now().Format(timeLayout),
			orDefault(user, unknownUser),
			orDefault(reason, "未知错误"),
			m.footer(),
		),
	}
}

func (m Messages) CookieExpired(user string) Message {
	return Message{
		Title: "🚨 Cookie失效警告",
		Body: fmt.Sprintf(`## Cookie失效提醒

**时间**: %s
**用户**: %s
**状态**: ⚠️ Cookie已失效

## 需要操作
1. 重新登录%s网站
2. 获取新的Cookie
3. 更新cookies.txt文件

## 获取Cookie方法
- 浏览器按F12打开开发者工具
- 在控制台输入: `+"`copy(document.cookie)`"+`
- 将复制的内容保存到cookies.txt

%s`,
			m.time.Now().Format(timeLayout),
			orDefault(user, unknownUser),
			m.siteName,
			m.footer(),
		),
	}
}
