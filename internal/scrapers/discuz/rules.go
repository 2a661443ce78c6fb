package discuz

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	alreadySignedPhrase = "您今天已经签到过了"
	notSignedPhrase     = "您今天还没有签到"
	checkinAnchor       = `a[href*="operation=qiandao"]`

	shortResponseRunes = 100
	maxReasonRunes     = 500
)

// page is a fetched body together with its parsed document, rules may use either.
type page struct {
	body string
	doc  *goquery.Document
}

func newPage(body string) page {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		// html.Parse only fails on reader errors, which a strings.Reader never returns
		doc, _ = goquery.NewDocumentFromReader(strings.NewReader(""))
	}
	return page{body: body, doc: doc}
}

func (p page) has(s string) bool {
	return strings.Contains(p.body, s)
}

func (p page) hasAll(s ...string) bool {
	for _, v := range s {
		if !p.has(v) {
			return false
		}
	}
	return true
}

type stateRule struct {
	name  string
	match func(p page) bool
	state CheckinState
}

var stateRules = []stateRule{
	{
		name:  "already-signed-phrase",
		match: func(p page) bool { return p.has(alreadySignedPhrase) },
		state: AlreadySigned,
	},
	{
		name:  "checkin-anchor",
		match: func(p page) bool { return p.doc.Find(checkinAnchor).Length() > 0 },
		state: NotSigned,
	},
	{
		name:  "not-signed-phrase",
		match: func(p page) bool { return p.has(notSignedPhrase) },
		state: NotSigned,
	},
	{
		name:  "streak-counter",
		match: func(p page) bool { return p.hasAll("签到", "连续签到") },
		state: AlreadySigned,
	},
}

func classifyPage(p page) (CheckinState, string) {
	for _, r := range stateRules {
		if r.match(p) {
			return r.state, r.name
		}
	}
	return Unknown, ""
}

// ClassifyPage returns the check-in state shown by the body of the sign page.
func ClassifyPage(body string) CheckinState {
	state, _ := classifyPage(newPage(body))
	return state
}

type identityRule struct {
	name     string
	match    func(p page) bool
	identify func(p page) Identity
}

var identityRules = []identityRule{
	{
		name: "profile-marker",
		match: func(p page) bool {
			return p.has("个人资料") || p.has("profile") || p.doc.Find("h2.mbn").Length() > 0
		},
		identify: func(p page) Identity {
			return Identity{Name: profileName(p), Authenticated: true}
		},
	},
	{
		name:  "login-form",
		match: func(p page) bool { return p.hasAll("登录", "密码") },
		identify: func(p page) Identity {
			return Identity{Name: UnknownUser, Authenticated: false}
		},
	},
}

func profileName(p page) string {
	heading := p.doc.Find("h2.mbn").First()
	if heading.Length() == 0 {
		return UnknownUser
	}
	name := strings.TrimSpace(heading.Text())
	if strings.Contains(name, "(") && strings.Contains(name, ")") {
		name = strings.TrimSpace(name[:strings.Index(name, "(")])
	}
	if name == "" {
		return UnknownUser
	}
	return name
}

func identifyPage(p page) (Identity, string) {
	for _, r := range identityRules {
		if r.match(p) {
			return r.identify(p), r.name
		}
	}
	return Identity{Name: UnknownUser, Authenticated: true}, "fallback"
}

// Verdict is the classification of the response to the check-in action.
type Verdict int

const (
	VerdictFailure Verdict = iota
	VerdictSuccess
	// VerdictAmbiguous means the response alone can't tell, the state has to
	// be checked again.
	VerdictAmbiguous
)

func (v Verdict) String() string {
	switch v {
	case VerdictSuccess:
		return "success"
	case VerdictAmbiguous:
		return "ambiguous"
	default:
		return "failure"
	}
}

type ResultClass struct {
	Verdict Verdict
	Via     Via
	Keyword string
	Rule    string
}

func successKeywords(pointName string) []string {
	keywords := []string{
		"签到成功", "签到完成", "打卡成功", "签到奖励", "恭喜", "获得", "奖励",
		"连续签到", "今日签到", "积分",
	}
	if pointName != "" {
		keywords = append(keywords, pointName)
	}
	return append(keywords, "经验", "金币", "您获得了")
}

var errorKeywords = []string{"失败", "错误", "异常", "请重试"}

type resultRule struct {
	name     string
	classify func(body, pointName string) (ResultClass, bool)
}

var resultRules = []resultRule{
	{
		name: "success-keyword",
		classify: func(body, pointName string) (ResultClass, bool) {
			for _, k := range successKeywords(pointName) {
				if strings.Contains(body, k) {
					return ResultClass{Verdict: VerdictSuccess, Via: ViaKeyword, Keyword: k}, true
				}
			}
			return ResultClass{}, false
		},
	},
	{
		name: "already-signed",
		classify: func(body, _ string) (ResultClass, bool) {
			if strings.Contains(body, alreadySignedPhrase) || strings.Contains(body, "今天已经签到") {
				return ResultClass{Verdict: VerdictSuccess, Via: ViaAlreadySigned}, true
			}
			return ResultClass{}, false
		},
	},
	{
		name: "short-response",
		classify: func(body, _ string) (ResultClass, bool) {
			if utf8.RuneCountInString(strings.TrimSpace(body)) < shortResponseRunes {
				return ResultClass{Verdict: VerdictAmbiguous}, true
			}
			return ResultClass{}, false
		},
	},
	{
		name: "checkin-context",
		classify: func(body, _ string) (ResultClass, bool) {
			for _, k := range errorKeywords {
				if strings.Contains(body, k) {
					return ResultClass{}, false
				}
			}
			for _, k := range []string{"签到", "每日", "连续"} {
				if strings.Contains(body, k) {
					return ResultClass{Verdict: VerdictAmbiguous}, true
				}
			}
			return ResultClass{}, false
		},
	},
}

// ClassifyResult classifies the body returned by the check-in action, the same
// input always yields the same class.
func ClassifyResult(body, pointName string) ResultClass {
	for _, r := range resultRules {
		class, ok := r.classify(body, pointName)
		if ok {
			class.Rule = r.name
			return class
		}
	}
	return ResultClass{Verdict: VerdictFailure, Rule: "no-match"}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
