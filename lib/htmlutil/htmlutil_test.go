package htmlutil

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestResolveHref(t *testing.T) {
	base, err := url.Parse("https://acgfun.art/")
	require.NoError(t, err)

	table := []struct {
		href     string
		expected string
	}{
		{
			href:     "plugin.php?id=k_misign:sign&operation=qiandao&formhash=abc",
			expected: "https://acgfun.art/plugin.php?id=k_misign:sign&operation=qiandao&formhash=abc",
		},
		{
			href:     "/plugin.php?id=k_misign:sign&amp;operation=qiandao",
			expected: "https://acgfun.art/plugin.php?id=k_misign:sign&operation=qiandao",
		},
		{
			href:     "https://mirror.acgfun.art/plugin.php?operation=qiandao",
			expected: "https://mirror.acgfun.art/plugin.php?operation=qiandao",
		},
	}

	for _, row := range table {
		link, err := ResolveHref(base, row.href)
		require.NoError(t, err)
		require.Equal(t, row.expected, link.String())
	}
}

func TestGetAnchors(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<div>
			<a href="plugin.php?id=k_misign:sign&operation=qiandao">  签到
				领奖励 </a>
			<a>no href</a>
		</div>`))
	require.NoError(t, err)

	base, _ := url.Parse("https://acgfun.art/")
	anchors := GetAnchors(base, doc.Find("a"))
	require.Len(t, anchors, 1)
	require.Equal(t, "签到 领奖励", anchors[0].Name)
	require.Equal(t, "qiandao", anchors[0].Url.Query().Get("operation"))
}

func TestIntegers(t *testing.T) {
	require.Equal(t, []int{1234, 5}, Integers("天空石: 1234 (今日 +5)"))
	require.Empty(t, Integers("天空石"))
}

func TestCleanText(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{"签到\n\t\t领奖励", "签到 领奖励"},
		{"  天空石:\r\n 12  ", "天空石: 12"},
		{"a\u200bb", "ab"},
		{"", ""},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, CleanText(test.in), test.in)
	}
}
