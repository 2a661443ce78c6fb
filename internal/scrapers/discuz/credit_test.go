package discuz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCredits(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		balance int
		earned  map[string]int
	}{
		{
			name:    "marker with earnings",
			body:    `<div class="xi1 cl">天空石 120 (今日 +3)</div>`,
			balance: 120,
			earned:  map[string]int{DefaultPointName: 3},
		},
		{
			name:    "marker beats text search",
			body:    `<p>天空石: 999</p><div class="xi1 cl">天空石 120</div>`,
			balance: 120,
			earned:  map[string]int{},
		},
		{
			name:    "marker class must match exactly",
			body:    `<div class="cl xi1 y">天空石 999</div><div class="xi1 cl">天空石 5</div>`,
			balance: 5,
			earned:  map[string]int{},
		},
		{
			name:    "marker without the point name",
			body:    `<li><em class="xi1 cl">积分</em><span>天空石 88</span></li>`,
			balance: 88,
			earned:  map[string]int{},
		},
		{
			name:    "table cell next to the label",
			body:    `<table><tr><th>天空石</th><td>42</td></tr></table>`,
			balance: 42,
			earned:  map[string]int{},
		},
		{
			name:    "mention without a number moves on",
			body:    `<div><p>天空石</p></div><div><span>天空石 7</span></div>`,
			balance: 7,
			earned:  map[string]int{},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			info, err := ParseCredits(test.body, DefaultPointName)
			require.NoError(t, err)
			require.Equal(t, test.balance, info.Balances[DefaultPointName])
			require.Equal(t, test.earned, info.EarnedToday)
		})
	}
}

func TestParseCreditsNotFound(t *testing.T) {
	testCases := []string{
		``,
		`<div class="xi1 cl">金币 10</div>`,
		`<p>天空石</p>`,
	}
	for _, body := range testCases {
		_, err := ParseCredits(body, DefaultPointName)
		require.ErrorIs(t, err, ErrCreditNotFound, body)
	}
}
