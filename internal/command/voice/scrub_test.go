package voice

import "testing"

func TestScrubMentions(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "привет всем", "привет всем"},
		{"user mention", "hello <@123456789> there", "hello there"},
		{"nickname mention", "<@!123456789> hi", "hi"},
		{"role mention", "ping <@&987654321>", "ping"},
		{"channel mention", "see <#555> for details", "see for details"},
		{"custom emoji", "nice <a:party:42> work <:thumbs:43>", "nice work"},
		{"only mentions", "<@1> <#2> <@&3>", ""},
		{"whitespace collapsed", "  too   many\tspaces ", "too many spaces"},
		{"angle brackets kept", "a < b > c", "a < b > c"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ScrubMentions(tc.in); got != tc.want {
				t.Errorf("ScrubMentions(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
