package assistant

import "testing"

func TestIsLawyerSearchQuery(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"I need a lawyer for a property dispute", true},
		{"tell me about contract law", false},
		{"I need help, this is a criminal case", true},
		{"Can you RECOMMEND LAWYER in Lahore?", true},
		{"looking for someone to handle my divorce", true},
		{"what is a tax?", false},
		{"who can help with inheritance", true},
		{"hello", false},
	}
	for _, tc := range cases {
		if got := IsLawyerSearchQuery(tc.text); got != tc.want {
			t.Fatalf("IsLawyerSearchQuery(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}
