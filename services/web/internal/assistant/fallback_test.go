package assistant

import (
	"strings"
	"testing"

	"qanunai/pkg/domain"
)

func TestFallbackDocumentRisk(t *testing.T) {
	doc := &domain.DocumentContext{ID: 1, Name: "Lease.pdf", RiskLevel: domain.RiskHigh, RiskCount: 3}
	got := Fallback("what are the risks?", doc)
	if !strings.Contains(got, "HIGH") || !strings.Contains(got, "3") {
		t.Fatalf("expected HIGH and 3 in %q", got)
	}
	if !strings.HasPrefix(got, `"Lease.pdf" has been assessed as HIGH risk with 3 identified issues.`) {
		t.Fatalf("unexpected risk reply %q", got)
	}
}

func TestFallbackDocumentIntents(t *testing.T) {
	analyzed := &domain.DocumentContext{ID: 1, Name: "NDA", Summary: "Mutual NDA.", RiskLevel: domain.RiskMedium, RiskCount: 2}
	pending := &domain.DocumentContext{ID: 2, Name: "Draft"}
	cases := []struct {
		name string
		text string
		doc  *domain.DocumentContext
		want string
	}{
		{"summary", "Give me a summary", analyzed, "Here's a summary of \"NDA\":\n\nMutual NDA."},
		{"summary pending", "what is this about", pending, "\"Draft\" is currently being analyzed."},
		{"risk pending", "any concerns?", pending, "The risk analysis for \"Draft\" is still in progress."},
		{"recommend medium", "what do you recommend", analyzed, "\"NDA\" has MEDIUM risk."},
		{"recommend high", "should i sign", &domain.DocumentContext{Name: "X", RiskLevel: domain.RiskHigh}, "Given the HIGH risk level of \"X\""},
		{"recommend unknown", "any advice", pending, "\"Draft\" appears to be LOW risk."},
		{"explain", "explain clause 4", analyzed, "I'd be happy to explain any part of \"NDA\"."},
		{"default", "hmm", analyzed, "I'm here to help you understand \"NDA\"."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Fallback(tc.text, tc.doc); !strings.HasPrefix(got, tc.want) {
				t.Fatalf("Fallback(%q) = %q, want prefix %q", tc.text, got, tc.want)
			}
		})
	}
}

func TestFallbackGeneralTableOrder(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"review my contract risk", generalReplies[0].reply},
		{"is it dangerous", generalReplies[1].reply},
		{"need an attorney", generalReplies[2].reply},
		{"how to start", generalReplies[3].reply},
		{"pricing?", generalReplies[4].reply},
		{"hey", generalReplies[5].reply},
		{"much appreciated", generalReplies[6].reply},
		{"xyz", capabilityMenu},
	}
	for _, tc := range cases {
		if got := Fallback(tc.text, nil); got != tc.want {
			t.Fatalf("Fallback(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestFocusAnnouncement(t *testing.T) {
	got := FocusAnnouncement(domain.DocumentContext{Name: "Lease.pdf", RiskLevel: domain.RiskLow})
	want := "I'm now focused on \"Lease.pdf\". This document has been analyzed and rated as LOW risk with 0 issues found.\n\nHow can I help you understand this document?"
	if got != want {
		t.Fatalf("got %q", got)
	}
	got = FocusAnnouncement(domain.DocumentContext{Name: "New.pdf"})
	if !strings.Contains(got, "This document is being analyzed.") {
		t.Fatalf("got %q", got)
	}
}
