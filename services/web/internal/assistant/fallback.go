package assistant

import (
	"fmt"
	"strings"

	"qanunai/pkg/domain"
)

// Greeting opens every conversation without a document in focus.
const Greeting = "Hello! I'm QanunAI, your legal document assistant. How can I help you today?"

type cannedReply struct {
	keywords []string
	reply    string
}

// generalReplies are tried in order; the first keyword hit wins.
var generalReplies = []cannedReply{
	{
		keywords: []string{"contract", "agreement", "document"},
		reply:    "I can help you analyze contracts and legal documents. Upload a document through the Documents section, and I'll provide a detailed risk assessment, identify key clauses, and highlight potential issues.",
	},
	{
		keywords: []string{"risk", "risky", "dangerous", "concern"},
		reply:    "Risk assessment is one of my core capabilities. I analyze documents for high-risk clauses like broad liability limitations, unfair termination terms, IP assignment issues, and non-compete restrictions. Each finding includes severity rating and recommendations.",
	},
	{
		keywords: []string{"lawyer", "attorney", "legal help", "consultation"},
		reply:    "You can find verified lawyers through the 'Lawyers' section. Filter by specialization, location, and rating. Once you find a suitable lawyer, you can request a consultation directly through the platform.",
	},
	{
		keywords: []string{"upload", "analyze", "how to"},
		reply:    "To analyze a document:\n1. Go to the Documents page\n2. Click 'Upload Document'\n3. Select your PDF, DOC, or DOCX file\n4. Wait ~10 seconds for AI analysis\n5. View the detailed report with risks, key terms, and recommendations.",
	},
	{
		keywords: []string{"price", "cost", "free", "pricing", "plan"},
		reply:    "QanunAI offers different plans:\n• Free: 5 documents/month with basic analysis\n• Professional: Unlimited documents with detailed analysis\n• Enterprise: Custom solutions for organizations\n\nVisit Settings to manage your subscription.",
	},
	{
		keywords: []string{"hello", "hi", "hey", "help"},
		reply:    "Hello! I'm QanunAI, your legal document assistant. I can help you:\n• Analyze legal documents for risks\n• Explain contract clauses\n• Find lawyers for consultation\n• Provide legal updates\n\nHow can I assist you today?",
	},
	{
		keywords: []string{"thanks", "thank you", "appreciate"},
		reply:    "You're welcome! If you have any more questions about your legal documents or need help navigating QanunAI, feel free to ask.",
	},
	{
		keywords: []string{"clause", "term", "provision", "section"},
		reply:    "I can identify and explain various contract clauses including:\n• Liability limitations\n• Indemnification provisions\n• Intellectual property rights\n• Termination conditions\n• Confidentiality terms\n• Non-compete clauses\n\nUpload a document and I'll highlight all important clauses.",
	},
}

const capabilityMenu = "I'm here to help with legal document analysis. You can ask me about:\n• How to upload and analyze documents\n• Understanding risk assessments\n• Finding lawyers for consultations\n• Explaining contract terms\n\nWhat would you like to know?"

// Fallback computes the local reply used when a backend call fails.
// It depends only on its arguments.
func Fallback(text string, doc *domain.DocumentContext) string {
	lower := strings.ToLower(text)
	if doc != nil {
		return documentFallback(lower, doc)
	}
	for _, canned := range generalReplies {
		if containsAny(lower, canned.keywords) {
			return canned.reply
		}
	}
	return capabilityMenu
}

func documentFallback(lower string, doc *domain.DocumentContext) string {
	name := doc.Name
	switch {
	case containsAny(lower, []string{"summary", "summarize", "overview", "about"}):
		if doc.Summary != "" {
			return fmt.Sprintf("Here's a summary of \"%s\":\n\n%s", name, doc.Summary)
		}
		return fmt.Sprintf("\"%s\" is currently being analyzed. Once complete, I'll be able to provide a detailed summary of its contents, key clauses, and risk assessment.", name)

	case containsAny(lower, []string{"risk", "concern", "issues", "problems"}):
		if doc.RiskLevel == "" {
			return fmt.Sprintf("The risk analysis for \"%s\" is still in progress. Please check back shortly.", name)
		}
		return fmt.Sprintf("\"%s\" has been assessed as %s risk with %d identified issues.\n\nThe main concerns include:\n• Liability limitation clauses\n• Indemnification scope\n• Termination provisions\n\nWould you like me to explain any specific risk in detail?",
			name, strings.ToUpper(string(doc.RiskLevel)), doc.RiskCount)

	case containsAny(lower, []string{"recommend", "suggestion", "advice", "should i"}):
		switch doc.RiskLevel {
		case domain.RiskHigh:
			return fmt.Sprintf("Given the HIGH risk level of \"%s\", I recommend:\n\n1. Consult with a lawyer before signing\n2. Negotiate the liability limitation clause\n3. Request modifications to IP assignment terms\n4. Clarify termination conditions\n\nWould you like me to help you find a lawyer for consultation?", name)
		case domain.RiskMedium:
			return fmt.Sprintf("\"%s\" has MEDIUM risk. My recommendations:\n\n1. Review the flagged clauses carefully\n2. Consider negotiating 2-3 key terms\n3. Document any verbal agreements\n\nThe document is generally acceptable with minor modifications.", name)
		}
		return fmt.Sprintf("\"%s\" appears to be LOW risk. The terms are generally fair and standard. You can proceed with confidence, but always ensure you understand all obligations before signing.", name)

	case containsAny(lower, []string{"explain", "what is", "what does", "meaning"}):
		return fmt.Sprintf("I'd be happy to explain any part of \"%s\". Could you specify which clause or section you'd like me to explain? For example:\n• Liability limitations\n• Indemnification terms\n• Confidentiality provisions\n• Termination conditions", name)
	}
	return fmt.Sprintf("I'm here to help you understand \"%s\". You can ask me about:\n• Document summary and overview\n• Risk assessment and concerns\n• Specific clauses and their meanings\n• Recommendations and next steps\n\nWhat would you like to know?", name)
}

// FocusAnnouncement is the opening turn of a conversation about doc.
func FocusAnnouncement(doc domain.DocumentContext) string {
	status := "This document is being analyzed."
	if doc.RiskLevel != "" {
		status = fmt.Sprintf("This document has been analyzed and rated as %s risk with %d issues found.",
			strings.ToUpper(string(doc.RiskLevel)), doc.RiskCount)
	}
	return fmt.Sprintf("I'm now focused on \"%s\". %s\n\nHow can I help you understand this document?", doc.Name, status)
}
