package domain

import "time"

type Role string

const (
	RoleUser   Role = "USER"
	RoleLawyer Role = "LAWYER"
)

// ParseRole returns the role for s, or "" when s is not a known role.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleUser, RoleLawyer:
		return Role(s)
	default:
		return ""
	}
}

type LawyerStatus string

const (
	LawyerPending  LawyerStatus = "PENDING"
	LawyerVerified LawyerStatus = "VERIFIED"
	LawyerRejected LawyerStatus = "REJECTED"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// User is the account record returned by the backend auth endpoints.
type User struct {
	ID           int64        `json:"id"`
	Email        string       `json:"email"`
	Role         Role         `json:"role"`
	FirstName    string       `json:"firstName,omitempty"`
	LastName     string       `json:"lastName,omitempty"`
	FullName     string       `json:"full_name,omitempty"`
	IsVerified   bool         `json:"is_verified"`
	LawyerStatus LawyerStatus `json:"lawyer_status,omitempty"`
}

// Session is the read-only view of the authentication state used by the gate.
type Session struct {
	Authenticated bool         `json:"isAuthenticated"`
	Role          Role         `json:"role,omitempty"`
	Verified      bool         `json:"isVerified"`
	LawyerStatus  LawyerStatus `json:"lawyerStatus,omitempty"`
}

// RouteGuard is the static protection of one route.
type RouteGuard struct {
	AllowedRoles    []Role
	AllowUnverified bool
	AllowPending    bool
}

// Allows reports whether role is in the guard's allowed set.
func (g RouteGuard) Allows(role Role) bool {
	for _, r := range g.AllowedRoles {
		if r == role {
			return true
		}
	}
	return false
}

// AuthResult is the payload of a successful login or registration.
type AuthResult struct {
	AccessToken          string `json:"accessToken"`
	RefreshToken         string `json:"refreshToken"`
	User                 User   `json:"user"`
	RequiresVerification bool   `json:"requiresVerification,omitempty"`
}

// LawyerRegistration carries the extra fields a lawyer supplies at sign-up.
type LawyerRegistration struct {
	Phone                 string `json:"phone,omitempty"`
	City                  string `json:"city,omitempty"`
	Address               string `json:"address,omitempty"`
	PrimarySpecialization string `json:"primary_specialization,omitempty"`
	BarCouncilNumber      string `json:"bar_council_number,omitempty"`
	ExperienceYears       int    `json:"experience_years,omitempty"`
	Firm                  string `json:"firm,omitempty"`
	Bio                   string `json:"bio,omitempty"`
}

// Registration is the sign-up form.
type Registration struct {
	Email           string              `json:"email"`
	Password        string              `json:"password"`
	ConfirmPassword string              `json:"confirmPassword"`
	FirstName       string              `json:"firstName"`
	LastName        string              `json:"lastName"`
	Role            Role                `json:"role"`
	Lawyer          *LawyerRegistration `json:"lawyer,omitempty"`
}

type TurnRole string

const (
	TurnUser      TurnRole = "user"
	TurnAssistant TurnRole = "assistant"
)

// MessageTypeLawyerSearch tags assistant turns produced by the lawyer-search flow.
const MessageTypeLawyerSearch = "lawyer-search"

type CitationSource string

const (
	SourceDocuments CitationSource = "documents"
	SourceLaws      CitationSource = "laws"
)

type Citation struct {
	Source     CitationSource `json:"source"`
	ID         string         `json:"id"`
	ChunkIndex *int           `json:"chunk_index,omitempty"`
	Snippet    string         `json:"snippet"`
	Score      float64        `json:"score"`
}

// LawyerResult is one match returned by the lawyer-search assistant.
type LawyerResult struct {
	Lawyer
	SimilarityScore float64 `json:"similarity_score"`
	MatchReason     string  `json:"match_reason,omitempty"`
}

// Turn is one entry of an assistant conversation.
type Turn struct {
	ID                string         `json:"id"`
	Role              TurnRole       `json:"role"`
	Content           string         `json:"content"`
	Timestamp         time.Time      `json:"timestamp"`
	Citations         []Citation     `json:"citations,omitempty"`
	Lawyers           []LawyerResult `json:"lawyers,omitempty"`
	FollowUpQuestions []string       `json:"followUpQuestions,omitempty"`
	MessageType       string         `json:"messageType,omitempty"`
}

// DocumentContext is the document an assistant conversation is about.
type DocumentContext struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Summary   string    `json:"summary,omitempty"`
	RiskLevel RiskLevel `json:"riskLevel,omitempty"`
	RiskCount int       `json:"riskCount,omitempty"`
}

// ChatReply is the backend answer of the general and document chat endpoints.
type ChatReply struct {
	Content    string     `json:"content"`
	SessionID  string     `json:"session_id"`
	Citations  []Citation `json:"citations,omitempty"`
	Confidence string     `json:"confidence,omitempty"`
	Disclaimer string     `json:"disclaimer,omitempty"`
}

// LawyerSearchReply is the backend answer of the lawyer-search chat endpoint.
type LawyerSearchReply struct {
	Content           string         `json:"content"`
	SessionID         string         `json:"session_id"`
	Lawyers           []LawyerResult `json:"lawyers,omitempty"`
	FollowUpQuestions []string       `json:"follow_up_questions,omitempty"`
}

// Lawyer is the canonical lawyer record; every backend variant is mapped onto it.
type Lawyer struct {
	ID              int64    `json:"id"`
	Email           string   `json:"email,omitempty"`
	FullName        string   `json:"full_name"`
	Title           string   `json:"title,omitempty"`
	Firm            string   `json:"firm,omitempty"`
	City            string   `json:"city,omitempty"`
	Jurisdiction    string   `json:"jurisdiction,omitempty"`
	Specializations []string `json:"specializations"`
	Rating          float64  `json:"rating"`
	ReviewCount     int      `json:"review_count"`
	HourlyRate      float64  `json:"hourly_rate"`
	ResponseTime    string   `json:"response_time,omitempty"`
	ExperienceYears int      `json:"experience_years"`
	Languages       []string `json:"languages,omitempty"`
	ProfileImage    string   `json:"profile_image,omitempty"`
	Verified        bool     `json:"verified"`
	Bio             string   `json:"bio,omitempty"`
	Status          string   `json:"status,omitempty"`
}

type Document struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	FileURL    string    `json:"file,omitempty"`
	Status     string    `json:"status,omitempty"`
	RiskLevel  RiskLevel `json:"risk_level,omitempty"`
	RiskCount  int       `json:"risk_count,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type KeyFinding struct {
	Title          string    `json:"title"`
	Severity       RiskLevel `json:"severity"`
	Description    string    `json:"description"`
	Recommendation string    `json:"recommendation"`
	Clause         string    `json:"clause"`
}

type KeyTerm struct {
	Term  string `json:"term"`
	Value string `json:"value"`
}

type Clause struct {
	Type        string    `json:"type"`
	Content     string    `json:"content"`
	RiskLevel   RiskLevel `json:"risk_level"`
	Explanation string    `json:"explanation"`
}

type DocumentMetrics struct {
	Clarity      float64 `json:"clarity"`
	Fairness     float64 `json:"fairness"`
	Completeness float64 `json:"completeness"`
	Complexity   float64 `json:"complexity"`
}

// Analysis is the AI risk analysis of one document.
type Analysis struct {
	ID              int64           `json:"id"`
	DocumentID      int64           `json:"document"`
	Summary         string          `json:"summary"`
	RiskScore       float64         `json:"risk_score"`
	RiskLevel       RiskLevel       `json:"risk_level"`
	KeyFindings     []KeyFinding    `json:"key_findings"`
	KeyTerms        []KeyTerm       `json:"key_terms"`
	Recommendations []string        `json:"recommendations"`
	Clauses         []Clause        `json:"clauses_detected"`
	Metrics         DocumentMetrics `json:"document_metrics"`
	AnalyzedAt      time.Time       `json:"analyzed_at"`
}

type Consultation struct {
	ID          int64     `json:"id"`
	LawyerID    int64     `json:"lawyer_id,omitempty"`
	ClientID    int64     `json:"client_id,omitempty"`
	DocumentID  *int64    `json:"document_id,omitempty"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// ConsultationRequest is the booking form sent to a lawyer.
type ConsultationRequest struct {
	LawyerID    int64  `json:"lawyer_id"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	DocumentID  *int64 `json:"document_id,omitempty"`
}

// DirectMessage is one message of user-to-user messaging.
type DirectMessage struct {
	ID             int64     `json:"id"`
	SenderID       int64     `json:"sender_id"`
	ReceiverID     int64     `json:"receiver_id"`
	ConsultationID *int64    `json:"consultation_id,omitempty"`
	Content        string    `json:"content"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConversationSummary is one row of the messaging inbox.
type ConversationSummary struct {
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	LastMessage string    `json:"last_message"`
	LastAt      time.Time `json:"last_message_at"`
	UnreadCount int       `json:"unread_count"`
}

type LegalUpdate struct {
	ID          int64    `json:"id"`
	Headline    string   `json:"headline"`
	Summary     string   `json:"summary"`
	Source      string   `json:"source"`
	PublishDate string   `json:"publish_date"`
	Category    string   `json:"category"`
	Importance  string   `json:"importance"`
	ReadTime    string   `json:"read_time"`
	URL         string   `json:"url,omitempty"`
	Tags        []string `json:"tags"`
}

// AdminUser is the operator account of the admin portal.
type AdminUser struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
}
