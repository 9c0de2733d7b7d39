package apiclient

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"qanunai/pkg/domain"
)

// lawyerRecord is the union of every lawyer shape the backend returns:
// directory entries, profile detail and lawyer-search matches.
type lawyerRecord struct {
	ID              flexInt         `json:"id"`
	Email           string          `json:"email"`
	FullName        string          `json:"full_name"`
	Name            string          `json:"name"`
	Title           string          `json:"title"`
	Firm            string          `json:"firm"`
	City            string          `json:"city"`
	Jurisdiction    string          `json:"jurisdiction"`
	Location        string          `json:"location"`
	Specializations []string        `json:"specializations"`
	Specialties     []string        `json:"specialties"`
	Primary         string          `json:"primary_specialization"`
	Rating          flexFloat       `json:"rating"`
	ReviewCount     *flexInt        `json:"review_count"`
	ReviewCountAlt  *flexInt        `json:"reviewCount"`
	HourlyRate      *flexFloat      `json:"hourly_rate"`
	HourlyRateAlt   *flexFloat      `json:"hourlyRate"`
	ResponseTime    string          `json:"response_time"`
	ResponseTimeAlt string          `json:"responseTime"`
	Experience      *flexInt        `json:"experience_years"`
	ExperienceAlt   *flexInt        `json:"experience"`
	Languages       []string        `json:"languages"`
	ProfileImage    string          `json:"profile_image"`
	Avatar          string          `json:"avatar"`
	Verified        *bool           `json:"verified"`
	Bio             string          `json:"bio"`
	Status          string          `json:"status"`
	Similarity      flexFloat       `json:"similarity_score"`
	MatchReason     string          `json:"match_reason"`
}

func (r lawyerRecord) lawyer() domain.Lawyer {
	l := domain.Lawyer{
		ID:              int64(r.ID),
		Email:           r.Email,
		FullName:        firstNonEmpty(r.FullName, r.Name, "Unknown Lawyer"),
		Title:           r.Title,
		Firm:            r.Firm,
		City:            r.City,
		Jurisdiction:    firstNonEmpty(r.Jurisdiction, r.Location),
		Specializations: r.Specializations,
		Rating:          float64(r.Rating),
		ResponseTime:    firstNonEmpty(r.ResponseTime, r.ResponseTimeAlt),
		Languages:       r.Languages,
		ProfileImage:    firstNonEmpty(r.ProfileImage, r.Avatar),
		Verified:        true,
		Bio:             r.Bio,
		Status:          r.Status,
	}
	if len(l.Specializations) == 0 {
		l.Specializations = r.Specialties
	}
	if len(l.Specializations) == 0 && r.Primary != "" {
		l.Specializations = []string{r.Primary}
	}
	if l.Specializations == nil {
		l.Specializations = []string{}
	}
	if v := firstFloat(r.HourlyRate, r.HourlyRateAlt); v != nil {
		l.HourlyRate = float64(*v)
	}
	if v := firstInt(r.ReviewCount, r.ReviewCountAlt); v != nil {
		l.ReviewCount = int(*v)
	}
	if v := firstInt(r.Experience, r.ExperienceAlt); v != nil {
		l.ExperienceYears = int(*v)
	}
	if r.Verified != nil {
		l.Verified = *r.Verified
	}
	return l
}

func (r lawyerRecord) result() domain.LawyerResult {
	return domain.LawyerResult{
		Lawyer:          r.lawyer(),
		SimilarityScore: float64(r.Similarity),
		MatchReason:     r.MatchReason,
	}
}

func normalizeLawyers(records []lawyerRecord) []domain.Lawyer {
	out := make([]domain.Lawyer, 0, len(records))
	for _, r := range records {
		out = append(out, r.lawyer())
	}
	return out
}

func normalizeResults(records []lawyerRecord) []domain.LawyerResult {
	if len(records) == 0 {
		return nil
	}
	out := make([]domain.LawyerResult, 0, len(records))
	for _, r := range records {
		out = append(out, r.result())
	}
	return out
}

type citationRecord struct {
	Source     domain.CitationSource `json:"source"`
	ID         flexString            `json:"id"`
	ChunkIndex *int                  `json:"chunk_index"`
	Snippet    string                `json:"snippet"`
	Score      flexFloat             `json:"score"`
}

func normalizeCitations(records []citationRecord) []domain.Citation {
	if len(records) == 0 {
		return nil
	}
	out := make([]domain.Citation, 0, len(records))
	for _, r := range records {
		out = append(out, domain.Citation{
			Source:     r.Source,
			ID:         string(r.ID),
			ChunkIndex: r.ChunkIndex,
			Snippet:    r.Snippet,
			Score:      float64(r.Score),
		})
	}
	return out
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexFloat accepts a JSON number or a numeric string ("150.00" from decimal fields).
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	if strings.TrimSpace(string(s)) == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// flexInt accepts a JSON integer or a numeric string.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var v flexFloat
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	*f = flexInt(v)
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstFloat(values ...*flexFloat) *flexFloat {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstInt(values ...*flexInt) *flexInt {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
