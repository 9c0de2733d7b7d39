package server

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"qanunai/pkg/domain"
	"qanunai/services/web/internal/apiclient"
	"qanunai/services/web/internal/notify"
	"qanunai/services/web/internal/querycache"
	"qanunai/services/web/internal/validate"
)

type analyzeRequest struct {
	Force *bool `json:"force"`
}

type consultationStatusRequest struct {
	Status string `json:"status"`
}

// documents

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request, c caller) {
	key := querycache.Key{Session: c.sid, Kind: querycache.Documents}
	docs, err := querycache.Get(r.Context(), s.queries, key, func(ctx context.Context) ([]domain.Document, error) {
		return s.api.ListDocuments(ctx, c.token())
	})
	if err != nil {
		writeBackendError(w, err)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": docs, "count": len(docs)})
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request, c caller) {
	r.Body = http.MaxBytesReader(w, r.Body, s.uploads.MaxBytes()+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required (field: file)")
		return
	}
	defer file.Close()
	if err := s.uploads.Check(header.Filename, file, header.Size); err != nil {
		s.audit(r, "web.document.upload", "rejected", "reason", err.Error())
		writeNotice(w, err, notify.UploadFailed(err))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		writeError(w, http.StatusInternalServerError, "read upload")
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = header.Filename
	}
	doc, err := s.api.UploadDocument(r.Context(), c.token(), header.Filename, name, file)
	if err != nil {
		writeNotice(w, err, notify.UploadFailed(err))
		return
	}
	s.queries.Invalidate(c.sid, querycache.Documents)
	writeJSON(w, http.StatusCreated, map[string]any{"document": doc, "notice": notify.DocumentUploaded})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request, c caller) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	key := querycache.Key{Session: c.sid, Kind: querycache.Document, ID: strconv.FormatInt(id, 10)}
	doc, err := querycache.Get(r.Context(), s.queries, key, func(ctx context.Context) (domain.Document, error) {
		return s.api.GetDocument(ctx, c.token(), id)
	})
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request, c caller) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.api.DeleteDocument(r.Context(), c.token(), id); err != nil {
		writeNotice(w, err, notify.DeleteFailed(err))
		return
	}
	s.invalidateDocument(c.sid, id)
	w.WriteHeader(http.StatusNoContent)
}

// handleAnalyzeDocument runs the AI analysis. Unless the body says
// otherwise the backend is asked to redo an existing analysis.
func (s *Server) handleAnalyzeDocument(w http.ResponseWriter, r *http.Request, c caller) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req analyzeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	force := true
	if req.Force != nil {
		force = *req.Force
	}
	analysis, err := s.api.AnalyzeDocumentAI(r.Context(), c.token(), id, force)
	if err != nil {
		writeNotice(w, err, notify.AnalysisFailed(err))
		return
	}
	s.invalidateDocument(c.sid, id)
	s.queries.Set(querycache.Key{Session: c.sid, Kind: querycache.DocumentAnalysis, ID: strconv.FormatInt(id, 10)}, analysis)
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleDocumentAnalysis(w http.ResponseWriter, r *http.Request, c caller) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	key := querycache.Key{Session: c.sid, Kind: querycache.DocumentAnalysis, ID: strconv.FormatInt(id, 10)}
	analysis, err := querycache.Get(r.Context(), s.queries, key, func(ctx context.Context) (domain.Analysis, error) {
		return s.api.DocumentAnalysis(ctx, c.token(), id)
	})
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) invalidateDocument(sid string, id int64) {
	idStr := strconv.FormatInt(id, 10)
	s.queries.InvalidateKey(querycache.Key{Session: sid, Kind: querycache.Document, ID: idStr})
	s.queries.InvalidateKey(querycache.Key{Session: sid, Kind: querycache.DocumentAnalysis, ID: idStr})
	s.queries.Invalidate(sid, querycache.Documents)
}

// lawyers

func (s *Server) handleListLawyers(w http.ResponseWriter, r *http.Request, c caller) {
	filter := apiclient.LawyerFilter{
		Specialization: strings.TrimSpace(r.URL.Query().Get("specialization")),
		City:           strings.TrimSpace(r.URL.Query().Get("city")),
	}
	lawyers, err := s.api.ListLawyers(r.Context(), c.token(), filter)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	if lawyers == nil {
		lawyers = []domain.Lawyer{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": lawyers, "count": len(lawyers)})
}

func (s *Server) handleGetLawyer(w http.ResponseWriter, r *http.Request, c caller) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	lawyer, err := s.api.GetLawyer(r.Context(), c.token(), id)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lawyer)
}

func (s *Server) handleMyLawyerProfile(w http.ResponseWriter, r *http.Request, c caller) {
	key := querycache.Key{Session: c.sid, Kind: querycache.MyLawyerProfile}
	lawyer, err := querycache.Get(r.Context(), s.queries, key, func(ctx context.Context) (domain.Lawyer, error) {
		return s.api.MyLawyerProfile(ctx, c.token())
	})
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lawyer)
}

func (s *Server) handleSaveLawyerProfile(w http.ResponseWriter, r *http.Request, c caller) {
	fields := map[string]any{}
	if !decodeJSON(w, r, &fields) {
		return
	}
	if len(fields) == 0 {
		writeError(w, http.StatusBadRequest, "profile fields are required")
		return
	}
	lawyer, err := s.api.SaveLawyerProfile(r.Context(), c.token(), r.Method, fields)
	if err != nil {
		writeNotice(w, err, notify.LawyerProfileError(err))
		return
	}
	s.queries.Invalidate(c.sid, querycache.MyLawyerProfile, querycache.Lawyers)
	writeJSON(w, http.StatusOK, map[string]any{"lawyer": lawyer, "notice": notify.ProfileUpdated})
}

func (s *Server) handleLawyerStats(w http.ResponseWriter, r *http.Request, c caller) {
	stats, err := s.api.LawyerStats(r.Context(), c.token())
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// consultations

func (s *Server) handleListConsultations(w http.ResponseWriter, r *http.Request, c caller) {
	asLawyer := r.URL.Query().Get("role") == "lawyer" || c.state.Role == domain.RoleLawyer
	consultations, err := s.api.ListConsultations(r.Context(), c.token(), asLawyer)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	if consultations == nil {
		consultations = []domain.Consultation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": consultations, "count": len(consultations)})
}

func (s *Server) handleGetConsultation(w http.ResponseWriter, r *http.Request, c caller) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	consultation, err := s.api.GetConsultation(r.Context(), c.token(), id)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, consultation)
}

func (s *Server) handleCreateConsultation(w http.ResponseWriter, r *http.Request, c caller) {
	var req domain.ConsultationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.LawyerID <= 0 {
		writeError(w, http.StatusBadRequest, "lawyer_id is required")
		return
	}
	if err := validate.Consultation(req); err != nil {
		writeNotice(w, err, notify.ConsultationFailed(err))
		return
	}
	consultation, err := s.api.CreateConsultation(r.Context(), c.token(), req)
	if err != nil {
		writeNotice(w, err, notify.ConsultationFailed(err))
		return
	}
	s.queries.Invalidate(c.sid, querycache.Consultations)
	writeJSON(w, http.StatusCreated, consultation)
}

func (s *Server) handleConsultationStatus(w http.ResponseWriter, r *http.Request, c caller) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req consultationStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}
	consultation, err := s.api.UpdateConsultationStatus(r.Context(), c.token(), id, strings.TrimSpace(req.Status))
	if err != nil {
		writeNotice(w, err, notify.StatusFailed(err))
		return
	}
	s.queries.InvalidateKey(querycache.Key{Session: c.sid, Kind: querycache.Consultation, ID: strconv.FormatInt(id, 10)})
	s.queries.Invalidate(c.sid, querycache.Consultations)
	writeJSON(w, http.StatusOK, consultation)
}

// legal updates

func (s *Server) handleLegalUpdates(w http.ResponseWriter, r *http.Request, c caller) {
	updates, err := s.api.LegalUpdates(r.Context(), c.token())
	if err != nil {
		writeBackendError(w, err)
		return
	}
	if updates == nil {
		updates = []domain.LegalUpdate{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": updates, "count": len(updates)})
}

func (s *Server) handleLegalUpdate(w http.ResponseWriter, r *http.Request, c caller) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	update, err := s.api.LegalUpdate(r.Context(), c.token(), id)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, update)
}
