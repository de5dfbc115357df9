package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"resumeflow/internal/errors"
	"resumeflow/internal/observability"
	"resumeflow/internal/types"
	"resumeflow/internal/workflow"
)

// createSessionHandler opens a fresh workflow session at the intake stage
func (s *Server) createSessionHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx, span := om.Tracer("resumeflow.api").Start(ctx, "api.session.create")
		defer span.End()

		session := s.sessions.Create()
		om.GetMetrics().RecordWorkflowEvent(ctx, "session_created", true)
		span.SetAttributes(attribute.String("session.id", session.ID()))

		w.WriteHeader(http.StatusCreated)
		writeJSON(w, SessionResponse{SessionID: session.ID(), Stage: string(session.Stage())})
	}
}

// uploadHandler completes intake from an uploaded resume document. The file
// goes to the parser collaborator; its extracted text becomes the canonical
// record.
func (s *Server) uploadHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx, span := om.Tracer("resumeflow.api").Start(ctx, "api.session.upload")
		defer span.End()

		session, ok := s.sessionFromRequest(w, r, span)
		if !ok {
			return
		}

		if err := r.ParseMultipartForm(s.MaxRequestSize); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid upload", "request must be multipart/form-data with a file field", http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Missing file", "file field is required", http.StatusBadRequest)
			return
		}
		defer func() {
			if err := file.Close(); err != nil {
				s.Logger.Warn("Failed to close upload file", "error", err)
			}
		}()

		span.SetAttributes(attribute.String("upload.filename", header.Filename))

		parsed, err := s.parser.Parse(ctx, header.Filename, file)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, s.Logger, err)
			return
		}

		record, err := session.BeginUpload(parsed)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, s.Logger, err)
			return
		}

		writeJSON(w, map[string]any{
			"sessionId": session.ID(),
			"stage":     string(session.Stage()),
			"record":    record,
		})
	}
}

// manualEntryHandler completes intake from a manual-entry form
func (s *Server) manualEntryHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer("resumeflow.api").Start(r.Context(), "api.session.manual")
		defer span.End()

		session, ok := s.sessionFromRequest(w, r, span)
		if !ok {
			return
		}

		var form types.StructuredResume
		if err := parseJSONRequest(r, &form); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		record, err := session.BeginManualEntry(&form)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, s.Logger, err)
			return
		}

		writeJSON(w, map[string]any{
			"sessionId": session.ID(),
			"stage":     string(session.Stage()),
			"record":    record,
		})
	}
}

// targetHandler records the job targeting context
func (s *Server) targetHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer("resumeflow.api").Start(r.Context(), "api.session.target")
		defer span.End()

		session, ok := s.sessionFromRequest(w, r, span)
		if !ok {
			return
		}

		var req TargetRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if err := session.SetJobTarget(types.JobContext{
			Title:       req.Title,
			Company:     req.Company,
			Description: req.Description,
		}); err != nil {
			span.RecordError(err)
			writeAppError(w, s.Logger, err)
			return
		}

		span.SetAttributes(attribute.Int("target.description_length", len(req.Description)))
		writeJSON(w, SessionResponse{SessionID: session.ID(), Stage: string(session.Stage())})
	}
}

// scoreHandler runs the initial scoring pass
func (s *Server) scoreHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx, span := om.Tracer("resumeflow.api").Start(ctx, "api.session.score")
		defer span.End()

		session, ok := s.sessionFromRequest(w, r, span)
		if !ok {
			return
		}

		report, err := session.ScoreInitial(ctx)
		om.GetMetrics().RecordWorkflowEvent(ctx, "resume_scored", err == nil)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, s.Logger, err)
			return
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("score", report.Score),
		)
		writeJSON(w, report)
	}
}

// enhanceHandler runs one atomic enhancement cycle, whole-resume or per-field
func (s *Server) enhanceHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx, span := om.Tracer("resumeflow.api").Start(ctx, "api.session.enhance")
		defer span.End()

		session, ok := s.sessionFromRequest(w, r, span)
		if !ok {
			return
		}

		var req EnhanceRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		var result *workflow.EnhanceResult
		var err error
		if req.Field != nil {
			span.SetAttributes(
				attribute.String("enhance.section", req.Field.Section),
				attribute.Int("enhance.index", req.Field.Index),
			)
			result, err = session.EnhanceField(ctx, *req.Field)
		} else {
			span.SetAttributes(attribute.String("enhance.kind", req.Kind))
			result, err = session.Enhance(ctx, types.EnhancementKind(req.Kind))
		}

		om.GetMetrics().RecordWorkflowEvent(ctx, "enhancement_applied", err == nil,
			attribute.String("kind", req.Kind))
		if err != nil {
			span.RecordError(err)
			writeAppError(w, s.Logger, err)
			return
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("score", result.Report.Score),
		)
		writeJSON(w, result)
	}
}

// chatHandler sends one user message to the session's assistant thread.
// Collaborator failures degrade in-band, so a 200 with the fallback reply is
// still a success at this layer.
func (s *Server) chatHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx, span := om.Tracer("resumeflow.api").Start(ctx, "api.session.chat")
		defer span.End()

		session, ok := s.sessionFromRequest(w, r, span)
		if !ok {
			return
		}

		var req ChatRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		reply, err := session.SendChat(ctx, req.Message)
		om.GetMetrics().RecordWorkflowEvent(ctx, "chat_message", err == nil)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, s.Logger, err)
			return
		}

		span.SetAttributes(attribute.Bool("success", true))
		writeJSON(w, ChatResponse{Reply: reply})
	}
}

// exportHandler renders the resume through the generation collaborator
func (s *Server) exportHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx, span := om.Tracer("resumeflow.api").Start(ctx, "api.session.export")
		defer span.End()

		session, ok := s.sessionFromRequest(w, r, span)
		if !ok {
			return
		}

		var req ExportRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.String("export.format", req.Format),
			attribute.String("export.template", req.Template),
		)

		out, err := session.Export(ctx, req.Format, req.Template)
		om.GetMetrics().RecordWorkflowEvent(ctx, "document_exported", err == nil,
			attribute.String("format", req.Format))
		if err != nil {
			span.RecordError(err)
			writeAppError(w, s.Logger, err)
			return
		}

		span.SetAttributes(attribute.Bool("success", true))
		writeJSON(w, out)
	}
}

// sessionStateHandler returns the session's stage and canonical record
func (s *Server) sessionStateHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer("resumeflow.api").Start(r.Context(), "api.session.state")
		defer span.End()

		session, ok := s.sessionFromRequest(w, r, span)
		if !ok {
			return
		}

		writeJSON(w, map[string]any{
			"sessionId": session.ID(),
			"stage":     string(session.Stage()),
			"record":    session.Record(),
		})
	}
}

// historyHandler returns the append-only score ledger
func (s *Server) historyHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer("resumeflow.api").Start(r.Context(), "api.session.history")
		defer span.End()

		session, ok := s.sessionFromRequest(w, r, span)
		if !ok {
			return
		}

		writeJSON(w, map[string]any{"history": session.History()})
	}
}

// chatLogHandler returns the append-only chat ledger
func (s *Server) chatLogHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer("resumeflow.api").Start(r.Context(), "api.session.chatlog")
		defer span.End()

		session, ok := s.sessionFromRequest(w, r, span)
		if !ok {
			return
		}

		writeJSON(w, map[string]any{"messages": session.ChatLog()})
	}
}

// resetHandler moves the session backward, discarding downstream state
func (s *Server) resetHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer("resumeflow.api").Start(r.Context(), "api.session.reset")
		defer span.End()

		session, ok := s.sessionFromRequest(w, r, span)
		if !ok {
			return
		}

		var req ResetRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(attribute.String("reset.to", req.To))

		var err error
		switch req.To {
		case "intake":
			err = session.ResetToIntake()
		case "job_targeting":
			err = session.ResetToJobTargeting()
		default:
			writeErrorResponse(w, "Invalid reset target", "to must be 'intake' or 'job_targeting'", http.StatusBadRequest)
			return
		}
		if err != nil {
			span.RecordError(err)
			writeAppError(w, s.Logger, err)
			return
		}

		writeJSON(w, SessionResponse{SessionID: session.ID(), Stage: string(session.Stage())})
	}
}

// deleteSessionHandler discards a session entirely
func (s *Server) deleteSessionHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := om.Tracer("resumeflow.api").Start(r.Context(), "api.session.delete")
		defer span.End()

		s.sessions.Delete(r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	}
}

// locationsHandler proxies location autocomplete to the geocoder
func (s *Server) locationsHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx, span := om.Tracer("resumeflow.api").Start(ctx, "api.locations")
		defer span.End()

		query := r.URL.Query().Get("q")
		span.SetAttributes(attribute.Int("query.length", len(query)))

		places, err := s.geocoder.Search(ctx, query)
		if err != nil {
			span.RecordError(err)
			writeAppError(w, s.Logger, err)
			return
		}
		if places == nil {
			places = []types.Place{}
		}

		writeJSON(w, map[string]any{"places": places})
	}
}

// sessionFromRequest resolves the {id} path segment into a live session,
// writing the 404 itself when the lookup fails
func (s *Server) sessionFromRequest(w http.ResponseWriter, r *http.Request, span oteltrace.Span) (*workflow.Session, bool) {
	id := r.PathValue("id")
	session, err := s.sessions.Get(id)
	if err != nil {
		span.RecordError(err)
		writeErrorResponse(w, "Session not found", fmt.Sprintf("no session with ID %s", id), http.StatusNotFound)
		return nil, false
	}
	span.SetAttributes(attribute.String("session.id", id))
	return session, true
}

// writeJSON writes v as a JSON response body
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeAppError maps an AppError onto an HTTP status and response body
func writeAppError(w http.ResponseWriter, logger *errors.Logger, err error) {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		writeErrorResponse(w, "Internal error", err.Error(), http.StatusInternalServerError)
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Type {
	case errors.ErrorTypeValidation:
		switch appErr.Code {
		case errors.ErrCodeSessionNotFound:
			status = http.StatusNotFound
		case errors.ErrCodeInvalidStage, errors.ErrCodeOperationInFlight:
			status = http.StatusConflict
		default:
			status = http.StatusBadRequest
		}
	case errors.ErrorTypeCollaborator, errors.ErrorTypeNetwork:
		status = http.StatusBadGateway
	case errors.ErrorTypeInternal:
		if appErr.Code == errors.ErrCodeStaleRequest {
			status = http.StatusConflict
		}
	}

	if status >= http.StatusInternalServerError && logger != nil {
		logger.LogError(appErr, "Request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	response := ErrorResponse{
		Error:   appErr.Code,
		Message: appErr.Message,
		Fields:  appErr.Fields,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
