package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/midsbie/promptivd"
	"github.com/midsbie/promptivd/internal/audit"
	"github.com/midsbie/promptivd/internal/metrics"
	"github.com/midsbie/promptivd/internal/sink"
)

// handleInsert is the ingress adapter (C5): it validates the submitted
// job, assigns it an id, invokes the dispatch engine, and maps the
// resulting outcome to an HTTP response.
func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.Server.MaxJobBytes
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if int64(len(body)) > limit {
		jsonError(w, http.StatusRequestEntityTooLarge, "request body exceeds max_job_bytes")
		metrics.JobsTotal.WithLabelValues(string(promptivd.ErrPayloadTooLarge)).Inc()
		return
	}

	// 4.8 schema pre-validation: reject structurally invalid bodies before
	// the more specific field-by-field checks run.
	if err := s.validator.Validate(body); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		metrics.JobsTotal.WithLabelValues(string(promptivd.ErrInvalidRequest)).Inc()
		return
	}

	var req promptivd.InsertTextRequest
	if err := json.Unmarshal(body, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "malformed JSON body")
		metrics.JobsTotal.WithLabelValues(string(promptivd.ErrInvalidRequest)).Inc()
		return
	}

	if err := req.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		metrics.JobsTotal.WithLabelValues(string(promptivd.ErrInvalidRequest)).Inc()
		return
	}

	if !s.limiter.Allow(req.Source.Client) {
		jsonError(w, http.StatusTooManyRequests, "rate limit exceeded")
		metrics.JobsTotal.WithLabelValues(string(promptivd.ErrRateLimited)).Inc()
		metrics.RateLimitedTotal.Inc()
		return
	}

	if s.cfg.Server.RequireSink && s.registry.Current() == nil {
		jsonError(w, http.StatusServiceUnavailable, "No sink connected")
		metrics.JobsTotal.WithLabelValues(string(promptivd.ErrNoSink)).Inc()
		return
	}

	job := promptivd.Job{ID: sink.NewJobID(), Request: req}
	dispatchedAt := time.Now().UTC()

	resp, dispatchErr := s.engine.Dispatch(r.Context(), job)
	resolvedAt := time.Now().UTC()

	s.recordOutcome(job, resp, dispatchErr, dispatchedAt, resolvedAt)
	s.respond(w, job, resp, dispatchErr)
}

func (s *Server) respond(w http.ResponseWriter, job promptivd.Job, resp promptivd.AckResponse, err error) {
	if err != nil {
		appErr, ok := err.(*promptivd.AppError)
		if !ok {
			jsonError(w, http.StatusInternalServerError, err.Error())
			return
		}
		switch appErr.Kind {
		case promptivd.ErrNoSink:
			jsonError(w, http.StatusServiceUnavailable, appErr.Message)
		case promptivd.ErrDispatchTimeout:
			jsonError(w, http.StatusGatewayTimeout, appErr.Message)
		case promptivd.ErrSerialization:
			jsonError(w, http.StatusBadRequest, appErr.Message)
		default:
			jsonError(w, http.StatusInternalServerError, appErr.Message)
		}
		return
	}

	switch resp.Status {
	case promptivd.AckOK:
		writeJSON(w, http.StatusOK, map[string]string{"job_id": job.ID, "status": string(resp.Status)})
	default: // retry, failed
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"job_id": job.ID, "status": string(resp.Status), "error": resp.Error,
		})
	}
}

func (s *Server) recordOutcome(job promptivd.Job, resp promptivd.AckResponse, err error, dispatchedAt, resolvedAt time.Time) {
	status := resp.Status
	errMsg := resp.Error
	outcome := string(status)
	if err != nil {
		if appErr, ok := err.(*promptivd.AppError); ok {
			outcome = string(appErr.Kind)
			errMsg = appErr.Message
		} else {
			outcome = "error"
			errMsg = err.Error()
		}
	}

	metrics.JobsTotal.WithLabelValues(outcome).Inc()
	metrics.DispatchLatencySeconds.WithLabelValues(outcome).Observe(resolvedAt.Sub(dispatchedAt).Seconds())

	provider := ""
	if job.Request.Target != nil {
		provider = job.Request.Target.Provider
	}

	metadata, err := audit.PrepareMetadata(job.Request.Metadata, s.cfg.Audit.RedactPaths, s.cfg.Audit.Compress)
	if err != nil {
		s.logger.Warn("failed to prepare audit metadata", "job_id", job.ID, "error", err.Error())
	} else if !s.cfg.Audit.Compress {
		if kind := audit.MetadataField(metadata, "kind"); kind != "" {
			s.logger.Debug("job metadata", "job_id", job.ID, "kind", kind)
		}
	}

	s.audit.Submit(audit.Record{
		JobID:        job.ID,
		Status:       status,
		Error:        errMsg,
		Client:       job.Request.Source.Client,
		Label:        job.Request.Source.Label,
		Path:         job.Request.Source.Path,
		Provider:     provider,
		DispatchedAt: dispatchedAt,
		ResolvedAt:   resolvedAt,
		DurationMS:   resolvedAt.Sub(dispatchedAt).Milliseconds(),
		Metadata:     metadata,
	})
}
