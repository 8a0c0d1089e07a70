// Package api exposes HTTP handlers for the siteboard service.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/siteboard/internal/auth"
	"example.com/siteboard/internal/domain"
	"example.com/siteboard/internal/importer"
	"example.com/siteboard/internal/inspections"
	"example.com/siteboard/internal/observability"
	"example.com/siteboard/internal/period"
)

// maxImportBytes caps the CSV payload accepted by the import endpoint.
const maxImportBytes = 32 << 20

// Handler coordinates HTTP requests with the domain services.
type Handler struct {
	sessions    *auth.Sessions
	issues      *domain.Service
	imports     *importer.Importer
	inspections *inspections.Service
	now         func() time.Time
}

// NewHandler builds a Handler.
func NewHandler(sessions *auth.Sessions, issues *domain.Service, imports *importer.Importer, grid *inspections.Service) *Handler {
	return &Handler{
		sessions:    sessions,
		issues:      issues,
		imports:     imports,
		inspections: grid,
		now:         time.Now,
	}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, observability.InstrumentHTTP(pattern, fn))
	}
	handle("/v1/session", h.session)
	handle("/v1/imports/csv", h.importCSV)
	handle("/v1/contracts", h.contracts)
	handle("/v1/issues", h.listIssues)
	handle("/v1/issues/", h.issueByID)
	handle("/v1/inspections/grid", h.inspectionGrid)
	handle("/v1/inspections/details", h.inspectionDetails)
	handle("/v1/periods", h.periods)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "password is required")
		return
	}

	token, expires, err := h.sessions.Issue(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid password")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{Token: token, ExpiresAt: expires})
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	csvText, err := readCSVPayload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	report := h.imports.Run(r.Context(), csvText)
	status := http.StatusOK
	if !report.Success {
		status = http.StatusUnprocessableEntity
	} else {
		observability.RecordImportCompleted(h.now())
	}
	writeJSON(w, status, report)
}

// readCSVPayload accepts either a multipart upload under the "file"
// field or the raw request body.
func readCSVPayload(r *http.Request) (string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			return "", errors.New("unable to parse multipart form")
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return "", errors.New("missing file field")
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxImportBytes))
		if err != nil {
			return "", errors.New("unable to read uploaded file")
		}
		return string(data), nil
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		return "", errors.New("unable to read request body")
	}
	return string(data), nil
}

func (h *Handler) contracts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	contracts, err := h.issues.ListContracts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]ContractView, 0, len(contracts))
	for _, c := range contracts {
		items = append(items, toContractView(c))
	}
	writeJSON(w, http.StatusOK, ListContractsResponse{Items: items})
}

func (h *Handler) listIssues(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	q := r.URL.Query()
	filter := domain.IssueFilter{
		ContractID: q.Get("contract_id"),
		Status:     q.Get("status"),
		Category:   q.Get("category"),
		StartDate:  q.Get("period_start"),
		EndDate:    q.Get("period_end"),
	}

	list, err := h.issues.ListIssues(r.Context(), filter)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidStatus) {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]IssueView, 0, len(list))
	for _, issue := range list {
		items = append(items, toIssueView(issue))
	}
	writeJSON(w, http.StatusOK, ListIssuesResponse{Items: items})
}

func (h *Handler) issueByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/issues/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not_found", "unknown issue route")
		return
	}
	if r.Method != http.MethodPatch {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	issueID := parts[0]
	switch parts[1] {
	case "status":
		h.updateIssueStatus(w, r, issueID)
	case "notes":
		h.updateIssueNotes(w, r, issueID)
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown issue route")
	}
}

func (h *Handler) updateIssueStatus(w http.ResponseWriter, r *http.Request, issueID string) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	issue, err := h.issues.MoveIssue(r.Context(), issueID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		case errors.Is(err, domain.ErrIssueNotFound):
			writeError(w, http.StatusNotFound, "not_found", "issue not found")
		default:
			writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, toIssueView(*issue))
}

func (h *Handler) updateIssueNotes(w http.ResponseWriter, r *http.Request, issueID string) {
	var req UpdateNotesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	issue, err := h.issues.AnnotateIssue(r.Context(), issueID, req.Notes)
	if err != nil {
		if errors.Is(err, domain.ErrIssueNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "issue not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toIssueView(*issue))
}

func (h *Handler) inspectionGrid(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	q := r.URL.Query()
	contractID := q.Get("contract_id")
	if strings.TrimSpace(contractID) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing contract_id parameter")
		return
	}

	grid, err := h.inspections.GridData(r.Context(), contractID, q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toGridResponse(grid))
}

func (h *Handler) inspectionDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	q := r.URL.Query()
	contractID := q.Get("contract_id")
	if strings.TrimSpace(contractID) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing contract_id parameter")
		return
	}
	objectiveID, err := strconv.ParseInt(q.Get("objective_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid objective_id parameter")
		return
	}
	inspectionType := q.Get("type")
	if strings.TrimSpace(inspectionType) == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing type parameter")
		return
	}

	records, err := h.inspections.Details(r.Context(), contractID, objectiveID, inspectionType, q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]InspectionView, 0, len(records))
	for _, rec := range records {
		items = append(items, toInspectionView(rec))
	}
	writeJSON(w, http.StatusOK, InspectionDetailsResponse{Items: items})
}

func (h *Handler) periods(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	count := 12
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "validation_failed", "invalid count parameter")
			return
		}
		if parsed > 120 {
			parsed = 120
		}
		count = parsed
	}

	periods := period.Available(h.now(), count)
	items := make([]PeriodView, 0, len(periods))
	for _, p := range periods {
		start, end := p.DateRange()
		items = append(items, PeriodView{Label: p.Label, StartDate: start, EndDate: end})
	}
	writeJSON(w, http.StatusOK, ListPeriodsResponse{Items: items, Current: len(items) - 1})
}

// SessionRequest is the payload for POST /v1/session.
type SessionRequest struct {
	Password string `json:"password"`
}

// SessionResponse carries the issued session token.
type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UpdateStatusRequest is the payload for PATCH /v1/issues/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateNotesRequest is the payload for PATCH /v1/issues/{id}/notes.
type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

// ContractView exposes a contract for the selector.
type ContractView struct {
	ID           string `json:"id"`
	ContractID   int64  `json:"contract_id"`
	ContractName string `json:"contract_name"`
}

// ListContractsResponse packages contract list results.
type ListContractsResponse struct {
	Items []ContractView `json:"items"`
}

// IssueView exposes full details about an issue card.
type IssueView struct {
	ID                 string         `json:"id"`
	ActivityID         string         `json:"activity_id"`
	ContractID         string         `json:"contract_id"`
	Title              string         `json:"title"`
	InspectionCategory string         `json:"inspection_category"`
	Status             string         `json:"status"`
	ContractorAssigned *string        `json:"contractor_assigned,omitempty"`
	Notes              *string        `json:"notes,omitempty"`
	CreatedBy          *string        `json:"created_by,omitempty"`
	CreatedAt          string         `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// ListIssuesResponse packages issue list results.
type ListIssuesResponse struct {
	Items []IssueView `json:"items"`
}

// ObjectiveView is a distinct objective seen in the grid window.
type ObjectiveView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// InspectionView exposes one inspection record for grid drill-down.
type InspectionView struct {
	ActivityID     int64   `json:"activity_id"`
	ObjectiveID    int64   `json:"objective_id"`
	ObjectiveName  string  `json:"objective_name"`
	InspectionType string  `json:"inspection_type"`
	ActivityDate   string  `json:"activity_date"`
	Contractors    *string `json:"contractors,omitempty"`
	Verified       bool    `json:"verified"`
	AddedByName    *string `json:"added_by_name,omitempty"`
}

// GridResponse is the coverage grid payload.
type GridResponse struct {
	Objectives      []ObjectiveView  `json:"objectives"`
	InspectionTypes []string         `json:"inspection_types"`
	Records         []InspectionView `json:"records"`
}

// InspectionDetailsResponse packages drill-down results.
type InspectionDetailsResponse struct {
	Items []InspectionView `json:"items"`
}

// PeriodView is one reporting period for the selector.
type PeriodView struct {
	Label     string `json:"label"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// ListPeriodsResponse packages the period selector payload. Current
// indexes the period containing today.
type ListPeriodsResponse struct {
	Items   []PeriodView `json:"items"`
	Current int          `json:"current"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toContractView(c domain.Contract) ContractView {
	return ContractView{ID: c.ID, ContractID: c.ContractID, ContractName: c.ContractName}
}

func toIssueView(issue domain.Issue) IssueView {
	return IssueView{
		ID:                 issue.ID,
		ActivityID:         issue.ActivityID,
		ContractID:         issue.ContractID,
		Title:              issue.Title,
		InspectionCategory: issue.InspectionCategory,
		Status:             string(issue.Status),
		ContractorAssigned: issue.ContractorAssigned,
		Notes:              issue.Notes,
		CreatedBy:          issue.CreatedBy,
		CreatedAt:          issue.CreatedAt,
		UpdatedAt:          issue.UpdatedAt,
		Metadata:           issue.Metadata,
	}
}

func toInspectionView(rec domain.InspectionRecord) InspectionView {
	return InspectionView{
		ActivityID:     rec.ActivityID,
		ObjectiveID:    rec.ObjectiveID,
		ObjectiveName:  rec.ObjectiveName,
		InspectionType: rec.InspectionType,
		ActivityDate:   rec.ActivityDate,
		Contractors:    rec.Contractors,
		Verified:       rec.Verified,
		AddedByName:    rec.AddedByName,
	}
}

func toGridResponse(grid *inspections.GridData) GridResponse {
	resp := GridResponse{
		Objectives:      make([]ObjectiveView, 0, len(grid.Objectives)),
		InspectionTypes: grid.InspectionTypes,
		Records:         make([]InspectionView, 0, len(grid.Records)),
	}
	for _, obj := range grid.Objectives {
		resp.Objectives = append(resp.Objectives, ObjectiveView{ID: obj.ID, Name: obj.Name})
	}
	for _, rec := range grid.Records {
		resp.Records = append(resp.Records, toInspectionView(rec))
	}
	return resp
}
