// Package importer ingests activity CSV exports into the store and
// derives issue records from embedded inspection payloads.
package importer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"example.com/siteboard/internal/domain"
	"example.com/siteboard/internal/issues"
)

// Store is the subset of persistence capabilities the pipeline needs.
type Store interface {
	UpsertContract(ctx context.Context, contractID int64, name string) (*domain.Contract, error)
	UpsertActivity(ctx context.Context, activity domain.Activity) (*domain.Activity, error)
	ReplaceIssues(ctx context.Context, activityID string, drafts []domain.Issue) (int, error)
}

// Stats aggregates the work done by one import run.
type Stats struct {
	ContractsUpserted  int `json:"contractsUpserted"`
	ActivitiesUpserted int `json:"activitiesUpserted"`
	IssuesCreated      int `json:"issuesCreated"`
}

// RowResult records the outcome of a single CSV row. Failed rows are
// skipped without aborting the batch; the reason is kept for callers
// instead of being swallowed.
type RowResult struct {
	Line       int    `json:"line"`
	ActivityID string `json:"activity_id,omitempty"`
	OK         bool   `json:"ok"`
	Skipped    bool   `json:"skipped,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Report is the structured result of an import call.
type Report struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Stats   Stats       `json:"stats"`
	Rows    []RowResult `json:"rows,omitempty"`
}

// Option configures optional behaviour for the Importer.
type Option func(*Importer)

// WithLogger overrides the logger used to report row failures.
func WithLogger(logger *log.Logger) Option {
	return func(i *Importer) {
		i.logger = logger
	}
}

// EventSink receives a summary event after each successful run, for
// delivery through the transactional outbox.
type EventSink interface {
	InsertImportEvent(ctx context.Context, stats Stats) error
}

// WithEventSink attaches an import-completed event sink.
func WithEventSink(sink EventSink) Option {
	return func(i *Importer) {
		i.events = sink
	}
}

// Importer runs the CSV-to-domain pipeline. Rows are processed strictly
// sequentially: the issue-replacement step depends on the activity row
// upserted in the same iteration.
type Importer struct {
	store  Store
	events EventSink
	logger *log.Logger
}

// New constructs an Importer.
func New(store Store, opts ...Option) *Importer {
	imp := &Importer{
		store:  store,
		logger: log.New(log.Writer(), "[importer] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// timestampPrefix captures "YYYY-MM-DD HH:MM:SS" from a longer
// timestamp-with-offset string such as "2025-10-01 00:00:00+03".
var timestampPrefix = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}\s\d{2}:\d{2}:\d{2})`)

// Run imports the CSV text. Only document-level problems (empty input,
// an unreadable CSV) fail the whole call; row-level problems are logged,
// recorded on the report and skipped.
func (i *Importer) Run(ctx context.Context, csvText string) Report {
	start := time.Now()

	header, rows, err := parseCSV(csvText)
	if err != nil {
		return Report{Success: false, Message: fmt.Sprintf("import failed: %v", err)}
	}
	if len(rows) == 0 {
		return Report{Success: false, Message: "no data found in CSV"}
	}

	report := Report{Rows: make([]RowResult, 0, len(rows))}
	for n, row := range rows {
		result := RowResult{Line: n + 2, ActivityID: header.value(row, "activityid")}

		switch err := i.importRow(ctx, header, row, &report.Stats); {
		case errors.Is(err, errRowSkipped):
			result.Skipped = true
			rowsSkipped.Inc()
		case err != nil:
			result.Error = err.Error()
			i.logger.Printf("row %d (activity %s): %v", result.Line, result.ActivityID, err)
			rowsFailed.Inc()
		default:
			result.OK = true
			rowsImported.Inc()
		}
		report.Rows = append(report.Rows, result)
	}

	report.Success = true
	report.Message = "import completed successfully"
	importDuration.Observe(time.Since(start).Seconds())
	issuesCreated.Add(float64(report.Stats.IssuesCreated))

	if i.events != nil {
		if err := i.events.InsertImportEvent(ctx, report.Stats); err != nil {
			i.logger.Printf("record import event: %v", err)
		}
	}
	return report
}

// errRowSkipped marks rows missing their contract identity; they are
// counted apart from genuine failures.
var errRowSkipped = errors.New("row skipped")

func (i *Importer) importRow(ctx context.Context, header headerIndex, row []string, stats *Stats) error {
	contractIDRaw := header.value(row, "contractid")
	contractName := header.value(row, "contractname")
	if contractIDRaw == "" || contractName == "" {
		return errRowSkipped
	}

	contractID, err := strconv.ParseInt(contractIDRaw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid contractId %q: %w", contractIDRaw, err)
	}

	contract, err := i.store.UpsertContract(ctx, contractID, contractName)
	if err != nil {
		return fmt.Errorf("upsert contract: %w", err)
	}
	stats.ContractsUpserted++

	// Best-effort payload parse; malformed JSON is treated as empty.
	payload := map[string]any{}
	if raw := header.value(row, "data"); raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			payload = map[string]any{}
		}
	}

	category := issues.ExtractInspectionCategory(payload)

	activityID, err := strconv.ParseInt(header.value(row, "activityid"), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid activityId %q: %w", header.value(row, "activityid"), err)
	}

	rowType := header.value(row, "type")
	activityType := domain.ActivityType(rowType)
	if rowType == "" {
		activityType = domain.ActivityTypeInspection
	}

	verified := header.value(row, "verified")
	activity := domain.Activity{
		ActivityID:     activityID,
		ContractID:     contract.ID,
		Type:           activityType,
		Verified:       verified == "TRUE" || verified == "true",
		Contractors:    optionalString(header.value(row, "contractors")),
		InspectionType: optionalString(category),
		ActivityDate:   optionalString(header.value(row, "date")),
		ReportDate:     optionalString(header.value(row, "reportdate")),
		StageID:        optionalInt(header.value(row, "stageid")),
		StageName:      optionalString(header.value(row, "stagename")),
		TaskID:         optionalInt(header.value(row, "taskid")),
		TaskName:       optionalString(header.value(row, "taskname")),
		ObjectiveID:    optionalInt(header.value(row, "objectiveid")),
		ObjectiveName:  optionalString(header.value(row, "objectivename")),
		AddedByID:      optionalInt(header.value(row, "addedbyid")),
		AddedByName:    optionalString(header.value(row, "addedbyname")),
		RawData:        payload,
	}

	stored, err := i.store.UpsertActivity(ctx, activity)
	if err != nil {
		return fmt.Errorf("upsert activity: %w", err)
	}
	stats.ActivitiesUpserted++

	if rowType != string(domain.ActivityTypeInspection) {
		return nil
	}

	// Issues fixed on the spot never become tickets.
	if truthy(payload["fixedIssues"]) {
		return nil
	}
	identified := payload["identifiedIssues"]
	if !truthy(identified) {
		return nil
	}

	// Strip the trailing timezone offset so the stored timestamp
	// matches what the inspector wrote down.
	activityDate := header.value(row, "date")
	if match := timestampPrefix.FindStringSubmatch(activityDate); match != nil {
		activityDate = match[1]
	}

	drafts := issues.ParseIdentifiedIssues(
		identified,
		category,
		stored.ID,
		contract.ID,
		optionalString(header.value(row, "addedbyname")),
		activityDate,
	)
	if len(drafts) == 0 {
		return nil
	}

	created, err := i.store.ReplaceIssues(ctx, stored.ID, drafts)
	if err != nil {
		return fmt.Errorf("replace issues: %w", err)
	}
	stats.IssuesCreated += created
	return nil
}

type headerIndex map[string]int

// parseCSV reads the document, trims header names and drops fully empty
// lines. Ragged rows are tolerated; missing cells read as "".
func parseCSV(csvText string) (headerIndex, [][]string, error) {
	reader := csv.NewReader(strings.NewReader(csvText))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("unable to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	header := make(headerIndex, len(records[0]))
	for idx, name := range records[0] {
		normalized := strings.ToLower(strings.TrimSpace(name))
		if _, exists := header[normalized]; !exists {
			header[normalized] = idx
		}
	}

	rows := make([][]string, 0, len(records)-1)
	for _, record := range records[1:] {
		if isEmptyRow(record) {
			continue
		}
		rows = append(rows, record)
	}
	return header, rows, nil
}

func isEmptyRow(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func (h headerIndex) value(record []string, name string) string {
	idx, ok := h[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// truthy mirrors the loose truthiness rules of the source exports:
// absent values, false, empty strings and zero are all falsy.
func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	default:
		return true
	}
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func optionalInt(value string) *int64 {
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return nil
	}
	return &parsed
}
