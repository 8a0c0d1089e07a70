package importer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/siteboard/internal/domain"
)

const csvHeader = "activityId,type,verified,contractors,data,date,reportDate,stageId,stageName,taskId,taskName,objectiveId,objectiveName,contractId,contractName,addedById,addedByName"

func buildCSV(rows ...string) string {
	return csvHeader + "\n" + strings.Join(rows, "\n")
}

func newImporter(store Store) *Importer {
	return New(store, WithLogger(log.New(&strings.Builder{}, "", 0)))
}

func TestRunEndToEndSingleInspectionRow(t *testing.T) {
	store := newFakeStore()
	imp := newImporter(store)

	data := `"{""list"":[{""name"":""Electrical""}],""identifiedIssues"":""Loose wiring"",""fixedIssues"":false}"`
	row := `500,INSPECTION,TRUE,Acme SRL,` + data + `,2025-10-01 00:00:00+03,2025-10-02,1,Foundation,7,Cabling,3,Block A,10,Site A,55,Bob`

	report := imp.Run(context.Background(), buildCSV(row))

	require.True(t, report.Success)
	require.Equal(t, Stats{ContractsUpserted: 1, ActivitiesUpserted: 1, IssuesCreated: 1}, report.Stats)
	require.Len(t, report.Rows, 1)
	require.True(t, report.Rows[0].OK)

	contract := store.contracts[10]
	require.NotNil(t, contract)
	require.Equal(t, "Site A", contract.ContractName)

	activity := store.activities[500]
	require.NotNil(t, activity)
	require.Equal(t, domain.ActivityTypeInspection, activity.Type)
	require.True(t, activity.Verified)
	require.Equal(t, contract.ID, activity.ContractID)
	require.Equal(t, "Electrical", *activity.InspectionType)
	require.Equal(t, "2025-10-01 00:00:00+03", *activity.ActivityDate)
	require.Equal(t, int64(3), *activity.ObjectiveID)
	require.Equal(t, "Block A", *activity.ObjectiveName)
	require.Equal(t, "Loose wiring", activity.RawData["identifiedIssues"])

	stored := store.issuesByActivity[activity.ID]
	require.Len(t, stored, 1)
	require.Equal(t, "Loose wiring", stored[0].Title)
	require.Equal(t, "electrical", stored[0].InspectionCategory)
	require.Equal(t, domain.IssueStatusIdentified, stored[0].Status)
	require.Equal(t, "2025-10-01 00:00:00", stored[0].CreatedAt)
	require.Equal(t, "Bob", *stored[0].CreatedBy)
}

func TestRunIsIdempotent(t *testing.T) {
	store := newFakeStore()
	imp := newImporter(store)

	data := `"{""list"":[{""name"":""Electrical""}],""identifiedIssues"":""Loose wiring"",""fixedIssues"":false}"`
	doc := buildCSV(`500,INSPECTION,TRUE,,` + data + `,2025-10-01 00:00:00+03,,,,,,3,Block A,10,Site A,,Bob`)

	first := imp.Run(context.Background(), doc)
	second := imp.Run(context.Background(), doc)

	require.True(t, first.Success)
	require.True(t, second.Success)
	require.Equal(t, first.Stats.ContractsUpserted, second.Stats.ContractsUpserted)
	require.Equal(t, first.Stats.ActivitiesUpserted, second.Stats.ActivitiesUpserted)

	require.Len(t, store.contracts, 1)
	require.Len(t, store.activities, 1)

	activity := store.activities[500]
	stored := store.issuesByActivity[activity.ID]
	require.Len(t, stored, 1, "re-import must replace, not duplicate, issues")
	require.Equal(t, "Loose wiring", stored[0].Title)
	require.Equal(t, "2025-10-01 00:00:00", stored[0].CreatedAt)
}

func TestRunFixedIssuesNeverGenerateTickets(t *testing.T) {
	store := newFakeStore()
	imp := newImporter(store)

	data := `"{""fixedIssues"":true,""identifiedIssues"":""text""}"`
	report := imp.Run(context.Background(), buildCSV(`500,INSPECTION,TRUE,,`+data+`,2025-10-01 00:00:00+03,,,,,,,,10,Site A,,`))

	require.True(t, report.Success)
	require.Equal(t, 0, report.Stats.IssuesCreated)
	require.Empty(t, store.issuesByActivity)
}

func TestRunNonInspectionRowsProduceNoIssues(t *testing.T) {
	store := newFakeStore()
	imp := newImporter(store)

	data := `"{""identifiedIssues"":""text"",""fixedIssues"":false}"`
	report := imp.Run(context.Background(), buildCSV(`501,CONSTRUCTION,false,,`+data+`,2025-10-01 00:00:00+03,,,,,,,,10,Site A,,`))

	require.True(t, report.Success)
	require.Equal(t, 1, report.Stats.ActivitiesUpserted)
	require.Equal(t, 0, report.Stats.IssuesCreated)
	require.Equal(t, domain.ActivityTypeConstruction, store.activities[501].Type)
}

func TestRunEmptyCSVFailsGracefully(t *testing.T) {
	imp := newImporter(newFakeStore())

	for _, doc := range []string{"", csvHeader, csvHeader + "\n\n"} {
		report := imp.Run(context.Background(), doc)
		require.False(t, report.Success)
		require.Equal(t, "no data found in CSV", report.Message)
		require.Equal(t, Stats{}, report.Stats)
	}
}

func TestRunSkipsRowsMissingContractIdentity(t *testing.T) {
	store := newFakeStore()
	imp := newImporter(store)

	report := imp.Run(context.Background(), buildCSV(
		`500,INSPECTION,TRUE,,null,2025-10-01 00:00:00+03,,,,,,,,,Site A,,`,
		`501,INSPECTION,TRUE,,null,2025-10-01 00:00:00+03,,,,,,,,10,,,`,
		`502,INSPECTION,TRUE,,null,2025-10-01 00:00:00+03,,,,,,,,10,Site A,,`,
	))

	require.True(t, report.Success)
	require.Equal(t, 1, report.Stats.ActivitiesUpserted)
	require.Len(t, report.Rows, 3)
	require.True(t, report.Rows[0].Skipped)
	require.True(t, report.Rows[1].Skipped)
	require.True(t, report.Rows[2].OK)
}

func TestRunMalformedPayloadFallsBackToGeneral(t *testing.T) {
	store := newFakeStore()
	imp := newImporter(store)

	report := imp.Run(context.Background(), buildCSV(
		`500,INSPECTION,TRUE,,"{not json",2025-10-01 00:00:00+03,,,,,,,,10,Site A,,`,
		`501,,,,null,,,,,,,,,10,Site A,,`,
	))

	require.True(t, report.Success)
	require.Equal(t, 2, report.Stats.ActivitiesUpserted)
	require.Equal(t, "general", *store.activities[500].InspectionType)
	// Blank type defaults to INSPECTION.
	require.Equal(t, domain.ActivityTypeInspection, store.activities[501].Type)
	require.False(t, store.activities[501].Verified)
}

func TestRunRowFailureDoesNotAbortBatch(t *testing.T) {
	store := newFakeStore()
	store.failActivityID = 500
	imp := newImporter(store)

	report := imp.Run(context.Background(), buildCSV(
		`500,INSPECTION,TRUE,,null,2025-10-01 00:00:00+03,,,,,,,,10,Site A,,`,
		`501,INSPECTION,TRUE,,null,2025-10-01 00:00:00+03,,,,,,,,10,Site A,,`,
	))

	require.True(t, report.Success, "row failures must not fail the pipeline")
	require.Equal(t, 1, report.Stats.ActivitiesUpserted)
	require.Len(t, report.Rows, 2)
	require.False(t, report.Rows[0].OK)
	require.Contains(t, report.Rows[0].Error, "upsert activity")
	require.True(t, report.Rows[1].OK)
}

func TestRunRejectsNonNumericIdentifiers(t *testing.T) {
	store := newFakeStore()
	imp := newImporter(store)

	report := imp.Run(context.Background(), buildCSV(
		`abc,INSPECTION,TRUE,,null,2025-10-01 00:00:00+03,,,,,,,,10,Site A,,`,
	))

	require.True(t, report.Success)
	require.Len(t, report.Rows, 1)
	require.Contains(t, report.Rows[0].Error, "invalid activityId")
	require.Equal(t, 0, report.Stats.ActivitiesUpserted)
	// The contract upsert happens before the activity id is parsed.
	require.Equal(t, 1, report.Stats.ContractsUpserted)
}

type fakeStore struct {
	contracts        map[int64]*domain.Contract
	activities       map[int64]*domain.Activity
	issuesByActivity map[string][]domain.Issue
	failActivityID   int64
	nextID           int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		contracts:        make(map[int64]*domain.Contract),
		activities:       make(map[int64]*domain.Activity),
		issuesByActivity: make(map[string][]domain.Issue),
	}
}

func (f *fakeStore) newSurrogate(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) UpsertContract(_ context.Context, contractID int64, name string) (*domain.Contract, error) {
	if existing, ok := f.contracts[contractID]; ok {
		existing.ContractName = name
		copied := *existing
		return &copied, nil
	}
	contract := &domain.Contract{ID: f.newSurrogate("contract"), ContractID: contractID, ContractName: name}
	f.contracts[contractID] = contract
	copied := *contract
	return &copied, nil
}

func (f *fakeStore) UpsertActivity(_ context.Context, activity domain.Activity) (*domain.Activity, error) {
	if f.failActivityID != 0 && activity.ActivityID == f.failActivityID {
		return nil, errors.New("store unavailable")
	}
	if existing, ok := f.activities[activity.ActivityID]; ok {
		activity.ID = existing.ID
	} else {
		activity.ID = f.newSurrogate("activity")
	}
	stored := activity
	f.activities[activity.ActivityID] = &stored
	copied := stored
	return &copied, nil
}

func (f *fakeStore) ReplaceIssues(_ context.Context, activityID string, drafts []domain.Issue) (int, error) {
	stored := make([]domain.Issue, 0, len(drafts))
	for _, draft := range drafts {
		draft.ID = f.newSurrogate("issue")
		stored = append(stored, draft)
	}
	f.issuesByActivity[activityID] = stored
	return len(stored), nil
}
