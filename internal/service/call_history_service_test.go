package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/voicecampaign-backend/internal/errors"
	"github.com/unclebandit/voicecampaign-backend/internal/model"
	"github.com/unclebandit/voicecampaign-backend/internal/queue"
	"github.com/unclebandit/voicecampaign-backend/internal/repository"
	"github.com/unclebandit/voicecampaign-backend/internal/service"
)

func newCallHistoryService(t *testing.T) (*service.CallHistoryService, *repository.MemoryCampaignRepository, *queue.InMemoryQueue, *eventRecorder) {
	t.Helper()
	q := queue.NewInMemoryQueue(nil)
	rec := &eventRecorder{}
	require.NoError(t, q.Subscribe(queue.TopicCallHistoryEvents, rec.handle))
	campaigns := repository.NewMemoryCampaignRepository()
	svc := service.NewCallHistoryService(repository.NewMemoryCallHistoryRepository(), campaigns, q, nil)
	return svc, campaigns, q, rec
}

func callInput(campaignID *int, email string) model.CallHistoryInput {
	return model.CallHistoryInput{
		CampaignID:   campaignID,
		ContactName:  "Amit Khanna",
		ContactEmail: email,
		ContactPhone: "+91 98765 43210",
		Status:       model.CallStatusLeadInterested,
	}
}

func TestRecordCallChecksCampaign(t *testing.T) {
	svc, campaigns, _, _ := newCallHistoryService(t)
	ctx := context.Background()

	_, err := svc.RecordCall(ctx, callInput(model.IntPtr(5), "a@x.com"), "api")
	var verr *appErrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "campaignId", verr.Fields[0].Field)

	c := validInput().ToCampaign()
	require.NoError(t, campaigns.Create(ctx, c))
	h, err := svc.RecordCall(ctx, callInput(model.IntPtr(c.ID), "a@x.com"), "api")
	require.NoError(t, err)
	assert.Equal(t, c.ID, *h.CampaignID)
	assert.False(t, h.CallDate.IsZero())

	// Deleting the campaign afterwards leaves the record in place.
	_, err = campaigns.Delete(ctx, c.ID)
	require.NoError(t, err)
	got, err := svc.GetCallHistory(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, *got.CampaignID)
}

func TestRecordCallWithoutCampaign(t *testing.T) {
	svc, _, _, _ := newCallHistoryService(t)
	h, err := svc.RecordCall(context.Background(), callInput(nil, "a@x.com"), "api")
	require.NoError(t, err)
	assert.Nil(t, h.CampaignID)
}

func TestRecordCallRequiredFields(t *testing.T) {
	svc, _, _, _ := newCallHistoryService(t)
	_, err := svc.RecordCall(context.Background(), model.CallHistoryInput{}, "api")

	var verr *appErrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Invalid call history data", verr.Message)
	assert.Len(t, verr.Fields, 4)
}

func TestListCallHistoryByContact(t *testing.T) {
	svc, _, _, _ := newCallHistoryService(t)
	ctx := context.Background()
	for _, email := range []string{"a@x.com", "b@x.com", "a@x.com"} {
		_, err := svc.RecordCall(ctx, callInput(nil, email), "api")
		require.NoError(t, err)
	}

	all, err := svc.ListCallHistory(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	filtered, err := svc.ListCallHistory(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Len(t, filtered, 2)
}

func TestUpdateCallStatus(t *testing.T) {
	svc, _, q, rec := newCallHistoryService(t)
	ctx := context.Background()
	h, err := svc.RecordCall(ctx, callInput(nil, "a@x.com"), "api")
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, h.ID, model.CallStatusUpdate{})
	var verr *appErrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Status is required", verr.Message)

	updated, err := svc.UpdateStatus(ctx, h.ID, model.CallStatusUpdate{Status: model.CallStatusFollowUp})
	require.NoError(t, err)
	assert.Equal(t, model.CallStatusFollowUp, updated.Status)
	assert.Equal(t, h.CallDate, updated.CallDate)

	_, err = svc.UpdateStatus(ctx, 999, model.CallStatusUpdate{Status: "x"})
	assert.True(t, appErrors.IsNotFound(err))

	q.Wait()
	assert.ElementsMatch(t, []string{queue.CallRecorded, queue.CallStatusChanged}, rec.types())
}
