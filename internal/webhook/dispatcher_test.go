package webhook

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kshehadeh/atlassian-addon-helper/internal/auth"
)

func nopHandler(ctx context.Context, claims auth.Claims, payload []byte) error { return nil }

func TestNewDispatcher_DuplicateEventFailsFast(t *testing.T) {
	_, err := NewDispatcher(zap.NewNop().Sugar(), []Registration{
		{Event: "jira:issue_created", Handler: nopHandler},
		{Event: "jira:issue_created", Handler: nopHandler},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNewDispatcher_RejectsNilHandlerAndEmptyEvent(t *testing.T) {
	_, err := NewDispatcher(zap.NewNop().Sugar(), []Registration{{Event: "x"}})
	assert.Error(t, err)

	_, err = NewDispatcher(zap.NewNop().Sugar(), []Registration{{Handler: nopHandler}})
	assert.Error(t, err)
}

func TestDispatch_InvokesHandlerExactlyOnce(t *testing.T) {
	var calls atomic.Int32
	var gotTenant string
	var gotPayload []byte
	d, err := NewDispatcher(zap.NewNop().Sugar(), []Registration{
		{Event: "jira:issue_created", Handler: func(ctx context.Context, claims auth.Claims, payload []byte) error {
			calls.Add(1)
			gotTenant = claims.TenantKey
			gotPayload = payload
			return nil
		}},
	})
	require.NoError(t, err)

	payload := []byte(`{"webhookEvent":"jira:issue_created","issue":{"key":"DEMO-1"}}`)
	outcome := d.Dispatch(context.Background(), auth.Claims{TenantKey: "T1"}, "jira:issue_created", payload)
	assert.Equal(t, OutcomeOK, outcome)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "T1", gotTenant)
	assert.JSONEq(t, string(payload), string(gotPayload))
}

func TestDispatch_UnregisteredEventIsNotFound(t *testing.T) {
	var calls atomic.Int32
	d, err := NewDispatcher(zap.NewNop().Sugar(), []Registration{
		{Event: "jira:issue_created", Handler: func(ctx context.Context, claims auth.Claims, payload []byte) error {
			calls.Add(1)
			return nil
		}},
	})
	require.NoError(t, err)

	outcome := d.Dispatch(context.Background(), auth.Claims{}, "jira:issue_deleted", []byte(`{}`))
	assert.Equal(t, OutcomeNotFound, outcome)
	assert.Equal(t, int32(0), calls.Load())
}

func TestDispatch_HandlerErrorIsFailed(t *testing.T) {
	d, err := NewDispatcher(zap.NewNop().Sugar(), []Registration{
		{Event: "jira:issue_created", Handler: func(ctx context.Context, claims auth.Claims, payload []byte) error {
			return errors.New("downstream unavailable")
		}},
	})
	require.NoError(t, err)

	outcome := d.Dispatch(context.Background(), auth.Claims{}, "jira:issue_created", []byte(`{}`))
	assert.Equal(t, OutcomeFailed, outcome)
}

func TestDispatch_PanickingHandlerIsContained(t *testing.T) {
	healthyCalls := 0
	d, err := NewDispatcher(zap.NewNop().Sugar(), []Registration{
		{Event: "boom", Handler: func(ctx context.Context, claims auth.Claims, payload []byte) error {
			panic("handler bug")
		}},
		{Event: "fine", Handler: func(ctx context.Context, claims auth.Claims, payload []byte) error {
			healthyCalls++
			return nil
		}},
	})
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		assert.Equal(t, OutcomeFailed, d.Dispatch(context.Background(), auth.Claims{}, "boom", []byte(`{}`)))
	})
	// The process keeps serving after a handler panic.
	assert.Equal(t, OutcomeOK, d.Dispatch(context.Background(), auth.Claims{}, "fine", []byte(`{}`)))
	assert.Equal(t, 1, healthyCalls)
}

func TestEventName_Extraction(t *testing.T) {
	d, err := NewDispatcher(zap.NewNop().Sugar(), nil)
	require.NoError(t, err)

	assert.Equal(t, "jira:issue_created", d.EventName([]byte(`{"webhookEvent":"jira:issue_created"}`)))
	assert.Empty(t, d.EventName([]byte(`{"somethingElse":true}`)))
	assert.Empty(t, d.EventName([]byte(`not json`)))
}

func TestEventName_CustomExpression(t *testing.T) {
	d, err := NewDispatcher(zap.NewNop().Sugar(), nil, WithEventExpression("event.name"))
	require.NoError(t, err)
	assert.Equal(t, "page_created", d.EventName([]byte(`{"event":{"name":"page_created"}}`)))

	_, err = NewDispatcher(zap.NewNop().Sugar(), nil, WithEventExpression("][invalid"))
	assert.Error(t, err)
}

func TestFragment_OneEntryPerRegistration(t *testing.T) {
	d, err := NewDispatcher(zap.NewNop().Sugar(), []Registration{
		{Event: "jira:issue_created", Handler: nopHandler},
		{Event: "jira:issue_updated", Handler: nopHandler, Filter: "project = DEMO"},
	})
	require.NoError(t, err)

	f := d.Fragment()
	require.Len(t, f.Webhooks, 2)
	byEvent := map[string]string{}
	for _, wh := range f.Webhooks {
		byEvent[wh.Event] = wh.URL
	}
	assert.Equal(t, "/webhook/jira:issue_created", byEvent["jira:issue_created"])
	assert.Equal(t, "/webhook/jira:issue_updated", byEvent["jira:issue_updated"])
}
