package notify

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/settlement/internal/metrics"
	"github.com/GlebRadaev/settlement/pkg/clients"
	"github.com/GlebRadaev/settlement/pkg/workerpool"
)

// inlinePool runs tasks on the caller's goroutine.
type inlinePool struct {
	errs []error
	full bool
}

func (p *inlinePool) TryAddTask(task workerpool.Task) bool {
	if p.full {
		return false
	}
	p.errs = append(p.errs, task())
	return true
}

func TestNotifier_Publish(t *testing.T) {
	event := Event{
		Type:       EventPayoutCompleted,
		AccountID:  1,
		EntityID:   4,
		Amount:     5000,
		Reference:  "payout:4",
		OccurredAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name        string
		url         string
		full        bool
		prepareMock func(client *clients.MockHTTPClientI)
		wantStatus  string
		wantErr     bool
	}{
		{
			name: "Delivered",
			url:  "http://notify.local/events",
			prepareMock: func(client *clients.MockHTTPClientI) {
				client.EXPECT().Post("http://notify.local/events", gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ string, headers http.Header, body []byte) (int, []byte, error) {
						assert.Equal(t, "application/json", headers.Get("Content-Type"))
						assert.JSONEq(t, `{"type":"payout.completed","account_id":1,"entity_id":4,"amount":5000,"reference":"payout:4","occurred_at":"2024-03-01T10:00:00Z"}`, string(body))
						return http.StatusAccepted, nil, nil
					})
			},
			wantStatus: "sent",
		},
		{
			name: "Receiver error",
			url:  "http://notify.local/events",
			prepareMock: func(client *clients.MockHTTPClientI) {
				client.EXPECT().Post(gomock.Any(), gomock.Any(), gomock.Any()).Return(http.StatusInternalServerError, nil, nil)
			},
			wantStatus: "failed",
			wantErr:    true,
		},
		{
			name: "Transport error",
			url:  "http://notify.local/events",
			prepareMock: func(client *clients.MockHTTPClientI) {
				client.EXPECT().Post(gomock.Any(), gomock.Any(), gomock.Any()).Return(0, nil, errors.New("connection refused"))
			},
			wantStatus: "failed",
			wantErr:    true,
		},
		{
			name:       "No receiver configured",
			wantStatus: "logged",
		},
		{
			name:       "Queue full",
			url:        "http://notify.local/events",
			full:       true,
			wantStatus: "dropped",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics.NotificationsTotal.Reset()
			ctrl := gomock.NewController(t)
			client := clients.NewMockHTTPClientI(ctrl)
			if tt.prepareMock != nil {
				tt.prepareMock(client)
			}
			pool := &inlinePool{full: tt.full}

			New(tt.url, client, pool).Publish(context.Background(), event)

			assert.Equal(t, float64(1), testutil.ToFloat64(metrics.NotificationsTotal.WithLabelValues(EventPayoutCompleted, tt.wantStatus)))
			if tt.wantErr {
				assert.Len(t, pool.errs, 1)
				assert.Error(t, pool.errs[0])
			}
		})
	}
}
