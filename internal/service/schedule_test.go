package service_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/usb-cleaner-box/ucb/internal/model"
	"github.com/usb-cleaner-box/ucb/internal/service"
)

func TestNewRefresher(t *testing.T) {
	var calls atomic.Int32
	cfg := &model.Refresh{Duration: model.Duration{Duration: 20 * time.Millisecond}}

	s, err := service.NewRefresher(t.Context(), cfg, func() { calls.Add(1) })
	require.NoError(t, err)
	s.Start()
	t.Cleanup(func() {
		require.NoError(t, s.Shutdown())
	})

	require.Eventually(t, func() bool {
		return calls.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNewRefresher_Errors(t *testing.T) {
	var testCases = []struct {
		scenario string
		given    *model.Refresh
		then     string
	}{
		{"nil", nil, "workers.refresh is nil"},
		{"empty", &model.Refresh{}, "both cron and duration are empty"},
		{"bad cron", &model.Refresh{Cron: "* * 32 * *"}, "workers.refresh.cron: end of range (32) above maximum (31): 32"},
	}

	for _, tc := range testCases {
		t.Run(tc.scenario, func(t *testing.T) {
			s, err := service.NewRefresher(t.Context(), tc.given, func() {})
			require.EqualError(t, err, tc.then)
			require.Nil(t, s)
		})
	}
}

func TestNewRefresher_Cron(t *testing.T) {
	s, err := service.NewRefresher(t.Context(), &model.Refresh{Cron: "@every 1h"}, func() {})
	require.NoError(t, err)
	s.Start()
	require.Len(t, s.Jobs(), 1)
	require.NoError(t, s.Shutdown())
}
