// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDBQuery(t *testing.T) {
	t.Parallel()
	RecordDBQuery("select", "alerts", 10*time.Millisecond, nil)
	if got := testutil.ToFloat64(DBQueryDuration.WithLabelValues("select", "alerts")); got <= 0 {
		t.Errorf("DBQueryDuration sum = %v, want > 0", got)
	}
}

func TestRecordDBQuery_ClassifiesErrors(t *testing.T) {
	t.Parallel()
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("insert", "sources", "timeout"))
	RecordDBQuery("insert", "sources", time.Millisecond, errors.New("context deadline: timeout exceeded"))
	after := testutil.ToFloat64(DBQueryErrors.WithLabelValues("insert", "sources", "timeout"))
	if after != before+1 {
		t.Errorf("DBQueryErrors[timeout] = %v, want %v", after, before+1)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	t.Parallel()
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/cap-alerts/active", "200"))
	RecordAPIRequest("GET", "/cap-alerts/active", "200", 5*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/cap-alerts/active", "200"))
	if after != before+1 {
		t.Errorf("APIRequestsTotal = %v, want %v", after, before+1)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	t.Parallel()
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("APIActiveRequests after inc = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("APIActiveRequests after dec = %v, want %v", got, before)
	}
}

func TestRecordSpatialOp(t *testing.T) {
	t.Parallel()
	before := testutil.ToFloat64(DBSpatialOperations.WithLabelValues("geomfromgeojson"))
	RecordSpatialOp("geomfromgeojson")
	after := testutil.ToFloat64(DBSpatialOperations.WithLabelValues("geomfromgeojson"))
	if after != before+1 {
		t.Errorf("DBSpatialOperations = %v, want %v", after, before+1)
	}
}

func TestRecordFetchCycle(t *testing.T) {
	t.Parallel()
	beforeOK := testutil.ToFloat64(SchedulerCyclesTotal.WithLabelValues("src-1", "success"))
	RecordFetchCycle("src-1", false, 200*time.Millisecond)
	if after := testutil.ToFloat64(SchedulerCyclesTotal.WithLabelValues("src-1", "success")); after != beforeOK+1 {
		t.Errorf("SchedulerCyclesTotal[success] = %v, want %v", after, beforeOK+1)
	}

	beforeFail := testutil.ToFloat64(SchedulerCyclesTotal.WithLabelValues("src-1", "failure"))
	RecordFetchCycle("src-1", true, 50*time.Millisecond)
	if after := testutil.ToFloat64(SchedulerCyclesTotal.WithLabelValues("src-1", "failure")); after != beforeFail+1 {
		t.Errorf("SchedulerCyclesTotal[failure] = %v, want %v", after, beforeFail+1)
	}
}

func TestRecordAlertTransition(t *testing.T) {
	t.Parallel()
	before := testutil.ToFloat64(AlertsByStatus.WithLabelValues("new"))
	RecordAlertTransition("new", 3)
	if after := testutil.ToFloat64(AlertsByStatus.WithLabelValues("new")); after != before+3 {
		t.Errorf("AlertsByStatus[new] = %v, want %v", after, before+3)
	}

	// A non-positive count must not touch the counter.
	RecordAlertTransition("new", 0)
	if after := testutil.ToFloat64(AlertsByStatus.WithLabelValues("new")); after != before+3 {
		t.Errorf("AlertsByStatus[new] after zero-count call = %v, want unchanged %v", after, before+3)
	}
}

func TestClassifyDBError(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err  error
		want string
	}{
		{errors.New("i/o timeout"), "timeout"},
		{errors.New("constraint violation"), "constraint"},
		{errors.New("connection refused"), "connection"},
		{errors.New("something else"), "unknown"},
	}
	for _, tc := range cases {
		if got := classifyDBError(tc.err); got != tc.want {
			t.Errorf("classifyDBError(%q) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
