package reconciliation

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sheet-reconciler/core/apperror"
	"sheet-reconciler/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRequest(t *testing.T) Request {
	t.Helper()
	var req Request
	require.NoError(t, json.Unmarshal([]byte(datasetsBody), &req))
	return req
}

func TestService_ExportJoinsConcurrentCalls(t *testing.T) {
	svc := newTestService(testDeps{})
	req := sampleRequest(t)

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	run := func(ctx context.Context) (*reconcile.Result, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return svc.Reconcile(ctx, req)
	}

	var wg sync.WaitGroup
	outs := make([]*ExportOutcome, 2)
	errs := make([]error, 2)
	call := func(i int) {
		defer wg.Done()
		outs[i], errs[i] = svc.Export(context.Background(), "same-body", run, ExportRequest{})
	}

	wg.Add(1)
	go call(0)
	<-started
	wg.Add(1)
	go call(1)
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, int32(1), calls.Load())
	assert.Same(t, outs[0], outs[1])
}

func TestService_ExportWithoutKeyAlwaysRuns(t *testing.T) {
	svc := newTestService(testDeps{})
	req := sampleRequest(t)

	var calls int
	run := func(ctx context.Context) (*reconcile.Result, error) {
		calls++
		return svc.Reconcile(ctx, req)
	}

	for i := 0; i < 2; i++ {
		out, err := svc.Export(context.Background(), "", run, ExportRequest{Category: "Matched"})
		require.NoError(t, err)
		require.Len(t, out.Artifacts, 1)
		assert.Equal(t, 1, out.Artifacts[0].Sheets[0].Rows)
	}
	assert.Equal(t, 2, calls)
}

func TestService_ExportValidation(t *testing.T) {
	svc := newTestService(testDeps{})
	never := func(context.Context) (*reconcile.Result, error) {
		t.Fatal("run must not be called")
		return nil, nil
	}

	tests := []struct {
		name string
		req  ExportRequest
	}{
		{"UnknownCategory", ExportRequest{Category: "everything"}},
		{"PublishWithoutStorage", ExportRequest{Publish: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Export(context.Background(), "", never, tt.req)
			assert.True(t, apperror.Is(err, apperror.KindValidation))
		})
	}
}

func TestService_Reconcile_DefaultNames(t *testing.T) {
	svc := newTestService(testDeps{})
	req := sampleRequest(t)
	req.File1.Name = ""
	req.File2.Name = ""

	res, err := svc.Reconcile(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "file1", res.File1Name)
	assert.Equal(t, "file2", res.File2Name)
}

func TestService_UploadSource(t *testing.T) {
	svc := newTestService(testDeps{})

	tests := []struct {
		name    string
		upload  Upload
		wantErr bool
	}{
		{"CSV", Upload{FileName: "a.CSV", Data: []byte("a\n1\n")}, false},
		{"Workbook", Upload{FileName: "a.xlsx", Data: []byte("x")}, false},
		{"Empty", Upload{FileName: "a.csv"}, true},
		{"OtherType", Upload{FileName: "a.txt", Data: []byte("x")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := svc.uploadSource(tt.upload)
			if tt.wantErr {
				assert.True(t, apperror.Is(err, apperror.KindValidation))
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, src)
		})
	}
}
