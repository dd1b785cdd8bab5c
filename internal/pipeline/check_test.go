package pipeline_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"skyhaul/internal/catalog"
	"skyhaul/internal/orders"
	"skyhaul/internal/pipeline"
	"skyhaul/internal/testsupport"
	"skyhaul/internal/transfer"
)

func TestPollUpdatesStoreAndCarriesHints(t *testing.T) {
	fake := &fakeCatalog{statuses: map[string]*catalog.OrderStatus{}}
	p, store, _ := newPipeline(t, fake)
	ctx := context.Background()

	order := testsupport.SceneOrder(t, "order-1", "Kericho", "2023-01-01", "2023-02-28")
	testsupport.SaveOrder(t, store, order)

	fake.statuses["order-1"] = &catalog.OrderStatus{ID: "order-1", State: "running"}
	updated, status, err := p.Poll(ctx, order)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if updated.Status != orders.StatusRunning {
		t.Fatalf("expected running, got %s", updated.Status)
	}
	if status.State != "running" {
		t.Fatalf("unexpected remote state %q", status.State)
	}

	fake.statuses["order-1"] = &catalog.OrderStatus{
		ID:         "order-1",
		State:      "failed",
		ErrorHints: []string{"quota exhausted", "contact support"},
	}
	updated, _, err = p.Poll(ctx, updated)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if updated.Status != orders.StatusFailed {
		t.Fatalf("expected failed, got %s", updated.Status)
	}
	if updated.ErrorHint != "quota exhausted, contact support" {
		t.Fatalf("unexpected hint %q", updated.ErrorHint)
	}

	stored, err := store.Get(ctx, "order-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != orders.StatusFailed || stored.ErrorHint != "quota exhausted, contact support" {
		t.Fatalf("store not updated: %+v", stored)
	}
}

func TestPollKeepsLocalStatusOnStaleRemote(t *testing.T) {
	fake := &fakeCatalog{statuses: map[string]*catalog.OrderStatus{
		"order-1": {ID: "order-1", State: "running"},
	}}
	p, store, _ := newPipeline(t, fake)
	ctx := context.Background()

	order := testsupport.SceneOrder(t, "order-1", "Kericho", "2023-01-01", "2023-02-28")
	order.Status = orders.StatusSuccess
	testsupport.SaveOrder(t, store, order)

	updated, _, err := p.Poll(ctx, order)
	if err != nil {
		t.Fatalf("a stale remote state must not fail the poll: %v", err)
	}
	if updated.Status != orders.StatusSuccess {
		t.Fatalf("stale remote state rolled the order back to %s", updated.Status)
	}

	stored, err := store.Get(ctx, "order-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != orders.StatusSuccess {
		t.Fatalf("store regressed to %s", stored.Status)
	}
}

func TestPollUnknownStateLeavesOrderUntouched(t *testing.T) {
	fake := &fakeCatalog{statuses: map[string]*catalog.OrderStatus{
		"order-1": {ID: "order-1", State: "archived"},
	}}
	p, store, _ := newPipeline(t, fake)
	ctx := context.Background()

	order := testsupport.SceneOrder(t, "order-1", "Kericho", "2023-01-01", "2023-02-28")
	testsupport.SaveOrder(t, store, order)

	updated, status, err := p.Poll(ctx, order)
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if updated.Status != orders.StatusQueued {
		t.Fatalf("unknown state should leave the order, got %s", updated.Status)
	}
	if status.State != "archived" {
		t.Fatalf("remote state should pass through, got %q", status.State)
	}
}

// fileServer serves the same payload for every request and counts hits.
func fileServer(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCheckOrderDownloadsScenes(t *testing.T) {
	server := fileServer(t, "imagery-bytes")
	fake := &fakeCatalog{statuses: map[string]*catalog.OrderStatus{
		"order-1": {
			ID:    "order-1",
			State: "success",
			Links: catalog.OrderLinks{Results: []catalog.ResultLink{
				{Name: "files/20230115_083015_42_2451_3B_AnalyticMS_SR_clip.tif", Location: server.URL + "/a"},
				{Name: "files/20230115_083015_42_2451_3B_udm2_clip.tif", Location: server.URL + "/b"},
				{Name: "manifest.json", Location: server.URL + "/c"},
			}},
		},
	}}
	p, store, _ := newPipeline(t, fake)
	ctx := context.Background()

	order := testsupport.SceneOrder(t, "order-1", "Kericho", "2023-01-01", "2023-02-28")
	testsupport.SaveOrder(t, store, order)

	destDir := t.TempDir()
	report, err := p.CheckOrder(ctx, "order-1", pipeline.CheckOptions{
		Download: pipeline.DownloadOptions{Dest: transfer.NewDirDestination(destDir)},
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}

	if report.State != orders.StatusSuccess {
		t.Fatalf("expected success state, got %s", report.State)
	}
	if report.Order == nil || report.Order.Status != orders.StatusSuccess {
		t.Fatalf("stored order should be updated: %+v", report.Order)
	}
	if report.Download == nil {
		t.Fatal("expected a download to run")
	}
	if report.Download.Summary.Downloaded != 1 || report.Download.Summary.Failed != 0 {
		t.Fatalf("unexpected summary %s", report.Download.Summary)
	}
	if len(report.Download.Plan.Skipped) != 2 {
		t.Fatalf("mask and manifest should be skipped, got %v", report.Download.Plan.Skipped)
	}

	path := filepath.Join(destDir, "planetscope analytic", "four_bands", "Kericho",
		"2023_01_15_083015_42_2451_3B_AnalyticMS_SR.tiff")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read delivered file: %v", err)
	}
	if string(data) != "imagery-bytes" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestCheckOrderPartialDeliversAvailableFiles(t *testing.T) {
	server := fileServer(t, "imagery-bytes")
	// Two of the three expected weekly scenes came through; the third link
	// never materialized on the remote side.
	fake := &fakeCatalog{statuses: map[string]*catalog.OrderStatus{
		"order-1": {
			ID:    "order-1",
			State: "partial",
			Links: catalog.OrderLinks{Results: []catalog.ResultLink{
				{Name: "20230115_083015_42_2451_3B_AnalyticMS_SR_clip.tif", Location: server.URL + "/a"},
				{Name: "20230122_091200_17_2318_3B_AnalyticMS_SR_clip.tif", Location: server.URL + "/b"},
			}},
		},
	}}
	p, store, _ := newPipeline(t, fake)
	ctx := context.Background()

	order := testsupport.SceneOrder(t, "order-1", "Kericho", "2023-01-01", "2023-02-28")
	testsupport.SaveOrder(t, store, order)

	destDir := t.TempDir()
	report, err := p.CheckOrder(ctx, "order-1", pipeline.CheckOptions{
		Download: pipeline.DownloadOptions{Dest: transfer.NewDirDestination(destDir)},
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}

	if report.State != orders.StatusPartial {
		t.Fatalf("expected partial state, got %s", report.State)
	}
	if report.Download == nil || report.Download.Summary.Downloaded != 2 || report.Download.Summary.Failed != 0 {
		t.Fatalf("a partial order should deliver what exists, got %+v", report.Download)
	}
	for _, name := range []string{
		"2023_01_15_083015_42_2451_3B_AnalyticMS_SR.tiff",
		"2023_01_22_091200_17_2318_3B_AnalyticMS_SR.tiff",
	} {
		path := filepath.Join(destDir, "planetscope analytic", "four_bands", "Kericho", name)
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("available file not delivered: %v", err)
		}
	}

	stored, err := store.Get(ctx, "order-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != orders.StatusPartial {
		t.Fatalf("expected partial persisted, got %s", stored.Status)
	}

	// The remaining scene eventually arrives and the order completes.
	fake.statuses["order-1"].State = "success"
	updated, _, err := p.Poll(ctx, stored)
	if err != nil {
		t.Fatalf("poll after completion: %v", err)
	}
	if updated.Status != orders.StatusSuccess {
		t.Fatalf("partial order should complete, got %s", updated.Status)
	}
}

func TestCheckOrderMosaicLayout(t *testing.T) {
	server := fileServer(t, "quad-bytes")
	fake := &fakeCatalog{statuses: map[string]*catalog.OrderStatus{
		"order-1": {
			ID:         "order-1",
			State:      "success",
			SourceType: "basemaps",
			Links: catalog.OrderLinks{Results: []catalog.ResultLink{
				{Name: "quads/543-1204.tif", Location: server.URL + "/quad"},
			}},
		},
	}}
	p, store, _ := newPipeline(t, fake)
	ctx := context.Background()

	order := &orders.Order{
		ID:         "order-1",
		AOILabel:   "Kericho",
		Kind:       orders.KindMosaic,
		Status:     orders.StatusQueued,
		MosaicName: "global_monthly_2024_01_mosaic",
	}
	testsupport.SaveOrder(t, store, order)

	destDir := t.TempDir()
	report, err := p.CheckOrder(ctx, "order-1", pipeline.CheckOptions{
		Download: pipeline.DownloadOptions{Dest: transfer.NewDirDestination(destDir)},
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if report.Download == nil || report.Download.Summary.Downloaded != 1 {
		t.Fatalf("expected one quad downloaded, got %+v", report.Download)
	}

	path := filepath.Join(destDir, "basemaps", "Kericho", "2024_01", "543-1204.tif")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("quad not delivered: %v", err)
	}
}

func TestCheckOrderUnknownToStore(t *testing.T) {
	server := fileServer(t, "imagery-bytes")
	fake := &fakeCatalog{statuses: map[string]*catalog.OrderStatus{
		"order-x": {
			ID:    "order-x",
			State: "success",
			Links: catalog.OrderLinks{Results: []catalog.ResultLink{
				{Name: "20230115_083015_42_2451_3B_AnalyticMS_SR_clip.tif", Location: server.URL + "/a"},
			}},
		},
	}}
	p, store, _ := newPipeline(t, fake)
	ctx := context.Background()

	destDir := t.TempDir()
	report, err := p.CheckOrder(ctx, "order-x", pipeline.CheckOptions{
		Download: pipeline.DownloadOptions{Dest: transfer.NewDirDestination(destDir)},
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if report.Order != nil {
		t.Fatalf("unknown order should not be fabricated in the report: %+v", report.Order)
	}
	if report.Download == nil || report.Download.Summary.Downloaded != 1 {
		t.Fatalf("unknown orders should still download, got %+v", report.Download)
	}

	path := filepath.Join(destDir, "planetscope analytic", "four_bands", "UnknownAOI",
		"2023_01_15_083015_42_2451_3B_AnalyticMS_SR.tiff")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file should land under the UnknownAOI label: %v", err)
	}

	stored, err := store.Get(ctx, "order-x")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored != nil {
		t.Fatal("checking an unknown order must not create a record")
	}
}

func TestCheckOrderPendingStates(t *testing.T) {
	fake := &fakeCatalog{statuses: map[string]*catalog.OrderStatus{
		"order-1": {ID: "order-1", State: "queued"},
	}}
	p, store, _ := newPipeline(t, fake)
	ctx := context.Background()

	order := testsupport.SceneOrder(t, "order-1", "Kericho", "2023-01-01", "2023-02-28")
	testsupport.SaveOrder(t, store, order)

	report, err := p.CheckOrder(ctx, "order-1", pipeline.CheckOptions{
		Download: pipeline.DownloadOptions{Dest: transfer.NewDirDestination(t.TempDir())},
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if report.State != orders.StatusQueued {
		t.Fatalf("expected queued, got %s", report.State)
	}
	if report.Download != nil {
		t.Fatal("pending orders must not download")
	}
}

func TestCheckOrderFailedCarriesHints(t *testing.T) {
	fake := &fakeCatalog{statuses: map[string]*catalog.OrderStatus{
		"order-1": {ID: "order-1", State: "failed", ErrorHints: []string{"no access to item"}},
	}}
	p, store, _ := newPipeline(t, fake)
	ctx := context.Background()

	order := testsupport.SceneOrder(t, "order-1", "Kericho", "2023-01-01", "2023-02-28")
	testsupport.SaveOrder(t, store, order)

	report, err := p.CheckOrder(ctx, "order-1", pipeline.CheckOptions{
		Download: pipeline.DownloadOptions{Dest: transfer.NewDirDestination(t.TempDir())},
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if report.State != orders.StatusFailed {
		t.Fatalf("expected failed, got %s", report.State)
	}
	if len(report.Hints) != 1 || report.Hints[0] != "no access to item" {
		t.Fatalf("unexpected hints %v", report.Hints)
	}
	if report.Download != nil {
		t.Fatal("failed orders must not download")
	}
}

func TestCheckOrderSuccessWithoutLinks(t *testing.T) {
	fake := &fakeCatalog{statuses: map[string]*catalog.OrderStatus{
		"order-1": {ID: "order-1", State: "success"},
	}}
	p, store, _ := newPipeline(t, fake)
	ctx := context.Background()

	order := testsupport.SceneOrder(t, "order-1", "Kericho", "2023-01-01", "2023-02-28")
	testsupport.SaveOrder(t, store, order)

	report, err := p.CheckOrder(ctx, "order-1", pipeline.CheckOptions{
		Download: pipeline.DownloadOptions{Dest: transfer.NewDirDestination(t.TempDir())},
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if report.State != orders.StatusSuccess {
		t.Fatalf("expected success, got %s", report.State)
	}
	if report.Download != nil {
		t.Fatal("an order without links has nothing to download")
	}
}

func TestCheckOrderStatusOnly(t *testing.T) {
	server := fileServer(t, "imagery-bytes")
	fake := &fakeCatalog{statuses: map[string]*catalog.OrderStatus{
		"order-1": {
			ID:    "order-1",
			State: "success",
			Links: catalog.OrderLinks{Results: []catalog.ResultLink{
				{Name: "20230115_083015_42_2451_3B_AnalyticMS_SR_clip.tif", Location: server.URL + "/a"},
			}},
		},
	}}
	p, store, _ := newPipeline(t, fake)
	ctx := context.Background()

	order := testsupport.SceneOrder(t, "order-1", "Kericho", "2023-01-01", "2023-02-28")
	testsupport.SaveOrder(t, store, order)

	report, err := p.CheckOrder(ctx, "order-1", pipeline.CheckOptions{})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if report.Download != nil {
		t.Fatal("without a destination the check is status-only")
	}

	stored, err := store.Get(ctx, "order-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != orders.StatusSuccess {
		t.Fatalf("status-only check should still persist the poll: %s", stored.Status)
	}
}
