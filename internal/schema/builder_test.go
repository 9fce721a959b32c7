package schema

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shekarbharathi/bank-fdic-v1/internal/bankdata"
)

type fakeStore struct {
	mu    sync.Mutex
	calls int
	info  bankdata.SchemaInfo
	err   error
}

func (f *fakeStore) SchemaInfo(context.Context) (bankdata.SchemaInfo, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.info, f.err
}

func (f *fakeStore) RunReadOnlyQuery(context.Context, string) ([]bankdata.Row, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) HealthCheck(context.Context) error { return nil }

func sampleInfo() bankdata.SchemaInfo {
	return bankdata.SchemaInfo{Tables: []bankdata.TableInfo{
		{
			Name:     "institutions",
			RowCount: 4587,
			Columns: []bankdata.ColumnInfo{
				{Name: "cert", Type: "INTEGER", Nullable: false},
				{Name: "name", Type: "VARCHAR(255)", Nullable: true},
				{Name: "asset", Type: "NUMERIC(20,2)", Nullable: true},
			},
		},
		{
			Name:     "failures",
			RowCount: 570,
			Columns: []bankdata.ColumnInfo{
				{Name: "cert", Type: "INTEGER", Nullable: false},
			},
		},
	}}
}

func TestDescribeRendersTablesAndGlossary(t *testing.T) {
	b := NewBuilder(&fakeStore{info: sampleInfo()})

	text, err := b.Describe(context.Background())
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}

	for _, want := range []string{
		"Database Schema for FDIC Bank Data:",
		"Table: institutions",
		"Row count: 4,587",
		"- cert (INTEGER) NOT NULL",
		"- name (VARCHAR(255)) NULL",
		"financials.cert references institutions.cert",
		"THOUSANDS of dollars",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("description missing %q", want)
		}
	}
}

func TestDescribeCachesAcrossCalls(t *testing.T) {
	store := &fakeStore{info: sampleInfo()}
	b := NewBuilder(store)

	first, err := b.Describe(context.Background())
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	second, err := b.Describe(context.Background())
	if err != nil {
		t.Fatalf("second Describe failed: %v", err)
	}
	if first != second {
		t.Fatal("cached description differs")
	}
	if store.calls != 1 {
		t.Fatalf("metadata queries = %d", store.calls)
	}
}

func TestDescribeConcurrentFirstCallersShareOneQuery(t *testing.T) {
	store := &fakeStore{info: sampleInfo()}
	b := NewBuilder(store)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := b.Describe(context.Background()); err != nil {
				t.Errorf("Describe failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if store.calls != 1 {
		t.Fatalf("metadata queries = %d", store.calls)
	}
}

func TestDescribePropagatesStoreError(t *testing.T) {
	b := NewBuilder(&fakeStore{err: errors.New("connection refused")})

	if _, err := b.Describe(context.Background()); err == nil {
		t.Fatal("expected an error")
	}
}

func TestInvalidateForcesRebuild(t *testing.T) {
	store := &fakeStore{info: sampleInfo()}
	b := NewBuilder(store)

	if _, err := b.Describe(context.Background()); err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	b.Invalidate()
	if _, err := b.Describe(context.Background()); err != nil {
		t.Fatalf("Describe after Invalidate failed: %v", err)
	}
	if store.calls != 2 {
		t.Fatalf("metadata queries = %d", store.calls)
	}
}

func TestInfoReturnsSnapshot(t *testing.T) {
	b := NewBuilder(&fakeStore{info: sampleInfo()})

	info, err := b.Info(context.Background())
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	if len(info.Tables) != 2 || info.Tables[0].Name != "institutions" {
		t.Fatalf("info = %+v", info)
	}
}

func TestUnknownTableGetsGenericDescription(t *testing.T) {
	b := NewBuilder(&fakeStore{info: bankdata.SchemaInfo{Tables: []bankdata.TableInfo{
		{Name: "mystery", RowCount: 1},
	}}})

	text, err := b.Describe(context.Background())
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if !strings.Contains(text, "Banking data table") {
		t.Fatal("generic description missing")
	}
}
