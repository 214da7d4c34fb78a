package audit_test

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/AnubisArt/PVA-Model-Banky/internal/audit"
	"github.com/AnubisArt/PVA-Model-Banky/internal/domain/account"
)

func TestTransferLineFormat(t *testing.T) {
	src := account.Ref{ID: 3, Kind: account.Checking}
	dst := account.Ref{ID: 7, Kind: account.Credit}

	got := audit.TransferLine(src, dst, 250, audit.StatusSuccess)
	want := "Transakce: 3 (checking) -> 7 (credit) (250), status: SUCCESS"

	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	got = audit.TransferLine(src, dst, 250, audit.StatusFailed)
	if got != "Transakce: 3 (checking) -> 7 (credit) (250), status: FAILED" {
		t.Fatalf("got %q", got)
	}
}

func TestFileSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")

	sink, err := audit.NewFileSink(path)
	if err != nil {
		t.Fatalf("new file sink: %v", err)
	}

	lines := []string{
		"Transakce: 1 (checking) -> 2 (checking) (100), status: SUCCESS",
		"Transakce: 2 (checking) -> 1 (savings) (50), status: FAILED",
		"Urok: 10% applied to 4 savings accounts",
	}

	for _, line := range lines {
		if err := sink.Record(context.Background(), line); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := sink.Filter(context.Background(), []string{"1"})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}

	// "1" also hits the interest line via "10%"; filtering is substring
	// based over the whole line
	if !reflect.DeepEqual(got, lines) {
		t.Fatalf("got %v, want %v", got, lines)
	}

	got, err = sink.Filter(context.Background(), []string{"status: FAILED"})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(got) != 1 || got[0] != lines[1] {
		t.Fatalf("got %v, want only the failed line", got)
	}
}

func TestFilterKeepsAppendOrder(t *testing.T) {
	sink := audit.NewMemorySink()

	for _, line := range []string{"a 1", "b 2", "c 1"} {
		if err := sink.Record(context.Background(), line); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := sink.Filter(context.Background(), []string{"1", "2"})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}

	want := []string{"a 1", "b 2", "c 1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestFilterIgnoresEmptyNeedles(t *testing.T) {
	sink := audit.NewMemorySink()

	if err := sink.Record(context.Background(), "anything"); err != nil {
		t.Fatalf("record: %v", err)
	}

	// an empty needle must not match every line
	got, err := sink.Filter(context.Background(), []string{""})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("empty needle matched %v", got)
	}
}
