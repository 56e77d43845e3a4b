package library

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/ironsheep/tattoo-studio/internal/generate"
)

func openTestLibrary(t *testing.T) *Library {
	t.Helper()
	lib, err := Open(filepath.Join(t.TempDir(), "designs", "library.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { lib.Close() })
	return lib
}

func testDesign(id string, created time.Time) *generate.Design {
	return &generate.Design{
		ID:             id,
		Prompt:         "rose " + id,
		Style:          "Minimalist",
		EnhancedPrompt: generate.EnhancePrompt("rose "+id, "Minimalist"),
		Width:          1024,
		Height:         1024,
		Seed:           99,
		CreatedAt:      created,
		Image:          []byte{0x89, 'P', 'N', 'G', byte(len(id))},
		MimeType:       "image/png",
	}
}

func TestLibrary_PutGet(t *testing.T) {
	lib := openTestLibrary(t)
	ctx := context.Background()
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	d := testDesign("abc", created)

	if err := lib.Put(ctx, "key-abc", d); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := lib.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Prompt != d.Prompt || got.Style != d.Style || got.EnhancedPrompt != d.EnhancedPrompt {
		t.Errorf("text fields: got %+v", got)
	}
	if got.Width != 1024 || got.Height != 1024 || got.Seed != 99 || got.MimeType != "image/png" {
		t.Errorf("numeric fields: got %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, created)
	}
	if !bytes.Equal(got.Image, d.Image) {
		t.Error("image bytes should round trip")
	}
}

func TestLibrary_GetMissing(t *testing.T) {
	lib := openTestLibrary(t)
	if _, err := lib.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestLibrary_Lookup(t *testing.T) {
	lib := openTestLibrary(t)
	ctx := context.Background()

	if _, ok, err := lib.Lookup(ctx, "missing"); err != nil || ok {
		t.Errorf("Lookup(missing): ok=%v err=%v", ok, err)
	}

	if err := lib.Put(ctx, "k1", testDesign("one", time.Now())); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	d, ok, err := lib.Lookup(ctx, "k1")
	if err != nil || !ok {
		t.Fatalf("Lookup(k1): ok=%v err=%v", ok, err)
	}
	if d.ID != "one" {
		t.Errorf("Lookup(k1): got id %q", d.ID)
	}

	// A new design for the same key replaces the old one.
	if err := lib.Put(ctx, "k1", testDesign("two", time.Now())); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	d, ok, err = lib.Lookup(ctx, "k1")
	if err != nil || !ok || d.ID != "two" {
		t.Errorf("Lookup after replace: got %v ok=%v err=%v", d, ok, err)
	}
}

func TestLibrary_Recent(t *testing.T) {
	lib := openTestLibrary(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c", "d"} {
		if err := lib.Put(ctx, "key-"+id, testDesign(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	got, err := lib.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	want := []string{"d", "c", "b"}
	if len(got) != len(want) {
		t.Fatalf("Recent: got %d designs, want %d", len(got), len(want))
	}
	for i, d := range got {
		if d.ID != want[i] {
			t.Errorf("Recent[%d]: got %q, want %q", i, d.ID, want[i])
		}
		if d.Image != nil {
			t.Errorf("Recent[%d]: image bytes should not be loaded", i)
		}
	}
}

func TestLibrary_PutRejectsMissingID(t *testing.T) {
	lib := openTestLibrary(t)
	if err := lib.Put(context.Background(), "k", &generate.Design{}); err == nil {
		t.Error("Put should reject a design without an id")
	}
}

func TestLibrary_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.db")
	lib, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := lib.Put(context.Background(), "k", testDesign("kept", time.Now())); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	lib.Close()

	lib, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer lib.Close()
	if _, err := lib.Get(context.Background(), "kept"); err != nil {
		t.Errorf("design should survive a reopen: %v", err)
	}
}

func TestLibrary_BacksMemo(t *testing.T) {
	lib := openTestLibrary(t)
	gen := &fixedGenerator{}
	memo, err := generate.NewMemo(gen, 4, lib)
	if err != nil {
		t.Fatalf("NewMemo failed: %v", err)
	}
	req := generate.Request{Prompt: "swallow", Width: 512, Height: 512}
	if _, err := memo.Generate(context.Background(), req); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// A fresh memo over the same library finds the stored design.
	memo, err = generate.NewMemo(gen, 4, lib)
	if err != nil {
		t.Fatalf("NewMemo failed: %v", err)
	}
	d, err := memo.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if gen.calls != 1 {
		t.Errorf("generator calls: got %d, want 1", gen.calls)
	}
	if d.ID != "gen-1" {
		t.Errorf("got id %q, want gen-1", d.ID)
	}
}

type fixedGenerator struct {
	calls int
}

func (g *fixedGenerator) Generate(ctx context.Context, req generate.Request) (*generate.Design, error) {
	g.calls++
	d := testDesign("gen-1", time.Now())
	d.Prompt = req.Prompt
	d.Style = req.Style
	return d, nil
}
