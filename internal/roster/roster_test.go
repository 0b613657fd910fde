package roster

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCSV = "\ufeffІмʼя і прізвище,Локація,Сфера бізнесу,Кого шукає,Посилання на соц.мережі\n" +
	"Олена Коваль,Київ,IT,Інвестора,https://t.me/olena\n" +
	",Львів,Маркетинг,,\n" +
	"\"Петро, мол.\",nan,Фінанси,Партнера\n"

func TestLoad(t *testing.T) {
	r, err := Load(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if r.Len() != 2 {
		t.Fatalf("expected nameless row to be skipped, got %d profiles", r.Len())
	}

	first := r.Profiles()[0]
	if first.Name != "Олена Коваль" || first.BusinessSector != "IT" || first.SocialLinks != "https://t.me/olena" {
		t.Fatalf("unexpected first profile %+v", first)
	}

	second := r.Profiles()[1]
	if second.Name != "Петро, мол." {
		t.Fatalf("quoted name not parsed: %q", second.Name)
	}
	if second.Location != "" {
		t.Fatalf("nan placeholder must be dropped, got %q", second.Location)
	}
	if second.SocialLinks != "" {
		t.Fatalf("short row must leave trailing fields empty, got %q", second.SocialLinks)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(strings.NewReader("")); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty for empty input, got %v", err)
	}
	if _, err := Load(strings.NewReader("Локація\nКиїв\n")); err == nil {
		t.Fatal("expected error for missing name column")
	}
	if _, err := Load(strings.NewReader(ColumnName + "\n")); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty for header only, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	r, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("unexpected len %d", r.Len())
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestContextUsesSample(t *testing.T) {
	profiles := make([]Profile, 30)
	for i := range profiles {
		profiles[i] = Profile{Name: "p"}
	}
	r := New(profiles)

	ctx := r.Context(DefaultSampleSize)
	if got := strings.Count(ctx, "Професіонал "); got != DefaultSampleSize {
		t.Fatalf("expected %d profiles in context, got %d", DefaultSampleSize, got)
	}
	if !strings.Contains(ctx, "Професіонал 20:") || strings.Contains(ctx, "Професіонал 21:") {
		t.Fatal("unexpected profile numbering")
	}

	if got := len(r.Sample(0)); got != 30 {
		t.Fatalf("non-positive sample must return all, got %d", got)
	}
}
