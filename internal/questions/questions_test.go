package questions

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"sportstrivia/internal/testutil"
)

func TestStaticProvider(t *testing.T) {
	p := NewStatic(SampleQuestions)
	ctx := context.Background()

	q, err := p.NextQuestion(ctx, "football", 0)
	if err != nil {
		t.Fatal(err)
	}
	if q.ID != "football-1" || q.CorrectAnswer != 0 || q.Points != 10 {
		t.Errorf("unexpected question %+v", q)
	}

	if _, err := p.NextQuestion(ctx, "Football", 3); !errors.Is(err, ErrQuestionUnavailable) {
		t.Errorf("expected ErrQuestionUnavailable past the end, got %v", err)
	}
	if _, err := p.NextQuestion(ctx, "Curling", 0); !errors.Is(err, ErrQuestionUnavailable) {
		t.Errorf("expected ErrQuestionUnavailable for unknown category, got %v", err)
	}

	for category, want := range map[string]int{"football": 3, " Soccer ": 3, "Curling": 0} {
		if n, _ := p.Count(ctx, category); n != want {
			t.Errorf("Count(%q) = %d, want %d", category, n, want)
		}
	}

	cats, _ := p.Categories(ctx)
	want := []string{"Football", "Basketball", "Soccer", "Baseball"}
	if !reflect.DeepEqual(cats, want) {
		t.Errorf("Categories() = %v, want %v", cats, want)
	}
}

func TestStoreSeedAndServe(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	n, err := store.Seed(ctx, SampleQuestions)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(SampleQuestions) {
		t.Fatalf("seeded %d questions, want %d", n, len(SampleQuestions))
	}
	if n, _ := store.Seed(ctx, SampleQuestions); n != 0 {
		t.Errorf("second seed inserted %d rows", n)
	}

	static := NewStatic(SampleQuestions)
	for round := 0; round < 3; round++ {
		got, err := store.NextQuestion(ctx, "SOCCER", round)
		if err != nil {
			t.Fatalf("round %d: %v", round, err)
		}
		want, _ := static.NextQuestion(ctx, "soccer", round)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("round %d: got %+v, want %+v", round, got, want)
		}
	}

	if _, err := store.NextQuestion(ctx, "Soccer", 3); !errors.Is(err, ErrQuestionUnavailable) {
		t.Errorf("expected ErrQuestionUnavailable, got %v", err)
	}

	if n, err := store.Count(ctx, "basketball"); err != nil || n != 3 {
		t.Errorf("Count(basketball) = %d, %v; want 3", n, err)
	}
	if n, _ := store.Count(ctx, "Curling"); n != 0 {
		t.Errorf("Count(Curling) = %d, want 0", n)
	}

	cats, err := store.Categories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Baseball", "Basketball", "Football", "Soccer"}
	if !reflect.DeepEqual(cats, want) {
		t.Errorf("Categories() = %v, want %v", cats, want)
	}
}
