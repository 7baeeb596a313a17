package trivia

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"quiz-session-service/internal/domain"
)

func TestLoadQuestionsMapsAPIResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tier"); got != "hard" {
			t.Fatalf("expected tier=hard, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":"q1","prompt":"Pick one","options":["a","b"],"correctIndex":1,"explanation":"b it is"}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	questions, err := client.LoadQuestions(context.Background(), domain.TierHard)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
	q := questions[0]
	if q.ID != "q1" || q.Tier != domain.TierHard || q.CorrectIndex != 1 || q.Explanation != "b it is" {
		t.Fatalf("question not mapped: %+v", q)
	}
}

func TestLoadQuestionsSurfacesErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.LoadQuestions(context.Background(), domain.TierEasy); err == nil {
		t.Fatalf("expected error on 500")
	}
}

func TestLoadQuestionsMapsNotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.LoadQuestions(context.Background(), domain.TierEasy); !errors.Is(err, domain.ErrQuestionSetNotFound) {
		t.Fatalf("expected ErrQuestionSetNotFound, got %v", err)
	}
}
