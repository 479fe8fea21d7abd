package interaction

import (
	"strings"
	"testing"

	"studiochat/internal/domain"
)

func threeQuestions() domain.Interaction {
	return domain.Interaction{
		InteractionID: "i1",
		Questions: []domain.Question{
			{ID: "q1", Question: "Size?", Options: []domain.Option{
				{ID: "s", Label: "Small"}, {ID: "m", Label: "Medium"}, {ID: "l", Label: "Large"},
			}},
			{ID: "q2", Question: "Tone?", Options: []domain.Option{
				{ID: "p", Label: "Playful"}, {ID: "f", Label: "Formal"},
			}},
			{ID: "q3", Question: "Channels?", MultiSelect: true, Options: []domain.Option{
				{ID: "ig", Label: "Instagram"}, {ID: "em", Label: "Email"}, {ID: "pr", Label: "Print"},
			}},
		},
	}
}

func TestSingleSelect_ReplacesAndAdvances(t *testing.T) {
	tr := New(threeQuestions())

	if advanced := tr.Select("s"); !advanced {
		t.Fatal("single-select on a non-last question must advance")
	}
	if tr.Index() != 1 {
		t.Fatalf("index = %d, want 1", tr.Index())
	}

	tr.Prev()
	if advanced := tr.Select("m"); !advanced {
		t.Fatal("re-selecting must advance again")
	}
	if tr.IsSelected(0, "s") {
		t.Fatal("single-select must replace, not accumulate")
	}
	if !tr.IsSelected(0, "m") {
		t.Fatal("new selection missing")
	}
}

func TestMultiSelect_TogglesAndNeverAdvances(t *testing.T) {
	tr := New(threeQuestions())
	tr.Next()
	tr.Next() // q3

	if advanced := tr.Select("ig"); advanced {
		t.Fatal("multi-select must not advance")
	}
	tr.Select("em")
	if tr.SelectionCount(2) != 2 {
		t.Fatalf("selections = %d, want 2", tr.SelectionCount(2))
	}

	tr.Select("ig") // toggle off
	if tr.IsSelected(2, "ig") {
		t.Fatal("re-selecting must toggle off")
	}
	if tr.SelectionCount(2) != 1 {
		t.Fatalf("selections = %d, want 1", tr.SelectionCount(2))
	}
}

func TestContinueGating_RequiresFullCompletionOnLast(t *testing.T) {
	tr := New(threeQuestions())

	if tr.CanContinue() {
		t.Fatal("unanswered first question must disable continue")
	}
	tr.Select("s") // advances to q2
	if tr.CanContinue() {
		t.Fatal("unanswered current question must disable continue")
	}
	tr.Select("p") // advances to q3 (last)

	// q3 unanswered: navigation was possible, submission is not
	if tr.CanContinue() {
		t.Fatal("last question requires all questions answered")
	}
	tr.Select("ig")
	if !tr.CanContinue() {
		t.Fatal("all questions answered, continue must enable")
	}

	// skipping back and clearing nothing: an earlier unanswered question
	// still blocks submission from the last
	tr2 := New(threeQuestions())
	tr2.Next() // skip q1 without answering
	tr2.Select("p")
	tr2.Select("ig")
	if tr2.CanContinue() {
		t.Fatal("unanswered question 1 must block submission from the last question")
	}
}

func TestSubmit_ProducesOneEntryPerQuestion(t *testing.T) {
	tr := New(threeQuestions())
	tr.Select("m")
	tr.Select("f")
	tr.Select("ig")
	tr.Select("pr")

	answers, ok := tr.Submit()
	if !ok {
		t.Fatal("submit must succeed with all questions answered")
	}
	if len(answers) != 3 {
		t.Fatalf("expected 3 entries, got %d: %v", len(answers), answers)
	}
	if answers["Size?"] != "Medium" {
		t.Fatalf(`answers["Size?"] = %q`, answers["Size?"])
	}
	if answers["Tone?"] != "Formal" {
		t.Fatalf(`answers["Tone?"] = %q`, answers["Tone?"])
	}
	if answers["Channels?"] != "Instagram, Print" {
		t.Fatalf(`answers["Channels?"] = %q`, answers["Channels?"])
	}
	if tr.Phase() != PhaseSubmitted {
		t.Fatal("phase must be Submitted")
	}
}

func TestSubmit_Debounced(t *testing.T) {
	tr := New(threeQuestions())
	tr.Select("m")
	tr.Select("f")
	tr.Select("ig")

	if _, ok := tr.Submit(); !ok {
		t.Fatal("first submit must succeed")
	}
	if _, ok := tr.Submit(); ok {
		t.Fatal("second submit must be rejected")
	}
}

func TestSubmit_RejectedWhenIncomplete(t *testing.T) {
	tr := New(threeQuestions())
	tr.Select("m")
	if _, ok := tr.Submit(); ok {
		t.Fatal("submit before the last question must be rejected")
	}
}

func TestOtherText_DisablesContinueAndAppends(t *testing.T) {
	tr := New(threeQuestions())
	tr.Select("m")
	tr.Select("f")
	tr.Select("ig")
	if !tr.CanContinue() {
		t.Fatal("precondition: continue enabled")
	}

	tr.SetOtherText("carrier pigeon")
	if tr.CanContinue() {
		t.Fatal("populated free text must disable continue")
	}

	answers, ok := tr.Submit()
	if !ok {
		t.Fatal("free-text submission must be allowed")
	}
	if answers["Channels?"] != "Instagram, Other: carrier pigeon" {
		t.Fatalf(`answers["Channels?"] = %q`, answers["Channels?"])
	}
}

func TestOtherText_SoleAnswerWhenLastUnselected(t *testing.T) {
	tr := New(threeQuestions())
	tr.Select("m")
	tr.Select("f")
	tr.SetOtherText("radio")

	answers, ok := tr.Submit()
	if !ok {
		t.Fatal("free-text submission must be allowed")
	}
	if answers["Channels?"] != "Other: radio" {
		t.Fatalf(`answers["Channels?"] = %q`, answers["Channels?"])
	}
}

func TestExpire_DisablesInteraction(t *testing.T) {
	tr := New(threeQuestions())
	tr.Select("m")
	tr.Expire()

	if tr.Phase() != PhaseExpired {
		t.Fatal("phase must be Expired")
	}
	if advanced := tr.Select("p"); advanced {
		t.Fatal("selection must be disabled after expiry")
	}
	if tr.CanContinue() {
		t.Fatal("continue must be disabled after expiry")
	}
	if _, ok := tr.Submit(); ok {
		t.Fatal("structured submission must be disabled after expiry")
	}
}

func TestExpiredTranscript_JoinsAnsweredQuestions(t *testing.T) {
	tr := New(threeQuestions())
	tr.Select("m")
	tr.Select("p")
	tr.SetOtherText("billboards")
	tr.Expire()

	got := tr.Transcript()
	want := strings.Join([]string{
		"Size?: Medium",
		"Tone?: Playful",
		"Channels?: Other: billboards",
	}, "\n")
	if got != want {
		t.Fatalf("transcript = %q, want %q", got, want)
	}
}

func TestNewExpiredInteraction_StartsExpired(t *testing.T) {
	it := threeQuestions()
	it.Expired = true
	tr := New(it)
	if tr.Phase() != PhaseExpired {
		t.Fatal("traversal over an expired interaction must start expired")
	}
}

func TestSelectAt_ByPosition(t *testing.T) {
	tr := New(threeQuestions())
	if advanced := tr.SelectAt(1); !advanced {
		t.Fatal("positional select must behave like Select")
	}
	if !tr.IsSelected(0, "m") {
		t.Fatal("position 1 must map to the second option")
	}
	if tr.SelectAt(9) {
		t.Fatal("out-of-range position must be ignored")
	}
}
