package types

import "testing"

func TestTaskCheckAnswer(t *testing.T) {
	task := &Task{CodeWord: "pineapple"}

	cases := []struct {
		answer string
		want   bool
	}{
		{"pineapple", true},
		{"PINEAPPLE", true},
		{"  PineApple  ", true},
		{"banana", false},
		{"", false},
		{"pine apple", false},
	}
	for _, tc := range cases {
		if got := task.CheckAnswer(tc.answer); got != tc.want {
			t.Errorf("CheckAnswer(%q) = %v, want %v", tc.answer, got, tc.want)
		}
	}
}

func TestTaskCheckAnswerTrimsStoredCodeWord(t *testing.T) {
	task := &Task{CodeWord: " pineapple "}
	if !task.CheckAnswer("pineapple") {
		t.Error("stored code word should be trimmed before comparison")
	}
}
