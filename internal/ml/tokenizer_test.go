package ml

import (
	"reflect"
	"testing"
)

func TestTokenizeRemovesStopWordsAndShortTokens(t *testing.T) {
	got := tokenize("We cannot open the dashboard, it is broken")
	want := []string{"cannot", "open", "dashboard", "broken"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tokenize() = %v, want %v", got, want)
	}
}

func TestTokenizeLowercases(t *testing.T) {
	got := tokenize("LOGIN Failed")
	want := []string{"login", "fail"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tokenize() = %v, want %v", got, want)
	}
}

func TestStem(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"failing", "fail"},
		{"failed", "fail"},
		{"thanks", "thank"},
		{"crashes", "crashe"},
		{"studies", "study"},
		{"login", "login"},
		{"ed", "ed"},
	}
	for _, tc := range cases {
		if got := stem(tc.in); got != tc.want {
			t.Errorf("stem(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncateWords(t *testing.T) {
	if got := truncateWords("one two three four", 2); got != "one two" {
		t.Errorf("truncateWords() = %q, want %q", got, "one two")
	}
	if got := truncateWords("one two", 5); got != "one two" {
		t.Errorf("truncateWords() should not change short text, got %q", got)
	}
}

func TestJoinSubjectBody(t *testing.T) {
	if got := joinSubjectBody("subject", "body"); got != "subject. body" {
		t.Errorf("joinSubjectBody() = %q", got)
	}
	if got := joinSubjectBody("subject", ""); got != "subject" {
		t.Errorf("joinSubjectBody() = %q", got)
	}
	if got := joinSubjectBody("", "body"); got != "body" {
		t.Errorf("joinSubjectBody() = %q", got)
	}
}
