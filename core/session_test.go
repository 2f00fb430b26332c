package core

import (
	"testing"
	"time"
)

func TestSession_CloneIsIndependent(t *testing.T) {
	s := NewSession("u1", SessionTypeChat)
	s.Context.Messages = append(s.Context.Messages, NewMessage(RoleUser, "hola"))
	s.Context.UserPreferences["language"] = "es"
	s.Memory.LongTerm.KnowledgeBase = append(s.Memory.LongTerm.KnowledgeBase, Knowledge{ID: "k1", Title: "t"})

	clone := s.Clone()
	if clone == s {
		t.Fatal("Clone should be a different pointer")
	}

	clone.Context.Messages = append(clone.Context.Messages, NewMessage(RoleAssistant, "hi"))
	clone.Context.UserPreferences["language"] = "en"
	clone.Memory.LongTerm.KnowledgeBase[0].Title = "changed"

	if len(s.Context.Messages) != 1 {
		t.Errorf("original history mutated: %d messages", len(s.Context.Messages))
	}
	if s.Context.UserPreferences["language"] != "es" {
		t.Error("original preferences mutated")
	}
	if s.Memory.LongTerm.KnowledgeBase[0].Title != "t" {
		t.Error("original knowledge mutated")
	}
}

func TestSession_TouchIsMonotonic(t *testing.T) {
	s := NewSession("u1", SessionTypeChat)
	prev := s.UpdatedAt
	for i := 0; i < 100; i++ {
		s.Touch()
		if s.UpdatedAt.Before(prev) {
			t.Fatalf("UpdatedAt went backwards: %v < %v", s.UpdatedAt, prev)
		}
		prev = s.UpdatedAt
	}
}

func TestSession_TouchMonotonicWithFutureClock(t *testing.T) {
	s := NewSession("u1", SessionTypeChat)
	s.UpdatedAt = time.Now().UTC().Add(time.Hour)
	prev := s.UpdatedAt
	s.Touch()
	if !s.UpdatedAt.After(prev) {
		t.Errorf("UpdatedAt should still advance, got %v then %v", prev, s.UpdatedAt)
	}
}

func TestSession_LastMessages(t *testing.T) {
	s := NewSession("u1", SessionTypeChat)
	for i := 0; i < 7; i++ {
		s.Context.Messages = append(s.Context.Messages, NewMessage(RoleUser, "m"))
	}
	if got := len(s.LastMessages(5)); got != 5 {
		t.Errorf("expected 5 messages, got %d", got)
	}
	if got := len(s.LastMessages(10)); got != 7 {
		t.Errorf("expected 7 messages, got %d", got)
	}
}
