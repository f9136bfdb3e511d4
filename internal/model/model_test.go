package model

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"a@b.co", true},
		{"ana.perez@empresa.es", true},
		{"a@b", false},
		{"a.com", false},
		{"", false},
		{"a b@c.de", false},
		{"a@@b.co", false},
		{"a\u00a0b@c.co", false},
		{"a@b\u3000.co", false},
		{"\ufeffa@b.co", false},
		{"a@b.co\u2028", false},
		{"a\vb@c.co", false},
		{"josé@correo.es", true},
	}

	for _, tt := range tests {
		if got := IsValidEmail(tt.email); got != tt.want {
			t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
		}
	}
}

func TestPasswordLength_CountsUTF16Units(t *testing.T) {
	tests := []struct {
		password string
		want     int
		long     bool
	}{
		{"123456", 6, true},
		{"12345", 5, false},
		{"ñññ", 3, false},
		{"ññññññ", 6, true},
		{"🔑🔑🔑", 6, true},
		{"🔑🔑", 4, false},
	}

	for _, tt := range tests {
		if got := PasswordLength(tt.password); got != tt.want {
			t.Errorf("PasswordLength(%q) = %d, want %d", tt.password, got, tt.want)
		}
		if got := IsPasswordLongEnough(tt.password); got != tt.long {
			t.Errorf("IsPasswordLongEnough(%q) = %v, want %v", tt.password, got, tt.long)
		}
	}
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name   string
		status TaskStatus
		end    time.Time
		want   bool
	}{
		{"未完了で期限切れ", TaskStatusPending, past, true},
		{"未完了で期限内", TaskStatusPending, future, false},
		{"完了済みで期限切れ", TaskStatusCompleted, past, false},
		{"未知の状態で期限切れ", TaskStatus("otro"), past, true},
		{"終了日時がnowと同じ", TaskStatusPending, now, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &Task{Status: tt.status, EndTime: tt.end}
			if got := task.IsOverdue(now); got != tt.want {
				t.Errorf("IsOverdue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSession_Valid(t *testing.T) {
	now := time.Now()

	var nilSession *Session
	if nilSession.Valid(now) {
		t.Error("nil session should not be valid")
	}

	s := &Session{ExpiresAt: now.Add(time.Minute)}
	if !s.Valid(now) {
		t.Error("session expiring in the future should be valid")
	}

	expired := &Session{ExpiresAt: now.Add(-time.Minute)}
	if expired.Valid(now) {
		t.Error("expired session should not be valid")
	}
}

func TestProfile_DisplayCompany_FallsBackToFirstName(t *testing.T) {
	p := &Profile{FirstName: "Ana", LastName: "Pérez"}
	if got := p.DisplayCompany(); got != "Ana" {
		t.Errorf("DisplayCompany() = %q, want %q", got, "Ana")
	}

	p.Company = "Acme"
	if got := p.DisplayCompany(); got != "Acme" {
		t.Errorf("DisplayCompany() = %q, want %q", got, "Acme")
	}

	if got := p.FullName(); got != "Ana Pérez" {
		t.Errorf("FullName() = %q, want %q", got, "Ana Pérez")
	}
}

func TestAPIError_UnwrapsThroughFmtErrorf(t *testing.T) {
	err := fmt.Errorf("failed to sign in: %w", NewInvalidCredentialsError())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("expected errors.As to find *APIError")
	}
	if apiErr.Code != ErrCodeInvalidCredentials {
		t.Errorf("Code = %q, want %q", apiErr.Code, ErrCodeInvalidCredentials)
	}
	if apiErr.Error() != "[INVALID_CREDENTIALS] Invalid login credentials" {
		t.Errorf("Error() = %q", apiErr.Error())
	}
}
