package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIs_MatchesByKind(t *testing.T) {
	err := New(DataMissing, "match jobs", "resume %s has no embedding", "r-1")

	if !errors.Is(err, ErrDataMissing) {
		t.Error("errors.Is(err, ErrDataMissing) = false, want true")
	}
	if errors.Is(err, ErrRateLimited) {
		t.Error("errors.Is(err, ErrRateLimited) = true, want false")
	}
}

func TestIs_ThroughWrapping(t *testing.T) {
	inner := New(PermissionDenied, "route", "role %q may not search candidates", "applicant")
	outer := fmt.Errorf("chat: %w", inner)

	if !errors.Is(outer, ErrPermissionDenied) {
		t.Error("wrapped PermissionDenied not matched")
	}
	if got := KindOf(outer); got != PermissionDenied {
		t.Errorf("KindOf = %v, want %v", got, PermissionDenied)
	}
}

func TestUpstream_DeadlineIsUnavailable(t *testing.T) {
	err := Upstream("complete", context.DeadlineExceeded)

	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("Upstream(deadline) = %v, want UpstreamUnavailable", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("Upstream should keep the deadline error in the chain")
	}
}

func TestUpstream_Nil(t *testing.T) {
	if err := Upstream("embed", nil); err != nil {
		t.Errorf("Upstream(nil) = %v, want nil", err)
	}
	if err := Wrap(Internal, "x", nil); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestKindOf_PlainError(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != Internal {
		t.Errorf("KindOf(plain) = %v, want Internal", got)
	}
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{New(DataMissing, "match jobs", "resume not found"), "match jobs: resume not found"},
		{Wrap(UpstreamUnavailable, "embed", errors.New("connection refused")), "embed: connection refused"},
		{&Error{Kind: RateLimited}, "rate_limited"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
