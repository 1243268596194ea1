package validation

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestConfigValidatorCollectsAllErrors(t *testing.T) {
	err := NewConfigValidator("Config").
		Required("server.listen", "").
		RangeInt("server.port", 70000, 1, 65535).
		PositiveFloat("viewport.width", math.NaN()).
		RangeFloat("forces.structure", 5, 10, 1000).
		RangeDuration("layout.tick", time.Hour, time.Millisecond, time.Second).
		OneOf("artifact.kind", "ftp", []string{"file", "s3"}).
		Validate()

	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "6 errors") {
		t.Errorf("error = %q, want 6 errors reported", err)
	}
}

func TestConfigValidatorPasses(t *testing.T) {
	cv := NewConfigValidator("Config").
		Required("server.listen", ":8080").
		Positive("layout.seed", 1).
		PositiveFloat("viewport.width", 800).
		RangeFloat("forces.structure", 140, 10, 1000).
		When(false, func(cv *ConfigValidator) {
			cv.Required("artifact.bucket", "")
		})

	if cv.HasErrors() {
		t.Fatalf("unexpected errors: %v", cv.Errors())
	}
	if err := cv.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestConfigValidatorCustomWraps(t *testing.T) {
	sentinel := errors.New("bucket unreachable")
	err := NewConfigValidator("Config").
		Custom("artifact.bucket", func() error { return sentinel }).
		Validate()
	if !errors.Is(err, sentinel) {
		t.Errorf("Validate() = %v, want wrapping %v", err, sentinel)
	}
}

func TestDefaultOr(t *testing.T) {
	if got := DefaultOr("", "fallback"); got != "fallback" {
		t.Errorf("DefaultOr(\"\") = %q", got)
	}
	if got := DefaultOr(3, 9); got != 3 {
		t.Errorf("DefaultOr(3) = %d", got)
	}
}

func TestConfigValidatorFieldError(t *testing.T) {
	err := NewConfigValidator("config").
		RangeInt("server.port", 0, 1, 65535).
		Validate()

	var fe *FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("Validate() = %T, want *FieldError", err)
	}
	if fe.Field != "server.port" || fe.Section != "config" {
		t.Errorf("FieldError = %+v", fe)
	}
	if want := "config.server.port: value 0 is outside range [1, 65535]"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err, want)
	}
}
