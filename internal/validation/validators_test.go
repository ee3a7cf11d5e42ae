package validation

import "testing"

func TestValidateDevicePlatform(t *testing.T) {
	t.Parallel()

	tests := []struct {
		platform string
		wantErr  bool
	}{
		{platform: "ios", wantErr: false},
		{platform: "macos", wantErr: false},
		{platform: "android", wantErr: true},
		{platform: "iOS", wantErr: true},
		{platform: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			t.Parallel()
			err := ValidateDevicePlatform(tt.platform)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDevicePlatform(%q) error = %v, wantErr %v", tt.platform, err, tt.wantErr)
			}
		})
	}
}

func TestDevicePlatformStructTag(t *testing.T) {
	t.Parallel()

	type payload struct {
		Platform string `validate:"required,device_platform"`
	}

	if err := Validate.Struct(&payload{Platform: "ios"}); err != nil {
		t.Errorf("expected ios accepted, got %v", err)
	}
	if err := Validate.Struct(&payload{Platform: "windows"}); err == nil {
		t.Error("expected windows rejected")
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trims whitespace", input: "  buy milk  ", want: "buy milk"},
		{name: "strips control chars", input: "buy\x00 milk\x07", want: "buy milk"},
		{name: "keeps newlines and tabs", input: "line one\n\tline two", want: "line one\n\tline two"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
