package errors

import (
	"testing"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"estat id", "0003410379", false},
		{"indicator", "NY.GDP.MKTP.CD", false},
		{"sdmx flow", "OECD.SDD.NAD,DSD_NAMAIN1@DF_QNA,1.0", false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", string(make([]byte, 300)), true},
		{"path traversal", "foo/../bar", true},
		{"backslash", "foo\\bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier("id", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIdentifier(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !IsValidation(err) {
				t.Errorf("ValidateIdentifier(%q) returned %T, want *ValidationError", tt.input, err)
			}
		})
	}
}

func TestValidateCountryCode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"iso2", "JP", false},
		{"iso3", "JPN", false},
		{"aggregate", "1W", false},
		{"list", "JP;US;DEU", false},

		{"empty", "", true},
		{"too long", "JAPN", true},
		{"empty list member", "JP;;US", true},
		{"trailing separator", "JP;", true},
		{"comma list", "JP,US", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCountryCode("countryCode", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCountryCode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateYearRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		wantErr    bool
		wantField  string
	}{
		{"both unset", 0, 0, false, ""},
		{"start only", 2000, 0, false, ""},
		{"valid range", 2000, 2020, false, ""},
		{"equal", 2010, 2010, false, ""},
		{"start too early", 1950, 0, true, "startYear"},
		{"end too late", 0, 2101, true, "endYear"},
		{"inverted", 2020, 2000, true, "startYear"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateYearRange("startYear", tt.start, "endYear", tt.end)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if got := ToPayload(err).Field; got != tt.wantField {
					t.Errorf("field = %q, want %q", got, tt.wantField)
				}
			}
		})
	}
}

func TestValidateRange(t *testing.T) {
	if err := ValidateRange("limit", 1, 1, 1000); err != nil {
		t.Errorf("lower bound rejected: %v", err)
	}
	if err := ValidateRange("limit", 1000, 1, 1000); err != nil {
		t.Errorf("upper bound rejected: %v", err)
	}
	if err := ValidateRange("limit", 0, 1, 1000); err == nil {
		t.Error("0 accepted")
	}
	if err := ValidateRange("limit", 1001, 1, 1000); err == nil {
		t.Error("1001 accepted")
	}
}

func TestValidateOneOf(t *testing.T) {
	langs := []string{"EN", "DE", "FR"}
	if err := ValidateOneOf("lang", "DE", langs); err != nil {
		t.Errorf("DE rejected: %v", err)
	}
	err := ValidateOneOf("lang", "de", langs)
	if err == nil {
		t.Fatal("lowercase accepted")
	}
	if want := "lang must be one of: EN, DE, FR"; UserMessage(err) != want {
		t.Errorf("message = %q, want %q", UserMessage(err), want)
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://example.com/path", false},
		{"http", "http://example.com/path", false},

		{"empty", "", true},
		{"ftp", "ftp://example.com", true},
		{"file", "file:///etc/passwd", true},
		{"no scheme", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL("url", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
