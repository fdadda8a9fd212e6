package contactout

import (
	"encoding/json"
	"testing"
)

func TestProfileSet_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLen  int
		wantURLs []string
		wantErr  bool
	}{
		{
			name:     "keyed by url",
			input:    `{"https://linkedin.com/in/x": {"full_name": "X"}}`,
			wantLen:  1,
			wantURLs: []string{"https://linkedin.com/in/x"},
		},
		{
			name:     "keyed keeps order",
			input:    `{"https://linkedin.com/in/z": {}, "https://linkedin.com/in/a": {}, "https://linkedin.com/in/m": {}}`,
			wantLen:  3,
			wantURLs: []string{"https://linkedin.com/in/z", "https://linkedin.com/in/a", "https://linkedin.com/in/m"},
		},
		{
			name:     "key overrides body url",
			input:    `{"https://linkedin.com/in/x": {"linkedin_url": "stale"}}`,
			wantLen:  1,
			wantURLs: []string{"https://linkedin.com/in/x"},
		},
		{
			name:     "array",
			input:    `[{"full_name": "A", "linkedin_url": "https://linkedin.com/in/a"}]`,
			wantLen:  1,
			wantURLs: []string{"https://linkedin.com/in/a"},
		},
		{name: "null", input: `null`, wantLen: 0},
		{name: "empty object", input: `{}`, wantLen: 0},
		{name: "string", input: `"nope"`, wantErr: true},
		{name: "bad profile", input: `{"u": 5}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s ProfileSet
			err := json.Unmarshal([]byte(tt.input), &s)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(s) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(s), tt.wantLen)
			}
			for i, u := range tt.wantURLs {
				if s[i].LinkedInURL != u {
					t.Errorf("[%d].LinkedInURL = %q, want %q", i, s[i].LinkedInURL, u)
				}
			}
		})
	}
}

func TestProfileSet_MarshalsAsArray(t *testing.T) {
	var s ProfileSet
	if err := json.Unmarshal([]byte(`{"https://linkedin.com/in/x": {"full_name": "X"}}`), &s); err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var generic []map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("marshalled form is not an array: %s", data)
	}
	if generic[0]["full_name"] != "X" || generic[0]["linkedin_url"] != "https://linkedin.com/in/x" {
		t.Errorf("marshalled = %s", data)
	}
}

func TestEnrichResponse_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantName string
		wantNil  bool
	}{
		{"object", `{"status_code":200,"profile":{"full_name":"Jane"}}`, "Jane", false},
		{"array", `{"status_code":200,"profile":[{"full_name":"Jane"},{"full_name":"Other"}]}`, "Jane", false},
		{"empty array", `{"status_code":200,"profile":[]}`, "", true},
		{"missing", `{"status_code":404}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r EnrichResponse
			if err := json.Unmarshal([]byte(tt.input), &r); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if tt.wantNil {
				if r.Profile != nil {
					t.Errorf("Profile = %+v, want nil", r.Profile)
				}
				return
			}
			if r.Profile == nil || r.Profile.FullName != tt.wantName {
				t.Errorf("Profile = %+v, want %s", r.Profile, tt.wantName)
			}
		})
	}
}

func TestCompanyResponse_Lookup(t *testing.T) {
	var r CompanyResponse
	input := `{"status_code":200,"companies":[{"microsoft.com":{"name":"Microsoft","size":10001}}]}`
	if err := json.Unmarshal([]byte(input), &r); err != nil {
		t.Fatal(err)
	}

	c, ok := r.Lookup("microsoft.com")
	if !ok || c.Name != "Microsoft" {
		t.Errorf("Lookup(microsoft.com) = %+v, %v", c, ok)
	}
	if _, ok := r.Lookup("apple.com"); ok {
		t.Error("Lookup(apple.com) should miss")
	}
}
