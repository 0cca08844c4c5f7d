package raw

import (
	"testing"
)

// Get should honor prefixing and trim whitespace
func TestConfGet(t *testing.T) {
	t.Setenv("APP_NAME", " printprof ")
	t.Setenv("CORE_API_PORT", " 8080 ")

	root := New()
	api := root.Prefix("CORE_API_")

	tests := []struct {
		name   string
		conf   Conf
		key    string
		def    string
		envKey string
		want   string
	}{
		{name: "root no default used", conf: root, key: "APP_NAME", def: "x", envKey: "APP_NAME", want: "printprof"},
		{name: "prefixed hit", conf: api, key: "PORT", def: "x", envKey: "CORE_API_PORT", want: "8080"},
		{name: "missing returns default", conf: api, key: "MISSING", def: "defv", envKey: "", want: "defv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.conf.Get(tt.key, tt.def)
			if got != tt.want {
				t.Fatalf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

// GetBool accepts the truthy spellings and falls back on anything else
func TestConfGetBool(t *testing.T) {
	api := New().Prefix("CORE_API_")

	t.Setenv("CORE_API_T1", "true")
	t.Setenv("CORE_API_T2", "1")
	t.Setenv("CORE_API_T3", "YES")
	t.Setenv("CORE_API_F1", "false")
	t.Setenv("CORE_API_F2", "0")
	t.Setenv("CORE_API_F3", "no")
	t.Setenv("CORE_API_WS", "   true   ")

	tests := []struct {
		name string
		key  string
		def  bool
		want bool
	}{
		{name: "true", key: "T1", def: false, want: true},
		{name: "1", key: "T2", def: false, want: true},
		{name: "YES", key: "T3", def: false, want: true},
		{name: "false", key: "F1", def: true, want: false},
		{name: "0", key: "F2", def: true, want: false},
		{name: "no", key: "F3", def: true, want: false},
		{name: "whitespace trimmed", key: "WS", def: false, want: true},
		{name: "missing uses default true", key: "MISSING", def: true, want: true},
		{name: "missing uses default false", key: "MISSING2", def: false, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := api.GetBool(tt.key, tt.def); got != tt.want {
				t.Fatalf("GetBool(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

// GetInt parses digits only; anything else takes the default
func TestConfGetInt(t *testing.T) {
	ch := New().Prefix("CH_")

	t.Setenv("CH_OK", "42")
	t.Setenv("CH_WS", "  7  ")
	t.Setenv("CH_NONNUM", "12x")
	t.Setenv("CH_NEG", "-5") // negative should fall back to default by our simple parser

	tests := []struct {
		name string
		key  string
		def  int
		want int
	}{
		{name: "numeric", key: "OK", def: 0, want: 42},
		{name: "trimmed", key: "WS", def: 1, want: 7},
		{name: "non numeric falls back", key: "NONNUM", def: 9, want: 9},
		{name: "negative falls back", key: "NEG", def: 3, want: 3},
		{name: "missing uses default", key: "MISSING", def: 11, want: 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ch.GetInt(tt.key, tt.def); got != tt.want {
				t.Fatalf("GetInt(%q) = %d, want %d", tt.key, got, tt.want)
			}
		})
	}
}

// nested Prefix calls compose left to right without colliding
func TestPrefixComposition(t *testing.T) {
	root := New()
	log := root.Prefix("LOG_")
	api := root.Prefix("CORE_API_")
	apiLog := api.Prefix("LOG_") // nested

	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("CORE_API_LEVEL", "debug")
	t.Setenv("CORE_API_LOG_MODE", "console")

	if got := log.Get("LEVEL", ""); got != "info" {
		t.Fatalf("LOG_.Get LEVEL = %q, want %q", got, "info")
	}
	if got := api.Get("LEVEL", ""); got != "debug" {
		t.Fatalf("CORE_API_.Get LEVEL = %q, want %q", got, "debug")
	}
	if got := apiLog.Get("MODE", ""); got != "console" {
		t.Fatalf("CORE_API_LOG_.Get MODE = %q, want %q", got, "console")
	}
}
