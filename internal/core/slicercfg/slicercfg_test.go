package slicercfg

import (
	"strings"
	"testing"

	perr "printprof/internal/platform/errors"
	kit "printprof/internal/platform/testkit"
)

func TestParse_KeyValueLines(t *testing.T) {
	in := strings.Join([]string{
		"# generated by PrusaSlicer",
		"",
		"filament_diameter = 1.75",
		"max_print_speed=200",
		"  # indented comment",
		"printer_notes = has = signs = inside",
		"not a config line",
		"= missing key",
		"filament_diameter = 2.85",
	}, "\n")

	cfg, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := cfg["max_print_speed"]; got != "200" {
		t.Fatalf("max_print_speed = %q, want 200", got)
	}
	// split on the first '=' only
	if got := cfg["printer_notes"]; got != "has = signs = inside" {
		t.Fatalf("printer_notes = %q", got)
	}
	// repeated keys keep the last value
	if got := cfg["filament_diameter"]; got != "2.85" {
		t.Fatalf("filament_diameter = %q, want 2.85", got)
	}
	if _, ok := cfg[""]; ok {
		t.Fatalf("empty key must be dropped")
	}
	if len(cfg) != 3 {
		t.Fatalf("entries = %d, want 3", len(cfg))
	}
}

func TestFloat_Coercions(t *testing.T) {
	cfg := Config{
		"plain":   "12.5",
		"percent": "20%",
		"quoted":  `"1.75"`,
		"single":  "'0.4'",
		"nilval":  "nil",
		"noneval": "None",
		"text":    "rectilinear",
		"empty":   "",
	}

	kit.PtrCloseTo(t, cfg.Float("plain"), 12.5, 1e-9)
	kit.PtrCloseTo(t, cfg.Float("percent"), 20, 1e-9)
	kit.PtrCloseTo(t, cfg.Float("quoted"), 1.75, 1e-9)
	kit.PtrCloseTo(t, cfg.Float("single"), 0.4, 1e-9)

	for _, key := range []string{"nilval", "noneval", "text", "empty", "absent"} {
		if v := cfg.Float(key); v != nil {
			t.Fatalf("Float(%q) = %v, want nil", key, *v)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/printer.ini")
	if err == nil {
		t.Fatalf("expected error")
	}
	if perr.CodeOf(err) != perr.ErrorCodeIO {
		t.Fatalf("code = %v, want IO", perr.CodeOf(err))
	}
}

func TestLimits(t *testing.T) {
	cfg := Config{
		KeyMaxFlow:       "12",
		KeyMaxPrintSpeed: "200",
	}
	flow, speed := cfg.Limits()
	kit.PtrCloseTo(t, flow, 12, 1e-9)
	kit.PtrCloseTo(t, speed, 200, 1e-9)

	flow, speed = Config{}.Limits()
	if flow != nil || speed != nil {
		t.Fatalf("empty config limits = %v %v, want nil nil", flow, speed)
	}
}
