// ABOUTME: Tests for the command line entry point
// ABOUTME: Checks the usage text
package main

import (
	"bytes"
	"flag"
	"strings"
	"testing"
)

func TestUsageRefcountIsCompatibilityOnly(t *testing.T) {
	var out bytes.Buffer
	flag.CommandLine.SetOutput(&out)
	defer flag.CommandLine.SetOutput(nil)

	usage()

	text := out.String()
	if !strings.Contains(text, "The -refcount option is kept for compatibility") {
		t.Errorf("expected usage to describe -refcount as a compatibility option, got:\n%s", text)
	}
	if strings.Contains(text, "released as soon as") {
		t.Errorf("expected no promise of earlier release, got:\n%s", text)
	}
	if !strings.Contains(text, "input_file video_output_file audio_output_file") {
		t.Errorf("expected positional arguments in usage, got:\n%s", text)
	}
}
