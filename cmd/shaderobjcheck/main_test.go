package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testdata = "../../scenario/testdata"

func writeScenario(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "case.hcl")
	if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunTestdata(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-color", "never", "-j", "2", testdata}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit code = %d\nstdout:\n%s\nstderr:\n%s", code, stdout.String(), stderr.String())
	}
	files, _ := filepath.Glob(filepath.Join(testdata, "*.hcl"))
	for _, f := range files {
		if !strings.Contains(stdout.String(), "PASS "+f) {
			t.Errorf("missing PASS line for %s:\n%s", f, stdout.String())
		}
	}
	if strings.Contains(stdout.String(), "\x1b[") {
		t.Error("-color never must not emit escape codes")
	}
}

func TestRunFailingScenario(t *testing.T) {
	path := writeScenario(t, `
shader_batch "one" {
  shader "s" {
    stage  = "vertex"
    flags  = ["link_stage"]
    binary = "00"
  }
}`)
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-color", "never", path}, &stdout, &stderr)
	if code != exitFail {
		t.Fatalf("exit code = %d, want %d", code, exitFail)
	}
	out := stdout.String()
	for _, want := range []string{
		"FAIL " + path,
		"shader_batch.one",
		"VUID-vkCreateShadersEXT-pCreateInfos-08401",
		"0/1 scenarios passed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunListLimitsDuplicates(t *testing.T) {
	path := writeScenario(t, `
shader_batch "one" {
  expect = ["VUID-vkCreateShadersEXT-pCreateInfos-08401"]
  shader "s" {
    stage  = "vertex"
    flags  = ["link_stage"]
    binary = "00"
  }
}
shader_batch "two" {
  expect = ["VUID-vkCreateShadersEXT-pCreateInfos-08401"]
  shader "t" {
    stage  = "fragment"
    flags  = ["link_stage"]
    binary = "00"
  }
}`)
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-color", "never", "-list", "-dup-limit", "1", path}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit code = %d\n%s", code, stdout.String())
	}
	out := stdout.String()
	if n := strings.Count(out, "VUID-vkCreateShadersEXT-pCreateInfos-08401"); n != 1 {
		t.Errorf("listed 08401 %d times, want 1:\n%s", n, out)
	}
	if !strings.Contains(out, "(1 violations hidden)") {
		t.Errorf("missing hidden count:\n%s", out)
	}
}

func TestRunListFilter(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-color", "never", "-list",
		"-filter", "VUID-vkCmdBindShadersEXT-pStages-08463",
		filepath.Join(testdata, "bind.hcl"),
	}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit code = %d\n%s", code, stdout.String())
	}
	if strings.Contains(stdout.String(), "pStages-08463") {
		t.Errorf("filtered VUID listed:\n%s", stdout.String())
	}
	if !strings.Contains(stdout.String(), "violations hidden") {
		t.Errorf("missing hidden count:\n%s", stdout.String())
	}
}

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no scenario", nil, "no scenario given"},
		{"bad log level", []string{"-log-level", "loud", testdata}, "invalid log-level"},
		{"bad log format", []string{"-log-format", "xml", testdata}, "invalid log-format"},
		{"bad color", []string{"-color", "rainbow", testdata}, "invalid color"},
		{"bad jobs", []string{"-j", "0", testdata}, "invalid -j"},
		{"unknown flag", []string{"-nope", testdata}, "flag provided but not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(context.Background(), tt.args, &stdout, &stderr); code != exitUsage {
				t.Errorf("exit code = %d, want %d", code, exitUsage)
			}
			if !strings.Contains(stderr.String(), tt.want) {
				t.Errorf("stderr missing %q:\n%s", tt.want, stderr.String())
			}
		})
	}
}

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"-h"}, &stdout, &stderr); code != exitOK {
		t.Errorf("exit code = %d, want %d", code, exitOK)
	}
	if !strings.Contains(stderr.String(), "Usage:") {
		t.Errorf("help not printed:\n%s", stderr.String())
	}
}

func TestRunMissingPath(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{filepath.Join(t.TempDir(), "absent.hcl")}, &stdout, &stderr)
	if code != exitFail {
		t.Errorf("exit code = %d, want %d", code, exitFail)
	}
}

func TestRunLoadErrorReported(t *testing.T) {
	path := writeScenario(t, `shader_batch "x" {`)
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-color", "never", path}, &stdout, &stderr)
	if code != exitFail {
		t.Fatalf("exit code = %d, want %d", code, exitFail)
	}
	if !strings.Contains(stdout.String(), "ERROR "+path) {
		t.Errorf("missing ERROR line:\n%s", stdout.String())
	}
}

func TestRunLogsAtWarn(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-color", "never", "-log-level", "warn", "-log-format", "json",
		filepath.Join(testdata, "bind.hcl"),
	}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit code = %d\n%s", code, stdout.String())
	}
	if !strings.Contains(stderr.String(), `"vuid":"VUID-vkCmdBindShadersEXT-pStages-08463"`) {
		t.Errorf("violation not logged as json:\n%s", stderr.String())
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a, ,b ,")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("splitList = %q", got)
	}
	if splitList("") != nil {
		t.Error("empty list must be nil")
	}
}
