package lang

import "testing"

func TestResolveKnownLanguages(t *testing.T) {
	for _, id := range []string{"cpp", "java", "python", "javascript"} {
		profile := Resolve(id)
		if profile.Name != id {
			t.Fatalf("Resolve(%q).Name = %q, want %q", id, profile.Name, id)
		}
	}
}

func TestResolveUnknownFallsBackToCpp(t *testing.T) {
	for _, id := range []string{"", "go", "rust", "CPP"} {
		profile := Resolve(id)
		if profile.Name != "cpp" {
			t.Fatalf("Resolve(%q).Name = %q, want cpp", id, profile.Name)
		}
	}
}

func TestSupported(t *testing.T) {
	if !Supported("python") {
		t.Fatalf("Supported(python) = false, want true")
	}
	if Supported("go") {
		t.Fatalf("Supported(go) = true, want false")
	}
	if Supported("") {
		t.Fatalf("Supported(\"\") = true, want false")
	}
}

func TestCompileCeilings(t *testing.T) {
	for _, id := range []string{"cpp", "java", "python"} {
		profile := Resolve(id)
		if profile.Compile == nil {
			t.Fatalf("%s: Compile is nil, want compile step", id)
		}
		if profile.Compile.MaxCPUTime != 3000 {
			t.Fatalf("%s: compile MaxCPUTime = %d, want 3000", id, profile.Compile.MaxCPUTime)
		}
		if profile.Compile.MaxRealTime != 5000 {
			t.Fatalf("%s: compile MaxRealTime = %d, want 5000", id, profile.Compile.MaxRealTime)
		}
		if profile.Compile.MaxMemory != 128*1024*1024 {
			t.Fatalf("%s: compile MaxMemory = %d, want 128MiB", id, profile.Compile.MaxMemory)
		}
	}
}

func TestJavascriptHasNoCompileStep(t *testing.T) {
	profile := Resolve("javascript")
	if profile.Compile != nil {
		t.Fatalf("javascript Compile = %+v, want nil", profile.Compile)
	}
	if profile.Run.ExeName != "solution.js" {
		t.Fatalf("javascript Run.ExeName = %q, want solution.js", profile.Run.ExeName)
	}
	if profile.Run.SeccompRule != "" {
		t.Fatalf("javascript SeccompRule = %q, want empty", profile.Run.SeccompRule)
	}
	if profile.Run.MemoryLimitCheckOnly != 1 {
		t.Fatalf("javascript MemoryLimitCheckOnly = %d, want 1", profile.Run.MemoryLimitCheckOnly)
	}
}

func TestSrcName(t *testing.T) {
	cases := []struct {
		id   string
		want string
	}{
		{"cpp", "main.cpp"},
		{"java", "Main.java"},
		{"python", "solution.py"},
		{"javascript", "solution.js"},
	}
	for _, tc := range cases {
		if got := Resolve(tc.id).SrcName(); got != tc.want {
			t.Fatalf("SrcName(%s) = %q, want %q", tc.id, got, tc.want)
		}
	}
}
