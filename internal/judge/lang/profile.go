// Package lang maps language identifiers to judge-server compile/run
// configuration.
package lang

// CompileConfig describes the compile step of a language, including the
// resource ceilings granted to the compiler itself.
type CompileConfig struct {
	SrcName        string `json:"src_name"`
	ExeName        string `json:"exe_name"`
	MaxCPUTime     int    `json:"max_cpu_time"`
	MaxRealTime    int    `json:"max_real_time"`
	MaxMemory      int64  `json:"max_memory"`
	CompileCommand string `json:"compile_command"`
}

// RunConfig describes how the judge server runs the produced executable.
// For languages without a compile step the submitted source is written
// straight to ExeName.
type RunConfig struct {
	ExeName              string   `json:"exe_name,omitempty"`
	Command              string   `json:"command"`
	SeccompRule          string   `json:"seccomp_rule"`
	Env                  []string `json:"env"`
	MemoryLimitCheckOnly int      `json:"memory_limit_check_only,omitempty"`
}

// Profile is the judge-server-facing configuration of one language.
// Compile is nil for languages submitted as-is.
type Profile struct {
	Name    string         `json:"-"`
	Compile *CompileConfig `json:"compile,omitempty"`
	Run     RunConfig      `json:"run"`
}

const (
	compileMaxCPUTime  = 3000
	compileMaxRealTime = 5000
	compileMaxMemory   = 128 * 1024 * 1024
)

var defaultEnv = []string{"LANG=en_US.UTF-8", "LANGUAGE=en_US:en", "LC_ALL=en_US.UTF-8"}

// profiles is process-wide immutable configuration, defined once at
// startup and never mutated.
var profiles = map[string]Profile{
	"cpp": {
		Name: "cpp",
		Compile: &CompileConfig{
			SrcName:        "main.cpp",
			ExeName:        "main",
			MaxCPUTime:     compileMaxCPUTime,
			MaxRealTime:    compileMaxRealTime,
			MaxMemory:      compileMaxMemory,
			CompileCommand: "/usr/bin/g++ -DONLINE_JUDGE -O2 -w -fmax-errors=3 -std=c++14 {src_path} -lm -o {exe_path}",
		},
		Run: RunConfig{
			Command:     "{exe_path}",
			SeccompRule: "c_cpp",
			Env:         defaultEnv,
		},
	},
	"java": {
		Name: "java",
		Compile: &CompileConfig{
			SrcName:        "Main.java",
			ExeName:        "Main",
			MaxCPUTime:     compileMaxCPUTime,
			MaxRealTime:    compileMaxRealTime,
			MaxMemory:      compileMaxMemory,
			CompileCommand: "/usr/bin/javac {src_path} -d {exe_dir} -encoding UTF8",
		},
		Run: RunConfig{
			Command:     "/usr/bin/java -cp {exe_dir} -XX:MaxRAM={max_memory}k -Djava.security.policy==/etc/java_policy -Djava.awt.headless=true Main",
			SeccompRule: "general",
			Env:         defaultEnv,
		},
	},
	"python": {
		Name: "python",
		Compile: &CompileConfig{
			// Bytecode precompile; the produced pyc is what gets executed.
			SrcName:        "solution.py",
			ExeName:        "__pycache__/solution.cpython-36.pyc",
			MaxCPUTime:     compileMaxCPUTime,
			MaxRealTime:    compileMaxRealTime,
			MaxMemory:      compileMaxMemory,
			CompileCommand: "/usr/bin/python3 -m py_compile {src_path}",
		},
		Run: RunConfig{
			Command:     "/usr/bin/python3 {exe_path}",
			SeccompRule: "general",
			Env:         append([]string{"PYTHONIOENCODING=utf-8"}, defaultEnv...),
		},
	},
	"javascript": {
		Name: "javascript",
		Run: RunConfig{
			ExeName:              "solution.js",
			Command:              "/usr/bin/node {exe_path}",
			SeccompRule:          "",
			Env:                  defaultEnv,
			MemoryLimitCheckOnly: 1,
		},
	},
}

// Resolve returns the profile for a language identifier. Unsupported
// identifiers fall back to the cpp profile; this is an explicit default,
// not an error.
func Resolve(languageID string) Profile {
	if profile, ok := profiles[languageID]; ok {
		return profile
	}
	return profiles["cpp"]
}

// Supported reports whether the identifier names a shipped profile.
func Supported(languageID string) bool {
	_, ok := profiles[languageID]
	return ok
}

// SrcName returns the filename the judge server writes the submitted
// source to.
func (p Profile) SrcName() string {
	if p.Compile != nil {
		return p.Compile.SrcName
	}
	return p.Run.ExeName
}
