// Package xctestrun patches the .xctestrun files xcodebuild emits during
// build-for-testing. `xcodebuild test` does not forward host environment
// variables into the simulator's xctest process; the only reliable channel is
// the EnvironmentVariables dictionaries inside the .xctestrun plist, so perf
// runs parameterized by env vars have to inject them there before
// test-without-building.
package xctestrun

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"howett.net/plist"
)

// DefaultPrefixes selects which host env vars get forwarded into the simulator
var DefaultPrefixes = []string{"LEXICAL_BENCH_", "LEXICAL_FORCE_"}

// envKeys receive the injected variables inside every test target
var envKeys = []string{"EnvironmentVariables", "TestingEnvironmentVariables"}

// CollectEnv picks entries from environ ("KEY=VALUE" form) whose names match
// any of the prefixes.
func CollectEnv(environ, prefixes []string) map[string]string {
	env := make(map[string]string)
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		for _, p := range prefixes {
			if strings.HasPrefix(name, p) {
				env[name] = value
				break
			}
		}
	}
	return env
}

// FindLatest returns the newest .xctestrun for scheme under productsDir,
// newest by modification time since build-for-testing rewrites the file on
// every build. An empty scheme matches any .xctestrun.
func FindLatest(productsDir, scheme string) (string, error) {
	pattern := "*.xctestrun"
	if scheme != "" {
		pattern = fmt.Sprintf("%s_%s_*.xctestrun", scheme, scheme)
	}
	matches, err := filepath.Glob(filepath.Join(productsDir, pattern))
	if err != nil {
		return "", err
	}
	// Patched copies live in the same directory; never pick one up as input
	inputs := matches[:0]
	for _, m := range matches {
		if !strings.HasSuffix(m, ".patched.xctestrun") {
			inputs = append(inputs, m)
		}
	}
	if len(inputs) == 0 {
		return "", fmt.Errorf("no .xctestrun found matching %s/%s (did build-for-testing run?)", productsDir, pattern)
	}

	sort.Slice(inputs, func(i, j int) bool {
		mi, ei := os.Stat(inputs[i])
		mj, ej := os.Stat(inputs[j])
		if ei != nil || ej != nil {
			return inputs[i] < inputs[j]
		}
		return mi.ModTime().After(mj.ModTime())
	})
	return inputs[0], nil
}

// PatchedName builds the output filename next to src. Keeping the copy in
// the same directory lets __TESTROOT__ keep resolving to the built products.
func PatchedName(src, scheme string) string {
	stamp := time.Now().UTC().Format("20060102T150405")
	if scheme == "" {
		scheme = "patched"
	}
	return filepath.Join(filepath.Dir(src), fmt.Sprintf("%s-%s.patched.xctestrun", scheme, stamp))
}

// Patch reads the .xctestrun at src, injects env into every test target of
// every test configuration, and writes the result as an XML plist to dst.
// Existing entries in the environment dictionaries are kept unless the
// injected set overrides them; everything else in the plist passes through
// untouched.
func Patch(src, dst string, env map[string]string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read xctestrun: %w", err)
	}

	var root map[string]interface{}
	if _, err := plist.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("failed to parse xctestrun plist: %w", err)
	}

	injectEnv(root, env)

	out, err := plist.MarshalIndent(root, plist.XMLFormat, "\t")
	if err != nil {
		return fmt.Errorf("failed to serialize patched plist: %w", err)
	}
	if err := os.WriteFile(dst, out, 0644); err != nil {
		return fmt.Errorf("failed to write patched xctestrun: %w", err)
	}
	return nil
}

// injectEnv merges env into the EnvironmentVariables and
// TestingEnvironmentVariables dictionary of each test target. Non-dict
// values (like __xctestrun_metadata__) are left alone.
func injectEnv(root map[string]interface{}, env map[string]string) {
	configs, _ := root["TestConfigurations"].([]interface{})
	for _, c := range configs {
		cfg, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		targets, _ := cfg["TestTargets"].([]interface{})
		for _, tt := range targets {
			target, ok := tt.(map[string]interface{})
			if !ok {
				continue
			}
			for _, key := range envKeys {
				vars, ok := target[key].(map[string]interface{})
				if !ok {
					vars = make(map[string]interface{})
					target[key] = vars
				}
				for k, v := range env {
					vars[k] = v
				}
			}
		}
	}
}
