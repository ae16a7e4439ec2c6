// graphdb - Configuration - tests
// Copyright (C) 2026 GraphDB Authors
// Licensed under the GNU Affero General Public License v3 or later.

package config

import "testing"

func TestConfigParseIntLeavesUnsetKeyAlone(t *testing.T) {
	var v uint32 = 500
	if errs := configParseInt(&v, "graphdb.nonexistent_key", 1, 10); errs != 0 {
		t.Fatalf("configParseInt on an unset key returned %d errors, want 0 (left unset for defaults)", errs)
	}
	if v != 500 {
		t.Fatalf("configParseInt overwrote an unset value to %d", v)
	}
}

func TestApplyDefaultsFillsZeroFields(t *testing.T) {
	config = Config{}
	if err := applyDefaults(); err != nil {
		t.Fatalf("applyDefaults: %v", err)
	}
	if config.workerCount != defaultConfig.workerCount {
		t.Fatalf("workerCount = %d, want default %d", config.workerCount, defaultConfig.workerCount)
	}
	if config.initialNumElements != defaultConfig.initialNumElements {
		t.Fatalf("initialNumElements = %d, want default %d", config.initialNumElements, defaultConfig.initialNumElements)
	}
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	config = Config{workerCount: 16}
	if err := applyDefaults(); err != nil {
		t.Fatalf("applyDefaults: %v", err)
	}
	if config.workerCount != 16 {
		t.Fatalf("workerCount = %d, want explicit 16 preserved", config.workerCount)
	}
	if config.initialNumElements != defaultConfig.initialNumElements {
		t.Fatalf("initialNumElements = %d, want default %d filled in", config.initialNumElements, defaultConfig.initialNumElements)
	}
}

// EOF
